package policy

import (
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
)

// Random picks uniformly among actions. By default it may choose an illegal
// Double or Split, which a learning baseline needs to see penalized.
type Random struct {
	rng       *rand.Rand
	logger    *log.Logger
	legalOnly bool
}

// RandomOption configures a Random policy
type RandomOption func(*Random)

// LegalOnly restricts choices to actions the observation marks legal
func LegalOnly() RandomOption {
	return func(r *Random) {
		r.legalOnly = true
	}
}

// NewRandom creates a new Random policy
func NewRandom(rng *rand.Rand, logger *log.Logger, opts ...RandomOption) *Random {
	r := &Random{rng: rng, logger: logger.WithPrefix("random")}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Random) Name() string {
	if r.legalOnly {
		return "legal"
	}
	return "random"
}

func (r *Random) Act(obs game.Observation) game.Action {
	choices := game.Actions[:]
	if r.legalOnly {
		choices = Legal(obs)
	}
	a := choices[r.rng.IntN(len(choices))]
	r.logger.Debug("random action", "sum", obs.PlayerSum, "action", a)
	return a
}

// Legal returns the actions obs allows. Stand and Hit are always legal.
func Legal(obs game.Observation) []game.Action {
	legal := []game.Action{game.Stand, game.Hit}
	if obs.CanDouble {
		legal = append(legal, game.Double)
	}
	if obs.CanSplit {
		legal = append(legal, game.Split)
	}
	return legal
}
