package policy

import (
	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
)

// DealerMimic plays the dealer's rule: hit below 17, otherwise stand
type DealerMimic struct {
	logger *log.Logger
}

// NewDealerMimic creates a new DealerMimic policy
func NewDealerMimic(logger *log.Logger) *DealerMimic {
	return &DealerMimic{logger: logger.WithPrefix("dealer")}
}

func (d *DealerMimic) Name() string { return "dealer" }

func (d *DealerMimic) Act(obs game.Observation) game.Action {
	if obs.PlayerSum < game.DealerStandsOn {
		return game.Hit
	}
	return game.Stand
}
