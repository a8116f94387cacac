// Package policy holds action-selection strategies that drive a game.Env.
package policy

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
)

// Policy picks an action for the active hand
type Policy interface {
	Name() string
	Act(obs game.Observation) game.Action
}

// Factory builds a policy from a shared rng and logger
type Factory func(rng *rand.Rand, logger *log.Logger) Policy

var registry = map[string]Factory{
	"random": func(rng *rand.Rand, logger *log.Logger) Policy {
		return NewRandom(rng, logger)
	},
	"legal": func(rng *rand.Rand, logger *log.Logger) Policy {
		return NewRandom(rng, logger, LegalOnly())
	},
	"basic": func(_ *rand.Rand, logger *log.Logger) Policy {
		return NewBasicStrategy(logger)
	},
	"basic-nodouble": func(_ *rand.Rand, logger *log.Logger) Policy {
		return NewBasicStrategy(logger, WithoutDouble())
	},
	"dealer": func(_ *rand.Rand, logger *log.Logger) Policy {
		return NewDealerMimic(logger)
	},
}

// New returns the named built-in policy
func New(name string, rng *rand.Rand, logger *log.Logger) (Policy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown policy %q (available: %v)", name, Names())
	}
	return f(rng, logger), nil
}

// Names lists the built-in policies
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
