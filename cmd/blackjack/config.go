package main

import (
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/config"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/rs/zerolog"
)

// ConfigFlags are shared by commands that build environments
type ConfigFlags struct {
	Config  string   `short:"c" help:"HCL configuration file" type:"path"`
	EnvFile []string `name:"env-file" help:"Dotenv files to load before reading BLACKJACK_* variables" default:".env"`
	Seed    *int64   `help:"Deterministic RNG seed (overrides the config file)"`
}

// load reads the config file, applies dotenv and environment overrides and
// resolves the seed. A zero seed from every source means a time seed.
func (f ConfigFlags) load(logger zerolog.Logger) (*config.Config, int64, error) {
	cfg, err := config.Load(f.Config)
	if err != nil {
		return nil, 0, err
	}
	if err := config.LoadDotEnv(f.EnvFile...); err != nil {
		return nil, 0, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, 0, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, 0, fmt.Errorf("invalid configuration: %w", err)
	}

	seed := cfg.Seed
	if f.Seed != nil {
		seed = *f.Seed
	}
	if seed == 0 {
		seed = randutil.TimeSeed()
		logger.Info().Int64("seed", seed).Msg("Using random seed")
	} else {
		logger.Info().Int64("seed", seed).Msg("Using deterministic seed")
	}
	return cfg, seed, nil
}

// PolicyFlags select a built-in policy or a Lua script
type PolicyFlags struct {
	Policy string `short:"p" default:"basic" help:"Built-in policy (${policies})"`
	Script string `help:"Lua policy script; overrides --policy"`
}

func (f PolicyFlags) name() string {
	if f.Script != "" {
		return "script:" + f.Script
	}
	return f.Policy
}

func (f PolicyFlags) build(rng *rand.Rand, logger *log.Logger) (policy.Policy, error) {
	if f.Script != "" {
		return policy.LoadScript(f.Script, logger)
	}
	return policy.New(f.Policy, rng, logger)
}

// closePolicy releases script state
func closePolicy(p policy.Policy) {
	if c, ok := p.(interface{ Close() }); ok {
		c.Close()
	}
}
