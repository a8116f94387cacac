package main

import (
	"fmt"
	"os"

	"github.com/lox/blackjackgym/cmd/blackjack/shared"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/lox/blackjackgym/internal/tui"
)

// PlayCmd opens the terminal table
type PlayCmd struct {
	ConfigFlags

	Advisor string `default:"basic" help:"Policy whose choice is shown for each hand (none to hide)"`
	NoColor bool   `name:"no-color" help:"Disable colors"`
	LogFile string `name:"log-file" default:"blackjack.log" help:"Engine log file (the terminal is taken by the table)"`
	Debug   bool   `help:"Enable debug logging"`
}

func (c *PlayCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	cfg, seed, err := c.load(logger)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	engineLogger := shared.EngineLogger(logFile, c.Debug)

	rng := randutil.New(seed)
	env, err := game.NewEnv(rng, append(cfg.EnvOptions(), game.WithLogger(engineLogger))...)
	if err != nil {
		return err
	}

	var opts []tui.Option
	if c.Advisor != "" && c.Advisor != "none" {
		advisor, err := policy.New(c.Advisor, randutil.New(randutil.Derive(seed, 1)), engineLogger)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithAdvisor(advisor))
	}
	if c.NoColor {
		tui.DisableColor()
	}

	return tui.Run(env, engineLogger, opts...)
}
