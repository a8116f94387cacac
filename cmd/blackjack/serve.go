package main

import (
	"os"

	"github.com/lox/blackjackgym/cmd/blackjack/shared"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/server"
)

// ServeCmd runs the websocket environment server
type ServeCmd struct {
	ConfigFlags

	Addr     string `help:"Listen address (overrides the config file)"`
	JSONLogs bool   `name:"json-logs" help:"Log as JSON instead of console output"`
	Debug    bool   `help:"Enable debug logging"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	if c.JSONLogs {
		logger = shared.SetupStructuredLogger(c.Debug)
	}

	cfg, seed, err := c.load(logger)
	if err != nil {
		return err
	}
	addr := cfg.Server.Address
	if c.Addr != "" {
		addr = c.Addr
	}

	engineLogger := shared.EngineLogger(os.Stderr, c.Debug)
	s, err := server.NewServer(server.Config{
		Address:     addr,
		IdleTimeout: cfg.IdleTimeout(),
		MaxSessions: cfg.Server.MaxSessions,
		Seed:        seed,
		EnvOptions:  append(cfg.EnvOptions(), game.WithLogger(engineLogger)),
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	logger.Info().
		Str("address", addr).
		Int("seats", len(cfg.Table.Seats)).
		Int("decks", cfg.Table.Decks).
		Str("observation", cfg.Observation.Level).
		Dur("idle_timeout", cfg.IdleTimeout()).
		Int("max_sessions", cfg.Server.MaxSessions).
		Msg("Starting blackjack server")

	ctx := shared.SetupSignalHandlerWithLogger(logger, "serve")
	return s.ListenAndServe(ctx)
}
