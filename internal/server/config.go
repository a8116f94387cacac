package server

import (
	"time"

	"github.com/coder/quartz"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/rs/zerolog"
)

const (
	defaultAddress     = "localhost:8080"
	defaultIdleTimeout = 5 * time.Minute
	defaultMaxSessions = 64
)

// Config holds the server settings. Every session builds its own Env from
// EnvOptions with a seed derived from Seed and the session number.
type Config struct {
	Address     string
	IdleTimeout time.Duration
	MaxSessions int
	Seed        int64
	EnvOptions  []game.Option
	Clock       quartz.Clock
	Logger      zerolog.Logger
}

func (c *Config) applyDefaults() {
	if c.Address == "" {
		c.Address = defaultAddress
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaultIdleTimeout
	}
	if c.MaxSessions <= 0 {
		c.MaxSessions = defaultMaxSessions
	}
	if c.Clock == nil {
		c.Clock = quartz.NewReal()
	}
}
