package game

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/deck"
)

const (
	DefaultDecks          = 8
	DefaultWager          = 100
	DefaultChipScale      = 100.0
	DefaultIllegalPenalty = 100.0
	DealerStandsOn        = 17
)

// Option configures an Env during creation.
type Option func(*envConfig)

// envConfig holds all configuration for an Env.
type envConfig struct {
	decks          int
	threshold      float64
	wagers         []int
	chipScale      float64 // chips per reward unit
	illegalPenalty float64 // reward units lost per hand in play
	level          ObservationLevel
	recorder       Recorder
	logger         *log.Logger
}

func defaultEnvConfig() envConfig {
	return envConfig{
		decks:          DefaultDecks,
		threshold:      deck.DefaultReshuffleThreshold,
		wagers:         []int{DefaultWager},
		chipScale:      DefaultChipScale,
		illegalPenalty: DefaultIllegalPenalty,
		level:          ObservationBasic,
		logger:         log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// WithDecks sets how many decks a fresh shoe holds. Default is 8.
func WithDecks(n int) Option {
	return func(c *envConfig) {
		c.decks = n
	}
}

// WithReshuffleThreshold sets the remaining fraction below which a
// continuation reset rebuilds the shoe. Default is 0.30.
func WithReshuffleThreshold(f float64) Option {
	return func(c *envConfig) {
		c.threshold = f
	}
}

// WithWagers seats one player per wager, in table order.
func WithWagers(wagers ...int) Option {
	return func(c *envConfig) {
		c.wagers = append([]int(nil), wagers...)
	}
}

// WithChipScale sets how many chips make one reward unit. Default is 100.
func WithChipScale(scale float64) Option {
	return func(c *envConfig) {
		c.chipScale = scale
	}
}

// WithIllegalPenalty sets the per-hand penalty for an illegal Double or
// Split. Default is 100.
func WithIllegalPenalty(p float64) Option {
	return func(c *envConfig) {
		c.illegalPenalty = p
	}
}

// WithObservationLevel selects which shoe features observations carry.
func WithObservationLevel(l ObservationLevel) Option {
	return func(c *envConfig) {
		c.level = l
	}
}

// WithRecorder receives a summary of every finished round.
func WithRecorder(r Recorder) Option {
	return func(c *envConfig) {
		c.recorder = r
	}
}

// WithLogger sets the logger. Rounds are logged at debug level.
func WithLogger(l *log.Logger) Option {
	return func(c *envConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
