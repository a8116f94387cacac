// Package config loads table, reward and server settings from an HCL file,
// .env files and BLACKJACK_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/joho/godotenv"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/game"
)

// Environment variable names that override the file
const (
	EnvDecks       = "BLACKJACK_DECKS"
	EnvSeats       = "BLACKJACK_SEATS"
	EnvWager       = "BLACKJACK_WAGER"
	EnvSeed        = "BLACKJACK_SEED"
	EnvObservation = "BLACKJACK_OBSERVATION"
)

// Config represents the complete configuration
type Config struct {
	Seed        int64              `hcl:"seed,optional"`
	Table       *TableConfig       `hcl:"table,block"`
	Reward      *RewardConfig      `hcl:"reward,block"`
	Observation *ObservationConfig `hcl:"observation,block"`
	Server      *ServerSettings    `hcl:"server,block"`
}

// TableConfig describes the shoe and the seats
type TableConfig struct {
	Decks              int          `hcl:"decks,optional"`
	ReshuffleThreshold float64      `hcl:"reshuffle_threshold,optional"`
	Seats              []SeatConfig `hcl:"seat,block"`
}

// SeatConfig is one betting position
type SeatConfig struct {
	Name  string `hcl:"name,label"`
	Wager int    `hcl:"wager"`
}

// RewardConfig sets the reward scaling. IllegalPenalty is a pointer so an
// explicit zero survives defaulting.
type RewardConfig struct {
	ChipScale      float64  `hcl:"chip_scale,optional"`
	IllegalPenalty *float64 `hcl:"illegal_penalty,optional"`
}

// ObservationConfig selects the observation level
type ObservationConfig struct {
	Level string `hcl:"level,optional"`
}

// ServerSettings contains network environment settings
type ServerSettings struct {
	Address            string `hcl:"address,optional"`
	IdleTimeoutSeconds int    `hcl:"idle_timeout_seconds,optional"`
	MaxSessions        int    `hcl:"max_sessions,optional"`
}

const (
	defaultAddress     = "localhost:8080"
	defaultIdleTimeout = 300
	defaultMaxSessions = 64
)

// Default returns the default configuration
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load loads configuration from an HCL file. A missing file yields the
// defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Table == nil {
		c.Table = &TableConfig{}
	}
	if c.Table.Decks == 0 {
		c.Table.Decks = game.DefaultDecks
	}
	if c.Table.ReshuffleThreshold == 0 {
		c.Table.ReshuffleThreshold = deck.DefaultReshuffleThreshold
	}
	if len(c.Table.Seats) == 0 {
		c.Table.Seats = []SeatConfig{{Name: "seat1", Wager: game.DefaultWager}}
	}

	if c.Reward == nil {
		c.Reward = &RewardConfig{}
	}
	if c.Reward.ChipScale == 0 {
		c.Reward.ChipScale = game.DefaultChipScale
	}
	if c.Reward.IllegalPenalty == nil {
		penalty := game.DefaultIllegalPenalty
		c.Reward.IllegalPenalty = &penalty
	}

	if c.Observation == nil {
		c.Observation = &ObservationConfig{}
	}
	if c.Observation.Level == "" {
		c.Observation.Level = game.ObservationBasic.String()
	}

	if c.Server == nil {
		c.Server = &ServerSettings{}
	}
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.IdleTimeoutSeconds == 0 {
		c.Server.IdleTimeoutSeconds = defaultIdleTimeout
	}
	if c.Server.MaxSessions == 0 {
		c.Server.MaxSessions = defaultMaxSessions
	}
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides settings from BLACKJACK_* variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDecks); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvDecks, err)
		}
		c.Table.Decks = n
	}

	if v, ok := lookup(EnvSeats); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvSeats, err)
		}
		if n < 0 {
			return fmt.Errorf("invalid %s value: %d", EnvSeats, n)
		}
		wager := c.Table.Seats[0].Wager
		c.Table.Seats = make([]SeatConfig, n)
		for i := range c.Table.Seats {
			c.Table.Seats[i] = SeatConfig{Name: "seat" + strconv.Itoa(i+1), Wager: wager}
		}
	}

	if v, ok := lookup(EnvWager); ok {
		w, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvWager, err)
		}
		for i := range c.Table.Seats {
			c.Table.Seats[i].Wager = w
		}
	}

	if v, ok := lookup(EnvSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", EnvSeed, err)
		}
		c.Seed = seed
	}

	if v, ok := lookup(EnvObservation); ok {
		c.Observation.Level = v
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Table.Decks <= 0 {
		return fmt.Errorf("%w: %d", deck.ErrInvalidDeckCount, c.Table.Decks)
	}
	if c.Table.ReshuffleThreshold <= 0 || c.Table.ReshuffleThreshold >= 1 {
		return fmt.Errorf("reshuffle_threshold must be between 0 and 1, got %v", c.Table.ReshuffleThreshold)
	}
	if n := len(c.Table.Seats); n == 0 || n > game.MaxSeats {
		return fmt.Errorf("%w: table takes 1 to %d seats, got %d", game.ErrCapacityExceeded, game.MaxSeats, n)
	}
	for _, s := range c.Table.Seats {
		if s.Wager <= 0 {
			return fmt.Errorf("%w: seat %q wager %d", game.ErrInvalidWager, s.Name, s.Wager)
		}
	}
	seats := len(c.Table.Seats)
	if total, need := c.Table.Decks*deck.CardsPerDeck, game.RoundCardBudget(c.Table.Decks, seats); total < need {
		return fmt.Errorf("%w: %d decks hold %d cards, %d seats may need %d in one round",
			game.ErrCapacityExceeded, c.Table.Decks, total, seats, need)
	}
	if c.Reward.ChipScale <= 0 {
		return fmt.Errorf("chip_scale must be positive, got %v", c.Reward.ChipScale)
	}
	if c.Reward.IllegalPenalty == nil || *c.Reward.IllegalPenalty < 0 {
		return fmt.Errorf("illegal_penalty must not be negative, got %v", c.penalty())
	}
	if _, err := game.ParseObservationLevel(c.Observation.Level); err != nil {
		return err
	}
	if c.Server.IdleTimeoutSeconds < 0 {
		return fmt.Errorf("idle_timeout_seconds must not be negative, got %d", c.Server.IdleTimeoutSeconds)
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("max_sessions must not be negative, got %d", c.Server.MaxSessions)
	}
	return nil
}

// Wagers returns the seat wagers in table order
func (c *Config) Wagers() []int {
	wagers := make([]int, len(c.Table.Seats))
	for i, s := range c.Table.Seats {
		wagers[i] = s.Wager
	}
	return wagers
}

// IdleTimeout returns the server idle timeout
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.Server.IdleTimeoutSeconds) * time.Second
}

func (c *Config) penalty() float64 {
	if c.Reward.IllegalPenalty == nil {
		return game.DefaultIllegalPenalty
	}
	return *c.Reward.IllegalPenalty
}

// EnvOptions converts the configuration into game options. Call Validate
// first.
func (c *Config) EnvOptions() []game.Option {
	level, _ := game.ParseObservationLevel(c.Observation.Level)
	return []game.Option{
		game.WithDecks(c.Table.Decks),
		game.WithReshuffleThreshold(c.Table.ReshuffleThreshold),
		game.WithWagers(c.Wagers()...),
		game.WithChipScale(c.Reward.ChipScale),
		game.WithIllegalPenalty(c.penalty()),
		game.WithObservationLevel(level),
	}
}
