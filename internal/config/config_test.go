package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 8, c.Table.Decks)
	assert.InDelta(t, 0.30, c.Table.ReshuffleThreshold, 1e-9)
	assert.Equal(t, []int{100}, c.Wagers())
	assert.InDelta(t, 100.0, c.Reward.ChipScale, 1e-9)
	assert.Equal(t, "basic", c.Observation.Level)
	assert.Equal(t, 5*time.Minute, c.IdleTimeout())
}

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "blackjack.hcl", `
seed = 42

table {
  decks = 6
  reshuffle_threshold = 0.25

  seat "left" {
    wager = 50
  }
  seat "right" {
    wager = 200
  }
}

reward {
  chip_scale = 10
}

observation {
  level = "history"
}

server {
  address = ":9000"
  max_sessions = 4
}
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, 6, c.Table.Decks)
	assert.Equal(t, []int{50, 200}, c.Wagers())
	assert.Equal(t, "left", c.Table.Seats[0].Name)
	assert.InDelta(t, 10.0, c.Reward.ChipScale, 1e-9)
	require.NotNil(t, c.Reward.IllegalPenalty)
	assert.InDelta(t, 100.0, *c.Reward.IllegalPenalty, 1e-9, "default applied")
	assert.Equal(t, ":9000", c.Server.Address)
	assert.Equal(t, 4, c.Server.MaxSessions)
	assert.Equal(t, 300, c.Server.IdleTimeoutSeconds)

	env, err := game.NewEnv(randutil.New(1), c.EnvOptions()...)
	require.NoError(t, err)
	assert.Equal(t, game.ObservationHistory, env.Level())
	assert.Len(t, env.Table().Seats, 2)
	assert.Equal(t, 6*52-6, env.Shoe().Remaining())
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(writeFile(t, "bad.hcl", `table {`))
	assert.ErrorContains(t, err, "parse")

	_, err = Load(writeFile(t, "bad.hcl", `table { seat "a" {} }`))
	assert.ErrorContains(t, err, "decode")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero decks", func(c *Config) { c.Table.Decks = -1 }, deck.ErrInvalidDeckCount},
		{"too many seats", func(c *Config) {
			c.Table.Seats = make([]SeatConfig, 8)
		}, game.ErrCapacityExceeded},
		{"bad wager", func(c *Config) { c.Table.Seats[0].Wager = -1 }, game.ErrInvalidWager},
		{"threshold", func(c *Config) { c.Table.ReshuffleThreshold = 1 }, nil},
		{"level", func(c *Config) { c.Observation.Level = "x-ray" }, nil},
		{"penalty", func(c *Config) {
			penalty := -3.0
			c.Reward.IllegalPenalty = &penalty
		}, nil},
		{"shoe too small for seats", func(c *Config) {
			c.Table.Decks = 1
			c.Table.Seats = make([]SeatConfig, game.MaxSeats)
			for i := range c.Table.Seats {
				c.Table.Seats[i].Wager = 100
			}
		}, game.ErrCapacityExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestLoadZeroPenalty(t *testing.T) {
	c, err := Load(writeFile(t, "blackjack.hcl", `
reward {
  illegal_penalty = 0
}
`))
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.NotNil(t, c.Reward.IllegalPenalty)
	assert.Zero(t, *c.Reward.IllegalPenalty)

	env, err := game.NewEnv(randutil.New(4), c.EnvOptions()...)
	require.NoError(t, err)
	for {
		res, err := env.Step(game.Hit)
		require.NoError(t, err)
		if res.Terminated {
			_, err = env.Reset(false)
			require.NoError(t, err)
			continue
		}

		// three cards cannot double
		res, err = env.Step(game.Double)
		require.NoError(t, err)
		require.True(t, res.Info.Illegal)
		assert.Zero(t, res.Reward)
		assert.Equal(t, 1, env.Stats().IllegalMoves)
		break
	}
}

func TestValidateFullTableOnEightDecks(t *testing.T) {
	c := Default()
	c.Table.Seats = make([]SeatConfig, game.MaxSeats)
	for i := range c.Table.Seats {
		c.Table.Seats[i].Wager = 100
	}
	assert.NoError(t, c.Validate())
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	require.NoError(t, c.ApplyEnv(mapLookup(map[string]string{
		EnvDecks:       "2",
		EnvSeats:       "3",
		EnvWager:       "25",
		EnvSeed:        "-7",
		EnvObservation: "counting",
	})))
	require.NoError(t, c.Validate())

	assert.Equal(t, 2, c.Table.Decks)
	assert.Equal(t, []int{25, 25, 25}, c.Wagers())
	assert.Equal(t, "seat3", c.Table.Seats[2].Name)
	assert.Equal(t, int64(-7), c.Seed)
	assert.Equal(t, "counting", c.Observation.Level)

	assert.Error(t, Default().ApplyEnv(mapLookup(map[string]string{EnvDecks: "many"})))
	assert.Error(t, Default().ApplyEnv(mapLookup(map[string]string{EnvSeed: "x"})))
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "BLACKJACK_TEST_DOTENV=9\n")
	t.Setenv("BLACKJACK_TEST_DOTENV", "")
	os.Unsetenv("BLACKJACK_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path, filepath.Join(t.TempDir(), "absent.env")))
	assert.Equal(t, "9", os.Getenv("BLACKJACK_TEST_DOTENV"))
}
