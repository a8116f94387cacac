package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	"github.com/lox/blackjackgym/cmd/blackjack/shared"
	"github.com/lox/blackjackgym/internal/fileutil"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/history"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/simulator"
	"github.com/rs/zerolog"
)

// SimulateCmd runs a policy for many rounds
type SimulateCmd struct {
	ConfigFlags
	PolicyFlags

	Rounds     int           `short:"n" default:"10000" help:"Rounds to play"`
	Workers    int           `short:"w" default:"1" help:"Parallel workers, each with its own shoe"`
	Timeout    time.Duration `default:"5s" help:"Per-round timeout"`
	HistoryDir string        `name:"history-dir" help:"Write every round to this directory as TOML" type:"path"`
	HistoryDB  string        `name:"history-db" help:"Store every round in this SQLite database" type:"path"`
	Report     string        `help:"Write a JSON report to this file" type:"path"`
	Debug      bool          `help:"Enable debug logging"`
}

// Report is the JSON document written by --report
type Report struct {
	Policy    string     `json:"policy"`
	Seed      int64      `json:"seed"`
	Rounds    int        `json:"rounds"`
	Workers   int        `json:"workers"`
	ElapsedMs int64      `json:"elapsed_ms"`
	Mean      float64    `json:"mean"`
	StdDev    float64    `json:"std_dev"`
	CILow     float64    `json:"ci95_low"`
	CIHigh    float64    `json:"ci95_high"`
	Median    float64    `json:"median"`
	Counters  game.Stats `json:"counters"`
	WinRate   float64    `json:"win_rate"`
	EarnRate  float64    `json:"earn_rate"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)
	ctx := shared.SetupSignalHandlerWithLogger(logger, "simulate")
	return c.run(ctx, logger, os.Stdout)
}

func (c *SimulateCmd) run(ctx context.Context, logger zerolog.Logger, out io.Writer) error {
	engineLogger := shared.EngineLogger(os.Stderr, c.Debug)

	cfg, seed, err := c.load(logger)
	if err != nil {
		return err
	}
	envOpts := append(cfg.EnvOptions(), game.WithLogger(engineLogger))

	var writer *history.Writer
	if c.HistoryDir != "" {
		writer, err = history.NewWriter(c.HistoryDir, seed, engineLogger)
		if err != nil {
			return err
		}
	}

	var store *history.Store
	if c.HistoryDB != "" {
		store, err = history.NewStore(c.HistoryDB, seed, engineLogger)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer store.Close()
	}
	if recorder := recorders(writer, store); recorder != nil {
		envOpts = append(envOpts, game.WithRecorder(recorder))
	}

	logger.Info().
		Str("policy", c.name()).
		Int("rounds", c.Rounds).
		Int("workers", c.Workers).
		Int("seats", len(cfg.Table.Seats)).
		Int("decks", cfg.Table.Decks).
		Str("observation", cfg.Observation.Level).
		Msg("Starting simulation")

	sim := simulator.New(simulator.Config{
		Rounds:     c.Rounds,
		Workers:    c.Workers,
		PolicyName: c.name(),
		NewPolicy: func(_ int, rng *rand.Rand) (policy.Policy, error) {
			return c.build(rng, engineLogger)
		},
		Seed:       seed,
		Timeout:    c.Timeout,
		EnvOptions: envOpts,
		Logger:     engineLogger,
	})
	result, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	simulator.PrintSummary(out, result)
	if writer != nil {
		fmt.Fprintf(out, "\nWrote %d rounds to %s\n", writer.Written(), writer.Dir())
	}
	if store != nil {
		n, err := store.Count(ctx)
		if err != nil {
			return fmt.Errorf("count stored rounds: %w", err)
		}
		fmt.Fprintf(out, "Stored %d rounds in %s\n", n, c.HistoryDB)
	}

	if c.Report != "" {
		if err := fileutil.WriteJSONAtomic(c.Report, c.report(result, seed), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info().Str("file", c.Report).Msg("Report written")
	}
	return nil
}

// recorders fans each round out to whichever history sinks are enabled
func recorders(writer *history.Writer, store *history.Store) game.Recorder {
	switch {
	case writer == nil && store == nil:
		return nil
	case store == nil:
		return writer
	case writer == nil:
		return store
	}
	return game.RecorderFunc(func(s game.RoundSummary) error {
		if err := writer.RecordRound(s); err != nil {
			return err
		}
		return store.RecordRound(s)
	})
}

func (c *SimulateCmd) report(r *simulator.Result, seed int64) Report {
	low, high := r.Stats.ConfidenceInterval95()
	return Report{
		Policy:    r.Policy,
		Seed:      seed,
		Rounds:    r.Stats.Rounds,
		Workers:   c.Workers,
		ElapsedMs: r.Elapsed.Milliseconds(),
		Mean:      r.Stats.Mean(),
		StdDev:    r.Stats.StdDev(),
		CILow:     low,
		CIHigh:    high,
		Median:    r.Stats.Median(),
		Counters:  r.Counters,
		WinRate:   r.Counters.WinRate(),
		EarnRate:  r.Counters.EarnRate(),
	}
}
