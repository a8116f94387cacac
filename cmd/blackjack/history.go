package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/lox/blackjackgym/cmd/blackjack/shared"
	"github.com/lox/blackjackgym/internal/history"
)

// HistoryCmd summarises round history written by simulate
type HistoryCmd struct {
	Dir string `arg:"" optional:"" name:"dir" help:"Directory of .toml round files" type:"path"`
	DB  string `name:"db" help:"SQLite database written by simulate --history-db" type:"path"`
}

func (c *HistoryCmd) Run() error {
	return c.run(context.Background(), os.Stdout)
}

func (c *HistoryCmd) run(ctx context.Context, out io.Writer) error {
	var (
		summary *history.Summary
		source  string
		err     error
	)
	switch {
	case c.DB != "" && c.Dir != "":
		return fmt.Errorf("pass either a directory or --db, not both")
	case c.DB != "":
		source = c.DB
		summary, err = c.fromDB(ctx)
	case c.Dir != "":
		source = c.Dir
		summary, err = history.Summarize(c.Dir)
	default:
		return fmt.Errorf("a history directory or --db is required")
	}
	if err != nil {
		return err
	}
	if summary.Rounds == 0 {
		return fmt.Errorf("no rounds found in %s", source)
	}
	summary.Print(out)
	return nil
}

func (c *HistoryCmd) fromDB(ctx context.Context) (*history.Summary, error) {
	store, err := history.NewStore(c.DB, 0, shared.EngineLogger(os.Stderr, false))
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	defer store.Close()
	return store.Summarize(ctx)
}
