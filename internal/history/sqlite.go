package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"

	_ "modernc.org/sqlite"
)

// ErrRoundNotFound is returned by Store.Load for an unknown round id
var ErrRoundNotFound = errors.New("round not found")

const storeTimeout = 5 * time.Second

// Store keeps rounds in a SQLite database. Each row carries the indexed
// columns plus the TOML body, so a stored round decodes exactly like a file.
// It implements game.Recorder.
type Store struct {
	db     *sql.DB
	seed   int64
	now    func() time.Time
	logger *log.Logger
}

// NewStore opens or creates the database at path. ":memory:" is accepted.
func NewStore(path string, seed int64, logger *log.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if path != ":memory:" {
		if parent := filepath.Dir(path); parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		seed:   seed,
		now:    time.Now,
		logger: logger.WithPrefix("history"),
	}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS rounds (
    round_id     TEXT PRIMARY KEY,
    number       INTEGER NOT NULL,
    seed         INTEGER NOT NULL,
    played_at_ms INTEGER NOT NULL,
    reshuffled   INTEGER NOT NULL,
    illegal      INTEGER NOT NULL,
    reward       REAL NOT NULL,
    dealer_value INTEGER NOT NULL,
    hands        INTEGER NOT NULL,
    body         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rounds_played_at ON rounds (played_at_ms, number);
`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRound implements game.Recorder
func (s *Store) RecordRound(summary game.RoundSummary) error {
	round := FromSummary(summary, s.seed, s.now())
	body, err := EncodeToBytes(round)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	_, err = s.db.ExecContext(ctx, `
INSERT INTO rounds (
    round_id, number, seed, played_at_ms, reshuffled, illegal, reward, dealer_value, hands, body
)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (round_id) DO NOTHING
`, round.ID, round.Number, round.Seed, round.Time.UnixMilli(), round.Reshuffled, round.Illegal,
		round.Reward, round.Dealer.Value, len(round.Hands), string(body))
	if err != nil {
		return fmt.Errorf("insert round %s: %w", round.ID, err)
	}

	s.logger.Debug("round stored", "round", round.ID, "reward", round.Reward)
	return nil
}

// Count returns the number of stored rounds
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rounds`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Load returns one stored round
func (s *Store) Load(ctx context.Context, id string) (*Round, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM rounds WHERE round_id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRoundNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return Decode(strings.NewReader(body))
}

// Summarize folds every stored round, oldest first
func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM rounds ORDER BY played_at_ms, number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summary := &Summary{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		round, err := Decode(strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		summary.Add(round)
	}
	return summary, rows.Err()
}
