package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/fileutil"
	"github.com/lox/blackjackgym/internal/game"
)

// Writer stores each finished round as <dir>/<round id>.toml. It implements
// game.Recorder and is safe for concurrent use, so simulator workers can
// share one.
type Writer struct {
	dir    string
	seed   int64
	now    func() time.Time
	logger *log.Logger

	mu      sync.Mutex
	written int
}

// NewWriter creates dir if needed and returns a writer into it
func NewWriter(dir string, seed int64, logger *log.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &Writer{
		dir:    dir,
		seed:   seed,
		now:    time.Now,
		logger: logger.WithPrefix("history"),
	}, nil
}

// RecordRound implements game.Recorder
func (w *Writer) RecordRound(s game.RoundSummary) error {
	round := FromSummary(s, w.seed, w.now())
	path := filepath.Join(w.dir, s.ID+".toml")

	err := fileutil.WriteAtomic(path, 0o644, func(out io.Writer) error {
		return Encode(out, round)
	})
	if err != nil {
		return fmt.Errorf("write round %s: %w", s.ID, err)
	}

	w.mu.Lock()
	w.written++
	w.mu.Unlock()
	w.logger.Debug("round written", "path", path, "reward", s.Reward)
	return nil
}

// Written returns how many rounds have been stored
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Dir returns the output directory
func (w *Writer) Dir() string {
	return w.dir
}
