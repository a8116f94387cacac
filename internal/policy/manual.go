package policy

import (
	"bufio"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/game"
)

// Manual reads actions from a line-oriented reader, prompting on w. Lines
// that do not parse are rejected and read again. At end of input it stands.
type Manual struct {
	in     *bufio.Scanner
	out    io.Writer
	logger *log.Logger
}

// NewManual creates a Manual policy reading from r and prompting on w
func NewManual(r io.Reader, w io.Writer, logger *log.Logger) *Manual {
	return &Manual{in: bufio.NewScanner(r), out: w, logger: logger.WithPrefix("manual")}
}

func (m *Manual) Name() string { return "manual" }

func (m *Manual) Act(obs game.Observation) game.Action {
	for {
		fmt.Fprintf(m.out, "hand %d (soft aces %d) vs dealer %d. action [0 stand, 1 hit, 2 double, 3 split]: ",
			obs.PlayerSum, obs.UsableAces, obs.DealerCard)
		if !m.in.Scan() {
			if err := m.in.Err(); err != nil {
				m.logger.Warn("reading input", "error", err)
			}
			return game.Stand
		}
		a, err := game.ParseAction(m.in.Text())
		if err != nil {
			fmt.Fprintln(m.out, err)
			continue
		}
		return a
	}
}
