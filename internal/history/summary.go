package history

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Summary aggregates stored rounds
type Summary struct {
	Rounds     int
	Hands      int
	Wins       int
	Losses     int
	Draws      int
	Illegal    int
	Reshuffles int
	Doubles    int
	Splits     int
	Reward     float64
	Wagered    int
	First      *Round
	Last       *Round
}

// Summarize reads every .toml file in dir
func Summarize(dir string) (*Summary, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.toml"))
	if err != nil {
		return nil, err
	}
	rounds := make([]*Round, 0, len(paths))
	for _, path := range paths {
		round, err := readRound(path)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	sort.SliceStable(rounds, func(i, j int) bool {
		if !rounds[i].Time.Equal(rounds[j].Time) {
			return rounds[i].Time.Before(rounds[j].Time)
		}
		return rounds[i].Number < rounds[j].Number
	})

	s := &Summary{}
	for _, r := range rounds {
		s.Add(r)
	}
	return s, nil
}

func readRound(path string) (*Round, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	round, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return round, nil
}

// Add folds one round into the summary
func (s *Summary) Add(r *Round) {
	if s.First == nil {
		s.First = r
	}
	s.Last = r
	s.Rounds++
	s.Reward += r.Reward
	if r.Reshuffled {
		s.Reshuffles++
	}
	if r.Illegal {
		s.Illegal++
		return
	}

	for _, h := range r.Hands {
		s.Hands++
		s.Wagered += h.Wager
		switch h.Outcome {
		case "win":
			s.Wins++
		case "loss":
			s.Losses++
		case "draw":
			s.Draws++
		}
		if h.Doubled {
			s.Doubles++
		}
		if h.Split && h.Index == 0 {
			s.Splits++
		}
	}
}

// Print writes a human-readable report
func (s *Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "Rounds: %d (%d illegal, %d on a fresh shoe)\n", s.Rounds, s.Illegal, s.Reshuffles)
	if s.Rounds == 0 {
		return
	}
	fmt.Fprintf(w, "Hands: %d  wins %d  losses %d  draws %d\n", s.Hands, s.Wins, s.Losses, s.Draws)
	fmt.Fprintf(w, "Doubles: %d  splits %d\n", s.Doubles, s.Splits)
	fmt.Fprintf(w, "Reward: %.2f total, %.4f per round\n", s.Reward, s.Reward/float64(s.Rounds))
	fmt.Fprintf(w, "Wagered: %d chips\n", s.Wagered)
	fmt.Fprintf(w, "Span: %s .. %s\n", s.First.Time.Format("2006-01-02 15:04:05"), s.Last.Time.Format("2006-01-02 15:04:05"))
}
