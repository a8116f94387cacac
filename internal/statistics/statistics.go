package statistics

import (
	"fmt"
	"math"
	"sort"
)

// RoundResult represents the outcome of a single blackjack round
type RoundResult struct {
	Reward     float64 // reward units for the whole table
	Seed       int64   // RNG seed of the worker that played the round
	Upcard     int     // dealer up-card value, 2-11
	Illegal    bool    // round ended on an illegal action
	Hands      int     // hands settled (0 when illegal)
	Wins       int
	Losses     int
	Draws      int
	DealerBust bool
	Doubled    bool // at least one hand doubled
	Split      bool // at least one seat split
}

// UpcardStats tracks results against one dealer up-card
type UpcardStats struct {
	Rounds     int
	SumReward  float64
	SumReward2 float64
}

// Statistics tracks the reward distribution of a simulation run
type Statistics struct {
	Rounds     int
	SumReward  float64
	SumReward2 float64   // Sum of squares for variance calculation
	Values     []float64 // Store all values for median/percentile calculation

	// Hand tallies over settled rounds
	Hands  int
	Wins   int
	Losses int
	Draws  int

	// Reward split by how the round ended
	SettledReward float64
	IllegalReward float64
	AllReward     float64 // Total for sanity check
	IllegalRounds int

	DealerBusts   int
	DoubledRounds int
	DoubledReward float64
	SplitRounds   int
	SplitReward   float64

	// Up-card analytics, index 2-11
	UpcardResults [12]UpcardStats
}

// Mean returns the arithmetic mean reward per round
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumReward / float64(s.Rounds)
}

// Variance returns the sample variance of all results
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumReward2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation of all results
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(s.Variance())
}

// StdError returns the standard error of the mean
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add incorporates a new round result into the statistics
func (s *Statistics) Add(result RoundResult) {
	r := result.Reward
	s.Rounds++
	s.SumReward += r
	s.SumReward2 += r * r
	s.Values = append(s.Values, r)
	s.AllReward += r

	if result.Illegal {
		s.IllegalRounds++
		s.IllegalReward += r
	} else {
		s.SettledReward += r
		s.Hands += result.Hands
		s.Wins += result.Wins
		s.Losses += result.Losses
		s.Draws += result.Draws
	}

	if result.DealerBust {
		s.DealerBusts++
	}
	if result.Doubled {
		s.DoubledRounds++
		s.DoubledReward += r
	}
	if result.Split {
		s.SplitRounds++
		s.SplitReward += r
	}

	if u := result.Upcard; u >= 2 && u <= 11 {
		s.UpcardResults[u].Rounds++
		s.UpcardResults[u].SumReward += r
		s.UpcardResults[u].SumReward2 += r * r
	}
}

// Merge folds other into s
func (s *Statistics) Merge(other *Statistics) {
	s.Rounds += other.Rounds
	s.SumReward += other.SumReward
	s.SumReward2 += other.SumReward2
	s.Values = append(s.Values, other.Values...)
	s.Hands += other.Hands
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Draws += other.Draws
	s.SettledReward += other.SettledReward
	s.IllegalReward += other.IllegalReward
	s.AllReward += other.AllReward
	s.IllegalRounds += other.IllegalRounds
	s.DealerBusts += other.DealerBusts
	s.DoubledRounds += other.DoubledRounds
	s.DoubledReward += other.DoubledReward
	s.SplitRounds += other.SplitRounds
	s.SplitReward += other.SplitReward
	for i := range s.UpcardResults {
		s.UpcardResults[i].Rounds += other.UpcardResults[i].Rounds
		s.UpcardResults[i].SumReward += other.UpcardResults[i].SumReward
		s.UpcardResults[i].SumReward2 += other.UpcardResults[i].SumReward2
	}
}

// Median returns the median value of all results
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at the given percentile (0.0 to 1.0)
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// UpcardMean returns the mean reward against a dealer up-card (2-11)
func (s *Statistics) UpcardMean(upcard int) float64 {
	if upcard < 2 || upcard > 11 {
		return 0
	}
	us := s.UpcardResults[upcard]
	if us.Rounds == 0 {
		return 0
	}
	return us.SumReward / float64(us.Rounds)
}

// IllegalRate returns the fraction of rounds ended by an illegal action
func (s *Statistics) IllegalRate() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return float64(s.IllegalRounds) / float64(s.Rounds)
}

// IsLedgerBalanced checks if the accounting is consistent
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllReward-s.SettledReward-s.IllegalReward) <= 1e-6
}

// Validate performs comprehensive validation of statistics data
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: AllReward=%.6f, SettledReward=%.6f, IllegalReward=%.6f",
			s.AllReward, s.SettledReward, s.IllegalReward)
	}

	if s.Rounds <= 0 {
		return fmt.Errorf("invalid rounds count: %d", s.Rounds)
	}

	if len(s.Values) != s.Rounds {
		return fmt.Errorf("values array length (%d) does not match rounds count (%d)",
			len(s.Values), s.Rounds)
	}

	if s.Wins+s.Losses+s.Draws != s.Hands {
		return fmt.Errorf("outcomes (%d wins, %d losses, %d draws) do not add up to %d hands",
			s.Wins, s.Losses, s.Draws, s.Hands)
	}

	if s.IllegalRounds > s.Rounds {
		return fmt.Errorf("illegal rounds (%d) exceeds total rounds (%d)", s.IllegalRounds, s.Rounds)
	}

	upcardRounds := 0
	for u := 2; u <= 11; u++ {
		upcardRounds += s.UpcardResults[u].Rounds
	}
	if upcardRounds != s.Rounds {
		return fmt.Errorf("up-card rounds total (%d) does not match total rounds (%d)",
			upcardRounds, s.Rounds)
	}

	return nil
}
