package game

import "math"

// Stats are the running counters of an Env. Money and Wagered are in chips.
type Stats struct {
	Rounds       int     `json:"rounds"`
	HandsPlayed  int     `json:"hands_played"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	Draws        int     `json:"draws"`
	IllegalMoves int     `json:"illegal_moves"`
	Doubles      int     `json:"doubles"`
	Splits       int     `json:"splits"`
	Money        int     `json:"money"`
	Wagered      int     `json:"wagered"`
	Reward       float64 `json:"reward"`
}

// WinRate returns wins over settled hands
func (s Stats) WinRate() float64 {
	return ratio(s.Wins, s.HandsPlayed)
}

// LossRate returns losses over settled hands
func (s Stats) LossRate() float64 {
	return ratio(s.Losses, s.HandsPlayed)
}

// DrawRate returns draws over settled hands
func (s Stats) DrawRate() float64 {
	return ratio(s.Draws, s.HandsPlayed)
}

// EarnRate maps net chips onto [0, 1] relative to chips wagered: 0.5 is
// break-even, 1 means every wagered chip was won.
func (s Stats) EarnRate() float64 {
	if s.Wagered == 0 {
		return 0
	}
	all, money := float64(s.Wagered), float64(s.Money)
	return ((all-money)/2 + money) / all
}

// LossMoneyRate is the complement of EarnRate
func (s Stats) LossMoneyRate() float64 {
	if s.Wagered == 0 {
		return 0
	}
	return 1 - math.Abs(s.EarnRate())
}

// Merge adds other's counters to s
func (s *Stats) Merge(other Stats) {
	s.Rounds += other.Rounds
	s.HandsPlayed += other.HandsPlayed
	s.Wins += other.Wins
	s.Losses += other.Losses
	s.Draws += other.Draws
	s.IllegalMoves += other.IllegalMoves
	s.Doubles += other.Doubles
	s.Splits += other.Splits
	s.Money += other.Money
	s.Wagered += other.Wagered
	s.Reward += other.Reward
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
