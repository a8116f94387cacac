package history

import "time"

// Variant identifies round files written by this package
const Variant = "blackjack"

// Round is the on-disk record of one finished round
type Round struct {
	Variant    string    `toml:"variant"`
	ID         string    `toml:"round_id"`
	Number     int       `toml:"number"`
	Seed       int64     `toml:"seed"`
	Time       time.Time `toml:"time"`
	Reshuffled bool      `toml:"reshuffled"`
	Illegal    bool      `toml:"illegal"`
	Reward     float64   `toml:"reward"`
	Actions    []string  `toml:"actions"`
	Dealer     Dealer    `toml:"dealer"`
	Hands      []Hand    `toml:"hands"`
}

// Dealer holds the dealer's final cards
type Dealer struct {
	Cards []string `toml:"cards"`
	Value int      `toml:"value"`
}

// Hand holds one seat hand
type Hand struct {
	Seat    int      `toml:"seat"`
	Index   int      `toml:"index"`
	Cards   []string `toml:"cards"`
	Value   int      `toml:"value"`
	Wager   int      `toml:"wager"`
	Outcome string   `toml:"outcome"`
	Doubled bool     `toml:"doubled,omitempty"`
	Split   bool     `toml:"split,omitempty"`
}
