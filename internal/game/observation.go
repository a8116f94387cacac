package game

import (
	"fmt"
	"strings"

	"github.com/lox/blackjackgym/internal/deck"
)

// ObservationLevel selects how much shoe information an observation carries
type ObservationLevel int

const (
	// ObservationBasic carries the hand, dealer up-card and legality flags.
	ObservationBasic ObservationLevel = iota + 1
	// ObservationCounting adds draw probabilities and the last drawn value.
	ObservationCounting
	// ObservationHistory adds draw probabilities and the last three values.
	ObservationHistory
)

// String returns the string representation of a level
func (l ObservationLevel) String() string {
	switch l {
	case ObservationBasic:
		return "basic"
	case ObservationCounting:
		return "counting"
	case ObservationHistory:
		return "history"
	default:
		return "unknown"
	}
}

// ParseObservationLevel accepts a level name or its number (1-3).
func ParseObservationLevel(s string) (ObservationLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "basic":
		return ObservationBasic, nil
	case "2", "counting":
		return ObservationCounting, nil
	case "3", "history":
		return ObservationHistory, nil
	}
	return 0, fmt.Errorf("unknown observation level %q", s)
}

// Observation is what a policy sees before choosing an action. Shoe
// features never include the face-down hole card.
type Observation struct {
	Level      ObservationLevel `json:"level"`
	PlayerSum  int              `json:"player_sum"`
	DealerCard int              `json:"dealer_card"` // value of the dealer's up-card, ace = 11
	UsableAces int              `json:"usable_aces"`
	CanSplit   bool             `json:"can_split"`
	CanDouble  bool             `json:"can_double"`

	// Counting and History levels only
	Probabilities [deck.Buckets]float64  `json:"probabilities"`
	Recent        [deck.RecentWindow]int `json:"recent"`
}

// VectorLen returns the length of Vector for a level
func (l ObservationLevel) VectorLen() int {
	switch l {
	case ObservationCounting:
		return 5 + deck.Buckets + 1
	case ObservationHistory:
		return 5 + deck.Buckets + deck.RecentWindow
	default:
		return 5
	}
}

// Vector flattens the observation for numeric consumers
func (o Observation) Vector() []float64 {
	v := make([]float64, 0, o.Level.VectorLen())
	v = append(v,
		float64(o.PlayerSum),
		float64(o.DealerCard),
		float64(o.UsableAces),
		boolFloat(o.CanSplit),
		boolFloat(o.CanDouble),
	)
	switch o.Level {
	case ObservationCounting:
		v = append(v, o.Probabilities[:]...)
		v = append(v, float64(o.Recent[0]))
	case ObservationHistory:
		v = append(v, o.Probabilities[:]...)
		for _, r := range o.Recent {
			v = append(v, float64(r))
		}
	}
	return v
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// observe builds the observation for hand against the current dealer hand.
func observe(level ObservationLevel, hand *Hand, dealer *Hand, shoe *deck.Shoe) Observation {
	obs := Observation{Level: level}
	if hand != nil {
		obs.PlayerSum = hand.Value()
		obs.UsableAces = hand.UsableAces()
		obs.CanSplit = hand.CanSplit()
		obs.CanDouble = hand.CanDouble()
	}
	if len(dealer.Cards) > 0 {
		obs.DealerCard = dealer.Cards[0].Value()
	}

	switch level {
	case ObservationCounting:
		obs.Probabilities = shoe.Probabilities()
		obs.Recent[0] = shoe.Recent()[0]
	case ObservationHistory:
		obs.Probabilities = shoe.Probabilities()
		obs.Recent = shoe.Recent()
	}
	return obs
}
