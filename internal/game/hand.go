package game

import (
	"fmt"
	"strings"

	"github.com/lox/blackjackgym/internal/deck"
)

// Bust is the highest total a hand can hold without losing
const Bust = 21

// Hand is an ordered run of cards with the chips wagered on it
type Hand struct {
	Cards       []deck.Card
	Wager       int
	Done        bool
	Outcome     Outcome
	Doubled     bool
	SplitResult bool // created by a split; cannot split again
}

// NewHand creates an empty hand carrying wager
func NewHand(wager int) *Hand {
	return &Hand{Cards: make([]deck.Card, 0, 4), Wager: wager}
}

// AddCard appends a card to the hand
func (h *Hand) AddCard(c deck.Card) {
	h.Cards = append(h.Cards, c)
}

// score counts visible cards with every ace at 11, then demotes aces to 1
// one at a time while the total is over 21. soft is how many aces are
// still counted high.
func (h *Hand) score() (total, soft int) {
	for _, c := range h.Cards {
		if c.Hidden {
			continue
		}
		total += c.Value()
		if c.IsAce() {
			soft++
		}
	}
	for total > Bust && soft > 0 {
		total -= 10
		soft--
	}
	return total, soft
}

// Value returns the best total of the visible cards
func (h *Hand) Value() int {
	total, _ := h.score()
	return total
}

// UsableAces returns how many aces are still counted as 11
func (h *Hand) UsableAces() int {
	_, soft := h.score()
	return soft
}

// IsSoft reports whether an ace is counted as 11
func (h *Hand) IsSoft() bool {
	return h.UsableAces() > 0
}

// IsBusted reports whether the hand is over 21 and finishes it if so
func (h *Hand) IsBusted() bool {
	if h.Value() > Bust {
		h.Done = true
		return true
	}
	return false
}

// Stand finishes the hand
func (h *Hand) Stand() {
	h.Done = true
}

// CanDouble reports whether the hand may double down
func (h *Hand) CanDouble() bool {
	return len(h.Cards) == 2 && !h.Doubled && !h.Done
}

// CanSplit reports whether the hand is a splittable pair
func (h *Hand) CanSplit() bool {
	return len(h.Cards) == 2 &&
		deck.SameValue(h.Cards[0], h.Cards[1]) &&
		!h.SplitResult &&
		!h.Done
}

// DoubleDown doubles the wager, draws exactly one card and finishes the hand.
func (h *Hand) DoubleDown(shoe *deck.Shoe) error {
	if !h.CanDouble() {
		return fmt.Errorf("%w: cannot double a %d-card hand (doubled=%t, done=%t)",
			ErrIllegalAction, len(h.Cards), h.Doubled, h.Done)
	}

	card, err := shoe.Hit(false)
	if err != nil {
		return fmt.Errorf("double down: %w", err)
	}
	h.Wager *= 2
	h.Doubled = true
	h.AddCard(card)
	h.Done = true
	h.IsBusted()
	return nil
}

// Settle scores the hand against the dealer and records the outcome.
// The dealer hand is only read.
func (h *Hand) Settle(dealer *Hand) Outcome {
	own, theirs := h.Value(), dealer.Value()
	switch {
	case own > Bust:
		h.Outcome = Loss
	case theirs > Bust:
		h.Outcome = Win
	case own > theirs:
		h.Outcome = Win
	case own < theirs:
		h.Outcome = Loss
	default:
		h.Outcome = Draw
	}
	return h.Outcome
}

// String renders the cards and total, e.g. "A♠ 6♥ (soft 17)"
func (h *Hand) String() string {
	parts := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		parts[i] = c.String()
	}
	kind := ""
	if h.IsSoft() {
		kind = "soft "
	}
	return fmt.Sprintf("%s (%s%d)", strings.Join(parts, " "), kind, h.Value())
}
