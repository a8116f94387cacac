package game

import "fmt"

const (
	// MaxSeats is the table capacity
	MaxSeats = 7

	// MaxHandsPerSeat allows one split per seat
	MaxHandsPerSeat = 2
)

// RoundCardBudget returns an upper bound on the cards one round can draw
// from a shoe of decks when seats are in play. Every card in a hand except
// the last one was taken at a hard total of at most 21 (16 for the dealer),
// so the bound takes the cheapest cards a shoe holds until those totals are
// spent, then adds one final card per hand.
func RoundCardBudget(decks, seats int) int {
	hands := seats * MaxHandsPerSeat
	points := hands*Bust + DealerStandsOn - 1
	cards := hands + 1
	for value := 1; value <= 10 && points > 0; value++ {
		supply := 4 * decks
		if value == 10 {
			supply = 16 * decks
		}
		n := min(supply, points/value)
		cards += n
		points -= n * value
	}
	return cards
}

// Seat holds the hands played from one betting position
type Seat struct {
	Hands []*Hand
}

// NewSeat creates a seat with a single empty hand carrying wager
func NewSeat(wager int) *Seat {
	return &Seat{Hands: []*Hand{NewHand(wager)}}
}

// CanSplit reports whether the seat has not split and holds a splittable pair
func (s *Seat) CanSplit() bool {
	return len(s.Hands) == 1 && s.Hands[0].CanSplit()
}

// Split replaces the seat's pair with two one-card hands, each carrying the
// original wager. The caller deals the second card to each hand.
func (s *Seat) Split() error {
	if len(s.Hands) >= MaxHandsPerSeat {
		return fmt.Errorf("%w: seat has already split", ErrIllegalAction)
	}
	h := s.Hands[0]
	if !h.CanSplit() {
		return fmt.Errorf("%w: cannot split %s", ErrIllegalAction, h)
	}

	h.Done = true
	s.Hands = make([]*Hand, 0, MaxHandsPerSeat)
	for _, c := range h.Cards {
		split := NewHand(h.Wager)
		split.SplitResult = true
		split.AddCard(c)
		s.Hands = append(s.Hands, split)
	}
	return nil
}

// Table is the ordered set of seats plus the dealer hand
type Table struct {
	Seats  []*Seat
	Dealer *Hand
}

// NewTable creates a table with one seat per wager
func NewTable(wagers []int) (*Table, error) {
	if len(wagers) == 0 || len(wagers) > MaxSeats {
		return nil, fmt.Errorf("%w: table takes 1 to %d seats, got %d", ErrCapacityExceeded, MaxSeats, len(wagers))
	}

	t := &Table{
		Seats:  make([]*Seat, 0, len(wagers)),
		Dealer: NewHand(0),
	}
	for i, w := range wagers {
		if w <= 0 {
			return nil, fmt.Errorf("%w: seat %d wager %d", ErrInvalidWager, i, w)
		}
		t.Seats = append(t.Seats, NewSeat(w))
	}
	return t, nil
}

// Hands returns every seat hand in turn order
func (t *Table) Hands() []*Hand {
	hands := make([]*Hand, 0, len(t.Seats)*MaxHandsPerSeat)
	for _, s := range t.Seats {
		hands = append(hands, s.Hands...)
	}
	return hands
}

// HandCount returns the number of seat hands in play
func (t *Table) HandCount() int {
	n := 0
	for _, s := range t.Seats {
		n += len(s.Hands)
	}
	return n
}

// Cursor addresses one hand at the table
type Cursor struct {
	Seat int
	Hand int
}

// Hand returns the hand under the cursor, or nil if it is out of range
func (t *Table) Hand(c Cursor) *Hand {
	if c.Seat < 0 || c.Seat >= len(t.Seats) {
		return nil
	}
	hands := t.Seats[c.Seat].Hands
	if c.Hand < 0 || c.Hand >= len(hands) {
		return nil
	}
	return hands[c.Hand]
}

// Advance returns the first unfinished hand at or after c. The boolean is
// false once every hand is done.
func (t *Table) Advance(c Cursor) (Cursor, bool) {
	for s := c.Seat; s < len(t.Seats); s++ {
		start := 0
		if s == c.Seat {
			start = c.Hand
		}
		for h := start; h < len(t.Seats[s].Hands); h++ {
			if !t.Seats[s].Hands[h].Done {
				return Cursor{Seat: s, Hand: h}, true
			}
		}
	}
	return Cursor{}, false
}
