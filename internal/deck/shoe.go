package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// CardsPerDeck is the size of a single standard deck.
const CardsPerDeck = 52

// RecentWindow is how many recently drawn values a shoe remembers.
const RecentWindow = 3

// DefaultReshuffleThreshold is the remaining fraction below which a shoe is rebuilt.
const DefaultReshuffleThreshold = 0.30

var (
	ErrEmptyShoe        = errors.New("shoe is empty")
	ErrInvalidDeckCount = errors.New("shoe needs at least one deck")
)

// Shoe is a multi-deck draw source that also keeps the public card count.
//
// Cards drawn face down (the dealer's hole card) are held back from the
// count until Reveal is called, so probabilities observed mid-round only
// reflect what a player at the table could know.
type Shoe struct {
	cards      []Card
	decks      int
	drawCounts [Buckets]int
	recent     [RecentWindow]int
	hole       *Card
	rng        *rand.Rand
}

// NewShoe creates an unshuffled shoe of decks × 52 cards in canonical order.
func NewShoe(rng *rand.Rand, decks int) (*Shoe, error) {
	if decks < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDeckCount, decks)
	}
	if rng == nil {
		panic("rng is required for shoe creation")
	}

	s := &Shoe{
		cards: make([]Card, 0, decks*CardsPerDeck),
		decks: decks,
		rng:   rng,
	}
	for range decks {
		for _, suit := range Suits {
			for rank := Two; rank <= Ace; rank++ {
				s.cards = append(s.cards, NewCard(suit, rank))
			}
		}
	}
	return s, nil
}

// Shuffle randomises the order of the remaining cards (Fisher-Yates).
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Hit removes and returns the next card (the last one in the sequence).
//
// A secret hit keeps the card out of the count and the recent window; the
// window slot repeats the latest public value instead. The card is counted
// once Reveal discharges the obligation.
func (s *Shoe) Hit(secret bool) (Card, error) {
	if len(s.cards) == 0 {
		return Card{}, ErrEmptyShoe
	}

	card := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]

	if !secret {
		s.drawCounts[card.Bucket()]++
		s.push(card.Value())
		return card, nil
	}

	// Only one hole card is ever outstanding.
	s.Reveal()
	held := card
	s.hole = &held
	s.push(s.recent[0])
	return card, nil
}

// Reveal counts the pending hole card. It returns false when nothing was pending.
func (s *Shoe) Reveal() bool {
	if s.hole == nil {
		return false
	}
	s.drawCounts[s.hole.Bucket()]++
	s.hole = nil
	return true
}

// Pending reports whether a secret draw is waiting to be counted.
func (s *Shoe) Pending() bool {
	return s.hole != nil
}

func (s *Shoe) push(v int) {
	copy(s.recent[1:], s.recent[:RecentWindow-1])
	s.recent[0] = v
}

// Decks returns the number of decks the shoe was built from
func (s *Shoe) Decks() int {
	return s.decks
}

// Total returns the size of the full shoe
func (s *Shoe) Total() int {
	return s.decks * CardsPerDeck
}

// Remaining returns the number of cards left to draw
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Drawn returns how many cards have left the shoe, counted or not
func (s *Shoe) Drawn() int {
	return s.Total() - len(s.cards)
}

// DrawCounts returns the public per-bucket draw counts
func (s *Shoe) DrawCounts() [Buckets]int {
	return s.drawCounts
}

// Counted returns the sum of the public draw counts
func (s *Shoe) Counted() int {
	n := 0
	for _, c := range s.drawCounts {
		n += c
	}
	return n
}

// Recent returns the last drawn values, most recent first. Zero means empty.
func (s *Shoe) Recent() [RecentWindow]int {
	return s.recent
}

// NeedsReshuffle reports whether the remaining fraction is strictly below threshold.
func (s *Shoe) NeedsReshuffle(threshold float64) bool {
	return float64(len(s.cards))/float64(s.Total()) < threshold
}

// Expected returns how many cards of a bucket a full shoe holds.
func (s *Shoe) Expected(bucket int) int {
	if bucket == TenBucket {
		return 16 * s.decks
	}
	return 4 * s.decks
}

// Probability estimates the chance that the next card falls in bucket, using
// only publicly counted draws. An empty shoe yields 0.
func (s *Shoe) Probability(bucket int) float64 {
	if bucket < 0 || bucket >= Buckets || len(s.cards) == 0 {
		return 0
	}
	return float64(s.Expected(bucket)-s.drawCounts[bucket]) / float64(len(s.cards))
}

// Probabilities returns Probability for every bucket
func (s *Shoe) Probabilities() [Buckets]float64 {
	var p [Buckets]float64
	for b := range Buckets {
		p[b] = s.Probability(b)
	}
	return p
}

// Stack moves the given cards to the front of the draw order, first card
// drawn first. Each card is taken from the remaining cards so the shoe
// composition is unchanged. Used to script deals.
func (s *Shoe) Stack(draws ...Card) error {
	stacked := 0
	for i := len(draws) - 1; i >= 0; i-- {
		want := draws[i]
		idx := -1
		for j := len(s.cards) - 1 - stacked; j >= 0; j-- {
			if s.cards[j].Rank == want.Rank && s.cards[j].Suit == want.Suit {
				idx = j
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("card %s not left in shoe", want)
		}
		card := s.cards[idx]
		s.cards = append(s.cards[:idx], s.cards[idx+1:]...)
		s.cards = append(s.cards, card)
		stacked++
	}
	return nil
}
