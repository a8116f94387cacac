package history

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/game"
)

// FromSummary converts a finished round into its file form
func FromSummary(s game.RoundSummary, seed int64, at time.Time) *Round {
	r := &Round{
		Variant:    Variant,
		ID:         s.ID,
		Number:     s.Number,
		Seed:       seed,
		Time:       at.UTC(),
		Reshuffled: s.Reshuffled,
		Illegal:    s.Illegal,
		Reward:     s.Reward,
		Dealer:     Dealer{Cards: codes(s.Dealer), Value: s.DealerValue},
	}
	for _, a := range s.Actions {
		r.Actions = append(r.Actions, FormatAction(a))
	}
	for _, h := range s.Hands {
		r.Hands = append(r.Hands, Hand{
			Seat:    h.Seat,
			Index:   h.Index,
			Cards:   codes(h.Cards),
			Value:   h.Value,
			Wager:   h.Wager,
			Outcome: h.Outcome.String(),
			Doubled: h.Doubled,
			Split:   h.SplitResult,
		})
	}
	return r
}

// FormatAction renders an action as "s<seat>h<hand> <action>", 1-based
func FormatAction(a game.ActionRecord) string {
	return fmt.Sprintf("s%dh%d %s", a.Seat+1, a.Hand+1, a.Action)
}

func codes(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Code()
	}
	return out
}

// Encode writes the round to w in TOML.
func Encode(w io.Writer, round *Round) error {
	if round == nil {
		return fmt.Errorf("history: round is nil")
	}
	enc := toml.NewEncoder(w)
	enc.Indent = "\t"
	return enc.Encode(round)
}

// EncodeToBytes encodes and returns the result as bytes.
func EncodeToBytes(round *Round) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, round); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a round from r and checks its variant
func Decode(r io.Reader) (*Round, error) {
	var round Round
	if _, err := toml.NewDecoder(r).Decode(&round); err != nil {
		return nil, fmt.Errorf("history: decode: %w", err)
	}
	if round.Variant != Variant {
		return nil, fmt.Errorf("history: unexpected variant %q", round.Variant)
	}
	return &round, nil
}
