package game

import "github.com/lox/blackjackgym/internal/deck"

// Recorder receives every finished round
type Recorder interface {
	RecordRound(RoundSummary) error
}

// RecorderFunc adapts a function to Recorder
type RecorderFunc func(RoundSummary) error

// RecordRound calls f
func (f RecorderFunc) RecordRound(s RoundSummary) error {
	return f(s)
}

// RoundSummary is the complete record of one finished round
type RoundSummary struct {
	ID          string
	Number      int // 1-based round count for this Env
	Reshuffled  bool
	Dealer      []deck.Card // face up, including an unrevealed hole card
	DealerValue int // total of Dealer, hole card included
	Hands       []HandSummary
	Actions     []ActionRecord
	Illegal     bool
	Reward      float64
}

// HandSummary is the final state of one seat hand
type HandSummary struct {
	Seat        int
	Index       int
	Cards       []deck.Card
	Value       int
	Wager       int
	Outcome     Outcome
	Doubled     bool
	SplitResult bool
}

// ActionRecord is one action applied during the round
type ActionRecord struct {
	Seat   int
	Hand   int
	Action Action
}

func (e *Env) summarize(reward float64, illegal bool) RoundSummary {
	dealer := make([]deck.Card, len(e.table.Dealer.Cards))
	for i, c := range e.table.Dealer.Cards {
		c.Hidden = false
		dealer[i] = c
	}

	var hands []HandSummary
	for si, seat := range e.table.Seats {
		for hi, h := range seat.Hands {
			hands = append(hands, HandSummary{
				Seat:        si,
				Index:       hi,
				Cards:       append([]deck.Card(nil), h.Cards...),
				Value:       h.Value(),
				Wager:       h.Wager,
				Outcome:     h.Outcome,
				Doubled:     h.Doubled,
				SplitResult: h.SplitResult,
			})
		}
	}

	return RoundSummary{
		ID:          e.roundID,
		Number:      e.stats.Rounds,
		Reshuffled:  e.reshuffled,
		Dealer:      dealer,
		DealerValue: (&Hand{Cards: dealer}).Value(),
		Hands:       hands,
		Actions:     append([]ActionRecord(nil), e.actions...),
		Illegal:     illegal,
		Reward:      reward,
	}
}
