package game

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newStackedEnv returns an env whose current round was dealt from draws,
// in draw order: seat cards, dealer up-card, seat cards, hole card, then
// whatever the round hits next.
func newStackedEnv(t *testing.T, wagers []int, draws string, opts ...Option) *Env {
	t.Helper()
	opts = append([]Option{WithWagers(wagers...), WithLogger(quietLogger())}, opts...)
	env, err := NewEnv(randutil.New(42), opts...)
	require.NoError(t, err)

	shoe, err := deck.NewShoe(randutil.New(7), env.cfg.decks)
	require.NoError(t, err)
	shoe.Shuffle()
	require.NoError(t, shoe.Stack(deck.MustParseCards(draws)...))
	env.shoe = shoe
	require.NoError(t, env.deal())
	return env
}

func handOf(cards string) *Hand {
	h := NewHand(100)
	for _, c := range deck.MustParseCards(cards) {
		h.AddCard(c)
	}
	return h
}

func step(t *testing.T, env *Env, actions ...Action) StepResult {
	t.Helper()
	var res StepResult
	for _, a := range actions {
		var err error
		res, err = env.Step(a)
		require.NoError(t, err)
	}
	return res
}
