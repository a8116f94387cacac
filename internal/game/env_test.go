package game

import (
	"testing"

	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvDealsFirstRound(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(1), WithWagers(100, 50), WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, PhasePlayerTurn, env.Phase())
	assert.Equal(t, Cursor{}, env.Cursor())
	assert.Equal(t, 416-6, env.Shoe().Remaining())
	for _, seat := range env.Table().Seats {
		assert.Len(t, seat.Hands[0].Cards, 2)
	}
	dealer := env.Table().Dealer
	require.Len(t, dealer.Cards, 2)
	assert.False(t, dealer.Cards[0].Hidden)
	assert.True(t, dealer.Cards[1].Hidden)
	assert.True(t, env.Shoe().Pending())
	assert.NotEmpty(t, env.RoundID())
}

func TestNewEnvRejectsBadConfig(t *testing.T) {
	t.Parallel()
	rng := randutil.New(1)

	_, err := NewEnv(rng, WithWagers(1, 1, 1, 1, 1, 1, 1, 1))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = NewEnv(rng, WithWagers())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = NewEnv(rng, WithWagers(-5))
	assert.ErrorIs(t, err, ErrInvalidWager)

	_, err = NewEnv(rng, WithDecks(0))
	assert.ErrorIs(t, err, deck.ErrInvalidDeckCount)

	_, err = NewEnv(rng, WithChipScale(0))
	assert.Error(t, err)

	_, err = NewEnv(rng, WithReshuffleThreshold(1.5))
	assert.Error(t, err)
}

func TestDealOrder(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100, 100}, "2s3sTh4s5s9c")

	table := env.Table()
	assert.Equal(t, deck.MustParseCards("2s4s"), table.Seats[0].Hands[0].Cards)
	assert.Equal(t, deck.MustParseCards("3s5s"), table.Seats[1].Hands[0].Cards)
	assert.Equal(t, deck.Ten, table.Dealer.Cards[0].Rank)
	assert.Equal(t, deck.Nine, table.Dealer.Cards[1].Rank)
	assert.True(t, table.Dealer.Cards[1].Hidden)
	assert.Equal(t, 10, table.Dealer.Value())
}

func TestDealerStandsOnHard17(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "9sTh8c7d")

	res := step(t, env, Stand)
	assert.True(t, res.Terminated)
	assert.True(t, res.Truncated)
	assert.Len(t, env.Table().Dealer.Cards, 2)
	assert.Equal(t, 17, res.Info.DealerValue)
	assert.Equal(t, []Outcome{Draw}, res.Info.Outcomes)
	assert.Zero(t, res.Reward)
	assert.Equal(t, 1, env.Stats().Draws)
}

func TestDealerHitsSoft17(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "TsAs9c6d4h")

	res := step(t, env, Stand)
	dealer := env.Table().Dealer
	require.Len(t, dealer.Cards, 3)
	assert.Equal(t, 21, dealer.Value())
	assert.Equal(t, []Outcome{Loss}, res.Info.Outcomes)
	assert.InDelta(t, -1.0, res.Reward, 1e-9)
}

func TestDealerDrawsUntil17(t *testing.T) {
	t.Parallel()
	for seed := int64(0); seed < 50; seed++ {
		env, err := NewEnv(randutil.New(seed), WithLogger(quietLogger()))
		require.NoError(t, err)

		step(t, env, Stand)
		dealer := env.Table().Dealer
		assert.GreaterOrEqual(t, dealer.Value(), DealerStandsOn)

		before := &Hand{Cards: dealer.Cards[:len(dealer.Cards)-1]}
		if len(dealer.Cards) > 2 {
			assert.Less(t, before.Value(), DealerStandsOn, "dealer hit on %s", dealer)
		}
	}
}

func TestSplitDealsEachHandBeforeActing(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "8sTh8d7c3h2c")

	obs := env.Observation()
	assert.True(t, obs.CanSplit)
	assert.Equal(t, 16, obs.PlayerSum)

	res := step(t, env, Split)
	assert.False(t, res.Terminated)

	seat := env.Table().Seats[0]
	require.Len(t, seat.Hands, 2)
	assert.Equal(t, deck.MustParseCards("8s3h"), seat.Hands[0].Cards)
	assert.Equal(t, deck.MustParseCards("8d2c"), seat.Hands[1].Cards)
	for _, h := range seat.Hands {
		assert.Equal(t, 100, h.Wager)
		assert.True(t, h.SplitResult)
	}

	assert.Equal(t, Cursor{Seat: 0, Hand: 0}, env.Cursor())
	assert.Equal(t, 11, res.Observation.PlayerSum)
	assert.False(t, res.Observation.CanSplit)
	assert.True(t, res.Observation.CanDouble)

	res = step(t, env, Stand)
	assert.Equal(t, Cursor{Seat: 0, Hand: 1}, env.Cursor())
	assert.Equal(t, 10, res.Observation.PlayerSum)

	res = step(t, env, Stand)
	assert.True(t, res.Terminated)
	assert.Equal(t, []Outcome{Loss, Loss}, res.Info.Outcomes)
	assert.InDelta(t, -2.0, res.Reward, 1e-9)

	stats := env.Stats()
	assert.Equal(t, 1, stats.Splits)
	assert.Equal(t, 2, stats.HandsPlayed)
	assert.Equal(t, -200, stats.Money)
}

func TestIllegalDoublePenalizesEveryHand(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100, 100, 100}, "2c5d6hTs3c7d9h8s4c")

	res := step(t, env, Hit)
	require.False(t, res.Terminated)
	require.Len(t, env.Table().Seats[0].Hands[0].Cards, 3)

	res = step(t, env, Double)
	assert.True(t, res.Terminated)
	assert.True(t, res.Truncated)
	assert.True(t, res.Info.Illegal)
	assert.InDelta(t, -300.0, res.Reward, 1e-9)
	assert.Equal(t, PhaseRoundOver, env.Phase())
	assert.Len(t, env.Table().Dealer.Cards, 2, "dealer does not play")
	assert.Empty(t, res.Info.Outcomes)

	stats := env.Stats()
	assert.Equal(t, 1, stats.IllegalMoves)
	assert.Equal(t, 1, stats.Rounds)
	assert.Zero(t, stats.HandsPlayed)
	assert.InDelta(t, -300.0, stats.Reward, 1e-9)

	assert.False(t, env.Shoe().Pending())
	assert.Equal(t, env.Shoe().Drawn(), env.Shoe().Counted())

	_, err := env.Step(Stand)
	assert.ErrorIs(t, err, ErrRoundOver)
}

func TestIllegalSplit(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "8sTh9d7c")

	res := step(t, env, Split)
	assert.True(t, res.Info.Illegal)
	assert.InDelta(t, -100.0, res.Reward, 1e-9)
	assert.Len(t, env.Table().Seats[0].Hands, 1)
}

func TestIllegalPenaltyOption(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100, 100}, "8s2hTh9d5c7c", WithIllegalPenalty(1))

	res := step(t, env, Split)
	assert.InDelta(t, -2.0, res.Reward, 1e-9)
}

func TestDoubleDownWins(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "5s9h6d7cTc8s")

	res := step(t, env, Double)
	require.True(t, res.Terminated)
	hand := env.Table().Seats[0].Hands[0]
	assert.Equal(t, 21, hand.Value())
	assert.Equal(t, 200, hand.Wager)
	assert.Equal(t, 24, res.Info.DealerValue)
	assert.InDelta(t, 2.0, res.Reward, 1e-9)
	assert.Equal(t, 1, env.Stats().Doubles)
	assert.Equal(t, 200, env.Stats().Wagered)
}

func TestAllBustDealerDoesNotDraw(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "Ts5h6cKd9s")
	remaining := env.Shoe().Remaining()

	res := step(t, env, Hit)
	require.True(t, res.Terminated)
	assert.Equal(t, remaining-1, env.Shoe().Remaining())

	dealer := env.Table().Dealer
	assert.Len(t, dealer.Cards, 2)
	assert.True(t, dealer.Cards[1].Hidden)
	assert.Equal(t, []Outcome{Loss}, res.Info.Outcomes)
	assert.InDelta(t, -1.0, res.Reward, 1e-9)

	assert.False(t, env.Shoe().Pending())
	assert.Equal(t, env.Shoe().Drawn(), env.Shoe().Counted())
}

func TestAllBustRecordsHoleCardValue(t *testing.T) {
	t.Parallel()
	var got []RoundSummary
	rec := RecorderFunc(func(s RoundSummary) error {
		got = append(got, s)
		return nil
	})
	env := newStackedEnv(t, []int{100}, "Ts5h6cKd9s", WithRecorder(rec))

	res := step(t, env, Hit)
	require.True(t, res.Terminated)
	assert.Equal(t, 5, res.Info.DealerValue, "info shows what the table can see")

	require.Len(t, got, 1)
	assert.Equal(t, deck.MustParseCards("5hKd"), got[0].Dealer)
	assert.Equal(t, 15, got[0].DealerValue)
}

func TestHoleCardStaysOutOfObservations(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "9s5h8cKd", WithObservationLevel(ObservationHistory))

	shoe := env.Shoe()
	obs := env.Observation()
	assert.Equal(t, shoe.Drawn()-1, shoe.Counted())

	// the king is drawn but not yet counted
	tens := shoe.Expected(deck.TenBucket) - shoe.DrawCounts()[deck.TenBucket]
	assert.Equal(t, shoe.Expected(deck.TenBucket)-countTens(t, env, false), tens)
	assert.InDelta(t, float64(tens)/float64(shoe.Remaining()), obs.Probabilities[deck.TenBucket], 1e-9)
	assert.Equal(t, [deck.RecentWindow]int{8, 8, 5}, obs.Recent)

	step(t, env, Stand)
	assert.Equal(t, shoe.Drawn(), shoe.Counted())
}

// countTens counts ten-value cards drawn this round, optionally including
// the hole card.
func countTens(t *testing.T, env *Env, withHole bool) int {
	t.Helper()
	n := 0
	for _, h := range env.Table().Hands() {
		for _, c := range h.Cards {
			if c.Bucket() == deck.TenBucket {
				n++
			}
		}
	}
	for _, c := range env.Table().Dealer.Cards {
		if c.Bucket() == deck.TenBucket && (!c.Hidden || withHole) {
			n++
		}
	}
	return n
}

func TestCountInvariantOverManyRounds(t *testing.T) {
	t.Parallel()
	rng := randutil.New(99)
	env, err := NewEnv(randutil.New(5), WithWagers(100, 100, 100), WithDecks(4),
		WithLogger(quietLogger()))
	require.NoError(t, err)

	for round := 0; round < 500; round++ {
		shoe := env.Shoe()
		for {
			assert.Equal(t, shoe.Drawn()-1, shoe.Counted(), "hole card is uncounted mid-round")
			res, err := env.Step(Actions[rng.IntN(len(Actions))])
			require.NoError(t, err)
			if res.Terminated {
				assert.True(t, res.Truncated)
				break
			}
			assert.False(t, res.Truncated)
			assert.Zero(t, res.Reward)
		}
		assert.Equal(t, shoe.Drawn(), shoe.Counted(), "round %d", round)

		_, err := env.Reset(false)
		require.NoError(t, err)
	}

	stats := env.Stats()
	assert.Equal(t, 500, stats.Rounds)
	assert.Equal(t, stats.HandsPlayed, stats.Wins+stats.Losses+stats.Draws)
	assert.Positive(t, stats.IllegalMoves)
}

func TestResetContinuationKeepsShoe(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(3), WithLogger(quietLogger()))
	require.NoError(t, err)
	shoe := env.Shoe()
	step(t, env, Stand)
	drawn := shoe.Drawn()

	obs, err := env.Reset(false)
	require.NoError(t, err)
	assert.Same(t, shoe, env.Shoe())
	assert.Equal(t, drawn+4, shoe.Drawn())
	assert.Equal(t, PhasePlayerTurn, env.Phase())
	assert.Equal(t, env.Table().Seats[0].Hands[0].Value(), obs.PlayerSum)

	_, err = env.Reset(true)
	require.NoError(t, err)
	assert.NotSame(t, shoe, env.Shoe())
	assert.Equal(t, 4, env.Shoe().Drawn())
}

func TestResetReshufflesBelowThreshold(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(3), WithDecks(2), WithReshuffleThreshold(0.5),
		WithLogger(quietLogger()))
	require.NoError(t, err)

	reshuffled := false
	for i := 0; i < 30 && !reshuffled; i++ {
		shoe := env.Shoe()
		needs := shoe.NeedsReshuffle(0.5)
		_, err := env.Reset(false)
		require.NoError(t, err)
		reshuffled = env.Shoe() != shoe
		assert.Equal(t, needs, reshuffled)
	}
	assert.True(t, reshuffled)
}

func TestResetRebuildsWhenRoundMightNotFit(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(11), WithDecks(1), WithWagers(100, 100, 100),
		WithLogger(quietLogger()))
	require.NoError(t, err)
	budget := RoundCardBudget(1, 3)
	require.Greater(t, budget, 16, "above the 30% line of one deck")

	rebuilt := 0
	for i := 0; i < 40; i++ {
		shoe := env.Shoe()
		short := shoe.Remaining() < budget
		_, err := env.Reset(false)
		require.NoError(t, err)
		assert.Equal(t, short, env.Shoe() != shoe)
		assert.GreaterOrEqual(t, env.Shoe().Remaining(), budget-8, "round dealt from at least a budget")
		if short {
			rebuilt++
		}
	}
	assert.Positive(t, rebuilt)
}

func TestSmallShoeNeverRunsDry(t *testing.T) {
	t.Parallel()
	rng := randutil.New(21)
	env, err := NewEnv(randutil.New(22), WithDecks(1), WithWagers(100, 100),
		WithLogger(quietLogger()))
	require.NoError(t, err)

	for round := 0; round < 1000; round++ {
		for {
			res, err := env.Step(Actions[rng.IntN(len(Actions))])
			require.NoError(t, err, "round %d", round)
			if res.Terminated {
				break
			}
		}
		_, err := env.Reset(false)
		require.NoError(t, err)
	}
	assert.Equal(t, 1000, env.Stats().Rounds)
}

func TestNewEnvRejectsShoeTooSmallForTable(t *testing.T) {
	t.Parallel()
	_, err := NewEnv(randutil.New(1), WithDecks(1),
		WithWagers(100, 100, 100, 100, 100, 100, 100), WithLogger(quietLogger()))
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	_, err = NewEnv(randutil.New(1), WithWagers(100, 100, 100, 100, 100, 100, 100),
		WithLogger(quietLogger()))
	assert.NoError(t, err, "eight decks seat a full table")
}

func TestRoundCardBudget(t *testing.T) {
	assert.Equal(t, 48, RoundCardBudget(8, 1))
	assert.Equal(t, 140, RoundCardBudget(8, 7))
	assert.Equal(t, 22, RoundCardBudget(1, 1))
	assert.Greater(t, RoundCardBudget(1, 7), 52)
}

// drain empties the shoe so the next draw fails
func drain(t *testing.T, env *Env) {
	t.Helper()
	for env.shoe.Remaining() > 0 {
		_, err := env.shoe.Hit(false)
		require.NoError(t, err)
	}
}

func TestStepFailsAfterEmptyShoe(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "9s5h3cKd")
	drain(t, env)

	_, err := env.Step(Hit)
	require.ErrorIs(t, err, deck.ErrEmptyShoe)

	_, err = env.Step(Double)
	assert.ErrorIs(t, err, ErrRoundFailed)
	_, err = env.Step(Stand)
	assert.ErrorIs(t, err, ErrRoundFailed)
	assert.Zero(t, env.Stats().IllegalMoves)
	assert.Zero(t, env.Stats().Rounds)

	_, err = env.Reset(false)
	require.NoError(t, err)
	_, err = env.Step(Stand)
	assert.NoError(t, err)
}

func TestStepFailsAfterBrokenSplit(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "8s5h8dKd")
	drain(t, env)

	_, err := env.Step(Split)
	require.ErrorIs(t, err, deck.ErrEmptyShoe)

	for _, a := range Actions {
		_, err := env.Step(a)
		assert.ErrorIs(t, err, ErrRoundFailed, "action %s", a)
	}
	assert.Zero(t, env.Stats().IllegalMoves)
}

func TestStepRequiresPlayerTurn(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "9s5h3cKd")
	env.phase = PhaseDealerTurn

	_, err := env.Step(Double)
	assert.ErrorIs(t, err, ErrRoundFailed)
	assert.Zero(t, env.Stats().IllegalMoves)
}

func TestResetDischargesAbandonedHole(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(8), WithLogger(quietLogger()))
	require.NoError(t, err)
	shoe := env.Shoe()
	require.True(t, shoe.Pending())

	_, err = env.Reset(false)
	require.NoError(t, err)
	assert.Equal(t, shoe.Drawn()-1, shoe.Counted())
	assert.Zero(t, env.Stats().Rounds, "abandoned rounds are not scored")
}

func TestStepRejectsUnknownAction(t *testing.T) {
	t.Parallel()
	env, err := NewEnv(randutil.New(1), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = env.Step(Action(7))
	assert.ErrorIs(t, err, ErrUnknownAction)
	assert.Equal(t, PhasePlayerTurn, env.Phase())
}

func TestObservationAfterRoundIsLastHand(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100, 100}, "Ts9sAh7c8sKd")

	step(t, env, Stand)
	res := step(t, env, Stand)
	require.True(t, res.Terminated)
	assert.Equal(t, 17, res.Observation.PlayerSum)
	assert.Equal(t, 11, res.Observation.DealerCard)
}

func TestRecorderReceivesRound(t *testing.T) {
	t.Parallel()
	var got []RoundSummary
	rec := RecorderFunc(func(s RoundSummary) error {
		got = append(got, s)
		return nil
	})
	env := newStackedEnv(t, []int{100}, "8sTh8d7c3h2c", WithRecorder(rec))

	res := step(t, env, Split, Stand, Stand)
	require.Len(t, got, 1)

	s := got[0]
	assert.Equal(t, res.Info.RoundID, s.ID)
	assert.Equal(t, 1, s.Number)
	assert.Len(t, s.Hands, 2)
	assert.Equal(t, []ActionRecord{
		{Seat: 0, Hand: 0, Action: Split},
		{Seat: 0, Hand: 0, Action: Stand},
		{Seat: 0, Hand: 1, Action: Stand},
	}, s.Actions)
	assert.False(t, s.Dealer[1].Hidden)
	assert.InDelta(t, res.Reward, s.Reward, 1e-9)
}
