package game

import (
	"testing"

	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cards string
		value int
		soft  int
	}{
		{"Ts7h", 17, 0},
		{"As6h", 17, 1},
		{"AsAh", 12, 1},
		{"AsAhAd", 13, 1},
		{"As6h9c", 16, 0},
		{"KsQhJd", 30, 0},
		{"AsKh", 21, 1},
		{"AsAhAdAc7s", 21, 1},
		{"AsAhAdAcKsQh", 24, 0},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			h := handOf(tt.cards)
			assert.Equal(t, tt.value, h.Value())
			assert.Equal(t, tt.soft, h.UsableAces())
			assert.Equal(t, tt.soft > 0, h.IsSoft())
		})
	}
}

func TestHandValueIgnoresHiddenCards(t *testing.T) {
	t.Parallel()
	h := handOf("Ts")
	hole := deck.NewCard(deck.Hearts, deck.Ace)
	hole.Hidden = true
	h.AddCard(hole)

	assert.Equal(t, 10, h.Value())
	h.Cards[1].Hidden = false
	assert.Equal(t, 21, h.Value())
}

func TestBustOnlyWithoutSoftAces(t *testing.T) {
	t.Parallel()
	shoe, err := deck.NewShoe(randutil.New(3), 2)
	require.NoError(t, err)
	shoe.Shuffle()

	for i := 0; i < 200; i++ {
		h := NewHand(100)
		for !h.IsBusted() {
			c, err := shoe.Hit(false)
			require.NoError(t, err)
			h.AddCard(c)
			if h.UsableAces() > 0 {
				assert.LessOrEqual(t, h.Value(), Bust)
			}
		}
		assert.Zero(t, h.UsableAces())
		assert.True(t, h.Done)
		if shoe.NeedsReshuffle(0.3) {
			shoe, _ = deck.NewShoe(randutil.New(int64(i)), 2)
			shoe.Shuffle()
		}
	}
}

func TestIsBustedMarksDone(t *testing.T) {
	t.Parallel()
	h := handOf("TsKh")
	assert.False(t, h.IsBusted())
	assert.False(t, h.Done)

	h.AddCard(deck.NewCard(deck.Clubs, deck.Two))
	assert.True(t, h.IsBusted())
	assert.True(t, h.Done)
}

func TestCanDoubleAndSplit(t *testing.T) {
	t.Parallel()

	assert.True(t, handOf("5s6h").CanDouble())
	assert.False(t, handOf("5s6h2c").CanDouble())
	assert.False(t, handOf("5s").CanDouble())

	assert.True(t, handOf("8s8h").CanSplit())
	assert.True(t, handOf("KsTh").CanSplit(), "ten-value cards count as a pair")
	assert.False(t, handOf("8s9h").CanSplit())
	assert.False(t, handOf("8s8h8c").CanSplit())

	split := handOf("8s8h")
	split.SplitResult = true
	assert.False(t, split.CanSplit())

	stood := handOf("5s6h")
	stood.Stand()
	assert.False(t, stood.CanDouble())
}

func TestDoubleDown(t *testing.T) {
	t.Parallel()
	shoe, err := deck.NewShoe(randutil.New(1), 1)
	require.NoError(t, err)
	require.NoError(t, shoe.Stack(deck.MustParseCards("Tc")...))

	h := handOf("5s6h")
	require.NoError(t, h.DoubleDown(shoe))
	assert.Equal(t, 200, h.Wager)
	assert.Equal(t, 21, h.Value())
	assert.True(t, h.Doubled)
	assert.True(t, h.Done)
	assert.Equal(t, 51, shoe.Remaining())

	err = h.DoubleDown(shoe)
	assert.ErrorIs(t, err, ErrIllegalAction)
	assert.Equal(t, 51, shoe.Remaining(), "failed double must not draw")
}

func TestDoubleDownRejectsThreeCards(t *testing.T) {
	t.Parallel()
	shoe, err := deck.NewShoe(randutil.New(1), 1)
	require.NoError(t, err)

	h := handOf("2s3h4c")
	assert.ErrorIs(t, h.DoubleDown(shoe), ErrIllegalAction)
	assert.Equal(t, 100, h.Wager)
	assert.False(t, h.Done)
}

func TestSettle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		player string
		dealer string
		want   Outcome
	}{
		{"higher wins", "Ts9h", "Ts8h", Win},
		{"lower loses", "Ts7h", "Ts8h", Loss},
		{"equal draws", "Ts8h", "9s9h", Draw},
		{"player bust loses to dealer bust", "TsKh5c", "TsKh2c", Loss},
		{"dealer bust", "Ts2h", "TsKh2c", Win},
		{"soft beats hard", "As8h", "Ts8h", Win},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dealer := handOf(tt.dealer)
			before := dealer.String()
			h := handOf(tt.player)
			assert.Equal(t, tt.want, h.Settle(dealer))
			assert.Equal(t, tt.want, h.Outcome)
			assert.Equal(t, Pending, dealer.Outcome)
			assert.Equal(t, before, dealer.String())
		})
	}
}

func TestHandString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "A♠ 6♥ (soft 17)", handOf("As6h").String())
	assert.Equal(t, "T♠ 7♥ (17)", handOf("Ts7h").String())
}
