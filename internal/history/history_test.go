package history

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjackgym/internal/deck"
	"github.com/lox/blackjackgym/internal/game"
	"github.com/lox/blackjackgym/internal/policy"
	"github.com/lox/blackjackgym/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func sampleSummary() game.RoundSummary {
	return game.RoundSummary{
		ID:          "06bqkq3kq8r9n5hzxk2m4v7c1w",
		Number:      3,
		Reshuffled:  true,
		Dealer:      deck.MustParseCards("Th7c"),
		DealerValue: 17,
		Hands: []game.HandSummary{
			{Seat: 0, Index: 0, Cards: deck.MustParseCards("8s3hTd"), Value: 21, Wager: 100, Outcome: game.Win, SplitResult: true},
			{Seat: 0, Index: 1, Cards: deck.MustParseCards("8d2c5s"), Value: 15, Wager: 200, Outcome: game.Loss, Doubled: true, SplitResult: true},
		},
		Actions: []game.ActionRecord{
			{Seat: 0, Hand: 0, Action: game.Split},
			{Seat: 0, Hand: 0, Action: game.Hit},
			{Seat: 0, Hand: 0, Action: game.Stand},
			{Seat: 0, Hand: 1, Action: game.Double},
		},
		Reward: -1,
	}
}

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	round := FromSummary(sampleSummary(), 42, at)

	data, err := EncodeToBytes(round)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `variant = "blackjack"`)
	assert.Contains(t, text, `"s1h1 split"`)
	assert.Contains(t, text, "[dealer]")
	assert.Contains(t, text, "[[hands]]")
	assert.Contains(t, text, `"Td"`)

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, round.ID, got.ID)
	assert.Equal(t, int64(42), got.Seed)
	assert.True(t, at.Equal(got.Time))
	assert.Equal(t, []string{"Th", "7c"}, got.Dealer.Cards)
	require.Len(t, got.Hands, 2)
	assert.Equal(t, "loss", got.Hands[1].Outcome)
	assert.True(t, got.Hands[1].Doubled)
	assert.Len(t, got.Actions, 4)
}

func TestEncodeNil(t *testing.T) {
	assert.Error(t, Encode(io.Discard, nil))
}

func TestDecodeRejectsOtherVariant(t *testing.T) {
	_, err := Decode(strings.NewReader(`variant = "nlhe"`))
	assert.ErrorContains(t, err, "unexpected variant")

	_, err = Decode(strings.NewReader(`variant = `))
	assert.Error(t, err)
}

func TestWriterRecordsEnvRounds(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "rounds")
	w, err := NewWriter(dir, 9, quietLogger())
	require.NoError(t, err)

	env, err := game.NewEnv(randutil.New(9), game.WithWagers(100, 100),
		game.WithRecorder(w), game.WithLogger(quietLogger()))
	require.NoError(t, err)
	p := policy.NewBasicStrategy(quietLogger())

	var total float64
	for round := 0; round < 20; round++ {
		obs := env.Observation()
		for {
			res, err := env.Step(p.Act(obs))
			require.NoError(t, err)
			obs = res.Observation
			if res.Terminated {
				total += res.Reward
				break
			}
		}
		_, err := env.Reset(false)
		require.NoError(t, err)
	}

	assert.Equal(t, 20, w.Written())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 20)

	s, err := Summarize(dir)
	require.NoError(t, err)
	assert.Equal(t, 20, s.Rounds)
	assert.Equal(t, env.Stats().HandsPlayed, s.Hands)
	assert.Equal(t, env.Stats().Wins, s.Wins)
	assert.Equal(t, env.Stats().Wagered, s.Wagered)
	assert.InDelta(t, total, s.Reward, 1e-9)
	assert.Equal(t, 1, s.First.Number)
	assert.Equal(t, 20, s.Last.Number)

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Contains(t, buf.String(), "Rounds: 20")
}

func TestSummarizeEmptyDir(t *testing.T) {
	s, err := Summarize(t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, s.Rounds)

	var buf bytes.Buffer
	s.Print(&buf)
	assert.Equal(t, "Rounds: 0 (0 illegal, 0 on a fresh shoe)\n", buf.String())
}
