package game

import (
	"encoding/json"
	"testing"

	"github.com/lox/blackjackgym/internal/deck"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservationLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level  ObservationLevel
		length int
		recent [deck.RecentWindow]int
	}{
		{ObservationBasic, 5, [deck.RecentWindow]int{}},
		{ObservationCounting, 16, [deck.RecentWindow]int{10, 0, 0}},
		{ObservationHistory, 18, [deck.RecentWindow]int{10, 10, 6}},
	}

	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			env := newStackedEnv(t, []int{100}, "As6hTc9d", WithObservationLevel(tt.level))
			obs := env.Observation()

			assert.Equal(t, tt.level, obs.Level)
			assert.Equal(t, 21, obs.PlayerSum)
			assert.Equal(t, 6, obs.DealerCard)
			assert.Equal(t, 1, obs.UsableAces)
			assert.True(t, obs.CanDouble)
			assert.False(t, obs.CanSplit)
			assert.Equal(t, tt.recent, obs.Recent)

			v := obs.Vector()
			require.Len(t, v, tt.length)
			assert.Equal(t, []float64{21, 6, 1, 0, 1}, v[:5])

			if tt.level == ObservationBasic {
				assert.Equal(t, [deck.Buckets]float64{}, obs.Probabilities)
				return
			}
			sum := 0.0
			for _, p := range obs.Probabilities {
				sum += p
			}
			// the hole card is still counted as in the shoe
			expected := float64(env.Shoe().Remaining()+1) / float64(env.Shoe().Remaining())
			assert.InDelta(t, expected, sum, 1e-9)
		})
	}
}

func TestParseObservationLevel(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]ObservationLevel{
		"":         ObservationBasic,
		"1":        ObservationBasic,
		"counting": ObservationCounting,
		"3":        ObservationHistory,
		"History":  ObservationHistory,
	} {
		got, err := ParseObservationLevel(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseObservationLevel("v4")
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]Action{"0": Stand, "h": Hit, "Double": Double, " p ": Split} {
		got, err := ParseAction(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseAction("surrender")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestStepResultJSON(t *testing.T) {
	t.Parallel()
	env := newStackedEnv(t, []int{100}, "9sTh8c7d")
	res := step(t, env, Stand)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"phase":"round-over"`)
	assert.Contains(t, string(data), `"outcomes":["draw"]`)
	assert.Contains(t, string(data), `"player_sum":17`)

	var back StepResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, res, back)
}
