package encode

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

func edgesWithCounts(counts ...int) []types.Edge {
	out := make([]types.Edge, len(counts))
	for i, c := range counts {
		out[i] = types.Edge{From: "A", To: "B", Count: c, DurationLabel: "x"}
	}
	return out
}

func counts(edges []types.Edge) []int {
	out := make([]int, len(edges))
	for i, e := range edges {
		out[i] = e.Count
	}
	return out
}

func TestFilterEdgesByPower(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		power  int
		want   []int
	}{
		{"power 100 keeps everything", []int{1, 5, 10}, 100, []int{1, 5, 10}},
		{"power 0 keeps the maximum", []int{1, 10, 5, 10}, 0, []int{10, 10}},
		{"power 50 uses the midpoint", []int{0, 4, 5, 6, 10}, 50, []int{5, 6, 10}},
		{"order is preserved", []int{9, 1, 7, 3}, 50, []int{9, 7}},
		{"fractional threshold rounds up in effect", []int{1, 2, 3, 4}, 50, []int{3, 4}},
		{"single edge always survives", []int{42}, 0, []int{42}},
		{"identical counts survive at power 0", []int{3, 3, 3}, 0, []int{3, 3, 3}},
		{"full int range at power 0", []int{math.MinInt64 + 1, 0, math.MaxInt64}, 0, []int{math.MaxInt64}},
		{"full int range at power 100", []int{math.MinInt64 + 1, 0, math.MaxInt64}, 100, []int{math.MinInt64 + 1, 0, math.MaxInt64}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FilterEdgesByPower(edgesWithCounts(tt.counts...), tt.power)
			require.NoError(t, err)
			assert.Equal(t, tt.want, counts(got))
		})
	}
}

func TestFilterEdgesByPower_IdenticalCountsAtFullPower(t *testing.T) {
	in := []types.Edge{
		{From: "A", To: "B", Count: 7, DurationLabel: "a"},
		{From: "B", To: "C", Count: 7, DurationLabel: "b"},
		{From: "A", To: "B", Count: 7, DurationLabel: "c"},
	}
	got, err := FilterEdgesByPower(in, 100)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestFilterEdgesByPower_Empty(t *testing.T) {
	got, err := FilterEdgesByPower(nil, 50)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, ok := Threshold(nil, 50)
	assert.False(t, ok)
}

func TestFilterEdgesByPower_OutOfRange(t *testing.T) {
	for _, p := range []int{-1, 101} {
		_, err := FilterEdgesByPower(edgesWithCounts(1, 2), p)
		require.Error(t, err)
		assert.True(t, errors.Is(err, validate.ErrValidation))

		var ve *validate.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "powerPercent", ve.Field)
	}
}

func TestFilterEdgesByPower_Monotonic(t *testing.T) {
	in := edgesWithCounts(3, 17, 1, 99, 42, 42, 8, 65, 23, 5)
	prev := -1
	for p := 0; p <= 100; p++ {
		got, err := FilterEdgesByPower(in, p)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(got), prev, "power %d shrank the edge set", p)
		prev = len(got)
	}
	assert.Equal(t, len(in), prev)
}

func TestFilterEdgesByPower_DoesNotMutateInput(t *testing.T) {
	in := edgesWithCounts(1, 2, 3)
	snapshot := append([]types.Edge(nil), in...)
	_, err := FilterEdgesByPower(in, 0)
	require.NoError(t, err)
	assert.Equal(t, snapshot, in)
}

func TestThreshold(t *testing.T) {
	th, ok := Threshold(edgesWithCounts(10, 30), 25)
	require.True(t, ok)
	assert.InDelta(t, 25.0, th, 1e-9)
}
