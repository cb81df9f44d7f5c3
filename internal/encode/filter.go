package encode

import (
	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

// Threshold returns the minimum count an edge needs to survive at powerPercent:
// min + (max-min) * (100-powerPercent) / 100. ok is false when edges is empty.
func Threshold(edges []types.Edge, powerPercent int) (threshold float64, ok bool) {
	if len(edges) == 0 {
		return 0, false
	}
	lo, hi := edges[0].Count, edges[0].Count
	for _, e := range edges[1:] {
		lo = min(lo, e.Count)
		hi = max(hi, e.Count)
	}
	// subtract in float64: hi-lo overflows int for counts of opposite sign
	return float64(lo) + (float64(hi)-float64(lo))*float64(100-powerPercent)/100, true
}

// FilterEdgesByPower returns, in their original order, the edges whose count is at or
// above the threshold for powerPercent. Power 100 keeps every edge, power 0 keeps only
// the edges tied at the maximum count. An empty input yields an empty result.
func FilterEdgesByPower(edges []types.Edge, powerPercent int) ([]types.Edge, error) {
	if powerPercent < 0 || powerPercent > 100 {
		return nil, validate.Errorf("powerPercent", "must be within [0,100], got %d", powerPercent)
	}
	threshold, ok := Threshold(edges, powerPercent)
	if !ok {
		return []types.Edge{}, nil
	}
	out := make([]types.Edge, 0, len(edges))
	for _, e := range edges {
		if float64(e.Count) >= threshold {
			out = append(out, e)
		}
	}
	return out, nil
}
