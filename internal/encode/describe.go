package encode

import (
	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

// Describe filters g's edges by params.PowerPercent and encodes the result with
// params.LabelMode. Nodes are never dropped by the filter.
func Describe(g types.Graph, params types.DisplayParameters) (string, error) {
	if err := validate.Params(params); err != nil {
		return "", err
	}
	if _, err := uniqueNodes(g); err != nil {
		return "", err
	}
	edges, err := FilterEdgesByPower(g.Edges, params.PowerPercent)
	if err != nil {
		return "", err
	}
	return Encode(g.WithEdges(edges), params.LabelMode)
}
