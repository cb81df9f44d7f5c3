package types

import (
	"encoding/json"
	"fmt"
)

// EdgeStyleDashed marks an edge drawn with a dashed line. Any other style is solid.
const EdgeStyleDashed = "dashed"

type Node struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Total int    `json:"total,omitempty"`
	Color string `json:"color,omitempty"`
}

type Edge struct {
	From          string `json:"from"`
	To            string `json:"to"`
	Count         int    `json:"count"`
	DurationLabel string `json:"durationLabel"` // "<events>\n<time>"
	Style         string `json:"style,omitempty"`
}

// UnmarshalJSON accepts the graph service's "label" field as an alias of durationLabel.
func (e *Edge) UnmarshalJSON(b []byte) error {
	type plain Edge
	var raw struct {
		plain
		Label *string `json:"label"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*e = Edge(raw.plain)
	if e.DurationLabel == "" && raw.Label != nil {
		e.DurationLabel = *raw.Label
	}
	return nil
}

type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// WithEdges returns a copy of g sharing its nodes but holding edges.
func (g Graph) WithEdges(edges []Edge) Graph {
	return Graph{Nodes: g.Nodes, Edges: edges}
}

type LabelMode string

const (
	LabelEvents LabelMode = "events"
	LabelTime   LabelMode = "time"
)

func ParseLabelMode(s string) (LabelMode, error) {
	switch LabelMode(s) {
	case LabelEvents, LabelTime:
		return LabelMode(s), nil
	default:
		return "", fmt.Errorf("unknown label mode %q", s)
	}
}

type DisplayParameters struct {
	LabelMode    LabelMode `json:"labelMode" yaml:"labelMode" validate:"required,oneof=events time"`
	PowerPercent int       `json:"powerPercent" yaml:"powerPercent" validate:"gte=0,lte=100"`
}

// DefaultDisplayParameters shows every edge with its event-count label.
func DefaultDisplayParameters() DisplayParameters {
	return DisplayParameters{LabelMode: LabelEvents, PowerPercent: 100}
}
