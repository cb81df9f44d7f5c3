package encode

import (
	"fmt"
	"strings"

	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

// DefaultFillColor is used for nodes that carry no color of their own.
const DefaultFillColor = "#add8e6"

// Encode writes g as a Graphviz digraph. Each distinct node id is emitted once, in input
// order; each edge is labeled with the facet of its duration label chosen by mode.
// Nothing is written unless the whole graph is valid.
func Encode(g types.Graph, mode types.LabelMode) (string, error) {
	if _, err := types.ParseLabelMode(string(mode)); err != nil {
		return "", validate.Errorf("labelMode", "%v", err)
	}
	nodes, err := uniqueNodes(g)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=rect style=filled];\n")
	b.WriteString("  edge [fontsize=12];\n")

	for _, n := range nodes {
		color := n.Color
		if color == "" {
			color = DefaultFillColor
		}
		label := fmt.Sprintf("%s (%d)", n.Label, n.Count)
		fmt.Fprintf(&b, "  %s [label=%s fillcolor=%s];\n", Quote(n.ID), Quote(label), Quote(color))
	}

	for _, e := range g.Edges {
		fmt.Fprintf(&b, "  %s -> %s [label=%s", Quote(e.From), Quote(e.To), Quote(EdgeLabel(e, mode)))
		if e.Style == types.EdgeStyleDashed {
			b.WriteString(" style=dashed")
		}
		b.WriteString("];\n")
	}

	b.WriteString("}")
	return b.String(), nil
}

// uniqueNodes returns g's nodes with duplicate ids dropped (first wins) and checks that
// every edge endpoint names one of them.
func uniqueNodes(g types.Graph) ([]types.Node, error) {
	seen := make(map[string]struct{}, len(g.Nodes))
	nodes := make([]types.Node, 0, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return nil, validate.Errorf(fmt.Sprintf("nodes.%d.id", i), "must not be empty")
		}
		if _, dup := seen[n.ID]; dup {
			continue
		}
		seen[n.ID] = struct{}{}
		nodes = append(nodes, n)
	}
	for i, e := range g.Edges {
		if _, ok := seen[e.From]; !ok {
			return nil, validate.Errorf(fmt.Sprintf("edges.%d.from", i), "node %q is not defined", e.From)
		}
		if _, ok := seen[e.To]; !ok {
			return nil, validate.Errorf(fmt.Sprintf("edges.%d.to", i), "node %q is not defined", e.To)
		}
	}
	return nodes, nil
}

// EdgeLabel splits the edge's duration label at the first newline and returns the
// events part or the time part. The time part is empty when there is no newline.
func EdgeLabel(e types.Edge, mode types.LabelMode) string {
	events, elapsed, _ := strings.Cut(e.DurationLabel, "\n")
	if mode == types.LabelTime {
		return elapsed
	}
	return events
}

var quoter = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\r", "",
	"\n", `\n`,
)

// Quote renders s as a DOT double-quoted string.
func Quote(s string) string {
	return `"` + quoter.Replace(s) + `"`
}
