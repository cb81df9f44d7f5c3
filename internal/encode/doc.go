// Package encode turns a process graph into Graphviz DOT text.
//
// The pipeline has two steps. FilterEdgesByPower keeps the edges whose count reaches a
// threshold derived from a 0..100 power value; higher power keeps more edges. Encode
// then writes every node and the surviving edges as a left-to-right digraph, picking the
// edge label facet selected by the label mode. Describe runs both.
//
// Everything here is pure and safe for concurrent use.
package encode
