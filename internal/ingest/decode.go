package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

// DecodeGraph reads a graph document as served by the graph service. Elements may be
// flat ({"id": ...}) or wrapped the Cytoscape way ({"data": {"id": ...}}). The document
// is checked against the graph schema before it is decoded, so a missing nodes or edges
// field, or edges that are not an array, fail with a *validate.ValidationError.
func DecodeGraph(r io.Reader) (types.Graph, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return types.Graph{}, fmt.Errorf("reading graph document: %w", err)
		}
		return types.Graph{}, &validate.ValidationError{Msg: fmt.Sprintf("malformed JSON: %v", err)}
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return types.Graph{}, &validate.ValidationError{Msg: "graph document must be a JSON object"}
	}
	for _, key := range []string{"nodes", "edges"} {
		if items, ok := root[key].([]any); ok {
			root[key] = unwrapElements(items)
		}
	}
	if err := validate.Document(root); err != nil {
		return types.Graph{}, err
	}
	for _, key := range []string{"nodes", "edges"} {
		if err := normalizeNumbers(key, root[key].([]any)); err != nil {
			return types.Graph{}, err
		}
	}

	b, err := json.Marshal(root)
	if err != nil {
		return types.Graph{}, fmt.Errorf("re-encoding graph document: %w", err)
	}
	var g types.Graph
	if err := json.Unmarshal(b, &g); err != nil {
		return types.Graph{}, &validate.ValidationError{Msg: fmt.Sprintf("decoding graph document: %v", err)}
	}
	return g, nil
}

// unwrapElements replaces {"data": {...}} elements with their payload. Sibling keys
// such as classes, group or position are dropped.
func unwrapElements(items []any) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if data, ok := m["data"].(map[string]any); ok {
			out[i] = data
		}
	}
	return out
}

// normalizeNumbers rewrites integral numbers such as 1.0 or 1e2 as plain integers and
// rejects numbers that do not fit an int.
func normalizeNumbers(key string, items []any) error {
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		for field, v := range m {
			num, ok := v.(json.Number)
			if !ok {
				continue
			}
			n, err := toInt(num)
			if err != nil {
				return validate.Errorf(fmt.Sprintf("%s.%d.%s", key, i, field), "%v", err)
			}
			m[field] = n
		}
	}
	return nil
}

func toInt(num json.Number) (int64, error) {
	if n, err := num.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
		return n, nil
	}
	f, err := num.Float64()
	if math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s is out of range", num)
	}
	if err != nil || math.IsNaN(f) {
		return 0, fmt.Errorf("%s is not a number", num)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", num)
	}
	if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return 0, fmt.Errorf("%s is out of range", num)
	}
	return int64(f), nil
}
