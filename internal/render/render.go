// Package render lays out DOT text and rasterizes it for export.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"
)

var (
	ErrUnsupportedFormat = errors.New("render: unsupported format")
	ErrEmptyOutput       = errors.New("render: renderer produced no output")
)

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case SVG, PNG:
		return f, nil
	case "":
		return PNG, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer turns DOT text into an image.
type Renderer interface {
	Render(ctx context.Context, dot string, format Format) ([]byte, error)
}

// Graphviz renders with the embedded Graphviz engine. Calls are serialized because the
// engine instance is not safe for concurrent use.
type Graphviz struct {
	mu sync.Mutex
	gv *graphviz.Graphviz
}

func NewGraphviz(ctx context.Context) (*Graphviz, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("render: creating graphviz instance: %w", err)
	}
	return &Graphviz{gv: gv}, nil
}

func (g *Graphviz) Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	var out graphviz.Format
	switch format {
	case SVG:
		out = graphviz.SVG
	case PNG:
		out = graphviz.PNG
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	graph, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("render: parsing DOT: %w", err)
	}
	defer graph.Close()

	var buf bytes.Buffer
	if err := g.gv.Render(ctx, graph, out, &buf); err != nil {
		return nil, fmt.Errorf("render: %s: %w", format, err)
	}
	if buf.Len() == 0 {
		return nil, ErrEmptyOutput
	}
	return buf.Bytes(), nil
}

func (g *Graphviz) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gv.Close()
}
