// Package session holds the per-user view state: the graph currently on screen and the
// display parameters applied to it.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MalithGihan/flowviz-service/internal/encode"
	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

var ErrNotFound = errors.New("session: not found")

// Session is safe for concurrent use. Every change bumps Revision; the description
// produced for the highest revision is the one that should be on screen.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	graph    types.Graph
	params   types.DisplayParameters
	revision uint64
}

// Snapshot is a consistent copy of a session's state.
type Snapshot struct {
	ID        string                  `json:"id"`
	CreatedAt time.Time               `json:"createdAt"`
	Params    types.DisplayParameters `json:"params"`
	Revision  uint64                  `json:"revision"`
	Nodes     int                     `json:"nodes"`
	Edges     int                     `json:"edges"`
}

func newSession(g types.Graph, params types.DisplayParameters) *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		graph:     g,
		params:    params,
		revision:  1,
	}
}

func (s *Session) Graph() types.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

func (s *Session) Params() types.DisplayParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetGraph replaces the graph and returns the new revision.
func (s *Session) SetGraph(g types.Graph) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph = g
	s.revision++
	return s.revision
}

// SetParams validates p, stores it and returns the new revision.
func (s *Session) SetParams(p types.DisplayParameters) (uint64, error) {
	if err := validate.Params(p); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.revision++
	return s.revision, nil
}

// Describe encodes the current graph with the current parameters.
func (s *Session) Describe() (dot string, revision uint64, err error) {
	s.mu.Lock()
	g, p, rev := s.graph, s.params, s.revision
	s.mu.Unlock()

	dot, err = encode.Describe(g, p)
	return dot, rev, err
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Params:    s.params,
		Revision:  s.revision,
		Nodes:     len(s.graph.Nodes),
		Edges:     len(s.graph.Edges),
	}
}
