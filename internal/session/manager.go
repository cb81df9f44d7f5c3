package session

import (
	"sync"

	"github.com/MalithGihan/flowviz-service/pkg/types"
)

type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults types.DisplayParameters
}

// NewManager returns a Manager whose new sessions start with defaults.
func NewManager(defaults types.DisplayParameters) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
	}
}

// Defaults are the parameters new sessions start with.
func (m *Manager) Defaults() types.DisplayParameters { return m.defaults }

func (m *Manager) Create(g types.Graph) *Session {
	s := newSession(g, m.defaults)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Reset drops every session and returns their ids.
func (m *Manager) Reset() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.sessions = make(map[string]*Session)
	return ids
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
