package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/flowviz-service/internal/validate"
	"github.com/MalithGihan/flowviz-service/pkg/types"
)

func sampleGraph() types.Graph {
	return types.Graph{
		Nodes: []types.Node{
			{ID: "A", Label: "Login", Count: 4},
			{ID: "B", Label: "Search", Count: 2},
			{ID: "C", Label: "Logout", Count: 1},
		},
		Edges: []types.Edge{
			{From: "A", To: "B", Count: 10, DurationLabel: "10\n3.00 sec avg"},
			{From: "B", To: "C", Count: 2, DurationLabel: "2\n8.00 sec avg"},
		},
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(types.DefaultDisplayParameters())
	s := m.Create(sampleGraph())
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, types.DefaultDisplayParameters(), got.Params())

	require.NoError(t, m.Delete(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}

func TestManager_Reset(t *testing.T) {
	m := NewManager(types.DefaultDisplayParameters())
	a := m.Create(sampleGraph())
	b := m.Create(sampleGraph())
	assert.NotEqual(t, a.ID, b.ID)

	ids := m.Reset()
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
	assert.Zero(t, m.Len())
}

func TestSession_DescribeFollowsParams(t *testing.T) {
	s := NewManager(types.DefaultDisplayParameters()).Create(sampleGraph())

	dot, rev, err := s.Describe()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), rev)
	assert.Contains(t, dot, `"A" -> "B" [label="10"];`)
	assert.Contains(t, dot, `"B" -> "C" [label="2"];`)

	rev, err = s.SetParams(types.DisplayParameters{LabelMode: types.LabelTime, PowerPercent: 0})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rev)

	dot, rev, err = s.Describe()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rev)
	assert.Contains(t, dot, `"A" -> "B" [label="3.00 sec avg"];`)
	assert.NotContains(t, dot, `"B" -> "C"`)
	assert.Contains(t, dot, `"C" [label="Logout (1)"`)
}

func TestSession_SetParamsRejectsInvalid(t *testing.T) {
	s := NewManager(types.DefaultDisplayParameters()).Create(sampleGraph())
	_, err := s.SetParams(types.DisplayParameters{LabelMode: "minutes", PowerPercent: 10})
	require.ErrorIs(t, err, validate.ErrValidation)
	assert.Equal(t, types.DefaultDisplayParameters(), s.Params())
	assert.Equal(t, uint64(1), s.Snapshot().Revision)
}

func TestSession_SetGraph(t *testing.T) {
	s := NewManager(types.DefaultDisplayParameters()).Create(types.Graph{})
	rev := s.SetGraph(sampleGraph())
	assert.Equal(t, uint64(2), rev)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Nodes)
	assert.Equal(t, 2, snap.Edges)
}

func TestSession_RevisionStrictlyIncreases(t *testing.T) {
	s := NewManager(types.DefaultDisplayParameters()).Create(sampleGraph())

	const writers = 16
	revs := make(chan uint64, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			rev, err := s.SetParams(types.DisplayParameters{LabelMode: types.LabelEvents, PowerPercent: p})
			if err == nil {
				revs <- rev
			}
		}(i * 5)
	}
	wg.Wait()
	close(revs)

	seen := make(map[uint64]bool)
	for r := range revs {
		assert.False(t, seen[r], "revision %d handed out twice", r)
		seen[r] = true
	}
	assert.Len(t, seen, writers)
	assert.Equal(t, uint64(writers+1), s.Snapshot().Revision)
}
