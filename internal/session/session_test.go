package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morpheusmaps/backend/internal/domain"
)

func routeLayer(name string) Layer {
	return Layer{Kind: LayerRoute, Name: name, Points: []domain.Coordinate{domain.JaipurCenter}}
}

func TestMapSession_ClearThenDraw(t *testing.T) {
	s := New("abc")

	first := s.Begin()
	require.NoError(t, s.Commit(first, []Layer{routeLayer("a"), routeLayer("b")}))
	assert.Len(t, s.Snapshot().Layers, 2)

	second := s.Begin()
	assert.Empty(t, s.Snapshot().Layers)

	require.NoError(t, s.Commit(second, []Layer{routeLayer("c")}))
	snap := s.Snapshot()
	require.Len(t, snap.Layers, 1)
	assert.Equal(t, "c", snap.Layers[0].Name)
	assert.Equal(t, second, snap.Generation)
}

func TestMapSession_StaleCommitDiscarded(t *testing.T) {
	s := New("abc")

	slow := s.Begin()
	fast := s.Begin()
	require.NoError(t, s.Commit(fast, []Layer{routeLayer("fast")}))

	err := s.Commit(slow, []Layer{routeLayer("slow")})

	assert.ErrorIs(t, err, ErrStale)
	snap := s.Snapshot()
	require.Len(t, snap.Layers, 1)
	assert.Equal(t, "fast", snap.Layers[0].Name)
}

func TestMapSession_SnapshotIsCopy(t *testing.T) {
	s := New("abc")
	ticket := s.Begin()
	require.NoError(t, s.Commit(ticket, []Layer{routeLayer("a")}))

	snap := s.Snapshot()
	snap.Layers[0].Name = "mutated"

	assert.Equal(t, "a", s.Snapshot().Layers[0].Name)
}

func TestMapSession_ConcurrentRenders(t *testing.T) {
	s := New("abc")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := s.Begin()
			_ = s.Commit(ticket, []Layer{routeLayer("x")})
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, len(s.Snapshot().Layers), 1)
	assert.Equal(t, Ticket(50), s.Snapshot().Generation)
}

func TestStore(t *testing.T) {
	st := NewStore(time.Minute)

	_, ok := st.Lookup("missing")
	assert.False(t, ok)

	a := st.Get("a")
	assert.Same(t, a, st.Get("a"))

	got, ok := st.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, got)
	assert.Equal(t, 1, st.Len())
}
