// Package session tracks the map layers currently drawn for each client.
// Every render clears the previous layer set first, and a render started
// before a newer one is discarded.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/morpheusmaps/backend/internal/domain"
)

// ErrStale is returned when committing with a superseded ticket
var ErrStale = errors.New("session: render superseded by a newer operation")

type LayerKind string

const (
	LayerRoute   LayerKind = "route"
	LayerMarker  LayerKind = "marker"
	LayerHeatmap LayerKind = "heatmap"
	LayerHotspot LayerKind = "hotspot"
)

// Layer is one drawable element
type Layer struct {
	Kind      LayerKind           `json:"kind"`
	Name      string              `json:"name"`
	Points    []domain.Coordinate `json:"points"`
	Color     string              `json:"color,omitempty"`
	RiskScore float64             `json:"risk_score,omitempty"`
}

// Ticket identifies one render generation
type Ticket uint64

// Snapshot is a point-in-time copy of a session
type Snapshot struct {
	ID         string    `json:"id"`
	Generation Ticket    `json:"generation"`
	Layers     []Layer   `json:"layers"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MapSession is the layer state of one presentation client
type MapSession struct {
	mu         sync.Mutex
	id         string
	generation Ticket
	layers     []Layer
	updatedAt  time.Time
}

// New returns an empty session
func New(id string) *MapSession {
	return &MapSession{id: id}
}

// Begin starts a new render: prior layers are cleared and any outstanding
// ticket becomes stale.
func (s *MapSession) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.layers = nil
	s.updatedAt = time.Now()
	return s.generation
}

// Commit draws layers if ticket is still the current generation
func (s *MapSession) Commit(ticket Ticket, layers []Layer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket != s.generation {
		return ErrStale
	}
	s.layers = append([]Layer(nil), layers...)
	s.updatedAt = time.Now()
	return nil
}

// Snapshot copies the current state
func (s *MapSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		ID:         s.id,
		Generation: s.generation,
		Layers:     append([]Layer(nil), s.layers...),
		UpdatedAt:  s.updatedAt,
	}
}

// Store keeps sessions by id, expiring idle ones after ttl
type Store struct {
	mu       sync.Mutex
	sessions *cache.Cache
}

// NewStore creates a session store
func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: cache.New(ttl, ttl)}
}

// Get returns the session for id, creating it when absent. Each access
// refreshes its expiry.
func (st *Store) Get(id string) *MapSession {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.lookup(id)
	if !ok {
		s = New(id)
	}
	st.sessions.SetDefault(id, s)
	return s
}

// Lookup returns an existing session without creating one
func (st *Store) Lookup(id string) (*MapSession, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lookup(id)
}

func (st *Store) lookup(id string) (*MapSession, bool) {
	v, ok := st.sessions.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*MapSession), true
}

// Len reports the number of live sessions
func (st *Store) Len() int {
	return st.sessions.ItemCount()
}
