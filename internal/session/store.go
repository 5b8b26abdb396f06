package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jgoulah/pvdash/internal/logging"
	"github.com/jgoulah/pvdash/internal/metrics"
	"github.com/jgoulah/pvdash/pkg/models"
)

// DefaultMaxSessions bounds the number of sessions held when no limit is given
const DefaultMaxSessions = 32

// Store holds one View per session id
type Store struct {
	mu          sync.RWMutex
	views       map[string]*View
	order       []string // ids in creation order, oldest first
	maxSessions int
}

// NewStore creates a store holding at most maxSessions views
func NewStore(maxSessions int) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Store{
		views:       make(map[string]*View),
		maxSessions: maxSessions,
	}
}

// Create registers a new session for ds and returns its id together with the
// registered view. When the store is full the oldest session is evicted.
func (s *Store) Create(ds *models.Dataset) (string, *View, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", nil, fmt.Errorf("generating session id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.order) >= s.maxSessions {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.views, oldest)
		logging.Info("Evicted session", "session", oldest, "max_sessions", s.maxSessions)
	}

	v := NewView(ds)
	s.views[id.String()] = v
	s.order = append(s.order, id.String())
	metrics.SetSessions(len(s.views))

	return id.String(), v, nil
}

// Get returns the view of a session
func (s *Store) Get(id string) (*View, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[id]
	return v, ok
}

// Delete removes a session, reporting whether it existed
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.views[id]; !ok {
		return false
	}
	delete(s.views, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	metrics.SetSessions(len(s.views))

	return true
}

// Len returns the number of sessions held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.views)
}
