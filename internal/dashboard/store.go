package dashboard

import (
	"sync/atomic"

	"github.com/MrSnakeDoc/linkus/internal/domain"
)

// Store holds the active snapshot. Readers call Load once per request and work
// on that value; reloads replace the pointer, never the contents.
type Store struct {
	current atomic.Pointer[domain.Dashboard]
}

func NewStore() *Store {
	return &Store{}
}

// Load returns the active snapshot, nil before the first successful load.
func (s *Store) Load() *domain.Dashboard {
	return s.current.Load()
}

// Swap installs next and returns the previous snapshot.
func (s *Store) Swap(next *domain.Dashboard) *domain.Dashboard {
	return s.current.Swap(next)
}

// Ready reports whether a snapshot has been installed.
func (s *Store) Ready() bool {
	return s.current.Load() != nil
}

// Count returns the number of services in the active snapshot.
func (s *Store) Count() int {
	if d := s.current.Load(); d != nil {
		return len(d.Services)
	}
	return 0
}
