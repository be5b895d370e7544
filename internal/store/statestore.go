package store

import (
	"context"
	"sync"
	"time"

	"github.com/ocohenran/adcraft/internal/models"
)

// StateStore tracks pending OAuth CSRF state tokens. A state is accepted by
// the callback at most once: Consume removes it as it validates.
type StateStore interface {
	// Put registers a freshly issued state.
	Put(ctx context.Context, state string) error
	// Consume atomically checks and removes a pending state. It returns
	// false for states that were never issued, already consumed, or older
	// than models.StateTTL.
	Consume(ctx context.Context, state string) (bool, error)
}

// MemoryStateStore is the default in-process StateStore. Entries older than
// the TTL are pruned opportunistically on every Put.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	now    func() time.Time
}

// NewMemoryStateStore constructs an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{
		states: make(map[string]time.Time),
		now:    time.Now,
	}
}

func (s *MemoryStateStore) Put(ctx context.Context, state string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, created := range s.states {
		if now.Sub(created) > models.StateTTL {
			delete(s.states, k)
		}
	}
	s.states[state] = now
	return nil
}

func (s *MemoryStateStore) Consume(ctx context.Context, state string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created, ok := s.states[state]
	if !ok {
		return false, nil
	}
	delete(s.states, state)
	if s.now().Sub(created) > models.StateTTL {
		return false, nil
	}
	return true, nil
}
