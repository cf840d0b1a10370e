package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps entries in memory. It backs tests and local runs; reads
// return copies taken under the lock, so a caller never sees a partial
// append.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ctx context.Context, entry *Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MemoryStore) ByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.CollaborationID == collaborationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) Holds(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.Type == TypeEscrowHold {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *MemoryStore) ByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}
