package collab

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps collaborations in memory for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Collaboration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[uuid.UUID]*Collaboration)}
}

func clone(c *Collaboration) *Collaboration {
	cp := *c
	if c.Requirements != nil {
		cp.Requirements = make(map[int]string, len(c.Requirements))
		for k, v := range c.Requirements {
			cp.Requirements[k] = v
		}
	}
	return &cp
}

func (s *MemoryStore) Create(ctx context.Context, c *Collaboration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.records {
		if existing.ProjectID == c.ProjectID && existing.BuyerID == c.BuyerID && !Terminal(existing.Status) {
			return &DuplicateCheckoutError{ProjectID: c.ProjectID, BuyerID: c.BuyerID}
		}
	}
	s.records[c.ID] = clone(c)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Collaboration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

func (s *MemoryStore) Update(ctx context.Context, c *Collaboration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.records[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != c.Version {
		return ErrStaleVersion
	}
	c.Version++
	s.records[c.ID] = clone(c)
	return nil
}

func (s *MemoryStore) ByUser(ctx context.Context, userID uuid.UUID) ([]Collaboration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Collaboration
	for _, c := range s.records {
		if c.BuyerID == userID || c.SellerID == userID {
			out = append(out, *clone(c))
		}
	}
	return out, nil
}
