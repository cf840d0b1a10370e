package project

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory project store for tests and local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]*Project
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: make(map[uuid.UUID]*Project)}
}

// Put seeds or replaces a project.
func (s *MemoryStore) Put(p *Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.projects[p.ID] = &cp
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return ErrNotFound
	}
	p.Status = status
	return nil
}

func (s *MemoryStore) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return false, ErrNotFound
	}
	for _, f := range from {
		if p.Status == f {
			p.Status = to
			return true, nil
		}
	}
	return false, nil
}
