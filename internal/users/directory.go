// Package users adapts the external user directory service. This core only
// ever asks whether an id is a known user.
package users

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDirectory checks users against the shared users table.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

func (d *PostgresDirectory) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("users: lookup %s: %w", id, err)
	}
	return exists, nil
}

// MemoryDirectory is a seedable directory for tests and local runs.
type MemoryDirectory struct {
	mu    sync.RWMutex
	known map[uuid.UUID]bool
}

func NewMemoryDirectory(ids ...uuid.UUID) *MemoryDirectory {
	d := &MemoryDirectory{known: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		d.known[id] = true
	}
	return d
}

func (d *MemoryDirectory) Add(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.known[id] = true
}

func (d *MemoryDirectory) UserExists(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.known[id], nil
}
