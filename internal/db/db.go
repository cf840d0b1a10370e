package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool and verifies the database is reachable.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables and indexes the stores rely on. Statements
// are idempotent so repeated startups are safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	steps := []struct {
		name string
		fn   func(context.Context, *pgxpool.Pool) error
	}{
		{"projects", ensureProjectsTable},
		{"collaborations", ensureCollaborationsTable},
		{"ledger_entries", ensureLedgerTable},
	}
	for _, step := range steps {
		if err := step.fn(ctx, pool); err != nil {
			return fmt.Errorf("db: ensure %s: %w", step.name, err)
		}
	}
	return nil
}

func ensureProjectsTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			owner_id UUID NOT NULL,
			title TEXT NOT NULL,
			price NUMERIC(18,2) NOT NULL CHECK (price >= 0),
			currency TEXT NOT NULL DEFAULT 'EUR',
			vat_percentage NUMERIC(5,2) NOT NULL DEFAULT 0,
			requirements TEXT[] NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'open'
				CHECK (status IN ('open', 'active', 'in_progress', 'closed')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
		CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
	`)
	return err
}

func ensureCollaborationsTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS collaborations (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id),
			buyer_id UUID NOT NULL,
			seller_id UUID NOT NULL,
			price NUMERIC(18,2) NOT NULL CHECK (price > 0),
			fee_amount NUMERIC(18,2) NOT NULL CHECK (fee_amount >= 0),
			net_amount NUMERIC(18,2) NOT NULL CHECK (net_amount >= 0),
			currency TEXT NOT NULL DEFAULT 'EUR',
			status TEXT NOT NULL DEFAULT 'escrow_held'
				CHECK (status IN ('escrow_held', 'in_progress', 'disputed', 'completed', 'refunded')),
			escrow_released BOOLEAN NOT NULL DEFAULT FALSE,
			requirements_data JSONB NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_collaborations_buyer ON collaborations(buyer_id);
		CREATE INDEX IF NOT EXISTS idx_collaborations_seller ON collaborations(seller_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_collaborations_live
			ON collaborations(project_id, buyer_id)
			WHERE status NOT IN ('completed', 'refunded');
	`)
	return err
}

func ensureLedgerTable(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id UUID PRIMARY KEY,
			collaboration_id UUID NOT NULL,
			user_id UUID NOT NULL,
			type TEXT NOT NULL
				CHECK (type IN ('income', 'expense', 'escrow_hold', 'escrow_release', 'refund')),
			amount NUMERIC(18,2) NOT NULL CHECK (amount > 0),
			status TEXT NOT NULL DEFAULT 'completed'
				CHECK (status IN ('pending', 'completed', 'failed')),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_collaboration ON ledger_entries(collaboration_id);
		CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id, created_at);
	`)
	return err
}
