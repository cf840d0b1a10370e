package project

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore reads projects from the listing service's table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	var p Project
	var price, vat string
	err := s.pool.QueryRow(ctx,
		`SELECT id, owner_id, title, price::text, currency, vat_percentage::text, requirements, status, created_at
		 FROM projects WHERE id = $1`, id,
	).Scan(&p.ID, &p.OwnerID, &p.Title, &price, &p.Currency, &vat, &p.Requirements, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("project: fetch %s: %w", id, err)
	}
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("project: bad price %q: %w", price, err)
	}
	if p.VATPercentage, err = decimal.NewFromString(vat); err != nil {
		return nil, fmt.Errorf("project: bad vat %q: %w", vat, err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("project: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET status = $1 WHERE id = $2 AND status = ANY($3)`, to, id, from)
	if err != nil {
		return false, fmt.Errorf("project: compare-and-set status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
