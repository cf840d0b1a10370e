package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists collaborations. The partial unique index
// idx_collaborations_live (project_id, buyer_id) WHERE status NOT IN
// ('completed','refunded') backs the duplicate-checkout guard; version
// columns back the optimistic update.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Create(ctx context.Context, c *Collaboration) error {
	reqs, err := json.Marshal(c.Requirements)
	if err != nil {
		return fmt.Errorf("collab: marshal requirements: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO collaborations
		 (id, project_id, buyer_id, seller_id, price, fee_amount, net_amount, currency,
		  status, escrow_released, requirements_data, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.ProjectID, c.BuyerID, c.SellerID,
		c.Price.String(), c.FeeAmount.String(), c.NetAmount.String(), c.Currency,
		c.Status, c.EscrowReleased, reqs, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 unique_violation on the live-collaboration index
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &DuplicateCheckoutError{ProjectID: c.ProjectID, BuyerID: c.BuyerID}
		}
		return fmt.Errorf("collab: insert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (*Collaboration, error) {
	rows, err := s.pool.Query(ctx, selectColumns+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("collab: fetch %s: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("collab: fetch %s: %w", id, err)
		}
		return nil, ErrNotFound
	}
	return scanCollaboration(rows)
}

func (s *PostgresStore) Update(ctx context.Context, c *Collaboration) error {
	reqs, err := json.Marshal(c.Requirements)
	if err != nil {
		return fmt.Errorf("collab: marshal requirements: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE collaborations
		 SET status = $1, escrow_released = $2, requirements_data = $3,
		     version = version + 1, updated_at = $4
		 WHERE id = $5 AND version = $6`,
		c.Status, c.EscrowReleased, reqs, c.UpdatedAt, c.ID, c.Version,
	)
	if err != nil {
		return fmt.Errorf("collab: update %s: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another transition won the race.
		if _, getErr := s.Get(ctx, c.ID); errors.Is(getErr, ErrNotFound) {
			return ErrNotFound
		}
		return ErrStaleVersion
	}
	c.Version++
	return nil
}

func (s *PostgresStore) ByUser(ctx context.Context, userID uuid.UUID) ([]Collaboration, error) {
	rows, err := s.pool.Query(ctx,
		selectColumns+` WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("collab: list for user %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Collaboration
	for rows.Next() {
		c, err := scanCollaboration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

const selectColumns = `SELECT id, project_id, buyer_id, seller_id,
	price::text, fee_amount::text, net_amount::text, currency,
	status, escrow_released, requirements_data, version, created_at, updated_at
	FROM collaborations`

func scanCollaboration(row pgx.Row) (*Collaboration, error) {
	var c Collaboration
	var price, fee, net string
	var reqs []byte
	err := row.Scan(&c.ID, &c.ProjectID, &c.BuyerID, &c.SellerID,
		&price, &fee, &net, &c.Currency,
		&c.Status, &c.EscrowReleased, &reqs, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("collab: scan: %w", err)
	}
	if c.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("collab: bad price %q: %w", price, err)
	}
	if c.FeeAmount, err = decimal.NewFromString(fee); err != nil {
		return nil, fmt.Errorf("collab: bad fee %q: %w", fee, err)
	}
	if c.NetAmount, err = decimal.NewFromString(net); err != nil {
		return nil, fmt.Errorf("collab: bad net %q: %w", net, err)
	}
	if len(reqs) > 0 {
		if err := json.Unmarshal(reqs, &c.Requirements); err != nil {
			return nil, fmt.Errorf("collab: bad requirements payload: %w", err)
		}
	}
	return &c, nil
}
