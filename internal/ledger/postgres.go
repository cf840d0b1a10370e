package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresStore persists entries in the ledger_entries table. Inserts only;
// the single status transition an entry may ever make is not needed by this
// core, which writes entries completed.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Append(ctx context.Context, entry *Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ledger_entries (id, collaboration_id, user_id, type, amount, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.CollaborationID, entry.UserID, entry.Type, entry.Amount.String(), entry.Status, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("ledger: append entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, collaboration_id, user_id, type, amount::text, status, created_at
		 FROM ledger_entries WHERE collaboration_id = $1 ORDER BY created_at`, collaborationID)
}

func (s *PostgresStore) Holds(ctx context.Context) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, collaboration_id, user_id, type, amount::text, status, created_at
		 FROM ledger_entries WHERE type = $1 ORDER BY created_at`, TypeEscrowHold)
}

func (s *PostgresStore) ByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, collaboration_id, user_id, type, amount::text, status, created_at
		 FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (s *PostgresStore) query(ctx context.Context, sql string, arg any) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("ledger: query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var amount string
		if err := rows.Scan(&e.ID, &e.CollaborationID, &e.UserID, &e.Type, &amount, &e.Status, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan entry: %w", err)
		}
		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("ledger: bad amount %q: %w", amount, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
