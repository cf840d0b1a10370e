package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry types. Every money movement is exactly one of these.
const (
	TypeIncome        = "income"
	TypeExpense       = "expense"
	TypeEscrowHold    = "escrow_hold"
	TypeEscrowRelease = "escrow_release"
	TypeRefund        = "refund"
)

// Entry statuses. An entry is written pending or completed and may move
// pending -> completed or pending -> failed exactly once; nothing else about
// an entry ever changes.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var validTypes = map[string]bool{
	TypeIncome:        true,
	TypeExpense:       true,
	TypeEscrowHold:    true,
	TypeEscrowRelease: true,
	TypeRefund:        true,
}

// Entry is one immutable money movement tied to a collaboration and a user.
type Entry struct {
	ID              uuid.UUID       `json:"id"`
	CollaborationID uuid.UUID       `json:"collaboration_id"`
	UserID          uuid.UUID       `json:"user_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewEntry builds a validated completed entry. Validation lives here at the
// write boundary so no caller can append a malformed movement.
func NewEntry(collaborationID, userID uuid.UUID, entryType string, amount decimal.Decimal) (*Entry, error) {
	if !validTypes[entryType] {
		return nil, fmt.Errorf("ledger: unknown entry type %q", entryType)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("ledger: entry amount must be positive, got %s", amount)
	}
	if collaborationID == uuid.Nil || userID == uuid.Nil {
		return nil, fmt.Errorf("ledger: entry requires collaboration and user ids")
	}
	return &Entry{
		ID:              uuid.New(),
		CollaborationID: collaborationID,
		UserID:          userID,
		Type:            entryType,
		Amount:          amount,
		Status:          StatusCompleted,
		CreatedAt:       time.Now().UTC(),
	}, nil
}
