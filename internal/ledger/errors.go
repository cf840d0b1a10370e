package ledger

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DuplicateHoldError means a live escrow hold already exists for the
// collaboration. The caller lost a race or is retrying blindly; it must
// re-read state before deciding what to do.
type DuplicateHoldError struct {
	CollaborationID uuid.UUID
}

func (e *DuplicateHoldError) Error() string {
	return fmt.Sprintf("ledger: collaboration %s already has an active escrow hold", e.CollaborationID)
}

// NoActiveHoldError means a release or refund was attempted without a
// matching unresolved hold.
type NoActiveHoldError struct {
	CollaborationID uuid.UUID
}

func (e *NoActiveHoldError) Error() string {
	return fmt.Sprintf("ledger: collaboration %s has no active escrow hold", e.CollaborationID)
}

// AmountMismatchError means the amount offered to resolve a hold does not
// match the held amount.
type AmountMismatchError struct {
	CollaborationID uuid.UUID
	Held            decimal.Decimal
	Got             decimal.Decimal
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("ledger: collaboration %s holds %s, got %s", e.CollaborationID, e.Held, e.Got)
}
