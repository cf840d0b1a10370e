package collab

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no collaboration exists for an id.
	ErrNotFound = errors.New("collaboration not found")
	// ErrStaleVersion means another transition committed first; the caller
	// must re-read before retrying.
	ErrStaleVersion = errors.New("collaboration was modified concurrently")
	// ErrNotParticipant means the actor is neither buyer nor seller.
	ErrNotParticipant = errors.New("actor is not a participant in this collaboration")
	// ErrNotBuyer means the operation is reserved for the buyer.
	ErrNotBuyer = errors.New("only the buyer may perform this operation")
)

// InvalidPriceError rejects a checkout against a non-positive price.
type InvalidPriceError struct {
	Price decimal.Decimal
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("collab: price must be positive, got %s", e.Price)
}

// ProjectNotAvailableError rejects a checkout against a project whose
// status disallows purchase.
type ProjectNotAvailableError struct {
	ProjectID uuid.UUID
	Status    string
}

func (e *ProjectNotAvailableError) Error() string {
	return fmt.Sprintf("collab: project %s is not available for checkout (status %s)", e.ProjectID, e.Status)
}

// SelfPurchaseError rejects a buyer checking out their own project.
type SelfPurchaseError struct {
	UserID uuid.UUID
}

func (e *SelfPurchaseError) Error() string {
	return fmt.Sprintf("collab: user %s cannot purchase their own project", e.UserID)
}

// UnknownUserError rejects a checkout for a buyer the user directory does
// not know.
type UnknownUserError struct {
	UserID uuid.UUID
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("collab: unknown user %s", e.UserID)
}

// DuplicateCheckoutError means a live collaboration already exists for this
// (project, buyer) pair. One of two racing checkouts gets this.
type DuplicateCheckoutError struct {
	ProjectID uuid.UUID
	BuyerID   uuid.UUID
}

func (e *DuplicateCheckoutError) Error() string {
	return fmt.Sprintf("collab: buyer %s already has a live collaboration on project %s", e.BuyerID, e.ProjectID)
}

// InvalidTransitionError rejects an event the current status does not
// permit. It is raised before any side effect runs.
type InvalidTransitionError struct {
	From  string
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("collab: event %q is not valid in status %q", e.Event, e.From)
}

// MissingFieldsError reports every requirement prompt left unanswered, so
// the UI can surface all of them at once.
type MissingFieldsError struct {
	Missing []int
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("collab: requirement prompts %v are unanswered", e.Missing)
}
