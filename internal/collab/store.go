package collab

import (
	"context"

	"github.com/google/uuid"
)

// Store persists collaborations. Records are never deleted; terminal states
// are retained for audit.
type Store interface {
	// Create inserts a new collaboration. It fails with
	// DuplicateCheckoutError if a non-terminal collaboration already exists
	// for the same (project, buyer) pair.
	Create(ctx context.Context, c *Collaboration) error
	Get(ctx context.Context, id uuid.UUID) (*Collaboration, error)
	// Update persists a transitioned collaboration using an optimistic
	// version check: it fails with ErrStaleVersion if the stored version no
	// longer matches, and increments the version on success.
	Update(ctx context.Context, c *Collaboration) error
	// ByUser lists collaborations where the user is buyer or seller.
	ByUser(ctx context.Context, userID uuid.UUID) ([]Collaboration, error)
}
