package project

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Project statuses.
const (
	StatusOpen       = "open"
	StatusActive     = "active"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

// ErrNotFound is returned when no project exists for an id.
var ErrNotFound = errors.New("project not found")

// Project is an offer or demand posted by a user. This core only reads
// projects and flips their status; creation and editing belong to the
// listing service.
type Project struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Title         string          `json:"title"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	VATPercentage decimal.Decimal `json:"vat_percentage"`
	Requirements  []string        `json:"requirements"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Purchasable reports whether the project currently accepts a checkout.
func (p *Project) Purchasable() bool {
	return p.Status == StatusOpen || p.Status == StatusActive
}

// Store is the port onto the project collaborator service.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Project, error)
	// UpdateStatus unconditionally sets the project status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// CompareAndSetStatus flips the status to "to" only if the current
	// status is one of "from". It reports whether the flip happened, so two
	// racing checkouts cannot both claim a single-collaboration project.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, from []string, to string) (bool, error)
}
