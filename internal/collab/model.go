package collab

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collaboration statuses. escrow_held is the initial state; completed and
// refunded are terminal and retained for audit.
const (
	StatusEscrowHeld = "escrow_held"
	StatusInProgress = "in_progress"
	StatusDisputed   = "disputed"
	StatusCompleted  = "completed"
	StatusRefunded   = "refunded"
)

// Terminal reports whether a status permits no further transitions.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusRefunded
}

// Collaboration binds a buyer and a project owner for one purchase/execution
// cycle. Price, fee and net are frozen at checkout time; later project edits
// or tier changes never touch them.
type Collaboration struct {
	ID             uuid.UUID       `json:"id"`
	ProjectID      uuid.UUID       `json:"project_id"`
	BuyerID        uuid.UUID       `json:"buyer_id"`
	SellerID       uuid.UUID       `json:"seller_id"`
	Price          decimal.Decimal `json:"price"`
	FeeAmount      decimal.Decimal `json:"fee_amount"`
	NetAmount      decimal.Decimal `json:"net_amount"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	EscrowReleased bool            `json:"escrow_released"`
	Requirements   map[int]string  `json:"requirements_data,omitempty"`
	Version        int             `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// New builds a collaboration in escrow_held. The money invariant
// price == fee + net is established here and nothing mutates the three
// amounts afterwards.
func New(projectID, buyerID, sellerID uuid.UUID, price, fee decimal.Decimal, currency string) (*Collaboration, error) {
	if !price.IsPositive() {
		return nil, &InvalidPriceError{Price: price}
	}
	if fee.IsNegative() || fee.GreaterThan(price) {
		return nil, fmt.Errorf("collab: fee %s out of range for price %s", fee, price)
	}
	now := time.Now().UTC()
	return &Collaboration{
		ID:        uuid.New(),
		ProjectID: projectID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Price:     price,
		FeeAmount: fee,
		NetAmount: price.Sub(fee),
		Currency:  currency,
		Status:    StatusEscrowHeld,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
