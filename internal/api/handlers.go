package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hirelink/hirelink/internal/collab"
	"github.com/hirelink/hirelink/internal/ledger"
	"github.com/hirelink/hirelink/internal/project"
)

// Handler adapts the collaboration lifecycle to the UI tier. It holds no
// state of its own; every operation is one call into the service.
type Handler struct {
	svc    *collab.Service
	ledger *ledger.Ledger
	logger *slog.Logger
}

func NewHandler(svc *collab.Service, led *ledger.Ledger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, ledger: led, logger: logger}
}

// actor pulls the authenticated caller id set by the JWT middleware.
func actor(c echo.Context) (uuid.UUID, bool) {
	raw, ok := c.Get("user_id").(string)
	if !ok || raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func collaborationID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// Checkout - buyer purchases a project
// POST /marketplace/collaborations {"project_id": "..."}
func (h *Handler) Checkout(c echo.Context) error {
	buyerID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ProjectID string `json:"project_id"`
	}
	if err := c.Bind(&req); err != nil || req.ProjectID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project_id"})
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project_id"})
	}

	created, err := h.svc.Checkout(c.Request().Context(), projectID, buyerID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, created)
}

// SubmitRequirements - buyer supplies fulfillment answers
// POST /marketplace/collaborations/:id/requirements {"answers": {"0": "..."}}
func (h *Handler) SubmitRequirements(c echo.Context) error {
	actorID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := collaborationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collaboration id"})
	}

	var req struct {
		Answers map[int]string `json:"answers"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	updated, err := h.svc.SubmitRequirements(c.Request().Context(), id, actorID, req.Answers)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Cancel - either party cancels before work begins
// POST /marketplace/collaborations/:id/cancel
func (h *Handler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

// Approve - buyer approves the work, releasing escrow
// POST /marketplace/collaborations/:id/approve
func (h *Handler) Approve(c echo.Context) error {
	return h.transition(c, h.svc.Approve)
}

// Dispute - either party flags the collaboration
// POST /marketplace/collaborations/:id/dispute
func (h *Handler) Dispute(c echo.Context) error {
	return h.transition(c, h.svc.Dispute)
}

// Resolve - arbiter settles a dispute
// POST /admin/collaborations/:id/resolve {"winner": "seller"|"buyer"}
func (h *Handler) Resolve(c echo.Context) error {
	arbiterID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := collaborationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collaboration id"})
	}

	var req struct {
		Winner string `json:"winner"`
	}
	if err := c.Bind(&req); err != nil || (req.Winner != collab.WinnerSeller && req.Winner != collab.WinnerBuyer) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "winner must be seller or buyer"})
	}

	updated, err := h.svc.Resolve(c.Request().Context(), id, arbiterID, req.Winner)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ListCollaborations - all collaborations where the caller is buyer or seller
// GET /marketplace/collaborations
func (h *Handler) ListCollaborations(c echo.Context) error {
	userID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.svc.ByUser(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"collaborations": items})
}

// ListTransactions - the caller's ledger entries
// GET /wallet/transactions
func (h *Handler) ListTransactions(c echo.Context) error {
	userID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.ledger.EntriesFor(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": entries})
}

// Balance - the caller's balance derived from the entry log
// GET /wallet/balance
func (h *Handler) Balance(c echo.Context) error {
	userID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	balance, err := h.ledger.BalanceFor(c.Request().Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"balance": balance})
}

func (h *Handler) transition(c echo.Context, op func(ctx context.Context, id, actorID uuid.UUID) (*collab.Collaboration, error)) error {
	actorID, ok := actor(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := collaborationID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid collaboration id"})
	}
	updated, err := op(c.Request().Context(), id, actorID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// fail maps domain errors onto HTTP statuses. Validation failures are the
// caller's to fix, conflicts mean re-read before retrying, anything else is
// a dependency fault worth logging.
func (h *Handler) fail(c echo.Context, err error) error {
	var (
		missing     *collab.MissingFieldsError
		invalid     *collab.InvalidTransitionError
		notAvail    *collab.ProjectNotAvailableError
		badPrice    *collab.InvalidPriceError
		selfBuy     *collab.SelfPurchaseError
		unknownUser *collab.UnknownUserError
		dupCheckout *collab.DuplicateCheckoutError
		dupHold     *ledger.DuplicateHoldError
		noHold      *ledger.NoActiveHoldError
		mismatch    *ledger.AmountMismatchError
	)

	switch {
	case errors.As(err, &missing):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "requirements incomplete",
			"missing": missing.Missing,
		})
	case errors.As(err, &invalid):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":  "invalid transition",
			"status": invalid.From,
			"event":  string(invalid.Event),
		})
	case errors.As(err, &dupCheckout), errors.As(err, &dupHold),
		errors.As(err, &noHold), errors.As(err, &mismatch),
		errors.Is(err, collab.ErrStaleVersion):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.As(err, &notAvail), errors.As(err, &badPrice),
		errors.As(err, &selfBuy), errors.As(err, &unknownUser):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, collab.ErrNotBuyer), errors.Is(err, collab.ErrNotParticipant):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, collab.ErrNotFound), errors.Is(err, project.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		h.logger.Error("request failed", "path", c.Path(), "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
