package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hirelink/hirelink/internal/fees"
	"github.com/hirelink/hirelink/internal/ledger"
	"github.com/hirelink/hirelink/internal/project"
)

// Notifier receives one event per committed transition. Delivery is
// fire-and-forget: a failure is logged and never rolls the transition back.
type Notifier interface {
	CollaborationEvent(event string, collaborationID, actorID uuid.UUID, at time.Time) error
}

// UserDirectory is the port onto the user collaborator service.
type UserDirectory interface {
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Options tune lifecycle policy.
type Options struct {
	// SinglePerProject flips a project out of the purchasable statuses on
	// checkout, so it accepts at most one live collaboration at a time.
	SinglePerProject bool
	// DependencyTimeout bounds calls to the project store and user
	// directory. A timed-out lookup commits nothing.
	DependencyTimeout time.Duration
	Logger            *slog.Logger
}

// Service drives the collaboration payment lifecycle. Each operation is one
// logical transaction: all guards are checked against current state before
// any side effect runs, and transitions on one collaboration are serialized
// through a per-collaboration mutex, never a global lock.
type Service struct {
	machine  *Machine
	fees     *fees.Engine
	ledger   *ledger.Ledger
	store    Store
	projects project.Store
	users    UserDirectory
	notifier Notifier
	opts     Options

	locks sync.Map // collaboration id -> *sync.Mutex
}

func NewService(store Store, projects project.Store, users UserDirectory, engine *fees.Engine, led *ledger.Ledger, notifier Notifier, opts Options) *Service {
	if opts.DependencyTimeout <= 0 {
		opts.DependencyTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		machine:  NewMachine(),
		fees:     engine,
		ledger:   led,
		store:    store,
		projects: projects,
		users:    users,
		notifier: notifier,
		opts:     opts,
	}
}

func (s *Service) lockFor(id uuid.UUID) *sync.Mutex {
	v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// notify emits the transition event, best effort.
func (s *Service) notify(event string, collaborationID, actorID uuid.UUID) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.CollaborationEvent(event, collaborationID, actorID, time.Now().UTC()); err != nil {
		s.opts.Logger.Warn("notification enqueue failed",
			"event", event, "collaboration_id", collaborationID, "error", err)
	}
}

// purchasableStatuses are the project statuses the checkout guard accepts.
var purchasableStatuses = []string{project.StatusOpen, project.StatusActive}

// Checkout validates the purchase, freezes the fee breakdown, records the
// escrow hold and creates the collaboration in escrow_held. The sequence is
// check-then-act: nothing is written until every guard has passed, and a
// cancelled context before the first write leaves no trace.
func (s *Service) Checkout(ctx context.Context, projectID, buyerID uuid.UUID) (*Collaboration, error) {
	depCtx, cancel := context.WithTimeout(ctx, s.opts.DependencyTimeout)
	defer cancel()

	p, err := s.projects.Get(depCtx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !p.Purchasable() {
		return nil, &ProjectNotAvailableError{ProjectID: projectID, Status: p.Status}
	}
	if !p.Price.IsPositive() {
		return nil, &InvalidPriceError{Price: p.Price}
	}
	if buyerID == p.OwnerID {
		return nil, &SelfPurchaseError{UserID: buyerID}
	}
	exists, err := s.users.UserExists(depCtx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("look up buyer: %w", err)
	}
	if !exists {
		return nil, &UnknownUserError{UserID: buyerID}
	}

	fee := s.fees.FeeFor(p.Price)
	c, err := New(projectID, buyerID, p.OwnerID, p.Price, fee, p.Currency)
	if err != nil {
		return nil, err
	}

	// Last point of no return before side effects.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flipped := false
	if s.opts.SinglePerProject {
		won, err := s.projects.CompareAndSetStatus(ctx, projectID, purchasableStatuses, project.StatusInProgress)
		if err != nil {
			return nil, fmt.Errorf("claim project: %w", err)
		}
		if !won {
			// Another checkout claimed the project between our read and now.
			return nil, &ProjectNotAvailableError{ProjectID: projectID, Status: project.StatusInProgress}
		}
		flipped = true
	}

	unflip := func() {
		if !flipped {
			return
		}
		if err := s.projects.UpdateStatus(context.WithoutCancel(ctx), projectID, p.Status); err != nil {
			s.opts.Logger.Error("failed to restore project status after aborted checkout",
				"project_id", projectID, "error", err)
		}
	}

	if _, err := s.ledger.Hold(ctx, c.ID, buyerID, p.Price); err != nil {
		unflip()
		return nil, fmt.Errorf("record escrow hold: %w", err)
	}
	if err := s.store.Create(ctx, c); err != nil {
		// Neutralize the hold so the ledger carries no collaboration-less
		// escrow, then surface the original failure.
		if _, refundErr := s.ledger.Refund(context.WithoutCancel(ctx), c.ID, buyerID, p.Price); refundErr != nil {
			s.opts.Logger.Error("failed to neutralize hold after aborted checkout",
				"collaboration_id", c.ID, "error", refundErr)
		}
		unflip()
		return nil, err
	}

	s.notify("collaboration_checkout", c.ID, buyerID)
	return c, nil
}

// SubmitRequirements moves escrow_held -> in_progress once every
// requirement prompt has a non-blank answer. Only the buyer may submit, and
// the answers are populated exactly once.
func (s *Service) SubmitRequirements(ctx context.Context, collaborationID, actorID uuid.UUID, answers map[int]string) (*Collaboration, error) {
	mu := s.lockFor(collaborationID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.store.Get(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if actorID != c.BuyerID {
		return nil, ErrNotBuyer
	}
	if s.machine.AtTarget(c.Status, EventRequirementsSubmitted) {
		return c, nil // retry of a committed transition
	}
	next, err := s.machine.Next(c.Status, EventRequirementsSubmitted)
	if err != nil {
		return nil, err
	}

	depCtx, cancel := context.WithTimeout(ctx, s.opts.DependencyTimeout)
	defer cancel()
	p, err := s.projects.Get(depCtx, c.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if err := ValidateRequirements(p.Requirements, answers); err != nil {
		return nil, err
	}

	c.Status = next
	c.Requirements = FilterAnswers(p.Requirements, answers)
	c.UpdatedAt = time.Now().UTC()
	if err := s.store.Update(ctx, c); err != nil {
		return nil, err
	}

	s.notify("collaboration_requirements_submitted", c.ID, actorID)
	return c, nil
}

// Cancel refunds the buyer and terminates the collaboration. Only legal
// from escrow_held, before requirements are submitted; either party may
// cancel.
func (s *Service) Cancel(ctx context.Context, collaborationID, actorID uuid.UUID) (*Collaboration, error) {
	mu := s.lockFor(collaborationID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.store.Get(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if actorID != c.BuyerID && actorID != c.SellerID {
		return nil, ErrNotParticipant
	}
	if s.machine.AtTarget(c.Status, EventCancelled) {
		return c, nil
	}
	next, err := s.machine.Next(c.Status, EventCancelled)
	if err != nil {
		return nil, err
	}
	if len(c.Requirements) > 0 {
		return nil, &InvalidTransitionError{From: c.Status, Event: EventCancelled}
	}

	if _, err := s.ledger.Refund(ctx, c.ID, c.BuyerID, c.Price); err != nil {
		return nil, err
	}
	if err := s.commitTransition(ctx, c, next); err != nil {
		s.reverseRefund(ctx, c)
		return nil, err
	}
	s.reopenProject(ctx, c.ProjectID)

	s.notify("collaboration_cancelled", c.ID, actorID)
	return c, nil
}

// Approve releases the escrow: the seller is credited the net amount and
// the platform keeps the fee. Buyer only. Retrying against a completed
// collaboration succeeds without writing a second release.
func (s *Service) Approve(ctx context.Context, collaborationID, actorID uuid.UUID) (*Collaboration, error) {
	mu := s.lockFor(collaborationID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.store.Get(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if actorID != c.BuyerID {
		return nil, ErrNotBuyer
	}
	if s.machine.AtTarget(c.Status, EventApproved) {
		return c, nil
	}
	next, err := s.machine.Next(c.Status, EventApproved)
	if err != nil {
		return nil, err
	}

	return s.release(ctx, c, next, actorID, "collaboration_completed")
}

// Dispute flags the collaboration; either party may raise it. No money
// moves until an arbiter resolves it.
func (s *Service) Dispute(ctx context.Context, collaborationID, actorID uuid.UUID) (*Collaboration, error) {
	mu := s.lockFor(collaborationID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.store.Get(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if actorID != c.BuyerID && actorID != c.SellerID {
		return nil, ErrNotParticipant
	}
	if s.machine.AtTarget(c.Status, EventDisputed) {
		return c, nil
	}
	next, err := s.machine.Next(c.Status, EventDisputed)
	if err != nil {
		return nil, err
	}
	if err := s.commitTransition(ctx, c, next); err != nil {
		return nil, err
	}

	s.notify("collaboration_disputed", c.ID, actorID)
	return c, nil
}

// Resolution winners.
const (
	WinnerSeller = "seller"
	WinnerBuyer  = "buyer"
)

// Resolve settles a dispute per the arbiter's decision: the seller winning
// releases the escrow as an approval would, the buyer winning refunds the
// full price.
func (s *Service) Resolve(ctx context.Context, collaborationID, arbiterID uuid.UUID, winner string) (*Collaboration, error) {
	var event Event
	switch winner {
	case WinnerSeller:
		event = EventResolvedForSeller
	case WinnerBuyer:
		event = EventResolvedForBuyer
	default:
		return nil, fmt.Errorf("collab: unknown resolution winner %q", winner)
	}

	mu := s.lockFor(collaborationID)
	mu.Lock()
	defer mu.Unlock()

	c, err := s.store.Get(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if s.machine.AtTarget(c.Status, event) {
		return c, nil
	}
	next, err := s.machine.Next(c.Status, event)
	if err != nil {
		return nil, err
	}

	if event == EventResolvedForSeller {
		return s.release(ctx, c, next, arbiterID, "collaboration_resolved_for_seller")
	}

	if _, err := s.ledger.Refund(ctx, c.ID, c.BuyerID, c.Price); err != nil {
		return nil, err
	}
	if err := s.commitTransition(ctx, c, next); err != nil {
		s.reverseRefund(ctx, c)
		return nil, err
	}
	s.reopenProject(ctx, c.ProjectID)

	s.notify("collaboration_resolved_for_buyer", c.ID, arbiterID)
	return c, nil
}

// SweepOrphanedHolds refunds escrow holds whose collaboration was never
// created, the residue of a crash between the hold write and the
// collaboration insert. Run once at startup; live collaborations are never
// touched.
func (s *Service) SweepOrphanedHolds(ctx context.Context) (int, error) {
	holds, err := s.ledger.UnresolvedHolds(ctx)
	if err != nil {
		return 0, fmt.Errorf("list unresolved holds: %w", err)
	}
	swept := 0
	for _, h := range holds {
		_, err := s.store.Get(ctx, h.CollaborationID)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return swept, err
		}
		if _, err := s.ledger.Refund(ctx, h.CollaborationID, h.UserID, h.Amount); err != nil {
			return swept, fmt.Errorf("refund orphaned hold %s: %w", h.ID, err)
		}
		s.opts.Logger.Warn("refunded orphaned escrow hold",
			"collaboration_id", h.CollaborationID, "buyer_id", h.UserID, "amount", h.Amount)
		swept++
	}
	return swept, nil
}

// ByUser lists the caller's collaborations on either side of the table.
func (s *Service) ByUser(ctx context.Context, userID uuid.UUID) ([]Collaboration, error) {
	return s.store.ByUser(ctx, userID)
}

// Get loads one collaboration.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Collaboration, error) {
	return s.store.Get(ctx, id)
}

// release writes the escrow release and completes the collaboration. A
// status commit failure reverses the release so the escrow is re-armed and
// the operation stays retryable; the two writes never diverge for good.
func (s *Service) release(ctx context.Context, c *Collaboration, next string, actorID uuid.UUID, event string) (*Collaboration, error) {
	if _, err := s.ledger.Release(ctx, c.ID, c.SellerID, c.NetAmount, c.FeeAmount); err != nil {
		return nil, err
	}
	c.EscrowReleased = true
	if err := s.commitTransition(ctx, c, next); err != nil {
		if revErr := s.ledger.ReverseRelease(context.WithoutCancel(ctx), c.ID, c.BuyerID, c.SellerID, c.NetAmount, c.FeeAmount); revErr != nil {
			s.opts.Logger.Error("failed to reverse release after aborted transition",
				"collaboration_id", c.ID, "error", revErr)
		}
		return nil, err
	}
	if s.opts.SinglePerProject {
		if err := s.projects.UpdateStatus(ctx, c.ProjectID, project.StatusClosed); err != nil {
			s.opts.Logger.Warn("failed to close project after completion",
				"project_id", c.ProjectID, "error", err)
		}
	}
	s.notify(event, c.ID, actorID)
	return c, nil
}

// reverseRefund re-arms the escrow after a refund whose status commit
// failed, keeping the refund retryable.
func (s *Service) reverseRefund(ctx context.Context, c *Collaboration) {
	if err := s.ledger.ReverseRefund(context.WithoutCancel(ctx), c.ID, c.BuyerID, c.Price); err != nil {
		s.opts.Logger.Error("failed to reverse refund after aborted transition",
			"collaboration_id", c.ID, "error", err)
	}
}

func (s *Service) commitTransition(ctx context.Context, c *Collaboration, next string) error {
	c.Status = next
	c.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, c)
}

// reopenProject makes a single-collaboration project purchasable again
// after a refund. Best effort: the project may have been closed or edited
// by its owner in the meantime.
func (s *Service) reopenProject(ctx context.Context, projectID uuid.UUID) {
	if !s.opts.SinglePerProject {
		return
	}
	if _, err := s.projects.CompareAndSetStatus(ctx, projectID, []string{project.StatusInProgress}, project.StatusOpen); err != nil {
		s.opts.Logger.Warn("failed to reopen project after refund",
			"project_id", projectID, "error", err)
	}
}
