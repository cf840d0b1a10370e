package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is the persistence port for ledger entries. Implementations must
// return consistent snapshots: a read never observes a partially written
// entry. Callers serialize writes per collaboration.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	ByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]Entry, error)
	ByUser(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	// Holds lists every escrow_hold entry across all collaborations.
	Holds(ctx context.Context) ([]Entry, error)
}

// Ledger is the append-only record of money movements. If platformAccount
// is set, the platform's retained fee is written as income against it when
// a hold is released; otherwise the fee stays implicit.
type Ledger struct {
	store           Store
	platformAccount uuid.UUID
}

// New builds a ledger over a store. platformAccount may be uuid.Nil to
// leave the platform fee unledgered.
func New(store Store, platformAccount uuid.UUID) *Ledger {
	return &Ledger{store: store, platformAccount: platformAccount}
}

// activeHold returns the completed escrow_hold entry that has not yet been
// resolved by a completed release or refund, or nil. A hold appended after
// a resolution re-arms the escrow, so only resolutions following the latest
// hold count.
func activeHold(entries []Entry) *Entry {
	var hold *Entry
	resolved := false
	for i := range entries {
		e := &entries[i]
		if e.Status != StatusCompleted {
			continue
		}
		switch e.Type {
		case TypeEscrowHold:
			hold = e
			resolved = false
		case TypeEscrowRelease, TypeRefund:
			resolved = true
		}
	}
	if hold == nil || resolved {
		return nil
	}
	return hold
}

// Hold captures the full collaboration price into escrow. Funds are
// conceptually captured at checkout, so the entry is written completed.
func (l *Ledger) Hold(ctx context.Context, collaborationID, buyerID uuid.UUID, amount decimal.Decimal) (*Entry, error) {
	entries, err := l.store.ByCollaboration(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	if activeHold(entries) != nil {
		return nil, &DuplicateHoldError{CollaborationID: collaborationID}
	}
	entry, err := NewEntry(collaborationID, buyerID, TypeEscrowHold, amount)
	if err != nil {
		return nil, err
	}
	if err := l.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Release resolves the hold: net is credited to the seller and fee is the
// platform's cut. net + fee must equal the held amount exactly; the hold is
// resolved in full or not at all.
func (l *Ledger) Release(ctx context.Context, collaborationID, sellerID uuid.UUID, net, fee decimal.Decimal) (*Entry, error) {
	entries, err := l.store.ByCollaboration(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	hold := activeHold(entries)
	if hold == nil {
		return nil, &NoActiveHoldError{CollaborationID: collaborationID}
	}
	total := net.Add(fee)
	if !total.Equal(hold.Amount) {
		return nil, &AmountMismatchError{CollaborationID: collaborationID, Held: hold.Amount, Got: total}
	}
	release, err := NewEntry(collaborationID, sellerID, TypeEscrowRelease, net)
	if err != nil {
		return nil, err
	}
	if err := l.store.Append(ctx, release); err != nil {
		return nil, err
	}
	if l.platformAccount != uuid.Nil && fee.IsPositive() {
		income, err := NewEntry(collaborationID, l.platformAccount, TypeIncome, fee)
		if err != nil {
			return nil, err
		}
		if err := l.store.Append(ctx, income); err != nil {
			return nil, err
		}
	}
	return release, nil
}

// Refund resolves the hold back to the buyer. The full held amount is the
// default; a smaller amount is the partial-refund extension point and must
// never exceed the hold.
func (l *Ledger) Refund(ctx context.Context, collaborationID, buyerID uuid.UUID, amount decimal.Decimal) (*Entry, error) {
	entries, err := l.store.ByCollaboration(ctx, collaborationID)
	if err != nil {
		return nil, err
	}
	hold := activeHold(entries)
	if hold == nil {
		return nil, &NoActiveHoldError{CollaborationID: collaborationID}
	}
	if amount.GreaterThan(hold.Amount) {
		return nil, &AmountMismatchError{CollaborationID: collaborationID, Held: hold.Amount, Got: amount}
	}
	refund, err := NewEntry(collaborationID, buyerID, TypeRefund, amount)
	if err != nil {
		return nil, err
	}
	if err := l.store.Append(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// ReverseRelease neutralizes a release whose surrounding transition could
// not be committed. Offsetting expense entries cancel the credited net and
// fee, and a fresh hold re-arms the escrow, so the collaboration is back in
// the exact money state it held before the release and the operation can be
// retried. The log keeps all entries; reversal is itself appended, never an
// edit.
func (l *Ledger) ReverseRelease(ctx context.Context, collaborationID, buyerID, sellerID uuid.UUID, net, fee decimal.Decimal) error {
	reverse, err := NewEntry(collaborationID, sellerID, TypeExpense, net)
	if err != nil {
		return err
	}
	if err := l.store.Append(ctx, reverse); err != nil {
		return err
	}
	if l.platformAccount != uuid.Nil && fee.IsPositive() {
		feeReverse, err := NewEntry(collaborationID, l.platformAccount, TypeExpense, fee)
		if err != nil {
			return err
		}
		if err := l.store.Append(ctx, feeReverse); err != nil {
			return err
		}
	}
	hold, err := NewEntry(collaborationID, buyerID, TypeEscrowHold, net.Add(fee))
	if err != nil {
		return err
	}
	return l.store.Append(ctx, hold)
}

// ReverseRefund re-arms the escrow after a refund whose surrounding
// transition could not be committed. Refunds never touch spendable balance,
// so a fresh hold alone restores the prior state.
func (l *Ledger) ReverseRefund(ctx context.Context, collaborationID, buyerID uuid.UUID, amount decimal.Decimal) error {
	hold, err := NewEntry(collaborationID, buyerID, TypeEscrowHold, amount)
	if err != nil {
		return err
	}
	return l.store.Append(ctx, hold)
}

// UnresolvedHolds returns the active hold of every collaboration that has
// one: completed holds with no completed release or refund after them.
func (l *Ledger) UnresolvedHolds(ctx context.Context) ([]Entry, error) {
	holds, err := l.store.Holds(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool)
	var out []Entry
	for _, h := range holds {
		if seen[h.CollaborationID] {
			continue
		}
		seen[h.CollaborationID] = true
		entries, err := l.store.ByCollaboration(ctx, h.CollaborationID)
		if err != nil {
			return nil, err
		}
		if active := activeHold(entries); active != nil {
			out = append(out, *active)
		}
	}
	return out, nil
}

// BalanceFor derives a user's balance as a pure fold over their completed
// entries: income and escrow releases credit, expenses debit. No running
// counter exists anywhere; the log is the only source of truth.
func (l *Ledger) BalanceFor(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	entries, err := l.store.ByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	balance := decimal.Zero
	for _, e := range entries {
		if e.Status != StatusCompleted {
			continue
		}
		switch e.Type {
		case TypeIncome, TypeEscrowRelease:
			balance = balance.Add(e.Amount)
		case TypeExpense:
			balance = balance.Sub(e.Amount)
		}
	}
	return balance, nil
}

// EntriesFor lists a user's entries, newest first per the store's ordering.
func (l *Ledger) EntriesFor(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	return l.store.ByUser(ctx, userID)
}

// ByCollaboration lists all entries recorded against a collaboration.
func (l *Ledger) ByCollaboration(ctx context.Context, collaborationID uuid.UUID) ([]Entry, error) {
	return l.store.ByCollaboration(ctx, collaborationID)
}
