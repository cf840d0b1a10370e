package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestHoldThenRelease(t *testing.T) {
	ctx := context.Background()
	platform := uuid.New()
	l := New(NewMemoryStore(), platform)

	collab, buyer, seller := uuid.New(), uuid.New(), uuid.New()

	hold, err := l.Hold(ctx, collab, buyer, d("15000"))
	require.NoError(t, err)
	assert.Equal(t, TypeEscrowHold, hold.Type)
	assert.Equal(t, StatusCompleted, hold.Status)

	release, err := l.Release(ctx, collab, seller, d("12000"), d("3000"))
	require.NoError(t, err)
	assert.Equal(t, TypeEscrowRelease, release.Type)
	assert.True(t, release.Amount.Equal(d("12000")))

	// The platform's cut is ledgered as income against the system account.
	entries, err := l.ByCollaboration(ctx, collab)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, TypeIncome, entries[2].Type)
	assert.Equal(t, platform, entries[2].UserID)
	assert.True(t, entries[2].Amount.Equal(d("3000")))
}

func TestHoldRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer := uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	_, err = l.Hold(ctx, collab, buyer, d("100"))
	var dup *DuplicateHoldError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, collab, dup.CollaborationID)
}

func TestHoldAllowedAgainAfterRefund(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer := uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)
	_, err = l.Refund(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	_, err = l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	// The second hold is live: a duplicate is rejected and the escrow can
	// be resolved against it.
	_, err = l.Hold(ctx, collab, buyer, d("100"))
	var dup *DuplicateHoldError
	assert.ErrorAs(t, err, &dup)
	_, err = l.Release(ctx, collab, uuid.New(), d("90"), d("10"))
	assert.NoError(t, err)
}

func TestReverseReleaseReArmsEscrow(t *testing.T) {
	ctx := context.Background()
	platform := uuid.New()
	l := New(NewMemoryStore(), platform)
	collab, buyer, seller := uuid.New(), uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)
	_, err = l.Release(ctx, collab, seller, d("90"), d("10"))
	require.NoError(t, err)

	require.NoError(t, l.ReverseRelease(ctx, collab, buyer, seller, d("90"), d("10")))

	// The credited net and fee are cancelled out.
	balance, err := l.BalanceFor(ctx, seller)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
	balance, err = l.BalanceFor(ctx, platform)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	// The escrow is live again and resolvable.
	_, err = l.Release(ctx, collab, seller, d("90"), d("10"))
	require.NoError(t, err)
	balance, err = l.BalanceFor(ctx, seller)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("90")))
}

func TestReverseRefundReArmsEscrow(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer := uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("250"))
	require.NoError(t, err)
	_, err = l.Refund(ctx, collab, buyer, d("250"))
	require.NoError(t, err)

	require.NoError(t, l.ReverseRefund(ctx, collab, buyer, d("250")))

	_, err = l.Refund(ctx, collab, buyer, d("250"))
	assert.NoError(t, err)
}

func TestUnresolvedHoldsListsOnlyActiveOnes(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	buyer := uuid.New()

	open, released, refunded := uuid.New(), uuid.New(), uuid.New()
	_, err := l.Hold(ctx, open, buyer, d("100"))
	require.NoError(t, err)
	_, err = l.Hold(ctx, released, buyer, d("200"))
	require.NoError(t, err)
	_, err = l.Release(ctx, released, uuid.New(), d("160"), d("40"))
	require.NoError(t, err)
	_, err = l.Hold(ctx, refunded, buyer, d("300"))
	require.NoError(t, err)
	_, err = l.Refund(ctx, refunded, buyer, d("300"))
	require.NoError(t, err)

	holds, err := l.UnresolvedHolds(ctx)
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, open, holds[0].CollaborationID)
	assert.True(t, holds[0].Amount.Equal(d("100")))
}

func TestReleaseWithoutHold(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)

	_, err := l.Release(ctx, uuid.New(), uuid.New(), d("90"), d("10"))
	var noHold *NoActiveHoldError
	assert.ErrorAs(t, err, &noHold)
}

func TestReleaseAmountMustMatchHold(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer, seller := uuid.New(), uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	_, err = l.Release(ctx, collab, seller, d("80"), d("10"))
	var mismatch *AmountMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.True(t, mismatch.Held.Equal(d("100")))
	assert.True(t, mismatch.Got.Equal(d("90")))

	// Nothing was written by the failed attempt.
	entries, err := l.ByCollaboration(ctx, collab)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRefundCannotExceedHold(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer := uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	_, err = l.Refund(ctx, collab, buyer, d("150"))
	var mismatch *AmountMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestPartialRefund(t *testing.T) {
	ctx := context.Background()
	l := New(NewMemoryStore(), uuid.Nil)
	collab, buyer := uuid.New(), uuid.New()

	_, err := l.Hold(ctx, collab, buyer, d("100"))
	require.NoError(t, err)

	refund, err := l.Refund(ctx, collab, buyer, d("40"))
	require.NoError(t, err)
	assert.True(t, refund.Amount.Equal(d("40")))
}

func TestBalanceForIsAFoldOverEntries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := New(store, uuid.Nil)
	user := uuid.New()

	for _, fix := range []struct {
		typ, amount, status string
	}{
		{TypeIncome, "500", StatusCompleted},
		{TypeEscrowRelease, "1200", StatusCompleted},
		{TypeExpense, "300", StatusCompleted},
		{TypeIncome, "999", StatusPending},  // pending entries never count
		{TypeRefund, "50", StatusCompleted}, // refunds restore escrow, not balance
	} {
		e, err := NewEntry(uuid.New(), user, fix.typ, d(fix.amount))
		require.NoError(t, err)
		e.Status = fix.status
		require.NoError(t, store.Append(ctx, e))
	}

	balance, err := l.BalanceFor(ctx, user)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("1400")), "got %s", balance)
}

func TestBalanceForToleratesConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l := New(store, uuid.Nil)
	user := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, err := NewEntry(uuid.New(), user, TypeIncome, d("1"))
			require.NoError(t, err)
			require.NoError(t, store.Append(ctx, e))
		}()
	}
	for i := 0; i < 20; i++ {
		_, err := l.BalanceFor(ctx, user)
		require.NoError(t, err)
	}
	wg.Wait()

	balance, err := l.BalanceFor(ctx, user)
	require.NoError(t, err)
	assert.True(t, balance.Equal(d("50")))
}

func TestNewEntryValidation(t *testing.T) {
	_, err := NewEntry(uuid.New(), uuid.New(), "transfer", d("10"))
	assert.Error(t, err)

	_, err = NewEntry(uuid.New(), uuid.New(), TypeIncome, d("0"))
	assert.Error(t, err)

	_, err = NewEntry(uuid.Nil, uuid.New(), TypeIncome, d("10"))
	assert.Error(t, err)
}
