package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/testutil"
)

func insertDeposit(t *testing.T, db *sql.DB, accountID uuid.UUID, ref, prev, amount string) *domain.Transaction {
	t.Helper()
	ctx := context.Background()

	p := decimal.RequireFromString(prev)
	a := decimal.RequireFromString(amount)
	txn := &domain.Transaction{
		ID:                uuid.New(),
		AccountID:         accountID,
		Type:              domain.TransactionTypeDeposit,
		Amount:            a,
		ExternalReference: ref,
		PreviousBalance:   p,
		NewBalance:        p.Add(a),
		Status:            domain.TransactionStatusCommitted,
		Metadata:          domain.TransactionMetadata{GatewayPaymentID: ref, OriginalAmount: a},
		CreatedAt:         time.Now().UTC(),
	}

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, NewTransactionRepository(db).Create(ctx, tx, txn))
	require.NoError(t, tx.Commit())
	return txn
}

func TestTransactionRepository_DuplicateReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewTransactionRepository(db)

	acct := testutil.SeedAccount(t, db, "0.00")
	insertDeposit(t, db, acct.ID, "ref-1", "0.00", "10.00")

	exists, err := repo.ExistsByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByReference(ctx, "ref-2")
	require.NoError(t, err)
	assert.False(t, exists)

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.Create(ctx, tx, &domain.Transaction{
		ID:                uuid.New(),
		AccountID:         acct.ID,
		Type:              domain.TransactionTypeDeposit,
		Amount:            decimal.RequireFromString("10.00"),
		ExternalReference: "ref-1",
		PreviousBalance:   decimal.RequireFromString("10.00"),
		NewBalance:        decimal.RequireFromString("20.00"),
		Status:            domain.TransactionStatusCommitted,
		CreatedAt:         time.Now().UTC(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)
}

func TestTransactionRepository_AppendOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	acct := testutil.SeedAccount(t, db, "0.00")
	txn := insertDeposit(t, db, acct.ID, "ref-ao", "0.00", "10.00")

	_, err := db.Exec(`UPDATE transactions SET amount = 99 WHERE id = $1`, txn.ID)
	require.Error(t, err)

	_, err = db.Exec(`DELETE FROM transactions WHERE id = $1`, txn.ID)
	require.Error(t, err)
}

func TestTransactionRepository_RejectsInconsistentRow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	acct := testutil.SeedAccount(t, db, "0.00")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = NewTransactionRepository(db).Create(ctx, tx, &domain.Transaction{
		ID:                uuid.New(),
		AccountID:         acct.ID,
		Type:              domain.TransactionTypeDeposit,
		Amount:            decimal.RequireFromString("10.00"),
		ExternalReference: "ref-bad",
		PreviousBalance:   decimal.RequireFromString("0.00"),
		NewBalance:        decimal.RequireFromString("11.00"),
		Status:            domain.TransactionStatusCommitted,
		CreatedAt:         time.Now().UTC(),
	})
	require.Error(t, err)

	var pqErr *pq.Error
	require.True(t, errors.As(err, &pqErr))
	assert.Equal(t, "transactions_balance_delta", pqErr.Constraint)
}

func TestTransactionRepository_ListSumAndOpening(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewTransactionRepository(db)

	acct := testutil.SeedAccount(t, db, "5.00")

	_, ok, err := repo.OpeningBalance(ctx, acct.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	insertDeposit(t, db, acct.ID, "l-1", "5.00", "10.00")
	insertDeposit(t, db, acct.ID, "l-2", "15.00", "2.50")
	insertDeposit(t, db, acct.ID, "l-3", "17.50", "0.50")

	txns, total, err := repo.ListByAccount(ctx, acct.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, txns, 2)
	assert.Equal(t, "l-3", txns[0].ExternalReference)
	assert.Equal(t, "l-3", txns[0].Metadata.GatewayPaymentID)

	sum, err := repo.SumByAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("13.00").Equal(sum))

	opening, ok, err := repo.OpeningBalance(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, decimal.RequireFromString("5.00").Equal(opening))
}

func TestTransactionRepository_LedgerSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewTransactionRepository(db)

	_, err := repo.LedgerSnapshot(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	acct := testutil.SeedAccount(t, db, "5.00")

	snap, err := repo.LedgerSnapshot(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, snap.Account.ID)
	assert.False(t, snap.HasRows)
	assert.True(t, snap.LedgerSum.IsZero())

	insertDeposit(t, db, acct.ID, "s-1", "5.00", "10.00")
	insertDeposit(t, db, acct.ID, "s-2", "15.00", "2.50")

	snap, err = repo.LedgerSnapshot(ctx, acct.ID)
	require.NoError(t, err)
	assert.True(t, snap.HasRows)
	assert.True(t, decimal.RequireFromString("5.00").Equal(snap.OpeningBalance))
	assert.True(t, decimal.RequireFromString("12.50").Equal(snap.LedgerSum))
	assert.True(t, decimal.RequireFromString("5.00").Equal(snap.Account.Balance))
}

func TestListingRepository_ActivateLatestPaused(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewListingRepository(db)

	owner := testutil.SeedAccount(t, db, "0.00")
	stranger := testutil.SeedAccount(t, db, "0.00")
	base := time.Now().Add(-time.Hour)

	older := testutil.SeedListing(t, db, owner.ID, domain.ListingStatusPaused, base)
	newer := testutil.SeedListing(t, db, owner.ID, domain.ListingStatusPaused, base.Add(time.Minute))
	testutil.SeedListing(t, db, stranger.ID, domain.ListingStatusPaused, base.Add(2*time.Minute))

	l, err := repo.ActivateLatestPaused(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, l.ID)
	assert.Equal(t, domain.ListingStatusActive, l.Status)

	l, err = repo.ActivateLatestPaused(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, older.ID, l.ID)

	_, err = repo.ActivateLatestPaused(ctx, owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListingRepository_ActivateLatestPaused_WaitsForLockedNewest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewListingRepository(db)

	owner := testutil.SeedAccount(t, db, "0.00")
	base := time.Now().Add(-time.Hour)
	older := testutil.SeedListing(t, db, owner.ID, domain.ListingStatusPaused, base)
	newer := testutil.SeedListing(t, db, owner.ID, domain.ListingStatusPaused, base.Add(time.Minute))

	locker, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer locker.Rollback()
	_, err = locker.ExecContext(ctx, `SELECT id FROM listings WHERE id = $1 FOR UPDATE`, newer.ID)
	require.NoError(t, err)

	type result struct {
		listing *domain.Listing
		err     error
	}
	done := make(chan result, 1)
	go func() {
		l, err := repo.ActivateLatestPaused(ctx, owner.ID)
		done <- result{l, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("activation returned while newest listing was locked: %+v", r)
	case <-time.After(300 * time.Millisecond):
	}

	require.NoError(t, locker.Commit())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, newer.ID, r.listing.ID)
	case <-time.After(10 * time.Second):
		t.Fatal("activation did not finish after lock was released")
	}
	assert.Equal(t, domain.ListingStatusPaused, testutil.GetListingStatus(t, db, older.ID))
}

func TestListingRepository_ActivatePaused_RequiresOwner(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewListingRepository(db)

	owner := testutil.SeedAccount(t, db, "0.00")
	other := testutil.SeedAccount(t, db, "0.00")
	l := testutil.SeedListing(t, db, owner.ID, domain.ListingStatusPaused, time.Now())

	_, err := repo.ActivatePaused(ctx, l.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.ListingStatusPaused, testutil.GetListingStatus(t, db, l.ID))

	activated, err := repo.ActivatePaused(ctx, l.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ListingStatusActive, activated.Status)
}

func TestAccountRepository_UpdateBalance_NonNegative(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	repo := NewAccountRepository(db)
	acct := testutil.SeedAccount(t, db, "1.00")

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = repo.UpdateBalance(ctx, tx, acct.ID, decimal.RequireFromString("-1.00"), time.Now().UTC())
	require.Error(t, err)
}
