package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
)

func SeedAccount(t *testing.T, db *sql.DB, balance string) *domain.Account {
	t.Helper()

	now := time.Now().UTC()
	a := &domain.Account{
		ID:        uuid.New(),
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := db.Exec(
		`INSERT INTO accounts (id, balance, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Balance, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return a
}

// SeedListing inserts a listing. Listings seeded later sort as newer.
func SeedListing(t *testing.T, db *sql.DB, ownerID uuid.UUID, status domain.ListingStatus, createdAt time.Time) *domain.Listing {
	t.Helper()

	l := &domain.Listing{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Status:    status,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: createdAt.UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO listings (id, owner_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.OwnerID, l.Status, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed listing for %s: %v", ownerID, err)
	}
	return l
}

func GetBalance(t *testing.T, db *sql.DB, accountID uuid.UUID) decimal.Decimal {
	t.Helper()

	var balance decimal.Decimal
	err := db.QueryRow(`SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		t.Fatalf("get balance %s: %v", accountID, err)
	}
	return balance
}

func CountTransactions(t *testing.T, db *sql.DB, accountID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for %s: %v", accountID, err)
	}
	return count
}

func CountTransactionsByReference(t *testing.T, db *sql.DB, ref string) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE external_reference = $1`, ref).Scan(&count)
	if err != nil {
		t.Fatalf("count transactions for reference %s: %v", ref, err)
	}
	return count
}

func GetListingStatus(t *testing.T, db *sql.DB, listingID uuid.UUID) domain.ListingStatus {
	t.Helper()

	var status domain.ListingStatus
	err := db.QueryRow(`SELECT status FROM listings WHERE id = $1`, listingID).Scan(&status)
	if err != nil {
		t.Fatalf("get listing status %s: %v", listingID, err)
	}
	return status
}
