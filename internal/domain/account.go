package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID        uuid.UUID
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LedgerSnapshot is an account and the aggregates of its ledger as seen by a
// single consistent read.
type LedgerSnapshot struct {
	Account        Account
	HasRows        bool
	OpeningBalance decimal.Decimal
	LedgerSum      decimal.Decimal
}
