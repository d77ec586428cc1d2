package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxAmount is the largest value a NUMERIC(14,2) balance or amount column holds.
var MaxAmount = decimal.RequireFromString("999999999999.99")

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

type TransactionStatus string

const (
	TransactionStatusCommitted TransactionStatus = "committed"
)

// TransactionMetadata is stored as jsonb alongside each ledger row so an
// operator can trace a credit back to the gateway payment that funded it.
type TransactionMetadata struct {
	ExternalReference string          `json:"external_reference,omitempty"`
	OriginalAmount    decimal.Decimal `json:"original_amount"`
	GatewayPaymentID  string          `json:"gateway_payment_id"`
	Currency          string          `json:"currency,omitempty"`
	ListingID         *uuid.UUID      `json:"listing_id,omitempty"`
}

type Transaction struct {
	ID                uuid.UUID
	AccountID         uuid.UUID
	Type              TransactionType
	Amount            decimal.Decimal
	ExternalReference string
	PreviousBalance   decimal.Decimal
	NewBalance        decimal.Decimal
	Status            TransactionStatus
	Metadata          TransactionMetadata
	CreatedAt         time.Time
}
