package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WebhookOutcomeStatus string

const (
	WebhookOutcomeSkipped   WebhookOutcomeStatus = "skipped"
	WebhookOutcomeDuplicate WebhookOutcomeStatus = "duplicate"
	WebhookOutcomeCredited  WebhookOutcomeStatus = "credited"
)

const (
	MessageNotProcessed        = "not processed"
	MessageNotApproved         = "not approved"
	MessageUnsupportedCurrency = "unsupported currency"
	MessageAlreadyProcessed    = "already processed"
	MessageCredited            = "credited"
)

// WebhookOutcome is the terminal state of one notification delivery.
type WebhookOutcome struct {
	Status        WebhookOutcomeStatus
	Message       string
	PaymentID     string
	AccountID     uuid.UUID
	NewBalance    *decimal.Decimal
	TransactionID *uuid.UUID
	ListingID     *uuid.UUID
}
