package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")

	ErrConfiguration    = errors.New("webhook verification not configured")
	ErrMissingSignature = errors.New("missing signature")
	ErrInvalidSignature = errors.New("invalid signature")

	ErrMissingPaymentID    = errors.New("missing payment id")
	ErrMissingAccountID    = errors.New("missing account id in payment metadata")
	ErrInvalidAmount       = errors.New("amount must be greater than zero and fit the ledger")
	ErrUpstreamUnavailable = errors.New("payment gateway unavailable")

	ErrAccountNotFound    = errors.New("account not found")
	ErrDuplicateReference = errors.New("external reference already recorded")
	ErrLedgerWriteFailed  = errors.New("ledger write failed")
)
