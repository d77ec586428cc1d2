package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrForbidden        = &AppError{http.StatusForbidden, "FORBIDDEN", "Operator role required"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrMissingSignature  = &AppError{http.StatusBadRequest, "MISSING_SIGNATURE", "Webhook signature header is required"}
	ErrInvalidSignature  = &AppError{http.StatusUnauthorized, "INVALID_SIGNATURE", "Webhook signature is invalid"}
	ErrMissingPaymentID  = &AppError{http.StatusBadRequest, "MISSING_PAYMENT_ID", "Notification does not carry a payment id"}
	ErrMissingAccountID  = &AppError{http.StatusBadRequest, "MISSING_ACCOUNT_ID", "Payment metadata does not carry an account id"}
	ErrInvalidAmount     = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero and fit the ledger"}
	ErrAccountNotFound   = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "Account not found"}
	ErrConfiguration     = &AppError{http.StatusInternalServerError, "CONFIGURATION_ERROR", "Webhook verification is not configured"}
	ErrUpstreamFailure   = &AppError{http.StatusInternalServerError, "UPSTREAM_UNAVAILABLE", "Payment gateway unavailable"}
	ErrLedgerWriteFailed = &AppError{http.StatusInternalServerError, "LEDGER_WRITE_FAILED", "Ledger write failed"}
)
