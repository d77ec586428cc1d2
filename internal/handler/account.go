package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
	"github.com/josh-kwaku/topup-ledger/internal/service"
)

type accountService interface {
	Reconcile(ctx context.Context, id uuid.UUID) (*service.Reconciliation, error)
	ListTransactions(ctx context.Context, id uuid.UUID, limit, offset int) (*service.TransactionPage, error)
}

// AccountHandler serves the operator read API over balances and the ledger.
type AccountHandler struct {
	accounts accountService
}

func NewAccountHandler(accounts accountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type accountDTO struct {
	ID             uuid.UUID `json:"id"`
	Balance        string    `json:"balance"`
	DerivedBalance string    `json:"derived_balance"`
	Consistent     bool      `json:"consistent"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type transactionDTO struct {
	ID                uuid.UUID                  `json:"id"`
	Type              string                     `json:"type"`
	Amount            string                     `json:"amount"`
	ExternalReference string                     `json:"external_reference"`
	PreviousBalance   string                     `json:"previous_balance"`
	NewBalance        string                     `json:"new_balance"`
	Status            string                     `json:"status"`
	Metadata          domain.TransactionMetadata `json:"metadata"`
	CreatedAt         time.Time                  `json:"created_at"`
}

type transactionPageDTO struct {
	Transactions []transactionDTO `json:"transactions"`
	Total        int              `json:"total"`
	Limit        int              `json:"limit"`
	Offset       int              `json:"offset"`
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	return transactionDTO{
		ID:                t.ID,
		Type:              string(t.Type),
		Amount:            money(t.Amount),
		ExternalReference: t.ExternalReference,
		PreviousBalance:   money(t.PreviousBalance),
		NewBalance:        money(t.NewBalance),
		Status:            string(t.Status),
		Metadata:          t.Metadata,
		CreatedAt:         t.CreatedAt,
	}
}

func accountIDFromPath(r *http.Request) (uuid.UUID, *AppError) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		return uuid.Nil, ErrInvalidRequest
	}
	return id, nil
}

func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	rec, err := h.accounts.Reconcile(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load account", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, accountDTO{
		ID:             rec.Account.ID,
		Balance:        money(rec.Account.Balance),
		DerivedBalance: money(rec.Derived),
		Consistent:     rec.Consistent,
		CreatedAt:      rec.Account.CreatedAt,
		UpdatedAt:      rec.Account.UpdatedAt,
	})
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, appErr := accountIDFromPath(r)
	if appErr != nil {
		RespondAppError(w, appErr, nil)
		return
	}

	var fields []FieldError
	limit, ok := queryInt(r, "limit")
	if !ok {
		fields = append(fields, FieldError{Field: "limit", Message: "must be an integer"})
	}
	offset, ok := queryInt(r, "offset")
	if !ok {
		fields = append(fields, FieldError{Field: "offset", Message: "must be an integer"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	page, err := h.accounts.ListTransactions(r.Context(), id, limit, offset)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list transactions", "account_id", id, "error", err)
		RespondDomainError(w, err)
		return
	}

	dtos := make([]transactionDTO, len(page.Transactions))
	for i := range page.Transactions {
		dtos[i] = toTransactionDTO(&page.Transactions[i])
	}

	RespondSuccess(w, http.StatusOK, transactionPageDTO{
		Transactions: dtos,
		Total:        page.Total,
		Limit:        page.Limit,
		Offset:       page.Offset,
	})
}

func queryInt(r *http.Request, key string) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}
