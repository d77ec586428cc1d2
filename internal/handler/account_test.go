package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/service"
)

type mockAccountService struct {
	rec       *service.Reconciliation
	page      *service.TransactionPage
	err       error
	gotLimit  int
	gotOffset int
}

func (m *mockAccountService) Reconcile(_ context.Context, _ uuid.UUID) (*service.Reconciliation, error) {
	return m.rec, m.err
}

func (m *mockAccountService) ListTransactions(_ context.Context, _ uuid.UUID, limit, offset int) (*service.TransactionPage, error) {
	m.gotLimit, m.gotOffset = limit, offset
	return m.page, m.err
}

func accountRouter(h *AccountHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/v1/accounts/{accountID}", h.Get)
	r.Get("/api/v1/accounts/{accountID}/transactions", h.ListTransactions)
	return r
}

func TestAccountHandler_Get(t *testing.T) {
	id := uuid.New()
	svc := &mockAccountService{rec: &service.Reconciliation{
		Account:    domain.Account{ID: id, Balance: decimal.RequireFromString("150"), CreatedAt: time.Now().UTC()},
		Derived:    decimal.RequireFromString("150"),
		Consistent: true,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+id.String(), nil)
	rr := httptest.NewRecorder()
	accountRouter(NewAccountHandler(svc)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool       `json:"success"`
		Data    accountDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, id, resp.Data.ID)
	assert.Equal(t, "150.00", resp.Data.Balance)
	assert.Equal(t, "150.00", resp.Data.DerivedBalance)
	assert.True(t, resp.Data.Consistent)
}

func TestAccountHandler_Get_Errors(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"bad id", "/api/v1/accounts/not-a-uuid", nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown account", "/api/v1/accounts/" + uuid.NewString(), domain.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockAccountService{err: tc.err}
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			rr := httptest.NewRecorder()
			accountRouter(NewAccountHandler(svc)).ServeHTTP(rr, req)

			assert.Equal(t, tc.wantStatus, rr.Code)
			var resp APIResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.wantCode, resp.Error.Code)
		})
	}
}

func TestAccountHandler_ListTransactions(t *testing.T) {
	id := uuid.New()
	svc := &mockAccountService{page: &service.TransactionPage{
		Transactions: []domain.Transaction{{
			ID:                uuid.New(),
			AccountID:         id,
			Type:              domain.TransactionTypeDeposit,
			Amount:            decimal.RequireFromString("100"),
			ExternalReference: "pay_1",
			PreviousBalance:   decimal.RequireFromString("50"),
			NewBalance:        decimal.RequireFromString("150"),
			Status:            domain.TransactionStatusCommitted,
		}},
		Total: 1, Limit: 10, Offset: 0,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+id.String()+"/transactions?limit=10", nil)
	rr := httptest.NewRecorder()
	accountRouter(NewAccountHandler(svc)).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, svc.gotLimit)

	var resp struct {
		Data transactionPageDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Transactions, 1)
	txn := resp.Data.Transactions[0]
	assert.Equal(t, "100.00", txn.Amount)
	assert.Equal(t, "50.00", txn.PreviousBalance)
	assert.Equal(t, "150.00", txn.NewBalance)
	assert.Equal(t, "pay_1", txn.ExternalReference)
}

func TestAccountHandler_ListTransactions_BadPaging(t *testing.T) {
	svc := &mockAccountService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/"+uuid.NewString()+"/transactions?limit=ten", nil)
	rr := httptest.NewRecorder()
	accountRouter(NewAccountHandler(svc)).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var resp APIResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
}
