package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type accountReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
}

type transactionReader interface {
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error)
	LedgerSnapshot(ctx context.Context, accountID uuid.UUID) (*domain.LedgerSnapshot, error)
}

// AccountService answers operator queries over balances and their audit
// trail.
type AccountService struct {
	accounts     accountReader
	transactions transactionReader
}

func NewAccountService(accounts accountReader, transactions transactionReader) *AccountService {
	return &AccountService{accounts: accounts, transactions: transactions}
}

// Reconciliation compares the stored balance with the balance derived from
// the ledger: the opening balance plus every committed delta.
type Reconciliation struct {
	Account        domain.Account
	OpeningBalance decimal.Decimal
	LedgerSum      decimal.Decimal
	Derived        decimal.Decimal
	Consistent     bool
}

type TransactionPage struct {
	Transactions []domain.Transaction
	Total        int
	Limit        int
	Offset       int
}

func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetAccount: %w", err)
	}
	return account, nil
}

func (s *AccountService) Reconcile(ctx context.Context, id uuid.UUID) (*Reconciliation, error) {
	snap, err := s.transactions.LedgerSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Reconcile: %w", err)
	}
	account := snap.Account

	if !snap.HasRows {
		return &Reconciliation{
			Account:        account,
			OpeningBalance: account.Balance,
			LedgerSum:      decimal.Zero,
			Derived:        account.Balance,
			Consistent:     true,
		}, nil
	}

	derived := snap.OpeningBalance.Add(snap.LedgerSum)
	rec := &Reconciliation{
		Account:        account,
		OpeningBalance: snap.OpeningBalance,
		LedgerSum:      snap.LedgerSum,
		Derived:        derived,
		Consistent:     account.Balance.Equal(derived),
	}
	if !rec.Consistent {
		logging.Incident(ctx).Error("balance does not match ledger",
			"account_id", id,
			"balance", account.Balance.StringFixed(2),
			"derived", derived.StringFixed(2),
		)
	}
	return rec, nil
}

func (s *AccountService) ListTransactions(ctx context.Context, id uuid.UUID, limit, offset int) (*TransactionPage, error) {
	if _, err := s.accounts.GetByID(ctx, id); err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	txns, total, err := s.transactions.ListByAccount(ctx, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}

	return &TransactionPage{
		Transactions: txns,
		Total:        total,
		Limit:        limit,
		Offset:       offset,
	}, nil
}
