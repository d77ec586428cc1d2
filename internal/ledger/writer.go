package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

type accountStore interface {
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Account, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance decimal.Decimal, updatedAt time.Time) error
}

type transactionStore interface {
	Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error
}

// Writer applies balance credits. The balance update and the ledger row are
// written in one database transaction under a row lock on the account.
type Writer struct {
	db           *sql.DB
	accounts     accountStore
	transactions transactionStore
	now          func() time.Time
}

func NewWriter(db *sql.DB, accounts accountStore, transactions transactionStore) *Writer {
	return &Writer{
		db:           db,
		accounts:     accounts,
		transactions: transactions,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type CreditRequest struct {
	AccountID         uuid.UUID
	Amount            decimal.Decimal
	ExternalReference string
	Metadata          domain.TransactionMetadata
}

type CreditResult struct {
	Transaction     domain.Transaction
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
}

// Credit adds req.Amount to the account and appends a deposit row. It
// returns domain.ErrDuplicateReference when the reference was already
// credited, in which case nothing is written.
func (w *Writer) Credit(ctx context.Context, req CreditRequest) (*CreditResult, error) {
	amount := req.Amount.Round(2)
	if !amount.IsPositive() || amount.GreaterThan(domain.MaxAmount) {
		return nil, fmt.Errorf("Credit: %s: %w", req.Amount, domain.ErrInvalidAmount)
	}
	if req.ExternalReference == "" {
		return nil, fmt.Errorf("Credit: empty external reference: %w", domain.ErrInvalidRequest)
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Credit: begin tx: %w: %w", domain.ErrLedgerWriteFailed, err)
	}
	defer tx.Rollback()

	account, err := w.accounts.GetForUpdate(ctx, tx, req.AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("Credit: %s: %w", req.AccountID, domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("Credit: lock account: %w: %w", domain.ErrLedgerWriteFailed, err)
	}

	now := w.now()
	newBalance := account.Balance.Add(amount)
	if newBalance.GreaterThan(domain.MaxAmount) {
		return nil, fmt.Errorf("Credit: balance %s would exceed ledger bound: %w", newBalance, domain.ErrInvalidAmount)
	}

	if err := w.accounts.UpdateBalance(ctx, tx, account.ID, newBalance, now); err != nil {
		return nil, fmt.Errorf("Credit: update balance: %w: %w", domain.ErrLedgerWriteFailed, err)
	}

	txn := domain.Transaction{
		ID:                uuid.New(),
		AccountID:         account.ID,
		Type:              domain.TransactionTypeDeposit,
		Amount:            amount,
		ExternalReference: req.ExternalReference,
		PreviousBalance:   account.Balance,
		NewBalance:        newBalance,
		Status:            domain.TransactionStatusCommitted,
		Metadata:          req.Metadata,
		CreatedAt:         now,
	}
	if err := w.transactions.Create(ctx, tx, &txn); err != nil {
		if errors.Is(err, domain.ErrDuplicateReference) {
			return nil, fmt.Errorf("Credit: %w", err)
		}
		return nil, fmt.Errorf("Credit: append transaction: %w: %w", domain.ErrLedgerWriteFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Credit: commit: %w: %w", domain.ErrLedgerWriteFailed, err)
	}

	logging.FromContext(ctx).Info("balance credited",
		"account_id", account.ID,
		"transaction_id", txn.ID,
		"external_reference", txn.ExternalReference,
		"amount", amount.StringFixed(2),
		"previous_balance", account.Balance.StringFixed(2),
		"new_balance", newBalance.StringFixed(2),
	)

	return &CreditResult{
		Transaction:     txn,
		PreviousBalance: account.Balance,
		NewBalance:      newBalance,
	}, nil
}
