package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
)

const transactionColumns = `id, account_id, type, amount, external_reference,
	previous_balance, new_balance, status, metadata, created_at`

const externalReferenceConstraint = "transactions_external_reference_key"

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create appends a ledger row inside tx. A second row for the same external
// reference fails with domain.ErrDuplicateReference.
func (r *TransactionRepository) Create(ctx context.Context, tx *sql.Tx, t *domain.Transaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("Create: marshal metadata: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (
			id, account_id, type, amount, external_reference,
			previous_balance, new_balance, status, metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.AccountID, t.Type, t.Amount, t.ExternalReference,
		t.PreviousBalance, t.NewBalance, t.Status, metadata, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, externalReferenceConstraint) {
			return fmt.Errorf("Create: %w", domain.ErrDuplicateReference)
		}
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *TransactionRepository) ExistsByReference(ctx context.Context, externalReference string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE external_reference = $1)`,
		externalReference,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ExistsByReference: %w", err)
	}
	return exists, nil
}

func (r *TransactionRepository) GetByReference(ctx context.Context, externalReference string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE external_reference = $1`,
		externalReference,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByReference: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByReference: %w", err)
	}
	return t, nil
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Transaction, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		WHERE account_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: %w", err)
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("ListByAccount: scan: %w", err)
		}
		txns = append(txns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("ListByAccount: rows: %w", err)
	}
	return txns, total, nil
}

// SumByAccount derives the balance from the committed ledger rows.
func (r *TransactionRepository) SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return sumByAccount(ctx, r.db, accountID)
}

func sumByAccount(ctx context.Context, q queryRower, accountID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = $2 THEN -amount ELSE amount END), 0)
		FROM transactions WHERE account_id = $1 AND status = $3`,
		accountID, domain.TransactionTypeWithdrawal, domain.TransactionStatusCommitted,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("SumByAccount: %w", err)
	}
	return sum, nil
}

// OpeningBalance returns the balance the account held before its first
// ledger row. ok is false when the account has no rows.
func (r *TransactionRepository) OpeningBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool, error) {
	return openingBalance(ctx, r.db, accountID)
}

func openingBalance(ctx context.Context, q queryRower, accountID uuid.UUID) (opening decimal.Decimal, ok bool, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT previous_balance FROM transactions
		WHERE account_id = $1 ORDER BY created_at, id LIMIT 1`,
		accountID,
	).Scan(&opening)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("OpeningBalance: %w", err)
	}
	return opening, true, nil
}

// LedgerSnapshot reads the account row and its ledger aggregates in one
// read-only REPEATABLE READ transaction. All three reads see the same
// committed state.
func (r *TransactionRepository) LedgerSnapshot(ctx context.Context, accountID uuid.UUID) (*domain.LedgerSnapshot, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("LedgerSnapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	account, err := scanAccount(tx.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, accountID,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("LedgerSnapshot: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("LedgerSnapshot: %w", err)
	}

	snap := &domain.LedgerSnapshot{Account: *account}
	snap.OpeningBalance, snap.HasRows, err = openingBalance(ctx, tx, accountID)
	if err != nil {
		return nil, fmt.Errorf("LedgerSnapshot: %w", err)
	}
	if snap.HasRows {
		snap.LedgerSum, err = sumByAccount(ctx, tx, accountID)
		if err != nil {
			return nil, fmt.Errorf("LedgerSnapshot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("LedgerSnapshot: commit: %w", err)
	}
	return snap, nil
}

func scanTransaction(s scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var metadata []byte

	err := s.Scan(
		&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.ExternalReference,
		&t.PreviousBalance, &t.NewBalance, &t.Status, &metadata, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &t, nil
}
