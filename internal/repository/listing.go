package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
)

const listingColumns = `id, owner_id, status, created_at, updated_at`

type ListingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return l, nil
}

// ActivateLatestPaused publishes the most recently created paused listing of
// owner in a single statement. A concurrent writer holding that row makes this
// wait for it rather than fall through to an older listing.
func (r *ListingRepository) ActivateLatestPaused(ctx context.Context, ownerID uuid.UUID) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE listings SET status = $1, updated_at = now()
		WHERE id = (
			SELECT id FROM listings
			WHERE owner_id = $2 AND status = $3
			ORDER BY created_at DESC, id DESC
			LIMIT 1
			FOR UPDATE
		)
		RETURNING `+listingColumns,
		domain.ListingStatusActive, ownerID, domain.ListingStatusPaused,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ActivateLatestPaused: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("ActivateLatestPaused: %w", err)
	}
	return l, nil
}

// ActivatePaused publishes one specific listing if owner holds it paused.
func (r *ListingRepository) ActivatePaused(ctx context.Context, id, ownerID uuid.UUID) (*domain.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE listings SET status = $1, updated_at = now()
		WHERE id = $2 AND owner_id = $3 AND status = $4
		RETURNING `+listingColumns,
		domain.ListingStatusActive, id, ownerID, domain.ListingStatusPaused,
	)
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("ActivatePaused: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("ActivatePaused: %w", err)
	}
	return l, nil
}

func scanListing(s scanner) (*domain.Listing, error) {
	var l domain.Listing
	err := s.Scan(&l.ID, &l.OwnerID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
