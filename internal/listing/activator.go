package listing

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/josh-kwaku/topup-ledger/internal/domain"
	"github.com/josh-kwaku/topup-ledger/internal/logging"
)

type listingStore interface {
	ActivateLatestPaused(ctx context.Context, ownerID uuid.UUID) (*domain.Listing, error)
	ActivatePaused(ctx context.Context, id, ownerID uuid.UUID) (*domain.Listing, error)
}

// Activator publishes a paused listing once its owner's balance has been
// topped up. It runs after the credit has committed and never undoes it.
type Activator struct {
	listings listingStore
}

func NewActivator(listings listingStore) *Activator {
	return &Activator{listings: listings}
}

// Activate moves one paused listing owned by ownerID to active. When
// listingID is set only that listing is eligible; otherwise the most
// recently created paused listing is chosen. It returns nil, nil when there
// is nothing to activate.
func (a *Activator) Activate(ctx context.Context, ownerID uuid.UUID, listingID *uuid.UUID) (*domain.Listing, error) {
	log := logging.FromContext(ctx)

	var (
		l   *domain.Listing
		err error
	)
	if listingID != nil {
		l, err = a.listings.ActivatePaused(ctx, *listingID, ownerID)
	} else {
		l, err = a.listings.ActivateLatestPaused(ctx, ownerID)
	}

	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Info("no paused listing to activate", "account_id", ownerID, "listing_id", listingID)
			return nil, nil
		}
		return nil, fmt.Errorf("Activate: %w", err)
	}

	log.Info("listing activated", "account_id", ownerID, "listing_id", l.ID)
	return l, nil
}
