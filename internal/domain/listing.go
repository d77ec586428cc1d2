package domain

import (
	"time"

	"github.com/google/uuid"
)

type ListingStatus string

const (
	ListingStatusDraft   ListingStatus = "draft"
	ListingStatusPaused  ListingStatus = "paused"
	ListingStatusActive  ListingStatus = "active"
	ListingStatusRemoved ListingStatus = "removed"
)

// Listing is a marketplace ad. A paused listing is waiting for a balance
// top-up before it is published.
type Listing struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Status    ListingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
