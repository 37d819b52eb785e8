package domain

import "time"

// ListingKind enumerates the publication categories supported by the marketplace.
type ListingKind string

const (
	KindRestaurant ListingKind = "restaurant"
	KindRental     ListingKind = "rental"
	KindJob        ListingKind = "job"
	KindSale       ListingKind = "sale"
	KindVenture    ListingKind = "venture"
)

// ValidKind reports whether the given kind is one of the supported categories.
func ValidKind(kind ListingKind) bool {
	switch kind {
	case KindRestaurant, KindRental, KindJob, KindSale, KindVenture:
		return true
	}
	return false
}

// Listing represents a marketplace publication (restaurant or classified).
// The rating aggregate is stored alongside the listing and mutated only by
// the vote transaction; Rating is always derived from Sum/Count.
type Listing struct {
	ID          string
	Kind        ListingKind
	Title       string
	Description *string
	City        *string
	OwnerEmail  string
	PriceCents  *int64
	RatingCount int64
	RatingSum   int64
	Rating      float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
