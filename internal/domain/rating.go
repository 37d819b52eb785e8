package domain

import "time"

// Vote value bounds. Votes are whole stars.
const (
	MinVoteValue = 1
	MaxVoteValue = 5
)

// Vote represents a single user's current vote on a listing. One row per
// (listing, voter) pair; a revote overwrites the value in place.
type Vote struct {
	ListingID string
	VoterID   string
	Value     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RatingAggregate is the running (count, sum, average) triple for a listing.
type RatingAggregate struct {
	Count   int64
	Sum     int64
	Average float64
}
