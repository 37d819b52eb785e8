package domain

import "time"

// SubscriptionStatusActive is the only status that grants visibility.
// Anything else is treated as inactive.
const SubscriptionStatusActive = "active"

// Subscription is a publisher's subscription record. A publisher may hold
// several; the one with the latest EndDate decides visibility.
type Subscription struct {
	ID         string
	OwnerEmail string
	Status     string
	EndDate    *time.Time
	CreatedAt  time.Time
}

// Visible reports whether this record grants visibility at the given instant.
// A missing EndDate counts as expired.
func (s Subscription) Visible(now time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.EndDate == nil {
		return false
	}
	return !s.EndDate.Before(now)
}
