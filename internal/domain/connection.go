package domain

import "time"

// ProviderConnection holds the Mercado Pago credentials bound to a listing
// after a successful connect flow. Keyed by the listing id carried as the
// OAuth state parameter.
type ProviderConnection struct {
	ListingID      string
	Connected      bool
	ProviderUserID *int64
	AccessToken    *string
	RefreshToken   *string
	ExpiresIn      *int64
	Scope          *string
	TokenType      *string
	Notes          *string
	LastSync       *time.Time
}
