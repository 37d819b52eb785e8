package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectcity/marketplace-api/internal/store"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("repository: not found")

// ErrConflict indicates a write lost against concurrent transactions after
// exhausting retries. Callers may retry the whole operation.
var ErrConflict = errors.New("repository: concurrent write conflict")

// Repository aggregates all domain-specific repositories.
type Repository struct {
	Listings      *ListingsRepository
	Votes         *VotesRepository
	Subscriptions *SubscriptionsRepository
	Connections   *ConnectionsRepository
}

// New constructs a Repository backed by the provided store.
func New(st *store.Store) *Repository {
	return NewWithPool(st.Pool())
}

// NewWithPool allows constructing repositories directly from a pgx pool.
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{
		Listings:      &ListingsRepository{pool: pool},
		Votes:         &VotesRepository{pool: pool},
		Subscriptions: &SubscriptionsRepository{pool: pool},
		Connections:   &ConnectionsRepository{pool: pool},
	}
}
