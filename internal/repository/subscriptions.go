package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectcity/marketplace-api/internal/domain"
)

// SubscriptionsRepository answers publisher visibility questions.
type SubscriptionsRepository struct {
	pool *pgxpool.Pool
}

// SubscriptionCreateParams bundles the fields required to create a record.
type SubscriptionCreateParams struct {
	OwnerEmail string
	Status     string
	EndDate    *time.Time
}

// Create inserts a subscription record for a publisher.
func (r *SubscriptionsRepository) Create(ctx context.Context, params SubscriptionCreateParams) (domain.Subscription, error) {
	const query = `
        INSERT INTO subscriptions (id, owner_email, status, end_date)
        VALUES ($1,$2,$3,$4)
        RETURNING id, owner_email, status, end_date, created_at
    `
	var sub domain.Subscription
	err := r.pool.QueryRow(ctx, query,
		uuid.NewString(), strings.ToLower(strings.TrimSpace(params.OwnerEmail)),
		params.Status, params.EndDate,
	).Scan(&sub.ID, &sub.OwnerEmail, &sub.Status, &sub.EndDate, &sub.CreatedAt)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// IsPublisherVisible reports whether the publisher's best subscription record
// (latest end_date, ties broken by id) is active and unexpired. Publishers
// with no records, a lapsed record, or a record without an end date are not
// visible.
func (r *SubscriptionsRepository) IsPublisherVisible(ctx context.Context, ownerEmail string) (bool, error) {
	best, err := r.bestRecords(ctx, []string{normalizeOwner(ownerEmail)})
	if err != nil {
		return false, err
	}
	sub, ok := best[normalizeOwner(ownerEmail)]
	if !ok {
		return false, nil
	}
	return sub.Visible(time.Now().UTC()), nil
}

// FilterVisible returns only listings whose owner currently passes the
// subscription gate. Owners are resolved in a single batched query. Listings
// without a resolvable owner are dropped: ambiguity hides, never exposes.
func (r *SubscriptionsRepository) FilterVisible(ctx context.Context, listings []domain.Listing) ([]domain.Listing, error) {
	if len(listings) == 0 {
		return listings, nil
	}

	seen := make(map[string]struct{}, len(listings))
	owners := make([]string, 0, len(listings))
	for _, l := range listings {
		owner := normalizeOwner(l.OwnerEmail)
		if owner == "" {
			continue
		}
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		owners = append(owners, owner)
	}
	if len(owners) == 0 {
		return []domain.Listing{}, nil
	}

	best, err := r.bestRecords(ctx, owners)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	visible := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		sub, ok := best[normalizeOwner(l.OwnerEmail)]
		if !ok {
			continue
		}
		if sub.Visible(now) {
			visible = append(visible, l)
		}
	}
	return visible, nil
}

// bestRecords fetches, per owner, the subscription record with the latest
// end_date. NULL end dates sort last so a dated record always wins over an
// undated one.
func (r *SubscriptionsRepository) bestRecords(ctx context.Context, owners []string) (map[string]domain.Subscription, error) {
	const query = `
        SELECT DISTINCT ON (owner_email)
               id, owner_email, status, end_date, created_at
        FROM subscriptions
        WHERE owner_email = ANY($1)
        ORDER BY owner_email, end_date DESC NULLS LAST, id DESC
    `
	rows, err := r.pool.Query(ctx, query, owners)
	if err != nil {
		return nil, fmt.Errorf("fetch subscriptions: %w", err)
	}
	defer rows.Close()

	best := make(map[string]domain.Subscription, len(owners))
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		best[sub.OwnerEmail] = sub
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

func scanSubscription(row pgx.Row) (domain.Subscription, error) {
	var sub domain.Subscription
	err := row.Scan(&sub.ID, &sub.OwnerEmail, &sub.Status, &sub.EndDate, &sub.CreatedAt)
	if err != nil {
		return domain.Subscription{}, err
	}
	return sub, nil
}

func normalizeOwner(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
