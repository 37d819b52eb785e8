package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectcity/marketplace-api/internal/domain"
)

// ListingsRepository provides persistence helpers for marketplace listings.
type ListingsRepository struct {
	pool *pgxpool.Pool
}

const listingColumns = `
    id,
    kind,
    title,
    description,
    city,
    owner_email,
    price_cents,
    rating_count,
    rating_sum,
    rating,
    created_at,
    updated_at
`

// ListingCreateParams bundles the fields required to create a listing.
type ListingCreateParams struct {
	Kind        domain.ListingKind
	Title       string
	Description *string
	City        *string
	OwnerEmail  string
	PriceCents  *int64
}

// ListingListFilters encapsulates search and pagination options.
type ListingListFilters struct {
	Kind       *domain.ListingKind
	Query      *string
	City       *string
	OwnerEmail *string
	Limit      int
	Cursor     *ListingCursor
}

// ListingCursor is the keyset position for pagination, newest first.
type ListingCursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

// ListingListResult returns the paginated payload.
type ListingListResult struct {
	Items      []domain.Listing
	NextCursor *string
}

// Create inserts a new listing row with a zeroed rating aggregate.
func (r *ListingsRepository) Create(ctx context.Context, params ListingCreateParams) (domain.Listing, error) {
	query := fmt.Sprintf(`
        INSERT INTO listings (id, kind, title, description, city, owner_email, price_cents)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING %s
    `, listingColumns)

	row := r.pool.QueryRow(ctx, query,
		uuid.NewString(), string(params.Kind), params.Title, params.Description,
		params.City, params.OwnerEmail, params.PriceCents)
	return scanListing(row)
}

// GetByID fetches a listing by its identifier.
func (r *ListingsRepository) GetByID(ctx context.Context, id string) (domain.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM listings WHERE id = $1`, listingColumns)
	row := r.pool.QueryRow(ctx, query, id)
	listing, err := scanListing(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Listing{}, ErrNotFound
		}
		return domain.Listing{}, err
	}
	return listing, nil
}

// List returns listings that match the provided filters, newest first.
func (r *ListingsRepository) List(ctx context.Context, filters ListingListFilters) (ListingListResult, error) {
	if filters.Limit <= 0 {
		filters.Limit = 20
	} else if filters.Limit > 100 {
		filters.Limit = 100
	}

	where := make([]string, 0)
	args := make([]interface{}, 0)
	arg := func(value interface{}) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.Kind != nil {
		where = append(where, fmt.Sprintf("kind = %s", arg(string(*filters.Kind))))
	}
	if filters.Query != nil && strings.TrimSpace(*filters.Query) != "" {
		q := "%" + strings.TrimSpace(*filters.Query) + "%"
		p1 := arg(q)
		p2 := arg(q)
		where = append(where, fmt.Sprintf("(title ILIKE %s OR description ILIKE %s)", p1, p2))
	}
	if filters.City != nil && strings.TrimSpace(*filters.City) != "" {
		where = append(where, fmt.Sprintf("city ILIKE %s", arg(strings.TrimSpace(*filters.City))))
	}
	if filters.OwnerEmail != nil && strings.TrimSpace(*filters.OwnerEmail) != "" {
		where = append(where, fmt.Sprintf("owner_email = %s", arg(strings.TrimSpace(*filters.OwnerEmail))))
	}
	if filters.Cursor != nil {
		cursorCreated := arg(filters.Cursor.CreatedAt)
		cursorID := arg(filters.Cursor.ID)
		where = append(where, fmt.Sprintf("(created_at, id) < (%s, %s)", cursorCreated, cursorID))
	}

	queryBuilder := strings.Builder{}
	queryBuilder.WriteString("SELECT ")
	queryBuilder.WriteString(listingColumns)
	queryBuilder.WriteString(" FROM listings")

	if len(where) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(where, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC, id DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT %d", filters.Limit))

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return ListingListResult{}, err
	}
	defer rows.Close()

	items := make([]domain.Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return ListingListResult{}, err
		}
		items = append(items, listing)
	}
	if err := rows.Err(); err != nil {
		return ListingListResult{}, err
	}

	var nextCursor *string
	if len(items) == filters.Limit {
		last := items[len(items)-1]
		cursor := ListingCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		token, err := encodeCursor(cursor)
		if err != nil {
			return ListingListResult{}, err
		}
		nextCursor = &token
	}

	return ListingListResult{Items: items, NextCursor: nextCursor}, nil
}

func scanListing(row pgx.Row) (domain.Listing, error) {
	var (
		listing domain.Listing
		kind    string
	)

	err := row.Scan(
		&listing.ID,
		&kind,
		&listing.Title,
		&listing.Description,
		&listing.City,
		&listing.OwnerEmail,
		&listing.PriceCents,
		&listing.RatingCount,
		&listing.RatingSum,
		&listing.Rating,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return domain.Listing{}, err
	}

	listing.Kind = domain.ListingKind(kind)
	return listing, nil
}

func encodeCursor(c ListingCursor) (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(payload), nil
}

// DecodeCursor parses a cursor token into a ListingCursor.
func DecodeCursor(token string) (*ListingCursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}
	var cursor ListingCursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor payload: %w", err)
	}
	return &cursor, nil
}
