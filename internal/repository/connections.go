package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectcity/marketplace-api/internal/domain"
)

// ConnectionsRepository persists Mercado Pago connection state per listing.
type ConnectionsRepository struct {
	pool *pgxpool.Pool
}

// TokenUpsertParams carries the token fields returned by the provider.
type TokenUpsertParams struct {
	ListingID      string
	ProviderUserID *int64
	AccessToken    string
	RefreshToken   *string
	ExpiresIn      *int64
	Scope          *string
	TokenType      *string
}

const connectionColumns = `
    listing_id,
    connected,
    provider_user_id,
    access_token,
    refresh_token,
    expires_in,
    scope,
    token_type,
    notes,
    last_sync
`

// UpsertTokens merge-upserts the connection row for a listing: token fields,
// connected flag, and last_sync are written, every other column is preserved.
// An unknown listing id fails with ErrNotFound rather than creating an orphan
// row.
func (r *ConnectionsRepository) UpsertTokens(ctx context.Context, params TokenUpsertParams) (domain.ProviderConnection, error) {
	query := fmt.Sprintf(`
        INSERT INTO provider_connections
            (listing_id, connected, provider_user_id, access_token, refresh_token, expires_in, scope, token_type, last_sync)
        VALUES ($1, TRUE, $2, $3, $4, $5, $6, $7, now())
        ON CONFLICT (listing_id)
        DO UPDATE SET connected = TRUE,
                      provider_user_id = EXCLUDED.provider_user_id,
                      access_token = EXCLUDED.access_token,
                      refresh_token = EXCLUDED.refresh_token,
                      expires_in = EXCLUDED.expires_in,
                      scope = EXCLUDED.scope,
                      token_type = EXCLUDED.token_type,
                      last_sync = now()
        RETURNING %s
    `, connectionColumns)

	row := r.pool.QueryRow(ctx, query,
		params.ListingID, params.ProviderUserID, params.AccessToken,
		params.RefreshToken, params.ExpiresIn, params.Scope, params.TokenType)
	conn, err := scanConnection(row)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503 foreign_key_violation: state named a listing that does not exist.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ProviderConnection{}, ErrNotFound
		}
		return domain.ProviderConnection{}, fmt.Errorf("upsert connection: %w", err)
	}
	return conn, nil
}

// Get retrieves the connection state for a listing.
func (r *ConnectionsRepository) Get(ctx context.Context, listingID string) (domain.ProviderConnection, error) {
	query := fmt.Sprintf(`SELECT %s FROM provider_connections WHERE listing_id = $1`, connectionColumns)
	conn, err := scanConnection(r.pool.QueryRow(ctx, query, listingID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.ProviderConnection{}, ErrNotFound
		}
		return domain.ProviderConnection{}, err
	}
	return conn, nil
}

// SetNotes stores free-form operator notes on the connection row, creating it
// disconnected when absent.
func (r *ConnectionsRepository) SetNotes(ctx context.Context, listingID, notes string) error {
	_, err := r.pool.Exec(ctx, `
        INSERT INTO provider_connections (listing_id, connected, notes)
        VALUES ($1, FALSE, $2)
        ON CONFLICT (listing_id)
        DO UPDATE SET notes = EXCLUDED.notes
    `, listingID, notes)
	if err != nil {
		return fmt.Errorf("set connection notes: %w", err)
	}
	return nil
}

func scanConnection(row pgx.Row) (domain.ProviderConnection, error) {
	var conn domain.ProviderConnection
	err := row.Scan(
		&conn.ListingID,
		&conn.Connected,
		&conn.ProviderUserID,
		&conn.AccessToken,
		&conn.RefreshToken,
		&conn.ExpiresIn,
		&conn.Scope,
		&conn.TokenType,
		&conn.Notes,
		&conn.LastSync,
	)
	if err != nil {
		return domain.ProviderConnection{}, err
	}
	return conn, nil
}
