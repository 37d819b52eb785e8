package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/conectcity/marketplace-api/internal/domain"
	"github.com/conectcity/marketplace-api/internal/store"
)

// VotesRepository maintains per-listing rating aggregates and per-user votes.
type VotesRepository struct {
	pool *pgxpool.Pool
}

// VoteSubmitParams captures the payload required to submit a vote.
type VoteSubmitParams struct {
	ListingID string
	VoterID   string
	Value     int
}

// SubmitResult reports the post-commit aggregate and whether the vote was new.
type SubmitResult struct {
	Aggregate domain.RatingAggregate
	Created   bool
}

// Submit records a vote and updates the listing's running aggregate in one
// serializable transaction: read count/sum and the voter's previous vote,
// recompute, write both rows. A revote replaces the previous value without
// touching the count. Conflicting concurrent submissions are retried by the
// store and surface ErrConflict once the budget is spent.
func (r *VotesRepository) Submit(ctx context.Context, params VoteSubmitParams) (SubmitResult, error) {
	if params.Value < domain.MinVoteValue || params.Value > domain.MaxVoteValue {
		return SubmitResult{}, fmt.Errorf("vote value %d out of range [%d,%d]",
			params.Value, domain.MinVoteValue, domain.MaxVoteValue)
	}

	var result SubmitResult
	err := store.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		var count, sum int64
		err := tx.QueryRow(ctx,
			`SELECT rating_count, rating_sum FROM listings WHERE id = $1`,
			params.ListingID,
		).Scan(&count, &sum)
		if err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return fmt.Errorf("read aggregate: %w", err)
		}

		var prev int
		hasPrev := true
		err = tx.QueryRow(ctx,
			`SELECT value FROM votes WHERE listing_id = $1 AND voter_id = $2`,
			params.ListingID, params.VoterID,
		).Scan(&prev)
		if err != nil {
			if err != pgx.ErrNoRows {
				return fmt.Errorf("read previous vote: %w", err)
			}
			hasPrev = false
		}

		if hasPrev {
			sum = sum - int64(prev) + int64(params.Value)
		} else {
			count++
			sum += int64(params.Value)
		}

		average := 0.0
		if count > 0 {
			average = float64(sum) / float64(count)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE listings
             SET rating_count = $2, rating_sum = $3, rating = $4, updated_at = now()
             WHERE id = $1`,
			params.ListingID, count, sum, average,
		)
		if err != nil {
			return fmt.Errorf("write aggregate: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return ErrNotFound
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO votes (listing_id, voter_id, value)
             VALUES ($1,$2,$3)
             ON CONFLICT (listing_id, voter_id)
             DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
			params.ListingID, params.VoterID, params.Value,
		)
		if err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}

		result = SubmitResult{
			Aggregate: domain.RatingAggregate{Count: count, Sum: sum, Average: average},
			Created:   !hasPrev,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrTxConflict) {
			return SubmitResult{}, ErrConflict
		}
		return SubmitResult{}, err
	}
	return result, nil
}

// Aggregate returns the stored rating aggregate for a listing.
func (r *VotesRepository) Aggregate(ctx context.Context, listingID string) (domain.RatingAggregate, error) {
	var agg domain.RatingAggregate
	err := r.pool.QueryRow(ctx,
		`SELECT rating_count, rating_sum, rating FROM listings WHERE id = $1`,
		listingID,
	).Scan(&agg.Count, &agg.Sum, &agg.Average)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RatingAggregate{}, ErrNotFound
		}
		return domain.RatingAggregate{}, fmt.Errorf("read aggregate: %w", err)
	}
	return agg, nil
}

// Get retrieves a vote for a specific voter/listing combination.
func (r *VotesRepository) Get(ctx context.Context, listingID, voterID string) (domain.Vote, error) {
	const query = `
        SELECT listing_id, voter_id, value, created_at, updated_at
        FROM votes
        WHERE listing_id = $1 AND voter_id = $2
    `
	var vote domain.Vote
	err := r.pool.QueryRow(ctx, query, listingID, voterID).Scan(
		&vote.ListingID,
		&vote.VoterID,
		&vote.Value,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Vote{}, ErrNotFound
		}
		return domain.Vote{}, err
	}
	return vote, nil
}
