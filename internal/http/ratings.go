package httpserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/conectcity/marketplace-api/internal/domain"
	"github.com/conectcity/marketplace-api/internal/repository"
)

type voteRequest struct {
	Rating int `json:"rating"`
}

type voteResponse struct {
	ListingID string          `json:"listingId"`
	VoterID   string          `json:"voterId"`
	Rating    int             `json:"rating"`
	Aggregate ratingAggregate `json:"aggregate"`
}

func (s *Server) handleSubmitVote(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	voterID := strings.TrimSpace(r.Header.Get("X-Rater-Id"))
	if voterID == "" {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing or invalid authentication information")
		return
	}

	var req voteRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}
	if req.Rating < domain.MinVoteValue || req.Rating > domain.MaxVoteValue {
		s.respondError(w, http.StatusUnprocessableEntity, "INVALID_VOTE_VALUE", "rating must be an integer between 1 and 5")
		return
	}

	result, err := s.repo.Votes.Submit(r.Context(), repository.VoteSubmitParams{
		ListingID: id,
		VoterID:   voterID,
		Value:     req.Rating,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		case errors.Is(err, repository.ErrConflict):
			s.respondError(w, http.StatusConflict, "CONCURRENCY_CONFLICT", "Vote collided with concurrent updates, please retry")
		default:
			s.logger.Printf("submit vote error: %v", err)
			s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process vote")
		}
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}

	s.respondJSON(w, status, voteResponse{
		ListingID: id,
		VoterID:   voterID,
		Rating:    req.Rating,
		Aggregate: ratingAggregate{
			Count:   result.Aggregate.Count,
			Sum:     result.Aggregate.Sum,
			Average: result.Aggregate.Average,
		},
	})
}

func (s *Server) handleGetRating(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	agg, err := s.repo.Votes.Aggregate(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("aggregate rating error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch rating")
		return
	}

	s.respondJSON(w, http.StatusOK, ratingAggregate{
		Count:   agg.Count,
		Sum:     agg.Sum,
		Average: agg.Average,
	})
}
