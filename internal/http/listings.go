package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/conectcity/marketplace-api/internal/domain"
	"github.com/conectcity/marketplace-api/internal/repository"
)

const maxRequestBody = 1 << 20 // 1 MiB

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type listingCreateRequest struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	City        *string `json:"city"`
	OwnerEmail  string  `json:"ownerEmail"`
	PriceCents  *int64  `json:"priceCents"`
}

type listingListResponse struct {
	Items      []listingResponse `json:"items"`
	NextCursor *string           `json:"nextCursor,omitempty"`
}

type listingResponse struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	Title       string          `json:"title"`
	Description *string         `json:"description,omitempty"`
	City        *string         `json:"city,omitempty"`
	OwnerEmail  string          `json:"ownerEmail"`
	PriceCents  *int64          `json:"priceCents,omitempty"`
	Rating      ratingAggregate `json:"rating"`
	CreatedAt   time.Time       `json:"createdAt"`
}

type ratingAggregate struct {
	Count   int64   `json:"count"`
	Sum     int64   `json:"sum"`
	Average float64 `json:"average"`
}

type subscriptionCreateRequest struct {
	OwnerEmail string  `json:"ownerEmail"`
	Status     string  `json:"status"`
	EndDate    *string `json:"endDate"`
}

type subscriptionResponse struct {
	ID         string     `json:"id"`
	OwnerEmail string     `json:"ownerEmail"`
	Status     string     `json:"status"`
	EndDate    *time.Time `json:"endDate,omitempty"`
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	filters, err := buildListingFilters(r.URL.Query())
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	result, err := s.repo.Listings.List(r.Context(), filters)
	if err != nil {
		s.logger.Printf("list listings error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list listings")
		return
	}

	// Only publications from publishers with a live subscription are shown.
	visible, err := s.repo.Subscriptions.FilterVisible(r.Context(), result.Items)
	if err != nil {
		s.logger.Printf("visibility filter error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list listings")
		return
	}

	items := make([]listingResponse, 0, len(visible))
	for _, listing := range visible {
		items = append(items, toListingResponse(listing))
	}

	resp := listingListResponse{Items: items}
	if result.NextCursor != nil {
		resp.NextCursor = result.NextCursor
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func buildListingFilters(query url.Values) (repository.ListingListFilters, error) {
	var filters repository.ListingListFilters

	if val := strings.TrimSpace(query.Get("kind")); val != "" {
		kind := domain.ListingKind(val)
		if !domain.ValidKind(kind) {
			return filters, fmt.Errorf("invalid kind value")
		}
		filters.Kind = &kind
	}
	if q := strings.TrimSpace(query.Get("q")); q != "" {
		filters.Query = &q
	}
	if val := strings.TrimSpace(query.Get("city")); val != "" {
		filters.City = &val
	}
	if val := strings.TrimSpace(query.Get("owner")); val != "" {
		filters.OwnerEmail = &val
	}
	if val := strings.TrimSpace(query.Get("limit")); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return filters, fmt.Errorf("invalid limit value")
		}
		filters.Limit = limit
	}
	if val := strings.TrimSpace(query.Get("cursor")); val != "" {
		cursor, err := repository.DecodeCursor(val)
		if err != nil {
			return filters, fmt.Errorf("invalid cursor")
		}
		filters.Cursor = cursor
	}
	return filters, nil
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing or invalid authentication information")
		return
	}

	var req listingCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	kind := domain.ListingKind(strings.TrimSpace(req.Kind))
	if !domain.ValidKind(kind) {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "kind must be one of restaurant, rental, job, sale, venture")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required")
		return
	}
	owner := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if owner == "" || !strings.Contains(owner, "@") {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "ownerEmail must be a valid email address")
		return
	}
	if req.PriceCents != nil && *req.PriceCents < 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "priceCents must be non-negative")
		return
	}

	listing, err := s.repo.Listings.Create(r.Context(), repository.ListingCreateParams{
		Kind:        kind,
		Title:       strings.TrimSpace(req.Title),
		Description: normalizeStringPtr(req.Description),
		City:        normalizeStringPtr(req.City),
		OwnerEmail:  owner,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		s.logger.Printf("create listing error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create listing")
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/listings/%s", url.PathEscape(listing.ID)))
	s.respondJSON(w, http.StatusCreated, toListingResponse(listing))
}

func (s *Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIDParam(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	listing, err := s.repo.Listings.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
			return
		}
		s.logger.Printf("get listing error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch listing")
		return
	}
	s.respondJSON(w, http.StatusOK, toListingResponse(listing))
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	if !s.verifyBearer(r.Header.Get("Authorization")) {
		s.respondError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "Missing or invalid authentication information")
		return
	}

	var req subscriptionCreateRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		s.respondDecodeError(w, err)
		return
	}

	owner := strings.ToLower(strings.TrimSpace(req.OwnerEmail))
	if owner == "" || !strings.Contains(owner, "@") {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "ownerEmail must be a valid email address")
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "status is required")
		return
	}

	var endDate *time.Time
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.EndDate))
		if err != nil {
			s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "endDate must follow RFC 3339 format")
			return
		}
		endDate = &parsed
	}

	sub, err := s.repo.Subscriptions.Create(r.Context(), repository.SubscriptionCreateParams{
		OwnerEmail: owner,
		Status:     status,
		EndDate:    endDate,
	})
	if err != nil {
		s.logger.Printf("create subscription error: %v", err)
		s.respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create subscription")
		return
	}

	s.respondJSON(w, http.StatusCreated, subscriptionResponse{
		ID:         sub.ID,
		OwnerEmail: sub.OwnerEmail,
		Status:     sub.Status,
		EndDate:    sub.EndDate,
	})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Printf("failed to encode response: %v", err)
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

func (s *Server) respondDecodeError(w http.ResponseWriter, err error) {
	var syntaxError *json.SyntaxError
	var typeError *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Malformed JSON payload")
	case errors.As(err, &typeError):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("Invalid value for field %s", typeError.Field))
	case errors.Is(err, io.EOF):
		s.respondError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Request body cannot be empty")
	default:
		s.respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unable to parse request body")
	}
}

func toListingResponse(listing domain.Listing) listingResponse {
	return listingResponse{
		ID:          listing.ID,
		Kind:        string(listing.Kind),
		Title:       listing.Title,
		Description: listing.Description,
		City:        listing.City,
		OwnerEmail:  listing.OwnerEmail,
		PriceCents:  listing.PriceCents,
		Rating: ratingAggregate{
			Count:   listing.RatingCount,
			Sum:     listing.RatingSum,
			Average: listing.Rating,
		},
		CreatedAt: listing.CreatedAt,
	}
}

func normalizeStringPtr(ptr *string) *string {
	if ptr == nil {
		return nil
	}
	val := strings.TrimSpace(*ptr)
	if val == "" {
		return nil
	}
	return &val
}

func decodeIDParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return "", fmt.Errorf("missing id parameter")
	}
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid id parameter")
	}
	return id, nil
}

func (s *Server) verifyBearer(header string) bool {
	if header == "" {
		return false
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	return token == s.cfg.AuthToken
}
