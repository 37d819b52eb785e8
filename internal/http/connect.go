package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/conectcity/marketplace-api/internal/repository"
)

// handleConnect starts the Mercado Pago connect flow: the merchant is sent to
// the provider authorization page with the listing id round-tripped as state.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	listingID := strings.TrimSpace(r.URL.Query().Get("restaurant_id"))
	if listingID == "" {
		s.respondError(w, http.StatusBadRequest, "MISSING_PARAMETER", "restaurant_id is required")
		return
	}

	http.Redirect(w, r, s.mp.AuthorizationURL(listingID), http.StatusFound)
}

// handleCallback finishes the connect flow: validate params, exchange the
// code, merge-persist the credentials keyed by state, and land the merchant
// back on the frontend. Every failure after validation becomes an error
// redirect; provider error bodies stay in the server log.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.URL.Query().Get("code"))
	state := strings.TrimSpace(r.URL.Query().Get("state"))
	if code == "" || state == "" {
		s.respondError(w, http.StatusBadRequest, "MISSING_PARAMETER", "code and state are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(s.cfg.MPTimeoutSecs)*time.Second)
	defer cancel()

	creds, err := s.mp.Exchange(ctx, code)
	if err != nil {
		s.logger.Printf("mercadopago exchange failed for state %q: %v", state, err)
		s.redirectFrontend(w, r, "error")
		return
	}

	// The state parameter is trusted as a listing id; an unknown id is
	// rejected instead of minting an orphan connection row.
	if _, err := s.repo.Listings.GetByID(ctx, state); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Printf("mercadopago callback for unknown listing %q", state)
		} else {
			s.logger.Printf("mercadopago callback listing lookup failed: %v", err)
		}
		s.redirectFrontend(w, r, "error")
		return
	}

	_, err = s.repo.Connections.UpsertTokens(ctx, repository.TokenUpsertParams{
		ListingID:      state,
		ProviderUserID: creds.UserID,
		AccessToken:    creds.AccessToken,
		RefreshToken:   creds.RefreshToken,
		ExpiresIn:      creds.ExpiresIn,
		Scope:          creds.Scope,
		TokenType:      creds.TokenType,
	})
	if err != nil {
		s.logger.Printf("persist mercadopago connection failed for %q: %v", state, err)
		s.redirectFrontend(w, r, "error")
		return
	}

	s.redirectFrontend(w, r, "connected")
}

func (s *Server) redirectFrontend(w http.ResponseWriter, r *http.Request, status string) {
	target := s.cfg.FrontendBaseURL
	if strings.Contains(target, "?") {
		target += "&mp=" + status
	} else {
		target += "?mp=" + status
	}
	http.Redirect(w, r, target, http.StatusFound)
}
