package mercadopago

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

func testConfig(tokenURL string) Config {
	return Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://api.example.com/mercadopago/callback",
		AuthURL:      "https://auth.mercadopago.com/authorization",
		TokenURL:     tokenURL,
	}
}

func newTestClient(t *testing.T, tokenURL string) *HTTPClient {
	t.Helper()
	client, err := NewHTTPClient(testConfig(tokenURL), 2*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return client
}

func TestAuthorizationURL(t *testing.T) {
	client := newTestClient(t, "https://api.mercadopago.com/oauth/token")

	raw := client.AuthorizationURL("listing-1")
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorization url: %v", err)
	}
	q := parsed.Query()
	if q.Get("client_id") != "client-id" {
		t.Fatalf("client_id = %q", q.Get("client_id"))
	}
	if q.Get("response_type") != "code" {
		t.Fatalf("response_type = %q", q.Get("response_type"))
	}
	if q.Get("state") != "listing-1" {
		t.Fatalf("state = %q", q.Get("state"))
	}
	if q.Get("redirect_uri") != "https://api.example.com/mercadopago/callback" {
		t.Fatalf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestExchange_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostFormValue("grant_type") != "authorization_code" {
			t.Errorf("grant_type = %q", r.PostFormValue("grant_type"))
		}
		if r.PostFormValue("code") != "auth-code" {
			t.Errorf("code = %q", r.PostFormValue("code"))
		}
		if r.PostFormValue("client_secret") != "client-secret" {
			t.Errorf("client_secret = %q", r.PostFormValue("client_secret"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
            "access_token": "APP_USR-access",
            "refresh_token": "TG-refresh",
            "token_type": "Bearer",
            "expires_in": 21600,
            "scope": "payments",
            "user_id": 123456789
        }`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	creds, err := client.Exchange(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if creds.AccessToken != "APP_USR-access" {
		t.Fatalf("access token = %q", creds.AccessToken)
	}
	if creds.RefreshToken == nil || *creds.RefreshToken != "TG-refresh" {
		t.Fatalf("refresh token = %+v", creds.RefreshToken)
	}
	if creds.ExpiresIn == nil || *creds.ExpiresIn != 21600 {
		t.Fatalf("expires_in = %+v", creds.ExpiresIn)
	}
	if creds.UserID == nil || *creds.UserID != 123456789 {
		t.Fatalf("user_id = %+v", creds.UserID)
	}
}

func TestExchange_ProviderRejects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Exchange(context.Background(), "stale-code")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestExchange_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Exchange(context.Background(), "auth-code")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestExchange_EmptyAccessToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.Exchange(context.Background(), "auth-code")
	if !errors.Is(err, ErrExchangeFailed) {
		t.Fatalf("expected ErrExchangeFailed, got %v", err)
	}
}

func TestExchange_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{"access_token":"late"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := client.Exchange(ctx, "auth-code"); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func FuzzConvertCredentials(f *testing.F) {
	f.Add("APP_USR-x", "TG-y", "Bearer", int64(21600))
	f.Add("token", "", "", int64(0))

	f.Fuzz(func(t *testing.T, access, refresh, tokenType string, expires int64) {
		payload := tokenResponse{AccessToken: access, ExpiresIn: &expires}
		if refresh != "" {
			payload.RefreshToken = &refresh
		}
		if tokenType != "" {
			payload.TokenType = &tokenType
		}

		creds := convertCredentials(payload)
		if creds == nil {
			t.Fatalf("convertCredentials returned nil")
		}
		if creds.TokenType == nil || *creds.TokenType == "" {
			t.Fatalf("token type should never be empty")
		}
		if creds.AccessToken != access {
			t.Fatalf("access token mangled: %q -> %q", access, creds.AccessToken)
		}
	})
}

// TestExchangeSmoke exercises the client against a running token endpoint,
// e.g. cmd/mercadopago-mock. Skipped unless MP_TOKEN_URL is set.
func TestExchangeSmoke(t *testing.T) {
	tokenURL := strings.TrimSpace(os.Getenv("MP_TOKEN_URL"))
	if tokenURL == "" {
		t.Skip("MP_TOKEN_URL not provided")
	}

	client := newTestClient(t, tokenURL)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	creds, err := client.Exchange(ctx, "smoke-code")
	if err != nil {
		t.Fatalf("exchange against %s: %v", tokenURL, err)
	}
	if creds.AccessToken == "" {
		t.Fatalf("empty access token from %s", tokenURL)
	}
}
