package mercadopago

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrExchangeFailed is returned when the provider rejects the authorization
// code or the token endpoint is unreachable.
var ErrExchangeFailed = errors.New("mercadopago: token exchange failed")

// Credentials contains the token payload returned by a successful exchange.
type Credentials struct {
	AccessToken  string
	RefreshToken *string
	TokenType    *string
	ExpiresIn    *int64
	Scope        *string
	UserID       *int64
}

// Client defines the contract for the OAuth connect flow against Mercado Pago.
type Client interface {
	AuthorizationURL(state string) string
	Exchange(ctx context.Context, code string) (*Credentials, error)
}

// Config carries the fixed OAuth parameters for the application.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
}

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	cfg      Config
	tokenURL *url.URL
	client   *http.Client
	logger   *log.Logger
}

// NewHTTPClient constructs an HTTP-backed Mercado Pago client.
func NewHTTPClient(cfg Config, timeout time.Duration, logger *log.Logger) (*HTTPClient, error) {
	if logger == nil {
		logger = log.Default()
	}
	tokenURL, err := url.Parse(strings.TrimRight(cfg.TokenURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse token url: %w", err)
	}
	if _, err := url.Parse(cfg.AuthURL); err != nil {
		return nil, fmt.Errorf("parse auth url: %w", err)
	}
	return &HTTPClient{
		cfg:      cfg,
		tokenURL: tokenURL,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		logger: logger,
	}, nil
}

// AuthorizationURL builds the provider authorization URL the merchant is sent
// to, round-tripping the listing id as the OAuth state parameter.
func (c *HTTPClient) AuthorizationURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("response_type", "code")
	q.Set("platform_id", "mp")
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("state", state)
	return c.cfg.AuthURL + "?" + q.Encode()
}

// Exchange posts the authorization code to the token endpoint and returns the
// issued credentials. Any transport error or non-2xx status fails with
// ErrExchangeFailed; response bodies are logged, never propagated.
func (c *HTTPClient) Exchange(ctx context.Context, code string) (*Credentials, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL.String(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Printf("mercadopago: token request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		c.logger.Printf("mercadopago: token endpoint returned %d: %s", resp.StatusCode, body)
		return nil, fmt.Errorf("%w: status %d", ErrExchangeFailed, resp.StatusCode)
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Printf("mercadopago: malformed token response: %v", err)
		return nil, fmt.Errorf("%w: decode response", ErrExchangeFailed)
	}
	if payload.AccessToken == "" {
		c.logger.Printf("mercadopago: token response without access_token")
		return nil, fmt.Errorf("%w: empty access_token", ErrExchangeFailed)
	}

	return convertCredentials(payload), nil
}

type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token"`
	TokenType    *string `json:"token_type"`
	ExpiresIn    *int64  `json:"expires_in"`
	Scope        *string `json:"scope"`
	UserID       *int64  `json:"user_id"`
}

func convertCredentials(payload tokenResponse) *Credentials {
	tokenType := payload.TokenType
	if tokenType == nil || *tokenType == "" {
		bearer := "Bearer"
		tokenType = &bearer
	}
	return &Credentials{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
		TokenType:    tokenType,
		ExpiresIn:    payload.ExpiresIn,
		Scope:        payload.Scope,
		UserID:       payload.UserID,
	}
}
