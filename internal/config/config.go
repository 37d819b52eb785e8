package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	AuthToken         string
	DBURL             string
	MPClientID        string
	MPClientSecret    string
	MPRedirectURI     string
	MPAuthURL         string
	MPTokenURL        string
	MPTimeoutSecs     int
	FrontendBaseURL   string
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
}

// Load reads configuration from environment variables, applying defaults and
// validation. Missing OAuth or frontend settings fail here, at startup, not at
// the first callback request.
func Load() (Config, error) {
	cfg := Config{
		Port:              getEnv("PORT", "8080"),
		AuthToken:         os.Getenv("AUTH_TOKEN"),
		DBURL:             os.Getenv("DB_URL"),
		MPClientID:        os.Getenv("MP_CLIENT_ID"),
		MPClientSecret:    os.Getenv("MP_CLIENT_SECRET"),
		MPRedirectURI:     os.Getenv("MP_REDIRECT_URI"),
		MPAuthURL:         getEnv("MP_AUTH_URL", "https://auth.mercadopago.com/authorization"),
		MPTokenURL:        getEnv("MP_TOKEN_URL", "https://api.mercadopago.com/oauth/token"),
		MPTimeoutSecs:     getEnvInt("MP_TIMEOUT_SECS", 10),
		FrontendBaseURL:   os.Getenv("FRONTEND_BASE_URL"),
		ReadTimeoutSecs:   getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs:  getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:   getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),
	}

	if cfg.AuthToken == "" {
		return Config{}, fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.MPClientID == "" {
		return Config{}, fmt.Errorf("MP_CLIENT_ID is required")
	}
	if cfg.MPClientSecret == "" {
		return Config{}, fmt.Errorf("MP_CLIENT_SECRET is required")
	}
	if cfg.MPRedirectURI == "" {
		return Config{}, fmt.Errorf("MP_REDIRECT_URI is required")
	}
	if cfg.FrontendBaseURL == "" {
		return Config{}, fmt.Errorf("FRONTEND_BASE_URL is required")
	}
	if _, err := url.Parse(cfg.FrontendBaseURL); err != nil {
		return Config{}, fmt.Errorf("FRONTEND_BASE_URL is not a valid URL: %w", err)
	}
	if cfg.MPTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("MP_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
