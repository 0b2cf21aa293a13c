// Package config provides application-wide configuration loaded from env vars.
// Everything except the Jira credentials has a safe default so the server
// starts locally without any env setup; the credentials are resolved lazily
// by LoadJiraCredentials on the first tool call that needs Jira.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration for the relengjira server.
type Config struct {
	Transport  string // RELENG_MCP_TRANSPORT (default "stdio")
	HTTPAddr   string // RELENG_MCP_ADDR (default "127.0.0.1:8080")
	AuthSecret string // RELENG_MCP_JWT_SECRET (empty disables the HTTP bearer guard)
	LogLevel   string // LOG_LEVEL (default "info")
	SentryDSN  string // SENTRY_DSN (empty disables Sentry)
	Env        string // APP_ENV (default "development")
	RateLimit  int    // RELENG_MCP_RATE_LIMIT requests per minute per IP (default 120, 0 disables)
	CORSOrigin string // RELENG_MCP_CORS_ORIGIN (empty disables CORS)
	Catalog    string // RELENG_MCP_CATALOG product catalog file (empty uses the embedded one)
}

// JiraCredentials are the basic-auth pair used against Jira Cloud.
type JiraCredentials struct {
	Username string
	Token    string
}

const (
	EnvJiraUsername = "JIRA_USERNAME"
	EnvJiraToken    = "JIRA_TOKEN"
	EnvAuthSecret   = "RELENG_MCP_JWT_SECRET"

	envKeyTransport = "RELENG_MCP_TRANSPORT"
	envKeyHTTPAddr  = "RELENG_MCP_ADDR"
	envKeyLogLevel  = "LOG_LEVEL"
	envKeySentryDSN = "SENTRY_DSN"
	envKeyEnv       = "APP_ENV"
	envKeyRateLimit = "RELENG_MCP_RATE_LIMIT"
	envKeyCORS      = "RELENG_MCP_CORS_ORIGIN"
	envKeyCatalog   = "RELENG_MCP_CATALOG"
)

// DefaultRateLimit is the per-IP request budget per minute on the HTTP transport.
const DefaultRateLimit = 120

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// ConfigurationError reports a required setting that is missing or empty.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s environment variable not set", e.Key)
}

// Load reads configuration from environment variables, applying defaults for missing values.
func Load() Config {
	return Config{
		Transport:  envOr(envKeyTransport, TransportStdio),
		HTTPAddr:   envOr(envKeyHTTPAddr, "127.0.0.1:8080"),
		AuthSecret: os.Getenv(EnvAuthSecret),
		LogLevel:   envOr(envKeyLogLevel, "info"),
		SentryDSN:  os.Getenv(envKeySentryDSN),
		Env:        envOr(envKeyEnv, "development"),
		RateLimit:  envInt(envKeyRateLimit, DefaultRateLimit),
		CORSOrigin: os.Getenv(envKeyCORS),
		Catalog:    os.Getenv(envKeyCatalog),
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Variables already set win; missing files
// are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("configuration: load %s: %w", p, err)
		}
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("configuration: unknown transport %q (want %q or %q)", c.Transport, TransportStdio, TransportHTTP)
	}
	if c.Transport == TransportHTTP && strings.TrimSpace(c.HTTPAddr) == "" {
		return &ConfigurationError{Key: envKeyHTTPAddr}
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("configuration: %s must not be negative", envKeyRateLimit)
	}
	return nil
}

// LoadJiraCredentials reads JIRA_USERNAME and JIRA_TOKEN at call time.
// A missing or blank value yields a *ConfigurationError naming it.
func LoadJiraCredentials() (JiraCredentials, error) {
	username := strings.TrimSpace(os.Getenv(EnvJiraUsername))
	if username == "" {
		return JiraCredentials{}, &ConfigurationError{Key: EnvJiraUsername}
	}
	token := strings.TrimSpace(os.Getenv(EnvJiraToken))
	if token == "" {
		return JiraCredentials{}, &ConfigurationError{Key: EnvJiraToken}
	}
	return JiraCredentials{Username: username, Token: token}, nil
}

// envOr returns the value of the environment variable key, or fallback if not set.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt parses key as an int; unset or malformed values yield fallback.
func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
