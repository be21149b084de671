package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the enforcement core's process configuration.
type Config struct {
	LogLevel string

	// PDPEndpoint is the base URL of the configured PDP backend (HTTP client).
	PDPEndpoint string
	// PDPTimeout bounds a single evaluate call; the core does not retry.
	PDPTimeout time.Duration
	// PDPRateLimitPerSecond shapes outbound evaluate calls (0 disables shaping).
	PDPRateLimitPerSecond float64

	// DatabaseURL is the Postgres DSN for the secure data-access layer.
	// Empty means the SQLite dialect is used instead (DatabasePath).
	DatabaseURL string
	// DatabasePath is the SQLite file (or ":memory:") used when DatabaseURL is empty.
	DatabasePath string

	// RequireConstraintsDefault holds the REQUIRE_CONSTRAINTS_DEFAULT setting.
	// pkg/pep does not read it: an AccessRequest sends require_constraints=true
	// unless the call site calls WithRequireConstraints(false).
	RequireConstraintsDefault bool
}

// Load loads configuration from environment variables, falling back to
// safe, fail-closed defaults.
func Load() *Config {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "INFO"
	}

	pdpEndpoint := os.Getenv("PDP_ENDPOINT")
	if pdpEndpoint == "" {
		pdpEndpoint = "http://localhost:8181/v1/evaluate"
	}

	pdpTimeout := 2 * time.Second
	if v := os.Getenv("PDP_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			pdpTimeout = time.Duration(ms) * time.Millisecond
		}
	}

	rateLimit := 0.0
	if v := os.Getenv("PDP_RATE_LIMIT_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			rateLimit = f
		}
	}

	dbURL := os.Getenv("DATABASE_URL")

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = ":memory:"
	}

	// Fail closed: absent an explicit opt-out, every call requires the PDP
	// to hand back constraints rather than silently allow-all.
	requireConstraints := true
	if v := os.Getenv("REQUIRE_CONSTRAINTS_DEFAULT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			requireConstraints = b
		}
	}

	return &Config{
		LogLevel:                  logLevel,
		PDPEndpoint:               pdpEndpoint,
		PDPTimeout:                pdpTimeout,
		PDPRateLimitPerSecond:     rateLimit,
		DatabaseURL:               dbURL,
		DatabasePath:              dbPath,
		RequireConstraintsDefault: requireConstraints,
	}
}
