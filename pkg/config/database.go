package config

import (
	"database/sql"
	"fmt"

	"github.com/Mindburn-Labs/helm/core/pkg/securedb"

	_ "github.com/lib/pq"  // Postgres Driver
	_ "modernc.org/sqlite" // SQLite Driver (pure Go, no cgo)
)

// OpenDatabase opens the *sql.DB backing the secure data-access layer and
// wraps it in a securedb.Conn for the configured dialect: Postgres when
// cfg.DatabaseURL is set, SQLite (cfg.DatabasePath, default ":memory:")
// otherwise. Mirrors the teacher's own driver-selection-by-DSN convention
// in main.go, generalized from a single hardcoded Postgres driver to the
// dual-dialect support securedb.Dialect requires.
func OpenDatabase(cfg *Config) (*securedb.Conn, error) {
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres database: %w", err)
		}
		return securedb.NewConn(db, securedb.DialectPostgres), nil
	}

	db, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", cfg.DatabasePath, err)
	}
	return securedb.NewConn(db, securedb.DialectSQLite), nil
}
