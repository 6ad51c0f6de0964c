// Copyright (c) 2026 Baseliner Team
// Baseliner - network device hardening audit
// This source code is licensed under the MIT license found in the LICENSE file.

// Package history keeps an audit trail of reconciliation runs. Runs are
// stored through Bun on SQLite, PostgreSQL or MySQL together with a
// zstd-compressed copy of the device's running configuration.
package history // import "github.com/baseliner/baseliner/internal/history"

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/baseliner/baseliner/internal/logging"
)

// Supported database types.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
	MySQL    = "mysql"
)

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Store records and lists audit runs.
type Store struct {
	bun    *bun.DB
	dbType string
}

// Open opens the database, applies pending migrations and returns a Store
// backed by a long-lived *bun.DB.
func Open(ctx context.Context, dbType, dsn string) (*Store, error) {
	driverName, err := driverFor(dbType)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	sqlDB, err := sqlOpenFunc(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(sqlDB, dbType, dsn)

	if err := RunMigrations(ctx, sqlDB, dbType); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logging.L.Debug("history store opened", "type", dbType, "took", time.Since(start))
	return &Store{bun: createBunDB(sqlDB, dbType), dbType: dbType}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.bun == nil {
		return nil
	}
	return s.bun.Close()
}

func driverFor(dbType string) (string, error) {
	switch dbType {
	case SQLite:
		return "sqlite", nil
	case Postgres:
		// The pgx stdlib registers driver name "pgx".
		return "pgx", nil
	case MySQL:
		return "mysql", nil
	}
	return "", fmt.Errorf("unsupported database type: '%s'", dbType)
}

// createBunDB wraps sqlDB with the dialect matching dbType.
func createBunDB(sqlDB *sql.DB, dbType string) *bun.DB {
	switch dbType {
	case Postgres:
		return bun.NewDB(sqlDB, pgdialect.New())
	case MySQL:
		return bun.NewDB(sqlDB, mysqldialect.New())
	default:
		return bun.NewDB(sqlDB, sqlitedialect.New())
	}
}

// configurePool applies connection limits, overridable through
// BASELINER_DB_MAX_OPEN_CONNS, BASELINER_DB_MAX_IDLE_CONNS and
// BASELINER_DB_CONN_MAX_LIFETIME_SECONDS.
func configurePool(sqlDB *sql.DB, dbType, dsn string) {
	const (
		defaultMaxOpenConns    = 10
		defaultMaxIdleConns    = 10
		defaultConnMaxLifetime = 5 * time.Minute
	)
	maxOpen := envInt("BASELINER_DB_MAX_OPEN_CONNS", defaultMaxOpenConns)
	maxIdle := envInt("BASELINER_DB_MAX_IDLE_CONNS", defaultMaxIdleConns)
	lifetime := defaultConnMaxLifetime
	if n := envInt("BASELINER_DB_CONN_MAX_LIFETIME_SECONDS", -1); n >= 0 {
		lifetime = time.Duration(n) * time.Second
	}

	// Every connection to ":memory:" gets its own database; keep one.
	if dbType == SQLite && dsn == ":memory:" {
		maxOpen, maxIdle = 1, 1
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
