package store

import (
	"context"
	"database/sql"
)

// Dialect abstracts database-specific SQL for the records table.
type Dialect interface {
	// Name returns "postgres" or "sqlite".
	Name() string

	// DriverName returns the database/sql driver name ("pgx" or "sqlite").
	DriverName() string

	// Placeholder returns the parameter placeholder for the given 1-based index.
	Placeholder(index int) string

	// RecordsTableSQL returns the DDL for the _records table.
	RecordsTableSQL() string

	// Configure applies per-connection settings after open.
	Configure(ctx context.Context, db *sql.DB, poolSize int) error

	// MapError inspects a driver error and returns a well-known sentinel error if applicable.
	MapError(err error) error
}

// NewDialect creates a Dialect for the given driver name ("postgres" or "sqlite").
func NewDialect(driver string) Dialect {
	switch driver {
	case "sqlite":
		return &SQLiteDialect{}
	default:
		return &PostgresDialect{}
	}
}
