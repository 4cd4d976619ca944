package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx as database/sql driver
	_ "modernc.org/sqlite"             // Register sqlite as database/sql driver

	"mealplan-backend/internal/config"
	"mealplan-backend/internal/metadata"
)

var ErrNotFound = errors.New("not found")
var ErrUniqueViolation = errors.New("unique constraint violation")

// Querier is implemented by both *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store wraps a database connection and dialect. It persists collection
// records as JSON documents in a single _records table.
type Store struct {
	DB      *sql.DB
	Dialect Dialect
}

// New creates a Store from config.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	dialect := NewDialect(driver)
	if dialect.Name() == "sqlite" && cfg.Path != "" {
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open(dialect.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := dialect.Configure(ctx, db, cfg.PoolSize); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Store{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection.
func (s *Store) Close() {
	s.DB.Close()
}

// Bootstrap creates the records table if it does not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range strings.Split(s.Dialect.RecordsTableSQL(), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap records table: %w", err)
		}
	}
	return nil
}

// LoadRecords returns every stored record ordered by resource and insertion sequence.
func (s *Store) LoadRecords(ctx context.Context) ([]StoredRecord, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT resource, id, seq, body FROM _records ORDER BY resource, seq")
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []StoredRecord
	for rows.Next() {
		var sr StoredRecord
		var body any
		if err := rows.Scan(&sr.Resource, &sr.ID, &sr.Seq, &body); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", sr.Resource, sr.ID, err)
		}
		sr.Record = rec
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// SaveRecord inserts or replaces a record body, keeping its sequence.
func (s *Store) SaveRecord(ctx context.Context, sr StoredRecord) error {
	body, err := json.Marshal(sr.Record)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", sr.Resource, sr.ID, err)
	}
	d := s.Dialect
	sqlStr := fmt.Sprintf(
		"INSERT INTO _records (resource, id, seq, body) VALUES (%s, %s, %s, %s) "+
			"ON CONFLICT (resource, id) DO UPDATE SET body = excluded.body",
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3), d.Placeholder(4))
	if _, err := Exec(ctx, s.DB, sqlStr, sr.Resource, sr.ID, sr.Seq, string(body)); err != nil {
		return d.MapError(err)
	}
	return nil
}

// DeleteRecord removes a stored record.
func (s *Store) DeleteRecord(ctx context.Context, resource, id string) error {
	d := s.Dialect
	sqlStr := fmt.Sprintf("DELETE FROM _records WHERE resource = %s AND id = %s", d.Placeholder(1), d.Placeholder(2))
	n, err := Exec(ctx, s.DB, sqlStr, resource, id)
	if err != nil {
		return d.MapError(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Exec executes a statement and returns the number of rows affected.
func Exec(ctx context.Context, q Querier, sqlStr string, args ...any) (int64, error) {
	result, err := q.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// decodeBody accepts the body column as returned by either driver.
func decodeBody(v any) (metadata.Record, error) {
	var raw []byte
	switch b := v.(type) {
	case []byte:
		raw = b
	case string:
		raw = []byte(b)
	default:
		return nil, fmt.Errorf("unexpected body type %T", v)
	}
	var rec metadata.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}
