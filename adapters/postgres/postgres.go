// Package postgres provides a PostgreSQL implementation of the case log adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caseflow/caseflow/adapters"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

// uniqueViolation is the SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation,
// under either the pgx or the lib/pq driver. During a concurrent creation
// both writers see no case row, so there is nothing for FOR UPDATE to lock
// and the race is only decided by the cases primary key; the loser's insert
// is a concurrency conflict, not an infrastructure failure.
func isUniqueViolation(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}

// Sentinel errors for the postgres adapter.
// These are aliases to the adapters package errors for compatibility with errors.Is().
var (
	ErrAdapterClosed       = adapters.ErrAdapterClosed
	ErrEmptyCaseID         = adapters.ErrEmptyCaseID
	ErrNoEvents            = adapters.ErrNoEvents
	ErrConcurrencyConflict = adapters.ErrConcurrencyConflict
	ErrCaseNotFound        = adapters.ErrCaseNotFound
	ErrInvalidVersion      = adapters.ErrInvalidVersion
)

// Ensure PostgresAdapter implements required interfaces.
var (
	_ adapters.Adapter       = (*PostgresAdapter)(nil)
	_ adapters.HealthChecker = (*PostgresAdapter)(nil)
)

// PostgresAdapter is a PostgreSQL implementation of adapters.Adapter. The
// compare-and-append runs inside a transaction that takes a row lock on the
// case, so concurrent writers serialize on the version check.
type PostgresAdapter struct {
	db     *sql.DB
	schema string
	closed bool
}

// Option configures a PostgresAdapter.
type Option func(*PostgresAdapter)

// WithSchema sets the database schema name.
func WithSchema(schema string) Option {
	return func(a *PostgresAdapter) {
		a.schema = schema
	}
}

// WithMaxConnections sets the maximum number of open connections.
func WithMaxConnections(n int) Option {
	return func(a *PostgresAdapter) {
		a.db.SetMaxOpenConns(n)
	}
}

// WithMaxIdleConnections sets the maximum number of idle connections.
func WithMaxIdleConnections(n int) Option {
	return func(a *PostgresAdapter) {
		a.db.SetMaxIdleConns(n)
	}
}

// WithConnectionMaxLifetime sets the maximum connection lifetime.
func WithConnectionMaxLifetime(d time.Duration) Option {
	return func(a *PostgresAdapter) {
		a.db.SetConnMaxLifetime(d)
	}
}

// NewAdapter creates a new PostgreSQL case log adapter.
func NewAdapter(connStr string, opts ...Option) (*PostgresAdapter, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to open database: %w", err)
	}

	adapter := &PostgresAdapter{
		db:     db,
		schema: "caseflow",
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter, nil
}

// NewAdapterWithDB creates a new adapter with an existing database connection.
func NewAdapterWithDB(db *sql.DB, opts ...Option) *PostgresAdapter {
	adapter := &PostgresAdapter{
		db:     db,
		schema: "caseflow",
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// Initialize creates the required database schema and tables.
func (a *PostgresAdapter) Initialize(ctx context.Context) error {
	// Create schema
	_, err := a.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, a.schema))
	if err != nil {
		return fmt.Errorf("caseflow/postgres: failed to create schema: %w", err)
	}

	// Create cases table
	casesSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.cases (
			case_id         VARCHAR(500) PRIMARY KEY,
			version         BIGINT NOT NULL DEFAULT 0,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, a.schema)

	_, err = a.db.ExecContext(ctx, casesSQL)
	if err != nil {
		return fmt.Errorf("caseflow/postgres: failed to create cases table: %w", err)
	}

	// Create events table
	eventsSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.events (
			case_id         VARCHAR(500) NOT NULL,
			version         BIGINT NOT NULL,
			event_id        UUID NOT NULL DEFAULT gen_random_uuid(),
			event_type      VARCHAR(500) NOT NULL,
			data            JSONB NOT NULL,
			actor           VARCHAR(500) NOT NULL,
			role            VARCHAR(50) NOT NULL,
			comment         TEXT NOT NULL DEFAULT '',
			referenced_event_id VARCHAR(100) NOT NULL DEFAULT '',
			timestamp       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (case_id, version)
		)`, a.schema)

	_, err = a.db.ExecContext(ctx, eventsSQL)
	if err != nil {
		return fmt.Errorf("caseflow/postgres: failed to create events table: %w", err)
	}

	// Create indexes
	indexes := []string{
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_events_type ON %s.events(event_type)`, a.schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_events_timestamp ON %s.events(timestamp)`, a.schema),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_cases_updated ON %s.cases(updated_at DESC)`, a.schema),
	}

	for _, idx := range indexes {
		_, err = a.db.ExecContext(ctx, idx)
		if err != nil {
			return fmt.Errorf("caseflow/postgres: failed to create index: %w", err)
		}
	}

	return nil
}

// Append stores events to the specified case log with optimistic concurrency control.
func (a *PostgresAdapter) Append(ctx context.Context, caseID string, events []adapters.EventRecord, expectedVersion int64) ([]adapters.StoredEvent, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	if caseID == "" {
		return nil, ErrEmptyCaseID
	}

	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Get current case version with lock
	var currentVersion int64
	var caseExists bool

	err = tx.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT version FROM %s.cases
		WHERE case_id = $1
		FOR UPDATE`, a.schema), caseID).Scan(&currentVersion)

	if err == sql.ErrNoRows {
		caseExists = false
		currentVersion = 0
	} else if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to get case version: %w", err)
	} else {
		caseExists = true
	}

	// Check expected version
	if err := adapters.CheckVersion(caseID, expectedVersion, currentVersion, caseExists); err != nil {
		return nil, err
	}

	// Create the case row if it doesn't exist
	if !caseExists {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s.cases (case_id, version)
			VALUES ($1, 0)`, a.schema), caseID)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, adapters.NewConcurrencyError(caseID, expectedVersion, currentVersion)
			}
			return nil, fmt.Errorf("caseflow/postgres: failed to create case: %w", err)
		}
	}

	// Insert events
	now := time.Now()
	storedEvents := make([]adapters.StoredEvent, len(events))
	for i, event := range events {
		currentVersion++

		record := event
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		if record.Timestamp.IsZero() {
			record.Timestamp = now
		}

		_, err = tx.ExecContext(ctx, fmt.Sprintf(`
			INSERT INTO %s.events (case_id, version, event_id, event_type, data, actor, role, comment, referenced_event_id, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`, a.schema),
			caseID, currentVersion, record.ID, record.Type, record.Data,
			record.Actor, record.Role, record.Comment, record.ReferencedEventID, record.Timestamp,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, adapters.NewConcurrencyError(caseID, expectedVersion, currentVersion)
			}
			return nil, fmt.Errorf("caseflow/postgres: failed to insert event: %w", err)
		}

		storedEvents[i] = adapters.StoredEvent{
			EventRecord: record,
			CaseID:      caseID,
			Version:     currentVersion,
		}
	}

	// Update case version
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s.cases
		SET version = $1, updated_at = NOW()
		WHERE case_id = $2`, a.schema), currentVersion, caseID)
	if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to update case version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to commit transaction: %w", err)
	}

	return storedEvents, nil
}

// Load retrieves all events of a case in append order together with the
// current version. An unknown case yields an empty slice and version 0.
func (a *PostgresAdapter) Load(ctx context.Context, caseID string) ([]adapters.StoredEvent, int64, error) {
	if a.closed {
		return nil, 0, ErrAdapterClosed
	}

	if caseID == "" {
		return nil, 0, ErrEmptyCaseID
	}

	var version int64
	err := a.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT version FROM %s.cases
		WHERE case_id = $1`, a.schema), caseID).Scan(&version)

	if err == sql.ErrNoRows {
		return []adapters.StoredEvent{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("caseflow/postgres: failed to get case version: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT event_id, case_id, version, event_type, data, actor, role, comment, referenced_event_id, timestamp
		FROM %s.events
		WHERE case_id = $1
		ORDER BY version`, a.schema), caseID)
	if err != nil {
		return nil, 0, fmt.Errorf("caseflow/postgres: failed to load events: %w", err)
	}
	defer rows.Close()

	events := make([]adapters.StoredEvent, 0)
	for rows.Next() {
		var event adapters.StoredEvent

		err := rows.Scan(
			&event.ID,
			&event.CaseID,
			&event.Version,
			&event.Type,
			&event.Data,
			&event.Actor,
			&event.Role,
			&event.Comment,
			&event.ReferencedEventID,
			&event.Timestamp,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("caseflow/postgres: failed to scan event: %w", err)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("caseflow/postgres: error iterating events: %w", err)
	}

	return events, version, nil
}

// GetCaseInfo returns metadata about a case.
func (a *PostgresAdapter) GetCaseInfo(ctx context.Context, caseID string) (*adapters.CaseInfo, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	var info adapters.CaseInfo
	err := a.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT case_id, version, created_at, updated_at
		FROM %s.cases
		WHERE case_id = $1`, a.schema), caseID).Scan(
		&info.CaseID,
		&info.Version,
		&info.CreatedAt,
		&info.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, adapters.NewCaseNotFoundError(caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to get case info: %w", err)
	}

	return &info, nil
}

// ListCases returns summaries for known cases, most recently updated first.
func (a *PostgresAdapter) ListCases(ctx context.Context, limit int) ([]adapters.CaseSummary, error) {
	if a.closed {
		return nil, ErrAdapterClosed
	}

	query := fmt.Sprintf(`
		SELECT c.case_id, c.version, c.updated_at,
			COALESCE((SELECT e.event_type FROM %s.events e
				WHERE e.case_id = c.case_id AND e.version = c.version), '')
		FROM %s.cases c
		ORDER BY c.updated_at DESC, c.case_id`, a.schema, a.schema)

	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("caseflow/postgres: failed to list cases: %w", err)
	}
	defer rows.Close()

	summaries := make([]adapters.CaseSummary, 0)
	for rows.Next() {
		var s adapters.CaseSummary
		if err := rows.Scan(&s.CaseID, &s.EventCount, &s.LastUpdated, &s.LastEventType); err != nil {
			return nil, fmt.Errorf("caseflow/postgres: failed to scan case summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("caseflow/postgres: error iterating cases: %w", err)
	}

	return summaries, nil
}

// Ping checks database connectivity.
func (a *PostgresAdapter) Ping(ctx context.Context) error {
	if a.closed {
		return ErrAdapterClosed
	}
	return a.db.PingContext(ctx)
}

// Close releases the database connection.
func (a *PostgresAdapter) Close() error {
	a.closed = true
	return a.db.Close()
}

// DB returns the underlying database connection.
func (a *PostgresAdapter) DB() *sql.DB {
	return a.db
}

// Schema returns the schema name.
func (a *PostgresAdapter) Schema() string {
	return a.schema
}
