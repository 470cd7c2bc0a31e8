// Package postgres provides a PostgreSQL implementation of the run store.
// This is intended for deployments that keep an audit trail of analyses.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/diffsentry/diffsentry/store"
)

// PostgreSQL provides run-archive operations using PostgreSQL.
type PostgreSQL struct {
	db *sql.DB
}

// New creates a new PostgreSQL store instance.
func New(db *sql.DB) *PostgreSQL {
	return &PostgreSQL{db: db}
}

// NewFromDSN creates a new PostgreSQL store instance from a connection string.
func NewFromDSN(dsn string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &PostgreSQL{db: db}, nil
}

// Close closes the database connection.
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}

// Migrate creates the required database tables.
func (p *PostgreSQL) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id SERIAL PRIMARY KEY,
			language TEXT,
			strictness TEXT,
			rules_file TEXT,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			violation_count INTEGER NOT NULL DEFAULT 0,
			max_severity TEXT,
			summary TEXT,
			result JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
	`

	_, err := p.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// StoreRun stores an analysis run in PostgreSQL.
func (p *PostgreSQL) StoreRun(ctx context.Context, run *store.RunRecord) error {
	query := `
		INSERT INTO runs (language, strictness, rules_file, chunk_count, violation_count, max_severity, summary, result, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id
	`

	err := p.db.QueryRowContext(ctx, query,
		run.Language,
		run.Strictness,
		run.RulesFile,
		run.ChunkCount,
		run.ViolationCount,
		run.MaxSeverity,
		run.Summary,
		resultToJSON(run.Result),
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("failed to store run: %w", err)
	}

	return nil
}

// ListRuns retrieves the most recent analysis runs.
func (p *PostgreSQL) ListRuns(ctx context.Context, limit int) ([]*store.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, language, strictness, rules_file, chunk_count, violation_count, max_severity, summary, result, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := p.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*store.RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

func scanRun(rows *sql.Rows) (*store.RunRecord, error) {
	var run store.RunRecord
	var language, strictness, rulesFile, maxSeverity, summary, resultJSON sql.NullString
	var createdAt sql.NullTime

	err := rows.Scan(
		&run.ID,
		&language,
		&strictness,
		&rulesFile,
		&run.ChunkCount,
		&run.ViolationCount,
		&maxSeverity,
		&summary,
		&resultJSON,
		&createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.Language = language.String
	run.Strictness = strictness.String
	run.RulesFile = rulesFile.String
	run.MaxSeverity = maxSeverity.String
	run.Summary = summary.String
	run.Result = resultFromJSON(resultJSON.String)
	if createdAt.Valid {
		run.CreatedAt = createdAt.Time.UTC().Format("2006-01-02T15:04:05Z")
	}

	return &run, nil
}
