// Package storage persists scan run history.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/diff-warden/internal/core"
)

// ErrNotFound is returned when no scan run matches a query.
var ErrNotFound = errors.New("scan run not found")

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// Store defines the interface for all database operations.
//
//go:generate mockgen -destination=../../mocks/mock_store.go -package=mocks . Store
type Store interface {
	SaveRun(ctx context.Context, run *core.ScanRun) error
	ListRuns(ctx context.Context, repoFullName string, prNumber, limit int) ([]core.ScanRun, error)
	LatestRun(ctx context.Context, repoFullName string, prNumber int) (*core.ScanRun, error)
}

type postgresStore struct {
	db *sqlx.DB
}

// NewStore creates a new Store
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db}
}

// SaveRun inserts a scan run and fills in its ID and creation time.
func (s *postgresStore) SaveRun(ctx context.Context, run *core.ScanRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO scan_runs (repo_full_name, pr_number, head_sha, provider, files_changed, files_scanned, findings, failures, summary, status, created_at)
		VALUES (:repo_full_name, :pr_number, :head_sha, :provider, :files_changed, :files_scanned, :findings, :failures, :summary, :status, :created_at)
		RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("failed to save scan run: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&run.ID); err != nil {
			return fmt.Errorf("failed to read scan run id: %w", err)
		}
	}
	return rows.Err()
}

// ListRuns returns the most recent runs for a repository, newest first. A prNumber of
// zero lists runs for every pull request.
func (s *postgresStore) ListRuns(ctx context.Context, repoFullName string, prNumber, limit int) ([]core.ScanRun, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, provider, files_changed, files_scanned, findings, failures, summary, status, created_at
		FROM scan_runs
		WHERE repo_full_name = $1 AND ($2 = 0 OR pr_number = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	var runs []core.ScanRun
	if err := s.db.SelectContext(ctx, &runs, query, repoFullName, prNumber, limit); err != nil {
		return nil, fmt.Errorf("failed to list scan runs: %w", err)
	}
	return runs, nil
}

// LatestRun retrieves the most recent run for a given pull request.
func (s *postgresStore) LatestRun(ctx context.Context, repoFullName string, prNumber int) (*core.ScanRun, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, provider, files_changed, files_scanned, findings, failures, summary, status, created_at
		FROM scan_runs
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var run core.ScanRun
	if err := s.db.GetContext(ctx, &run, query, repoFullName, prNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s#%d", ErrNotFound, repoFullName, prNumber)
		}
		return nil, err
	}
	return &run, nil
}
