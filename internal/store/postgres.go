package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dgallion1/docforge/internal/doctree"
)

const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	kind         TEXT NOT NULL,
	format       TEXT NOT NULL,
	filename     TEXT NOT NULL,
	content_type TEXT NOT NULL,
	content_hash TEXT NOT NULL,
	pages        INTEGER NOT NULL,
	data         BYTEA NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS artifacts_job_id_idx ON artifacts (job_id);
CREATE INDEX IF NOT EXISTS artifacts_content_hash_idx ON artifacts (content_hash);
`

const selectColumns = `id, job_id, kind, format, filename, content_type, content_hash, pages, data, created_at`

// PostgresStore keeps artifacts in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres opens a pool, verifies it and ensures the schema exists.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Put(ctx context.Context, a *Artifact) error {
	prepare(a)
	_, err := s.pool.Exec(ctx,
		`INSERT INTO artifacts (`+selectColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.JobID, string(a.Kind), a.Format, a.Filename, a.ContentType, a.Hash, a.Pages, a.Data, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save artifact: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Artifact, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM artifacts WHERE id = $1`, id)
	return scanOne(row)
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*Artifact, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM artifacts WHERE content_hash = $1 ORDER BY created_at ASC, id ASC LIMIT 1`, hash)
	return scanOne(row)
}

func (s *PostgresStore) ListByJob(ctx context.Context, jobID string) ([]*Artifact, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM artifacts WHERE job_id = $1 ORDER BY created_at ASC, id ASC`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		a, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM artifacts WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up artifacts: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func scanOne(row pgx.Row) (*Artifact, error) {
	a, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func scan(row pgx.Row) (*Artifact, error) {
	var a Artifact
	var kind string
	err := row.Scan(&a.ID, &a.JobID, &kind, &a.Format, &a.Filename, &a.ContentType, &a.Hash, &a.Pages, &a.Data, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan artifact: %w", err)
	}
	a.Kind = doctree.DocKind(kind)
	a.Size = len(a.Data)
	return &a, nil
}

// Open returns a PostgresStore when databaseURL is set, else a MemoryStore.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return NewMemoryStore(), nil
	}
	return ConnectPostgres(ctx, databaseURL)
}
