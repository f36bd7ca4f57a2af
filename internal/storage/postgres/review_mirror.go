// Package postgres mirrors admitted reviews into a Postgres table.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/review-scraper/internal/scraper"
)

const defaultTable = "reviews"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ReviewMirrorConfig controls the Postgres connection pool used for review rows.
type ReviewMirrorConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type execCloser interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Close()
}

// ReviewMirror writes admitted reviews into Postgres. The JSONL store stays
// authoritative; rows are keyed by company and dedup key so replays are no-ops.
type ReviewMirror struct {
	pool  execCloser
	table string
}

// NewReviewMirror creates a Postgres-backed ReviewMirror using the provided config.
func NewReviewMirror(ctx context.Context, cfg ReviewMirrorConfig) (*ReviewMirror, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &ReviewMirror{pool: pool, table: table}, nil
}

// NewReviewMirrorWithPool constructs a mirror from an existing pool (primarily for testing).
func NewReviewMirrorWithPool(pool execCloser, table string) (*ReviewMirror, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &ReviewMirror{pool: pool, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (m *ReviewMirror) Close() {
	if m == nil || m.pool == nil {
		return
	}
	m.pool.Close()
}

// EnsureSchema creates the review table when it does not exist.
func (m *ReviewMirror) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	company     TEXT NOT NULL,
	review_key  TEXT NOT NULL,
	review_date DATE NOT NULL,
	author      TEXT NOT NULL,
	body        TEXT NOT NULL,
	heading     TEXT NOT NULL,
	rating      INTEGER NOT NULL,
	location    TEXT NOT NULL,
	scraped_at  TIMESTAMPTZ NOT NULL,
	source_url  TEXT NOT NULL,
	PRIMARY KEY (company, review_key)
)`, m.table)
	if _, err := m.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s table: %w", m.table, err)
	}
	return nil
}

// Mirror inserts review under key, ignoring rows that already exist.
func (m *ReviewMirror) Mirror(ctx context.Context, key string, review scraper.Review) error {
	if m == nil || m.pool == nil {
		return fmt.Errorf("review mirror is not configured")
	}
	if key == "" {
		return fmt.Errorf("review key is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	company,
	review_key,
	review_date,
	author,
	body,
	heading,
	rating,
	location,
	scraped_at,
	source_url
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10
)
ON CONFLICT (company, review_key) DO NOTHING`, m.table)

	args := []any{
		review.Company,
		key,
		review.Date,
		review.Author,
		review.Body,
		review.Heading,
		review.Rating,
		review.Location,
		review.ScrapedAt,
		review.SourceURL,
	}
	if _, err := m.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}
