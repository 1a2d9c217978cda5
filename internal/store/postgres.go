package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/regdoc-cli/internal/quality"
)

// Pool is the subset of pgxpool.Pool the store uses, so tests can substitute
// pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore keeps versioned model sets in Postgres.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a small connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 4
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS model_sets (
	version    TEXT PRIMARY KEY,
	body       JSONB NOT NULL,
	active     BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_model_sets_one_active ON model_sets(active) WHERE active;
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveModelSet stores set under its version and makes it the active one.
func (s *PostgresStore) SaveModelSet(ctx context.Context, set *quality.ModelSet) error {
	body, err := encodeSet(set)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `UPDATE model_sets SET active = false WHERE active`); err != nil {
		return eris.Wrap(err, "postgres: deactivate model sets")
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO model_sets (version, body, active, created_at) VALUES ($1, $2, true, $3)
		 ON CONFLICT (version) DO UPDATE SET body = EXCLUDED.body, active = true`,
		set.Version, body, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert model set %s", set.Version)
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit")
}

// LoadModelSet returns the active model set.
func (s *PostgresStore) LoadModelSet(ctx context.Context) (*quality.ModelSet, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM model_sets WHERE active LIMIT 1`,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoModelSet
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load model set")
	}
	return decodeSet(body)
}

// ListModelSets returns every stored version, newest first.
func (s *PostgresStore) ListModelSets(ctx context.Context) ([]ModelSetInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT version, active, created_at FROM model_sets ORDER BY created_at DESC, version`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list model sets")
	}
	defer rows.Close()

	var out []ModelSetInfo
	for rows.Next() {
		var info ModelSetInfo
		if err := rows.Scan(&info.Version, &info.Active, &info.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan model set")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate model sets")
}
