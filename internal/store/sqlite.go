package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/regdoc-cli/internal/quality"
)

// SQLiteStore keeps versioned model sets in SQLite using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS model_sets (
	version    TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	active     INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_model_sets_active ON model_sets(active);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveModelSet stores set under its version and makes it the active one.
func (s *SQLiteStore) SaveModelSet(ctx context.Context, set *quality.ModelSet) error {
	body, err := encodeSet(set)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `UPDATE model_sets SET active = 0 WHERE active = 1`); err != nil {
		return eris.Wrap(err, "sqlite: deactivate model sets")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO model_sets (version, body, active, created_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT(version) DO UPDATE SET body = excluded.body, active = 1`,
		set.Version, string(body), time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert model set %s", set.Version)
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

// LoadModelSet returns the active model set.
func (s *SQLiteStore) LoadModelSet(ctx context.Context) (*quality.ModelSet, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM model_sets WHERE active = 1 ORDER BY created_at DESC LIMIT 1`,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoModelSet
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load model set")
	}
	return decodeSet([]byte(body))
}

// ListModelSets returns every stored version, newest first.
func (s *SQLiteStore) ListModelSets(ctx context.Context) ([]ModelSetInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version, active, created_at FROM model_sets ORDER BY created_at DESC, version`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list model sets")
	}
	defer rows.Close() //nolint:errcheck

	var out []ModelSetInfo
	for rows.Next() {
		var info ModelSetInfo
		if err := rows.Scan(&info.Version, &info.Active, &info.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan model set")
		}
		out = append(out, info)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate model sets")
}
