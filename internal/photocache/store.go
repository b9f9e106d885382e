package photocache

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// Store is a persistent photo URL cache backed by modernc.org/sqlite. It
// survives restarts; the in-memory Cache sits in front of it.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenStore opens (or creates) a SQLite database at the given path and
// configures WAL mode.
func OpenStore(dsn string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "photocache: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "photocache: exec %s", pragma)
		}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{db: db, ttl: ttl}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS photo_urls (
	key        TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_photo_urls_expires_at ON photo_urls(expires_at);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "photocache: migrate")
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached URL for key, or false when absent or expired.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var url string
	err := s.db.QueryRowContext(ctx,
		`SELECT url FROM photo_urls WHERE key = ? AND expires_at > datetime('now')`,
		key,
	).Scan(&url)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "photocache: get")
	}
	return url, true, nil
}

// Put upserts the URL for key with a fresh expiry. The expiry is stored in
// SQLite's datetime text format so it compares cleanly with datetime('now').
func (s *Store) Put(ctx context.Context, key, url string) error {
	expires := time.Now().UTC().Add(s.ttl).Format("2006-01-02 15:04:05")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO photo_urls (key, url, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET url = excluded.url, expires_at = excluded.expires_at`,
		key, url, expires,
	)
	return eris.Wrap(err, "photocache: put")
}

// Sweep deletes expired rows and returns how many were removed.
func (s *Store) Sweep(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM photo_urls WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "photocache: sweep")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "photocache: sweep rows affected")
	}
	return n, nil
}
