package linkcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// CacheEntry is a remembered verification outcome for one URL.
type CacheEntry struct {
	URL       string
	Status    int
	OK        bool
	Error     string
	CheckedAt time.Time
}

// ErrCacheMiss is returned when a URL has no cached result.
var ErrCacheMiss = errors.New("linkcheck: cache miss")

// Cache persists verification results so repeated runs skip recently
// verified URLs.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

// OpenCache opens (or creates) the result cache. Use ":memory:" for tests.
func OpenCache(path string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open link cache: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and avoids
	// writer contention on file databases.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS link_results (
		url TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT,
		checked_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize link cache schema: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// Get returns the cached entry for url, or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, url string) (*CacheEntry, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT url, status, ok, error, checked_at FROM link_results WHERE url = ?", url)

	var e CacheEntry
	var ok int
	var checkedAt int64
	if err := row.Scan(&e.URL, &e.Status, &ok, &e.Error, &checkedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("read link cache: %w", err)
	}
	e.OK = ok != 0
	e.CheckedAt = time.Unix(checkedAt, 0)
	return &e, nil
}

// Put upserts a verification result.
func (c *Cache) Put(ctx context.Context, e *CacheEntry) error {
	ok := 0
	if e.OK {
		ok = 1
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO link_results (url, status, ok, error, checked_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(url) DO UPDATE SET status=excluded.status, ok=excluded.ok, error=excluded.error, checked_at=excluded.checked_at`,
		e.URL, e.Status, ok, e.Error, e.CheckedAt.Unix())
	if err != nil {
		return fmt.Errorf("write link cache: %w", err)
	}
	return nil
}

// Fresh reports whether the entry is still inside the cache TTL.
func (c *Cache) Fresh(e *CacheEntry) bool {
	if e == nil {
		return false
	}
	return time.Since(e.CheckedAt) < c.ttl
}

// Close releases the underlying database.
func (c *Cache) Close() error { return c.db.Close() }
