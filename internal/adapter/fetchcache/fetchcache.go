// Package fetchcache provides a SQLite-backed TTL cache for raw upstream
// response bodies. Every source client consults it before going to the
// network so that repeated ranking runs within a TTL window do not hammer
// the public APIs.
package fetchcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS responses (
	cache_key  TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_responses_expires ON responses (expires_at);
`

// Cache stores response bodies keyed by request URL with a per-entry TTL.
// A nil *Cache is valid and disables caching entirely.
type Cache struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the cache database at path. An empty path
// returns a nil cache, which disables caching.
func Open(path string) (*Cache, error) {
	if path == "" {
		return nil, nil
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open fetch cache %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init fetch cache %s: %w", path, err)
	}
	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the cached body for url if present and unexpired.
// Expired rows are deleted on read.
func (c *Cache) Get(url string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	key := cacheKey(url)

	var body []byte
	var expiresAt int64
	err := c.db.QueryRow(
		`SELECT body, expires_at FROM responses WHERE cache_key = ?`, key,
	).Scan(&body, &expiresAt)
	if err != nil {
		return nil, false
	}
	if c.now().Unix() >= expiresAt {
		c.db.Exec(`DELETE FROM responses WHERE cache_key = ?`, key)
		return nil, false
	}
	return body, true
}

// Put stores body for url with the given TTL. Write failures are ignored:
// a broken cache must never fail a fetch that already succeeded.
func (c *Cache) Put(url string, body []byte, ttl time.Duration) {
	if c == nil || ttl <= 0 {
		return
	}
	expiresAt := c.now().Add(ttl).Unix()
	c.db.Exec(
		`INSERT INTO responses (cache_key, body, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (cache_key) DO UPDATE SET body = excluded.body, expires_at = excluded.expires_at`,
		cacheKey(url), body, expiresAt,
	)
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

func cacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
