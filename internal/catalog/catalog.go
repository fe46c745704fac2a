// Package catalog is a minimal sqlite-backed song lookup, the part of
// the teacher's internal/storage.Database this daemon still needs:
// resolving a song path/URL referenced by a stored playlist entry to
// the Song the decoder can open. It drops the teacher's album/author
// sync tables entirely — there is no catalog browsing surface in this
// daemon, only playback.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/soundwell/melodyd/internal/song"
	"github.com/soundwell/melodyd/internal/tag"
)

// Catalog is a thin wrapper over a single-connection sqlite database
// holding one songs table.
type Catalog struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	debug  bool
}

// Open opens (creating if necessary) the sqlite database at path and
// runs its schema migration.
func Open(path string, debug bool) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("catalog: create database directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[CATALOG] creating new database at %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=memory",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=30000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("catalog: execute pragma %s: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("catalog: ping database: %w", err)
	}

	c := &Catalog{db: db, debug: debug}
	if err := c.migrate(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return c, nil
}

const createTables = `
CREATE TABLE IF NOT EXISTS songs (
	path TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	artist TEXT,
	album TEXT,
	title TEXT,
	duration_ms INTEGER DEFAULT 0,
	seekable BOOLEAN DEFAULT TRUE,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
`

func (c *Catalog) migrate() error {
	_, err := c.db.Exec(createTables)
	return err
}

func (c *Catalog) debugLog(op string, err error, d time.Duration) {
	if !c.debug || err == nil {
		return
	}
	log.Printf("[CATALOG] %s failed in %v: %v", op, d, err)
}

func (c *Catalog) checkClosed() error {
	if c.closed {
		return fmt.Errorf("catalog: database is closed")
	}
	return nil
}

// Put inserts or replaces the catalog entry for path.
func (c *Catalog) Put(ctx context.Context, path string, s *song.Song) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkClosed(); err != nil {
		return err
	}

	start := time.Now()
	var artist, album, title string
	if s.Tag != nil {
		artist, _ = s.Tag.Get(tag.Artist)
		album, _ = s.Tag.Get(tag.Album)
		title, _ = s.Tag.Get(tag.Title)
	}

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO songs (path, url, artist, album, title, duration_ms, seekable, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(path) DO UPDATE SET
			url=excluded.url, artist=excluded.artist, album=excluded.album,
			title=excluded.title, duration_ms=excluded.duration_ms,
			seekable=excluded.seekable, updated_at=CURRENT_TIMESTAMP
	`, path, s.URL, artist, album, title, s.EndMs, s.Seekable)

	c.debugLog("put", err, time.Since(start))
	if err != nil {
		return fmt.Errorf("catalog: put %s: %w", path, err)
	}
	return nil
}

// GetSong implements db_get_song: resolve a stored playlist path entry
// to the Song the decoder control block needs.
func (c *Catalog) GetSong(ctx context.Context, path string) (*song.Song, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	start := time.Now()
	row := c.db.QueryRowContext(ctx, `
		SELECT url, artist, album, title, duration_ms, seekable FROM songs WHERE path = ?
	`, path)

	var url, artist, album, title string
	var durationMs int64
	var seekable bool
	err := row.Scan(&url, &artist, &album, &title, &durationMs, &seekable)
	c.debugLog("get_song", err, time.Since(start))

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get song %s: %w", path, err)
	}

	var items []tag.Item
	if artist != "" {
		items = append(items, tag.Item{Type: tag.Artist, Text: artist})
	}
	if album != "" {
		items = append(items, tag.Item{Type: tag.Album, Text: album})
	}
	if title != "" {
		items = append(items, tag.Item{Type: tag.Title, Text: title})
	}

	return &song.Song{
		URL:      url,
		EndMs:    durationMs,
		Seekable: seekable,
		Tag:      tag.New(items...),
	}, nil
}

// Close closes the underlying database connection. It is safe to call
// more than once.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.db.Close()
}
