// Package cache implements a content-addressed store for extracted document
// text. The JSON index is the source of truth for what is cached; blobs are
// stored one file per digest and loaded on demand.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/KaramelBytes/docquery-cli/internal/utils"
)

const (
	indexFileName = "cache_index.json"
	blobExt       = ".txt"
)

// Meta is the small per-entry metadata kept in the in-memory index.
type Meta struct {
	DisplayName string `json:"file_name"`
	WordCount   int    `json:"word_count"`
	CharCount   int    `json:"char_count"`
}

// CachedText is the result of a successful lookup.
type CachedText struct {
	Text string
	Meta Meta
}

// Stats reports the current cache footprint. TotalBytes is computed from
// actual blob sizes on disk, not from cached metadata.
type Stats struct {
	EntryCount int
	TotalBytes int64
}

// IOError wraps persistence failures (index or blob read/write). Callers may
// treat it as recoverable and degrade to re-extraction.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("cache %s: %v", e.Op, e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

// Cache maps content digests to extracted text persisted under a directory.
// Index mutation is serialized; concurrent stores for different digests write
// to different blob files and never collide.
type Cache struct {
	dir       string
	indexPath string
	logger    *slog.Logger

	mu    sync.Mutex
	index map[string]Meta
}

// Open loads (or initializes) a cache rooted at dir. A missing index file
// means an empty cache; an unreadable index is logged and treated as empty.
func Open(dir string, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := utils.EnsureDir(dir); err != nil {
		return nil, &IOError{Op: "init", Err: err}
	}
	c := &Cache{
		dir:       dir,
		indexPath: filepath.Join(dir, indexFileName),
		logger:    logger,
		index:     map[string]Meta{},
	}
	b, err := os.ReadFile(c.indexPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("could not load cache index, starting empty", "path", c.indexPath, "error", err)
		}
		return c, nil
	}
	if err := json.Unmarshal(b, &c.index); err != nil {
		logger.Warn("could not parse cache index, starting empty", "path", c.indexPath, "error", err)
		c.index = map[string]Meta{}
	}
	return c, nil
}

// Dir returns the cache root directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) blobPath(digest string) string {
	return filepath.Join(c.dir, digest+blobExt)
}

// Lookup returns the cached text for digest if both the index entry and the
// backing blob exist. A dangling index entry (blob missing or unreadable) is
// removed and reported as a miss, never an error.
func (c *Cache) Lookup(digest string) (*CachedText, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	meta, ok := c.index[digest]
	if !ok {
		return nil, false
	}
	b, err := os.ReadFile(c.blobPath(digest))
	if err != nil {
		c.logger.Warn("cache blob unreadable, dropping index entry", "digest", digest, "error", err)
		delete(c.index, digest)
		if err := c.persistIndexLocked(); err != nil {
			c.logger.Warn("could not persist repaired cache index", "error", err)
		}
		return nil, false
	}
	return &CachedText{Text: string(b), Meta: meta}, true
}

// Store writes the blob first, then updates and persists the index, so a
// crash between the two steps is observable as a miss rather than a corrupt
// hit. Storing an already-present digest overwrites idempotently.
func (c *Cache) Store(digest, text string, meta Meta) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := utils.SafeWriteFile(c.blobPath(digest), []byte(text)); err != nil {
		return &IOError{Op: "write blob", Err: err}
	}
	prev, existed := c.index[digest]
	c.index[digest] = meta
	if err := c.persistIndexLocked(); err != nil {
		// Keep the in-memory index consistent with what is durable.
		if existed {
			c.index[digest] = prev
		} else {
			delete(c.index, digest)
		}
		return &IOError{Op: "write index", Err: err}
	}
	return nil
}

// Clear removes all blobs referenced by the index, then resets and persists
// an empty index. Already-missing blobs are treated as cleared.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for digest := range c.index {
		if err := os.Remove(c.blobPath(digest)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return &IOError{Op: "remove blob", Err: err}
		}
	}
	c.index = map[string]Meta{}
	if err := c.persistIndexLocked(); err != nil {
		return &IOError{Op: "write index", Err: err}
	}
	return nil
}

// Stats sums actual blob sizes on disk for every indexed entry.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Stats{EntryCount: len(c.index)}
	for digest := range c.index {
		if info, err := os.Stat(c.blobPath(digest)); err == nil {
			st.TotalBytes += info.Size()
		}
	}
	return st
}

func (c *Cache) persistIndexLocked() error {
	b, err := utils.PrettyJSON(c.index)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(c.indexPath, b)
}
