// Package cache implements the content-addressed, two-tier invalidation
// cache described in §4.2: a fast (size, mtime) path, a deep blake3
// content-hash check on fast-path miss, and a persistent on-disk store.
// The persisted form is a single Badger database under the output
// directory, satisfying the "one versioned binary blob" contract of §3
// via a single meta record under a fixed key (schema version, workspace
// fingerprint, run id), alongside a per-path key for every CacheEntry.
package cache

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/badger/v4"

	"github.com/repomap-dev/repomap/internal/debug"
	repomaperrors "github.com/repomap-dev/repomap/internal/errors"
	"github.com/repomap-dev/repomap/internal/types"
)

// schemaVersion is bumped whenever the persisted CacheEntry shape
// changes incompatibly. Loading a store written by a different version
// is treated as an empty cache (§4.2).
const schemaVersion = 1

const (
	metaKey          = "__repomap_meta__"
	entryKeyPrefix   = "entry:"
)

// meta is the workspace-fingerprint record stored alongside entries.
type meta struct {
	Version     int
	Fingerprint string
	RunID       string
}

// Cache is the process-lifetime, path-keyed store of CacheEntry values.
// The in-memory map is guarded by mu for concurrent Phase-1 writers; the
// Badger handle serializes its own writes internally.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]types.CacheEntry
	db      *badger.DB

	fingerprint string
	runID       string
}

// Open opens (creating if necessary) a Badger-backed cache at dir and
// loads its contents into memory. A corrupt or version-mismatched store
// is treated as an empty cache per §7/§4.13 rather than an error.
func Open(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}

	c := &Cache{db: db, entries: make(map[string]types.CacheEntry)}
	if err := c.loadFromDisk(); err != nil {
		debug.LogCapture("cache at %s treated as empty: %v", dir, err)
		c.entries = make(map[string]types.CacheEntry)
	}
	return c, nil
}

// Close releases the underlying Badger handle.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Lookup implements the fast path: an exact (size, mtime) match returns
// the cached ParsedFile without reading the file body.
func (c *Cache) Lookup(path string, size, mtime int64) (*types.ParsedFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[path]
	if !ok || e.Size != size || e.ModTime != mtime {
		return nil, false
	}
	return e.Parsed, true
}

// LookupByHash implements the deep-check path: the caller has already
// computed the file's current content hash (blake3, hex-encoded) and
// found the fast path inapplicable. A hash match refreshes (size, mtime)
// in place so future runs hit the fast path again.
func (c *Cache) LookupByHash(path string, hash string, size, mtime int64) (*types.ParsedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[path]
	if !ok || e.ContentHash != hash {
		return nil, false
	}
	e.Size = size
	e.ModTime = mtime
	c.entries[path] = e
	return e.Parsed, true
}

// Insert records a freshly extracted entry, replacing any prior value
// for the same path.
func (c *Cache) Insert(entry types.CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.Path] = entry
}

// Evict removes entries for paths no longer present on disk (deleted
// files), keeping the persisted store from growing unboundedly.
func (c *Cache) Evict(paths []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range paths {
		delete(c.entries, p)
	}
}

// Paths returns every path currently held, letting a caller compute which
// entries a fresh walk no longer saw (and should therefore evict).
func (c *Cache) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.entries))
	for p := range c.entries {
		out = append(out, p)
	}
	return out
}

// SetFingerprint records the workspace fingerprint for the run that will
// next flush; FlushToDisk persists it alongside the entries so a future
// run can decide whether the whole cache is stale (e.g. after a branch
// switch moved every mtime).
func (c *Cache) SetFingerprint(fp string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fp
}

// Fingerprint returns the fingerprint last set by SetFingerprint or, if
// none was set, the one recorded by a successful loadFromDisk; "" if
// neither happened (fresh cache).
func (c *Cache) Fingerprint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fingerprint
}

// SetRunID records the identifier of the run that will next flush, so
// FlushToDisk persists which capture run last wrote this store.
func (c *Cache) SetRunID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runID = id
}

// RunID returns the run identifier last set by SetRunID or, if none was
// set, the one recorded by a successful loadFromDisk; "" if neither
// happened.
func (c *Cache) RunID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runID
}

// loadFromDisk populates c.entries from the Badger store, validating the
// schema version. Any failure — missing meta key, version mismatch,
// corrupt gob stream — returns an error so the caller starts empty.
func (c *Cache) loadFromDisk() error {
	return c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil // first run: nothing persisted yet, not an error
			}
			return repomaperrors.NewCacheCorruptError(metaKey, err)
		}

		var m meta
		if err := item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&m)
		}); err != nil {
			return repomaperrors.NewCacheCorruptError(metaKey, err)
		}
		if m.Version != schemaVersion {
			return repomaperrors.NewCacheCorruptError(metaKey, fmt.Errorf("schema version %d != %d", m.Version, schemaVersion))
		}
		c.fingerprint = m.Fingerprint
		c.runID = m.RunID

		prefix := []byte(entryKeyPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry types.CacheEntry
			if err := it.Item().Value(func(val []byte) error {
				return gob.NewDecoder(bytes.NewReader(val)).Decode(&entry)
			}); err != nil {
				return repomaperrors.NewCacheCorruptError(string(it.Item().Key()), err)
			}
			c.entries[entry.Path] = entry
		}
		return nil
	})
}

// FlushToDisk persists the in-memory entries and the current fingerprint,
// satisfying the "single binary blob, versioned" contract via one meta
// record plus one key per entry. Every previously stored entry key is
// dropped first, so entries removed by Evict are gone from disk too; the
// meta record and current entries are then written in one Badger batch.
func (c *Cache) FlushToDisk() error {
	c.mu.RLock()
	entries := make(map[string]types.CacheEntry, len(c.entries))
	for k, v := range c.entries {
		entries[k] = v
	}
	fp := c.fingerprint
	runID := c.runID
	c.mu.RUnlock()

	if err := c.db.DropPrefix([]byte(entryKeyPrefix)); err != nil {
		return fmt.Errorf("cache: drop stale entries: %w", err)
	}

	wb := c.db.NewWriteBatch()
	defer wb.Cancel()

	var metaBuf bytes.Buffer
	if err := gob.NewEncoder(&metaBuf).Encode(meta{Version: schemaVersion, Fingerprint: fp, RunID: runID}); err != nil {
		return fmt.Errorf("cache: encode meta: %w", err)
	}
	if err := wb.Set([]byte(metaKey), metaBuf.Bytes()); err != nil {
		return fmt.Errorf("cache: write meta: %w", err)
	}

	for path, entry := range entries {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
			return fmt.Errorf("cache: encode entry %s: %w", path, err)
		}
		if err := wb.Set([]byte(entryKeyPrefix+path), buf.Bytes()); err != nil {
			return fmt.Errorf("cache: write entry %s: %w", path, err)
		}
	}

	return wb.Flush()
}

// Fingerprint computes the workspace fingerprint described in the
// SUPPLEMENTED FEATURES note: a stable digest over the sorted set of
// (path, size, mtime) tuples the walker observed this run. Two runs with
// the same fingerprint saw an identical file set and sizes/mtimes.
func Fingerprint(records []*types.FileRecord) string {
	sorted := make([]*types.FileRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var buf bytes.Buffer
	for _, r := range sorted {
		fmt.Fprintf(&buf, "%s:%d:%d;", r.Path, r.Size, r.ModTime)
	}
	return fmt.Sprintf("%x", xxhash.Sum64(buf.Bytes()))
}
