package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomap-dev/repomap/internal/types"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestLookupFastPathHitAndMiss(t *testing.T) {
	c := openTestCache(t)

	entry := types.CacheEntry{
		Path: "lib.rs", Size: 100, ModTime: 1000, ContentHash: "abc",
		Parsed: &types.ParsedFile{Path: "lib.rs", Language: types.LanguageRust},
	}
	c.Insert(entry)

	parsed, ok := c.Lookup("lib.rs", 100, 1000)
	require.True(t, ok)
	assert.Equal(t, "lib.rs", parsed.Path)

	_, ok = c.Lookup("lib.rs", 100, 2000) // mtime changed
	assert.False(t, ok)

	_, ok = c.Lookup("missing.rs", 1, 1)
	assert.False(t, ok)
}

func TestLookupByHashRefreshesMtime(t *testing.T) {
	c := openTestCache(t)
	c.Insert(types.CacheEntry{
		Path: "lib.rs", Size: 100, ModTime: 1000, ContentHash: "deadbeef",
		Parsed: &types.ParsedFile{Path: "lib.rs"},
	})

	parsed, ok := c.LookupByHash("lib.rs", "deadbeef", 100, 2000)
	require.True(t, ok)
	assert.Equal(t, "lib.rs", parsed.Path)

	// mtime should now be refreshed, so the fast path hits.
	_, ok = c.Lookup("lib.rs", 100, 2000)
	assert.True(t, ok)

	_, ok = c.LookupByHash("lib.rs", "wronghash", 100, 2000)
	assert.False(t, ok)
}

func TestEvictRemovesEntries(t *testing.T) {
	c := openTestCache(t)
	c.Insert(types.CacheEntry{Path: "a.rs", Parsed: &types.ParsedFile{Path: "a.rs"}})
	c.Insert(types.CacheEntry{Path: "b.rs", Parsed: &types.ParsedFile{Path: "b.rs"}})

	c.Evict([]string{"a.rs"})

	_, ok := c.Lookup("a.rs", 0, 0)
	assert.False(t, ok)
	_, ok = c.Lookup("b.rs", 0, 0)
	assert.True(t, ok)
}

func TestFlushAndReload(t *testing.T) {
	dir := t.TempDir()
	c, err := Open(dir)
	require.NoError(t, err)

	c.Insert(types.CacheEntry{
		Path: "lib.rs", Size: 42, ModTime: 7, ContentHash: "hash1",
		Parsed: &types.ParsedFile{Path: "lib.rs", Language: types.LanguageRust},
	})
	c.SetFingerprint("fp-1")
	c.SetRunID("run-1")
	require.NoError(t, c.FlushToDisk())
	require.NoError(t, c.Close())

	c2, err := Open(dir)
	require.NoError(t, err)
	defer c2.Close()

	parsed, ok := c2.Lookup("lib.rs", 42, 7)
	require.True(t, ok)
	assert.Equal(t, types.LanguageRust, parsed.Language)
	assert.Equal(t, "fp-1", c2.Fingerprint())
	assert.Equal(t, "run-1", c2.RunID())
}

func TestFreshStoreStartsEmpty(t *testing.T) {
	c := openTestCache(t)
	_, ok := c.Lookup("a.rs", 0, 0)
	assert.False(t, ok)
	assert.Equal(t, "", c.Fingerprint())
}

func TestFingerprintStableForSameInput(t *testing.T) {
	records := []*types.FileRecord{
		{Path: "b.rs", Size: 10, ModTime: 100},
		{Path: "a.rs", Size: 5, ModTime: 50},
	}
	reordered := []*types.FileRecord{records[1], records[0]}

	assert.Equal(t, Fingerprint(records), Fingerprint(reordered))
}

func TestFingerprintChangesWithContent(t *testing.T) {
	a := []*types.FileRecord{{Path: "a.rs", Size: 5, ModTime: 50}}
	b := []*types.FileRecord{{Path: "a.rs", Size: 6, ModTime: 50}}
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	c, err := Open(dir)
	require.NoError(t, err)
	defer c.Close()
	assert.DirExists(t, dir)
}
