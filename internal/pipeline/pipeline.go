// Package pipeline implements the Phase-1 Aggregator (§4.6): a bounded
// parallel workload over the walker's candidate stream that consults the
// cache, reads and parses a miss, extracts a ParsedFile, and joins every
// outcome into a CaptureResult. The join itself, and the cache flush that
// follows it, run single-threaded on the caller's goroutine.
package pipeline

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/repomap-dev/repomap/internal/cache"
	"github.com/repomap-dev/repomap/internal/config"
	"github.com/repomap-dev/repomap/internal/debug"
	repomaperrors "github.com/repomap-dev/repomap/internal/errors"
	"github.com/repomap-dev/repomap/internal/extract"
	"github.com/repomap-dev/repomap/internal/reader"
	"github.com/repomap-dev/repomap/internal/tsparse"
	"github.com/repomap-dev/repomap/internal/types"
	"github.com/repomap-dev/repomap/internal/walker"
)

// Run consumes candidates, processing up to cfg.Index's resolved
// parallelism concurrently, and returns the joined CaptureResult. The
// cache is updated in place and flushed to disk before Run returns,
// satisfying §4.6's "flushes after the aggregator completes" rule. A
// non-nil error here is the one fatal aggregator-failure class (§4.13);
// every per-file problem instead becomes a skip inside the result.
func Run(ctx context.Context, cfg *config.Config, c *cache.Cache, pool *tsparse.Pool) (*types.CaptureResult, error) {
	candidates := walker.Walk(ctx, cfg.Project.Root, &cfg.Index)

	var mu sync.Mutex
	var records []*types.FileRecord

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.ResolvedParallelism())

	for cand := range candidates {
		g.Go(func() error {
			rec := process(gctx, cand, c, pool)

			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &types.CaptureResult{RunID: uuid.NewString(), Files: records}
	for _, r := range records {
		switch {
		case r.Parsed != nil && r.Cached:
			result.Parsed++
			result.Cached++
		case r.Parsed != nil:
			result.Parsed++
		case r.Skip != "":
			result.Skipped = append(result.Skipped, r)
		}
	}
	result.SortFiles()

	c.SetFingerprint(cache.Fingerprint(records))
	c.SetRunID(result.RunID)
	c.Evict(staleEntries(c.Paths(), records))
	if err := c.FlushToDisk(); err != nil {
		debug.LogCapture("cache flush failed (continuing): %v", err)
	}

	return result, nil
}

// process resolves a single candidate to its final FileRecord: a skip
// the walker already decided, a cache hit (fast path or deep check), or a
// fresh read/parse/extract.
func process(ctx context.Context, cand walker.Candidate, c *cache.Cache, pool *tsparse.Pool) *types.FileRecord {
	rec := &types.FileRecord{
		Path:     cand.Path,
		Language: cand.Lang,
		Size:     cand.Size,
		ModTime:  cand.ModTime,
	}

	if cand.Skip != "" {
		rec.Skip = cand.Skip
		rec.SkipErr = cand.SkipErr
		return rec
	}

	select {
	case <-ctx.Done():
		rec.Skip = types.SkipIOError
		rec.SkipErr = ctx.Err()
		return rec
	default:
	}

	if parsed, ok := c.Lookup(cand.Path, cand.Size, cand.ModTime); ok {
		rec.Parsed = parsed
		rec.Cached = true
		return rec
	}

	res, err := reader.Read(cand.AbsPath)
	if err != nil {
		rec.Skip = types.SkipIOError
		rec.SkipErr = err
		return rec
	}
	rec.Hash = res.XXHash

	if parsed, ok := c.LookupByHash(cand.Path, res.Blake3Hex(), cand.Size, cand.ModTime); ok {
		rec.Parsed = parsed
		rec.Cached = true
		return rec
	}

	tree, ok, err := pool.Parse(cand.Lang, res.Bytes)
	if err != nil {
		rec.Skip = types.SkipIOError
		rec.SkipErr = err
		return rec
	}
	if !ok {
		rec.Skip = types.SkipParseError
		rec.SkipErr = repomaperrors.NewFileError(repomaperrors.ErrorTypeParse, cand.Path, nil)
		return rec
	}

	parsed := extract.Extract(cand.Path, cand.Lang, res.Bytes, tree)
	rec.Parsed = parsed

	c.Insert(types.CacheEntry{
		Path:        cand.Path,
		Size:        cand.Size,
		ModTime:     cand.ModTime,
		ContentHash: res.Blake3Hex(),
		Parsed:      parsed,
	})

	return rec
}

// staleEntries returns the cached paths not present among this run's
// records, i.e. files deleted (or renamed) since the last run.
func staleEntries(cached []string, records []*types.FileRecord) []string {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		seen[filepath.Clean(r.Path)] = true
	}
	var stale []string
	for _, p := range cached {
		if !seen[filepath.Clean(p)] {
			stale = append(stale, p)
		}
	}
	return stale
}
