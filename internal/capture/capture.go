// Package capture is the top-level orchestrator: it wires the walker,
// cache, reader, parser pool, and extractor (together, Phase 1, via
// internal/pipeline) to the reference resolver and derived analyzers
// (Phase 2, via internal/resolve and internal/analysis), consulting the
// git and workspace collaborators for the inputs Phase 2 needs but
// Phase 1 never touches.
package capture

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/repomap-dev/repomap/internal/analysis"
	"github.com/repomap-dev/repomap/internal/cache"
	"github.com/repomap-dev/repomap/internal/config"
	"github.com/repomap-dev/repomap/internal/git"
	"github.com/repomap-dev/repomap/internal/pipeline"
	"github.com/repomap-dev/repomap/internal/resolve"
	"github.com/repomap-dev/repomap/internal/tsparse"
	"github.com/repomap-dev/repomap/internal/types"
	"github.com/repomap-dev/repomap/internal/workspace"
)

// Run executes the full two-phase pipeline for cfg: Phase 1 parses every
// in-scope file (using the on-disk cache to skip unchanged ones), Phase
// 2 resolves cross-file references and runs every derived analyzer over
// the result. A per-file failure never aborts the run (§4.13); only an
// error opening the cache directory, an error from the Phase-1 pipeline,
// or a failed workspace detection (no manifest found) is fatal.
func Run(ctx context.Context, cfg *config.Config) (*types.CaptureResult, *analysis.Report, error) {
	c, err := cache.Open(cfg.Output.Dir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening cache: %w", err)
	}
	defer c.Close()

	pool := tsparse.New()

	result, err := pipeline.Run(ctx, cfg, c, pool)
	if err != nil {
		return nil, nil, fmt.Errorf("phase 1 capture: %w", err)
	}

	ws, err := workspace.Detect(cfg.Project.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("detecting workspace: %w", err)
	}

	files := parsedFiles(result)
	resolved := resolve.Build(files)
	report := analysis.Run(files, resolved, ws, churnFunc(cfg))

	return result, report, nil
}

// parsedFiles extracts every successfully parsed file from result, in
// the order the pipeline already sorted them.
func parsedFiles(result *types.CaptureResult) []*types.ParsedFile {
	files := make([]*types.ParsedFile, 0, len(result.Files))
	for _, rec := range result.Files {
		if rec.Parsed != nil {
			files = append(files, rec.Parsed)
		}
	}
	return files
}

// churnFunc adapts the git collaborator to analysis.ChurnFunc. Git
// unavailability yields zero churn across the board (§4.13), which
// Provider.Churn already guarantees on its own.
func churnFunc(cfg *config.Config) analysis.ChurnFunc {
	provider := git.NewProvider(cfg.Project.Root)
	root := cfg.Project.Root
	return func(path string) uint32 {
		return provider.Churn(context.Background(), filepath.Join(root, path))
	}
}
