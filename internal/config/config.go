// Package config loads the configuration surface described in the core
// pipeline's spec: repo root, output directory, enabled languages, the
// per-file size ceiling, parallelism, and the optional diff/focus knobs
// consumed by out-of-core collaborators.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// DefaultMaxFileBytes is the byte ceiling above which the walker emits an
// oversize skip instead of handing a file to the parser.
const DefaultMaxFileBytes int64 = 2 * 1024 * 1024

// Config is the full, resolved configuration surface for one capture run.
type Config struct {
	Project Project
	Output  Output
	Index   Index
}

// Project describes the repository under analysis.
type Project struct {
	Root string
}

// Output describes where artifacts and the internal cache/meta files land.
type Output struct {
	Dir string
}

// Index controls what the walker and cache consider in scope.
type Index struct {
	Languages        []string // subset of {"rust", "python"}; empty means both
	MaxFileBytes     int64
	Parallelism      int // 0 = auto: Load replaces it with NumCPU-1 (min 1); ResolvedParallelism reads 0 as NumCPU
	RespectGitignore bool
	SinceRef         string // for diff output only; core does not interpret it
	FocusPrefix      string // when set, the walker skips files whose repo-relative path is outside this prefix
}

// Default returns a Config with every field at its documented default,
// rooted at root.
func Default(root string) *Config {
	return &Config{
		Project: Project{Root: root},
		Output:  Output{Dir: filepath.Join(root, ".repomap")},
		Index: Index{
			Languages:        []string{"rust", "python"},
			MaxFileBytes:     DefaultMaxFileBytes,
			Parallelism:      0,
			RespectGitignore: true,
		},
	}
}

// Load resolves configuration for root: it starts from Default, then
// overlays a .repomap.kdl file if present. A missing KDL file is not an
// error — the defaults stand.
func Load(root string) (*Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve project root %q: %w", root, err)
	}

	cfg := Default(absRoot)

	overlay, err := LoadKDL(absRoot)
	if err != nil {
		return nil, fmt.Errorf("load .repomap.kdl: %w", err)
	}
	if overlay != nil {
		mergeKDL(cfg, overlay)
	}

	NewValidator().SetSmartDefaults(cfg)
	return cfg, nil
}

// LanguageEnabled reports whether lang ("rust" or "python") is in scope.
func (c *Config) LanguageEnabled(lang string) bool {
	if len(c.Index.Languages) == 0 {
		return true
	}
	for _, l := range c.Index.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// ResolvedParallelism returns the configured parallelism, or NumCPU when
// auto-detection (0) was requested.
func (c *Config) ResolvedParallelism() int {
	if c.Index.Parallelism > 0 {
		return c.Index.Parallelism
	}
	n := runtime.NumCPU()
	if n < 1 {
		return 1
	}
	return n
}
