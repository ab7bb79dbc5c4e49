// Package walker enumerates candidate source files under a repository
// root (§4.1), honoring gitignore-style exclusions and a set of always-
// excluded build/hidden directories. It never parses anything; it
// produces a stream of repo-relative paths plus pre-parse skip
// decisions (oversize, binary content). Files with an extension outside
// the enabled languages are dropped without a skip record.
package walker

import (
	"context"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/repomap-dev/repomap/internal/config"
	"github.com/repomap-dev/repomap/internal/debug"
	"github.com/repomap-dev/repomap/internal/types"
	"github.com/repomap-dev/repomap/pkg/pathutil"
)

// alwaysExcludedDirs are skipped regardless of gitignore content —
// build output and VCS/IDE metadata that never holds source of
// interest and can be enormous (node_modules-style trees).
var alwaysExcludedDirs = []string{
	".git", ".hg", ".svn", ".idea", ".vscode",
	"target", "dist", "build", "__pycache__", ".venv", "venv",
	"node_modules", ".cache", ".next", "_build",
}

// Candidate is one file the walker decided is worth the cache/reader's
// attention, or a pre-parse skip (oversize, or binary content recorded
// as unsupported_language).
type Candidate struct {
	Path    string // repo-relative, forward-slash
	AbsPath string
	Lang    types.Language
	Size    int64
	ModTime int64 // unix nanoseconds

	Skip    types.SkipReason // "" unless pre-parse skip
	SkipErr error
}

// Walk enumerates root according to cfg, sending candidates on the
// returned channel. It closes the channel when the walk completes or
// ctx is canceled. Emission order is unspecified; consumers must treat
// the stream as unordered per §4.1/§5.
func Walk(ctx context.Context, root string, cfg *config.Index) <-chan Candidate {
	out := make(chan Candidate, 64)

	go func() {
		defer close(out)

		var ignore *config.GitignoreParser
		if cfg.RespectGitignore {
			ignore = config.NewGitignoreParser()
			if err := ignore.LoadGitignore(root); err != nil {
				debug.LogWalk("no gitignore loaded at %s: %v", root, err)
			}
		}

		visitedDirs := make(map[string]bool)

		_ = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if walkErr != nil {
				return nil
			}

			if info.IsDir() {
				return visitDir(path, root, info, visitedDirs, ignore)
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return nil
			}
			rel = pathutil.ToForwardSlash(rel)

			if ignore != nil && ignore.ShouldIgnore(rel, false) {
				return nil
			}

			lang := types.LanguageForExt(filepath.Ext(path))
			if lang == types.LanguageUnknown {
				return nil
			}
			if !languageEnabled(cfg.Languages, lang) {
				return nil
			}
			if cfg.FocusPrefix != "" && !withinFocus(rel, cfg.FocusPrefix) {
				return nil
			}

			cand := Candidate{
				Path:    rel,
				AbsPath: path,
				Lang:    lang,
				Size:    info.Size(),
				ModTime: info.ModTime().UnixNano(),
			}

			maxBytes := cfg.MaxFileBytes
			if maxBytes > 0 && info.Size() > maxBytes {
				cand.Skip = types.SkipOversize
			} else if looksBinary(path) {
				cand.Skip = types.SkipUnsupportedLanguage
			}

			select {
			case out <- cand:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})
	}()

	return out
}

func visitDir(path, root string, info os.FileInfo, visited map[string]bool, ignore *config.GitignoreParser) error {
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil
	}
	if visited[realPath] {
		return filepath.SkipDir
	}
	visited[realPath] = true

	if path == root {
		return nil
	}
	base := filepath.Base(path)
	for _, ex := range alwaysExcludedDirs {
		if base == ex {
			return filepath.SkipDir
		}
	}

	if ignore != nil {
		rel, err := filepath.Rel(root, path)
		if err == nil && ignore.ShouldIgnore(pathutil.ToForwardSlash(rel), true) {
			return filepath.SkipDir
		}
	}

	return nil
}

func languageEnabled(enabled []string, lang types.Language) bool {
	if len(enabled) == 0 {
		return true
	}
	for _, l := range enabled {
		if types.Language(l) == lang {
			return true
		}
	}
	return false
}

func withinFocus(rel, prefix string) bool {
	match, err := doublestar.Match(prefix+"**", rel)
	if err == nil && match {
		return true
	}
	return len(rel) >= len(prefix) && rel[:len(prefix)] == prefix
}

// binaryMagic holds the leading bytes of formats that are never source
// text, consulted as a defense-in-depth fallback alongside the
// extension allowlist (a .py or .rs path should never carry these).
var binaryMagic = [][]byte{
	{0x7f, 'E', 'L', 'F'},       // ELF
	{0x89, 'P', 'N', 'G'},       // PNG
	{'P', 'K', 0x03, 0x04},      // ZIP/JAR
	{0xff, 0xd8, 0xff},          // JPEG
	{0x00, 0x00, 0x00, 0x00, 0x66, 0x74, 0x79, 0x70}, // partial MP4/ISO-BMFF marker region
}

func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 16)
	n, _ := f.Read(buf)
	buf = buf[:n]

	for _, magic := range binaryMagic {
		if len(buf) >= len(magic) && bytesEqual(buf[:len(magic)], magic) {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
