// Package workspace is the project-detection collaborator (§6
// detect(root) -> WorkspaceInfo): it locates manifest files and
// enumerates workspace members well enough to feed the hotspot
// scorer's and clusterer's "package" grouping. Detection depth beyond
// that — full Cargo workspace resolution, PEP 621 metadata parsing —
// is explicitly out of core scope.
package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	repomaperrors "github.com/repomap-dev/repomap/internal/errors"
	"github.com/repomap-dev/repomap/internal/types"
)

var errNoManifest = errors.New("no Cargo.toml, pyproject.toml, or setup.py found under root")

// manifestNames are the files whose presence marks a directory as a
// workspace member root: Cargo.toml marks a Rust member, the other two a
// Python member.
var manifestNames = []string{"Cargo.toml", "pyproject.toml", "setup.py"}

// Detect walks root looking for manifest files and returns the
// WorkspaceInfo the analyzers group symbols by. A root with no
// recognizable manifest anywhere is a fatal workspace_detect_failed
// error (§7) — the core refuses to guess at package boundaries.
func Detect(root string) (*types.WorkspaceInfo, error) {
	var members []types.Member
	langSeen := map[types.Language]bool{}

	err := filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if info.IsDir() {
			base := filepath.Base(path)
			if base == ".git" || base == "target" || base == "node_modules" || base == "__pycache__" || base == ".venv" {
				return filepath.SkipDir
			}
			return nil
		}

		name := info.Name()
		for _, m := range manifestNames {
			if name == m {
				rel, relErr := filepath.Rel(root, filepath.Dir(path))
				if relErr != nil {
					return nil
				}
				rel = filepath.ToSlash(rel)
				members = append(members, memberFor(name, rel))
				if name == "Cargo.toml" {
					langSeen[types.LanguageRust] = true
				} else {
					langSeen[types.LanguagePython] = true
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, repomaperrors.NewWorkspaceDetectError(root, err)
	}

	if len(members) == 0 {
		return nil, repomaperrors.NewWorkspaceDetectError(root, errNoManifest)
	}

	sort.Slice(members, func(i, j int) bool { return members[i].Root < members[j].Root })

	langs := make([]types.Language, 0, len(langSeen))
	for l := range langSeen {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

	return &types.WorkspaceInfo{Root: root, LanguageMix: langs, Members: members}, nil
}

func memberFor(manifest, root string) types.Member {
	name := root
	if root == "." {
		name = "."
	}
	if idx := strings.LastIndex(root, "/"); idx >= 0 {
		name = root[idx+1:]
	}

	kind := types.PackageLib
	if manifest != "Cargo.toml" {
		kind = types.PackagePython
	}
	return types.Member{Name: name, Kind: kind, Root: root}
}
