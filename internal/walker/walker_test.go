package walker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repomap-dev/repomap/internal/config"
	"github.com/repomap-dev/repomap/internal/types"
)

func collect(t *testing.T, root string, cfg *config.Index) []Candidate {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out []Candidate
	for c := range Walk(ctx, root, cfg) {
		out = append(out, c)
	}
	return out
}

func defaultIndex(root string) *config.Index {
	cfg := config.Default(root)
	return &cfg.Index
}

func TestWalkEmptyRepo(t *testing.T) {
	root := t.TempDir()
	cands := collect(t, root, defaultIndex(root))
	assert.Empty(t, cands)
}

func TestWalkFindsRustAndPython(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib.rs"), []byte("fn a() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mod.py"), []byte("def a(): pass\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("# hi\n"), 0644))

	cands := collect(t, root, defaultIndex(root))
	paths := map[string]types.Language{}
	for _, c := range cands {
		paths[c.Path] = c.Lang
	}

	assert.Equal(t, types.LanguageRust, paths["lib.rs"])
	assert.Equal(t, types.LanguagePython, paths["mod.py"])
	assert.NotContains(t, paths, "README.md")
}

func TestWalkSkipsAlwaysExcludedDirs(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "target", "debug"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "target", "debug", "generated.rs"), []byte("fn g() {}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.rs"), []byte("fn main() {}\n"), 0644))

	cands := collect(t, root, defaultIndex(root))
	require.Len(t, cands, 1)
	assert.Equal(t, "main.rs", cands[0].Path)
}

func TestWalkOversizeIsSkip(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 100)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.py"), big, 0644))

	idx := defaultIndex(root)
	idx.MaxFileBytes = 10

	cands := collect(t, root, idx)
	require.Len(t, cands, 1)
	assert.Equal(t, types.SkipOversize, cands[0].Skip)
}

func TestWalkRespectsGitignore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("ignored.py\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.py"), []byte("x = 1\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kept.py"), []byte("x = 1\n"), 0644))

	idx := defaultIndex(root)
	idx.RespectGitignore = true

	cands := collect(t, root, idx)
	require.Len(t, cands, 1)
	assert.Equal(t, "kept.py", cands[0].Path)
}

func TestWalkLanguageFilter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.rs"), []byte("fn a(){}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.py"), []byte("def a(): pass\n"), 0644))

	idx := defaultIndex(root)
	idx.Languages = []string{"rust"}

	cands := collect(t, root, idx)
	require.Len(t, cands, 1)
	assert.Equal(t, "a.rs", cands[0].Path)
}
