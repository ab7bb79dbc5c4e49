// Package git is the best-effort, out-of-core git collaborator: it
// answers current_commit, churn, and diff queries (churn feeds the
// hotspot scorer), and never blocks the pipeline on
// its own failures — an unavailable or absent repository yields zero
// churn and an empty diff rather than an error.
package git

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// excludedChurnPatterns mirrors the exclusions a churn-aware hotspot
// score needs: lockfiles and generated artifacts commit frequently
// without representing meaningful code churn.
var excludedChurnPatterns = []string{
	"*.lock", "Cargo.lock", "poetry.lock", "*.generated.*",
	"dist/*", "build/*", "target/*", "__pycache__/*", ".cache/*",
}

func isExcludedFromChurn(path string) bool {
	base := filepath.Base(path)
	for _, pat := range excludedChurnPatterns {
		if ok, _ := filepath.Match(pat, path); ok {
			return true
		}
		if ok, _ := filepath.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// DiffResult is the collaborator's diff(from_ref, to_ref) result.
type DiffResult struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Provider implements the git collaborator interface over the system
// git binary. A zero-value-ish Provider (repoRoot == "") is still safe
// to call: every method except ListFiles degrades to its best-effort
// zero value instead of erroring, since git unavailability must never
// be fatal.
type Provider struct {
	repoRoot string
	git      bool // true once repoRoot was confirmed to be inside a git worktree
}

// NewProvider resolves root to its enclosing git worktree. If root is
// not inside a git repository, or the git binary is missing, it still
// returns a usable Provider whose methods all report unavailability.
func NewProvider(root string) *Provider {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return &Provider{}
	}

	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absRoot
	out, err := cmd.Output()
	if err != nil {
		return &Provider{repoRoot: absRoot}
	}

	return &Provider{repoRoot: strings.TrimSpace(string(out)), git: true}
}

// Available reports whether the provider found a usable git worktree.
func (p *Provider) Available() bool {
	return p.git
}

// CurrentCommit returns the HEAD commit hash, or "" if unavailable.
func (p *Provider) CurrentCommit(ctx context.Context) string {
	if !p.git {
		return ""
	}
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// Churn returns the number of commits that have touched path, or 0 if
// the provider is unavailable, path is excluded, or git errors.
func (p *Provider) Churn(ctx context.Context, path string) uint32 {
	if !p.git || isExcludedFromChurn(path) {
		return 0
	}

	cmd := exec.CommandContext(ctx, "git", "log", "--oneline", "--follow", "--", path)
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return 0
	}

	var n uint32
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if scanner.Text() != "" {
			n++
		}
	}
	return n
}

// Diff returns the set of paths added, modified, and deleted between
// fromRef and toRef. An empty fromRef compares against the empty tree
// (i.e. every tracked file at toRef is "added"). Errors yield a zero
// DiffResult rather than propagating — callers treat an empty diff the
// same as "nothing changed."
func (p *Provider) Diff(ctx context.Context, fromRef, toRef string) DiffResult {
	var result DiffResult
	if !p.git {
		return result
	}
	if toRef == "" {
		toRef = "HEAD"
	}

	if fromRef == "" {
		files, err := p.ListFiles(ctx, toRef)
		if err == nil {
			result.Added = files
		}
		return result
	}
	rangeSpec := fromRef + ".." + toRef

	cmd := exec.CommandContext(ctx, "git", "diff", "--name-status", "--no-renames", rangeSpec)
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return result
	}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0][0] {
		case 'A':
			result.Added = append(result.Added, fields[1])
		case 'D':
			result.Deleted = append(result.Deleted, fields[1])
		default:
			result.Modified = append(result.Modified, fields[1])
		}
	}
	return result
}

// ListFiles returns every path tracked at ref (HEAD when ref is empty).
// Unlike the other methods it returns an error when no repository is
// available or git fails.
func (p *Provider) ListFiles(ctx context.Context, ref string) ([]string, error) {
	if !p.git {
		return nil, fmt.Errorf("git: no repository at %s", p.repoRoot)
	}
	args := []string{"ls-tree", "-r", "--name-only"}
	if ref == "" {
		ref = "HEAD"
	}
	args = append(args, ref)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			files = append(files, line)
		}
	}
	return files, scanner.Err()
}
