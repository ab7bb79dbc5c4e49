package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// kdlOverlay is the subset of Config a .repomap.kdl file may override.
// Fields left nil/zero in the overlay leave the caller's default untouched.
type kdlOverlay struct {
	root             *string
	outputDir        *string
	languages        []string
	maxFileBytes     *int64
	parallelism      *int
	respectGitignore *bool
	sinceRef         *string
	focusPrefix      *string
}

// LoadKDL attempts to load a .repomap.kdl file from root. A missing file
// is not an error: (nil, nil) signals "no overlay".
func LoadKDL(root string) (*kdlOverlay, error) {
	kdlPath := filepath.Join(root, ".repomap.kdl")

	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", kdlPath, err)
	}

	return parseKDL(string(content))
}

func parseKDL(content string) (*kdlOverlay, error) {
	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse KDL config: %w", err)
	}

	overlay := &kdlOverlay{}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "project":
			for _, cn := range n.Children {
				if nodeName(cn) == "root" {
					if s, ok := firstStringArg(cn); ok {
						overlay.root = &s
					}
				}
			}
		case "output":
			for _, cn := range n.Children {
				if nodeName(cn) == "dir" {
					if s, ok := firstStringArg(cn); ok {
						overlay.outputDir = &s
					}
				}
			}
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "languages":
					overlay.languages = collectStringArgs(cn)
				case "max_file_bytes":
					if v, ok := firstIntArg(cn); ok {
						sz := int64(v)
						overlay.maxFileBytes = &sz
					} else if s, ok := firstStringArg(cn); ok {
						if sz, err := parseSize(s); err == nil {
							overlay.maxFileBytes = &sz
						}
					}
				case "parallelism":
					if v, ok := firstIntArg(cn); ok {
						overlay.parallelism = &v
					}
				case "respect_gitignore":
					if b, ok := firstBoolArg(cn); ok {
						overlay.respectGitignore = &b
					}
				case "since_ref":
					if s, ok := firstStringArg(cn); ok {
						overlay.sinceRef = &s
					}
				case "focus_prefix":
					if s, ok := firstStringArg(cn); ok {
						overlay.focusPrefix = &s
					}
				}
			}
		}
	}

	return overlay, nil
}

// mergeKDL applies a parsed overlay onto cfg, leaving unset fields alone.
func mergeKDL(cfg *Config, overlay *kdlOverlay) {
	if overlay.root != nil {
		cfg.Project.Root = *overlay.root
	}
	if overlay.outputDir != nil {
		dir := *overlay.outputDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(cfg.Project.Root, dir)
		}
		cfg.Output.Dir = dir
	}
	if len(overlay.languages) > 0 {
		cfg.Index.Languages = overlay.languages
	}
	if overlay.maxFileBytes != nil {
		cfg.Index.MaxFileBytes = *overlay.maxFileBytes
	}
	if overlay.parallelism != nil {
		cfg.Index.Parallelism = *overlay.parallelism
	}
	if overlay.respectGitignore != nil {
		cfg.Index.RespectGitignore = *overlay.respectGitignore
	}
	if overlay.sinceRef != nil {
		cfg.Index.SinceRef = *overlay.sinceRef
	}
	if overlay.focusPrefix != nil {
		cfg.Index.FocusPrefix = *overlay.focusPrefix
	}
}

// --- kdl-go document helpers (node/argument accessors) ---

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}

func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// parseSize handles size strings like "10MB", "500KB", "1GB".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		multiplier = 1
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}

	return num * multiplier, nil
}
