// Package tsparse provides the parser pool: one tree-sitter parser per
// (goroutine, grammar). Parsers are not safe for concurrent use, and
// re-creating one per file is wasteful, so each supported language gets
// its own sync.Pool of parsers that Phase-1 workers check out and
// return around a single file's parse.
package tsparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/repomap-dev/repomap/internal/types"
)

// maxErrorRatio is the fraction of ERROR/MISSING nodes (by count, over a
// depth-bounded sample of the tree) above which a parse is treated as a
// parse_error skip rather than a best-effort partial tree.
const maxErrorRatio = 0.25

// Pool dispatches by language to a capability set of {parse}. Extract
// capability lives in internal/extract, which consumes the *Tree this
// pool hands back.
type Pool struct {
	mu        sync.RWMutex
	languages map[types.Language]*tree_sitter.Language
	pools     map[types.Language]*sync.Pool
}

// New builds a pool with the Rust and Python grammars registered. Grammar
// construction is lazy per-language only in the sense that the
// underlying parser instances are created on first checkout; the
// Language handles themselves are cheap and built eagerly here.
func New() *Pool {
	p := &Pool{
		languages: make(map[types.Language]*tree_sitter.Language),
		pools:     make(map[types.Language]*sync.Pool),
	}

	rust := tree_sitter.NewLanguage(tree_sitter_rust.Language())
	python := tree_sitter.NewLanguage(tree_sitter_python.Language())
	p.register(types.LanguageRust, rust)
	p.register(types.LanguagePython, python)

	return p
}

func (p *Pool) register(lang types.Language, language *tree_sitter.Language) {
	p.languages[lang] = language
	p.pools[lang] = &sync.Pool{
		New: func() interface{} {
			parser := tree_sitter.NewParser()
			if err := parser.SetLanguage(language); err != nil {
				return nil
			}
			return parser
		},
	}
}

// Supports reports whether lang has a registered grammar.
func (p *Pool) Supports(lang types.Language) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.languages[lang]
	return ok
}

// Parse checks out a parser for lang, parses src, and returns it to the
// pool before returning. It reports a parse_error (nil tree, ok=false)
// when the resulting tree's error density exceeds maxErrorRatio.
func (p *Pool) Parse(lang types.Language, src []byte) (tree *tree_sitter.Tree, ok bool, err error) {
	p.mu.RLock()
	pool, supported := p.pools[lang]
	p.mu.RUnlock()
	if !supported {
		return nil, false, fmt.Errorf("tsparse: unsupported language %q", lang)
	}

	v := pool.Get()
	parser, valid := v.(*tree_sitter.Parser)
	if !valid || parser == nil {
		return nil, false, fmt.Errorf("tsparse: failed to acquire parser for %q", lang)
	}
	defer pool.Put(parser)

	tree = parser.Parse(src, nil)
	if tree == nil {
		return nil, false, fmt.Errorf("tsparse: parse returned nil tree for %q", lang)
	}

	if errorRatio(tree.RootNode()) > maxErrorRatio {
		return nil, false, nil
	}

	return tree, true, nil
}

// errorRatio samples the tree's immediate structure for ERROR/MISSING
// nodes. A full-tree walk is unnecessary for this threshold check: a
// genuinely broken parse concentrates errors near the top of the tree.
func errorRatio(root *tree_sitter.Node) float64 {
	if root == nil {
		return 1
	}
	total := int(root.ChildCount())
	if total == 0 {
		if root.IsError() || root.IsMissing() {
			return 1
		}
		return 0
	}

	bad := 0
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		if child.IsError() || child.IsMissing() || child.Kind() == "ERROR" {
			bad++
		}
	}
	return float64(bad) / float64(total)
}
