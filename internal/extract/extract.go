// Package extract implements the Extractor (§4.5): given a parsed syntax
// tree and its source bytes, it produces a ParsedFile by dispatching on
// node kind during a single pre-order walk. Rust and Python each get
// their own symbol/body/call/error/safety handling in rust.go and
// python.go; this file holds the shared entry point and the small string
// and node helpers both languages lean on.
package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// Extract walks tree and produces the ParsedFile for path. src is the
// exact byte slice the tree was parsed from; all text extraction slices
// into it by byte offset.
func Extract(path string, lang types.Language, src []byte, tree *tree_sitter.Tree) *types.ParsedFile {
	pf := &types.ParsedFile{
		Path:        path,
		Language:    lang,
		Identifiers: make(map[string][]int),
	}

	root := tree.RootNode()
	w := &walker{pf: pf, src: src}

	switch lang {
	case types.LanguageRust:
		w.walkRust(root, "")
	case types.LanguagePython:
		w.walkPython(root, nil, "")
	}

	w.collectIdentifiers(root)

	total := 0
	for _, s := range pf.Symbols {
		if s.Function != nil && s.Function.Body != nil {
			total += s.Function.Body.Cyclomatic
		}
	}
	pf.Complexity = total

	return pf
}

// walker carries the mutable state threaded through a single file's
// traversal: the ParsedFile being built and the source bytes every text
// helper slices into.
type walker struct {
	pf  *types.ParsedFile
	src []byte
}

// text returns the exact source slice spanned by n.
func (w *walker) text(n *tree_sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.src[n.StartByte():n.EndByte()])
}

// line returns the 1-based source line n starts on.
func (w *walker) line(n *tree_sitter.Node) int {
	if n == nil {
		return 0
	}
	return int(n.StartPosition().Row) + 1
}

// normalizeWhitespace collapses any run of whitespace (including
// newlines inside a multi-line signature) to a single space, per the
// signature-text normalization rule.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// docCommentBefore returns the text of a comment node immediately
// preceding n (no blank line / other node between them), or "".
func (w *walker) docCommentBefore(n *tree_sitter.Node) string {
	prev := n.PrevSibling()
	if prev == nil {
		return ""
	}
	endRow := prev.EndPosition().Row
	if prev.EndPosition().Column == 0 && endRow > 0 {
		endRow-- // a line comment whose extent includes its trailing newline
	}
	if n.StartPosition().Row > endRow+1 {
		return ""
	}
	switch prev.Kind() {
	case "line_comment", "block_comment", "comment":
		return strings.TrimSpace(w.text(prev))
	default:
		return ""
	}
}

// signatureBeforeBody slices the source from n's start up to body's start
// (or n's end, if body is nil) and normalizes whitespace — the "signature
// text as it appears in source" rule shared by both languages' function
// handling.
func (w *walker) signatureBeforeBody(n, body *tree_sitter.Node) string {
	start := n.StartByte()
	end := n.EndByte()
	if body != nil {
		end = body.StartByte()
	}
	if int(end) > len(w.src) || start > end {
		return ""
	}
	return normalizeWhitespace(string(w.src[start:end]))
}

// children returns n's direct children as a slice, since the tree-sitter
// API exposes them only via indexed ChildCount()/Child(i) access.
func children(n *tree_sitter.Node) []*tree_sitter.Node {
	if n == nil {
		return nil
	}
	count := n.ChildCount()
	out := make([]*tree_sitter.Node, 0, count)
	for i := uint(0); i < count; i++ {
		out = append(out, n.Child(i))
	}
	return out
}

// isUpperStart reports whether s begins with an uppercase ASCII letter,
// the PascalCase-identifier test the occurrence index uses.
func isUpperStart(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

// collectIdentifiers performs the separate, language-agnostic walk for
// the PascalCase identifier-occurrence index (§4.5): every identifier
// node whose lexeme starts with an uppercase letter is recorded.
func (w *walker) collectIdentifiers(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier", "type_identifier", "field_identifier":
		name := w.text(n)
		if isUpperStart(name) {
			line := w.line(n)
			lines := w.pf.Identifiers[name]
			if len(lines) == 0 || lines[len(lines)-1] != line {
				w.pf.Identifiers[name] = append(lines, line)
			}
		}
	}
	for _, c := range children(n) {
		w.collectIdentifiers(c)
	}
}
