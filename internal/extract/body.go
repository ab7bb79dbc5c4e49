package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// rustPanicMacros are the panic-shaped macro names that set HasPanic.
var rustPanicMacros = map[string]bool{
	"panic": true, "unreachable": true, "unimplemented": true, "todo": true,
}

// summarizeBody walks a function body subtree and produces the BodySummary
// described in §4.5: line span, cyclomatic complexity, and the four
// presence flags.
func (w *walker) summarizeBody(body *tree_sitter.Node) *types.BodySummary {
	if body == nil {
		return nil
	}
	s := &types.BodySummary{
		Lines: int(body.EndPosition().Row) - int(body.StartPosition().Row) + 1,
	}
	cyclomatic := 1
	w.walkBody(body, &cyclomatic, s)
	s.Cyclomatic = cyclomatic
	return s
}

func (w *walker) walkBody(n *tree_sitter.Node, cyclomatic *int, s *types.BodySummary) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "if_expression", "if_statement", "elif_clause", "if_let_expression":
		*cyclomatic++
	case "for_expression", "while_expression", "loop_expression",
		"for_statement", "while_statement":
		*cyclomatic++
	case "try_expression":
		*cyclomatic++
		s.HasFallibleProp = true
	case "except_clause":
		*cyclomatic++
	case "binary_expression":
		if op := w.operatorOf(n); op == "&&" || op == "||" {
			*cyclomatic++
		}
	case "boolean_operator":
		*cyclomatic++
	case "match_arm":
		if n.Parent() != nil && isFirstOfKind(n.Parent(), n, "match_arm") {
			// first arm costs nothing extra; later arms each add a branch.
		} else {
			*cyclomatic++
		}
	case "unsafe_block":
		s.HasUnsafe = true
	case "await_expression", "await":
		s.HasAwait = true
	case "macro_invocation":
		if rustPanicMacros[w.macroName(n)] {
			s.HasPanic = true
		}
	case "raise_statement":
		s.HasPanic = true
	case "call", "call_expression":
		if name := w.callTargetName(n); name == "panic" || name == "exit" {
			s.HasPanic = true
		}
	}

	for _, c := range children(n) {
		w.walkBody(c, cyclomatic, s)
	}
}

// operatorOf returns the operator token text of a binary_expression, found
// via its "operator" field when the grammar exposes one, else by scanning
// for the first non-operand child whose text is a bare operator symbol.
func (w *walker) operatorOf(n *tree_sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return w.text(op)
	}
	for _, c := range children(n) {
		t := w.text(c)
		if t == "&&" || t == "||" {
			return t
		}
	}
	return ""
}

func isFirstOfKind(parent, target *tree_sitter.Node, kind string) bool {
	for _, c := range children(parent) {
		if c.Kind() == kind {
			return c.StartByte() == target.StartByte()
		}
	}
	return false
}

// macroName returns the invoked macro's bare name (Rust `name!(...)`).
func (w *walker) macroName(n *tree_sitter.Node) string {
	if m := n.ChildByFieldName("macro"); m != nil {
		return w.text(m)
	}
	return ""
}

// callTargetName returns the rightmost path segment of a call expression's
// callee, e.g. `std::process::exit` -> "exit", `obj.method` -> "method".
func (w *walker) callTargetName(n *tree_sitter.Node) string {
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return ""
	}
	return rightmostSegment(w.text(fn))
}

func rightmostSegment(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexAny(s, ".:"); i >= 0 {
		return strings.TrimLeft(s[i+1:], ":")
	}
	return s
}
