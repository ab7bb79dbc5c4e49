package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// extractCalls walks a function body and records one CallEdge per call
// expression found in it (§4.5 call extraction). localTypes maps a
// locally bound name to its declared type text, used for the best-effort
// receiver-type inference on method calls.
func (w *walker) extractCalls(body *tree_sitter.Node, callerName string, callerLine int) *types.CallInfo {
	if body == nil {
		return nil
	}
	localTypes := w.collectLocalTypes(body)
	info := &types.CallInfo{CallerName: callerName, CallerLine: callerLine}
	w.walkCalls(body, info, localTypes)
	if len(info.Edges) == 0 {
		return nil
	}
	return info
}

func (w *walker) walkCalls(n *tree_sitter.Node, info *types.CallInfo, localTypes map[string]string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "call_expression", "call":
		fn := n.ChildByFieldName("function")
		if fn != nil {
			edge := types.CallEdge{
				TargetName: rightmostSegment(w.text(fn)),
				Line:       w.line(n),
				IsAsync:    hasAwaitAncestor(n),
				IsFallible: parentIsTry(n),
			}
			if recv, ok := receiverOf(fn); ok {
				if t, known := localTypes[w.text(recv)]; known {
					edge.ReceiverType = t
				}
			}
			info.Edges = append(info.Edges, edge)
		}
	}
	for _, c := range children(n) {
		w.walkCalls(c, info, localTypes)
	}
}

// receiverOf extracts the receiver sub-expression of a method-call
// callee, i.e. the `x` in `x.method`. Returns ok=false for a free
// function or path call with no dotted receiver.
func receiverOf(fn *tree_sitter.Node) (*tree_sitter.Node, bool) {
	switch fn.Kind() {
	case "field_expression":
		if v := fn.ChildByFieldName("value"); v != nil && v.Kind() == "identifier" {
			return v, true
		}
	case "attribute":
		if o := fn.ChildByFieldName("object"); o != nil && o.Kind() == "identifier" {
			return o, true
		}
	}
	return nil, false
}

// collectLocalTypes scans a function body for `let name: Type = ...`
// (Rust) and `name: Type = ...` annotated assignment (Python) bindings,
// giving the best-effort receiver-type table the spec allows.
func (w *walker) collectLocalTypes(body *tree_sitter.Node) map[string]string {
	out := make(map[string]string)
	w.walkLocalTypes(body, out)
	return out
}

func (w *walker) walkLocalTypes(n *tree_sitter.Node, out map[string]string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "let_declaration":
		pat := n.ChildByFieldName("pattern")
		typ := n.ChildByFieldName("type")
		if pat != nil && typ != nil && pat.Kind() == "identifier" {
			out[w.text(pat)] = strings.TrimSpace(w.text(typ))
		}
	case "assignment":
		// tree-sitter-python exposes an annotated assignment's declared
		// type via a "type" field on the assignment node itself.
		left := n.ChildByFieldName("left")
		typ := n.ChildByFieldName("type")
		if left != nil && typ != nil && left.Kind() == "identifier" {
			out[w.text(left)] = strings.TrimSpace(w.text(typ))
		}
	}
	for _, c := range children(n) {
		w.walkLocalTypes(c, out)
	}
}

func hasAwaitAncestor(n *tree_sitter.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "await_expression", "await":
			return true
		case "function_item", "function_definition":
			return false
		}
	}
	return false
}

func parentIsTry(n *tree_sitter.Node) bool {
	p := n.Parent()
	return p != nil && p.Kind() == "try_expression"
}
