package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// pythonDangerousPrefixes are the statically known dangerous call targets
// flagged by safety extraction (§4.5). Keys are dotted prefixes matched
// against the callee text as extracted (not just the final segment,
// since e.g. subprocess.run must be distinguished from an unrelated run).
var pythonDangerousPrefixes = []string{
	"eval", "exec", "subprocess.", "pickle.", "ctypes.",
}

// extractErrorOrigins records the per-function error-flow sites: Rust
// Result/Option signatures, `?` sites, explicit Err(...) returns; Python
// raise/assert statements with their exception type when visible.
func (w *walker) extractErrorOrigins(fn, body *tree_sitter.Node, name string, lang types.Language) []types.ErrorOrigin {
	var origins []types.ErrorOrigin

	if lang == types.LanguageRust {
		if ret := fn.ChildByFieldName("return_type"); ret != nil {
			text := w.text(ret)
			if strings.HasPrefix(text, "Result") {
				origins = append(origins, types.ErrorOrigin{FunctionName: name, Line: w.line(fn), Kind: "result_return"})
			} else if strings.HasPrefix(text, "Option") {
				origins = append(origins, types.ErrorOrigin{FunctionName: name, Line: w.line(fn), Kind: "option_return"})
			}
		}
	}

	if body != nil {
		w.walkErrorSites(body, name, lang, &origins)
	}
	return origins
}

func (w *walker) walkErrorSites(n *tree_sitter.Node, name string, lang types.Language, origins *[]types.ErrorOrigin) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "try_expression":
		*origins = append(*origins, types.ErrorOrigin{FunctionName: name, Line: w.line(n), Kind: "question_mark"})
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil && rightmostSegment(w.text(fn)) == "Err" {
			*origins = append(*origins, types.ErrorOrigin{FunctionName: name, Line: w.line(n), Kind: "explicit_err"})
		}
	case "raise_statement":
		o := types.ErrorOrigin{FunctionName: name, Line: w.line(n), Kind: "raise"}
		if exc := raiseExceptionType(w, n); exc != "" {
			o.ExceptionType = exc
		}
		*origins = append(*origins, o)
	case "assert_statement":
		*origins = append(*origins, types.ErrorOrigin{FunctionName: name, Line: w.line(n), Kind: "assert"})
	}
	for _, c := range children(n) {
		w.walkErrorSites(c, name, lang, origins)
	}
}

// raiseExceptionType extracts the statically visible exception class
// name from a Python `raise Foo(...)` / `raise Foo` statement, or "" if
// the raised expression isn't a simple call/identifier (e.g. `raise`
// bare re-raise, or a computed exception instance).
func raiseExceptionType(w *walker, raiseStmt *tree_sitter.Node) string {
	for _, c := range children(raiseStmt) {
		switch c.Kind() {
		case "call":
			if fn := c.ChildByFieldName("function"); fn != nil {
				return rightmostSegment(w.text(fn))
			}
		case "identifier", "attribute":
			return rightmostSegment(w.text(c))
		}
	}
	return ""
}

// extractSafetySites records unsafe blocks, dangerous calls, async
// function presence, and panic-shaped calls (§4.5/§4.12).
func (w *walker) extractSafetySites(fn, body *tree_sitter.Node, lang types.Language, isAsync bool) []types.SafetySite {
	var sites []types.SafetySite
	if isAsync {
		sites = append(sites, types.SafetySite{Kind: types.SafetyAsyncFn, Line: w.line(fn), EndLine: w.line(fn)})
	}
	if body != nil {
		w.walkSafetySites(body, lang, &sites)
	}
	return sites
}

func (w *walker) walkSafetySites(n *tree_sitter.Node, lang types.Language, sites *[]types.SafetySite) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "unsafe_block":
		*sites = append(*sites, types.SafetySite{
			Kind:    types.SafetyUnsafeBlock,
			Line:    w.line(n),
			EndLine: int(n.EndPosition().Row) + 1,
		})
	case "index_expression", "subscript":
		*sites = append(*sites, types.SafetySite{Kind: types.SafetyIndexOp, Line: w.line(n), EndLine: w.line(n)})
	case "macro_invocation":
		if name := w.macroName(n); name == "panic" || name == "unreachable" || name == "unimplemented" {
			*sites = append(*sites, types.SafetySite{Kind: types.SafetyExplicitPanic, Line: w.line(n), EndLine: w.line(n), Detail: name})
		}
	case "call", "call_expression":
		if fnNode := n.ChildByFieldName("function"); fnNode != nil {
			callee := w.text(fnNode)
			if lang == types.LanguagePython {
				if pfx := matchDangerousPrefix(callee); pfx != "" {
					*sites = append(*sites, types.SafetySite{Kind: types.SafetyDangerousCall, Line: w.line(n), EndLine: w.line(n), Detail: callee})
				}
			}
			if rightmostSegment(callee) == "panic" {
				*sites = append(*sites, types.SafetySite{Kind: types.SafetyExplicitPanic, Line: w.line(n), EndLine: w.line(n), Detail: callee})
			}
		}
	}
	for _, c := range children(n) {
		w.walkSafetySites(c, lang, sites)
	}
}

func matchDangerousPrefix(callee string) string {
	for _, p := range pythonDangerousPrefixes {
		if callee == strings.TrimSuffix(p, ".") || strings.HasPrefix(callee, p) {
			return p
		}
	}
	return ""
}
