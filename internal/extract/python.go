package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// pythonStdlibPrefixes is a best-effort set used only to classify import
// groups; it is deliberately not exhaustive.
var pythonStdlibPrefixes = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "typing": true,
	"collections": true, "itertools": true, "functools": true, "asyncio": true,
	"pathlib": true, "subprocess": true, "logging": true, "dataclasses": true,
	"abc": true, "enum": true, "unittest": true, "threading": true,
	"multiprocessing": true, "socket": true, "http": true, "urllib": true,
	"math": true, "random": true, "string": true, "io": true, "time": true,
	"datetime": true, "contextlib": true, "inspect": true, "copy": true,
	"pickle": true, "ctypes": true, "traceback": true, "shutil": true,
}

// walkPython performs the pre-order Python traversal (§4.5): module-level
// walk dispatching on function_definition, class_definition,
// decorated_definition, import statements, and assignments at module
// scope (treated as module-level constants).
func (w *walker) walkPython(n *tree_sitter.Node, decorators []string, owner string) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "decorated_definition":
		defn := n.ChildByFieldName("definition")
		w.walkPython(defn, pythonDecoratorNames(w, n), owner)
		return
	case "function_definition":
		w.pythonFunction(n, decorators, owner)
		return
	case "class_definition":
		w.pythonClass(n, decorators)
		return
	case "import_statement", "import_from_statement":
		w.pythonImport(n)
	case "assignment":
		if stmt := n.Parent(); stmt != nil && stmt.Kind() == "expression_statement" && stmt.Parent() != nil && stmt.Parent().Kind() == "module" {
			if left := n.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
				info := &types.ConstInfo{}
				if t := n.ChildByFieldName("type"); t != nil {
					info.TypeName = w.text(t)
				}
				if r := n.ChildByFieldName("right"); r != nil {
					info.Value = w.text(r)
				}
				name := w.text(left)
				w.pf.Symbols = append(w.pf.Symbols, types.Symbol{Name: name, Kind: types.KindConst, Line: w.line(n), Visibility: pythonVisibility(name), Const: info})
			}
		}
	}

	for _, c := range children(n) {
		w.walkPython(c, nil, owner)
	}
}

func pythonDecoratorNames(w *walker, decorated *tree_sitter.Node) []string {
	var out []string
	for _, c := range children(decorated) {
		if c.Kind() == "decorator" {
			out = append(out, strings.TrimPrefix(normalizeWhitespace(w.text(c)), "@"))
		}
	}
	return out
}

func pythonVisibility(name string) types.Visibility {
	if strings.HasPrefix(name, "_") {
		return types.VisibilityModulePrivate
	}
	return types.VisibilityPublic
}

func (w *walker) pythonFunction(n *tree_sitter.Node, decorators []string, owner string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	body := n.ChildByFieldName("body")
	isAsync := pythonHasAsyncKeyword(w, n)

	sig := w.signatureBeforeBody(n, body) // same "up to body" slicing rule applies
	if len(decorators) > 0 {
		sig = "@" + strings.Join(decorators, " @") + " " + sig
	}
	sym := types.Symbol{
		Name:       name,
		Kind:       types.KindFunction,
		Line:       w.line(n),
		Visibility: pythonVisibility(name),
		Doc:        pythonDocstring(w, body),
		Signature:  sig,
		Owner:      owner,
		Function: &types.FunctionInfo{
			Signature: sig,
			IsAsync:   isAsync,
			Body:      w.summarizeBody(body),
		},
	}
	w.pf.Symbols = append(w.pf.Symbols, sym)

	if body != nil {
		if call := w.extractCalls(body, name, sym.Line); call != nil {
			w.pf.Calls = append(w.pf.Calls, *call)
		}
		w.pf.Errors.Origins = append(w.pf.Errors.Origins, w.extractErrorOrigins(n, body, name, types.LanguagePython)...)
		w.pf.Safety.Sites = append(w.pf.Safety.Sites, w.extractSafetySites(n, body, types.LanguagePython, isAsync)...)
		w.walkPython(body, nil, "") // nested defs still get their own symbols, not this function's owner
	}
}

func pythonHasAsyncKeyword(w *walker, n *tree_sitter.Node) bool {
	for _, c := range children(n) {
		if c.Kind() == "name" || c.Kind() == "identifier" {
			break
		}
		if w.text(c) == "async" {
			return true
		}
	}
	return false
}

// pythonDocstring returns the first statement of body if it is a bare
// string expression, matching Python's documentation-comment convention.
func pythonDocstring(w *walker, body *tree_sitter.Node) string {
	if body == nil {
		return ""
	}
	for _, c := range children(body) {
		if c.Kind() != "expression_statement" {
			continue
		}
		for _, gc := range children(c) {
			if gc.Kind() == "string" {
				return strings.TrimSpace(w.text(gc))
			}
		}
		return ""
	}
	return ""
}

func (w *walker) pythonClass(n *tree_sitter.Node, decorators []string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)

	var bases []string
	isProtocol, isABC := false, false
	if sc := n.ChildByFieldName("superclasses"); sc != nil {
		for _, c := range children(sc) {
			if c.Kind() == "identifier" || c.Kind() == "attribute" {
				base := w.text(c)
				bases = append(bases, base)
				seg := rightmostSegment(base)
				if seg == "Protocol" {
					isProtocol = true
				}
				if seg == "ABC" || strings.HasPrefix(seg, "ABCMeta") {
					isABC = true
				}
			}
		}
	}

	var methods []string
	body := n.ChildByFieldName("body")
	if body != nil {
		for _, c := range children(body) {
			target := c
			if c.Kind() == "decorated_definition" {
				target = c.ChildByFieldName("definition")
			}
			if target != nil && target.Kind() == "function_definition" {
				if mn := target.ChildByFieldName("name"); mn != nil {
					methods = append(methods, w.text(mn))
				}
			}
		}
	}

	sig := name
	if len(decorators) > 0 {
		sig = "@" + strings.Join(decorators, " @") + " class " + name
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       name,
		Kind:       types.KindClass,
		Line:       w.line(n),
		Visibility: pythonVisibility(name),
		Doc:        pythonDocstring(w, body),
		Signature:  sig,
		Class:      &types.ClassInfo{Bases: bases, Methods: methods, IsProtocol: isProtocol, IsABC: isABC},
	})

	if body != nil {
		w.walkPython(body, nil, name)
	}
}

func (w *walker) pythonImport(n *tree_sitter.Node) {
	switch n.Kind() {
	case "import_statement":
		for _, c := range children(n) {
			if c.Kind() == "dotted_name" || c.Kind() == "aliased_import" {
				source := normalizeWhitespace(w.text(c))
				w.pf.Imports = append(w.pf.Imports, types.Import{
					Source: source,
					Group:  pythonImportGroup(source),
					Line:   w.line(n),
				})
			}
		}
	case "import_from_statement":
		moduleNode := n.ChildByFieldName("module_name")
		source := ""
		if moduleNode != nil {
			source = normalizeWhitespace(w.text(moduleNode))
		}
		var items []string
		for _, c := range children(n) {
			if c.Kind() == "dotted_name" && c != moduleNode || c.Kind() == "identifier" {
				items = append(items, w.text(c))
			}
		}
		w.pf.Imports = append(w.pf.Imports, types.Import{
			Source: source,
			Items:  items,
			Group:  pythonImportGroup(source),
			Line:   w.line(n),
		})
	}
}

func pythonImportGroup(source string) types.ImportGroup {
	if strings.HasPrefix(source, ".") {
		return types.ImportInternal
	}
	root := source
	if i := strings.Index(root, "."); i >= 0 {
		root = root[:i]
	}
	if pythonStdlibPrefixes[root] {
		return types.ImportStd
	}
	return types.ImportExternal
}
