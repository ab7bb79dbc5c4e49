package extract

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/repomap-dev/repomap/internal/types"
)

// walkRust performs the pre-order Rust traversal (§4.5). It iterates n's
// direct children in source order, tracking any #[derive(...)] attribute
// as pending state that attaches to the very next struct/enum sibling —
// attribute attachment is a sibling relationship in the grammar, not a
// parent/child one, so the accumulator lives in this loop rather than
// being threaded down into each node's own children.
func (w *walker) walkRust(n *tree_sitter.Node, owner string) {
	if n == nil {
		return
	}
	var pendingDerives []string
	for _, c := range children(n) {
		if c.Kind() == "attribute_item" {
			if d := derivesFrom(w, c); d != nil {
				pendingDerives = d
			}
			continue
		}
		w.dispatchRustItem(c, pendingDerives, owner)
		pendingDerives = nil
	}
}

// dispatchRustItem handles one item-level node: modules, functions,
// struct/enum/trait/impl, const/static, type aliases, macro definitions,
// and use declarations. Every other node kind (expressions, statements
// not otherwise recognized) is descended into unconditionally so nested
// items and further sibling sequences are still found.
func (w *walker) dispatchRustItem(n *tree_sitter.Node, derives []string, owner string) {
	switch n.Kind() {
	case "function_item":
		w.rustFunction(n, owner) // body already walked by rustFunction for calls/errors/safety
		return
	case "struct_item":
		w.rustStruct(n, derives)
		return
	case "enum_item":
		w.rustEnum(n, derives)
		return
	case "trait_item":
		name := w.rustTrait(n)
		w.walkRust(n.ChildByFieldName("body"), name)
		return
	case "impl_item":
		w.rustImpl(n)
		return
	case "const_item":
		w.rustConst(n)
		return
	case "static_item":
		w.rustStatic(n)
		return
	case "type_item":
		w.rustTypeAlias(n)
		return
	case "macro_definition":
		w.rustMacroDef(n)
		return
	case "mod_item":
		w.rustMod(n)
		w.walkRust(n.ChildByFieldName("body"), owner)
		return
	case "use_declaration":
		w.rustImport(n)
		return
	}
	w.walkRust(n, owner)
}

// derivesFrom collects #[derive(...)] attribute text immediately
// preceding a struct/enum item, so the next sibling call sees it.
func derivesFrom(w *walker, n *tree_sitter.Node) []string {
	text := w.text(n)
	if !strings.Contains(text, "derive") {
		return nil
	}
	start := strings.Index(text, "(")
	end := strings.LastIndex(text, ")")
	if start < 0 || end <= start {
		return nil
	}
	parts := strings.Split(text[start+1:end], ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func (w *walker) rustVisibility(n *tree_sitter.Node) types.Visibility {
	for _, c := range children(n) {
		if c.Kind() == "visibility_modifier" {
			text := w.text(c)
			if text == "pub" {
				return types.VisibilityPublic
			}
			return types.VisibilityCrateScoped
		}
	}
	return types.VisibilityModulePrivate
}

func (w *walker) rustFunction(n *tree_sitter.Node, owner string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := w.text(nameNode)
	body := n.ChildByFieldName("body")
	isAsync := rustHasAsyncModifier(w, n)

	sym := types.Symbol{
		Name:       name,
		Kind:       types.KindFunction,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Signature:  w.signatureBeforeBody(n, body),
		Owner:      owner,
		Function: &types.FunctionInfo{
			Signature: w.signatureBeforeBody(n, body),
			IsAsync:   isAsync,
			Body:      w.summarizeBody(body),
		},
	}
	w.pf.Symbols = append(w.pf.Symbols, sym)

	if body != nil {
		if call := w.extractCalls(body, name, sym.Line); call != nil {
			w.pf.Calls = append(w.pf.Calls, *call)
		}
		w.pf.Errors.Origins = append(w.pf.Errors.Origins, w.extractErrorOrigins(n, body, name, types.LanguageRust)...)
		w.pf.Safety.Sites = append(w.pf.Safety.Sites, w.extractSafetySites(n, body, types.LanguageRust, isAsync)...)
	}

	// Nested items (closures aside, Rust allows nested fn/struct/etc
	// inside a function body) still deserve their own symbols. They
	// don't inherit the enclosing impl/trait/class as their own owner.
	if body != nil {
		w.walkRust(body, "")
	}
}

// rustHasAsyncModifier reports whether a function_item carries the async
// keyword. The grammar has no dedicated "is async" field, so this checks
// for a literal "async" token among the node's direct children, which
// precede the function name for every async fn.
func rustHasAsyncModifier(w *walker, n *tree_sitter.Node) bool {
	nameStart := uint(0)
	if nm := n.ChildByFieldName("name"); nm != nil {
		nameStart = nm.StartByte()
	}
	for _, c := range children(n) {
		if c.StartByte() >= nameStart && nameStart != 0 {
			break
		}
		if w.text(c) == "async" {
			return true
		}
	}
	return false
}

func (w *walker) rustStruct(n *tree_sitter.Node, derives []string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	var fields []string
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range children(body) {
			if c.Kind() == "field_declaration" {
				if fn := c.ChildByFieldName("name"); fn != nil {
					fields = append(fields, w.text(fn))
				}
			}
		}
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindStruct,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Signature:  normalizeWhitespace(w.text(n)),
		Struct:     &types.StructInfo{Fields: fields, Derives: derives},
	})
}

func (w *walker) rustEnum(n *tree_sitter.Node, derives []string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	var variants []string
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range children(body) {
			if c.Kind() == "enum_variant" {
				if vn := c.ChildByFieldName("name"); vn != nil {
					variants = append(variants, w.text(vn))
				}
			}
		}
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindEnum,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Enum:       &types.EnumInfo{Variants: variants, Derives: derives},
	})
}

// rustTrait records the trait symbol and returns its name, which becomes
// the Owner of any default method bodies declared in its body.
func (w *walker) rustTrait(n *tree_sitter.Node) string {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return ""
	}
	var methods []string
	if body := n.ChildByFieldName("body"); body != nil {
		for _, c := range children(body) {
			if c.Kind() == "function_signature_item" || c.Kind() == "function_item" {
				if mn := c.ChildByFieldName("name"); mn != nil {
					methods = append(methods, w.text(mn))
				}
			}
		}
	}
	var supertraits []string
	if bounds := n.ChildByFieldName("bounds"); bounds != nil {
		supertraits = append(supertraits, strings.Split(normalizeWhitespace(w.text(bounds)), "+")...)
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindTrait,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Trait:      &types.TraitInfo{Methods: methods, Supertraits: supertraits},
	})
	return w.text(nameNode)
}

func (w *walker) rustImpl(n *tree_sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	traitNode := n.ChildByFieldName("trait")
	typeName := ""
	if typeNode != nil {
		typeName = w.text(typeNode)
	}
	traitName := ""
	if traitNode != nil {
		traitName = w.text(traitNode)
	}

	var methods []string
	body := n.ChildByFieldName("body")
	if body != nil {
		for _, c := range children(body) {
			if c.Kind() == "function_item" {
				if mn := c.ChildByFieldName("name"); mn != nil {
					methods = append(methods, w.text(mn))
				}
			}
		}
	}

	name := typeName
	if traitName != "" {
		name = traitName + " for " + typeName
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name: name,
		Kind: types.KindImpl,
		Line: w.line(n),
		Doc:  w.docCommentBefore(n),
		Impl: &types.ImplInfo{TypeName: typeName, TraitName: traitName, Methods: methods},
	})

	if body != nil {
		w.walkRust(body, typeName)
	}
}

func (w *walker) rustConst(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	typeName, value := "", ""
	if t := n.ChildByFieldName("type"); t != nil {
		typeName = w.text(t)
	}
	if v := n.ChildByFieldName("value"); v != nil {
		value = w.text(v)
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindConst,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Const:      &types.ConstInfo{TypeName: typeName, Value: value},
	})
}

func (w *walker) rustStatic(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	typeName := ""
	if t := n.ChildByFieldName("type"); t != nil {
		typeName = w.text(t)
	}
	isMut := false
	for _, c := range children(n) {
		if c.Kind() == "mutable_specifier" {
			isMut = true
		}
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindStatic,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Static:     &types.StaticInfo{TypeName: typeName, IsMut: isMut},
	})
}

func (w *walker) rustTypeAlias(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	target := ""
	if t := n.ChildByFieldName("type"); t != nil {
		target = w.text(t)
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindTypeAlias,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		TypeAlias:  &types.TypeAliasInfo{Target: target},
	})
}

func (w *walker) rustMacroDef(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:  w.text(nameNode),
		Kind:  types.KindMacro,
		Line:  w.line(n),
		Doc:   w.docCommentBefore(n),
		Macro: &types.MacroInfo{Kind: "declarative"},
	})
}

func (w *walker) rustMod(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	body := n.ChildByFieldName("body")
	w.pf.Symbols = append(w.pf.Symbols, types.Symbol{
		Name:       w.text(nameNode),
		Kind:       types.KindModule,
		Line:       w.line(n),
		Visibility: w.rustVisibility(n),
		Doc:        w.docCommentBefore(n),
		Module:     &types.ModuleInfo{IsInline: body != nil},
	})
}

func (w *walker) rustImport(n *tree_sitter.Node) {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	source := normalizeWhitespace(w.text(arg))
	group := types.ImportExternal
	switch {
	case strings.HasPrefix(source, "std::") || strings.HasPrefix(source, "core::") || strings.HasPrefix(source, "alloc::"):
		group = types.ImportStd
	case strings.HasPrefix(source, "crate::") || strings.HasPrefix(source, "self::") || strings.HasPrefix(source, "super::"):
		group = types.ImportInternal
	}
	w.pf.Imports = append(w.pf.Imports, types.Import{
		Source: source,
		Group:  group,
		Line:   w.line(n),
	})
}
