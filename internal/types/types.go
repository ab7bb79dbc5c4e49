// Package types holds the data model shared across the capture pipeline:
// the per-file record, the parsed-file product, symbols and their kinds,
// imports, call edges, error/safety info, and the workspace-level types
// built by Phase 2. Nothing in this package performs I/O or parsing; it
// is pure data plus the small helpers (sorting, equality) the rest of
// the pipeline needs to stay deterministic.
package types

import "sort"

// Language tags a source file by the grammar that should parse it.
type Language string

const (
	LanguageRust    Language = "rust"
	LanguagePython  Language = "python"
	LanguageUnknown Language = "unknown"
)

// LanguageForExt maps a file extension (with leading dot) to a Language.
func LanguageForExt(ext string) Language {
	switch ext {
	case ".rs":
		return LanguageRust
	case ".py":
		return LanguagePython
	default:
		return LanguageUnknown
	}
}

// SkipReason explains why a file produced no ParsedFile.
type SkipReason string

const (
	SkipIOError              SkipReason = "io_error"
	SkipOversize             SkipReason = "oversize"
	SkipParseError           SkipReason = "parse_error"
	SkipUnsupportedLanguage  SkipReason = "unsupported_language"
)

// FileRecord is the walker/cache's view of one candidate file: it exists
// iff the walker found the file, and its outcome is exactly one of a
// successful ParsedFile or a skip reason (never both, never neither).
type FileRecord struct {
	Path     string // repo-relative, forward-slash
	Language Language
	Size     int64
	ModTime  int64 // unix nanoseconds; avoids importing time into hot structs
	Hash     uint64

	Parsed *ParsedFile
	Cached bool // Parsed came from the cache rather than a fresh parse
	Skip    SkipReason
	SkipErr error // underlying cause, when Skip != ""
}

// Outcome reports which of the three mutually exclusive states a record is in.
func (r *FileRecord) Outcome() string {
	switch {
	case r.Parsed != nil:
		return "parsed"
	case r.Skip != "":
		return "skipped"
	default:
		return "pending"
	}
}

// Visibility is the syntactic export marker found on a symbol.
type Visibility uint8

const (
	VisibilityModulePrivate Visibility = iota // no marker found
	VisibilityCrateScoped                    // Rust pub(crate)/pub(super) etc.
	VisibilityPublic                         // Rust pub, Python module-top-level / no leading underscore
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityCrateScoped:
		return "crate-scoped"
	default:
		return "module-private"
	}
}

// SymbolKind distinguishes the shape of a Symbol (§3 Kind variants).
type SymbolKind uint8

const (
	KindFunction SymbolKind = iota
	KindStruct
	KindEnum
	KindTrait
	KindImpl
	KindConst
	KindStatic
	KindTypeAlias
	KindMacro
	KindModule
	KindClass // Python: replaces Struct/Trait/Impl
)

func (k SymbolKind) String() string {
	switch k {
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindImpl:
		return "impl"
	case KindConst:
		return "const"
	case KindStatic:
		return "static"
	case KindTypeAlias:
		return "type_alias"
	case KindMacro:
		return "macro"
	case KindModule:
		return "module"
	case KindClass:
		return "class"
	default:
		return "unknown"
	}
}

// BodySummary is the per-function complexity/flag digest described in §3.
type BodySummary struct {
	Lines              int
	Cyclomatic         int
	HasUnsafe          bool
	HasAwait           bool
	HasPanic           bool
	HasFallibleProp    bool // `?` or raise-or-propagate
}

// FunctionInfo holds the Function-kind payload.
type FunctionInfo struct {
	Signature string
	IsAsync   bool
	Body      *BodySummary // nil if the function has no discoverable body (e.g. trait method decl)
}

// StructInfo holds the Struct-kind payload (Rust).
type StructInfo struct {
	Fields  []string
	Derives []string
}

// EnumInfo holds the Enum-kind payload (Rust).
type EnumInfo struct {
	Variants []string
	Derives  []string
}

// TraitInfo holds the Trait-kind payload (Rust).
type TraitInfo struct {
	Methods      []string
	Supertraits  []string
}

// ImplInfo holds the Impl-kind payload (Rust).
type ImplInfo struct {
	TypeName  string
	TraitName string // empty for an inherent impl
	Methods   []string
}

// ConstInfo holds the Const-kind payload.
type ConstInfo struct {
	TypeName string
	Value    string // empty if not literally present in source
}

// StaticInfo holds the Static-kind payload (Rust).
type StaticInfo struct {
	TypeName string
	IsMut    bool
}

// TypeAliasInfo holds the TypeAlias-kind payload.
type TypeAliasInfo struct {
	Target string
}

// MacroInfo holds the Macro-kind payload.
type MacroInfo struct {
	Kind string // e.g. "declarative", "derive", "attribute", "decorator"
}

// ModuleInfo holds the Module-kind payload (Rust `mod`).
type ModuleInfo struct {
	IsInline bool
}

// ClassInfo holds the Class-kind payload (Python; replaces Struct/Trait/Impl).
type ClassInfo struct {
	Bases      []string
	Methods    []string
	IsProtocol bool
	IsABC      bool
}

// Symbol is one declaration extracted from a file (§3 Symbol).
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Line       int
	Visibility Visibility
	Doc        string // doc comment immediately preceding the symbol, if any
	Signature  string // present for kinds that carry signature text
	Owner      string // enclosing impl/trait/class name, if any ("" at top level)

	Function  *FunctionInfo
	Struct    *StructInfo
	Enum      *EnumInfo
	Trait     *TraitInfo
	Impl      *ImplInfo
	Const     *ConstInfo
	Static    *StaticInfo
	TypeAlias *TypeAliasInfo
	Macro     *MacroInfo
	Module    *ModuleInfo
	Class     *ClassInfo
}

// ImportGroup classifies where an import's target lives.
type ImportGroup string

const (
	ImportExternal ImportGroup = "external"
	ImportInternal ImportGroup = "internal"
	ImportStd      ImportGroup = "std"
)

// Import is one use/import statement (§3 Import).
type Import struct {
	Source  string // dotted or colon-separated source path
	Items   []string
	Alias   string
	Group   ImportGroup
	Line    int
}

// CallEdge is one call site within a CallInfo (§3 CallEdge).
type CallEdge struct {
	TargetName    string // rightmost path segment only
	ReceiverType  string // best-effort; empty means unknown
	IsAsync       bool
	IsFallible    bool
	Line          int
}

// CallInfo groups the call edges issued by one caller symbol (§3 CallInfo).
type CallInfo struct {
	CallerName string
	CallerLine int
	Edges      []CallEdge
}

// ErrorOrigin records one place a function signature or body admits failure.
type ErrorOrigin struct {
	FunctionName string
	Line         int
	Kind         string // "result_return", "option_return", "question_mark", "explicit_err", "raise", "assert"
	ExceptionType string // Python: statically visible exception class name, if any
}

// ErrorInfo is the per-file error-flow payload (§3 ParsedFile.ErrorInfo).
type ErrorInfo struct {
	Origins []ErrorOrigin
}

// SafetyKind enumerates the disjoint safety-site kinds (§4.12).
type SafetyKind string

const (
	SafetyUnsafeBlock    SafetyKind = "unsafe_block"
	SafetyExplicitPanic  SafetyKind = "explicit_panic"
	SafetyIndexOp        SafetyKind = "index_op"
	SafetyAsyncFn        SafetyKind = "async_fn"
	SafetyDangerousCall  SafetyKind = "dangerous_call"
)

// SafetySite is one flagged location.
type SafetySite struct {
	Kind      SafetyKind
	Line      int
	EndLine   int // unsafe blocks carry a span; other kinds repeat Line
	Detail    string // e.g. the dangerous call's dotted name
}

// SafetyInfo is the per-file safety payload (§3/§4.12).
type SafetyInfo struct {
	Sites []SafetySite
}

// IdentifierOccurrence is one line on which a PascalCase identifier appears,
// consulted only by the Phase 2 reference resolver.
type IdentifierOccurrence struct {
	Identifier string
	Line       int
}

// ParsedFile is the per-file product of the Extractor (§3 ParsedFile).
type ParsedFile struct {
	Path       string
	Language   Language
	Symbols    []Symbol
	Imports    []Import
	Calls      []CallInfo
	Errors     ErrorInfo
	Safety     SafetyInfo
	Complexity int // file-level complexity total (sum of function cyclomatic counts)

	// Identifiers maps a normalized PascalCase identifier to the sorted set
	// of lines it occurs on. Only consulted by the reference resolver.
	Identifiers map[string][]int
}

// SortedSymbols returns Symbols sorted by line (stable, ascending) — callers
// that need deterministic emission order should use this rather than the
// raw field, since extraction order is tree-walk order, not line order,
// for a small number of synthesized symbols (e.g. impl-block methods).
func (p *ParsedFile) SortedSymbols() []Symbol {
	out := make([]Symbol, len(p.Symbols))
	copy(out, p.Symbols)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// PackageKind classifies a workspace member (§3 WorkspaceInfo).
type PackageKind string

const (
	PackageBin     PackageKind = "bin"
	PackageLib     PackageKind = "lib"
	PackageExample PackageKind = "example"
	PackageBench   PackageKind = "bench"
	PackagePython  PackageKind = "package"
)

// Member is one workspace member package.
type Member struct {
	Name string
	Kind PackageKind
	Root string // path relative to the workspace root
}

// WorkspaceInfo is the project-detector's output (§3 WorkspaceInfo; the
// detector itself is an out-of-core collaborator — see internal/workspace).
type WorkspaceInfo struct {
	Root         string
	LanguageMix  []Language
	Members      []Member
}

// PackageFor returns the workspace member that owns path, or "" if none
// matches (path falls outside every known member root). The longest
// matching member root wins, so a nested member shadows its parent.
func (w *WorkspaceInfo) PackageFor(path string) string {
	best := ""
	bestLen := -1
	for _, m := range w.Members {
		if m.Root == "" {
			continue
		}
		matchLen := len(m.Root)
		if m.Root == "." {
			matchLen = 0 // the workspace root owns every path
		} else if path != m.Root && !(len(path) > len(m.Root) && path[:len(m.Root)] == m.Root && path[len(m.Root)] == '/') {
			continue
		}
		if matchLen > bestLen {
			best = m.Name
			bestLen = matchLen
		}
	}
	return best
}

// SymbolRef indexes a symbol without owning it — a {file, line, name} triple.
type SymbolRef struct {
	File string
	Line int
	Name string
}

// SymbolTable is the Phase 2 global index from a type-shaped identifier to
// its owner(s) (§3 SymbolTable). Built fresh each run, discarded after
// analysis.
type SymbolTable struct {
	Owners map[string][]SymbolRef // identifier -> all owning symbols (len > 1 ⇒ ambiguous)
}

// NewSymbolTable creates an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{Owners: make(map[string][]SymbolRef)}
}

// IsAmbiguous reports whether identifier has more than one owner.
func (t *SymbolTable) IsAmbiguous(identifier string) bool {
	return len(t.Owners[identifier]) > 1
}

// CaptureResult is the Phase-1 Aggregator's output (§2 item 6, §6).
type CaptureResult struct {
	RunID   string // unique identifier for this capture run, persisted in the cache's meta record
	Files   []*FileRecord
	Parsed  int
	Cached  int
	Skipped []*FileRecord
}

// CacheEntry is the persisted unit the cache's two-tier invalidation
// checks against (§3 CacheEntry). ContentHash is the hex-encoded blake3
// digest; it is only populated/consulted on a fast-path miss.
type CacheEntry struct {
	Path        string
	Size        int64
	ModTime     int64 // unix nanoseconds
	ContentHash string
	Parsed      *ParsedFile
}

// SortFiles orders Files by path ascending, satisfying the "stable output
// ordering regardless of task completion order" guarantee in §5.
func (c *CaptureResult) SortFiles() {
	sort.Slice(c.Files, func(i, j int) bool { return c.Files[i].Path < c.Files[j].Path })
	sort.Slice(c.Skipped, func(i, j int) bool { return c.Skipped[i].Path < c.Skipped[j].Path })
}
