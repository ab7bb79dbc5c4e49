package analysis

import (
	"github.com/repomap-dev/repomap/internal/types"
)

// funcRecord is the flattened, cross-file view of one function symbol
// that every analyzer in this package works from.
type funcRecord struct {
	File       string
	Line       int
	Name       string
	Owner      string // enclosing impl/trait/class name, "" at top level
	Package    string // workspace member, "" if unresolved
	Public     bool
	Cyclomatic int
	Lines      int
	Signature  string
	IsAsync    bool
	TypeNames  []string // non-primitive type names mentioned in Signature
}

// ownerIndex is the shared per-run index every analyzer consults: the
// flattened function list plus lookups by name and by (file,line).
type ownerIndex struct {
	funcs      []funcRecord
	byName     map[string][]*funcRecord
	byFile     map[string][]*funcRecord
	callCounts map[string]int            // target function name -> distinct caller count
	callsTo    map[string]map[string]bool // "file#callerName" -> set of target names
}

func indexOwners(files []*types.ParsedFile, ws *types.WorkspaceInfo) *ownerIndex {
	idx := &ownerIndex{
		byName:     make(map[string][]*funcRecord),
		byFile:     make(map[string][]*funcRecord),
		callCounts: countCallsByTarget(files),
		callsTo:    mapCallsByCaller(files),
	}

	for _, f := range files {
		pkg := ""
		if ws != nil {
			pkg = ws.PackageFor(f.Path)
		}
		for _, sym := range f.SortedSymbols() {
			if sym.Kind != types.KindFunction || sym.Function == nil {
				continue
			}
			rec := funcRecord{
				File:       f.Path,
				Line:       sym.Line,
				Name:       sym.Name,
				Owner:      sym.Owner,
				Package:    pkg,
				Public:     sym.Visibility == types.VisibilityPublic,
				Signature:  sym.Signature,
				IsAsync:    sym.Function.IsAsync,
				TypeNames:  signatureTypeNames(sym.Signature),
			}
			if sym.Function.Body != nil {
				rec.Cyclomatic = sym.Function.Body.Cyclomatic
				rec.Lines = sym.Function.Body.Lines
			}
			idx.funcs = append(idx.funcs, rec)
		}
	}

	// Pointers are taken only after every append finishes, since a
	// growing slice can reallocate and invalidate earlier addresses.
	for i := range idx.funcs {
		rec := &idx.funcs[i]
		idx.byName[rec.Name] = append(idx.byName[rec.Name], rec)
		idx.byFile[rec.File] = append(idx.byFile[rec.File], rec)
	}

	return idx
}

// countCallsByTarget counts, for every call target name, the number of
// distinct (file, callerName) pairs that issue a call edge to it — the
// best the aggregation can do without re-resolving receivers to a
// single definition.
func countCallsByTarget(files []*types.ParsedFile) map[string]int {
	seen := make(map[string]map[string]bool)
	for _, f := range files {
		for _, call := range f.Calls {
			for _, edge := range call.Edges {
				set, ok := seen[edge.TargetName]
				if !ok {
					set = make(map[string]bool)
					seen[edge.TargetName] = set
				}
				set[f.Path+"#"+call.CallerName] = true
			}
		}
	}
	counts := make(map[string]int, len(seen))
	for name, set := range seen {
		counts[name] = len(set)
	}
	return counts
}

// mapCallsByCaller indexes every call edge by its issuing (file, caller)
// pair, for the clusterer's "A calls B" affinity check.
func mapCallsByCaller(files []*types.ParsedFile) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, f := range files {
		for _, call := range f.Calls {
			key := f.Path + "#" + call.CallerName
			set, ok := out[key]
			if !ok {
				set = make(map[string]bool)
				out[key] = set
			}
			for _, edge := range call.Edges {
				set[edge.TargetName] = true
			}
		}
	}
	return out
}

// callsEdge reports whether a calls b or b calls a, per the best-effort
// name-based call graph mapCallsByCaller built.
func (idx *ownerIndex) callsEdge(a, b *funcRecord) bool {
	if set, ok := idx.callsTo[a.File+"#"+a.Name]; ok && set[b.Name] {
		return true
	}
	if set, ok := idx.callsTo[b.File+"#"+b.Name]; ok && set[a.Name] {
		return true
	}
	return false
}
