// Package resolve implements the Phase 2 Reference Resolver (§4.7): a
// single-threaded pass over the final CaptureResult that builds the
// global SymbolTable and its inverse, the per-file dependents map. It
// performs no file I/O — everything it needs is already sitting in each
// file's ParsedFile.
package resolve

import (
	"sort"

	"github.com/repomap-dev/repomap/internal/types"
)

// RefOccurrence is one (identifier, file, line, owner_symbol) entry
// the resolver emits per §4.7: one per identifier occurrence that
// resolves to at least one type-shaped owner. An identifier with more
// than one owner is recorded once with every owner attached and
// Ambiguous set, rather than picked apart — no heuristic disambiguates.
type RefOccurrence struct {
	Identifier string
	File       string
	Line       int
	Owners     []types.SymbolRef
	Ambiguous  bool
}

// Result is the resolver's complete output: the global symbol table,
// the per-occurrence reference list, and the dependents inversion.
type Result struct {
	Table *types.SymbolTable

	// Refs is every identifier occurrence that resolved to at least one
	// owner, sorted by (file, line, identifier).
	Refs []RefOccurrence

	// Dependents maps a file to the sorted, deduplicated set of other
	// files that reference one of its owned (type-shaped) identifiers.
	Dependents map[string][]string
}

// typeShaped reports whether kind is indexed by the resolver. Functions,
// consts, statics, macros and modules aren't referenced by PascalCase
// identifier the way types are, so they're left out of the table —
// matching the identifier-occurrence index, which only ever records
// uppercase-leading lexemes in the first place.
func typeShaped(kind types.SymbolKind) bool {
	switch kind {
	case types.KindStruct, types.KindEnum, types.KindTrait, types.KindTypeAlias, types.KindClass:
		return true
	default:
		return false
	}
}

// Build runs the resolver over files, which must already be in the
// aggregator's stable path-ascending order (CaptureResult.SortFiles).
// Owners within a single identifier therefore come out file-path sorted
// too, and line-sorted within a file via ParsedFile.SortedSymbols.
func Build(files []*types.ParsedFile) *Result {
	table := types.NewSymbolTable()

	for _, f := range files {
		for _, sym := range f.SortedSymbols() {
			if !typeShaped(sym.Kind) {
				continue
			}
			table.Owners[sym.Name] = append(table.Owners[sym.Name], types.SymbolRef{
				File: f.Path,
				Line: sym.Line,
				Name: sym.Name,
			})
		}
	}

	var refs []RefOccurrence
	dependentSets := make(map[string]map[string]bool)
	for _, f := range files {
		for identifier, lines := range f.Identifiers {
			owners, ok := table.Owners[identifier]
			if !ok || len(lines) == 0 {
				continue
			}
			for _, line := range lines {
				refs = append(refs, RefOccurrence{
					Identifier: identifier,
					File:       f.Path,
					Line:       line,
					Owners:     owners,
					Ambiguous:  len(owners) > 1,
				})
			}
			for _, owner := range owners {
				if owner.File == f.Path {
					continue // a type referencing itself isn't a cross-file dependency
				}
				set, ok := dependentSets[owner.File]
				if !ok {
					set = make(map[string]bool)
					dependentSets[owner.File] = set
				}
				set[f.Path] = true
			}
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].File != refs[j].File {
			return refs[i].File < refs[j].File
		}
		if refs[i].Line != refs[j].Line {
			return refs[i].Line < refs[j].Line
		}
		return refs[i].Identifier < refs[j].Identifier
	})

	dependents := make(map[string][]string, len(dependentSets))
	for owner, set := range dependentSets {
		list := make([]string, 0, len(set))
		for dep := range set {
			list = append(list, dep)
		}
		sort.Strings(list)
		dependents[owner] = list
	}

	return &Result{Table: table, Refs: refs, Dependents: dependents}
}
