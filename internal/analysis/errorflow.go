package analysis

import (
	"sort"

	"github.com/repomap-dev/repomap/internal/types"
)

const errorChainMaxDepth = 3

// OriginatingFunction is one function that originates a failure, either
// by signature (Result/Option return) or by body (question-mark,
// explicit raise/assert) (§4.11a).
type OriginatingFunction struct {
	Name string
	File string
	Line int
	Kind string
}

// PropagationChain is one backward walk from an originator along
// fallible call edges, capped at errorChainMaxDepth hops (§4.11b). Path
// runs from the originator outward to its furthest traced caller.
type PropagationChain struct {
	Origin OriginatingFunction
	Path   []funcSite
}

// ErrorFlowReport is the tracer's combined output.
type ErrorFlowReport struct {
	Originators []OriginatingFunction
	Chains      []PropagationChain
}

// traceErrorFlow combines per-file error origins into the originator
// list and backward propagation chains (§4.11).
func traceErrorFlow(files []*types.ParsedFile, idx *ownerIndex) *ErrorFlowReport {
	originators := collectOriginators(files)
	fallibleCallers := reverseFallibleEdges(files)

	var chains []PropagationChain
	for _, o := range originators {
		visited := map[string]bool{o.Name: true}
		for _, path := range walkBackward(o.Name, fallibleCallers, visited, errorChainMaxDepth) {
			chains = append(chains, PropagationChain{Origin: o, Path: path})
		}
	}

	sort.Slice(chains, func(i, j int) bool {
		a, b := chains[i], chains[j]
		if a.Origin.File != b.Origin.File {
			return a.Origin.File < b.Origin.File
		}
		if a.Origin.Line != b.Origin.Line {
			return a.Origin.Line < b.Origin.Line
		}
		return len(a.Path) < len(b.Path)
	})

	return &ErrorFlowReport{Originators: originators, Chains: chains}
}

func collectOriginators(files []*types.ParsedFile) []OriginatingFunction {
	var out []OriginatingFunction
	for _, f := range files {
		for _, origin := range f.Errors.Origins {
			out = append(out, OriginatingFunction{
				Name: origin.FunctionName,
				File: f.Path,
				Line: origin.Line,
				Kind: origin.Kind,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// reverseFallibleEdges maps a call target's name to every (file,
// callerName, line) site that reaches it through a fallible edge.
func reverseFallibleEdges(files []*types.ParsedFile) map[string][]funcSite {
	out := make(map[string][]funcSite)
	for _, f := range files {
		for _, call := range f.Calls {
			for _, edge := range call.Edges {
				if !edge.IsFallible {
					continue
				}
				site := funcSite{Name: call.CallerName, File: f.Path, Line: call.CallerLine}
				out[edge.TargetName] = append(out[edge.TargetName], site)
			}
		}
	}
	for name := range out {
		sortSites(out[name])
	}
	return out
}

// walkBackward enumerates every caller path reaching targetName through
// a fallible edge, up to maxDepth hops, returning one path per
// originator-to-caller walk (innermost first). visited guards against
// call-graph cycles re-entering the same function name.
func walkBackward(targetName string, callers map[string][]funcSite, visited map[string]bool, maxDepth int) [][]funcSite {
	if maxDepth == 0 {
		return nil
	}
	sites, ok := callers[targetName]
	if !ok {
		return nil
	}
	if visited == nil {
		visited = make(map[string]bool)
	}

	var paths [][]funcSite
	for _, site := range sites {
		if visited[site.Name] {
			continue
		}
		next := make(map[string]bool, len(visited)+1)
		for k := range visited {
			next[k] = true
		}
		next[site.Name] = true

		paths = append(paths, []funcSite{site})
		for _, deeper := range walkBackward(site.Name, callers, next, maxDepth-1) {
			paths = append(paths, append([]funcSite{site}, deeper...))
		}
	}
	return paths
}
