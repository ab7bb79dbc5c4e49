// Package analysis implements the Phase 2 derived analyzers that run
// after the reference resolver: the hotspot scorer (§4.8), the
// affinity clusterer (§4.9), the type-flow tracer (§4.10), the
// error-flow tracer (§4.11), and the safety summarizer (§4.12). Every
// analyzer consumes only the already-resolved in-memory state — no
// file I/O happens here, matching the resolver's own constraint.
package analysis

import (
	"github.com/repomap-dev/repomap/internal/resolve"
	"github.com/repomap-dev/repomap/internal/types"
)

// ChurnFunc answers the hotspot scorer's commit-count term for a
// repo-relative path. The git collaborator's Provider.Churn also takes a
// context, so capture adapts it (resolving the path under the project
// root); tests can supply a canned map-backed stub.
type ChurnFunc func(path string) uint32

// Report bundles every analyzer's output for one capture run.
type Report struct {
	Hotspots  []Hotspot
	Clusters  []Cluster
	TypeFlow  *TypeFlowGraph
	ErrorFlow *ErrorFlowReport
	Safety    []SafetySiteReport
}

// Run executes every analyzer over files (already sorted by path) and
// the resolver's output, returning the combined Report.
func Run(files []*types.ParsedFile, resolved *resolve.Result, ws *types.WorkspaceInfo, churn ChurnFunc) *Report {
	owners := indexOwners(files, ws)

	return &Report{
		Hotspots:  scoreHotspots(owners, churn),
		Clusters:  clusterFunctions(owners),
		TypeFlow:  traceTypeFlow(owners),
		ErrorFlow: traceErrorFlow(files, owners),
		Safety:    summarizeSafety(files),
	}
}
