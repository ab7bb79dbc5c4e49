package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repomap-dev/repomap/internal/types"
)

func methodSymbol(name string, line int, owner, signature string) types.Symbol {
	return types.Symbol{
		Name:      name,
		Kind:      types.KindFunction,
		Line:      line,
		Owner:     owner,
		Signature: signature,
		Function:  &types.FunctionInfo{},
	}
}

func TestClusterFunctionsGroupsSameOwnerSameFile(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "widget.rs",
			Symbols: []types.Symbol{
				methodSymbol("new", 1, "Widget", "fn new() -> Widget"),
				methodSymbol("render", 10, "Widget", "fn render(&self)"),
			},
		},
	}
	idx := indexOwners(files, nil)

	clusters := clusterFunctions(idx)

	assert.Len(t, clusters, 1)
	assert.Len(t, clusters[0].Members, 2)
	assert.Equal(t, "new", clusters[0].Members[0].Name)
	assert.Equal(t, "render", clusters[0].Members[1].Name)
}

func TestClusterFunctionsDiscardsSingletons(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "a.rs",
			Symbols: []types.Symbol{
				methodSymbol("alone", 1, "", ""),
			},
		},
		{
			Path: "b.py",
			Symbols: []types.Symbol{
				methodSymbol("also_alone", 1, "", ""),
			},
		},
	}
	idx := indexOwners(files, nil)

	clusters := clusterFunctions(idx)

	assert.Empty(t, clusters)
}

func TestClusterFunctionsWeighsCallEdges(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "a.rs",
			Symbols: []types.Symbol{
				methodSymbol("caller", 1, "", ""),
			},
			Calls: []types.CallInfo{
				{CallerName: "caller", CallerLine: 1, Edges: []types.CallEdge{{TargetName: "callee"}}},
			},
		},
		{
			Path: "b.rs",
			Symbols: []types.Symbol{
				methodSymbol("callee", 1, "", ""),
			},
		},
	}
	idx := indexOwners(files, nil)

	// different package, no file/owner affinity: -3 locality + 5 call edge = 2, below threshold.
	clusters := clusterFunctions(idx)
	assert.Empty(t, clusters)
}

func TestAffinityComputesSharedTypeBonus(t *testing.T) {
	idx := &ownerIndex{callsTo: map[string]map[string]bool{}}
	a := &funcRecord{File: "a.rs", Name: "one", TypeNames: []string{"Config", "Widget"}}
	b := &funcRecord{File: "b.rs", Name: "two", TypeNames: []string{"Widget"}}

	// different file, no package: -3 locality + 2*1 shared type = -1
	assert.Equal(t, -1, affinity(idx, a, b))
}

func TestUnionFindRejectsOversizedMerge(t *testing.T) {
	uf := newUnionFind(3)
	uf.size[0] = clusterMaxSize
	uf.size[1] = 1
	assert.True(t, uf.size[uf.find(0)]+uf.size[uf.find(1)] > clusterMaxSize)
}
