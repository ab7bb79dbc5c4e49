package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repomap-dev/repomap/internal/types"
)

func funcSymbol(name string, line int, public bool, cyclomatic, lines int) types.Symbol {
	vis := types.VisibilityModulePrivate
	if public {
		vis = types.VisibilityPublic
	}
	return types.Symbol{
		Name:       name,
		Kind:       types.KindFunction,
		Line:       line,
		Visibility: vis,
		Function: &types.FunctionInfo{
			Body: &types.BodySummary{Cyclomatic: cyclomatic, Lines: lines},
		},
	}
}

func TestScoreHotspotsComputesFormula(t *testing.T) {
	files := []*types.ParsedFile{
		{Path: "a.rs", Symbols: []types.Symbol{funcSymbol("run", 1, true, 3, 20)}},
	}
	idx := indexOwners(files, nil)
	churn := func(string) uint32 { return 4 }

	hotspots := scoreHotspots(idx, churn)

	assert.Len(t, hotspots, 1)
	// 2*3 + 20/10 + 3*0 + 2*4 + 10 = 6 + 2 + 0 + 8 + 10 = 26
	assert.Equal(t, 26.0, hotspots[0].Score)
	assert.Equal(t, HotspotMedium, hotspots[0].Class)
}

func TestScoreHotspotsClassifiesByThreshold(t *testing.T) {
	assert.Equal(t, HotspotHigh, classify(30))
	assert.Equal(t, HotspotMedium, classify(29.9))
	assert.Equal(t, HotspotMedium, classify(15))
	assert.Equal(t, HotspotLow, classify(14.9))
}

func TestScoreHotspotsOrdersByClassThenScoreThenTiebreak(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "a.rs",
			Symbols: []types.Symbol{
				funcSymbol("low_one", 5, false, 1, 5),
				funcSymbol("high_one", 1, true, 20, 50),
			},
		},
		{
			Path: "b.rs",
			Symbols: []types.Symbol{
				funcSymbol("low_two", 1, false, 1, 5),
			},
		},
	}
	idx := indexOwners(files, nil)

	hotspots := scoreHotspots(idx, nil)

	assert.Equal(t, "high_one", hotspots[0].Name)
	assert.Equal(t, HotspotLow, hotspots[1].Class)
	assert.Equal(t, HotspotLow, hotspots[2].Class)
	// both low scores are equal (2.5 each); tie breaks by file asc.
	assert.Equal(t, "a.rs", hotspots[1].File)
	assert.Equal(t, "b.rs", hotspots[2].File)
}

func TestScoreHotspotsUsesCallSiteCount(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path:    "a.rs",
			Symbols: []types.Symbol{funcSymbol("target", 1, false, 1, 0)},
			Calls: []types.CallInfo{
				{CallerName: "caller_one", Edges: []types.CallEdge{{TargetName: "target"}}},
				{CallerName: "caller_two", Edges: []types.CallEdge{{TargetName: "target"}}},
			},
		},
	}
	idx := indexOwners(files, nil)

	hotspots := scoreHotspots(idx, nil)

	assert.Equal(t, 2, hotspots[0].CallSites)
	// 2*1 + 0 + 3*2 + 0 + 0 = 8
	assert.Equal(t, 8.0, hotspots[0].Score)
}
