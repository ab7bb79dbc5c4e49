package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repomap-dev/repomap/internal/types"
)

func TestTraceErrorFlowListsOriginators(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "io.rs",
			Errors: types.ErrorInfo{
				Origins: []types.ErrorOrigin{
					{FunctionName: "read_config", Line: 12, Kind: "result_return"},
				},
			},
		},
	}
	idx := indexOwners(files, nil)

	report := traceErrorFlow(files, idx)

	assert.Len(t, report.Originators, 1)
	assert.Equal(t, "read_config", report.Originators[0].Name)
	assert.Equal(t, "result_return", report.Originators[0].Kind)
}

func TestTraceErrorFlowBuildsPropagationChain(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "io.rs",
			Errors: types.ErrorInfo{
				Origins: []types.ErrorOrigin{{FunctionName: "read_config", Line: 1, Kind: "result_return"}},
			},
			Calls: []types.CallInfo{
				{CallerName: "load", CallerLine: 10, Edges: []types.CallEdge{{TargetName: "read_config", IsFallible: true}}},
				{CallerName: "main", CallerLine: 20, Edges: []types.CallEdge{{TargetName: "load", IsFallible: true}}},
			},
		},
	}
	idx := indexOwners(files, nil)

	report := traceErrorFlow(files, idx)

	if assert.Len(t, report.Chains, 2) {
		assert.Equal(t, []funcSite{{Name: "load", File: "io.rs", Line: 10}}, report.Chains[0].Path)
		assert.Equal(t, []funcSite{
			{Name: "load", File: "io.rs", Line: 10},
			{Name: "main", File: "io.rs", Line: 20},
		}, report.Chains[1].Path)
	}
}

func TestTraceErrorFlowCapsDepthAndAvoidsCycles(t *testing.T) {
	files := []*types.ParsedFile{
		{
			Path: "a.rs",
			Errors: types.ErrorInfo{
				Origins: []types.ErrorOrigin{{FunctionName: "origin", Line: 1, Kind: "question_mark"}},
			},
			Calls: []types.CallInfo{
				{CallerName: "origin", CallerLine: 1, Edges: []types.CallEdge{{TargetName: "origin", IsFallible: true}}},
				{CallerName: "c1", CallerLine: 2, Edges: []types.CallEdge{{TargetName: "origin", IsFallible: true}}},
				{CallerName: "c2", CallerLine: 3, Edges: []types.CallEdge{{TargetName: "c1", IsFallible: true}}},
				{CallerName: "c3", CallerLine: 4, Edges: []types.CallEdge{{TargetName: "c2", IsFallible: true}}},
				{CallerName: "c4", CallerLine: 5, Edges: []types.CallEdge{{TargetName: "c3", IsFallible: true}}},
			},
		},
	}
	idx := indexOwners(files, nil)

	report := traceErrorFlow(files, idx)

	for _, chain := range report.Chains {
		assert.LessOrEqual(t, len(chain.Path), errorChainMaxDepth)
		for _, site := range chain.Path {
			assert.NotEqual(t, "origin", site.Name)
		}
	}
}
