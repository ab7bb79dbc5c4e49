package analysis

import (
	"sort"
)

// HotspotClass buckets a Hotspot's score into one of three tiers (§4.8).
type HotspotClass string

const (
	HotspotHigh   HotspotClass = "high"
	HotspotMedium HotspotClass = "medium"
	HotspotLow    HotspotClass = "low"
)

func classify(score float64) HotspotClass {
	switch {
	case score >= 30:
		return HotspotHigh
	case score >= 15:
		return HotspotMedium
	default:
		return HotspotLow
	}
}

// Hotspot is one scored function (§4.8).
type Hotspot struct {
	Name       string
	File       string
	Line       int
	Score      float64
	Class      HotspotClass
	Cyclomatic int
	Lines      int
	CallSites  int
	Churn      uint32
	Public     bool
}

// scoreHotspots computes every function's hotspot score and returns them
// grouped by class (high, then medium, then low), each group sorted
// descending by score, ties broken by (cyclomatic desc, file asc, line
// asc).
func scoreHotspots(idx *ownerIndex, churn ChurnFunc) []Hotspot {
	if churn == nil {
		churn = func(string) uint32 { return 0 }
	}

	out := make([]Hotspot, 0, len(idx.funcs))
	for _, rec := range idx.funcs {
		callSites := idx.callCounts[rec.Name]
		c := churn(rec.File)

		score := 2*float64(rec.Cyclomatic) + float64(rec.Lines)/10 + 3*float64(callSites) + 2*float64(c)
		if rec.Public {
			score += 10
		}

		out = append(out, Hotspot{
			Name:       rec.Name,
			File:       rec.File,
			Line:       rec.Line,
			Score:      score,
			Class:      classify(score),
			Cyclomatic: rec.Cyclomatic,
			Lines:      rec.Lines,
			CallSites:  callSites,
			Churn:      c,
			Public:     rec.Public,
		})
	}

	classOrder := map[HotspotClass]int{HotspotHigh: 0, HotspotMedium: 1, HotspotLow: 2}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if classOrder[a.Class] != classOrder[b.Class] {
			return classOrder[a.Class] < classOrder[b.Class]
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Cyclomatic != b.Cyclomatic {
			return a.Cyclomatic > b.Cyclomatic
		}
		if a.File != b.File {
			return a.File < b.File
		}
		return a.Line < b.Line
	})

	return out
}
