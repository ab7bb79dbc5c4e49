package analysis

import (
	"sort"

	"github.com/repomap-dev/repomap/internal/types"
)

// SafetySiteReport is one flagged site, tagged with its originating
// file (§4.12).
type SafetySiteReport struct {
	File    string
	Line    int
	EndLine int
	Kind    types.SafetyKind
	Detail  string
}

// summarizeSafety flattens every file's safety sites into a single,
// deterministically ordered workspace view.
func summarizeSafety(files []*types.ParsedFile) []SafetySiteReport {
	var out []SafetySiteReport
	for _, f := range files {
		for _, site := range f.Safety.Sites {
			out = append(out, SafetySiteReport{
				File:    f.Path,
				Line:    site.Line,
				EndLine: site.EndLine,
				Kind:    site.Kind,
				Detail:  site.Detail,
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
