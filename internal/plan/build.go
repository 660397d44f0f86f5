package plan

import (
	"path/filepath"
	"sort"

	"tidybox/internal/matching"
)

// Build turns scan results into unapproved plan records. Matched rows come
// first ordered by client then filename; unmatched rows follow ordered by
// filename. Unmatched rows never carry a destination.
func Build(results []matching.Result, clientsRoot string) []Record {
	matched := make([]Record, 0, len(results))
	unmatched := make([]Record, 0)
	for _, res := range results {
		rec := Record{Filename: res.Filename, SourcePath: res.SourcePath}
		if res.Matched() {
			rec.MatchedClient = res.Client
			rec.DestinationPath = filepath.Join(clientsRoot, res.Client, res.Filename)
			matched = append(matched, rec)
			continue
		}
		unmatched = append(unmatched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].MatchedClient != matched[j].MatchedClient {
			return matched[i].MatchedClient < matched[j].MatchedClient
		}
		return matched[i].Filename < matched[j].Filename
	})
	sort.SliceStable(unmatched, func(i, j int) bool {
		return unmatched[i].Filename < unmatched[j].Filename
	})
	return append(matched, unmatched...)
}
