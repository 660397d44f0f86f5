package plan

import "sort"

// ClientCount is the number of plan rows matched to one client.
type ClientCount struct {
	Client string
	Files  int
}

// Summary describes a plan for the preview report.
type Summary struct {
	Total      int
	Matched    int
	Unmatched  int
	Approved   int
	TopClients []ClientCount
}

// Summarize counts records and ranks clients by file count (ties by name),
// keeping at most top entries.
func Summarize(records []Record, top int) Summary {
	s := Summary{Total: len(records)}
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.IsApproved() {
			s.Approved++
		}
		if rec.Status() == StatusMatched {
			s.Matched++
			counts[rec.MatchedClient]++
			continue
		}
		s.Unmatched++
	}
	for client, n := range counts {
		s.TopClients = append(s.TopClients, ClientCount{Client: client, Files: n})
	}
	sort.Slice(s.TopClients, func(i, j int) bool {
		if s.TopClients[i].Files != s.TopClients[j].Files {
			return s.TopClients[i].Files > s.TopClients[j].Files
		}
		return s.TopClients[i].Client < s.TopClients[j].Client
	})
	if top >= 0 && len(s.TopClients) > top {
		s.TopClients = s.TopClients[:top]
	}
	return s
}
