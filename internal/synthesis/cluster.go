package synthesis

import (
	"sort"
	"strings"

	"tidybox/internal/textutil"
)

const clusterKeyLength = 30

// Cluster groups candidates that share a name key.
type Cluster struct {
	Key        string
	Candidates []Candidate
}

// ClusterKey lowercases name, turns spaces into underscores and keeps the
// first 30 runes.
func ClusterKey(name string) string {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
	return textutil.Truncate(key, clusterKeyLength)
}

// ClusterCandidates groups candidates by ClusterKey, largest cluster first
// with ties broken by key. Candidates keep their discovery order within a
// cluster.
func ClusterCandidates(candidates []Candidate) []Cluster {
	index := map[string]int{}
	var clusters []Cluster
	for _, c := range candidates {
		key := ClusterKey(c.Name)
		if key == "" {
			continue
		}
		i, ok := index[key]
		if !ok {
			i = len(clusters)
			index[key] = i
			clusters = append(clusters, Cluster{Key: key})
		}
		clusters[i].Candidates = append(clusters[i].Candidates, c)
	}
	sort.SliceStable(clusters, func(i, j int) bool {
		if len(clusters[i].Candidates) != len(clusters[j].Candidates) {
			return len(clusters[i].Candidates) > len(clusters[j].Candidates)
		}
		return clusters[i].Key < clusters[j].Key
	})
	return clusters
}

// dominantType returns the most frequent type, ties going to the type seen first.
func (c Cluster) dominantType() string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, cand := range c.Candidates {
		counts[cand.Type]++
	}
	for _, cand := range c.Candidates {
		if n := counts[cand.Type]; n > bestCount {
			best, bestCount = cand.Type, n
		}
	}
	return best
}

func (c Cluster) meanConfidence() float64 {
	if len(c.Candidates) == 0 {
		return 0
	}
	total := 0.0
	for _, cand := range c.Candidates {
		total += cand.Confidence
	}
	return total / float64(len(c.Candidates))
}

// sourceDates returns the distinct dates, sorted, with missing dates as "unknown".
func (c Cluster) sourceDates() []string {
	seen := map[string]bool{}
	var dates []string
	for _, cand := range c.Candidates {
		date := cand.SourceDate
		if date == "" {
			date = "unknown"
		}
		if !seen[date] {
			seen[date] = true
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

func (c Cluster) quotes() []string {
	seen := map[string]bool{}
	var quotes []string
	for _, cand := range c.Candidates {
		q := strings.TrimSpace(cand.EvidenceQuote)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		quotes = append(quotes, q)
	}
	return quotes
}
