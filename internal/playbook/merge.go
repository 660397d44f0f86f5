package playbook

import (
	"strings"

	"tidybox/internal/synthesis"
)

// MergeResult is a combined framework set.
type MergeResult struct {
	Frameworks []synthesis.Framework
	// Duplicates names the frameworks dropped because an earlier set
	// already had one with the same name.
	Duplicates []string
}

// Merge combines framework sets. On a name collision the framework from the
// earlier set wins. Names compare after trimming space, case-sensitively.
func Merge(sets ...[]synthesis.Framework) MergeResult {
	var result MergeResult
	seen := map[string]bool{}
	for _, set := range sets {
		for _, fw := range set {
			name := strings.TrimSpace(fw.Name)
			if seen[name] {
				result.Duplicates = append(result.Duplicates, name)
				continue
			}
			seen[name] = true
			result.Frameworks = append(result.Frameworks, fw)
		}
	}
	sortFrameworks(result.Frameworks)
	return result
}

// CountByType returns how many frameworks each type has.
func CountByType(frameworks []synthesis.Framework) map[string]int {
	counts := map[string]int{}
	for _, fw := range frameworks {
		t := fw.Type
		if t == "" {
			t = "unknown"
		}
		counts[t]++
	}
	return counts
}
