package matching

import (
	"sort"
	"unicode/utf8"
)

// Index maps variation strings back to canonical client folder names.
type Index struct {
	byVariation map[string]string
	ordered     []string
	clients     []string
}

// NewIndex registers clients in the given order. Later clients take over
// variations already claimed by earlier ones.
func NewIndex(clients []string) *Index {
	idx := &Index{byVariation: make(map[string]string)}
	for _, client := range clients {
		vars := Variations(client)
		if len(vars) == 0 {
			continue
		}
		idx.clients = append(idx.clients, client)
		for _, v := range vars {
			idx.byVariation[v] = client
		}
	}
	idx.ordered = make([]string, 0, len(idx.byVariation))
	for v := range idx.byVariation {
		idx.ordered = append(idx.ordered, v)
	}
	sort.Slice(idx.ordered, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(idx.ordered[i]), utf8.RuneCountInString(idx.ordered[j])
		if li != lj {
			return li > lj
		}
		return idx.ordered[i] < idx.ordered[j]
	})
	return idx
}

// Lookup returns the client that owns variation exactly.
func (idx *Index) Lookup(variation string) (string, bool) {
	client, ok := idx.byVariation[variation]
	return client, ok
}

// Ordered returns every variation, longest first.
func (idx *Index) Ordered() []string {
	return idx.ordered
}

// Clients returns the registered client names in registration order.
func (idx *Index) Clients() []string {
	return idx.clients
}

// Len reports the number of distinct variations.
func (idx *Index) Len() int {
	return len(idx.ordered)
}
