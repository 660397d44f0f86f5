package matching

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultMinVariationLength is the shortest variation eligible for substring matching.
const DefaultMinVariationLength = 3

// Strategy names the rule that produced a match decision.
type Strategy string

const (
	StrategyNone          Strategy = "none"
	StrategyExcluded      Strategy = "excluded_prefix"
	StrategyBracketExact  Strategy = "bracket_exact"
	StrategyBracketSubstr Strategy = "bracket_substring"
	StrategyFilename      Strategy = "filename_substring"
)

// Match is the outcome for one filename. Client is empty when unmatched.
type Match struct {
	Client    string
	Strategy  Strategy
	Variation string
}

// Matched reports whether a client was found.
func (m Match) Matched() bool { return m.Client != "" }

var bracketPattern = regexp.MustCompile(`^\[([^\]]+)\]`)

// BracketPrefix extracts the text inside a leading "[...]", if present.
func BracketPrefix(filename string) (string, bool) {
	groups := bracketPattern.FindStringSubmatch(filename)
	if groups == nil {
		return "", false
	}
	return groups[1], true
}

// Matcher resolves filenames against an Index.
type Matcher struct {
	index    *Index
	excluded map[string]struct{}
	minLen   int
}

// NewMatcher builds a matcher. Prefixes are compared case-insensitively; a
// minLen of zero or less selects DefaultMinVariationLength.
func NewMatcher(index *Index, nonClientPrefixes []string, minLen int) *Matcher {
	if minLen <= 0 {
		minLen = DefaultMinVariationLength
	}
	excluded := make(map[string]struct{}, len(nonClientPrefixes))
	for _, p := range nonClientPrefixes {
		if p = strings.TrimSpace(p); p != "" {
			excluded[strings.ToUpper(p)] = struct{}{}
		}
	}
	return &Matcher{index: index, excluded: excluded, minLen: minLen}
}

// Match returns the client for filename. An excluded bracket prefix always
// yields no match, even when a client name appears later in the filename.
func (m *Matcher) Match(filename string) Match {
	if prefix, ok := BracketPrefix(filename); ok {
		if _, skip := m.excluded[strings.ToUpper(strings.TrimSpace(prefix))]; skip {
			return Match{Strategy: StrategyExcluded}
		}
		if match, ok := m.matchBracket(prefix); ok {
			return match
		}
	}
	return m.matchFilename(filename)
}

func (m *Matcher) matchBracket(prefix string) (Match, bool) {
	for _, v := range Variations(prefix) {
		if client, ok := m.index.Lookup(v); ok {
			return Match{Client: client, Strategy: StrategyBracketExact, Variation: v}, true
		}
	}
	token := lowerString(strings.TrimSpace(prefix))
	folded := foldDiacritics(token)
	tokenEligible := utf8.RuneCountInString(token) >= m.minLen
	for _, v := range m.index.Ordered() {
		if !m.eligible(v) {
			continue
		}
		if strings.Contains(token, v) || strings.Contains(folded, v) ||
			(tokenEligible && strings.Contains(v, token)) {
			client, _ := m.index.Lookup(v)
			return Match{Client: client, Strategy: StrategyBracketSubstr, Variation: v}, true
		}
	}
	return Match{}, false
}

func (m *Matcher) matchFilename(filename string) Match {
	lowered := lowerString(filename)
	folded := foldDiacritics(lowered)
	for _, v := range m.index.Ordered() {
		if !m.eligible(v) {
			continue
		}
		if strings.Contains(lowered, v) || strings.Contains(folded, v) {
			client, _ := m.index.Lookup(v)
			return Match{Client: client, Strategy: StrategyFilename, Variation: v}
		}
	}
	return Match{Strategy: StrategyNone}
}

func (m *Matcher) eligible(variation string) bool {
	return utf8.RuneCountInString(variation) >= m.minLen
}
