package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Variations returns the normalized spellings of client, lowercase first.
// The list is deduplicated and never contains the empty string.
func Variations(client string) []string {
	lower := lowerString(strings.TrimSpace(client))
	if lower == "" {
		return nil
	}
	noPunct := stripPunctuation(lower)

	candidates := []string{
		lower,
		strings.ReplaceAll(lower, " ", ""),
		strings.ReplaceAll(lower, " ", "-"),
		strings.ReplaceAll(lower, " ", "_"),
		noPunct,
		strings.ReplaceAll(noPunct, " ", ""),
	}
	// "Nestlé" should also match a filename typed as "nestle".
	base := len(candidates)
	for i := 0; i < base; i++ {
		candidates = append(candidates, foldDiacritics(candidates[i]))
	}

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func lowerString(s string) string {
	return cases.Lower(language.Und).String(s)
}

// stripPunctuation keeps letters, digits, underscores and whitespace.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, s)
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
