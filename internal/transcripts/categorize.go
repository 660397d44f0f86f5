package transcripts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Category is the bucket a transcript falls into.
type Category string

const (
	CategoryStrategic Category = "strategic"
	CategoryClient    Category = "client"
	CategoryExclude   Category = "exclude"
	// CategoryAll selects every transcript that is not excluded.
	CategoryAll Category = "all"
)

// ParseCategory accepts strategic, client or all.
func ParseCategory(value string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(value))); c {
	case CategoryStrategic, CategoryClient, CategoryAll:
		return c, nil
	case "":
		return CategoryAll, nil
	default:
		return "", fmt.Errorf("unknown category %q (want strategic, client or all)", value)
	}
}

// Categorizer scores filenames against keyword sets. Keywords are matched as
// lowercase substrings.
type Categorizer struct {
	Strategic []string
	Client    []string
	Exclude   []string
}

// Categorize assigns name to a category. Any exclude keyword wins outright;
// otherwise the strategic score must beat the client score, and ties
// (including no hits at all) fall to client.
func (c Categorizer) Categorize(name string) Category {
	lower := strings.ToLower(name)
	if score(lower, c.Exclude) > 0 {
		return CategoryExclude
	}
	if score(lower, c.Strategic) > score(lower, c.Client) {
		return CategoryStrategic
	}
	return CategoryClient
}

func score(name string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, kw) {
			n++
		}
	}
	return n
}

// Select returns the normalized transcript files in dir belonging to
// category, sorted by name.
func (c Categorizer) Select(dir string, category Category) ([]string, error) {
	files, err := normalizedFiles(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, path := range files {
		got := c.Categorize(stemOf(path))
		if got == CategoryExclude {
			continue
		}
		if category == CategoryAll || got == category {
			out = append(out, path)
		}
	}
	return out, nil
}

// Report counts the normalized transcripts in each category.
type Report struct {
	Total     int
	Strategic []string
	Client    []string
	Excluded  []string
}

// Report categorizes every normalized transcript in dir.
func (c Categorizer) Report(dir string) (Report, error) {
	files, err := normalizedFiles(dir)
	if err != nil {
		return Report{}, err
	}
	report := Report{Total: len(files)}
	for _, path := range files {
		stem := stemOf(path)
		switch c.Categorize(stem) {
		case CategoryStrategic:
			report.Strategic = append(report.Strategic, stem)
		case CategoryClient:
			report.Client = append(report.Client, stem)
		default:
			report.Excluded = append(report.Excluded, stem)
		}
	}
	return report, nil
}

func normalizedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read normalized directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
