package prompts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"
)

// Template names.
const (
	Discovery     = "discovery"
	Synthesis     = "synthesis"
	Actionability = "actionability"
)

// Meta holds frontmatter metadata.
type Meta struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	MaxTokens   int    `yaml:"max_tokens"`
}

// Loader resolves templates from override directories, then the embedded set.
type Loader struct {
	overrideDirs []string
	cache        map[string]*template.Template
	metaCache    map[string]Meta
	mu           sync.RWMutex
}

// NewLoader creates a loader with the given override directories.
// Directories are checked in order; first match wins. Empty entries are ignored.
func NewLoader(overrideDirs ...string) *Loader {
	dirs := make([]string, 0, len(overrideDirs))
	for _, dir := range overrideDirs {
		if strings.TrimSpace(dir) != "" {
			dirs = append(dirs, dir)
		}
	}
	return &Loader{
		overrideDirs: dirs,
		cache:        make(map[string]*template.Template),
		metaCache:    make(map[string]Meta),
	}
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}

func (l *Loader) loadContent(name string) ([]byte, error) {
	file := name + ".md"
	for _, dir := range l.overrideDirs {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read override %s: %w", file, err)
		}
	}
	return fs.ReadFile(embeddedFS, path.Join("templates", file))
}

// parseFrontmatter splits content into frontmatter and body.
func parseFrontmatter(content []byte) (Meta, string, error) {
	str := strings.ReplaceAll(string(content), "\r\n", "\n")
	if !strings.HasPrefix(str, "---\n") {
		return Meta{}, str, nil
	}
	end := strings.Index(str[4:], "\n---\n")
	if end == -1 {
		return Meta{}, str, nil
	}
	frontmatter := str[4 : 4+end]
	body := str[4+end+5:]

	var meta Meta
	if err := yaml.Unmarshal([]byte(frontmatter), &meta); err != nil {
		return Meta{}, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

// Load returns the compiled template and its metadata.
func (l *Loader) Load(name string) (*template.Template, Meta, error) {
	l.mu.RLock()
	if tmpl, ok := l.cache[name]; ok {
		meta := l.metaCache[name]
		l.mu.RUnlock()
		return tmpl, meta, nil
	}
	l.mu.RUnlock()

	content, err := l.loadContent(name)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("load prompt %s: %w", name, err)
	}
	meta, body, err := parseFrontmatter(content)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("prompt %s: %w", name, err)
	}
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("compile prompt %s: %w", name, err)
	}

	l.mu.Lock()
	l.cache[name] = tmpl
	l.metaCache[name] = meta
	l.mu.Unlock()
	return tmpl, meta, nil
}

// Render executes the named template with data. The frontmatter max_tokens
// is returned alongside the text (zero when unset).
func (l *Loader) Render(name string, data any) (string, int, error) {
	tmpl, meta, err := l.Load(name)
	if err != nil {
		return "", 0, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", 0, fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), meta.MaxTokens, nil
}

// DiscoveryData fills the discovery template.
type DiscoveryData struct {
	Content string
}

// SynthesisData fills the synthesis template.
type SynthesisData struct {
	Name     string
	Type     string
	Sources  int
	Evidence string
}

// ComponentSummary is one line of the actionability component list.
type ComponentSummary struct {
	Name    string
	Purpose string
}

// ActionabilityData fills the actionability template.
type ActionabilityData struct {
	Name       string
	Type       string
	Definition string
	Components []ComponentSummary
}
