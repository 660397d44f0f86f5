package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"tidybox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The storage and clients roots are created; everything else is left for the
// code under test to create.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StorageRoot = filepath.Join(base, "storage")
	cfgVal.Paths.ClientsRoot = filepath.Join(base, "clients")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.HistoryDB = filepath.Join(base, "history.db")
	cfgVal.Pipeline.TranscriptsDir = filepath.Join(base, "transcripts")
	cfgVal.Pipeline.NormalizedDir = filepath.Join(base, "normalized")
	cfgVal.Pipeline.WorkDir = filepath.Join(base, "work")
	cfgVal.Pipeline.PlaybooksDir = filepath.Join(base, "playbooks")
	cfgVal.LLM.APIKey = "test"
	cfgVal.LLM.BaseURL = "http://127.0.0.1:0/v1/chat/completions"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}

	for _, dir := range []string{cfgVal.Paths.StorageRoot, cfgVal.Paths.ClientsRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}
	return builder.cfg
}

// WithLLMEndpoint points the LLM client at a test server.
func WithLLMEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = url
	}
}

// WithAPIKey overrides the API key; an empty key simulates a missing credential.
func WithAPIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithBudget sets the pipeline budget and alert threshold.
func WithBudget(limit, alert float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.BudgetLimit = limit
		b.cfg.Pipeline.AlertThreshold = alert
	}
}

// WithNonClientPrefixes replaces the excluded bracket prefixes.
func WithNonClientPrefixes(prefixes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organizer.NonClientPrefixes = prefixes
	}
}

// BaseDir returns the root temp directory backing the config paths.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StorageRoot)
}
