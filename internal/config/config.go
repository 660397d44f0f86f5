package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directories the organizer and pipeline read and write.
type Paths struct {
	StorageRoot string `toml:"storage_root"`
	ClientsRoot string `toml:"clients_root"`
	OutputDir   string `toml:"output_dir"`
	LogDir      string `toml:"log_dir"`
	HistoryDB   string `toml:"history_db"`
}

// Organizer contains matching and confirmation settings for file moves.
type Organizer struct {
	NonClientPrefixes  []string `toml:"non_client_prefixes"`
	MinVariationLength int      `toml:"min_variation_length"`
	ConfirmExecute     string   `toml:"confirm_execute"`
	ConfirmUndo        string   `toml:"confirm_undo"`
	IncludeHidden      bool     `toml:"include_hidden"`
}

// LLM contains the chat-completions connection settings.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Price is the per-million-token cost of a model.
type Price struct {
	Input  float64 `toml:"input"`
	Output float64 `toml:"output"`
}

// Pipeline contains transcript synthesis settings.
type Pipeline struct {
	TranscriptsDir     string           `toml:"transcripts_dir"`
	NormalizedDir      string           `toml:"normalized_dir"`
	WorkDir            string           `toml:"work_dir"`
	PlaybooksDir       string           `toml:"playbooks_dir"`
	PromptsDir         string           `toml:"prompts_dir"`
	DiscoveryModel     string           `toml:"discovery_model"`
	SynthesisModel     string           `toml:"synthesis_model"`
	ActionabilityModel string           `toml:"actionability_model"`
	DiscoveryLimit     int              `toml:"discovery_limit"`
	MaxFrameworks      int              `toml:"max_frameworks"`
	MaxChunks          int              `toml:"max_chunks"`
	MaxPromptChars     int              `toml:"max_prompt_chars"`
	BudgetLimit        float64          `toml:"budget_limit"`
	AlertThreshold     float64          `toml:"alert_threshold"`
	Pricing            map[string]Price `toml:"pricing"`
	StrategicKeywords  []string         `toml:"strategic_keywords"`
	ClientKeywords     []string         `toml:"client_keywords"`
	ExcludeKeywords    []string         `toml:"exclude_keywords"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for tidybox.
//
// Configuration sections by subsystem:
//   - Paths: scan roots, output directory for plans and logs, run history
//   - Organizer: bracket prefixes that never name a client, confirmations
//   - LLM: shared chat-completions endpoint and credentials
//   - Pipeline: transcript locations, models, limits and spend budget
//   - Logging: log format and level
type Config struct {
	Paths     Paths     `toml:"paths"`
	Organizer Organizer `toml:"organizer"`
	LLM       LLM       `toml:"llm"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Logging   Logging   `toml:"logging"`

	// configDir is the directory holding the resolved config file; .env
	// lookups start there.
	configDir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.configDir = filepath.Dir(resolvedPath)

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("tidybox.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories tidybox writes into. The storage
// and clients roots belong to the cloud-storage mount and are never created.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir, filepath.Dir(c.Paths.HistoryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// EnsurePipelineDirectories creates the pipeline's intermediate and output directories.
func (c *Config) EnsurePipelineDirectories() error {
	for _, dir := range []string{c.Pipeline.NormalizedDir, c.Pipeline.WorkDir, c.Pipeline.PlaybooksDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// RequireLLM reports a configuration error when no API key could be resolved.
// Only the synthesis pipeline needs one, so Validate does not enforce it.
func (c *Config) RequireLLM() error {
	if strings.TrimSpace(c.LLM.APIKey) != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("llm.api_key is required. Set %s, add it to .env, store it with 'tidybox config set-key', or edit %s", envAPIKey, defaultPath)
}

// PricingTable returns the configured pricing merged over the built-in table.
func (c *Config) PricingTable() map[string]Price {
	table := defaultPricing()
	for model, price := range c.Pipeline.Pricing {
		table[strings.TrimSpace(model)] = price
	}
	return table
}
