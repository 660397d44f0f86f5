package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"
)

// keyringGet is swapped in tests so the OS keyring is never touched.
var keyringGet = keyring.Get

// SetKeyringLookupForTests overrides the keyring lookup and returns a restore func.
func SetKeyringLookupForTests(fn func(service, user string) (string, error)) func() {
	previous := keyringGet
	keyringGet = fn
	return func() { keyringGet = previous }
}

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOrganizer()
	c.normalizeLLM()
	if err := c.normalizePipeline(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name  string
		value *string
		def   string
	}{
		{"paths.storage_root", &c.Paths.StorageRoot, defaultStorageRoot},
		{"paths.clients_root", &c.Paths.ClientsRoot, defaultClientsRoot},
		{"paths.output_dir", &c.Paths.OutputDir, defaultOutputDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.history_db", &c.Paths.HistoryDB, defaultHistoryDB},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeOrganizer() {
	prefixes := make([]string, 0, len(c.Organizer.NonClientPrefixes))
	seen := make(map[string]struct{}, len(c.Organizer.NonClientPrefixes))
	for _, prefix := range c.Organizer.NonClientPrefixes {
		prefix = strings.ToUpper(strings.TrimSpace(prefix))
		if prefix == "" {
			continue
		}
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		prefixes = append(prefixes, prefix)
	}
	c.Organizer.NonClientPrefixes = prefixes
	if c.Organizer.MinVariationLength <= 0 {
		c.Organizer.MinVariationLength = defaultMinVariationLength
	}
	c.Organizer.ConfirmExecute = strings.TrimSpace(c.Organizer.ConfirmExecute)
	if c.Organizer.ConfirmExecute == "" {
		c.Organizer.ConfirmExecute = defaultConfirmExecute
	}
	c.Organizer.ConfirmUndo = strings.TrimSpace(c.Organizer.ConfirmUndo)
	if c.Organizer.ConfirmUndo == "" {
		c.Organizer.ConfirmUndo = defaultConfirmUndo
	}
}

func (c *Config) normalizeLLM() {
	if value, ok := os.LookupEnv(envAPIKey); ok && strings.TrimSpace(value) != "" {
		c.LLM.APIKey = value
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = c.dotenvValue(envAPIKey)
	}
	if c.LLM.APIKey == "" {
		if value, err := keyringGet(KeyringService, KeyringUser); err == nil {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

// dotenvValue reads key from a .env file beside the config file, then from
// the working directory. The process environment is left untouched.
func (c *Config) dotenvValue(key string) string {
	candidates := []string{}
	if c.configDir != "" {
		candidates = append(candidates, filepath.Join(c.configDir, ".env"))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, ".env"))
	}
	for _, path := range candidates {
		values, err := godotenv.Read(path)
		if err != nil {
			continue
		}
		if value := strings.TrimSpace(values[key]); value != "" {
			return value
		}
	}
	return ""
}

func (c *Config) normalizePipeline() error {
	dirs := []struct {
		name  string
		value *string
		def   string
	}{
		{"pipeline.transcripts_dir", &c.Pipeline.TranscriptsDir, defaultTranscriptsDir},
		{"pipeline.normalized_dir", &c.Pipeline.NormalizedDir, defaultNormalizedDir},
		{"pipeline.work_dir", &c.Pipeline.WorkDir, defaultWorkDir},
		{"pipeline.playbooks_dir", &c.Pipeline.PlaybooksDir, defaultPlaybooksDir},
		{"pipeline.prompts_dir", &c.Pipeline.PromptsDir, ""},
	}
	for _, dir := range dirs {
		if strings.TrimSpace(*dir.value) == "" {
			*dir.value = dir.def
		}
		expanded, err := expandPath(*dir.value)
		if err != nil {
			return fmt.Errorf("%s: %w", dir.name, err)
		}
		*dir.value = expanded
	}

	c.Pipeline.DiscoveryModel = strings.TrimSpace(c.Pipeline.DiscoveryModel)
	if c.Pipeline.DiscoveryModel == "" {
		c.Pipeline.DiscoveryModel = defaultDiscoveryModel
	}
	c.Pipeline.SynthesisModel = strings.TrimSpace(c.Pipeline.SynthesisModel)
	if c.Pipeline.SynthesisModel == "" {
		c.Pipeline.SynthesisModel = defaultSynthesisModel
	}
	c.Pipeline.ActionabilityModel = strings.TrimSpace(c.Pipeline.ActionabilityModel)
	if c.Pipeline.ActionabilityModel == "" {
		c.Pipeline.ActionabilityModel = defaultActionabilityModel
	}
	if c.Pipeline.DiscoveryLimit <= 0 {
		c.Pipeline.DiscoveryLimit = defaultDiscoveryLimit
	}
	if c.Pipeline.MaxFrameworks <= 0 {
		c.Pipeline.MaxFrameworks = defaultMaxFrameworks
	}
	if c.Pipeline.MaxChunks <= 0 {
		c.Pipeline.MaxChunks = defaultMaxChunks
	}
	if c.Pipeline.MaxPromptChars <= 0 {
		c.Pipeline.MaxPromptChars = defaultMaxPromptChars
	}

	var err error
	if c.Pipeline.BudgetLimit, err = envFloat(envBudgetLimit, c.Pipeline.BudgetLimit); err != nil {
		return err
	}
	if c.Pipeline.AlertThreshold, err = envFloat(envAlertThreshold, c.Pipeline.AlertThreshold); err != nil {
		return err
	}

	c.Pipeline.StrategicKeywords = lowerAll(c.Pipeline.StrategicKeywords)
	c.Pipeline.ClientKeywords = lowerAll(c.Pipeline.ClientKeywords)
	c.Pipeline.ExcludeKeywords = lowerAll(c.Pipeline.ExcludeKeywords)
	return nil
}

func envFloat(key string, current float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return current, nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, errors.New(key + " must be a number")
	}
	return value, nil
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value != "" {
			out = append(out, value)
		}
	}
	return out
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
