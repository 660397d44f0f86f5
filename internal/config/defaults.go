package config

const (
	defaultConfigPath         = "~/.config/tidybox/config.toml"
	defaultStorageRoot        = "~/GoogleDrive/My Drive"
	defaultClientsRoot        = "~/GoogleDrive/Shared drives/Enterprise/Clients"
	defaultOutputDir          = "~/.local/share/tidybox/output"
	defaultLogDir             = "~/.local/share/tidybox/logs"
	defaultHistoryDB          = "~/.local/share/tidybox/history.db"
	defaultMinVariationLength = 3
	defaultConfirmExecute     = "YES"
	defaultConfirmUndo        = "UNDO"
	defaultLLMBaseURL         = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMReferer         = "https://github.com/tidybox/tidybox"
	defaultLLMTitle           = "tidybox playbook"
	defaultLLMTimeoutSeconds  = 180
	defaultTranscriptsDir     = "~/.local/share/tidybox/transcripts"
	defaultNormalizedDir      = "~/.local/share/tidybox/transcripts_normalized"
	defaultWorkDir            = "~/.local/share/tidybox/frameworks"
	defaultPlaybooksDir       = "~/.local/share/tidybox/playbooks"
	defaultDiscoveryModel     = "anthropic/claude-sonnet-4-5"
	defaultSynthesisModel     = "anthropic/claude-opus-4-1"
	defaultActionabilityModel = "anthropic/claude-sonnet-4-5"
	defaultDiscoveryLimit     = 10
	defaultMaxFrameworks      = 7
	defaultMaxChunks          = 50
	defaultMaxPromptChars     = 8000
	defaultBudgetLimit        = 50.0
	defaultAlertThreshold     = 15.0
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30

	envAPIKey         = "OPENROUTER_API_KEY"
	envBudgetLimit    = "BUDGET_LIMIT"
	envAlertThreshold = "ALERT_THRESHOLD"

	// KeyringService and KeyringUser identify the API key in the OS keyring.
	KeyringService = "tidybox"
	KeyringUser    = "llm"
)

func defaultNonClientPrefixes() []string {
	return []string{
		"ARCHIVED",
		"INTERNAL",
		"OLD",
		"CUSTOMIZATION TEMPLATE",
		"MAKE A COPY",
		"NEW",
		"PUBLIC",
		"SECTION VERSION",
		"SPEAKER",
		"OLD DO NOT USE",
	}
}

func defaultStrategicKeywords() []string {
	return []string{
		"coaching", "1-on-1", "interview", "strategic", "workshop lead",
		"lunch & learn", "bootcamp", "consulting weekly", "proposal review",
		"refining ai workflows",
	}
}

func defaultClientKeywords() []string {
	return []string{
		"discovery session", "prioritization", "martech", "marketing offsite",
		"client", "deck", "product teardown", "prd",
	}
}

func defaultExcludeKeywords() []string {
	return []string{"funeral", "personal"}
}

// defaultPricing lists per-million-token prices keyed by model name without
// the provider prefix.
func defaultPricing() map[string]Price {
	return map[string]Price{
		"claude-sonnet-4-5": {Input: 3, Output: 15},
		"claude-opus-4-1":   {Input: 15, Output: 75},
		"gpt-5.1-instant":   {Input: 2, Output: 10},
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageRoot: defaultStorageRoot,
			ClientsRoot: defaultClientsRoot,
			OutputDir:   defaultOutputDir,
			LogDir:      defaultLogDir,
			HistoryDB:   defaultHistoryDB,
		},
		Organizer: Organizer{
			NonClientPrefixes:  defaultNonClientPrefixes(),
			MinVariationLength: defaultMinVariationLength,
			ConfirmExecute:     defaultConfirmExecute,
			ConfirmUndo:        defaultConfirmUndo,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			TranscriptsDir:     defaultTranscriptsDir,
			NormalizedDir:      defaultNormalizedDir,
			WorkDir:            defaultWorkDir,
			PlaybooksDir:       defaultPlaybooksDir,
			DiscoveryModel:     defaultDiscoveryModel,
			SynthesisModel:     defaultSynthesisModel,
			ActionabilityModel: defaultActionabilityModel,
			DiscoveryLimit:     defaultDiscoveryLimit,
			MaxFrameworks:      defaultMaxFrameworks,
			MaxChunks:          defaultMaxChunks,
			MaxPromptChars:     defaultMaxPromptChars,
			BudgetLimit:        defaultBudgetLimit,
			AlertThreshold:     defaultAlertThreshold,
			StrategicKeywords:  defaultStrategicKeywords(),
			ClientKeywords:     defaultClientKeywords(),
			ExcludeKeywords:    defaultExcludeKeywords(),
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
