package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOrganizer(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageRoot == "" {
		return errors.New("paths.storage_root must be set")
	}
	if c.Paths.ClientsRoot == "" {
		return errors.New("paths.clients_root must be set")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if filepath.Clean(c.Paths.StorageRoot) == filepath.Clean(c.Paths.ClientsRoot) {
		return errors.New("paths.storage_root and paths.clients_root must differ")
	}
	return nil
}

func (c *Config) validateOrganizer() error {
	if c.Organizer.ConfirmExecute == c.Organizer.ConfirmUndo {
		return errors.New("organizer.confirm_execute and organizer.confirm_undo must differ")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", c.LLM.BaseURL)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.BudgetLimit <= 0 {
		return errors.New("pipeline.budget_limit must be positive")
	}
	if c.Pipeline.AlertThreshold < 0 {
		return errors.New("pipeline.alert_threshold must not be negative")
	}
	if c.Pipeline.AlertThreshold > c.Pipeline.BudgetLimit {
		return errors.New("pipeline.alert_threshold must not exceed pipeline.budget_limit")
	}
	for model, price := range c.Pipeline.Pricing {
		if price.Input < 0 || price.Output < 0 {
			return fmt.Errorf("pipeline.pricing.%s must not be negative", model)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
