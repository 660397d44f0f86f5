package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tidybox/internal/config"
	"tidybox/internal/history"
	"tidybox/internal/logging"
	"tidybox/internal/services"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "", "", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		if c.verbose != nil && *c.verbose {
			cfg.Logging.Level = "debug"
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// runLogger builds the logger for one run and scopes cmd's context to runID.
func (c *commandContext) runLogger(cmd *cobra.Command, runID string) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, path, err := logging.NewFromConfig(cfg, runID)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	cmd.SetContext(services.WithRunID(cmd.Context(), runID))
	if path != "" {
		logging.WithContext(cmd.Context(), logger).Debug("run log opened", logging.String("path", path))
	}
	return logger, nil
}

// withHistory opens the run ledger for the duration of fn.
func (c *commandContext) withHistory(ctx context.Context, fn func(*history.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(ctx, cfg.Paths.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// requireLLM wraps the missing-key error so main can print a hint.
func requireLLM(cfg *config.Config) error {
	if err := cfg.RequireLLM(); err != nil {
		return services.Wrap(services.ErrConfiguration, "", "", "", err)
	}
	return nil
}

// loadError classifies a plan or log read failure for the operator.
func loadError(what string, err error) error {
	marker := services.ErrInvalidInput
	if errors.Is(err, fs.ErrNotExist) {
		marker = services.ErrNotFound
	}
	return services.Wrap(marker, "", "load "+what, "", err)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
