// Package config loads, normalizes, and validates tidybox configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and resolves the LLM API key from the environment, a .env file,
// or the OS keyring. Budget limits honour BUDGET_LIMIT and ALERT_THRESHOLD.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
