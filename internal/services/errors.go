package services

import (
	"errors"
	"fmt"
	"strings"
)

// Markers classify failures so commands can print a next step. Wrap attaches
// one; errors.Is recovers it.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrConfiguration = errors.New("configuration error")
	ErrProvider      = errors.New("llm provider error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap tags err with marker and prefixes it with "stage: operation: message",
// skipping blank parts. A nil marker is treated as ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, part := range []string{stage, operation, message} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	switch {
	case len(parts) == 0 && err != nil:
		return fmt.Errorf("%w: %w", marker, err)
	case len(parts) == 0:
		return marker
	case err == nil:
		return fmt.Errorf("%w: %s", marker, strings.Join(parts, ": "))
	}
	return fmt.Errorf("%w: %s: %w", marker, strings.Join(parts, ": "), err)
}

var hints = []struct {
	marker error
	hint   string
}{
	{ErrConfiguration, "run 'tidybox config validate' and fix the reported setting"},
	{ErrNotFound, "check the path argument; plans, logs and pipeline outputs live under paths.output_dir and pipeline.work_dir"},
	{ErrInvalidInput, "inspect the input file for missing columns or malformed values"},
	{ErrProvider, "check the API key, the model name and the provider status"},
	{ErrTransient, "re-run the command; completed work is kept"},
}

// Hint returns the operator-facing next step for a classified error, or an
// empty string when err carries no marker.
func Hint(err error) string {
	if err == nil {
		return ""
	}
	for _, h := range hints {
		if errors.Is(err, h.marker) {
			return h.hint
		}
	}
	return ""
}
