// Package logging assembles structured slog loggers for tidybox commands.
//
// A run logs human-readable lines to stderr (console or JSON, per config) and
// a JSON copy into a per-run file under paths.log_dir, so stdout stays free for
// command output such as plan summaries. Loggers pick up run IDs, stages,
// categories and subjects from the services.Scope in a context. Values under
// secret keys such as api_key are redacted in both sinks.
package logging
