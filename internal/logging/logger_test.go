package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tidybox/internal/config"
	"tidybox/internal/logging"
	"tidybox/internal/services"
)

func TestConsoleLoggerFormatsComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "organizer")
	logger.Info("row moved", logging.String("subject", "Acme deck.pdf"), logging.Int("count", 2))
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "INFO  organizer: row moved") {
		t.Fatalf("unexpected line: %q", out)
	}
	if !strings.Contains(out, `subject="Acme deck.pdf"`) || !strings.Contains(out, "count=2") {
		t.Fatalf("expected fields in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug line leaked at info level: %q", out)
	}
	if strings.Contains(out, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", out)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("with caller")
	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Fatalf("expected caller information, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestFileCopyIsJSONAtDebug(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf, FilePath: path})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("detail", logging.String("k", "v"))

	if buf.Len() != 0 {
		t.Fatalf("console should filter debug, got %q", buf.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("file log is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "detail" || entry["k"] != "v" || entry["level"] != "debug" {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "error"

	logger, path, err := logging.NewFromConfig(&cfg, "0123456789abcdef")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "tidybox-") || !strings.HasSuffix(path, "-01234567.log") {
		t.Fatalf("unexpected run log path %q", path)
	}
	ctx := services.WithRunID(context.Background(), "0123456789abcdef")
	logging.WithContext(ctx, logger).Info("hello")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if got := strings.Count(string(data), `"run_id":"0123456789abcdef"`); got != 1 {
		t.Fatalf("expected run id exactly once in %q", data)
	}
}

func TestWithContextAddsScopeFields(t *testing.T) {
	var buf bytes.Buffer
	base, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithStage(services.WithRunID(context.Background(), "run-1"), "synthesis")
	ctx = services.WithCategory(ctx, "strategic")
	ctx = services.WithSubject(ctx, "Pilot Ladder")
	logging.WithContext(ctx, base).Info("ok")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := map[string]string{"run_id": "run-1", "stage": "synthesis", "category": "strategic", "subject": "Pilot Ladder"}
	for key, value := range want {
		if entry[key] != value {
			t.Fatalf("field %s = %v, want %s", key, entry[key], value)
		}
	}
}

func TestConsoleRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("configured", logging.String("api_key", "sk-123"))
	if strings.Contains(buf.String(), "sk-123") || !strings.Contains(buf.String(), `api_key=[redacted]`) {
		t.Fatalf("secret leaked: %q", buf.String())
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "row failed", "row_failed",
		logging.String(logging.FieldImpact, "file not moved"),
		logging.String(logging.FieldEventType, "ignored"),
	)

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if entry["event_type"] != "ignored" || entry["impact"] != "file not moved" {
		t.Fatalf("caller fields should win: %#v", entry)
	}
	if entry["error_hint"] != "check the run log for details" {
		t.Fatalf("expected default hint, got %#v", entry["error_hint"])
	}
}

func TestPruneRunLogsKeepsCurrentAndOtherFiles(t *testing.T) {
	dir := t.TempDir()
	old := time.Now().AddDate(0, 0, -40)
	files := map[string]bool{
		"tidybox-20240101_000000-aaaaaaaa.log": false,
		"tidybox-current.log":                  true,
		"execution_log_20240101_000000.csv":    true,
		"other.log":                            true,
	}
	for name := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := os.Chtimes(p, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	fresh := filepath.Join(dir, "tidybox-fresh.log")
	if err := os.WriteFile(fresh, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	files["tidybox-fresh.log"] = true

	removed := logging.PruneRunLogs(logging.NewNop(), dir, 30, filepath.Join(dir, "tidybox-current.log"))
	if removed != 1 {
		t.Fatalf("removed %d files, want 1", removed)
	}
	for name, keep := range files {
		_, err := os.Stat(filepath.Join(dir, name))
		if keep && err != nil {
			t.Fatalf("%s should remain: %v", name, err)
		}
		if !keep && err == nil {
			t.Fatalf("%s should be pruned", name)
		}
	}
	if n := logging.PruneRunLogs(logging.NewNop(), dir, 0, ""); n != 0 {
		t.Fatalf("retention 0 should disable pruning, removed %d", n)
	}
}
