package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil sinks")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if TeeHandler(nil, inner) != inner {
		t.Fatal("expected single sink to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsPerSinkLevels(t *testing.T) {
	var consoleBuf, fileBuf bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&consoleBuf, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewJSONHandler(&fileBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected tee to be enabled for debug")
	}
	logger := slog.New(h).With("component", "executor")
	logger.Debug("only file")
	logger.Info("both")

	if strings.Contains(consoleBuf.String(), "only file") {
		t.Fatal("console sink received debug record")
	}
	if !strings.Contains(fileBuf.String(), "only file") || !strings.Contains(fileBuf.String(), "both") {
		t.Fatalf("file sink missing records: %q", fileBuf.String())
	}
	if !strings.Contains(consoleBuf.String(), `"component":"executor"`) {
		t.Fatalf("attrs not propagated: %q", consoleBuf.String())
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestTeeHandlerKeepsWritingAfterSinkFailure(t *testing.T) {
	var buf bytes.Buffer
	good := slog.NewJSONHandler(&buf, nil)
	h := TeeHandler(failingHandler{good}, good)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "row processed", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !strings.Contains(buf.String(), "row processed") {
		t.Fatalf("healthy sink skipped: %q", buf.String())
	}
}

func TestJSONHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newJSONHandler(&buf, slog.LevelInfo, false))
	logger.Info("llm configured", slog.String("api_key", "sk-live-123"), slog.String("model", "m"))

	out := buf.String()
	if strings.Contains(out, "sk-live-123") || !strings.Contains(out, `"api_key":"[redacted]"`) {
		t.Fatalf("secret not redacted: %q", out)
	}
	if !strings.Contains(out, `"level":"info"`) || !strings.Contains(out, `"ts":"`) {
		t.Fatalf("unexpected envelope: %q", out)
	}
}
