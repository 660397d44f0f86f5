package main

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"tidybox/internal/config"
	"tidybox/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("BUDGET_LIMIT", "")
	t.Setenv("ALERT_THRESHOLD", "")
	restore := config.SetKeyringLookupForTests(func(string, string) (string, error) {
		return "", errors.New("keyring disabled in tests")
	})
	t.Cleanup(restore)
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "tidybox", "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// newestFile returns the lexically last file in dir matching pattern.
func newestFile(t *testing.T, dir, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	if len(matches) == 0 {
		t.Fatalf("no file matching %s in %s", pattern, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// approvePlan copies the plan with approved=Y on every matched row.
func approvePlan(t *testing.T, planPath string) string {
	t.Helper()
	f, err := os.Open(planPath)
	if err != nil {
		t.Fatalf("open plan: %v", err)
	}
	rows, err := csv.NewReader(f).ReadAll()
	f.Close()
	if err != nil {
		t.Fatalf("read plan: %v", err)
	}
	for _, row := range rows[1:] {
		if row[0] == "MATCHED" {
			row[1] = "Y"
		}
	}
	approved := filepath.Join(filepath.Dir(planPath), "approved.csv")
	out, err := os.Create(approved)
	if err != nil {
		t.Fatalf("create approved plan: %v", err)
	}
	w := csv.NewWriter(out)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write approved plan: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close approved plan: %v", err)
	}
	return approved
}
