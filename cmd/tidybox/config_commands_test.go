package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, env, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "[OK]")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, err = runCLI(t, env, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, env, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
}

func TestConfigSetKeyStoresInKeyring(t *testing.T) {
	env := setupCLITestEnv(t)
	var gotService, gotUser, gotKey string
	previous := keyringSet
	keyringSet = func(service, user, key string) error {
		gotService, gotUser, gotKey = service, user, key
		return nil
	}
	t.Cleanup(func() { keyringSet = previous })

	out, err := runCLI(t, env, "sk-or-123\n", "config", "set-key")
	if err != nil {
		t.Fatalf("set-key: %v", err)
	}
	requireContains(t, out, "Stored API key")
	if gotService != "tidybox" || gotUser != "llm" || gotKey != "sk-or-123" {
		t.Fatalf("unexpected keyring write %q %q %q", gotService, gotUser, gotKey)
	}

	keyringSet = func(string, string, string) error { return errors.New("no keyring") }
	if _, err := runCLI(t, env, "sk\n", "config", "set-key"); err == nil {
		t.Fatal("expected keyring failure to surface")
	}
	if _, err := runCLI(t, env, "\n", "config", "set-key"); err == nil {
		t.Fatal("expected empty key to be rejected")
	}
}
