package matching_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tidybox/internal/logging"
	"tidybox/internal/matching"
)

func mustWrite(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanListsTopLevelFilesAndMatches(t *testing.T) {
	base := t.TempDir()
	storage := filepath.Join(base, "drive")
	clients := filepath.Join(base, "clients")
	for _, c := range []string{"Globex", "Acme", ".trash"} {
		if err := os.MkdirAll(filepath.Join(clients, c), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite(t, filepath.Join(clients, "README.txt"))
	mustWrite(t, filepath.Join(storage, "Acme plan.pdf"))
	mustWrite(t, filepath.Join(storage, "[OLD] Globex.pdf"))
	mustWrite(t, filepath.Join(storage, ".DS_Store"))
	mustWrite(t, filepath.Join(storage, "nested", "Globex inner.pdf"))

	scanner := &matching.Scanner{
		StorageRoot:       storage,
		ClientsRoot:       clients,
		NonClientPrefixes: []string{"OLD"},
		Lister:            matching.DirLister{},
		Logger:            logging.NewNop(),
	}
	results, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}

	type row struct{ Name, Client string }
	got := make([]row, 0, len(results))
	for _, r := range results {
		got = append(got, row{r.Filename, r.Client})
		if r.SourcePath != filepath.Join(storage, r.Filename) {
			t.Fatalf("unexpected source path %q", r.SourcePath)
		}
	}
	want := []row{{"Acme plan.pdf", "Acme"}, {"[OLD] Globex.pdf", ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("scan mismatch (-want +got):\n%s", diff)
	}
}

func TestDirListerClientsSortedAndHiddenOptional(t *testing.T) {
	root := t.TempDir()
	for _, c := range []string{"Zeta", "alpha", ".hidden"} {
		if err := os.MkdirAll(filepath.Join(root, c), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	got, err := matching.DirLister{}.Clients(root)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Zeta", "alpha"}, got); diff != "" {
		t.Fatalf("clients mismatch (-want +got):\n%s", diff)
	}
	got, err = matching.DirLister{IncludeHidden: true}.Clients(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected hidden dir with IncludeHidden, got %v", got)
	}
}

func TestScanMissingRootFails(t *testing.T) {
	scanner := &matching.Scanner{StorageRoot: t.TempDir(), ClientsRoot: filepath.Join(t.TempDir(), "missing")}
	if _, err := scanner.Scan(context.Background()); err == nil {
		t.Fatal("expected error for missing clients root")
	}
}
