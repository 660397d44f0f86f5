package matching

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tidybox/internal/logging"
)

// Candidate is a loose file found directly in the storage root.
type Candidate struct {
	Filename   string
	SourcePath string
}

// Result pairs a candidate with its match decision.
type Result struct {
	Candidate
	Match
}

// Lister enumerates the storage and client roots.
type Lister interface {
	Clients(root string) ([]string, error)
	Files(root string) ([]Candidate, error)
}

// DirLister reads directory entries from the local (mounted) filesystem.
type DirLister struct {
	IncludeHidden bool
}

// Clients returns the immediate subdirectories of root, sorted.
func (l DirLister) Clients(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	clients := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || l.hidden(entry.Name()) {
			continue
		}
		clients = append(clients, entry.Name())
	}
	sort.Strings(clients)
	return clients, nil
}

// Files returns the regular files directly inside root, sorted by name.
// Subdirectories are not descended into.
func (l DirLister) Files(root string) ([]Candidate, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	files := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || l.hidden(entry.Name()) {
			continue
		}
		files = append(files, Candidate{
			Filename:   entry.Name(),
			SourcePath: filepath.Join(root, entry.Name()),
		})
	}
	return files, nil
}

func (l DirLister) hidden(name string) bool {
	return !l.IncludeHidden && strings.HasPrefix(name, ".")
}

// Scanner lists candidates and matches each against a freshly built index.
type Scanner struct {
	StorageRoot       string
	ClientsRoot       string
	NonClientPrefixes []string
	MinLength         int
	Lister            Lister
	Logger            *slog.Logger
}

// Scan builds the client index from the current folder listing and matches
// every candidate file. Results keep the lister's order.
func (s *Scanner) Scan(ctx context.Context) ([]Result, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(s.Logger, "matching"))
	lister := s.Lister
	if lister == nil {
		lister = DirLister{}
	}

	clients, err := lister.Clients(s.ClientsRoot)
	if err != nil {
		return nil, err
	}
	files, err := lister.Files(s.StorageRoot)
	if err != nil {
		return nil, err
	}

	index := NewIndex(clients)
	matcher := NewMatcher(index, s.NonClientPrefixes, s.MinLength)
	logger.Debug("client index built",
		logging.Int("clients", len(index.Clients())),
		logging.Int("variations", index.Len()),
		logging.String(logging.FieldEventType, "client_index_built"),
	)

	results := make([]Result, 0, len(files))
	for _, file := range files {
		match := matcher.Match(file.Filename)
		results = append(results, Result{Candidate: file, Match: match})
		logger.Debug("file matched",
			logging.String(logging.FieldSubject, file.Filename),
			logging.String("client", match.Client),
			logging.String("strategy", string(match.Strategy)),
			logging.String("variation", match.Variation),
		)
	}
	logger.Info("scan complete",
		logging.Int("files", len(results)),
		logging.Int("clients", len(clients)),
		logging.String(logging.FieldEventType, "scan_complete"),
	)
	return results, nil
}
