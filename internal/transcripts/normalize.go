package transcripts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tidybox/internal/logging"
)

var (
	datePattern    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	speakerPattern = regexp.MustCompile(`(?m)^[ \t]*([A-Z][a-z]+(?: [A-Z][a-z]+)*):[ \t]*`)
)

// ErrUnsupported is returned for files that are neither .txt nor .pdf.
var ErrUnsupported = errors.New("unsupported transcript type")

// meetingTypes is checked in order; the first keyword found wins.
var meetingTypes = []struct {
	keywords []string
	kind     string
}{
	{[]string{"workshop"}, "workshop"},
	{[]string{"discovery"}, "discovery_call"},
	{[]string{"all hands"}, "all_hands"},
	{[]string{"weekly"}, "weekly_sync"},
	{[]string{"roi", "conference"}, "conference"},
}

// Failure records a transcript that could not be normalized.
type Failure struct {
	Path string
	Err  error
}

// Result lists what a normalization run produced.
type Result struct {
	Found    int
	Written  []string
	Failures []Failure
}

// Normalizer converts raw transcripts into JSON files.
type Normalizer struct {
	InputDir  string
	OutputDir string
	PDF       Extractor
	Logger    *slog.Logger
}

// NewNormalizer returns a Normalizer using the default PDF extractor.
func NewNormalizer(inputDir, outputDir string, logger *slog.Logger) *Normalizer {
	return &Normalizer{
		InputDir:  inputDir,
		OutputDir: outputDir,
		PDF:       PDFExtractor{},
		Logger:    logging.NewComponentLogger(logger, "normalize"),
	}
}

// NormalizeAll processes every transcript under InputDir. Only a failure to
// walk the input or create the output directory is returned as an error.
func (n *Normalizer) NormalizeAll(ctx context.Context) (Result, error) {
	var result Result
	files, err := findTranscripts(n.InputDir)
	if err != nil {
		return result, err
	}
	result.Found = len(files)
	if err := os.MkdirAll(n.OutputDir, 0o755); err != nil {
		return result, fmt.Errorf("create normalized directory: %w", err)
	}
	logger := logging.WithContext(ctx, n.logger())
	logger.Info("normalizing transcripts",
		logging.String(logging.FieldEventType, "normalize_start"),
		logging.Int("files", len(files)),
		logging.String("input_dir", n.InputDir),
	)

	used := make(map[string]int, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		transcript, err := n.NormalizeFile(path)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
			logging.WarnWithContext(logger, "transcript skipped", "normalize_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the file opens and contains text"),
				logging.String(logging.FieldImpact, "transcript excluded from synthesis"),
			)
			continue
		}
		out, err := writeTranscript(n.OutputDir, transcript, used)
		if err != nil {
			result.Failures = append(result.Failures, Failure{Path: path, Err: err})
			logging.WarnWithContext(logger, "normalized transcript not written", "normalize_write_failed",
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		result.Written = append(result.Written, out)
	}

	logger.Info("normalization finished",
		logging.String(logging.FieldEventType, "normalize_complete"),
		logging.Int("written", len(result.Written)),
		logging.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// NormalizeFile extracts and structures a single transcript.
func (n *Normalizer) NormalizeFile(path string) (Transcript, error) {
	var (
		content string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		content, err = readText(path)
	case ".pdf":
		extractor := n.PDF
		if extractor == nil {
			extractor = PDFExtractor{}
		}
		content, err = extractor.Extract(path)
	default:
		return Transcript{}, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}
	if err != nil {
		return Transcript{}, err
	}
	return Build(path, content), nil
}

// Build structures already-extracted content.
func Build(path, content string) Transcript {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return Transcript{
		ID:         stem,
		SourceFile: path,
		Metadata:   extractMetadata(path, content),
		Chunks:     splitChunks(content),
	}
}

func extractMetadata(path, content string) Metadata {
	name := filepath.Base(path)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	date := datePattern.FindString(stem)
	if date == "" {
		date = UnknownDate
	}
	return Metadata{
		Date:             date,
		MeetingType:      meetingType(stem),
		WordCount:        len(strings.Fields(content)),
		OriginalFilename: name,
	}
}

func meetingType(stem string) string {
	lower := strings.ToLower(stem)
	for _, mt := range meetingTypes {
		for _, kw := range mt.keywords {
			if strings.Contains(lower, kw) {
				return mt.kind
			}
		}
	}
	return "unknown"
}

// splitChunks cuts content at speaker labels. Text before the first label is
// attributed to "Unknown". Content without labels becomes a single chunk.
func splitChunks(content string) []Chunk {
	var chunks []Chunk
	add := func(speaker, text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		chunks = append(chunks, Chunk{
			ID:        "chunk_" + strconv.Itoa(len(chunks)),
			Speaker:   speaker,
			Text:      text,
			WordCount: len(strings.Fields(text)),
		})
	}

	matches := speakerPattern.FindAllStringSubmatchIndex(content, -1)
	speaker := "Unknown"
	pos := 0
	for _, m := range matches {
		add(speaker, content[pos:m[0]])
		speaker = content[m[2]:m[3]]
		pos = m[1]
	}
	add(speaker, content[pos:])

	if len(chunks) == 0 {
		text := strings.TrimSpace(content)
		chunks = append(chunks, Chunk{
			ID:        "chunk_0",
			Speaker:   "Unknown",
			Text:      text,
			WordCount: len(strings.Fields(text)),
		})
	}
	return chunks
}

func findTranscripts(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".txt", ".pdf":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk transcripts: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// writeTranscript writes <stem>.json. Stems repeated across subdirectories
// get a numeric suffix rather than overwriting each other.
func writeTranscript(dir string, t Transcript, used map[string]int) (string, error) {
	name := t.ID
	used[name]++
	if n := used[name]; n > 1 {
		name = fmt.Sprintf("%s_%d", name, n)
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	path := filepath.Join(dir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return logging.NewNop()
	}
	return n.Logger
}
