package transcripts_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tidybox/internal/testsupport"
	"tidybox/internal/transcripts"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(string) (string, error) { return s.text, s.err }

func TestBuildSplitsSpeakers(t *testing.T) {
	content := "Preamble line\nAlice Smith: We start with discovery.\nThen prioritise.\nBob: Agreed, three steps.\n"
	got := transcripts.Build("/in/2025-11-20 Acme Discovery Session.txt", content)

	if got.ID != "2025-11-20 Acme Discovery Session" {
		t.Fatalf("unexpected id %q", got.ID)
	}
	wantMeta := transcripts.Metadata{
		Date:             "2025-11-20",
		MeetingType:      "discovery_call",
		WordCount:        14,
		OriginalFilename: "2025-11-20 Acme Discovery Session.txt",
	}
	if diff := cmp.Diff(wantMeta, got.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
	wantChunks := []transcripts.Chunk{
		{ID: "chunk_0", Speaker: "Unknown", Text: "Preamble line", WordCount: 2},
		{ID: "chunk_1", Speaker: "Alice Smith", Text: "We start with discovery.\nThen prioritise.", WordCount: 6},
		{ID: "chunk_2", Speaker: "Bob", Text: "Agreed, three steps.", WordCount: 3},
	}
	if diff := cmp.Diff(wantChunks, got.Chunks); diff != "" {
		t.Fatalf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildWithoutSpeakersIsSingleChunk(t *testing.T) {
	got := transcripts.Build("/in/notes.txt", "  just some words here  ")
	if len(got.Chunks) != 1 || got.Chunks[0].Speaker != "Unknown" || got.Chunks[0].Text != "just some words here" {
		t.Fatalf("unexpected chunks %+v", got.Chunks)
	}
	if got.Metadata.Date != transcripts.UnknownDate || got.Metadata.MeetingType != "unknown" {
		t.Fatalf("unexpected metadata %+v", got.Metadata)
	}

	empty := transcripts.Build("/in/empty.txt", "")
	if len(empty.Chunks) != 1 || empty.Chunks[0].ID != "chunk_0" {
		t.Fatalf("expected single empty chunk, got %+v", empty.Chunks)
	}
}

func TestMeetingTypeOrder(t *testing.T) {
	cases := map[string]string{
		"Workshop weekly":        "workshop",
		"Team Weekly sync":       "weekly_sync",
		"All Hands March":        "all_hands",
		"ROI conference keynote": "conference",
		"Random chat":            "unknown",
	}
	for name, want := range cases {
		got := transcripts.Build("/in/"+name+".txt", "x").Metadata.MeetingType
		if got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}

func TestNormalizeAllSkipsFailures(t *testing.T) {
	base := t.TempDir()
	in := filepath.Join(base, "in")
	out := filepath.Join(base, "out")
	testsupport.WriteFile(t, filepath.Join(in, "2025-01-02 Weekly.txt"), "Ann: hello there")
	testsupport.WriteFile(t, filepath.Join(in, "nested", "2025-01-02 Weekly.txt"), "Ben: again")
	testsupport.WriteFile(t, filepath.Join(in, "broken.pdf"), "%PDF-nope")
	testsupport.WriteFile(t, filepath.Join(in, "ignored.docx"), "x")

	n := transcripts.NewNormalizer(in, out, nil)
	n.PDF = stubExtractor{err: errors.New("corrupt")}
	result, err := n.NormalizeAll(context.Background())
	if err != nil {
		t.Fatalf("NormalizeAll failed: %v", err)
	}
	if result.Found != 3 {
		t.Fatalf("expected 3 candidate files, got %d", result.Found)
	}
	if len(result.Written) != 2 || len(result.Failures) != 1 {
		t.Fatalf("expected 2 written and 1 failure, got %d/%d", len(result.Written), len(result.Failures))
	}
	if !strings.HasSuffix(result.Failures[0].Path, "broken.pdf") {
		t.Fatalf("unexpected failure %+v", result.Failures[0])
	}

	entries, err := os.ReadDir(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"2025-01-02 Weekly.json", "2025-01-02 Weekly_2.json"}, names); diff != "" {
		t.Fatalf("unexpected outputs:\n%s", diff)
	}

	loaded, err := transcripts.Load(filepath.Join(out, "2025-01-02 Weekly.json"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Chunks[0].Speaker != "Ann" || loaded.Metadata.MeetingType != "weekly_sync" {
		t.Fatalf("unexpected transcript %+v", loaded)
	}
}

func TestNormalizeUsesExtractorForPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Deck review.PDF")
	testsupport.WriteFile(t, path, "binary")
	n := transcripts.NewNormalizer(dir, filepath.Join(dir, "out"), nil)
	n.PDF = stubExtractor{text: "Cara: pdf words"}
	got, err := n.NormalizeFile(path)
	if err != nil {
		t.Fatalf("NormalizeFile failed: %v", err)
	}
	if got.Chunks[0].Speaker != "Cara" {
		t.Fatalf("unexpected chunks %+v", got.Chunks)
	}
	if _, err := n.NormalizeFile(filepath.Join(dir, "x.doc")); !errors.Is(err, transcripts.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestContentLimitsChunks(t *testing.T) {
	tr := transcripts.Transcript{Chunks: []transcripts.Chunk{{Text: "a"}, {Text: "b"}, {Text: "c"}}}
	if got := tr.Content(2); got != "a\n\nb" {
		t.Fatalf("unexpected content %q", got)
	}
	if got := tr.Content(0); got != "a\n\nb\n\nc" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestCategorize(t *testing.T) {
	c := transcripts.Categorizer{
		Strategic: []string{"coaching", "interview", "strategic"},
		Client:    []string{"client", "deck", "prd"},
		Exclude:   []string{"funeral"},
	}
	cases := []struct {
		name string
		want transcripts.Category
	}{
		{"Coaching call with client", transcripts.CategoryClient},
		{"Strategic coaching interview deck", transcripts.CategoryStrategic},
		{"Client deck strategic funeral", transcripts.CategoryExclude},
		{"Something else", transcripts.CategoryClient},
		{"PRD review", transcripts.CategoryClient},
	}
	for _, tc := range cases {
		if got := c.Categorize(tc.name); got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestSelectAndReport(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"coaching a.json", "client b.json", "funeral c.json", "notes.txt"} {
		testsupport.WriteFile(t, filepath.Join(dir, name), "{}")
	}
	c := transcripts.Categorizer{Strategic: []string{"coaching"}, Client: []string{"client"}, Exclude: []string{"funeral"}}

	all, err := c.Select(dir, transcripts.CategoryAll)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected excluded file dropped, got %v", all)
	}
	strategic, _ := c.Select(dir, transcripts.CategoryStrategic)
	if len(strategic) != 1 || filepath.Base(strategic[0]) != "coaching a.json" {
		t.Fatalf("unexpected strategic selection %v", strategic)
	}

	report, err := c.Report(dir)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	want := transcripts.Report{Total: 3, Strategic: []string{"coaching a"}, Client: []string{"client b"}, Excluded: []string{"funeral c"}}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Fatalf("report mismatch:\n%s", diff)
	}
}

func TestParseCategory(t *testing.T) {
	if c, err := transcripts.ParseCategory(""); err != nil || c != transcripts.CategoryAll {
		t.Fatalf("expected all, got %s %v", c, err)
	}
	if _, err := transcripts.ParseCategory("exclude"); err == nil {
		t.Fatal("expected exclude to be rejected as a selection")
	}
}
