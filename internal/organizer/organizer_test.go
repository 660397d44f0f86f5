package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"tidybox/internal/history"
	"tidybox/internal/organizer"
	"tidybox/internal/plan"
	"tidybox/internal/testsupport"
)

type fixture struct {
	storage string
	clients string
	output  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return fixture{
		storage: cfg.Paths.StorageRoot,
		clients: cfg.Paths.ClientsRoot,
		output:  cfg.Paths.OutputDir,
	}
}

func (f fixture) row(client, name string) plan.Record {
	return plan.Record{
		Filename:        name,
		SourcePath:      filepath.Join(f.storage, name),
		MatchedClient:   client,
		DestinationPath: filepath.Join(f.clients, client, name),
		Approved:        "Y",
	}
}

type memRecorder struct {
	runs []history.Run
	err  error
}

func (m *memRecorder) RecordRun(_ context.Context, run history.Run) error {
	m.runs = append(m.runs, run)
	return m.err
}

func TestExecuteRejectsDraftPlan(t *testing.T) {
	f := newFixture(t)
	rec := f.row("Acme", "[Acme] notes.txt")
	rec.Approved = ""
	testsupport.WriteFile(t, rec.SourcePath, "x")

	exec := organizer.NewExecutor(f.output, nil)
	_, err := exec.Execute(context.Background(), &plan.Plan{Records: []plan.Record{rec}}, false)
	if !errors.Is(err, plan.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
	if _, statErr := os.Stat(rec.SourcePath); statErr != nil {
		t.Fatalf("source should be untouched: %v", statErr)
	}
	entries, _ := os.ReadDir(f.output)
	if len(entries) != 0 {
		t.Fatalf("expected no log for a draft plan, found %d files", len(entries))
	}
}

func TestExecuteMixedOutcomes(t *testing.T) {
	f := newFixture(t)
	valid := f.row("Acme", "[Acme] deck.pdf")
	missing := f.row("Beta", "[Beta] gone.pdf")
	collide := f.row("Gamma", "[Gamma] brief.docx")
	skipped := f.row("Acme", "[Acme] not approved.txt")
	skipped.Approved = "n"

	testsupport.WriteFile(t, valid.SourcePath, "deck")
	testsupport.WriteFile(t, collide.SourcePath, "new brief")
	testsupport.WriteFile(t, collide.DestinationPath, "existing brief")
	testsupport.WriteFile(t, skipped.SourcePath, "skip")

	recorder := &memRecorder{}
	exec := organizer.NewExecutor(f.output, nil)
	exec.Recorder = recorder
	report, err := exec.Execute(context.Background(), &plan.Plan{Path: "preview.csv", Records: []plan.Record{valid, missing, collide, skipped}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 2 {
		t.Fatalf("expected 1 success and 2 failures, got %d/%d", report.Succeeded, report.Failed)
	}
	if len(report.Records) != 3 {
		t.Fatalf("expected only approved rows in report, got %d", len(report.Records))
	}

	if got := testsupport.ReadFile(t, valid.DestinationPath); got != "deck" {
		t.Fatalf("unexpected moved content %q", got)
	}
	if _, err := os.Stat(valid.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err=%v", err)
	}
	if got := testsupport.ReadFile(t, collide.SourcePath); got != "new brief" {
		t.Fatalf("colliding source changed: %q", got)
	}
	if got := testsupport.ReadFile(t, collide.DestinationPath); got != "existing brief" {
		t.Fatalf("existing destination overwritten: %q", got)
	}
	if got := testsupport.ReadFile(t, skipped.SourcePath); got != "skip" {
		t.Fatalf("unapproved row touched: %q", got)
	}

	byName := map[string]plan.Outcome{}
	for _, rec := range report.Records {
		byName[rec.Filename] = rec.Result
	}
	if byName[valid.Filename].Kind != plan.OutcomeSuccess {
		t.Fatalf("expected SUCCESS, got %v", byName[valid.Filename])
	}
	if r := byName[missing.Filename]; r.Kind != plan.OutcomeFailed || !strings.Contains(r.Reason, "source missing") {
		t.Fatalf("expected source missing failure, got %v", r)
	}
	if r := byName[collide.Filename]; r.Kind != plan.OutcomeFailed || !strings.Contains(r.Reason, "destination exists") {
		t.Fatalf("expected destination exists failure, got %v", r)
	}

	logged, err := plan.LoadLog(report.LogPath)
	if err != nil {
		t.Fatalf("LoadLog failed: %v", err)
	}
	if diff := cmp.Diff(report.Records, normalizeApproved(logged, report.Records)); diff != "" {
		t.Fatalf("log does not match report (-report +log):\n%s", diff)
	}
	if !strings.HasPrefix(filepath.Base(report.LogPath), "executed_") {
		t.Fatalf("unexpected log name %s", report.LogPath)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].Kind != history.RunExecuted || recorder.runs[0].Failed != 2 {
		t.Fatalf("unexpected recorded runs: %+v", recorder.runs)
	}
	if len(report.FailedRecords()) != 2 {
		t.Fatalf("expected 2 failed records, got %d", len(report.FailedRecords()))
	}
}

// Logs do not carry the approved column; copy it over before comparing.
func normalizeApproved(logged, reference []plan.Record) []plan.Record {
	out := make([]plan.Record, len(logged))
	copy(out, logged)
	for i := range out {
		if i < len(reference) {
			out[i].Approved = reference[i].Approved
		}
	}
	return out
}

func TestExecuteAllFailuresStillWritesLog(t *testing.T) {
	f := newFixture(t)
	exec := organizer.NewExecutor(f.output, nil)
	report, err := exec.Execute(context.Background(), &plan.Plan{Records: []plan.Record{f.row("Acme", "[Acme] a.txt")}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Failed != 1 || report.LogPath == "" {
		t.Fatalf("expected a log with one failure, got %+v", report)
	}
	info, err := os.Stat(report.LogPath)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Mode().Perm()&0o222 != 0 {
		t.Fatalf("expected read-only log, mode %v", info.Mode())
	}
}

func TestExecuteMalformedRowFailsOnlyThatRow(t *testing.T) {
	f := newFixture(t)
	good := f.row("Acme", "[Acme] ok.txt")
	testsupport.WriteFile(t, good.SourcePath, "ok")
	relative := plan.Record{Filename: "bad.txt", SourcePath: "bad.txt", DestinationPath: "Acme/bad.txt", MatchedClient: "Acme", Approved: "y"}
	empty := plan.Record{Filename: "empty.txt", Approved: "Y"}

	report, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: []plan.Record{relative, good, empty}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 2 {
		t.Fatalf("expected 1/2, got %d/%d", report.Succeeded, report.Failed)
	}
	for _, rec := range report.FailedRecords() {
		if !strings.Contains(rec.Result.Reason, plan.ErrMalformedRow.Error()) {
			t.Fatalf("expected malformed row reason, got %q", rec.Result.Reason)
		}
	}
}

func TestDryRunHasNoSideEffectsAndIsRepeatable(t *testing.T) {
	f := newFixture(t)
	a := f.row("Acme", "[Acme] one.txt")
	b := f.row("Beta", "[Beta] two.txt")
	testsupport.WriteFile(t, a.SourcePath, "1")
	testsupport.WriteFile(t, b.SourcePath, "2")
	p := &plan.Plan{Records: []plan.Record{a, b}}

	storageBefore := testsupport.Tree(t, f.storage)
	clientsBefore := testsupport.Tree(t, f.clients)

	exec := organizer.NewExecutor(f.output, nil)
	first, err := exec.Execute(context.Background(), p, true)
	if err != nil {
		t.Fatalf("first dry run failed: %v", err)
	}
	second, err := exec.Execute(context.Background(), p, true)
	if err != nil {
		t.Fatalf("second dry run failed: %v", err)
	}

	if diff := cmp.Diff(storageBefore, testsupport.Tree(t, f.storage)); diff != "" {
		t.Fatalf("dry run changed storage:\n%s", diff)
	}
	if diff := cmp.Diff(clientsBefore, testsupport.Tree(t, f.clients)); diff != "" {
		t.Fatalf("dry run changed clients:\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(f.clients, "Acme")); !os.IsNotExist(err) {
		t.Fatalf("dry run created a client directory: %v", err)
	}
	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Fatalf("dry runs disagree:\n%s", diff)
	}
	for _, rec := range first.Records {
		if rec.Result.Kind != plan.OutcomeDryRunOK {
			t.Fatalf("expected DRY_RUN_OK, got %v", rec.Result)
		}
	}
	if first.LogPath == second.LogPath {
		t.Fatalf("expected distinct dry-run logs, both %s", first.LogPath)
	}
	if !strings.HasPrefix(filepath.Base(first.LogPath), "dryrun_") {
		t.Fatalf("unexpected dry-run log name %s", first.LogPath)
	}
}

func TestDryRunPredictsCollisionWithinBatch(t *testing.T) {
	f := newFixture(t)
	first := f.row("Acme", "[Acme] same.txt")
	second := first
	second.SourcePath = filepath.Join(f.storage, "sub-copy.txt")
	testsupport.WriteFile(t, first.SourcePath, "a")
	testsupport.WriteFile(t, second.SourcePath, "b")
	p := &plan.Plan{Records: []plan.Record{first, second}}

	dry, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), p, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	executed, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), p, false)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if dry.Failed != 1 || executed.Failed != 1 {
		t.Fatalf("expected the second row to fail in both modes, dry=%d executed=%d", dry.Failed, executed.Failed)
	}
	if !strings.Contains(dry.Records[1].Result.Reason, "destination exists") {
		t.Fatalf("unexpected dry-run reason %q", dry.Records[1].Result.Reason)
	}
}

func TestExecuteThenUndoRestoresTree(t *testing.T) {
	f := newFixture(t)
	rows := []plan.Record{
		f.row("Acme", "[Acme] q1 report.pdf"),
		f.row("Beta Corp", "[Beta Corp] kickoff.docx"),
		f.row("Acme", "acme-invoice.xlsx"),
	}
	for i, rec := range rows {
		testsupport.WriteFile(t, rec.SourcePath, strings.Repeat("x", i+1))
	}
	storageBefore := testsupport.Tree(t, f.storage)
	clientsBefore := testsupport.Tree(t, f.clients)

	report, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: rows}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Failed != 0 {
		t.Fatalf("expected all rows to succeed: %+v", report.FailedRecords())
	}

	undo := organizer.NewUndoEngine(f.output, nil)
	undoReport, err := undo.Undo(context.Background(), report.LogPath, false)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if undoReport.Succeeded != 3 || undoReport.Failed != 0 {
		t.Fatalf("expected 3 undone, got %d/%d", undoReport.Succeeded, undoReport.Failed)
	}
	if diff := cmp.Diff(storageBefore, testsupport.Tree(t, f.storage)); diff != "" {
		t.Fatalf("storage not restored:\n%s", diff)
	}
	if diff := cmp.Diff(clientsBefore, testsupport.Tree(t, f.clients)); diff != "" {
		t.Fatalf("clients not restored:\n%s", diff)
	}

	logged, err := plan.LoadLog(undoReport.LogPath)
	if err != nil {
		t.Fatalf("LoadLog(undo) failed: %v", err)
	}
	for _, rec := range logged {
		if rec.Result.Kind != plan.OutcomeSuccess || rec.UndoResult.Kind != plan.OutcomeUndone {
			t.Fatalf("unexpected undo log row %+v", rec)
		}
	}
	if !strings.HasPrefix(filepath.Base(undoReport.LogPath), "undone_") {
		t.Fatalf("unexpected undo log name %s", undoReport.LogPath)
	}
}

func TestUndoPartialConflicts(t *testing.T) {
	f := newFixture(t)
	moved := f.row("Acme", "[Acme] moved.txt")
	relocated := f.row("Acme", "[Acme] relocated.txt")
	reoccupied := f.row("Beta", "[Beta] reoccupied.txt")
	failed := f.row("Beta", "[Beta] never.txt")
	for _, rec := range []plan.Record{moved, relocated, reoccupied} {
		testsupport.WriteFile(t, rec.SourcePath, rec.Filename)
	}

	report, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: []plan.Record{moved, relocated, reoccupied, failed}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Succeeded != 3 {
		t.Fatalf("expected 3 successes, got %d", report.Succeeded)
	}

	// The user moved one file elsewhere and created a new file at another's original path.
	if err := os.Rename(relocated.DestinationPath, filepath.Join(f.clients, "elsewhere.txt")); err != nil {
		t.Fatalf("relocate: %v", err)
	}
	testsupport.WriteFile(t, reoccupied.SourcePath, "fresh file")

	undo := organizer.NewUndoEngine(f.output, nil)
	dry, err := undo.Undo(context.Background(), report.LogPath, true)
	if err != nil {
		t.Fatalf("dry undo failed: %v", err)
	}
	if dry.Succeeded != 1 || dry.Failed != 2 {
		t.Fatalf("expected dry undo 1/2, got %d/%d", dry.Succeeded, dry.Failed)
	}
	if _, err := os.Stat(moved.DestinationPath); err != nil {
		t.Fatalf("dry undo moved a file: %v", err)
	}

	result, err := undo.Undo(context.Background(), report.LogPath, false)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	reasons := map[string]plan.Outcome{}
	for _, rec := range result.Records {
		reasons[rec.Filename] = rec.UndoResult
	}
	if reasons[moved.Filename].Kind != plan.OutcomeUndone {
		t.Fatalf("expected moved row undone, got %v", reasons[moved.Filename])
	}
	if r := reasons[relocated.Filename]; r.Kind != plan.OutcomeFailed || !strings.Contains(r.Reason, "not at destination") {
		t.Fatalf("expected not-at-destination failure, got %v", r)
	}
	if r := reasons[reoccupied.Filename]; r.Kind != plan.OutcomeFailed || !strings.Contains(r.Reason, "original path occupied") {
		t.Fatalf("expected original-occupied failure, got %v", r)
	}
	if r := reasons[failed.Filename]; r.IsSet() {
		t.Fatalf("non-candidate row should have no undo result, got %v", r)
	}
	if got := testsupport.ReadFile(t, reoccupied.SourcePath); got != "fresh file" {
		t.Fatalf("occupied original overwritten: %q", got)
	}
	if got := testsupport.ReadFile(t, moved.SourcePath); got != moved.Filename {
		t.Fatalf("unexpected restored content %q", got)
	}
}

func TestUndoNothingToUndo(t *testing.T) {
	f := newFixture(t)
	rec := f.row("Acme", "[Acme] x.txt")
	testsupport.WriteFile(t, rec.SourcePath, "x")
	dry, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: []plan.Record{rec}}, true)
	if err != nil {
		t.Fatalf("dry run failed: %v", err)
	}
	if _, err := organizer.NewUndoEngine(f.output, nil).Undo(context.Background(), dry.LogPath, false); !errors.Is(err, organizer.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoOfUndoLogHasNothingToUndo(t *testing.T) {
	f := newFixture(t)
	rec := f.row("Acme", "[Acme] twice.txt")
	testsupport.WriteFile(t, rec.SourcePath, "twice")

	report, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: []plan.Record{rec}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	undo := organizer.NewUndoEngine(f.output, nil)
	undone, err := undo.Undo(context.Background(), report.LogPath, false)
	if err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	if _, err := undo.Undo(context.Background(), undone.LogPath, false); !errors.Is(err, organizer.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo for an undo log, got %v", err)
	}
	if got := testsupport.ReadFile(t, rec.SourcePath); got != "twice" {
		t.Fatalf("restored file moved again: %q", got)
	}
	if _, err := os.Stat(rec.DestinationPath); !os.IsNotExist(err) {
		t.Fatalf("expected destination to stay empty, stat err=%v", err)
	}
}

func TestExecuteCrossDeviceRemoveFailureLeavesTreeUnchanged(t *testing.T) {
	f := newFixture(t)
	rec := f.row("Acme", "[Acme] pinned.pdf")
	testsupport.WriteFile(t, rec.SourcePath, "pinned")
	organizer.StubFilesystem(t,
		func(src, dst string) error {
			return &os.LinkError{Op: "renameat2", Old: src, New: dst, Err: syscall.EXDEV}
		},
		func(string) error { return errors.New("read-only file system") },
	)

	report, err := organizer.NewExecutor(f.output, nil).Execute(context.Background(), &plan.Plan{Records: []plan.Record{rec}}, false)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if report.Succeeded != 0 || report.Failed != 1 {
		t.Fatalf("expected the row to fail, got %d/%d", report.Succeeded, report.Failed)
	}
	got := report.Records[0].Result
	if got.Kind != plan.OutcomeFailed || !strings.Contains(got.Reason, "remove source after cross-device copy") {
		t.Fatalf("unexpected result %q", got)
	}
	if content := testsupport.ReadFile(t, rec.SourcePath); content != "pinned" {
		t.Fatalf("source changed: %q", content)
	}
	if _, err := os.Stat(rec.DestinationPath); !os.IsNotExist(err) {
		t.Fatalf("expected cross-device copy removed, stat err=%v", err)
	}
}

func TestUndoMissingLog(t *testing.T) {
	f := newFixture(t)
	_, err := organizer.NewUndoEngine(f.output, nil).Undo(context.Background(), filepath.Join(f.output, "executed_missing.csv"), false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestRecorderFailureDoesNotFailRun(t *testing.T) {
	f := newFixture(t)
	rec := f.row("Acme", "[Acme] r.txt")
	testsupport.WriteFile(t, rec.SourcePath, "r")
	exec := organizer.NewExecutor(f.output, nil)
	exec.Recorder = &memRecorder{err: errors.New("disk full")}
	report, err := exec.Execute(context.Background(), &plan.Plan{Records: []plan.Record{rec}}, false)
	if err != nil {
		t.Fatalf("expected recorder failure to be non-fatal, got %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("expected success, got %+v", report)
	}
}

func TestFSMoverRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	dst := filepath.Join(dir, "nested", "b.txt")
	testsupport.WriteFile(t, src, "a")
	testsupport.WriteFile(t, dst, "b")

	err := organizer.FSMover{}.Move(src, dst)
	if !errors.Is(err, organizer.ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}
	if got := testsupport.ReadFile(t, dst); got != "b" {
		t.Fatalf("destination overwritten: %q", got)
	}

	fresh := filepath.Join(dir, "deep", "er", "c.txt")
	if err := (organizer.FSMover{}).Move(src, fresh); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"deep", "nested"}, names); diff != "" {
		t.Fatalf("unexpected directory contents:\n%s", diff)
	}
}

func TestIsRowError(t *testing.T) {
	if !organizer.IsRowError(organizer.ErrSourceMissing) || !organizer.IsRowError(plan.ErrMalformedRow) {
		t.Fatal("expected row errors to be classified")
	}
	if organizer.IsRowError(errors.New("other")) {
		t.Fatal("unexpected classification")
	}
}
