package organizer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"tidybox/internal/fileutil"
	"tidybox/internal/logging"
	"tidybox/internal/plan"
	"tidybox/internal/services"
)

// Executor applies approved plan rows.
type Executor struct {
	OutputDir string
	Mover     Mover
	Recorder  Recorder
	Logger    *slog.Logger
}

// runID reuses the caller's run ID so log lines, the log file and the history
// row agree; standalone callers get a fresh one.
func runID(ctx context.Context) string {
	if id := services.ScopeFromContext(ctx).RunID; id != "" {
		return id
	}
	return uuid.NewString()
}

// NewExecutor returns an Executor writing logs into outputDir.
func NewExecutor(outputDir string, logger *slog.Logger) *Executor {
	logger = logging.NewComponentLogger(logger, "executor")
	return &Executor{
		OutputDir: outputDir,
		Mover:     FSMover{Logger: logger},
		Logger:    logger,
	}
}

// Execute validates and (unless dryRun) moves every approved row of p. Row
// failures are recorded in the log and counted in the report; the returned
// error is reserved for conditions that stop the whole run, such as a DRAFT
// plan or an unwritable log.
func (e *Executor) Execute(ctx context.Context, p *plan.Plan, dryRun bool) (Report, error) {
	kind := plan.LogExecuted
	if dryRun {
		kind = plan.LogDryRun
	}
	report := Report{
		RunID:      runID(ctx),
		Kind:       kind,
		DryRun:     dryRun,
		SourcePath: p.Path,
		StartedAt:  time.Now(),
	}
	if p.State() != plan.StateApproved {
		return report, plan.ErrNotApproved
	}

	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithStage(ctx, string(kind))
	logger := logging.WithContext(ctx, e.logger())
	logger.Info("execution started",
		logging.String(logging.FieldEventType, "execute_start"),
		logging.String("plan", p.Path),
		logging.Bool("dry_run", dryRun),
	)

	sim := newSimulation()
	approved := p.Approved()
	report.Records = make([]plan.Record, 0, len(approved))
	for _, rec := range approved {
		rec.Result = e.apply(rec, dryRun, sim)
		if rec.Result.Kind == plan.OutcomeFailed {
			report.Failed++
			logging.WarnWithContext(logger, "row failed", "row_failed",
				logging.String("filename", rec.Filename),
				logging.String("reason", rec.Result.Reason),
				logging.String(logging.FieldErrorHint, "see the result column of the execution log"),
				logging.String(logging.FieldImpact, "file left where it was"),
			)
		} else {
			report.Succeeded++
			logger.Info("row processed",
				logging.String(logging.FieldEventType, "row_ok"),
				logging.String("filename", rec.Filename),
				logging.String("result", rec.Result.String()),
			)
		}
		report.Records = append(report.Records, rec)
	}

	logPath, err := plan.SaveLog(e.OutputDir, kind, report.Records, report.StartedAt)
	report.FinishedAt = time.Now()
	if err != nil {
		return report, services.Wrap(services.ErrTransient, string(kind), "write log", "execution log not written", err)
	}
	report.LogPath = logPath

	logger.Info("execution finished",
		logging.String(logging.FieldEventType, "execute_complete"),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.String("log", logPath),
	)
	recordRun(ctx, e.Recorder, logger, report)
	return report, nil
}

func (e *Executor) apply(rec plan.Record, dryRun bool, sim *simulation) plan.Outcome {
	if err := validatePaths(rec); err != nil {
		return plan.Failed(err)
	}
	if err := sim.checkSource(rec.SourcePath); err != nil {
		return plan.Failed(err)
	}
	if err := sim.checkFree(rec.DestinationPath, ErrDestinationExists); err != nil {
		return plan.Failed(err)
	}
	if dryRun {
		sim.move(rec.SourcePath, rec.DestinationPath)
		return plan.Outcome{Kind: plan.OutcomeDryRunOK}
	}
	if err := e.mover().Move(rec.SourcePath, rec.DestinationPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = wrapPath(ErrSourceMissing, rec.SourcePath)
		}
		return plan.Failed(err)
	}
	sim.move(rec.SourcePath, rec.DestinationPath)
	return plan.Outcome{Kind: plan.OutcomeSuccess}
}

func validatePaths(rec plan.Record) error {
	for _, path := range []string{rec.SourcePath, rec.DestinationPath} {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%w: empty path for %q", plan.ErrMalformedRow, rec.Filename)
		}
		if !filepath.IsAbs(path) {
			return fmt.Errorf("%w: path %q is not absolute", plan.ErrMalformedRow, path)
		}
	}
	return nil
}

func (e *Executor) mover() Mover {
	if e.Mover == nil {
		return FSMover{Logger: e.logger()}
	}
	return e.Mover
}

func (e *Executor) logger() *slog.Logger {
	if e.Logger == nil {
		return logging.NewNop()
	}
	return e.Logger
}

func recordRun(ctx context.Context, recorder Recorder, logger *slog.Logger, report Report) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordRun(ctx, report.historyRun()); err != nil {
		logging.WarnWithContext(logger, "run not recorded in history", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.history_db is writable"),
			logging.String(logging.FieldImpact, "'tidybox history' will not list this run; the CSV log is unaffected"),
		)
	}
}

// simulation tracks what earlier rows of the batch did to the filesystem so a
// dry run reports the same outcomes a real run would: a source moved by an
// earlier row is gone, and a destination claimed by an earlier row is taken.
type simulation struct {
	vacated  map[string]bool
	occupied map[string]bool
}

func newSimulation() *simulation {
	return &simulation{vacated: map[string]bool{}, occupied: map[string]bool{}}
}

func (s *simulation) exists(path string) (bool, error) {
	path = filepath.Clean(path)
	if s.occupied[path] {
		return true, nil
	}
	if s.vacated[path] {
		return false, nil
	}
	return fileutil.Exists(path)
}

func (s *simulation) checkSource(path string) error {
	ok, err := s.exists(path)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if !ok {
		return wrapPath(ErrSourceMissing, path)
	}
	return nil
}

func (s *simulation) checkFree(path string, occupied error) error {
	ok, err := s.exists(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if ok {
		return wrapPath(occupied, path)
	}
	return nil
}

func (s *simulation) move(src, dst string) {
	src, dst = filepath.Clean(src), filepath.Clean(dst)
	delete(s.occupied, src)
	s.vacated[src] = true
	delete(s.vacated, dst)
	s.occupied[dst] = true
}

// IsRowError reports whether err is one of the per-row failure kinds.
func IsRowError(err error) bool {
	return errors.Is(err, ErrSourceMissing) ||
		errors.Is(err, ErrDestinationExists) ||
		errors.Is(err, ErrNotAtDestination) ||
		errors.Is(err, ErrOriginalOccupied) ||
		errors.Is(err, plan.ErrMalformedRow)
}
