package organizer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"tidybox/internal/logging"
	"tidybox/internal/plan"
	"tidybox/internal/services"
)

// UndoEngine moves successfully executed files back to their sources.
type UndoEngine struct {
	OutputDir string
	Mover     Mover
	Recorder  Recorder
	Logger    *slog.Logger
}

// NewUndoEngine returns an UndoEngine writing undo logs into outputDir.
func NewUndoEngine(outputDir string, logger *slog.Logger) *UndoEngine {
	logger = logging.NewComponentLogger(logger, "undo")
	return &UndoEngine{
		OutputDir: outputDir,
		Mover:     FSMover{Logger: logger},
		Logger:    logger,
	}
}

// Candidates returns the SUCCESS rows of an execution log. Rows that already
// carry an undo_result come from an undo log and are never reversed twice.
func Candidates(records []plan.Record) []plan.Record {
	var out []plan.Record
	for _, rec := range records {
		if rec.Result.Kind == plan.OutcomeSuccess && !rec.UndoResult.IsSet() {
			out = append(out, rec)
		}
	}
	return out
}

// Undo reverses the SUCCESS rows of the log at logPath. Every row of the log
// is copied into the undo log; rows that were not undo candidates keep an
// empty undo_result.
func (u *UndoEngine) Undo(ctx context.Context, logPath string, dryRun bool) (Report, error) {
	kind := plan.LogUndone
	if dryRun {
		kind = plan.LogUndoDryRun
	}
	report := Report{
		RunID:      runID(ctx),
		Kind:       kind,
		DryRun:     dryRun,
		SourcePath: logPath,
		StartedAt:  time.Now(),
	}

	records, err := plan.LoadLog(logPath)
	if err != nil {
		return report, err
	}
	if len(Candidates(records)) == 0 {
		return report, ErrNothingToUndo
	}

	ctx = services.WithRunID(ctx, report.RunID)
	ctx = services.WithStage(ctx, string(kind))
	logger := logging.WithContext(ctx, u.logger())
	logger.Info("undo started",
		logging.String(logging.FieldEventType, "undo_start"),
		logging.String("log", logPath),
		logging.Bool("dry_run", dryRun),
	)

	sim := newSimulation()
	report.Records = make([]plan.Record, 0, len(records))
	for _, rec := range records {
		if rec.Result.Kind == plan.OutcomeSuccess {
			rec.UndoResult = u.revert(rec, dryRun, sim)
			if rec.UndoResult.Kind == plan.OutcomeFailed {
				report.Failed++
				logging.WarnWithContext(logger, "row not undone", "undo_row_failed",
					logging.String("filename", rec.Filename),
					logging.String("reason", rec.UndoResult.Reason),
					logging.String(logging.FieldErrorHint, "resolve the conflict by hand; the undo log lists each row"),
					logging.String(logging.FieldImpact, "file stays at its current location"),
				)
			} else {
				report.Succeeded++
				logger.Info("row reverted",
					logging.String(logging.FieldEventType, "undo_row_ok"),
					logging.String("filename", rec.Filename),
					logging.String("result", rec.UndoResult.String()),
				)
			}
		} else {
			rec.UndoResult = plan.Outcome{}
		}
		report.Records = append(report.Records, rec)
	}

	undoLog, err := plan.SaveLog(u.OutputDir, kind, report.Records, report.StartedAt)
	report.FinishedAt = time.Now()
	if err != nil {
		return report, services.Wrap(services.ErrTransient, string(kind), "write log", "undo log not written", err)
	}
	report.LogPath = undoLog

	logger.Info("undo finished",
		logging.String(logging.FieldEventType, "undo_complete"),
		logging.Int("undone", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.String("log", undoLog),
	)
	recordRun(ctx, u.Recorder, logger, report)
	return report, nil
}

func (u *UndoEngine) revert(rec plan.Record, dryRun bool, sim *simulation) plan.Outcome {
	if err := validatePaths(rec); err != nil {
		return plan.Failed(err)
	}
	if ok, err := sim.exists(rec.DestinationPath); err != nil {
		return plan.Failed(err)
	} else if !ok {
		return plan.Failed(wrapPath(ErrNotAtDestination, rec.DestinationPath))
	}
	if err := sim.checkFree(rec.SourcePath, ErrOriginalOccupied); err != nil {
		return plan.Failed(err)
	}
	if dryRun {
		sim.move(rec.DestinationPath, rec.SourcePath)
		return plan.Outcome{Kind: plan.OutcomeDryRunOK}
	}
	if err := u.mover().Move(rec.DestinationPath, rec.SourcePath); err != nil {
		switch {
		case errors.Is(err, ErrDestinationExists):
			err = wrapPath(ErrOriginalOccupied, rec.SourcePath)
		case errors.Is(err, fs.ErrNotExist):
			err = wrapPath(ErrNotAtDestination, rec.DestinationPath)
		}
		return plan.Failed(err)
	}
	sim.move(rec.DestinationPath, rec.SourcePath)
	return plan.Outcome{Kind: plan.OutcomeUndone}
}

func (u *UndoEngine) mover() Mover {
	if u.Mover == nil {
		return FSMover{Logger: u.logger()}
	}
	return u.Mover
}

func (u *UndoEngine) logger() *slog.Logger {
	if u.Logger == nil {
		return logging.NewNop()
	}
	return u.Logger
}
