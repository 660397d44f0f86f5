package organizer

import (
	"context"
	"time"

	"tidybox/internal/history"
	"tidybox/internal/plan"
)

// Recorder stores a summary of each run. Failures are logged and never fail
// the run.
type Recorder interface {
	RecordRun(ctx context.Context, run history.Run) error
}

// Report describes a finished execute or undo run.
type Report struct {
	RunID      string
	Kind       plan.LogKind
	DryRun     bool
	SourcePath string
	LogPath    string
	Records    []plan.Record
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// FailedRecords returns the rows whose outcome for this run is FAILED.
func (r Report) FailedRecords() []plan.Record {
	var out []plan.Record
	for _, rec := range r.Records {
		if r.Outcome(rec).Kind == plan.OutcomeFailed {
			out = append(out, rec)
		}
	}
	return out
}

// Outcome returns the result this run recorded for rec.
func (r Report) Outcome(rec plan.Record) plan.Outcome {
	if r.Kind == plan.LogUndoDryRun || r.Kind == plan.LogUndone {
		return rec.UndoResult
	}
	return rec.Result
}

func (r Report) historyRun() history.Run {
	return history.Run{
		ID:         r.RunID,
		Kind:       history.RunKind(r.Kind),
		SourcePath: r.SourcePath,
		LogPath:    r.LogPath,
		Succeeded:  r.Succeeded,
		Failed:     r.Failed,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}
