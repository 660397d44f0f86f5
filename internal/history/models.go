package history

import "time"

// RunKind names what a recorded run did.
type RunKind string

const (
	RunDryRun     RunKind = "dryrun"
	RunExecuted   RunKind = "executed"
	RunUndoDryRun RunKind = "undo_dryrun"
	RunUndone     RunKind = "undone"
)

// Run is one execute or undo invocation.
type Run struct {
	ID         string
	Kind       RunKind
	SourcePath string
	LogPath    string
	Succeeded  int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Call is one chat completion and what it cost. Estimated is set when the
// provider reported no usage and token counts were approximated.
type Call struct {
	RunID        string
	Pass         string
	Model        string
	InputTokens  int
	OutputTokens int
	Cost         float64
	Estimated    bool
	CreatedAt    time.Time
}

// ModelSpend aggregates calls per model.
type ModelSpend struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	Cost         float64
}
