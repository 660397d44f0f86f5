package plan

import (
	"errors"
	"strings"
)

var (
	// ErrMalformedRow marks a plan or log row (or header) missing expected columns or values.
	ErrMalformedRow = errors.New("malformed plan row")
	// ErrNotApproved is returned when a DRAFT plan is handed to the executor.
	ErrNotApproved = errors.New("plan has no approved rows")
)

// Status is derived from the match fields and never stored independently.
type Status string

const (
	StatusMatched   Status = "MATCHED"
	StatusUnmatched Status = "UNMATCHED"
)

// OutcomeKind is the terminal state of one row in one run.
type OutcomeKind string

const (
	OutcomeUnset    OutcomeKind = ""
	OutcomeDryRunOK OutcomeKind = "DRY_RUN_OK"
	OutcomeSuccess  OutcomeKind = "SUCCESS"
	OutcomeUndone   OutcomeKind = "UNDONE"
	OutcomeFailed   OutcomeKind = "FAILED"
)

// Outcome is a row result. Reason is only meaningful for FAILED.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

func (o Outcome) String() string {
	if o.Kind == OutcomeFailed {
		if o.Reason == "" {
			return string(OutcomeFailed)
		}
		return string(OutcomeFailed) + ": " + o.Reason
	}
	return string(o.Kind)
}

// IsSet reports whether a run has recorded this outcome.
func (o Outcome) IsSet() bool { return o.Kind != OutcomeUnset }

// Failed builds a FAILED outcome from err.
func Failed(err error) Outcome {
	reason := "unknown error"
	if err != nil {
		reason = err.Error()
	}
	return Outcome{Kind: OutcomeFailed, Reason: reason}
}

// ParseOutcome reads the textual form written by Outcome.String.
func ParseOutcome(value string) (Outcome, error) {
	value = strings.TrimSpace(value)
	switch OutcomeKind(value) {
	case OutcomeUnset, OutcomeDryRunOK, OutcomeSuccess, OutcomeUndone, OutcomeFailed:
		return Outcome{Kind: OutcomeKind(value)}, nil
	}
	if rest, ok := strings.CutPrefix(value, string(OutcomeFailed)+":"); ok {
		return Outcome{Kind: OutcomeFailed, Reason: strings.TrimSpace(rest)}, nil
	}
	return Outcome{}, errors.New("unknown result " + value)
}

// Record is one row of a plan or log.
type Record struct {
	Filename        string
	SourcePath      string
	MatchedClient   string
	DestinationPath string
	// Approved holds whatever the reviewer typed; see IsApproved.
	Approved   string
	Result     Outcome
	UndoResult Outcome
}

// Status derives MATCHED when both the client and destination are present.
func (r Record) Status() Status {
	if strings.TrimSpace(r.MatchedClient) != "" && strings.TrimSpace(r.DestinationPath) != "" {
		return StatusMatched
	}
	return StatusUnmatched
}

// IsApproved reports whether the reviewer marked the row "Y" (any case).
func (r Record) IsApproved() bool {
	return strings.EqualFold(strings.TrimSpace(r.Approved), "Y")
}
