package organizer

import (
	"errors"
	"fmt"
)

// Row-level failures. Each is recorded against its row and never aborts the batch.
var (
	ErrSourceMissing     = errors.New("source missing")
	ErrDestinationExists = errors.New("destination exists")
	ErrNotAtDestination  = errors.New("not at destination")
	ErrOriginalOccupied  = errors.New("original path occupied")
)

// ErrNothingToUndo is returned when a log has no SUCCESS rows.
var ErrNothingToUndo = errors.New("log has no successful moves to undo")

func wrapPath(err error, path string) error {
	return fmt.Errorf("%w: %s", err, path)
}
