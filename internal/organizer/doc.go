// Package organizer executes approved plans and reverses execution logs.
//
// The Executor walks the approved rows of an APPROVED plan one at a time. Each
// row is validated (source present, destination free) and then moved, or only
// validated in dry-run mode. A failing row records FAILED with its reason and
// the batch carries on. Once every row has a result the execution log is
// written, even when every row failed.
//
// The UndoEngine is the mirror image: it reads an execution log, takes the
// SUCCESS rows, checks that each file is still at its destination and that
// its original path is free, and moves it back. A partially undone batch is a
// valid end state; the undo log records a per-row undo_result.
//
// Moves never overwrite. On Linux the rename uses RENAME_NOREPLACE so a file
// that appears at the destination after validation is still left alone.
// Cross-device moves fall back to a verified copy followed by removal of the
// source.
package organizer
