// Package plan holds the move records that flow from scan to execution to undo.
//
// A plan file is a CSV a human edits between preview and execute: the only
// field they are expected to change is "approved". A plan with no row approved
// ("Y", case-insensitive) is a DRAFT; once at least one row is approved it is
// APPROVED and the executor will accept it.
//
// Execution and undo logs share the Record type. Logs are written exactly once
// with a timestamped name and left read-only; nothing in tidybox rewrites a
// log after the fact.
package plan
