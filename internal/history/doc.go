// Package history persists a local record of organizer runs and LLM spend.
//
// The Store wraps a SQLite database (modernc.org/sqlite, no cgo) holding two
// tables: runs, one row per execute/undo invocation with its counts and log
// path, and llm_calls, one row per chat completion with token usage and the
// computed cost. The CSV logs written next to each plan remain the source of
// truth for undo; the database only answers "what happened recently" and
// "how much has been spent".
//
// Schema changes bump schemaVersion in schema.go. Users clear the database to
// adopt a new schema.
package history
