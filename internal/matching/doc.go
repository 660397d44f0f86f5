// Package matching maps loose filenames to client folders.
//
// An Index is rebuilt from the client folder listing on every scan. Each
// client contributes several spellings (variations) of its name; the index
// orders them longest first so the most specific spelling always wins, with
// ties broken lexically. When two clients produce the identical variation the
// client registered later keeps it. Clients are registered in sorted order, so
// the outcome is stable across runs.
//
// The Matcher tries a bracketed prefix such as "[ACME] Deck.pdf" first (an
// excluded prefix forces no match), then falls back to a substring scan of
// the whole filename. Variations shorter than the configured minimum
// length never take part in substring matching.
package matching
