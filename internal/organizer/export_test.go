package organizer

import "testing"

// StubFilesystem swaps the rename and source-removal calls FSMover makes for
// the duration of t. A nil function keeps the real one.
func StubFilesystem(t *testing.T, renameFn func(src, dst string) error, removeFn func(path string) error) {
	t.Helper()
	origRename, origRemove := rename, removeSource
	if renameFn != nil {
		rename = renameFn
	}
	if removeFn != nil {
		removeSource = removeFn
	}
	t.Cleanup(func() {
		rename, removeSource = origRename, origRemove
	})
}
