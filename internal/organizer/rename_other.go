//go:build !linux

package organizer

func renameNoReplace(src, dst string) error {
	return fallbackRename(src, dst)
}
