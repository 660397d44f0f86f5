package organizer

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"tidybox/internal/fileutil"
	"tidybox/internal/logging"
)

// Mover relocates a single file without overwriting anything at dst.
type Mover interface {
	Move(src, dst string) error
}

// Filesystem hooks replaced in tests to reach the cross-device path.
var (
	rename       = renameNoReplace
	removeSource = os.Remove
)

// FSMover moves files on the local (mounted) filesystem.
type FSMover struct {
	Logger *slog.Logger
}

// Move creates dst's parent directories and renames src onto dst. An occupied
// dst yields ErrDestinationExists. Across devices the file is copied with
// checksum verification and the source removed afterwards; if the source
// cannot be removed the copy is deleted again and the move fails.
func (m FSMover) Move(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	err := rename(src, dst)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if copyErr := fileutil.CopyFileVerified(src, dst); copyErr != nil {
		if errors.Is(copyErr, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
		}
		return fmt.Errorf("cross-device copy: %w", copyErr)
	}
	if removeErr := removeSource(src); removeErr != nil {
		if cleanupErr := os.Remove(dst); cleanupErr != nil {
			logging.WarnWithContext(m.Logger, "cross-device copy left in place", "move_copy_cleanup_failed",
				logging.String("source", src),
				logging.String("destination", dst),
				logging.Error(cleanupErr),
				logging.String(logging.FieldErrorHint, "delete the destination copy manually; the source is intact"),
				logging.String(logging.FieldImpact, "file now exists in both locations"),
			)
		}
		return fmt.Errorf("remove source after cross-device copy: %w", removeErr)
	}
	return nil
}

// fallbackRename checks the destination and then renames. A file created
// between the check and the rename can still be replaced; only filesystems
// without RENAME_NOREPLACE take this path.
func fallbackRename(src, dst string) error {
	exists, err := fileutil.Exists(dst)
	if err != nil {
		return err
	}
	if exists {
		return &os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist}
	}
	return os.Rename(src, dst)
}
