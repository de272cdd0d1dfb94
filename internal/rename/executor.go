package rename

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Executor moves files to their final names. It is the only component that
// changes file names on disk.
type Executor struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewExecutor creates an executor over fs. A nil logger uses slog.Default().
func NewExecutor(fs afero.Fs, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{fs: fs, logger: logger}
}

// Canonical returns the absolute form of path with symbolic links resolved
// when the filesystem is the OS one. For a path that does not exist yet the
// parent directory is resolved instead.
func (e *Executor) Canonical(path string) string {
	return Canonical(e.fs, path)
}

// Canonical is the filesystem-aware path normalization used by Executor.
func Canonical(fs afero.Fs, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	if _, ok := fs.(*afero.OsFs); !ok {
		return abs
	}

	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(dir, filepath.Base(abs))
	}
	return abs
}

// Place moves src to dest, replacing an existing dest.
// Placing a file onto itself is a no-op. When a direct rename fails the
// content is copied to dest and src removed; a failed copy leaves no partial
// dest behind.
func (e *Executor) Place(src, dest string) error {
	if e.Canonical(src) == e.Canonical(dest) {
		return nil
	}

	if destInfo, err := e.fs.Stat(dest); err == nil {
		srcInfo, serr := e.fs.Stat(src)
		// On case-insensitive volumes dest may be src itself.
		if serr != nil || !os.SameFile(srcInfo, destInfo) {
			if err := e.fs.Remove(dest); err != nil {
				return fmt.Errorf("failed to remove existing %s: %w", dest, err)
			}
			e.logger.Debug("Removed existing destination", "path", dest)
		}
	}

	renameErr := e.fs.Rename(src, dest)
	if renameErr == nil {
		e.logger.Debug("Renamed file", "from", src, "to", dest)
		return nil
	}

	e.logger.Warn("Rename failed, copying instead", "from", src, "to", dest, "error", renameErr)
	if err := e.copyFile(src, dest); err != nil {
		return fmt.Errorf("failed to move %s to %s: %w", src, dest, multierr.Combine(renameErr, err))
	}
	if err := e.fs.Remove(src); err != nil {
		return fmt.Errorf("copied %s to %s but failed to remove source: %w", src, dest, err)
	}
	return nil
}

func (e *Executor) copyFile(src, dest string) (err error) {
	in, err := e.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, in.Close()) }()

	perm := os.FileMode(0644)
	if info, err := in.Stat(); err == nil {
		perm = info.Mode().Perm()
	}

	out, err := e.fs.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, in)
	err = multierr.Append(err, out.Close())
	if err != nil {
		_ = e.fs.Remove(dest)
	}
	return err
}
