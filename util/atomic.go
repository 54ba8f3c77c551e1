package util

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// AtomicFile is a temporary file that replaces its destination only when committed. Until then the destination is
// untouched, so a failed run never leaves a half-written file behind under the final name.
type AtomicFile struct {
	*os.File

	dest string
	done bool
}

// CreateAtomic creates a temporary file next to dest, so that the final rename stays on one filesystem.
func CreateAtomic(dest string, perm os.FileMode) (*AtomicFile, error) {
	dir, base := filepath.Split(dest)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		// Report the destination rather than the temporary name pattern.
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return nil, &fs.PathError{Op: "create", Path: dest, Err: pe.Err}
		}
		return nil, err
	}
	if err := f.Chmod(perm); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, err
	}
	return &AtomicFile{File: f, dest: dest}, nil
}

// Dest returns the path the file is committed to.
func (a *AtomicFile) Dest() string {
	return a.dest
}

// Commit flushes the temporary file and renames it over its destination.
func (a *AtomicFile) Commit() error {
	if a.done {
		return nil
	}
	a.done = true

	if err := a.File.Sync(); err != nil {
		_ = a.File.Close()
		_ = os.Remove(a.File.Name())
		return err
	}
	if err := a.File.Close(); err != nil {
		_ = os.Remove(a.File.Name())
		return err
	}
	if err := os.Rename(a.File.Name(), a.dest); err != nil {
		_ = os.Remove(a.File.Name())
		return err
	}
	return nil
}

// Abort discards the temporary file. It is a no-op after Commit, which makes it safe to defer.
func (a *AtomicFile) Abort() error {
	if a.done {
		return nil
	}
	a.done = true

	_ = a.File.Close()
	return os.Remove(a.File.Name())
}

// Backup is a file moved out of the way so that it can be put back if a later step fails.
type Backup struct {
	path  string
	moved string
}

// BackupFile moves the file at path to a temporary sibling. When path does not exist the returned Backup records
// that, and Restore removes whatever was created at path since.
func BackupFile(path string) (*Backup, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+base+".bak-*")
	if err != nil {
		var pe *fs.PathError
		if errors.As(err, &pe) {
			return nil, &fs.PathError{Op: "backup", Path: path, Err: pe.Err}
		}
		return nil, err
	}
	moved := f.Name()
	_ = f.Close()

	if err := os.Rename(path, moved); err != nil {
		_ = os.Remove(moved)
		if errors.Is(err, fs.ErrNotExist) {
			return &Backup{path: path}, nil
		}
		return nil, err
	}
	return &Backup{path: path, moved: moved}, nil
}

// Restore puts the backed up file back at its path.
func (b *Backup) Restore() error {
	if b.moved == "" {
		if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	}
	return os.Rename(b.moved, b.path)
}

// Discard deletes the backed up file.
func (b *Backup) Discard() error {
	if b.moved == "" {
		return nil
	}
	return os.Remove(b.moved)
}
