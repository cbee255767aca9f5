package iohelper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileMode is the permission of committed artifacts. os.CreateTemp opens
// files 0600, which collectors running as another user cannot read.
const FileMode os.FileMode = 0o644

// PendingFile is an output file written under a temporary name and only
// moved into place by Commit. Until then the destination is untouched.
//
// Commit keeps the file it replaced as a hidden backup so that Restore can
// put it back. Release drops the backup once the caller is done.
type PendingFile struct {
	f      *os.File
	path   string
	backup string
	done   bool
}

// CreatePending opens a temporary file next to path.
func CreatePending(path string) (*PendingFile, error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("iohelper: create %s: %w", path, err)
	}
	return &PendingFile{f: f, path: path}, nil
}

// Write implements io.Writer.
func (p *PendingFile) Write(b []byte) (int, error) { return p.f.Write(b) }

var _ io.Writer = (*PendingFile)(nil)

// Path returns the final destination.
func (p *PendingFile) Path() string { return p.path }

// Commit syncs the temporary file and renames it onto the destination.
func (p *PendingFile) Commit() error {
	if p.done {
		return nil
	}
	p.done = true
	if err := p.f.Sync(); err != nil {
		p.cleanup()
		return fmt.Errorf("iohelper: sync %s: %w", p.path, err)
	}
	if err := p.f.Chmod(FileMode); err != nil {
		p.cleanup()
		return fmt.Errorf("iohelper: chmod %s: %w", p.path, err)
	}
	if err := p.f.Close(); err != nil {
		_ = os.Remove(p.f.Name())
		return fmt.Errorf("iohelper: close %s: %w", p.path, err)
	}
	if err := p.stashExisting(); err != nil {
		_ = os.Remove(p.f.Name())
		return err
	}
	if err := os.Rename(p.f.Name(), p.path); err != nil {
		_ = os.Remove(p.f.Name())
		_ = p.Restore()
		return fmt.Errorf("iohelper: rename %s: %w", p.path, err)
	}
	return nil
}

// stashExisting moves a file already at the destination to a backup name.
func (p *PendingFile) stashExisting() error {
	fi, err := os.Lstat(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && fi.IsDir() {
		return fmt.Errorf("iohelper: %s is a directory", p.path)
	}
	backup := filepath.Join(filepath.Dir(p.path), "."+filepath.Base(p.path)+".bak")
	if err := os.Rename(p.path, backup); err != nil {
		return fmt.Errorf("iohelper: back up %s: %w", p.path, err)
	}
	p.backup = backup
	return nil
}

// Restore undoes a Commit: the previous file comes back, or the
// destination is removed when there was none.
func (p *PendingFile) Restore() error {
	if p.backup == "" {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("iohelper: remove %s: %w", p.path, err)
		}
		return nil
	}
	if err := os.Rename(p.backup, p.path); err != nil {
		return fmt.Errorf("iohelper: restore %s: %w", p.path, err)
	}
	p.backup = ""
	return nil
}

// Release deletes the backup taken by Commit.
func (p *PendingFile) Release() {
	if p.backup != "" {
		_ = os.Remove(p.backup)
		p.backup = ""
	}
}

// Abort discards the temporary file. It is a no-op after Commit.
func (p *PendingFile) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.cleanup()
}

func (p *PendingFile) cleanup() {
	_ = p.f.Close()
	_ = os.Remove(p.f.Name())
}
