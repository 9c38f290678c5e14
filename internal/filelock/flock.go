package filelock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// FileLock provides cross-process mutual exclusion using flock(2).
// Locks belong to the open file description, so two FileLocks on the same
// path also exclude each other inside one process.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock for the lock file at path. The file and its
// parent directory are created on first use.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

func (fl *FileLock) open() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}
	return f, nil
}

// Lock acquires an exclusive lock, blocking until available.
func (fl *FileLock) Lock() error {
	if fl.file != nil {
		return nil
	}
	f, err := fl.open()
	if err != nil {
		return err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		_ = f.Close()
		return fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// It returns false when another holder has it.
func (fl *FileLock) TryLock() (bool, error) {
	if fl.file != nil {
		return true, nil
	}
	f, err := fl.open()
	if err != nil {
		return false, err
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}
	fl.file = f
	return true, nil
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}
	f := fl.file
	fl.file = nil
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		_ = f.Close()
		return fmt.Errorf("funlock: %w", err)
	}
	return f.Close()
}
