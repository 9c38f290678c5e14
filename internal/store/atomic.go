package store

import (
	"os"
	"path/filepath"

	"github.com/fraim-ai/fraim-toolkit/internal/errors"
)

// WriteFileAtomic writes data to a temporary file in the target directory and
// renames it over path.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := writeTemp(path, data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.NewIOError("rename", path, err)
	}
	return nil
}

// CreateFileExclusive writes data to path only if path does not exist yet.
// created is false, with a nil error, when path already exists.
// The content becomes visible in one step via a hard link.
func CreateFileExclusive(path string, data []byte, perm os.FileMode) (created bool, err error) {
	tmp, err := writeTemp(path, data, perm)
	if err != nil {
		return false, err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := os.Link(tmp, path); err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, errors.NewIOError("link", path, err)
	}
	return true, nil
}

func writeTemp(path string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.NewIOError("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", errors.NewIOError("create temp", dir, err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", errors.NewIOError("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return "", errors.NewIOError("sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.NewIOError("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return "", errors.NewIOError("chmod", tmpName, err)
	}

	success = true
	return tmpName, nil
}
