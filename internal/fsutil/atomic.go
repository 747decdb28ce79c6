// Package fsutil holds the write-then-rename helper shared by the Log Store, the Signal
// File and the sweep descriptor.
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// WriteFileAtomic writes data to a uniquely named sibling of path, syncs it and renames it
// over path. Readers in other processes see either the old content or the new content,
// never a partial write.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp := filepath.Join(dir, "."+base+"."+uuid.NewString()+".tmp")

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return errors.NewIOFailure("create", tmp, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return errors.NewIOFailure("write", tmp, err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return errors.NewIOFailure("sync", tmp, err)
	}
	if err = f.Close(); err != nil {
		return errors.NewIOFailure("close", tmp, err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return errors.NewIOFailure("rename", path, err)
	}
	return nil
}

// IsTempName reports whether name is an in-flight file created by WriteFileAtomic.
func IsTempName(name string) bool {
	return len(name) > 5 && name[0] == '.' && filepath.Ext(name) == ".tmp"
}
