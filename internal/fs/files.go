package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

// Swapped out in tests to simulate rename failures.
var renameFunc = os.Rename

// FSContainsFiles returns true if the given fs.FS contains any files, and false otherwise.
func FSContainsFiles(fsys fs.FS) (bool, error) {
	// errFound is a sentinel error used to stop the walk when a file is found.
	errFound := os.ErrExist

	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			// Found a file, so return a special error to stop the walk.
			return errFound
		}
		return nil
	})
	if err == errFound {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	return false, err
}

// SameContents reports whether the file at path exists and holds exactly data.
// A missing file is not an error.
func SameContents(path string, data []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return bytes.Equal(existing, data), nil
}

// WriteFileAtomic replaces path with data. The contents are written to a
// temporary file in the same directory, synced, and renamed over path, so a
// concurrent reader sees either the old or the new contents and never a
// partial write. Parent directories are created as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if fi, err := os.Lstat(path); err == nil && fi.IsDir() {
		return fmt.Errorf("cannot replace directory %s with a file", path)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := renameFunc(tmpName, path); err != nil {
		return err
	}

	_ = syncDir(dir)
	return nil
}

// RemoveFiles deletes the regular files directly inside dir and returns the
// number removed. Subdirectories and their contents are left alone, since
// they may belong to other catalogs. A missing dir removes nothing.
func RemoveFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var n int
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func syncDir(dir string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
