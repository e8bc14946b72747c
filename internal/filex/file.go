// Package filex holds the filesystem primitives used to materialize media
// files: every write goes to a temp file in the destination directory and is
// renamed into place, so a reader sees either the old file or the complete
// new one.
package filex

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir creates dir (and parents) if needed and returns its absolute path.
func EnsureDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs %s: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", abs, err)
	}

	return abs, nil
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}

// ListFileNames returns the names of regular files directly inside dir.
// A missing directory yields an empty set.
func ListFileNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names[e.Name()] = struct{}{}
		}
	}
	return names, nil
}

// WriteFileAtomic copies r into dst. On error dst is left untouched and
// the temp file is removed. Errors from reading r come back as *ReadError so
// callers can tell a failing source from a failing disk.
func WriteFileAtomic(dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	n, err := io.Copy(tmp, readerFunc(func(p []byte) (int, error) {
		n, err := r.Read(p)
		if err != nil && err != io.EOF {
			err = &ReadError{Err: err}
		}
		return n, err
	}))
	if err != nil {
		cleanup()
		var re *ReadError
		if errors.As(err, &re) {
			return n, re
		}
		return n, fmt.Errorf("write %s: %w", tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return n, fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return n, fmt.Errorf("rename to %s: %w", dst, err)
	}

	return n, nil
}

// CopyFile copies src to dst byte-for-byte.
func CopyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	n, err := WriteFileAtomic(dst, in)
	var re *ReadError
	if errors.As(err, &re) {
		return n, fmt.Errorf("read %s: %w", src, re.Err)
	}
	return n, err
}

// ReadError wraps a failure of the source reader passed to WriteFileAtomic.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return "read source: " + e.Err.Error() }

func (e *ReadError) Unwrap() error { return e.Err }

type readerFunc func(p []byte) (int, error)

func (f readerFunc) Read(p []byte) (int, error) { return f(p) }
