package cache

import (
	"fmt"
	"os"
	"path"

	"golang.org/x/sys/unix"
)

// EnsureDir makes a directory if it doesn't exist and checks it is writable
func EnsureDir(dir string) error {
	err := os.MkdirAll(dir, 0o755)

	if err == nil || os.IsExist(err) {
		if unix.Access(dir, unix.W_OK) != nil {
			return fmt.Errorf("not writable: %s", dir)
		}
	}

	return err
}

// File returns a path to a file in the cache dir
func File(parts ...string) string {
	parts = append([]string{Dir()}, parts...)
	return path.Join(parts...)
}

// GetFile returns a file from the cache directory if it exists and is not empty
func GetFile(parts ...string) (string, error) {
	fpath := File(parts...)

	stat, err := os.Stat(fpath)
	if err != nil {
		return fpath, err
	}

	if stat.Size() == 0 {
		return fpath, fmt.Errorf("cached file %s is empty", fpath)
	}

	return fpath, nil
}

// GetOrCreate returns the path of a cached file, running create to produce it first
// when it is missing
func GetOrCreate(create func(string) error, parts ...string) (string, error) {
	fpath, err := GetFile(parts...)
	if err == nil {
		return fpath, nil
	}

	if err := EnsureDir(path.Dir(fpath)); err != nil {
		return "", err
	}
	if err := create(fpath); err != nil {
		_ = os.Remove(fpath)
		return "", err
	}

	return fpath, nil
}
