package cache

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/augmentcode/codesync/internal/debug"
)

// DefaultDir returns $CODESYNC_CACHE_DIR, or ~/.augment/blobs if that
// variable is not set. The blobs cache is intentionally kept under the
// historical ~/.augment directory so that it is found by older tooling
// that shares the same workspace state.
func DefaultDir() (dir string, err error) {
	if dir = os.Getenv("CODESYNC_CACHE_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "UserHomeDir")
	}

	return filepath.Join(home, ".augment", "blobs"), nil
}

// ensureDir creates dir (and any parents) if it does not already exist.
func ensureDir(dir string) error {
	fi, err := os.Stat(dir)
	if os.IsNotExist(err) {
		debug.Log("create cache dir %v", dir)
		return errors.Wrap(os.MkdirAll(dir, 0700), "MkdirAll")
	}
	if err != nil {
		return errors.Wrap(err, "Stat")
	}
	if !fi.IsDir() {
		return errors.Errorf("cache dir %v is not a directory", dir)
	}
	return nil
}
