package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/jsphweid/chordrnn/constants"
)

// ErrLocked means another chordrnn process holds the data directory.
var ErrLocked = errors.New("data directory is locked by another chordrnn process")

// LockDir takes the exclusive lock file inside dir. The returned func
// releases it.
func LockDir(dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %q: %w", dir, err)
	}
	lock := flock.New(filepath.Join(dir, constants.LockFile))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, dir)
	}
	return lock.Unlock, nil
}
