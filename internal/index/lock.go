package index

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/RagBot/internal/config"
)

var ErrLocked = errors.New("rebuild already running")

// AcquireLock claims the rebuild lock. Locks older than
// RebuildLockStaleAfter belong to a build that died, those get taken over.
func AcquireLock() error {
	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return err
	}

	path := config.RebuildLockPath()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, os.ErrExist) {
		lockedAt, parseErr := lockTime(path)
		if parseErr == nil && time.Since(lockedAt) < config.RebuildLockStaleAfter {
			return ErrLocked
		}
		// stale or unreadable, take it over
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	}
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "%d,%d", os.Getpid(), time.Now().Unix())
	return err
}

func ReleaseLock() {
	_ = os.Remove(config.RebuildLockPath())
}

// Locked reports whether a live (non stale) rebuild lock is present.
func Locked() bool {
	path := config.RebuildLockPath()
	if _, err := os.Stat(path); err != nil {
		return false
	}
	lockedAt, err := lockTime(path)
	if err != nil {
		return true
	}
	return time.Since(lockedAt) < config.RebuildLockStaleAfter
}

func lockTime(path string) (time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return time.Time{}, err
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), ",", 2)
	if len(parts) != 2 {
		return time.Time{}, errors.New("malformed lock file")
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(unix, 0), nil
}
