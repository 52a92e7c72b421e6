package index

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

var bootLogger = logger_i.NewLogger("Index Bootstrap")

// EnsureDataIndex makes sure the data directory holds a ready index,
// copying the bundled one on the first boot of a fresh volume. The marker
// file keeps later restarts cheap, copied_at.txt records when the copy
// happened. Returns whether a copy ran, the update-index endpoint reports
// that to the caller.
func EnsureDataIndex() (bool, error) {
	if _, err := os.Stat(config.CopyMarkerPath()); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(config.IndexDir(), 0755); err != nil {
		return false, err
	}

	bundled := config.BundledIndexDir
	if info, err := os.Stat(bundled); err != nil || !info.IsDir() {
		bootLogger.Info("No bundled index, starting empty", "dir", bundled)
		return false, nil
	}

	bootLogger.Info("Copying bundled index into the data directory", "from", bundled, "to", config.IndexDir())
	if err := copyTree(bundled, config.IndexDir()); err != nil {
		return false, fmt.Errorf("bundled index copy failed: %w", err)
	}

	joined, err := JoinParts(config.IndexDir())
	if err != nil {
		return false, fmt.Errorf("joining index parts failed: %w", err)
	}
	if len(joined) > 0 {
		bootLogger.Info("Reassembled split index files", "count", len(joined))
	}

	stamp := time.Now().Format(timestampLayout)
	if err := os.WriteFile(config.CopiedAtPath(), []byte(stamp), 0644); err != nil {
		return true, err
	}
	return true, os.WriteFile(config.CopyMarkerPath(), []byte(stamp), 0644)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
