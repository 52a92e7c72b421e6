package index

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const partZeroSuffix = ".part000"

// SplitLargeFiles cuts every file under dir larger than partSize into
// numbered part files, so a bundled index stays under git hosting size
// limits. Originals are removed once their parts are written. Returns the
// files that were split.
func SplitLargeFiles(dir string, partSize int64) ([]string, error) {
	var targets []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > partSize {
			targets = append(targets, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, path := range targets {
		if err := splitFile(path, partSize); err != nil {
			return nil, fmt.Errorf("splitting %s: %w", path, err)
		}
	}
	return targets, nil
}

func splitFile(path string, partSize int64) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	for i := 0; ; i++ {
		partPath := fmt.Sprintf("%s.part%03d", path, i)
		out, err := os.Create(partPath)
		if err != nil {
			return err
		}

		written, err := io.CopyN(out, in, partSize)
		closeErr := out.Close()
		if err == io.EOF {
			if written == 0 {
				// previous part consumed the tail exactly
				os.Remove(partPath)
			}
			break
		}
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}
	}
	return os.Remove(path)
}

// JoinParts reassembles files produced by SplitLargeFiles and removes the
// parts. Safe to call on a directory without any. Returns the files that
// were put back together.
func JoinParts(dir string) ([]string, error) {
	var starts []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if strings.HasSuffix(path, partZeroSuffix) {
			starts = append(starts, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(starts)

	var joined []string
	for _, partZero := range starts {
		original := strings.TrimSuffix(partZero, partZeroSuffix)
		if err := joinFile(original); err != nil {
			return joined, fmt.Errorf("joining %s: %w", original, err)
		}
		joined = append(joined, original)
	}
	return joined, nil
}

func joinFile(original string) error {
	out, err := os.Create(original)
	if err != nil {
		return err
	}

	var parts []string
	for i := 0; ; i++ {
		partPath := fmt.Sprintf("%s.part%03d", original, i)
		in, err := os.Open(partPath)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			out.Close()
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return err
		}
		parts = append(parts, partPath)
	}
	if err := out.Close(); err != nil {
		return err
	}

	for _, p := range parts {
		if err := os.Remove(p); err != nil {
			return err
		}
	}
	return nil
}
