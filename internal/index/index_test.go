package index

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akolanti/RagBot/internal/config"
)

// withTempData points the package at a throwaway data directory for the
// duration of one test.
func withTempData(t *testing.T) string {
	t.Helper()
	orig := config.DataDir
	config.DataDir = t.TempDir()
	t.Cleanup(func() { config.DataDir = orig })
	return config.DataDir
}

func TestProgressRoundTrip(t *testing.T) {
	withTempData(t)

	if _, ok := ReadProgress(); ok {
		t.Fatal("expected no progress before any build ran")
	}
	if status, _ := CurrentStatus(); status != StatusNotStarted {
		t.Errorf("expected status %q, got %q", StatusNotStarted, status)
	}

	if err := WriteProgress(42, "Processing document 3 of 7"); err != nil {
		t.Fatalf("WriteProgress failed: %v", err)
	}
	p, ok := ReadProgress()
	if !ok {
		t.Fatal("expected progress after write")
	}
	if p.Percent != 42 || p.Message != "Processing document 3 of 7" {
		t.Errorf("unexpected progress: %+v", p)
	}
}

func TestProgressFlattensNewlines(t *testing.T) {
	withTempData(t)

	if err := WriteProgress(10, "line one\nline two"); err != nil {
		t.Fatalf("WriteProgress failed: %v", err)
	}
	p, _ := ReadProgress()
	if p.Message != "line one line two" {
		t.Errorf("expected flattened message, got %q", p.Message)
	}
}

func TestProgressKeepsCommasInMessage(t *testing.T) {
	withTempData(t)

	if err := WriteProgress(55, "embedding, then upserting"); err != nil {
		t.Fatalf("WriteProgress failed: %v", err)
	}
	p, _ := ReadProgress()
	if p.Message != "embedding, then upserting" {
		t.Errorf("message mangled: %q", p.Message)
	}
}

func TestCurrentStatusStates(t *testing.T) {
	tests := []struct {
		name    string
		percent int
		message string
		want    string
	}{
		{"Running", 30, "chunking", StatusInProgress},
		{"Completed", 100, "done", StatusCompleted},
		{"Over_Hundred", 101, "done", StatusCompleted},
		{"Failed", -1, "no documents found", StatusError},
		{"Zero_Is_Running", 0, "scanning", StatusInProgress},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			withTempData(t)
			if err := WriteProgress(tc.percent, tc.message); err != nil {
				t.Fatalf("WriteProgress failed: %v", err)
			}
			status, p := CurrentStatus()
			if status != tc.want {
				t.Errorf("expected status %q, got %q", tc.want, status)
			}
			if p.Message != tc.message {
				t.Errorf("expected message %q, got %q", tc.message, p.Message)
			}
		})
	}
}

func TestCurrentStatusUnparseableFile(t *testing.T) {
	withTempData(t)

	if err := os.WriteFile(config.ProgressFilePath(), []byte("not a percent"), 0644); err != nil {
		t.Fatal(err)
	}
	status, p := CurrentStatus()
	if status != StatusError {
		t.Errorf("expected status %q for a mangled file, got %q", StatusError, status)
	}
	if p.Message != "not a percent" {
		t.Errorf("expected original line as message, got %q", p.Message)
	}
}

func TestLockLifecycle(t *testing.T) {
	withTempData(t)

	if Locked() {
		t.Fatal("fresh data dir should not be locked")
	}
	if err := AcquireLock(); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}
	if !Locked() {
		t.Error("expected Locked after acquire")
	}
	if err := AcquireLock(); err != ErrLocked {
		t.Errorf("expected ErrLocked on second acquire, got %v", err)
	}

	ReleaseLock()
	if Locked() {
		t.Error("expected unlocked after release")
	}
	if err := AcquireLock(); err != nil {
		t.Errorf("acquire after release failed: %v", err)
	}
}

func TestLockStaleTakeover(t *testing.T) {
	withTempData(t)

	staleAt := time.Now().Add(-config.RebuildLockStaleAfter - time.Hour).Unix()
	content := fmt.Sprintf("%d,%d", 99999, staleAt)
	if err := os.WriteFile(config.RebuildLockPath(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	if Locked() {
		t.Error("a stale lock should not count as locked")
	}
	if err := AcquireLock(); err != nil {
		t.Fatalf("expected takeover of a stale lock, got %v", err)
	}
	data, err := os.ReadFile(config.RebuildLockPath())
	if err != nil {
		t.Fatal(err)
	}
	if want := fmt.Sprintf("%d,", os.Getpid()); !bytes.HasPrefix(data, []byte(want)) {
		t.Errorf("lock file should carry the current pid, got %q", data)
	}
}

func TestLockMalformedFileTakenOver(t *testing.T) {
	withTempData(t)

	if err := os.WriteFile(config.RebuildLockPath(), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := AcquireLock(); err != nil {
		t.Fatalf("expected takeover of an unreadable lock, got %v", err)
	}
}

func TestSplitAndJoinRoundTrip(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "chromem", "docs.gob")
	if err := os.MkdirAll(filepath.Dir(big), 0755); err != nil {
		t.Fatal(err)
	}
	content := bytes.Repeat([]byte("0123456789"), 250) // 2500 bytes
	if err := os.WriteFile(big, content, 0644); err != nil {
		t.Fatal(err)
	}
	small := filepath.Join(dir, "index_metadata.json")
	if err := os.WriteFile(small, []byte(`{"chunks":1}`), 0644); err != nil {
		t.Fatal(err)
	}

	split, err := SplitLargeFiles(dir, 1000)
	if err != nil {
		t.Fatalf("SplitLargeFiles failed: %v", err)
	}
	if len(split) != 1 || split[0] != big {
		t.Fatalf("expected only the big file split, got %v", split)
	}
	if _, err := os.Stat(big); !os.IsNotExist(err) {
		t.Error("original should be removed after splitting")
	}
	for i, wantSize := range []int64{1000, 1000, 500} {
		info, err := os.Stat(fmt.Sprintf("%s.part%03d", big, i))
		if err != nil {
			t.Fatalf("missing part %d: %v", i, err)
		}
		if info.Size() != wantSize {
			t.Errorf("part %d: expected %d bytes, got %d", i, wantSize, info.Size())
		}
	}
	if _, err := os.Stat(small); err != nil {
		t.Errorf("small file should be untouched: %v", err)
	}

	joined, err := JoinParts(dir)
	if err != nil {
		t.Fatalf("JoinParts failed: %v", err)
	}
	if len(joined) != 1 || joined[0] != big {
		t.Fatalf("expected one joined file, got %v", joined)
	}
	restored, err := os.ReadFile(big)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(restored, content) {
		t.Error("joined content differs from the original")
	}
	if _, err := os.Stat(big + ".part000"); !os.IsNotExist(err) {
		t.Error("parts should be removed after joining")
	}
}

func TestSplitExactMultipleLeavesNoEmptyPart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, bytes.Repeat([]byte("x"), 2000), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := SplitLargeFiles(dir, 1000); err != nil {
		t.Fatalf("SplitLargeFiles failed: %v", err)
	}
	if _, err := os.Stat(path + ".part001"); err != nil {
		t.Fatalf("expected second part: %v", err)
	}
	if _, err := os.Stat(path + ".part002"); !os.IsNotExist(err) {
		t.Error("exact multiple should not leave an empty tail part")
	}
}

func TestJoinPartsWithoutAnyIsNoop(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "whole.txt"), []byte("whole"), 0644); err != nil {
		t.Fatal(err)
	}
	joined, err := JoinParts(dir)
	if err != nil {
		t.Fatalf("JoinParts failed: %v", err)
	}
	if len(joined) != 0 {
		t.Errorf("expected nothing to join, got %v", joined)
	}
}

func TestWriteArtifactsAndReadBack(t *testing.T) {
	withTempData(t)

	builtAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	meta := Metadata{
		BuiltAt:        builtAt,
		DocumentCount:  2,
		ChunkCount:     9,
		ErrorCount:     0,
		EmbeddingModel: "text-embedding-3-small",
		VectorBackend:  "chromem",
		Version:        newVersion(builtAt),
		Documents: []DocumentInfo{
			{Name: "faq.md", Title: "Frequently asked questions", Category: "general", ChunkCount: 4},
			{Name: "policies/returns.md", Title: "Return policy", Category: "policies", ChunkCount: 5},
		},
	}
	chunkStore := map[string]string{"chunk-1": "some text"}

	if err := writeArtifacts(meta, chunkStore, nil); err != nil {
		t.Fatalf("writeArtifacts failed: %v", err)
	}

	got, err := ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if got.ChunkCount != 9 || got.DocumentCount != 2 || got.Version != "20260314-093000" {
		t.Errorf("metadata did not round trip: %+v", got)
	}
	if len(got.Documents) != 2 || got.Documents[1].Category != "policies" {
		t.Errorf("document list did not round trip: %+v", got.Documents)
	}

	stamp, ok := LastUpdated()
	if !ok || stamp != "2026-03-14 09:30:00" {
		t.Errorf("unexpected last updated stamp: %q, %v", stamp, ok)
	}

	// nil errors must serialize as an empty list, not null
	raw, err := os.ReadFile(filepath.Join(config.IndexDir(), errorsFile))
	if err != nil {
		t.Fatal(err)
	}
	var procErrors []ProcessingError
	if err := json.Unmarshal(raw, &procErrors); err != nil {
		t.Fatalf("processing errors file is not valid JSON: %v", err)
	}
	if procErrors == nil {
		t.Error("expected an empty list, got null")
	}

	for _, name := range []string{chunkStoreFile, buildInfoFile, indexVersionFile, readmeFile} {
		if _, err := os.Stat(filepath.Join(config.IndexDir(), name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
}

func TestReadMetadataCorruptFile(t *testing.T) {
	withTempData(t)
	if err := os.MkdirAll(config.IndexDir(), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(config.IndexDir(), metadataFile), []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadMetadata(); err == nil {
		t.Error("expected an error for corrupt metadata")
	}
}

func TestLastUpdatedMissing(t *testing.T) {
	withTempData(t)
	if _, ok := LastUpdated(); ok {
		t.Error("expected no stamp before any build")
	}
}

func TestEnsureDataIndexCopiesBundled(t *testing.T) {
	withTempData(t)

	bundled := t.TempDir()
	origBundled := config.BundledIndexDir
	config.BundledIndexDir = bundled
	t.Cleanup(func() { config.BundledIndexDir = origBundled })

	if err := os.MkdirAll(filepath.Join(bundled, "chromem"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bundled, "index_metadata.json"), []byte(`{"chunk_count":3}`), 0644); err != nil {
		t.Fatal(err)
	}
	// a pre-split file that bootstrap must reassemble
	if err := os.WriteFile(filepath.Join(bundled, "chromem", "docs.gob.part000"), []byte("first"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(bundled, "chromem", "docs.gob.part001"), []byte("second"), 0644); err != nil {
		t.Fatal(err)
	}

	copied, err := EnsureDataIndex()
	if err != nil {
		t.Fatalf("EnsureDataIndex failed: %v", err)
	}
	if !copied {
		t.Error("expected the first boot to copy the bundled index")
	}

	if _, err := os.Stat(filepath.Join(config.IndexDir(), "index_metadata.json")); err != nil {
		t.Errorf("bundled file not copied: %v", err)
	}
	joinedData, err := os.ReadFile(filepath.Join(config.IndexDir(), "chromem", "docs.gob"))
	if err != nil {
		t.Fatalf("split file not reassembled: %v", err)
	}
	if string(joinedData) != "firstsecond" {
		t.Errorf("parts joined in the wrong order: %q", joinedData)
	}
	if _, err := os.Stat(config.CopyMarkerPath()); err != nil {
		t.Errorf("copy marker not written: %v", err)
	}
	if _, err := os.Stat(config.CopiedAtPath()); err != nil {
		t.Errorf("copied_at stamp not written: %v", err)
	}

	// second boot must not copy again
	if err := os.WriteFile(filepath.Join(bundled, "newer.txt"), []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	copied, err = EnsureDataIndex()
	if err != nil {
		t.Fatalf("second EnsureDataIndex failed: %v", err)
	}
	if copied {
		t.Error("marker present, second boot must not report a copy")
	}
	if _, err := os.Stat(filepath.Join(config.IndexDir(), "newer.txt")); !os.IsNotExist(err) {
		t.Error("marker present, bundled index should not be copied again")
	}
}

func TestEnsureDataIndexWithoutBundled(t *testing.T) {
	withTempData(t)

	origBundled := config.BundledIndexDir
	config.BundledIndexDir = filepath.Join(t.TempDir(), "nope")
	t.Cleanup(func() { config.BundledIndexDir = origBundled })

	copied, err := EnsureDataIndex()
	if err != nil {
		t.Fatalf("EnsureDataIndex failed: %v", err)
	}
	if copied {
		t.Error("nothing to copy, copied should be false")
	}
	if _, err := os.Stat(config.IndexDir()); err != nil {
		t.Errorf("index dir should exist even without a bundled copy: %v", err)
	}
	if _, err := os.Stat(config.CopyMarkerPath()); !os.IsNotExist(err) {
		t.Error("no marker should be written when nothing was copied")
	}
}
