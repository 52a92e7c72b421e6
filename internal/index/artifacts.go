package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/RagBot/internal/config"
)

// Artifact files written next to the vector data after every build.
const (
	chunkStoreFile   = "chunk_store.json"
	metadataFile     = "index_metadata.json"
	errorsFile       = "processing_errors.json"
	lastUpdatedFile  = "last_updated.txt"
	buildInfoFile    = "build_info.txt"
	indexVersionFile = "index_version.txt"
	readmeFile       = "README.md"

	timestampLayout = "2006-01-02 15:04:05"
)

// Metadata mirrors index_metadata.json.
type Metadata struct {
	BuiltAt        time.Time      `json:"built_at"`
	DocumentCount  int            `json:"document_count"`
	ChunkCount     int            `json:"chunk_count"`
	ErrorCount     int            `json:"error_count"`
	EmbeddingModel string         `json:"embedding_model"`
	VectorBackend  string         `json:"vector_backend"`
	Version        string         `json:"version"`
	Documents      []DocumentInfo `json:"documents"`
}

type DocumentInfo struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Category   string   `json:"category,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	ChunkCount int      `json:"chunk_count"`
}

// ProcessingError records a document that failed a build stage. A build
// keeps going past these, they end up in processing_errors.json for the
// operator to look at.
type ProcessingError struct {
	Document string `json:"document"`
	Stage    string `json:"stage"`
	Message  string `json:"message"`
}

func writeArtifacts(meta Metadata, chunkStore map[string]string, procErrors []ProcessingError) error {
	dir := config.IndexDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, chunkStoreFile), chunkStore); err != nil {
		return err
	}
	if procErrors == nil {
		procErrors = []ProcessingError{}
	}
	if err := writeJSON(filepath.Join(dir, errorsFile), procErrors); err != nil {
		return err
	}

	stamp := meta.BuiltAt.Format(timestampLayout)
	if err := os.WriteFile(filepath.Join(dir, lastUpdatedFile), []byte(stamp), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, indexVersionFile), []byte(meta.Version), 0644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, buildInfoFile), []byte(buildInfoText(meta)), 0644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, readmeFile), []byte(readmeText(meta)), 0644)
}

func buildInfoText(meta Metadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Built at:        %s\n", meta.BuiltAt.Format(timestampLayout))
	fmt.Fprintf(&b, "Version:         %s\n", meta.Version)
	fmt.Fprintf(&b, "Documents:       %d\n", meta.DocumentCount)
	fmt.Fprintf(&b, "Chunks:          %d\n", meta.ChunkCount)
	fmt.Fprintf(&b, "Errors:          %d\n", meta.ErrorCount)
	fmt.Fprintf(&b, "Embedding model: %s\n", meta.EmbeddingModel)
	fmt.Fprintf(&b, "Vector backend:  %s\n", meta.VectorBackend)
	return b.String()
}

func readmeText(meta Metadata) string {
	var b strings.Builder
	b.WriteString("# Knowledge base index\n\n")
	b.WriteString("Generated directory, do not edit by hand. Rebuilt by the indexer\n")
	b.WriteString("or through the rebuild endpoint.\n\n")
	fmt.Fprintf(&b, "- built at: %s\n", meta.BuiltAt.Format(timestampLayout))
	fmt.Fprintf(&b, "- documents: %d\n", meta.DocumentCount)
	fmt.Fprintf(&b, "- chunks: %d\n", meta.ChunkCount)
	b.WriteString("\nFiles:\n\n")
	b.WriteString("- `chromem/` vector collections\n")
	b.WriteString("- `chunk_store.json` chunk id to text mapping\n")
	b.WriteString("- `index_metadata.json` per document stats\n")
	b.WriteString("- `processing_errors.json` documents that failed a build stage\n")
	b.WriteString("- `last_updated.txt`, `build_info.txt`, `index_version.txt` build stamps\n")
	return b.String()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadMetadata loads index_metadata.json from the active index directory.
func ReadMetadata() (Metadata, error) {
	var meta Metadata
	data, err := os.ReadFile(filepath.Join(config.IndexDir(), metadataFile))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("corrupt %s: %w", metadataFile, err)
	}
	return meta, nil
}

// LastUpdated returns the build stamp, false when no index was built yet.
func LastUpdated() (string, bool) {
	data, err := os.ReadFile(filepath.Join(config.IndexDir(), lastUpdatedFile))
	if err != nil {
		return "", false
	}
	stamp := strings.TrimSpace(string(data))
	return stamp, stamp != ""
}

// LastUpdatedAt is LastUpdated parsed back into a time. Stamps are written
// in local time, so they parse in local time too.
func LastUpdatedAt() (time.Time, bool) {
	stamp, ok := LastUpdated()
	if !ok {
		return time.Time{}, false
	}
	at, err := time.ParseInLocation(timestampLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return at, true
}

// ChunkStoreSize reports the chunk store file size for the info endpoint.
func ChunkStoreSize() (int64, bool) {
	info, err := os.Stat(filepath.Join(config.IndexDir(), chunkStoreFile))
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func newVersion(builtAt time.Time) string {
	return builtAt.Format("20060102-150405")
}
