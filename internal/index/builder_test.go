package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/rag/embedding"
)

type mockStore struct {
	OnResetCollection func(ctx context.Context, name string) error
	OnUpsertBatch     func(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error

	resets  []string
	upserts [][]commonModels.DocChunk
}

func (m *mockStore) SearchCandidates(ctx context.Context, vectorVal []float32, fetchK int) ([]commonModels.Candidate, error) {
	return nil, nil
}

func (m *mockStore) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	return "", false, nil
}

func (m *mockStore) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	return nil
}

func (m *mockStore) CreateCollection(ctx context.Context, collectionName string) error {
	return nil
}

func (m *mockStore) CountChunks(ctx context.Context) (int, error) {
	total := 0
	for _, batch := range m.upserts {
		total += len(batch)
	}
	return total, nil
}

func (m *mockStore) ResetCollection(ctx context.Context, collectionName string) error {
	m.resets = append(m.resets, collectionName)
	if m.OnResetCollection != nil {
		return m.OnResetCollection(ctx, collectionName)
	}
	return nil
}

func (m *mockStore) UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	m.upserts = append(m.upserts, chunks)
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, collectionName, chunks, vectors)
	}
	return nil
}

type mockEmbedder struct {
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)

	batchCalls int
}

func (m *mockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	m.batchCalls++
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	return unitVectors(len(chunks)), nil
}

func unitVectors(n int) [][]float32 {
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{1, 0}
	}
	return vectors
}

func writeDocs(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBuildHappyPath(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"guides/shipping.md": "# Shipping and delivery policy\n\nOrders ship within two business days of payment.",
		"returns.txt":        "Returns are accepted within thirty days of delivery for a full refund.",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}

	result, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if result.DocumentCount != 2 || result.ChunkCount != 2 || result.ErrorCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if len(store.resets) != 1 || store.resets[0] != config.DocCollectionName {
		t.Errorf("expected one reset of %q, got %v", config.DocCollectionName, store.resets)
	}

	var stored []commonModels.DocChunk
	for _, batch := range store.upserts {
		stored = append(stored, batch...)
	}
	if len(stored) != 2 {
		t.Fatalf("expected 2 upserted chunks, got %d", len(stored))
	}
	for _, c := range stored {
		if c.ChunkId == "" || c.Chunk == "" || c.EmbeddingModel == "" {
			t.Errorf("incomplete chunk: %+v", c)
		}
	}

	status, p := CurrentStatus()
	if status != StatusCompleted {
		t.Errorf("expected status %q, got %q (%+v)", StatusCompleted, status, p)
	}

	meta, err := ReadMetadata()
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if meta.DocumentCount != 2 || meta.ChunkCount != 2 || len(meta.Documents) != 2 {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	// documents are discovered in name order
	if meta.Documents[0].Name != "guides/shipping.md" || meta.Documents[0].Category != "guides" {
		t.Errorf("unexpected first document: %+v", meta.Documents[0])
	}
	if meta.Documents[0].Title != "Shipping and delivery policy" {
		t.Errorf("unexpected title: %q", meta.Documents[0].Title)
	}
	if _, ok := LastUpdated(); !ok {
		t.Error("expected a last updated stamp after a build")
	}
}

func TestBuildReportsStagesOnceInOrder(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"a.md": "First document with enough text to index.",
		"b.md": "Second document, the embed and upsert phases run again.",
	})
	b := NewTestBuilder(&mockEmbedder{}, &mockStore{})

	var stages []jobModel.InternalStatus
	b.NotifyStages(func(s jobModel.InternalStatus) { stages = append(stages, s) })

	if _, err := b.Build(context.Background(), docs); err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	want := []jobModel.InternalStatus{
		jobModel.RebuildLoading,
		jobModel.RebuildChunks,
		jobModel.EmbeddingCall,
		jobModel.VectorDBCall,
		jobModel.ArtifactWrite,
	}
	if len(stages) != len(want) {
		t.Fatalf("expected stages %v, got %v", want, stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("expected stages %v, got %v", want, stages)
		}
	}
}

func TestBuildRecordsExtractErrorsAndContinues(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"good.md":    "A perfectly ordinary document with enough text to index.",
		"broken.pdf": "this is not a pdf",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}

	result, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build should survive one broken document: %v", err)
	}
	if result.DocumentCount != 1 || result.ErrorCount != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	raw, err := os.ReadFile(filepath.Join(config.IndexDir(), errorsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "broken.pdf") || !strings.Contains(string(raw), `"extract"`) {
		t.Errorf("expected an extract error for broken.pdf, got %s", raw)
	}
}

func TestBuildRetriesAfterRateLimit(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"faq.md": "How long does shipping take? Two business days in most regions.",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}
	emb.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
		if emb.batchCalls == 1 {
			return nil, fmt.Errorf("quota exceeded: %w", embedding.ErrRateLimited)
		}
		return unitVectors(len(chunks)), nil
	}

	result, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if emb.batchCalls != 2 {
		t.Errorf("expected a retry after the rate limit, got %d calls", emb.batchCalls)
	}
	if result.ChunkCount != 1 || result.ErrorCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestBuildFailsWhenRateLimitPersists(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"faq.md": "Some content to embed.",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}
	emb.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
		return nil, embedding.ErrRateLimited
	}

	_, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err == nil {
		t.Fatal("expected the build to give up")
	}
	if !errors.Is(err, embedding.ErrRateLimited) {
		t.Errorf("expected a rate limit error, got %v", err)
	}
	if status, p := CurrentStatus(); status != StatusError {
		t.Errorf("expected status %q, got %q (%+v)", StatusError, status, p)
	}
}

func TestBuildRetriesHardFailureAtReducedBatchSize(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"faq.md": "Some content to embed.",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}
	emb.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
		if emb.batchCalls == 1 {
			return nil, errors.New("bad gateway")
		}
		return unitVectors(len(chunks)), nil
	}

	result, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if emb.batchCalls != 2 {
		t.Errorf("expected a retry at the reduced batch size, got %d calls", emb.batchCalls)
	}
	if result.ChunkCount != 1 || result.ErrorCount != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestBuildSkipsDocumentWhenEmbeddingKeepsFailing(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"bad.md":  "FAILME this one never embeds.",
		"good.md": "This one embeds without trouble.",
	})
	store := &mockStore{}
	emb := &mockEmbedder{}
	emb.OnBatchEmbedding = func(ctx context.Context, chunks []string) ([][]float32, error) {
		for _, c := range chunks {
			if strings.Contains(c, "FAILME") {
				return nil, errors.New("provider rejected the input")
			}
		}
		return unitVectors(len(chunks)), nil
	}

	result, err := NewTestBuilder(emb, store).Build(context.Background(), docs)
	if err != nil {
		t.Fatalf("Build should survive a skipped document: %v", err)
	}
	if result.ChunkCount != 1 {
		t.Errorf("expected only the good document stored, got %d chunks", result.ChunkCount)
	}
	if result.ErrorCount != 1 {
		t.Errorf("expected one embed error, got %d", result.ErrorCount)
	}

	raw, err := os.ReadFile(filepath.Join(config.IndexDir(), errorsFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"embed"`) || !strings.Contains(string(raw), "bad.md") {
		t.Errorf("expected an embed error for bad.md, got %s", raw)
	}
}

func TestBuildEmptyDocsDirFails(t *testing.T) {
	withTempData(t)
	store := &mockStore{}
	emb := &mockEmbedder{}

	_, err := NewTestBuilder(emb, store).Build(context.Background(), t.TempDir())
	if err == nil {
		t.Fatal("expected an error for an empty docs dir")
	}
	if status, _ := CurrentStatus(); status != StatusError {
		t.Errorf("expected status %q, got %q", StatusError, status)
	}
}

func TestBuildStopsOnCancelledContext(t *testing.T) {
	withTempData(t)
	docs := writeDocs(t, map[string]string{
		"faq.md": "Some content.",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTestBuilder(&mockEmbedder{}, &mockStore{}).Build(ctx, docs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}