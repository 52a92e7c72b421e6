package rag_test

import (
	"context"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

// MockVectorDB implements vectorDB.DataProcessor
type MockVectorDB struct {
	// Control fields to simulate different behaviors
	OnSearchCandidates func(ctx context.Context, vectorVal []float32, fetchK int) ([]commonModels.Candidate, error)
	OnGetCachedAnswer  func(ctx context.Context, queryVector []float32) (string, bool, error)
	OnSaveToCache      func(ctx context.Context, id string, vector []float32, answer string) error
	OnCreateCollection func(ctx context.Context, name string) error
	OnUpsertBatch      func(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error
	OnCountChunks      func(ctx context.Context) (int, error)
	OnResetCollection  func(ctx context.Context, name string) error
}

func (m *MockVectorDB) SearchCandidates(ctx context.Context, v []float32, fetchK int) ([]commonModels.Candidate, error) {
	if m.OnSearchCandidates != nil {
		return m.OnSearchCandidates(ctx, v, fetchK)
	}
	return []commonModels.Candidate{{ChunkId: "c1", Content: "default context", Title: "Default Doc"}}, nil
}

func (m *MockVectorDB) GetCachedAnswer(ctx context.Context, v []float32) (string, bool, error) {
	if m.OnGetCachedAnswer != nil {
		return m.OnGetCachedAnswer(ctx, v)
	}
	return "", false, nil
}

func (m *MockVectorDB) SaveToCache(ctx context.Context, id string, v []float32, a string) error {
	if m.OnSaveToCache != nil {
		return m.OnSaveToCache(ctx, id, v, a)
	}
	return nil
}

func (m *MockVectorDB) CreateCollection(ctx context.Context, name string) error {
	if m.OnCreateCollection != nil {
		return m.OnCreateCollection(ctx, name)
	}
	return nil
}

func (m *MockVectorDB) UpsertBatch(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if m.OnUpsertBatch != nil {
		return m.OnUpsertBatch(ctx, name, chunks, vectors)
	}
	return nil
}

func (m *MockVectorDB) CountChunks(ctx context.Context) (int, error) {
	if m.OnCountChunks != nil {
		return m.OnCountChunks(ctx)
	}
	return 0, nil
}

func (m *MockVectorDB) ResetCollection(ctx context.Context, name string) error {
	if m.OnResetCollection != nil {
		return m.OnResetCollection(ctx, name)
	}
	return nil
}

type MockEmbedder struct {
	OnGetEmbedding   func(ctx context.Context, text string) ([]float32, error)
	OnBatchEmbedding func(ctx context.Context, chunks []string) ([][]float32, error)
}

func (m *MockEmbedder) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	if m.OnBatchEmbedding != nil {
		return m.OnBatchEmbedding(ctx, chunks)
	}
	// Return dummy vectors matching chunk count
	return make([][]float32, len(chunks)), nil
}

func (m *MockEmbedder) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	if m.OnGetEmbedding != nil {
		return m.OnGetEmbedding(ctx, query)
	}
	return []float32{0.1}, nil
}

// MockLLM implements llm.Provider
type MockLLM struct {
	OnGenerate func(ctx context.Context, query string, matches []string, history []string) (string, error)
}

func (m *MockLLM) Generate(ctx context.Context, q string, mth []string, hist []string) (string, error) {
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, q, mth, hist)
	}
	return "mocked llm response", nil
}
