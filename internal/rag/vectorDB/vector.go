package vectorDB

import (
	"context"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

type DataProcessor interface {
	// SearchCandidates returns the fetchK nearest chunks with their vectors
	// so the caller can re-rank before picking the final context.
	SearchCandidates(ctx context.Context, vectorVal []float32, fetchK int) ([]commonModels.Candidate, error)
	GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, id string, vector []float32, answer string) error

	CreateCollection(ctx context.Context, collectionName string) error
	UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error
	CountChunks(ctx context.Context) (int, error)
	// ResetCollection drops and recreates the document collection ahead of
	// a full rebuild.
	ResetCollection(ctx context.Context, collectionName string) error
}
