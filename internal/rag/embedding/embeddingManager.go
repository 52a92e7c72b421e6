package embedding

import (
	"context"
	"errors"
)

// ErrRateLimited tells the index builder to back off and retry the batch
// instead of failing the build.
var ErrRateLimited = errors.New("embedding provider rate limited")

type Embedder interface {
	GetEmbedding(ctx context.Context, query string) ([]float32, error)
	// BatchEmbedding embeds one batch; batch sizing and pacing are the
	// caller's concern.
	BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error)
}
