package adapter

import (
	"github.com/akolanti/RagBot/internal/api"
	"github.com/akolanti/RagBot/internal/index"
)

func ToIndexMetadata(meta index.Metadata) *api.IndexMetadata {
	return &api.IndexMetadata{
		BuiltAt:        meta.BuiltAt,
		DocumentCount:  meta.DocumentCount,
		ChunkCount:     meta.ChunkCount,
		ErrorCount:     meta.ErrorCount,
		EmbeddingModel: meta.EmbeddingModel,
		VectorBackend:  meta.VectorBackend,
		Version:        meta.Version,
	}
}
