package ingest

import (
	"strings"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/tmc/langchaingo/textsplitter"
)

// PrepareChunks splits the document text into overlapping chunks sized for
// the embedding model. Each chunk carries the full document metadata so the
// store can answer "where did this come from" without a second lookup.
func PrepareChunks(text string, doc commonModels.Document, embeddingModel string) ([]commonModels.DocChunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(config.ChunkSize),
		textsplitter.WithChunkOverlap(config.ChunkOverlap),
		textsplitter.WithSeparators([]string{"\n\n", "\n", ".", " ", ""}),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]commonModels.DocChunk, 0, len(pieces))
	order := 0
	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		chunks = append(chunks, commonModels.DocChunk{
			Doc:            doc,
			ChunkId:        utils.GetNewUUID(),
			Chunk:          piece,
			ChunkPageOrder: order,
			EmbeddingModel: embeddingModel,
		})
		order++
	}
	return chunks, nil
}
