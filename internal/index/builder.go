package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/internal/domain/jobModel"
	"github.com/akolanti/RagBot/internal/rag/embedding"
	"github.com/akolanti/RagBot/internal/rag/ingest"
	"github.com/akolanti/RagBot/internal/rag/vectorDB"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

// Builder turns a directory of documents into a fresh vector index plus the
// artifact files. Builds are destructive, the document collection is reset
// before the first upsert.
type Builder struct {
	embedder embedding.Embedder
	store    vectorDB.DataProcessor
	model    string
	logger   *logger_i.Logger

	batchPause    time.Duration
	rateLimitWait time.Duration

	onStage   func(jobModel.InternalStatus)
	stageMark int
}

type BuildResult struct {
	DocumentCount int
	ChunkCount    int
	ErrorCount    int
}

func NewBuilder(e embedding.Embedder, store vectorDB.DataProcessor) *Builder {
	return &Builder{
		embedder:      e,
		store:         store,
		model:         activeEmbeddingModel(),
		logger:        logger_i.NewLogger("Index Builder"),
		batchPause:    config.EmbedBatchPause,
		rateLimitWait: config.EmbedRateLimitWait,
	}
}

// NewTestBuilder is NewBuilder without the inter-batch pauses. Used by tests.
func NewTestBuilder(e embedding.Embedder, store vectorDB.DataProcessor) *Builder {
	b := NewBuilder(e, store)
	b.batchPause = 0
	b.rateLimitWait = 0
	return b
}

// NotifyStages registers a callback fired as the build moves through its
// phases. The worker mirrors the phases into the job record so a status
// poll shows where a long build is. Pass nil to detach.
func (b *Builder) NotifyStages(fn func(jobModel.InternalStatus)) {
	b.onStage = fn
}

var stageOrder = map[jobModel.InternalStatus]int{
	jobModel.RebuildLoading: 1,
	jobModel.RebuildChunks:  2,
	jobModel.EmbeddingCall:  3,
	jobModel.VectorDBCall:   4,
	jobModel.ArtifactWrite:  5,
}

// stage reports a phase transition. The per document loop re-enters the
// chunk, embed and upsert phases for every document, so only forward
// movement is reported, the furthest phase reached sticks.
func (b *Builder) stage(s jobModel.InternalStatus) {
	if b.onStage == nil || stageOrder[s] <= b.stageMark {
		return
	}
	b.stageMark = stageOrder[s]
	b.onStage(s)
}

func activeEmbeddingModel() string {
	if config.EmbeddingProvider == "google" {
		return config.GoogleEmbeddingModel
	}
	return config.OpenAIEmbeddingModel
}

func (b *Builder) Build(ctx context.Context, docsDir string) (BuildResult, error) {
	log := b.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	builtAt := time.Now()

	b.stageMark = 0
	b.stage(jobModel.RebuildLoading)
	_ = WriteProgress(0, "Scanning documents")

	docs, err := ingest.DiscoverDocuments(docsDir)
	if err != nil {
		return b.fail(fmt.Errorf("scanning %s: %w", docsDir, err))
	}
	if len(docs) == 0 {
		return b.fail(fmt.Errorf("no documents found in %s", docsDir))
	}
	log.Info("Starting index build", "documents", len(docs), "dir", docsDir)

	if err := b.store.ResetCollection(ctx, config.DocCollectionName); err != nil {
		return b.fail(fmt.Errorf("resetting collection: %w", err))
	}

	var (
		result     BuildResult
		procErrors []ProcessingError
		chunkStore = make(map[string]string)
		docInfos   []DocumentInfo
	)

	b.stage(jobModel.RebuildChunks)
	batchSize := config.EmbedBatchSize
	for i, d := range docs {
		if ctx.Err() != nil {
			return b.fail(ctx.Err())
		}
		percent := 5 + i*80/len(docs)
		_ = WriteProgress(percent, fmt.Sprintf("Processing document %d of %d: %s", i+1, len(docs), d.Name))

		text, err := ingest.ExtractText(d.Path, d.Type)
		if err != nil {
			procErrors = append(procErrors, ProcessingError{Document: d.Name, Stage: "extract", Message: err.Error()})
			continue
		}

		doc := ingest.BuildDocument(d, text)
		chunks, err := ingest.PrepareChunks(text, doc, b.model)
		if err != nil {
			procErrors = append(procErrors, ProcessingError{Document: d.Name, Stage: "chunk", Message: err.Error()})
			continue
		}
		if len(chunks) == 0 {
			procErrors = append(procErrors, ProcessingError{Document: d.Name, Stage: "chunk", Message: "document produced no text"})
			continue
		}

		stored, err := b.embedAndUpsert(ctx, chunks, &batchSize, &procErrors)
		if err != nil {
			return b.fail(err)
		}

		for _, c := range stored {
			chunkStore[c.ChunkId] = c.Chunk
		}
		docInfos = append(docInfos, DocumentInfo{
			Name:       doc.Name,
			Title:      doc.Title,
			Category:   doc.Category,
			Keywords:   doc.Keywords,
			ChunkCount: len(stored),
		})
		result.DocumentCount++
		result.ChunkCount += len(stored)
	}

	b.stage(jobModel.ArtifactWrite)
	_ = WriteProgress(90, "Writing artifacts")

	result.ErrorCount = len(procErrors)
	meta := Metadata{
		BuiltAt:        builtAt,
		DocumentCount:  result.DocumentCount,
		ChunkCount:     result.ChunkCount,
		ErrorCount:     result.ErrorCount,
		EmbeddingModel: b.model,
		VectorBackend:  config.VectorBackend,
		Version:        newVersion(builtAt),
		Documents:      docInfos,
	}
	if err := writeArtifacts(meta, chunkStore, procErrors); err != nil {
		return b.fail(fmt.Errorf("writing artifacts: %w", err))
	}

	if result.ChunkCount == 0 {
		return b.fail(errors.New("every document failed processing"))
	}

	_ = WriteProgress(100, fmt.Sprintf("Index build complete: %d documents, %d chunks", result.DocumentCount, result.ChunkCount))
	log.Info("Index build complete",
		"documents", result.DocumentCount,
		"chunks", result.ChunkCount,
		"errors", result.ErrorCount,
		"took", time.Since(builtAt).String())
	return result, nil
}

// embedAndUpsert pushes chunks through the embedder in batches. The batch
// size drops after the first hard failure and stays down for the rest of
// the build; rate limits wait out before retrying the same batch.
func (b *Builder) embedAndUpsert(ctx context.Context, chunks []commonModels.DocChunk, batchSize *int, procErrors *[]ProcessingError) ([]commonModels.DocChunk, error) {
	var stored []commonModels.DocChunk
	rateLimitRetries := 0

	for start := 0; start < len(chunks); {
		end := start + *batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Chunk
		}

		b.stage(jobModel.EmbeddingCall)
		vectors, err := b.embedder.BatchEmbedding(ctx, texts)
		if errors.Is(err, embedding.ErrRateLimited) {
			rateLimitRetries++
			if rateLimitRetries > 5 {
				return stored, fmt.Errorf("embedding still rate limited after %d waits: %w", rateLimitRetries-1, err)
			}
			b.logger.Error("Embedding rate limited, backing off", "wait", b.rateLimitWait.String())
			if err := sleepCtx(ctx, b.rateLimitWait); err != nil {
				return stored, err
			}
			continue
		}
		if err != nil {
			if *batchSize > config.EmbedReducedBatchSize {
				b.logger.Error("Embedding batch failed, reducing batch size", "error", err, "newSize", config.EmbedReducedBatchSize)
				*batchSize = config.EmbedReducedBatchSize
				continue
			}
			// already at the reduced size, skip these chunks and move on
			*procErrors = append(*procErrors, ProcessingError{
				Document: batch[0].Doc.Name,
				Stage:    "embed",
				Message:  err.Error(),
			})
			start = end
			continue
		}
		rateLimitRetries = 0

		b.stage(jobModel.VectorDBCall)
		if err := b.store.UpsertBatch(ctx, config.DocCollectionName, batch, vectors); err != nil {
			return stored, fmt.Errorf("upserting %d chunks: %w", len(batch), err)
		}
		stored = append(stored, batch...)
		start = end

		if start < len(chunks) {
			if err := sleepCtx(ctx, b.batchPause); err != nil {
				return stored, err
			}
		}
	}
	return stored, nil
}

func (b *Builder) fail(err error) (BuildResult, error) {
	b.logger.Error("Index build failed", "error", err)
	_ = WriteProgress(-1, err.Error())
	return BuildResult{}, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
