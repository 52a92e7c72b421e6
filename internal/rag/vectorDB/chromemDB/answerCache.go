package chromemDB

import (
	"context"
	"strconv"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	chromem "github.com/philippgille/chromem-go"
)

func (s *Store) GetCachedAnswer(ctx context.Context, queryVector []float32) (string, bool, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	col, err := s.db.GetOrCreateCollection(config.CacheCollectionName, nil, nil)
	if err != nil {
		return "", false, err
	}
	if col.Count() == 0 {
		return "", false, nil
	}

	loggr.Info("Searching for cached answer")
	results, err := col.QueryEmbedding(ctx, queryVector, 1, nil, nil)
	if err != nil {
		loggr.Error("Cache Query failed", "error", err)
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}

	loggr.Debug("Found cached answer", "semantic similarity score", results[0].Similarity)
	if results[0].Similarity < config.CacheSimilarityCutoff {
		return "", false, nil
	}

	loggr.Info("---------------cache hit---------------------")
	return results[0].Content, true, nil
}

func (s *Store) SaveToCache(ctx context.Context, id string, vector []float32, answer string) error {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	loggr.Debug("Saving answer to cache")
	col, err := s.db.GetOrCreateCollection(config.CacheCollectionName, nil, nil)
	if err != nil {
		return err
	}

	err = col.AddDocument(ctx, chromem.Document{
		ID:        id,
		Content:   answer,
		Embedding: vector,
		Metadata: map[string]string{
			"timestamp": strconv.FormatInt(time.Now().Unix(), 10),
		},
	})
	if err != nil {
		loggr.Error("Saving answer to cache failed", "error", err)
	}
	return err
}
