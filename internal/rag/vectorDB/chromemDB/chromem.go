package chromemDB

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/pkg/logger_i"
	chromem "github.com/philippgille/chromem-go"
)

var logger *logger_i.Logger
var storeInstance *Store
var once sync.Once

// Store persists the knowledge-base chunks and the answer cache in an
// embedded chromem-go database under the index directory. No external
// service needed, which is what lets the bundled index ship inside the
// container image.
type Store struct {
	db *chromem.DB
}

func GetChromemStore(ctx context.Context) *Store {

	once.Do(func() {
		logger = logger_i.NewLogger("Chromem")
		db, err := chromem.NewPersistentDB(config.ChromemDir(), false)
		if err != nil {
			logger.Error("could not open store: ", "path", config.ChromemDir(), "error:", err)
			return
		}
		storeInstance = &Store{db: db}

		err = storeInstance.CreateCollection(ctx, config.DocCollectionName)
		if err != nil {
			logger.Error("could not create collection: ", "collectionName", config.DocCollectionName, "error:", err)
		}
		err = storeInstance.CreateCollection(ctx, config.CacheCollectionName)
		if err != nil {
			logger.Error("Semantic cache collection creation failed", "error", err)
		}
	})

	return storeInstance
}

// NewTestStore opens a throwaway store rooted at dir. Used by tests.
func NewTestStore(dir string) (*Store, error) {
	if logger == nil {
		logger = logger_i.NewLogger("Chromem")
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.CreateCollection(context.Background(), config.DocCollectionName); err != nil {
		return nil, err
	}
	if err := s.CreateCollection(context.Background(), config.CacheCollectionName); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) SearchCandidates(ctx context.Context, vectorVal []float32, fetchK int) ([]commonModels.Candidate, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	col, err := s.db.GetOrCreateCollection(config.DocCollectionName, nil, nil)
	if err != nil {
		return nil, err
	}

	//chromem rejects queries asking for more results than the collection holds
	n := fetchK
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vectorVal, n, nil, nil)
	if err != nil {
		loggr.Error("Error querying store: ", "error:", err)
		return nil, err
	}

	candidates := make([]commonModels.Candidate, 0, len(results))
	for _, hit := range results {
		candidates = append(candidates, commonModels.Candidate{
			ChunkId: hit.ID,
			Content: hit.Content,
			Title:   hit.Metadata["title"],
			Source:  hit.Metadata["source"],
			Score:   hit.Similarity,
			Vector:  hit.Embedding,
		})
	}

	loggr.Debug("Found candidates", "count", len(candidates))
	return candidates, nil
}

func (s *Store) CreateCollection(ctx context.Context, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}
	//nil embedding func is fine: every document arrives with its vector
	_, err := s.db.GetOrCreateCollection(collectionName, nil, nil)
	return err
}

func (s *Store) UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	col, err := s.db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return err
	}

	for i, chunk := range chunks {
		err := col.AddDocument(ctx, chromem.Document{
			ID:        chunk.ChunkId,
			Content:   chunk.Chunk,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"title":       chunk.Doc.Title,
				"source":      chunk.Doc.Name,
				"category":    chunk.Doc.Category,
				"doc_id":      chunk.Doc.Id,
				"chunk_order": strconv.Itoa(chunk.ChunkPageOrder),
				"ingested_at": strconv.FormatInt(chunk.Doc.LastIngestTimestamp.Unix(), 10),
			},
		})
		if err != nil {
			return fmt.Errorf("chromem upsert failed: %w", err)
		}
	}

	return nil
}

func (s *Store) CountChunks(ctx context.Context) (int, error) {
	col, err := s.db.GetOrCreateCollection(config.DocCollectionName, nil, nil)
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func (s *Store) ResetCollection(ctx context.Context, collectionName string) error {
	//DeleteCollection is a no-op when the collection does not exist
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return err
	}
	return s.CreateCollection(ctx, collectionName)
}
