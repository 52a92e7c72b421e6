package qdrantDB

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once
var dimension = uint64(config.EmbeddingOutputDimensionality)

type ClientHolder struct {
	QObj *qdrant.Client
}

func GetQuadrantClient(ctx context.Context) *ClientHolder {

	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		res := newClient()
		if res != nil {
			quadrantInstance = res
			initCacheCollection(ctx, quadrantInstance)
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil
	}
	return &ClientHolder{
		QObj: quadrantInstance,
	}
}

func newClient() *qdrant.Client {

	host := os.Getenv("QDRANT_HOST")
	port, er := strconv.Atoi(os.Getenv("QDRANT_PORT"))

	if host == "" || er != nil {
		host = config.QdrantHost
		port = config.QdrantGrpcPort
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     host,
		Port:     port,
		UseTLS:   config.QdrantUseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
	}

	err = createCollection(context.Background(), client, config.DocCollectionName)
	if err != nil {
		logger.Error("could not create collection: ", "collectionName", config.DocCollectionName, "error:", err)
		return nil
	}

	return client
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	err := qi.Close()
	if err != nil {
		logger.Error("could not close Qdrant: ", "error:", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) SearchCandidates(ctx context.Context, vectorVal []float32, fetchK int) ([]commonModels.Candidate, error) {
	loggr := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	result, err := db.QObj.Query(ctx, &qdrant.QueryPoints{
		CollectionName: config.DocCollectionName,
		Query:          qdrant.NewQuery(vectorVal...),
		Limit:          qdrant.PtrOf(uint64(fetchK)),
		WithPayload:    qdrant.NewWithPayload(true),
		//vectors ride along so the retrieval layer can re-rank
		WithVectors: qdrant.NewWithVectors(true),
	})

	if err != nil {
		loggr.Error("Error querying Qdrant: ", "error:", err)
		return nil, err
	}

	candidates := make([]commonModels.Candidate, 0, len(result))
	for _, hit := range result {
		candidate := commonModels.Candidate{
			ChunkId: hit.Payload["chunk_id"].GetStringValue(),
			Content: hit.Payload["content"].GetStringValue(),
			Title:   hit.Payload["title"].GetStringValue(),
			Source:  hit.Payload["source"].GetStringValue(),
			Score:   hit.GetScore(),
		}
		if vectorOut := hit.GetVectors().GetVector(); vectorOut != nil {
			candidate.Vector = vectorOut.GetData()
		}
		candidates = append(candidates, candidate)
	}

	loggr.Debug("Found candidates", "count", len(candidates))
	return candidates, nil
}

func (db *ClientHolder) CreateCollection(ctx context.Context, collectionName string) error {
	return createCollection(ctx, db.QObj, collectionName)
}

func (db *ClientHolder) UpsertBatch(ctx context.Context, collectionName string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))

	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id: qdrant.NewID(chunk.ChunkId),

			Vectors: qdrant.NewVectors(vectors[i]...),

			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Chunk,
				"title":       chunk.Doc.Title,
				"source":      chunk.Doc.Name,
				"category":    chunk.Doc.Category,
				"doc_id":      chunk.Doc.Id,
				"chunk_id":    chunk.ChunkId,
				"chunk_order": chunk.ChunkPageOrder,
				"ingested_at": chunk.Doc.LastIngestTimestamp.Unix(),
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})

	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}

	return nil

}

func (db *ClientHolder) CountChunks(ctx context.Context) (int, error) {
	count, err := db.QObj.Count(ctx, &qdrant.CountPoints{
		CollectionName: config.DocCollectionName,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (db *ClientHolder) ResetCollection(ctx context.Context, collectionName string) error {
	exists, err := db.QObj.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {
		if err := db.QObj.DeleteCollection(ctx, collectionName); err != nil {
			return err
		}
	}
	return createCollection(ctx, db.QObj, collectionName)
}

func createCollection(ctx context.Context, client *qdrant.Client, collectionName string) error {
	if collectionName == "" {
		return errors.New("empty collection name")
	}

	exists, err := client.CollectionExists(ctx, collectionName)
	if err != nil {
		return err
	}
	if exists {

		return nil
	}

	err = client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	return err
}
