package openaiEmbedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/customHttpClient"
	"github.com/akolanti/RagBot/internal/rag/embedding"
	"github.com/akolanti/RagBot/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var logger *logger_i.Logger
var once sync.Once
var embeddingClient *client

type client struct {
	api   openai.Client
	model string
}

func newOpenAIEmbedder(modelName string, apikey string) {
	if apikey == "" {
		logger.Error("OpenAI API key not set, embedding client unavailable")
		return
	}
	api := openai.NewClient(
		option.WithAPIKey(apikey),
		option.WithHTTPClient(customHttpClient.GetPooledClient()),
	)
	embeddingClient = &client{
		api:   api,
		model: modelName,
	}
	logger.Debug("OpenAI Embedding model name: " + modelName)
	logger.Info("OpenAI Embedding client created")
}

func GetOpenAIEmbeddingClient(ctx context.Context, modelName string, apikey string) embedding.Embedder {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_embedding")
		newOpenAIEmbedder(modelName, apikey)
	})

	//if init still fails
	if embeddingClient == nil {
		return nil
	}
	return embeddingClient
}

func (c *client) GetEmbedding(ctx context.Context, query string) ([]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))
	vectors, err := c.embed(ctx, []string{query})
	if err != nil {
		log.Error("Error getting Embedding from OpenAI", "error", err)
		return nil, err
	}
	return vectors[0], nil
}

func (c *client) BatchEmbedding(ctx context.Context, chunks []string) ([][]float32, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	vectors, err := c.embed(ctx, chunks)
	if err != nil {
		if isRateLimited(err) {
			log.Error("Rate limit hit! ", "error", err)
			return nil, fmt.Errorf("%w: %v", embedding.ErrRateLimited, err)
		}
		log.Error("Error getting Embeddings from OpenAI", "error", err)
		return nil, err
	}
	return vectors, nil
}

func (c *client) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := c.api.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(config.EmbeddingOutputDimensionality)),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(inputs), len(resp.Data))
	}

	//the API may return items out of order, Index says where each belongs
	vectors := make([][]float32, len(resp.Data))
	for _, item := range resp.Data {
		vec := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vec[i] = float32(v)
		}
		vectors[item.Index] = vec
	}
	return vectors, nil
}

func isRateLimited(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
