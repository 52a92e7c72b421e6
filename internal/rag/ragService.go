package rag

import (
	"context"
	"strings"

	"github.com/akolanti/RagBot/internal/adapter/utils"
	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/internal/rag/embedding"
	"github.com/akolanti/RagBot/internal/rag/llm"
	"github.com/akolanti/RagBot/internal/rag/vectorDB"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

/*
The public Service interface is the whole ask pipeline behind two methods.
HTTP handlers, the Discord bot and the MCP tools all come through here and
never see the vector store or the model clients behind it. The private
struct holds that state; NewService wires it to the interface, which is
also what lets tests swap every dependency for a mock.
*/

type Service interface {
	Answer(ctx context.Context, query string, history []chatModel.Exchange) (Result, error)
	SearchPreview(ctx context.Context, query string, k int) ([]Preview, error)
}

// Result is a finished answer. Answer already carries the rendered sources
// block so transports can hand it to the widget untouched; Previews are the
// picked chunks for transports that can't show the HTML block. Cache hits
// only carry the answer text.
type Result struct {
	Answer   string
	Sources  []string
	Previews []Preview
	Cached   bool
}

// Preview is one search hit for the diagnostic search endpoint and the MCP
// search tool. Excerpt is capped, nobody needs a 4000 char chunk in a
// debug view.
type Preview struct {
	Title   string
	Source  string
	Score   float32
	Excerpt string
}

type service struct {
	vectorDB    vectorDB.DataProcessor
	llmProvider llm.Provider
	embedder    embedding.Embedder
	logger      *logger_i.Logger
}

// NewService constructor
func NewService(vector vectorDB.DataProcessor, llm llm.Provider, em embedding.Embedder) Service {
	return &service{
		vectorDB:    vector,
		llmProvider: llm,
		embedder:    em,
		logger:      logger_i.NewLogger("RAG Service :"),
	}
}

func (s *service) Answer(ctx context.Context, query string, history []chatModel.Exchange) (Result, error) {
	inMethodLogger := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	query = strings.TrimSpace(query)
	if query == "" {
		return Result{Answer: config.EmptyQuestionAnswer}, nil
	}

	//follow-ups like "and for companies?" only retrieve well with the
	//previous questions folded in
	searchQuery := enhanceQuery(query, recentQuestions(history, config.HistoryQuestionCount))

	// Embedding
	queryVector, err := s.executeEmbeddingStep(ctx, inMethodLogger, searchQuery)
	if err != nil {
		return Result{}, s.stepError(StepEmbedding, err)
	}

	// Cache Check
	cachedAnswer, found := s.executeCacheCheckStep(ctx, inMethodLogger, queryVector)
	if found {
		metrics.IncrementAnswerCacheHits()
		return Result{Answer: cachedAnswer, Cached: true}, nil
	}

	// Vector DB Search
	candidates, err := s.executeVectorSearchStep(ctx, inMethodLogger, queryVector)
	if err != nil {
		return Result{}, s.stepError(StepVectorSearch, err)
	}
	if len(candidates) == 0 {
		return Result{Answer: config.EmptyContextAnswer}, nil
	}

	picked := maximalMarginalRelevance(queryVector, candidates, config.MMRLambda, config.RetrievalK)

	// LLM Generation
	answer, err := s.executeLLMStep(ctx, inMethodLogger, query, matchesOf(picked), formatHistory(history))
	if err != nil {
		return Result{}, s.stepError(StepGeneration, err)
	}

	answer = cleanAnswer(answer)
	sources := sourceTitles(picked)
	full := answer
	if block := renderSources(sources); block != "" {
		full = answer + "\n\n" + block
	}

	//Background Cache Save
	go func() {
		//the request context dies with the response, keep the trace id only
		err := s.vectorDB.SaveToCache(context.WithoutCancel(ctx), utils.GetNewUUID(), queryVector, full)
		if err != nil {
			s.logger.Error("Failed to save to cache", "error", err)
		}
	}()

	return Result{Answer: full, Sources: sources, Previews: previewsOf(picked)}, nil
}

func (s *service) SearchPreview(ctx context.Context, query string, k int) ([]Preview, error) {
	log := s.logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	queryVector, err := s.embedder.GetEmbedding(ctx, query)
	if err != nil {
		return nil, s.stepError(StepEmbedding, err)
	}

	candidates, err := s.vectorDB.SearchCandidates(ctx, queryVector, k)
	if err != nil {
		return nil, s.stepError(StepVectorSearch, err)
	}
	log.Debug("search preview", "hits", len(candidates))

	return previewsOf(candidates), nil
}
