package rag

import (
	"context"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/internal/metrics"
	"github.com/akolanti/RagBot/pkg/logger_i"
)

// Pipeline step names, also what the failure metrics and the error log key on.
const (
	StepEmbedding    = "EMBEDDING_FAILURE"
	StepVectorSearch = "VECTOR_DB_FAILURE"
	StepGeneration   = "LLM_GENERATION_FAILURE"
)

// StepError marks which pipeline stage broke so the handler can log the
// stage while the user still gets the generic apology.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }

func (e *StepError) Unwrap() error { return e.Err }

func (s *service) stepError(step string, err error) error {
	s.logger.Error(step, "error", err)
	return &StepError{Step: step, Err: err}
}

func (s *service) executeEmbeddingStep(ctx context.Context, log *logger_i.Logger, query string) ([]float32, error) {
	log.Debug("Answer", "Current Step", "embedding")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("embedding", time.Since(start)) }()

	return s.embedder.GetEmbedding(ctx, query)
}

func (s *service) executeCacheCheckStep(ctx context.Context, log *logger_i.Logger, emb []float32) (string, bool) {
	log.Debug("Answer", "Current Step", "cache_lookup")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("cache_lookup", time.Since(start)) }()

	ans, found, _ := s.vectorDB.GetCachedAnswer(ctx, emb)
	return ans, found
}

func (s *service) executeVectorSearchStep(ctx context.Context, log *logger_i.Logger, emb []float32) ([]commonModels.Candidate, error) {
	log.Debug("Answer", "Current Step", "vector_search")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("vector_search", time.Since(start)) }()

	return s.vectorDB.SearchCandidates(ctx, emb, config.RetrievalFetchK)
}

func (s *service) executeLLMStep(ctx context.Context, log *logger_i.Logger, query string, matches []string, history []string) (string, error) {
	log.Debug("Answer", "Current Step", "llm_generation")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("llm_generation", time.Since(start)) }()

	return s.llmProvider.Generate(ctx, query, matches, history)
}

func enhanceQuery(query string, previous []string) string {
	if len(previous) == 0 {
		return query
	}
	return strings.Join(append(previous, query), "\n")
}

func recentQuestions(history []chatModel.Exchange, count int) []string {
	if len(history) > count {
		history = history[len(history)-count:]
	}
	questions := make([]string, 0, len(history))
	for _, ex := range history {
		questions = append(questions, ex.Question)
	}
	return questions
}

func formatHistory(history []chatModel.Exchange) []string {
	out := make([]string, 0, len(history))
	for _, ex := range history {
		out = append(out, "Question: "+ex.Question+"\nAnswer: "+ex.Answer)
	}
	return out
}

func matchesOf(candidates []commonModels.Candidate) []string {
	matches := make([]string, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, c.Content)
	}
	return matches
}

func previewsOf(candidates []commonModels.Candidate) []Preview {
	previews := make([]Preview, 0, len(candidates))
	for _, c := range candidates {
		previews = append(previews, Preview{
			Title:   c.Title,
			Source:  c.Source,
			Score:   c.Score,
			Excerpt: excerpt(c.Content, config.PreviewLength),
		})
	}
	return previews
}

// PlainAnswer strips the rendered sources block off an answer for
// transports that can't show HTML.
func PlainAnswer(answer string) string {
	if i := strings.Index(answer, "<details><summary>Sources</summary>"); i >= 0 {
		return strings.TrimSpace(answer[:i])
	}
	return answer
}

// cleanAnswer strips the scaffolding some models put in front of the text.
func cleanAnswer(answer string) string {
	answer = strings.TrimSpace(answer)
	for _, prefix := range []string{"ANSWER:", "Answer:"} {
		answer = strings.TrimSpace(strings.TrimPrefix(answer, prefix))
	}
	return answer
}

// sourceTitles collects the distinct document titles behind the picked
// chunks, falling back to the file name for documents without one.
func sourceTitles(candidates []commonModels.Candidate) []string {
	seen := make(map[string]bool, len(candidates))
	titles := make([]string, 0, len(candidates))
	for _, c := range candidates {
		title := c.Title
		if title == "" {
			title = c.Source
		}
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true
		titles = append(titles, title)
	}
	return titles
}

// renderSources builds the collapsible block the chat widget shows under an
// answer. The block is cut off at SourceBlockLimit so one answer cannot
// flood the page.
func renderSources(titles []string) string {
	if len(titles) == 0 {
		return ""
	}

	const closing = "</ul>\n</details>"
	var b strings.Builder
	b.WriteString("<details><summary>Sources</summary>\n<ul>\n")
	for _, t := range titles {
		line := "<li>" + html.EscapeString(t) + "</li>\n"
		if b.Len()+len(line)+len(closing) > config.SourceBlockLimit {
			break
		}
		b.WriteString(line)
	}
	b.WriteString(closing)
	return b.String()
}

func excerpt(content string, limit int) string {
	content = strings.TrimSpace(content)
	if len(content) <= limit {
		return content
	}
	cut := content[:limit]
	//don't slice through a multi-byte rune
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut + "..."
}
