package rag_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/akolanti/RagBot/internal/config"
	"github.com/akolanti/RagBot/internal/domain/chatModel"
	"github.com/akolanti/RagBot/internal/domain/commonModels"
	"github.com/akolanti/RagBot/internal/rag"
)

func TestAnswer_Scenarios(t *testing.T) {
	tests := []struct {
		name           string
		question       string
		setupMocks     func(e *MockEmbedder, v *MockVectorDB, l *MockLLM)
		expectedAnswer string // substring match
		expectedCached bool
		expectedStep   string
	}{
		{
			name:     "Success_Full_Flow",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "", false, nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "final answer", nil
				}
			},
			expectedAnswer: "final answer",
		},
		{
			name:     "Success_Cache_Hit",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnGetCachedAnswer = func(ctx context.Context, emb []float32) (string, bool, error) {
					return "cached answer", true, nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					t.Error("LLM should not be called on a cache hit")
					return "", nil
				}
			},
			expectedAnswer: "cached answer",
			expectedCached: true,
		},
		{
			name:     "Empty_Question_Skips_Pipeline",
			question: "   ",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					t.Error("embedder should not be called for an empty question")
					return nil, nil
				}
			},
			expectedAnswer: config.EmptyQuestionAnswer,
		},
		{
			name:     "No_Candidates_Gives_Fallback_Answer",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearchCandidates = func(ctx context.Context, vec []float32, fetchK int) ([]commonModels.Candidate, error) {
					return nil, nil
				}
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					t.Error("LLM should not be called without context")
					return "", nil
				}
			},
			expectedAnswer: config.EmptyContextAnswer,
		},
		{
			name:     "Failure_Embedding",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				e.OnGetEmbedding = func(ctx context.Context, text string) ([]float32, error) {
					return nil, errors.New("api limit")
				}
			},
			expectedStep: rag.StepEmbedding,
		},
		{
			name:     "Failure_Vector_Search",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				v.OnSearchCandidates = func(ctx context.Context, vec []float32, fetchK int) ([]commonModels.Candidate, error) {
					return nil, errors.New("db timeout")
				}
			},
			expectedStep: rag.StepVectorSearch,
		},
		{
			name:     "Failure_LLM_Generation",
			question: "test question",
			setupMocks: func(e *MockEmbedder, v *MockVectorDB, l *MockLLM) {
				l.OnGenerate = func(ctx context.Context, q string, m []string, h []string) (string, error) {
					return "", errors.New("provider down")
				}
			},
			expectedStep: rag.StepGeneration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mEmbed := &MockEmbedder{}
			mVec := &MockVectorDB{}
			mLLM := &MockLLM{}

			tt.setupMocks(mEmbed, mVec, mLLM)

			s := rag.NewService(mVec, mLLM, mEmbed)

			ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
			result, err := s.Answer(ctx, tt.question, nil)

			if tt.expectedStep != "" {
				if err == nil {
					t.Fatalf("expected a %s error, got none", tt.expectedStep)
				}
				var stepErr *rag.StepError
				if !errors.As(err, &stepErr) {
					t.Fatalf("expected a StepError, got %T", err)
				}
				if stepErr.Step != tt.expectedStep {
					t.Errorf("Step got %s, want %s", stepErr.Step, tt.expectedStep)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(result.Answer, tt.expectedAnswer) {
				t.Errorf("Answer got %q, want it to contain %q", result.Answer, tt.expectedAnswer)
			}
			if result.Cached != tt.expectedCached {
				t.Errorf("Cached got %v, want %v", result.Cached, tt.expectedCached)
			}
		})
	}
}

func TestAnswer_AppendsSourcesBlock(t *testing.T) {
	mVec := &MockVectorDB{
		OnSearchCandidates: func(ctx context.Context, vec []float32, fetchK int) ([]commonModels.Candidate, error) {
			return []commonModels.Candidate{
				{ChunkId: "c1", Content: "chunk one", Title: "Tariff Guide"},
				{ChunkId: "c2", Content: "chunk two", Title: "Tariff Guide"},
				{ChunkId: "c3", Content: "chunk three", Title: ""},
			}, nil
		},
	}
	s := rag.NewService(mVec, &MockLLM{}, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	result, err := s.Answer(ctx, "what are the tariffs?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(result.Answer, "<details><summary>Sources</summary>") {
		t.Errorf("answer missing sources block: %q", result.Answer)
	}
	// duplicate titles collapse, untitled chunks fall back to the file name
	if got := strings.Count(result.Answer, "Tariff Guide"); got != 1 {
		t.Errorf("expected one Tariff Guide entry, got %d", got)
	}
	if len(result.Sources) != 1 {
		t.Errorf("Sources got %v, want exactly one title", result.Sources)
	}
}

func TestAnswer_SavesFullAnswerToCache(t *testing.T) {
	saved := make(chan string, 1)
	mVec := &MockVectorDB{
		OnSaveToCache: func(ctx context.Context, id string, vector []float32, answer string) error {
			saved <- answer
			return nil
		},
	}
	s := rag.NewService(mVec, &MockLLM{}, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	result, err := s.Answer(ctx, "what are the tariffs?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the save runs off the request goroutine, the response never waits on it
	select {
	case got := <-saved:
		if got != result.Answer {
			t.Errorf("cache should hold the answer with its sources block, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("the answer never reached the cache")
	}
}

func TestAnswer_HistoryEnhancesRetrievalQuery(t *testing.T) {
	var embeddedQuery string
	var historySeen []string

	mEmbed := &MockEmbedder{
		OnGetEmbedding: func(ctx context.Context, text string) ([]float32, error) {
			embeddedQuery = text
			return []float32{0.1}, nil
		},
	}
	mLLM := &MockLLM{
		OnGenerate: func(ctx context.Context, q string, m []string, h []string) (string, error) {
			historySeen = h
			return "answer", nil
		},
	}
	s := rag.NewService(&MockVectorDB{}, mLLM, mEmbed)

	history := []chatModel.Exchange{
		{Question: "first", Answer: "a1"},
		{Question: "second", Answer: "a2"},
		{Question: "third", Answer: "a3"},
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	if _, err := s.Answer(ctx, "current", history); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// only the last HistoryQuestionCount questions ride along
	if embeddedQuery != "second\nthird\ncurrent" {
		t.Errorf("retrieval query got %q", embeddedQuery)
	}
	if strings.Contains(embeddedQuery, "first") {
		t.Errorf("oldest question should have been dropped: %q", embeddedQuery)
	}

	if len(historySeen) != 3 {
		t.Fatalf("history passed to LLM got %d entries, want 3", len(historySeen))
	}
	if historySeen[0] != "Question: first\nAnswer: a1" {
		t.Errorf("formatted history got %q", historySeen[0])
	}
}

func TestSearchPreview(t *testing.T) {
	long := strings.Repeat("x", config.PreviewLength+50)
	mVec := &MockVectorDB{
		OnSearchCandidates: func(ctx context.Context, vec []float32, fetchK int) ([]commonModels.Candidate, error) {
			if fetchK != 6 {
				t.Errorf("fetchK got %d, want 6", fetchK)
			}
			return []commonModels.Candidate{
				{ChunkId: "c1", Content: long, Title: "Doc A", Source: "a.pdf", Score: 0.9},
			}, nil
		},
	}
	s := rag.NewService(mVec, &MockLLM{}, &MockEmbedder{})

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	previews, err := s.SearchPreview(ctx, "query", 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(previews) != 1 {
		t.Fatalf("got %d previews, want 1", len(previews))
	}
	p := previews[0]
	if p.Title != "Doc A" || p.Source != "a.pdf" {
		t.Errorf("preview metadata got %+v", p)
	}
	if len(p.Excerpt) > config.PreviewLength+3 {
		t.Errorf("excerpt not truncated, len %d", len(p.Excerpt))
	}
	if !strings.HasSuffix(p.Excerpt, "...") {
		t.Errorf("truncated excerpt should end with ellipsis: %q", p.Excerpt)
	}
}
