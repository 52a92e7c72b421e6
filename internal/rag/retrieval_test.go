package rag

import (
	"math"
	"testing"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMMR_PrefersDiverseCandidates(t *testing.T) {
	query := []float32{1, 0}

	// near-duplicates of the best hit plus one off-axis candidate that is
	// still relevant. Pure relevance ordering would pick the clones.
	candidates := []commonModels.Candidate{
		{ChunkId: "a", Vector: []float32{0.9, 0.1}},
		{ChunkId: "b", Vector: []float32{0.9, 0.1}},
		{ChunkId: "c", Vector: []float32{0.89, 0.11}},
		{ChunkId: "d", Vector: []float32{0.5, -0.5}},
	}

	picked := maximalMarginalRelevance(query, candidates, 0.5, 2)
	if len(picked) != 2 {
		t.Fatalf("got %d picks, want 2", len(picked))
	}
	if picked[0].ChunkId != "a" {
		t.Errorf("first pick should be the most relevant, got %s", picked[0].ChunkId)
	}
	if picked[1].ChunkId != "d" {
		t.Errorf("second pick should be the diverse candidate, got %s", picked[1].ChunkId)
	}
}

func TestMMR_ReturnsAllWhenFewerThanK(t *testing.T) {
	candidates := []commonModels.Candidate{
		{ChunkId: "a", Vector: []float32{1, 0}},
		{ChunkId: "b", Vector: []float32{0, 1}},
	}
	picked := maximalMarginalRelevance([]float32{1, 0}, candidates, 0.7, 6)
	if len(picked) != 2 {
		t.Errorf("got %d picks, want all 2", len(picked))
	}
}

func TestMMR_FallsBackToScoreOrderWithoutVectors(t *testing.T) {
	candidates := []commonModels.Candidate{
		{ChunkId: "a", Score: 0.9},
		{ChunkId: "b", Score: 0.8},
		{ChunkId: "c", Score: 0.7},
	}
	picked := maximalMarginalRelevance([]float32{1, 0}, candidates, 0.7, 2)
	if len(picked) != 2 || picked[0].ChunkId != "a" || picked[1].ChunkId != "b" {
		t.Errorf("expected the top two by score, got %+v", picked)
	}
}

func TestCleanAnswer(t *testing.T) {
	if got := cleanAnswer("ANSWER: the tariff is 5%"); got != "the tariff is 5%" {
		t.Errorf("got %q", got)
	}
	if got := cleanAnswer("  plain text  "); got != "plain text" {
		t.Errorf("got %q", got)
	}
}

func TestPlainAnswer(t *testing.T) {
	full := "The fee is 5%.\n\n<details><summary>Sources</summary>\n<ul>\n<li>Fees</li>\n</ul>\n</details>"
	if got := PlainAnswer(full); got != "The fee is 5%." {
		t.Errorf("got %q", got)
	}
	if got := PlainAnswer("no block here"); got != "no block here" {
		t.Errorf("got %q", got)
	}
}

func TestRenderSources_RespectsLimit(t *testing.T) {
	titles := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		titles = append(titles, "A document with a fairly long descriptive title")
	}
	block := renderSources(titles)
	if len(block) > 3000 {
		t.Errorf("sources block exceeds limit: %d bytes", len(block))
	}
	if block == "" {
		t.Error("block should not be empty")
	}
}
