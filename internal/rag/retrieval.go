package rag

import (
	"math"

	"github.com/akolanti/RagBot/internal/domain/commonModels"
)

// maximalMarginalRelevance picks k candidates balancing similarity to the
// query against similarity to what is already picked. lambda 1.0 is pure
// relevance, 0.0 pure diversity. Candidates must arrive sorted by score,
// that order is the fallback when the store returned no vectors.
func maximalMarginalRelevance(queryVec []float32, candidates []commonModels.Candidate, lambda float64, k int) []commonModels.Candidate {
	if k >= len(candidates) {
		return candidates
	}
	for _, c := range candidates {
		if len(c.Vector) == 0 {
			return candidates[:k]
		}
	}

	querySim := make([]float64, len(candidates))
	for i, c := range candidates {
		querySim[i] = cosineSimilarity(queryVec, c.Vector)
	}

	selected := make([]int, 0, k)
	chosen := make([]bool, len(candidates))

	for len(selected) < k {
		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if chosen[i] {
				continue
			}
			redundancy := 0.0
			for _, j := range selected {
				if sim := cosineSimilarity(candidates[i].Vector, candidates[j].Vector); sim > redundancy {
					redundancy = sim
				}
			}
			score := lambda*querySim[i] - (1-lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		chosen[bestIdx] = true
		selected = append(selected, bestIdx)
	}

	out := make([]commonModels.Candidate, 0, len(selected))
	for _, i := range selected {
		out = append(out, candidates[i])
	}
	return out
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
