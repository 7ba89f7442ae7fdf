package store

import (
	"context"
	"math"
	"strings"

	"fastpai-be/pkg/embedding"
)

// keywordEmbedder maps texts onto a tiny fixed vocabulary so distances are predictable.
type keywordEmbedder struct {
	vocabulary []string
	prepared   []string
}

func newKeywordEmbedder() *keywordEmbedder {
	return &keywordEmbedder{vocabulary: []string{"carta", "tari", "passaporto", "anagrafe"}}
}

func (e *keywordEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(e.vocabulary))
	var norm float64
	for i, w := range e.vocabulary {
		n := strings.Count(lower, w)
		vec[i] = float32(n)
		norm += float64(n * n)
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: vec}}, nil
}

type preparingEmbedder struct {
	*keywordEmbedder
}

func (e preparingEmbedder) Prepare(corpus []string) error {
	e.prepared = append(e.prepared, corpus...)
	return nil
}
