package store

import (
	"context"
	"errors"

	"fastpai-be/pkg/rag/corpus"
)

var ErrAlreadyIndexed = errors.New("document store already indexed")

// ScoredDocument pairs a document with its distance to the query. Lower is closer.
type ScoredDocument struct {
	Document corpus.ServiceDocument
	Score    float64
}

// DocumentStore is the read-mostly vector index over the service corpus.
// Query results are sorted by ascending Score and restricted to one municipality;
// an empty corpus, an unknown municipality or a query sharing nothing with the
// corpus (zero embedding) yields an empty slice, not an error.
type DocumentStore interface {
	Index(ctx context.Context, docs []corpus.ServiceDocument) error
	Query(ctx context.Context, text, municipality string, k int) ([]ScoredDocument, error)
	Municipalities(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// isZero reports a query embedding with no signal; its distance to every unit
// vector is 1 and would otherwise rank documents arbitrarily.
func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
