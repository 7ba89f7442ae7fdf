package retrieval

import (
	"context"
	"fmt"

	"fastpai-be/internal/pkg/logger"
	"fastpai-be/pkg/rag/corpus"
	"fastpai-be/pkg/rag/store"
)

// DefaultThreshold on squared L2 over unit vectors, i.e. cosine similarity >= 0.5.
const DefaultThreshold = 1.0

// Result is either Found or NotFound.
type Result interface {
	isResult()
}

// Found carries the best match. It only exists for scores within the threshold.
type Found struct {
	doc   corpus.ServiceDocument
	score float64
}

func (Found) isResult() {}

func (f Found) Document() corpus.ServiceDocument { return f.doc }
func (f Found) Score() float64                   { return f.score }

type NotFound struct{}

func (NotFound) isResult() {}

// Classify returns Found when score is within threshold, NotFound otherwise.
func Classify(doc corpus.ServiceDocument, score, threshold float64) Result {
	if score <= threshold {
		return Found{doc: doc, score: score}
	}
	return NotFound{}
}

type Gate struct {
	store     store.DocumentStore
	threshold float64
	logger    logger.ILogger
}

func NewGate(s store.DocumentStore, threshold float64, log logger.ILogger) *Gate {
	return &Gate{store: s, threshold: threshold, logger: log}
}

func (g *Gate) Threshold() float64 { return g.threshold }

// Resolve looks up the single closest document for the municipality.
// Store errors propagate; a miss is NotFound, not an error.
func (g *Gate) Resolve(ctx context.Context, query, municipality string) (Result, error) {
	results, err := g.store.Query(ctx, query, municipality, 1)
	if err != nil {
		return nil, fmt.Errorf("retrieval query: %w", err)
	}

	if len(results) == 0 {
		g.logger.Debug("RetrievalGate", "No candidates", map[string]interface{}{
			"municipality": municipality,
		})
		return NotFound{}, nil
	}

	top := results[0]
	res := Classify(top.Document, top.Score, g.threshold)
	g.logger.Debug("RetrievalGate", "Top candidate", map[string]interface{}{
		"municipality": municipality,
		"document_id":  top.Document.ID,
		"score":        top.Score,
		"threshold":    g.threshold,
		"accepted":     IsFound(res),
	})
	return res, nil
}

func IsFound(r Result) bool {
	_, ok := r.(Found)
	return ok
}
