package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"fastpai-be/pkg/embedding"
	"fastpai-be/pkg/rag/corpus"
)

type entry struct {
	doc    corpus.ServiceDocument
	vector []float32
}

// MemoryStore is a brute-force squared-L2 index held in process memory.
// It is written once by Index and read concurrently afterwards.
type MemoryStore struct {
	embedder embedding.EmbeddingProvider

	mu             sync.RWMutex
	indexed        bool
	byMunicipality map[string][]entry
	total          int
}

var _ DocumentStore = (*MemoryStore)(nil)

func NewMemoryStore(embedder embedding.EmbeddingProvider) *MemoryStore {
	return &MemoryStore{
		embedder:       embedder,
		byMunicipality: make(map[string][]entry),
	}
}

func (s *MemoryStore) Index(ctx context.Context, docs []corpus.ServiceDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexed {
		return ErrAlreadyIndexed
	}

	if err := prepare(s.embedder, docs); err != nil {
		return err
	}

	byMunicipality := make(map[string][]entry)
	dim := -1
	for _, doc := range docs {
		resp, err := s.embedder.Generate(ctx, doc.Content, embedding.TaskRetrievalDocument)
		if err != nil {
			return fmt.Errorf("embed document %s: %w", doc.ID, err)
		}
		vec := resp.Embedding.Values
		if dim == -1 {
			dim = len(vec)
		} else if len(vec) != dim {
			return fmt.Errorf("embed document %s: dimension %d, want %d", doc.ID, len(vec), dim)
		}
		key := corpus.CanonicalMunicipality(doc.Metadata.Municipality)
		byMunicipality[key] = append(byMunicipality[key], entry{doc: doc, vector: vec})
	}

	s.byMunicipality = byMunicipality
	s.total = len(docs)
	s.indexed = true
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, text, municipality string, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		k = 1
	}

	s.mu.RLock()
	candidates := s.byMunicipality[corpus.CanonicalMunicipality(municipality)]
	s.mu.RUnlock()

	if len(candidates) == 0 {
		return []ScoredDocument{}, nil
	}

	resp, err := s.embedder.Generate(ctx, text, embedding.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	query := resp.Embedding.Values
	if isZero(query) {
		return []ScoredDocument{}, nil
	}
	if len(query) != len(candidates[0].vector) {
		return nil, fmt.Errorf("query dimension %d, index dimension %d", len(query), len(candidates[0].vector))
	}

	results := make([]ScoredDocument, len(candidates))
	for i, c := range candidates {
		results[i] = ScoredDocument{Document: c.doc, Score: squaredL2(query, c.vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score < results[j].Score })

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (s *MemoryStore) Municipalities(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.byMunicipality))
	for m := range s.byMunicipality {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

// prepare gives corpus-fitted embedders (TF-IDF) their one pass over the documents.
func prepare(embedder embedding.EmbeddingProvider, docs []corpus.ServiceDocument) error {
	p, ok := embedder.(embedding.Preparer)
	if !ok || len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	if err := p.Prepare(texts); err != nil {
		return fmt.Errorf("prepare embedder: %w", err)
	}
	return nil
}
