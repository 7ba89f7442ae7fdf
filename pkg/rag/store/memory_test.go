package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastpai-be/pkg/rag/corpus"
)

func sampleDocs() []corpus.ServiceDocument {
	return []corpus.ServiceDocument{
		{ID: "cie_rm", Content: "carta d'identità", Metadata: corpus.Metadata{Municipality: "rm"}},
		{ID: "tari_rm", Content: "pagamento tari", Metadata: corpus.Metadata{Municipality: "rm"}},
		{ID: "cie_ba", Content: "carta d'identità Bari", Metadata: corpus.Metadata{Municipality: "BA "}},
		{ID: "pass_rm", Content: "passaporto e carta", Metadata: corpus.Metadata{Municipality: "rm"}},
	}
}

func TestMemoryStore_Query(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), sampleDocs()))

	results, err := s.Query(context.Background(), "rinnovo carta", "RM", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "cie_rm", results[0].Document.ID)
	assert.InDelta(t, 0.0, results[0].Score, 1e-9)
	assert.Equal(t, "pass_rm", results[1].Document.ID)
	assert.Equal(t, "tari_rm", results[2].Document.ID)
	assert.InDelta(t, 2.0, results[2].Score, 1e-6, "orthogonal unit vectors")
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMemoryStore_MunicipalityIsolation(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), sampleDocs()))

	results, err := s.Query(context.Background(), "carta", " ba", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "cie_ba", results[0].Document.ID)

	none, err := s.Query(context.Background(), "carta", "mi", 1)
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestMemoryStore_QueryWithoutVocabularyOverlap(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), sampleDocs()))

	results, err := s.Query(context.Background(), "ciao come stai", "rm", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestMemoryStore_EmptyCorpus(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), nil))

	results, err := s.Query(context.Background(), "carta", "rm", 1)
	require.NoError(t, err)
	assert.Empty(t, results)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMemoryStore_WriteOnce(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), sampleDocs()))
	assert.ErrorIs(t, s.Index(context.Background(), sampleDocs()), ErrAlreadyIndexed)
}

func TestMemoryStore_MunicipalitiesAndCount(t *testing.T) {
	s := NewMemoryStore(newKeywordEmbedder())
	require.NoError(t, s.Index(context.Background(), sampleDocs()))

	ms, err := s.Municipalities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ba", "rm"}, ms)

	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestMemoryStore_PreparesEmbedder(t *testing.T) {
	e := preparingEmbedder{newKeywordEmbedder()}
	s := NewMemoryStore(e)
	require.NoError(t, s.Index(context.Background(), sampleDocs()))
	assert.Len(t, e.prepared, 4)
}
