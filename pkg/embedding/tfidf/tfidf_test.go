package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestEmbedder_NotPrepared(t *testing.T) {
	_, err := NewEmbedder().Generate(context.Background(), "ciao", "")
	assert.ErrorIs(t, err, ErrNotPrepared)
}

func TestEmbedder_PrepareAndGenerate(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare([]string{
		"Rilascio carta d'identità elettronica",
		"Pagamento della tassa sui rifiuti TARI",
	}))
	assert.Greater(t, e.Dimension(), 0)

	a, err := e.Generate(context.Background(), "carta identità", "")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm(a.Embedding.Values), 1e-6)
	assert.Len(t, a.Embedding.Values, e.Dimension())

	unknown, err := e.Generate(context.Background(), "zzz", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, norm(unknown.Embedding.Values))
}

func TestEmbedder_StopwordsIgnored(t *testing.T) {
	e := NewEmbedder()
	assert.Error(t, e.Prepare([]string{"il la di e"}))
	assert.Error(t, e.Prepare(nil))
}
