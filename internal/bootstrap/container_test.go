package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fastpai-be/internal/config"
	"fastpai-be/pkg/embedding"
	"fastpai-be/pkg/embedding/tfidf"
	"fastpai-be/pkg/rag/store"
)

func TestNewEmbeddingProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.AIConfig
		want    interface{}
		wantErr bool
	}{
		{"ollama", config.AIConfig{EmbeddingProvider: "ollama"}, &embedding.OllamaProvider{}, false},
		{"gemini", config.AIConfig{EmbeddingProvider: "gemini", EmbeddingAPIKey: "k"}, &embedding.GeminiProvider{}, false},
		{"gemini without key", config.AIConfig{EmbeddingProvider: "gemini"}, nil, true},
		{"openai", config.AIConfig{EmbeddingProvider: "openai", EmbeddingAPIKey: "k"}, &embedding.OpenAIProvider{}, false},
		{"openai without key", config.AIConfig{EmbeddingProvider: "openai"}, nil, true},
		{"tfidf", config.AIConfig{EmbeddingProvider: "tfidf"}, &tfidf.Embedder{}, false},
		{"unknown", config.AIConfig{EmbeddingProvider: "bert"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewEmbeddingProvider(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, p)
		})
	}
}

func TestNewContainer_Offline(t *testing.T) {
	dir := t.TempDir()
	corpusDir := filepath.Join(dir, "documents")
	require.NoError(t, os.Mkdir(corpusDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corpusDir, "cie_roma.json"),
		[]byte(`{"page_content": "Carta d'identità elettronica", "metadata": {"comune": "roma"}}`), 0o644))

	cfg := &config.Config{
		App: config.AppConfig{
			LogFilePath:   filepath.Join(dir, "app.log"),
			WsLogFilePath: filepath.Join(dir, "ws.log"),
		},
		Ai: config.AIConfig{LLMProvider: "ollama", LLMModel: "llama3", EmbeddingProvider: "tfidf"},
		Rag: config.RagConfig{
			CorpusDir:            corpusDir,
			VectorStore:          "memory",
			ScoreThreshold:       1.0,
			HistoryWindow:        4,
			ReformulateMaxTokens: 128,
			SynthesisMaxTokens:   256,
		},
		Events: config.EventsConfig{Backend: "gochannel"},
	}
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := NewContainer(ctx, cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &store.MemoryStore{}, c.Store)
	n, err := c.Store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NotNil(t, c.BookingConsumer)
	require.NoError(t, c.BookingConsumer.Consume(ctx))
	assert.Equal(t, 0, c.WebSocketHub.Count())
}

func TestNewContainer_MissingCorpus(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		App: config.AppConfig{
			LogFilePath:   filepath.Join(dir, "app.log"),
			WsLogFilePath: filepath.Join(dir, "ws.log"),
		},
		Ai:     config.AIConfig{LLMProvider: "ollama", EmbeddingProvider: "tfidf"},
		Rag:    config.RagConfig{CorpusDir: filepath.Join(dir, "missing"), VectorStore: "memory", HistoryWindow: 4},
		Events: config.EventsConfig{Backend: "none"},
	}

	_, err := NewContainer(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewContainer_FailureReleasesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		ai   config.AIConfig
	}{
		{"unknown embedding provider", config.AIConfig{LLMProvider: "ollama", EmbeddingProvider: "bert"}},
		{"unknown llm provider", config.AIConfig{LLMProvider: "claude", EmbeddingProvider: "ollama"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				App: config.AppConfig{
					LogFilePath:   filepath.Join(dir, "app.log"),
					WsLogFilePath: filepath.Join(dir, "ws.log"),
					RedisURL:      "redis://" + mr.Addr(),
				},
				Ai:     tt.ai,
				Rag:    config.RagConfig{CorpusDir: dir, VectorStore: "memory", HistoryWindow: 4},
				Events: config.EventsConfig{Backend: "none"},
			}

			_, err := NewContainer(context.Background(), cfg)
			require.Error(t, err)
			assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
				time.Second, 10*time.Millisecond)
		})
	}
}
