package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RAG_SCORE_THRESHOLD", "")
	t.Setenv("RAG_HISTORY_WINDOW", "")
	t.Setenv("VECTOR_STORE", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("EMBEDDING_PROVIDER", "")
	t.Setenv("EVENTS_BACKEND", "")

	cfg := Load()
	assert.Equal(t, 1.0, cfg.Rag.ScoreThreshold)
	assert.Equal(t, 4, cfg.Rag.HistoryWindow)
	assert.Equal(t, 128, cfg.Rag.ReformulateMaxTokens)
	assert.Equal(t, 256, cfg.Rag.SynthesisMaxTokens)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RAG_SCORE_THRESHOLD", "0.75")
	t.Setenv("RAG_HISTORY_WINDOW", "6")
	t.Setenv("VECTOR_STORE", "PGVECTOR")
	t.Setenv("LLM_PROVIDER", "Gemini")

	cfg := Load()
	assert.Equal(t, 0.75, cfg.Rag.ScoreThreshold)
	assert.Equal(t, 6, cfg.Rag.HistoryWindow)
	assert.Equal(t, "pgvector", cfg.Rag.VectorStore)
	assert.Equal(t, "gemini", cfg.Ai.LLMProvider)
}

func validConfig() *Config {
	return &Config{
		Ai:     AIConfig{LLMProvider: "openai", EmbeddingProvider: "tfidf"},
		Rag:    RagConfig{VectorStore: "memory", ScoreThreshold: 1.0, HistoryWindow: 4, ReformulateMaxTokens: 128, SynthesisMaxTokens: 256},
		Events: EventsConfig{Backend: "none"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"zero threshold allowed", func(c *Config) { c.Rag.ScoreThreshold = 0 }, false},
		{"negative threshold", func(c *Config) { c.Rag.ScoreThreshold = -0.1 }, true},
		{"empty window", func(c *Config) { c.Rag.HistoryWindow = 0 }, true},
		{"no max tokens", func(c *Config) { c.Rag.SynthesisMaxTokens = 0 }, true},
		{"unknown llm", func(c *Config) { c.Ai.LLMProvider = "claude" }, true},
		{"unknown embedder", func(c *Config) { c.Ai.EmbeddingProvider = "bert" }, true},
		{"unknown store", func(c *Config) { c.Rag.VectorStore = "chroma" }, true},
		{"pgvector without dsn", func(c *Config) { c.Rag.VectorStore = "pgvector" }, true},
		{"pgvector with dsn", func(c *Config) {
			c.Rag.VectorStore = "pgvector"
			c.Database.Connection = "postgres://localhost/fastpai"
		}, false},
		{"unknown events", func(c *Config) { c.Events.Backend = "kafka" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
