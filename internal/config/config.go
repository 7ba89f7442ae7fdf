package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Rag      RagConfig
	Events   EventsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	WsLogFilePath      string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider string // "ollama", "openai" or "gemini"
	LLMModel    string
	LLMBaseURL  string
	LLMAPIKey   string

	EmbeddingProvider string // "ollama", "gemini", "openai" or "tfidf"
	EmbeddingModel    string
	EmbeddingBaseURL  string
	EmbeddingAPIKey   string
	EmbeddingCacheTTL time.Duration
}

type RagConfig struct {
	CorpusDir            string
	VectorStore          string // "memory" or "pgvector"
	ScoreThreshold       float64
	HistoryWindow        int
	ReformulateMaxTokens int
	SynthesisMaxTokens   int
}

type EventsConfig struct {
	Backend string // "nats", "gochannel" or "none"
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			WsLogFilePath:      getEnv("WS_LOG_FILE_PATH", "ws.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			LLMModel:          getEnv("LLM_MODEL", "meta-llama/Meta-Llama-3.1-405B-Instruct-Turbo"),
			LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
			LLMAPIKey:         getEnv("LLM_API_KEY", ""),
			EmbeddingProvider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", "ollama")),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
			EmbeddingBaseURL:  getEnv("EMBEDDING_BASE_URL", ""),
			EmbeddingAPIKey:   getEnv("EMBEDDING_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
			EmbeddingCacheTTL: time.Duration(getEnvAsInt("EMBEDDING_CACHE_TTL_SECONDS", 3600)) * time.Second,
		},
		Rag: RagConfig{
			CorpusDir:            getEnv("CORPUS_DIR", "./documents"),
			VectorStore:          strings.ToLower(getEnv("VECTOR_STORE", "memory")),
			ScoreThreshold:       getEnvAsFloat("RAG_SCORE_THRESHOLD", 1.0),
			HistoryWindow:        getEnvAsInt("RAG_HISTORY_WINDOW", 4),
			ReformulateMaxTokens: getEnvAsInt("RAG_REFORMULATE_MAX_TOKENS", 128),
			SynthesisMaxTokens:   getEnvAsInt("RAG_SYNTHESIS_MAX_TOKENS", 256),
		},
		Events: EventsConfig{
			Backend: strings.ToLower(getEnv("EVENTS_BACKEND", "gochannel")),
		},
	}
}

var (
	llmProviders       = []string{"ollama", "openai", "gemini"}
	embeddingProviders = []string{"ollama", "gemini", "openai", "tfidf"}
	vectorStores       = []string{"memory", "pgvector"}
	eventBackends      = []string{"nats", "gochannel", "none"}
)

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	if c.Rag.ScoreThreshold < 0 {
		return fmt.Errorf("RAG_SCORE_THRESHOLD must be >= 0, got %v", c.Rag.ScoreThreshold)
	}
	if c.Rag.HistoryWindow < 1 {
		return fmt.Errorf("RAG_HISTORY_WINDOW must be >= 1, got %d", c.Rag.HistoryWindow)
	}
	if c.Rag.ReformulateMaxTokens < 1 || c.Rag.SynthesisMaxTokens < 1 {
		return fmt.Errorf("max token settings must be positive")
	}
	if !oneOf(c.Ai.LLMProvider, llmProviders) {
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.Ai.LLMProvider)
	}
	if !oneOf(c.Ai.EmbeddingProvider, embeddingProviders) {
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", c.Ai.EmbeddingProvider)
	}
	if !oneOf(c.Rag.VectorStore, vectorStores) {
		return fmt.Errorf("unsupported VECTOR_STORE %q", c.Rag.VectorStore)
	}
	if c.Rag.VectorStore == "pgvector" && c.Database.Connection == "" {
		return fmt.Errorf("VECTOR_STORE=pgvector requires DB_CONNECTION_STRING")
	}
	if !oneOf(c.Events.Backend, eventBackends) {
		return fmt.Errorf("unsupported EVENTS_BACKEND %q", c.Events.Backend)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}
