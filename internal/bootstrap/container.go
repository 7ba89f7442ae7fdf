package bootstrap

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"fastpai-be/internal/config"
	"fastpai-be/internal/controller"
	"fastpai-be/internal/handler"
	"fastpai-be/internal/pkg/logger"
	"fastpai-be/internal/pkg/metrics"
	"fastpai-be/internal/service"
	"fastpai-be/internal/websocket"
	"fastpai-be/pkg/database"
	"fastpai-be/pkg/embedding"
	"fastpai-be/pkg/embedding/tfidf"
	"fastpai-be/pkg/events"
	"fastpai-be/pkg/llm"
	"fastpai-be/pkg/llm/factory"
	pktNats "fastpai-be/pkg/nats"
	"fastpai-be/pkg/rag/corpus"
	"fastpai-be/pkg/rag/executor"
	"fastpai-be/pkg/rag/query"
	"fastpai-be/pkg/rag/response"
	"fastpai-be/pkg/rag/retrieval"
	"fastpai-be/pkg/rag/store"
)

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Metrics

	// Core
	Store    store.DocumentStore
	Executor *executor.PipelineExecutor

	// Transport
	AssistantController controller.IAssistantController
	ChatHandler         *handler.ChatHandler
	WebSocketHub        *websocket.Hub

	// Background Services (Exposed for main.go to run)
	BookingConsumer service.IBookingConsumerService

	closers []func()
}

// NewContainer builds the object graph and loads the corpus. ctx bounds startup
// work and the lifetime of the hub.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	m := metrics.New()

	c := &Container{Logger: sysLogger, Metrics: m}

	// 1. Infrastructure
	rdb := c.newRedis(ctx, cfg.App.RedisURL)

	embedder, err := NewEmbeddingProvider(cfg.Ai)
	if err != nil {
		c.Close()
		return nil, err
	}
	if _, offline := embedder.(*tfidf.Embedder); !offline {
		namespace := cfg.Ai.EmbeddingProvider + ":" + cfg.Ai.EmbeddingModel
		embedder = embedding.NewCachedProvider(embedder, namespace, rdb, cfg.Ai.EmbeddingCacheTTL)
	}
	sysLogger.Info("Bootstrap", "Embedding provider ready", map[string]interface{}{
		"provider": cfg.Ai.EmbeddingProvider,
		"redis":    rdb != nil,
	})

	llmProvider, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("init LLM provider: %w", err)
	}
	sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 2. Corpus
	docStore, err := c.newStore(ctx, cfg, embedder)
	if err != nil {
		c.Close()
		return nil, err
	}
	docs, err := corpus.LoadDirectory(cfg.Rag.CorpusDir, sysLogger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if err := docStore.Index(ctx, docs); err != nil {
		c.Close()
		return nil, fmt.Errorf("index corpus: %w", err)
	}
	sysLogger.Info("Bootstrap", "Corpus indexed", map[string]interface{}{
		"documents": len(docs),
		"store":     cfg.Rag.VectorStore,
	})
	c.Store = docStore

	// 3. Event Bus
	publisher, subscriber := c.newEventBus(cfg, sysLogger)
	if subscriber != nil {
		c.BookingConsumer = service.NewBookingConsumerService(subscriber, sysLogger, m)
	}

	// 4. Pipeline
	c.Executor = newExecutor(cfg, llmProvider, docStore, publisher, m, sysLogger)

	// 5. Transport
	assistantService := service.NewAssistantService(c.Executor, docStore, cfg.Rag.HistoryWindow, m, sysLogger)

	c.WebSocketHub = websocket.NewHub(m, wsLogger)
	go c.WebSocketHub.Run(ctx)

	c.ChatHandler = handler.NewChatHandler(assistantService, c.WebSocketHub, wsLogger)
	c.AssistantController = controller.NewAssistantController(assistantService, c.WebSocketHub)

	c.closers = append(c.closers, func() { _ = wsLogger.Sync() })
	return c, nil
}

func newExecutor(
	cfg *config.Config,
	llmProvider llm.LLMProvider,
	docStore store.DocumentStore,
	publisher events.Publisher,
	m *metrics.Metrics,
	log logger.ILogger,
) *executor.PipelineExecutor {
	return executor.NewPipelineExecutor(
		query.NewReformulator(llmProvider, cfg.Rag.ReformulateMaxTokens, log),
		retrieval.NewGate(docStore, cfg.Rag.ScoreThreshold, log),
		response.NewSynthesizer(llmProvider, cfg.Rag.SynthesisMaxTokens, log),
		publisher,
		m,
		log,
	)
}

// NewEmbeddingProvider picks the embedding backend named in the config.
func NewEmbeddingProvider(cfg config.AIConfig) (embedding.EmbeddingProvider, error) {
	switch cfg.EmbeddingProvider {
	case "ollama":
		return embedding.NewOllamaProvider(cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	case "gemini":
		if cfg.EmbeddingAPIKey == "" {
			return nil, fmt.Errorf("gemini embeddings require EMBEDDING_API_KEY")
		}
		return embedding.NewGeminiProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	case "openai":
		p, err := embedding.NewOpenAIProvider(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingBaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}
}

func (c *Container) newRedis(ctx context.Context, url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		c.Logger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		c.Logger.Warn("Bootstrap", "Redis unreachable, embedding cache stays local", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return nil
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })
	return rdb
}

func (c *Container) newStore(ctx context.Context, cfg *config.Config, embedder embedding.EmbeddingProvider) (store.DocumentStore, error) {
	if cfg.Rag.VectorStore != "pgvector" {
		return store.NewMemoryStore(embedder), nil
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	c.closers = append(c.closers, func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	pg := store.NewPgVectorStore(db, embedder)
	if err := pg.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate vector store: %w", err)
	}
	return pg, nil
}

// newEventBus returns a nil subscriber when events are disabled. A NATS
// outage degrades to no events rather than failing startup.
func (c *Container) newEventBus(cfg *config.Config, log logger.ILogger) (events.Publisher, events.Subscriber) {
	switch cfg.Events.Backend {
	case "nats":
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS Publisher, events disabled", map[string]interface{}{"error": err.Error()})
			return events.NopPublisher{}, nil
		}
		c.closers = append(c.closers, natsPub.Close)

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL, log)
		if err != nil {
			log.Warn("Bootstrap", "Failed to connect to NATS Subscriber", map[string]interface{}{"error": err.Error()})
			return natsPub, nil
		}
		c.closers = append(c.closers, natsSub.Close)
		return natsPub, natsSub

	case "gochannel":
		pubSub := gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		)
		c.closers = append(c.closers, func() { _ = pubSub.Close() })
		return events.NewGoChannelPublisher(pubSub), events.NewGoChannelSubscriber(pubSub)

	default:
		return events.NopPublisher{}, nil
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
	_ = c.Logger.Sync()
}
