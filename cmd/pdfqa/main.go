package main

// @title           PDF Q&A API
// @version         1.0
// @description     Upload a PDF, then ask questions about it over a WebSocket. Answers are generated from the most similar passages of the latest upload.

// @contact.name   Custodia Labs
// @contact.url    https://github.com/custodia-labs/pdfqa/issues

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /
// @schemes   http https

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/custodia-labs/pdfqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/fsindex"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/memory"
	"github.com/custodia-labs/pdfqa/internal/adapters/driven/postgres"
	redisadapter "github.com/custodia-labs/pdfqa/internal/adapters/driven/redis"
	"github.com/custodia-labs/pdfqa/internal/adapters/driving/http"
	"github.com/custodia-labs/pdfqa/internal/config"
	"github.com/custodia-labs/pdfqa/internal/core/domain"
	"github.com/custodia-labs/pdfqa/internal/core/ports/driven"
	"github.com/custodia-labs/pdfqa/internal/core/services"
	"github.com/custodia-labs/pdfqa/internal/extractors"
	"github.com/custodia-labs/pdfqa/internal/postprocessors"
	"github.com/custodia-labs/pdfqa/internal/runtime"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	log.Printf("pdfqa %s starting", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := make(map[string]http.Pinger)

	// ===== Document store =====
	var documentStore driven.DocumentStore
	documentBackend := "memory"
	if cfg.DatabaseURL != "" {
		log.Println("Connecting to PostgreSQL...")
		db, err := postgres.Connect(ctx, postgres.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		log.Println("PostgreSQL connected and schema applied")

		documentStore = postgres.NewDocumentStore(db)
		documentBackend = "postgres"
	} else {
		log.Println("DATABASE_URL not set, documents are kept in memory")
		documentStore = memory.NewDocumentStore()
	}
	checks["database"] = documentStore

	// ===== Upload rate limiter =====
	var uploadLimiter driven.RateLimiter
	limiterBackend := "memory"
	if cfg.RedisURL != "" {
		log.Println("Connecting to Redis...")
		client, err := redisadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		log.Println("Redis connected")

		uploadLimiter = redisadapter.NewRateLimiter(client, "upload", cfg.UploadRateLimit, cfg.UploadRateWindow())
		limiterBackend = "redis"
		checks["redis"] = uploadLimiter
	} else {
		uploadLimiter = memory.NewRateLimiter(cfg.UploadRateLimit, cfg.UploadRateWindow())
	}

	// ===== Vector index =====
	// Every process starts without an index; a question before the first
	// upload is answered with the upload prompt. An old directory that cannot
	// be removed is renamed aside rather than blocking startup.
	index := fsindex.New(cfg.IndexDir, logger)
	if err := index.Reset(ctx); err != nil {
		log.Fatalf("Failed to create index directory %s: %v", cfg.IndexDir, err)
	}
	log.Printf("Index directory %s ready", index.Dir())

	// ===== AI services =====
	runtimeConfig := domain.NewRuntimeConfig(documentBackend, limiterBackend)
	aiServices := runtime.NewServices(runtimeConfig)
	checkCtx, checkCancel := context.WithTimeout(ctx, 10*time.Second)
	err = aiServices.Configure(checkCtx, ai.NewFactory(), cfg.EmbeddingSettings(), cfg.LLMSettings(), true, logger)
	checkCancel()
	if err != nil {
		log.Fatalf("Failed to configure AI services: %v", err)
	}
	defer aiServices.Close()

	// ===== Core services =====
	pipeline := postprocessors.NewChunkPipeline(postprocessors.ChunkConfig{
		ChunkSize:  cfg.Chunking.Size,
		Overlap:    cfg.Chunking.Overlap,
		Separators: postprocessors.DefaultSeparators,
	}, cfg.Chunking.Deduplicate)

	uploadService := services.NewUploadService(services.UploadServiceConfig{
		DocumentStore: documentStore,
		VectorIndex:   index,
		Services:      aiServices,
		Extractors:    extractors.DefaultRegistry(),
		Pipeline:      pipeline,
		MaxBytes:      cfg.MaxUploadBytes,
		Logger:        logger,
	})
	questionService := services.NewQuestionService(services.QuestionServiceConfig{
		VectorIndex: index,
		Services:    aiServices,
		Generator:   services.NewAnswerGenerator(cfg.LLM.Temperature),
		TopK:        cfg.RetrievalTopK,
		Logger:      logger,
	})
	documentService := services.NewDocumentService(documentStore)
	sessionManager := services.NewSessionManager(cfg.SessionMessageLimit, cfg.SessionWindow(), logger)

	// ===== HTTP server =====
	serverCfg := http.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		Version:            version,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		UploadTimeout:      cfg.UploadTimeout(),
		QueryTimeout:       cfg.QueryTimeout(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger,
	}
	server := http.NewServer(serverCfg, http.Dependencies{
		UploadService:   uploadService,
		QuestionService: questionService,
		DocumentService: documentService,
		SessionService:  sessionManager,
		UploadLimiter:   uploadLimiter,
		VectorIndex:     index,
		RuntimeConfig:   runtimeConfig,
		Checks:          checks,
	})

	log.Printf("Embedding: %s/%s, LLM: %s/%s, top-k %d",
		cfg.Embedding.Provider, cfg.Embedding.Model, cfg.LLM.Provider, cfg.LLM.Model, cfg.RetrievalTopK)
	log.Printf("API server starting on %s", cfg.Addr())
	if err := server.Start(); err != nil {
		log.Printf("Server error: %v", err)
		return
	}
	log.Println("Server stopped")
}

// newLogger builds the process logger from LOG_LEVEL and LOG_FORMAT
func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
