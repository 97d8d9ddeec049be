/*
Copyright © 2025 tieubaoca
*/
package cmd

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tieubaoca/contract-intel-be/config"
	"github.com/tieubaoca/contract-intel-be/database"
	"github.com/tieubaoca/contract-intel-be/handler"
	"github.com/tieubaoca/contract-intel-be/repository"
	"github.com/tieubaoca/contract-intel-be/service"
	"github.com/tieubaoca/contract-intel-be/types"
)

// startServerCmd represents the start command
var startServerCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the contract intelligence server",
	Long:  `Starts the HTTP server exposing ingestion, extraction, ask and audit endpoints`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, using environment as-is")
		}

		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}

		docs, extractions, findings, metrics := buildRepositories(cfg)
		index := buildVectorIndex(cfg)
		embedder := buildEmbedder(cfg)
		generator := buildGenerator(cfg)

		segmenter := service.NewSegmenterService(types.DocumentServiceConfig{
			MaxChunkSize: cfg.Pipeline.ChunkSize,
			OverlapSize:  cfg.Pipeline.ChunkOverlap,
		})
		ingestService := service.NewIngestService(
			service.NewPDFService(), docs, index, embedder, segmenter, metrics)
		extractService := service.NewExtractService(generator, cfg.Pipeline.ExtractionWindow)
		ragService := service.NewRAGService(
			embedder, index, generator, metrics, cfg.Pipeline.TopK, cfg.Pipeline.ContextBudget)
		auditService := service.NewAuditService(
			cfg.Pipeline.AutoRenewalNoticeDays, cfg.Pipeline.LiabilityCapThreshold)
		wsService := service.NewWebSocketService(ragService)

		// Initialize handlers
		corsHandler := handler.NewCorsHandler()
		ingestHandler := handler.NewIngestHandler(ingestService)
		extractHandler := handler.NewExtractHandler(extractService, docs, extractions, metrics)
		askHandler := handler.NewAskHandler(ragService)
		auditHandler := handler.NewAuditHandler(auditService, extractService, docs, extractions, findings, metrics)
		documentHandler := handler.NewDocumentHandler(ingestService, docs, extractions, findings)
		adminHandler := handler.NewAdminHandler(metrics)

		// Setup Gin router
		router := gin.Default()
		router.Use(corsHandler.CorsMiddleware)

		apiV1 := router.Group("/api/v1")
		{
			apiV1.POST("/ingest", ingestHandler.IngestDocumentsHandler)
			apiV1.POST("/extract", extractHandler.ExtractHandler)
			apiV1.POST("/ask", askHandler.AskHandler)
			apiV1.POST("/audit", auditHandler.AuditHandler)
			apiV1.GET("/documents/:id", documentHandler.GetDocumentHandler)
			apiV1.DELETE("/documents/:id", documentHandler.DeleteDocumentHandler)
		}

		router.GET("/ws/ask", func(c *gin.Context) {
			wsService.HandleAsk(c.Writer, c.Request)
		})
		router.GET("/healthz", adminHandler.HealthHandler)
		router.GET("/metrics", adminHandler.MetricsHandler)

		log.Printf("Starting server on port %s...\n", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Server error:", err)
		}
	},
}

// buildRepositories wires the MongoDB-backed stores, or the in-memory ones
// when no MongoDB URI is configured.
func buildRepositories(cfg *config.Config) (repository.DocumentRepo, repository.ExtractionRepo, repository.FindingRepo, repository.MetricsRepo) {
	if cfg.MongoURI == "" {
		log.Println("No MongoDB URI configured, using in-memory stores")
		return repository.NewMemoryDocumentRepo(),
			repository.NewMemoryExtractionRepo(),
			repository.NewMemoryFindingRepo(),
			repository.NewMemoryMetricsRepo()
	}

	mongoClient, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(context.Background(), nil); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	mongoDb := mongoClient.Database(cfg.MongoDatabase)

	return repository.NewDocumentRepo(mongoDb.Collection("documents")),
		repository.NewExtractionRepo(mongoDb.Collection("extractions")),
		repository.NewFindingRepo(mongoDb.Collection("findings")),
		repository.NewMetricsRepo(mongoDb.Collection("metrics"))
}

func buildVectorIndex(cfg *config.Config) database.VectorIndex {
	if cfg.VectorStore == "memory" {
		log.Println("Using in-memory vector index")
		return database.NewMemoryIndex(cfg.Pipeline.EmbeddingDimension)
	}
	index, err := database.NewWeaviateIndex(cfg.WeaviateStoreConfig, cfg.Pipeline.EmbeddingDimension)
	if err != nil {
		log.Fatalf("Failed to connect to Weaviate database: %v", err)
	}
	return index
}

// buildEmbedder always carries the local embedder; the remote one is added
// only when an API key is present, with automatic fallback on failure.
func buildEmbedder(cfg *config.Config) service.Embedder {
	local := service.NewLocalEmbedder(cfg.Pipeline.EmbeddingDimension)
	var remote service.Embedder
	if cfg.OpenAIAPIKey != "" {
		remote = service.NewOpenAIEmbedder(
			cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.Pipeline.EmbeddingDimension)
	}
	embedder, err := service.NewFallbackEmbedder(remote, local)
	if err != nil {
		log.Fatalf("Failed to build embedder: %v", err)
	}
	return embedder
}

func buildGenerator(cfg *config.Config) service.TextGenerator {
	switch cfg.Generator {
	case "openai":
		return service.NewOpenAIService(cfg.AIEndpoint, cfg.OpenAIAPIKey, cfg.Model)
	case "gemini":
		gemini, err := service.NewGeminiService(cfg.GeminiAPIKeys, cfg.Model)
		if err != nil {
			log.Fatalf("Failed to initialize Gemini service: %v", err)
		}
		return gemini
	default:
		log.Println("No generator configured, answering in deterministic fallback mode")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(startServerCmd)
	startServerCmd.Flags().StringP("config", "c", "config/config.yaml", "config file")
}
