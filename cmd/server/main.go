package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/millscan/backend/config"
	httpDelivery "github.com/millscan/backend/internal/delivery/http"
	"github.com/millscan/backend/internal/domain"
	"github.com/millscan/backend/internal/infrastructure/cache"
	"github.com/millscan/backend/internal/infrastructure/jobstore"
	"github.com/millscan/backend/internal/infrastructure/llm"
	"github.com/millscan/backend/internal/infrastructure/whisperer"
	"github.com/millscan/backend/internal/monitoring"
	"github.com/millscan/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting MillScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Cache Type: %s", cfg.Cache.Type)

	// Initialize infrastructure dependencies
	answerCache := buildCache(cfg)
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	store, err := jobstore.NewFileStore(cfg.Storage.ProcessedDir)
	if err != nil {
		log.Fatalf("Failed to initialize job store: %v", err)
	}
	log.Printf("Job store directory: %s", cfg.Storage.ProcessedDir)

	ocrClient := whisperer.NewClient(whisperer.Config{
		APIKey:       cfg.Whisperer.APIKey,
		BaseURL:      cfg.Whisperer.BaseURL,
		PollInterval: cfg.Whisperer.PollInterval,
		WaitTimeout:  cfg.Whisperer.WaitTimeout,
	})
	llmClient := llm.NewClient(llm.Config{
		APIKey:               cfg.LLM.APIKey,
		BaseURL:              cfg.LLM.BaseURL,
		Model:                cfg.LLM.Model,
		MaxRetries:           cfg.LLM.MaxRetries,
		RetryDelay:           cfg.LLM.RetryDelay,
		MaxDocumentChars:     cfg.LLM.MaxDocumentChars,
		MaxSystemPromptChars: cfg.LLM.MaxSystemPromptChars,
		MaxUserPromptChars:   cfg.LLM.MaxUserPromptChars,
		RequestsPerMinute:    cfg.LLM.RequestsPerMinute,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		ocrClient.SetDebug(true)
		llmClient.SetDebug(true)
		log.Printf("Upstream client debug mode enabled")
	}

	log.Printf("LLMWhisperer API configured: %s", cfg.Whisperer.BaseURL)
	log.Printf("LLM API configured: %s (model: %s)", cfg.LLM.BaseURL, cfg.LLM.Model)

	metrics := monitoring.NewMetrics()

	// Initialize usecase layer
	extractionService := usecase.NewExtractionService(
		store,
		ocrClient,
		llmClient,
		metrics,
		usecase.ExtractionServiceConfig{
			Temperature: cfg.LLM.ExtractionTemperature,
		},
	)
	queryService := usecase.NewQueryService(
		store,
		llmClient,
		answerCache,
		metrics,
		usecase.QueryServiceConfig{
			CacheTTL:    cfg.Cache.TTL,
			Temperature: cfg.LLM.QueryTemperature,
		},
	)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(extractionService, queryService, store, cfg)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, metrics)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildCache selects the answer-cache backend from configuration
func buildCache(cfg *config.Config) domain.AnswerCache {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedis(cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("Failed to initialize Redis cache: %v", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisCache.Ping(ctx); err != nil {
			log.Fatalf("Failed to reach Redis: %v", err)
		}
		return redisCache
	}
	return cache.NewMemory(10 * time.Minute)
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
