package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"github.com/lenscart/backend/config"
	httpDelivery "github.com/lenscart/backend/internal/delivery/http"
	"github.com/lenscart/backend/internal/infrastructure/cache"
	"github.com/lenscart/backend/internal/infrastructure/catalog"
	"github.com/lenscart/backend/internal/infrastructure/gemini"
	"github.com/lenscart/backend/internal/infrastructure/images"
	"github.com/lenscart/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting lenscart backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port))

	// Catalog store
	db, err := catalog.Open(
		cfg.Database.DSN,
		cfg.Database.MaxOpenConns,
		cfg.Database.MaxIdleConns,
		cfg.Database.ConnMaxLifetime,
	)
	if err != nil {
		logger.Fatal("failed to open catalog database", zap.Error(err))
	}
	defer db.Close()

	store := catalog.NewStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		logger.Fatal("failed to ensure catalog schema", zap.Error(err))
	}

	// Vision client
	visionClient := gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)
	if cfg.Server.Environment == "development" {
		visionClient.SetDebug(true)
		logger.Info("gemini client debug mode enabled")
	}
	logger.Info("gemini client configured",
		zap.String("base_url", cfg.Gemini.BaseURL),
		zap.String("model", cfg.Gemini.Model))

	// Image pipeline and identification cache
	processor := images.NewProcessor(cfg.Upload.MaxSizeBytes, cfg.Upload.MaxDimension)
	identCache := cache.NewIdentificationCache()
	defer identCache.Stop()

	// Usecase layer
	searchService := usecase.NewSearchService(store, logger, usecase.SearchConfig{
		DefaultLimit: cfg.Search.DefaultLimit,
	})
	analyzeService := usecase.NewAnalyzeService(visionClient, processor, identCache, searchService, logger, usecase.AnalyzeConfig{
		CacheTTL:     cfg.Cache.TTL,
		MaxFetchSize: cfg.Upload.MaxSizeBytes,
	})

	// HTTP delivery
	handler := httpDelivery.NewHandler(analyzeService, searchService, cfg.Upload.MaxSizeBytes)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
