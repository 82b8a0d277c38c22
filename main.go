package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/monoko6666/mercari-ebay/config"
	"github.com/monoko6666/mercari-ebay/helpers"
	"github.com/monoko6666/mercari-ebay/internal/api"
	"github.com/monoko6666/mercari-ebay/internal/listing"
	"github.com/monoko6666/mercari-ebay/internal/scraper"
	"github.com/monoko6666/mercari-ebay/internal/translator"
	"github.com/monoko6666/mercari-ebay/logger"
	"github.com/monoko6666/mercari-ebay/metrics"
	"github.com/monoko6666/mercari-ebay/services/cache"
	"github.com/monoko6666/mercari-ebay/services/publisher"
	"github.com/monoko6666/mercari-ebay/services/store"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("addr", cfg.HTTPAddr).
		Str("store", cfg.StoreDriver).
		Msg("Starting application")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize services
	services, err := initializeServices(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newHandler(cfg, services),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverDone := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		serverDone <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-sigChan:
		log.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
	case err := <-serverDone:
		if err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server exited with error")
		}
	}

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}

// Services holds all the initialized services
type Services struct {
	Metrics    *metrics.Metrics
	Products   store.ProductStore
	Settings   store.SettingsStore
	Publisher  publisher.Publisher
	Fetcher    scraper.Fetcher
	Translator translator.Translator

	closers []func() error
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			logger.Warn("Cleanup failed: %v", err)
		}
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	services := &Services{Metrics: metrics.New()}

	// Initialize stores
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pg, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
		services.closers = append(services.closers, pg.Close)
		services.Products = pg
		services.Settings = pg
		logger.Info("Connected to Postgres")
	default:
		memory := store.NewMemoryStore()
		services.Products = memory
		services.Settings = memory
		logger.Warn("Using in-memory store, products are lost on restart")
	}

	// Initialize settings cache
	if cfg.MemcacheAddr != "" {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.Warn("Memcache at %s is unreachable, settings are read from the store: %v", cfg.MemcacheAddr, err)
		} else {
			services.Settings = cache.NewSettingsStore(services.Settings, mc, cfg.SettingsCacheTTL)
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	// Initialize publisher
	services.Publisher = publisher.Noop{}
	if cfg.RedisAddr != "" {
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		services.closers = append(services.closers, redisPublisher.Close)
		services.Publisher = redisPublisher

		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	// Initialize fetcher and translator
	services.Fetcher = scraper.NewPageFetcher(
		&http.Client{Timeout: cfg.FetchTimeout},
		scraper.NewRodRenderer(cfg.BrowserBin, helpers.RandomUserAgent()),
		cfg.RenderSettle,
		cfg.RenderTimeout,
		services.Metrics,
	)
	services.Translator = translator.NewChatTranslator(translator.Config{
		APIKey:      cfg.OpenAIAPIKey,
		BaseURL:     cfg.OpenAIBaseURL,
		Model:       cfg.OpenAIModel,
		MaxTokens:   cfg.OpenAIMaxTokens,
		Temperature: cfg.OpenAITemperature,
		Timeout:     cfg.TranslationTimeout,
	}, nil, services.Metrics)
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, generated titles will be empty")
	}

	return services, nil
}

// newHandler builds the HTTP handler over the initialized services
func newHandler(cfg *config.Config, services *Services) http.Handler {
	svc := listing.NewService(listing.Dependencies{
		Fetcher:    services.Fetcher,
		Extractor:  scraper.NewExtractor(cfg.MediaHost),
		Translator: services.Translator,
		Products:   services.Products,
		Settings:   services.Settings,
		Publisher:  services.Publisher,
		Metrics:    services.Metrics,
	})
	return api.NewRouter(api.NewHandler(svc, services.Metrics), cfg.CORSOrigin)
}
