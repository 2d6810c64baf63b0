package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/tourwise/persona-engine/cmd/mainconfig"
	"github.com/tourwise/persona-engine/internal/adaptation"
	"github.com/tourwise/persona-engine/internal/api/router"
	appconfig "github.com/tourwise/persona-engine/internal/config"
	"github.com/tourwise/persona-engine/internal/feedback"
	"github.com/tourwise/persona-engine/internal/http/handlers"
	"github.com/tourwise/persona-engine/internal/observability/metrics"
	"github.com/tourwise/persona-engine/internal/personality"
	"github.com/tourwise/persona-engine/internal/pipeline"
	"github.com/tourwise/persona-engine/internal/quality"
	"github.com/tourwise/persona-engine/internal/signals"
	"github.com/tourwise/persona-engine/internal/traits"
	"github.com/tourwise/persona-engine/pkg/logging"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting persona-engine API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	pipelineMetrics := metrics.NewPipelineMetrics(prometheus.DefaultRegisterer)

	generator, model := buildGenerator(context.Background(), cfg, logger)
	engine := adaptation.NewEngine(generator, adaptation.EngineConfig{
		Model:             model,
		GenerationTimeout: cfg.GenerationTimeout,
		MaxTokens:         int32(cfg.GenerationMaxTokens),
		CacheSize:         cfg.AdaptationCacheSize,
		CacheTTL:          cfg.AdaptationCacheTTL,
	}, logger, pipelineMetrics)

	store := buildResponseStore(cfg, logger)
	tracker := feedback.NewTracker(cfg.FeedbackCap, cfg.OutcomeCap, logger, pipelineMetrics)

	orchestrator := pipeline.New(
		signals.NewAggregator(logger),
		traits.NewEngine(logger),
		personality.NewResolver(logger),
		engine,
		quality.NewPipeline(
			quality.WithPassScore(cfg.QualityPassScore),
			quality.WithTargetScore(cfg.QualityTargetScore),
		),
		tracker,
		store,
		pipeline.Config{MinProfileConfidence: cfg.MinProfileConfidence},
		logger,
		pipelineMetrics,
	)

	r := router.New(&router.Config{
		Logger:             logger,
		Personalize:        handlers.NewPersonalizeHandler(orchestrator, logger),
		Feedback:           handlers.NewFeedbackHandler(tracker, logger),
		MetricsHandler:     promhttp.Handler(),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildGenerator wires the text-generation collaborators from configuration.
// Bedrock is the primary when configured; Gemini serves as the fallback, or
// as primary when Bedrock is absent. With neither configured the engine runs
// on the local rule rewriter alone.
func buildGenerator(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (adaptation.TextGenerator, string) {
	var bedrock adaptation.TextGenerator
	if cfg.BedrockModelID != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config, bedrock disabled", "error", err)
		} else {
			bedrock = adaptation.NewBedrockGenerator(bedrockruntime.NewFromConfig(awsCfg))
		}
	}

	var gemini adaptation.TextGenerator
	if cfg.GeminiAPIKey != "" {
		g, err := adaptation.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to init gemini client", "error", err)
		} else {
			gemini = g
		}
	}

	switch {
	case bedrock != nil && gemini != nil:
		return adaptation.NewFallbackGenerator(bedrock, gemini, logger.Logger), cfg.BedrockModelID
	case bedrock != nil:
		return bedrock, cfg.BedrockModelID
	case gemini != nil:
		return gemini, cfg.GeminiModelID
	default:
		logger.Warn("no text generator configured, using rule-based adaptation only")
		return nil, ""
	}
}

func buildResponseStore(cfg *appconfig.Config, logger *logging.Logger) pipeline.ResponseStore {
	if cfg.ResponseCacheBackend != "redis" {
		return pipeline.NewMemoryResponseStore(cfg.ResponseCacheSize, cfg.ResponseCacheTTL)
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	logger.Info("response cache backed by redis", "addr", cfg.RedisAddr)
	return pipeline.NewRedisResponseStore(redis.NewClient(opts), cfg.ResponseCacheTTL, nil)
}
