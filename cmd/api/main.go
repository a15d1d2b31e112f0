package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pageza/alchemorsel-v2/gateway/config"
	"github.com/pageza/alchemorsel-v2/gateway/internal/database"
	"github.com/pageza/alchemorsel-v2/gateway/internal/llm"
	"github.com/pageza/alchemorsel-v2/gateway/internal/logger"
	"github.com/pageza/alchemorsel-v2/gateway/internal/middleware"
	"github.com/pageza/alchemorsel-v2/gateway/internal/server"
	"github.com/pageza/alchemorsel-v2/gateway/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Environment == config.Production)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := llm.NewClient(llm.Config{
		Provider:  llm.Provider(cfg.LLM.Provider),
		APIKey:    cfg.LLM.APIKey,
		BaseURL:   cfg.LLM.BaseURL,
		Model:     cfg.LLM.Model,
		MaxTokens: cfg.LLM.MaxTokens,
		Timeout:   cfg.LLM.Timeout,
	}, llm.WithLogger(log.Named("llm")))
	invoker := llm.NewInvoker(client,
		llm.WithRetries(cfg.LLM.Retries),
		llm.WithBackoffBase(cfg.LLM.BackoffBase),
		llm.WithInvokerLogger(log.Named("invoker")),
	)
	generator := llm.NewGenerator(invoker, llm.WithGeneratorLogger(log.Named("generator")))

	images := newImageGenerator(ctx, cfg, log)
	workflows := service.NewRouter(
		service.NewClassifier(invoker, log.Named("classifier")),
		service.NewRecipeService(generator, images, log.Named("recipes")),
		service.NewQAService(invoker),
		log.Named("router"),
	)

	db, err := database.Open(cfg.DatabaseURL, cfg.DBPath, log)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	deps := server.Dependencies{
		Workflows: workflows,
		Usage:     service.NewUsageService(db),
	}
	if cfg.JWTSecret != "" {
		deps.Tokens = service.NewTokenService(cfg.JWTSecret)
	}
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			deps.Limiter = middleware.NewGenerationRateLimiter(redisClient, cfg.RateLimitPerHour)
		}
	}

	srv := server.New(cfg, deps, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// newImageGenerator returns nil when image regeneration is not configured,
// in which case modified recipes keep their prior image.
func newImageGenerator(ctx context.Context, cfg *config.Config, log *zap.Logger) service.ImageGenerator {
	if cfg.Images.OpenAIAPIKey == "" {
		return nil
	}

	var store *service.ImageStore
	if cfg.Images.S3Bucket != "" {
		s3cfg, err := config.NewS3Config(ctx, cfg.Images)
		if err != nil {
			log.Warn("S3 unavailable, serving provider image URLs", zap.Error(err))
		} else {
			store = &service.ImageStore{Uploader: s3cfg.Client, Bucket: s3cfg.BucketName}
		}
	}

	images, err := service.NewImageService(cfg.Images.OpenAIAPIKey, cfg.Images.APIURL, store, log.Named("images"))
	if err != nil {
		log.Warn("image regeneration disabled", zap.Error(err))
		return nil
	}
	return images
}
