package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expenses/internal/ai"
	"expenses/internal/cache"
	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	"expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/share"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	repo, closeStore, err := cli.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer closeStore()

	var publisher services.Publisher
	amqpClient, err := cli.OpenAMQP(cfg, logger)
	if err != nil {
		// change events are optional, the worker resyncs periodically
		logger.Warn("Continuing without change events", log.FieldError, err)
	} else if amqpClient != nil {
		publisher = amqpClient
	}

	svc := services.NewExpenseService(repo, publisher, logger)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("Failed to close expense service", log.FieldError, err)
		}
	}()

	cacheManager := cache.NewManager(logger)
	tipsCache := cache.NewLRUCache[string](64, cfg.TipsCacheTTL)
	cacheManager.Register(tipsCache)
	cacheManager.StartCleanup(cfg.TipsCacheTTL)
	defer cacheManager.Stop()

	advisor := ai.NewAdvisor(newProvider(ctx, cfg, logger), ai.AdvisorConfig{
		Timeout:   cfg.AITimeout,
		TipsCache: tipsCache,
		Logger:    logger,
	})

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:   svc,
		Advisor:   advisor,
		Sharer:    share.NewSharer(newShareTarget(cfg, logger), logger),
		Formatter: share.NewFormatter(cfg.ShareLocale, cfg.ShareCurrency),
		Logger:    logger,
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting expenses server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ai", cfg.AIEnabled(),
		"telegram", cfg.TelegramEnabled())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// newProvider returns nil when AI is not configured; the advisor then
// answers with its unavailable responses.
func newProvider(ctx context.Context, cfg *config.Config, logger *log.Logger) ai.Provider {
	if !cfg.AIEnabled() {
		logger.Info("AI features disabled - no GEMINI_API_KEY provided")
		return nil
	}
	provider, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("Failed to initialize Gemini provider, AI features disabled", log.FieldError, err)
		return nil
	}
	logger.Info("Gemini provider initialized", log.FieldModel, provider.Model())
	return provider
}

func newShareTarget(cfg *config.Config, logger *log.Logger) share.Target {
	if !cfg.TelegramEnabled() {
		return nil
	}
	target, err := share.NewTelegramTarget(cfg.TelegramToken, cfg.TelegramChatID)
	if err != nil {
		logger.Error("Failed to initialize Telegram share target", log.FieldError, err)
		return nil
	}
	return target
}
