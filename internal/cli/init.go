// Package cli holds the start-up steps shared by the finlens binaries.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finlens/internal/cache"
	"finlens/internal/classifier"
	"finlens/internal/config"
	"finlens/internal/core"
	"finlens/internal/log"
	"finlens/internal/ollama"
)

// SetupLogger builds the process logger at the given level and makes it the
// slog default.
func SetupLogger(level string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(level)
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// LoadModel reads the trained classifier. A missing artifact is fatal.
func LoadModel(logger *log.Logger, path string) *classifier.Model {
	model, err := classifier.Load(path)
	if err != nil {
		if errors.Is(err, classifier.ErrModelNotFound) {
			logger.Error("Classifier model not found, run finlens-train first", "path", path)
		} else {
			logger.Error("Failed to load classifier model", log.FieldError, err, "path", path)
		}
		os.Exit(1)
	}
	logger.Info("Classifier model loaded",
		"path", path,
		"categories", len(model.Categories()),
		"vocabulary", model.VocabularySize())
	return model
}

// BuildClassifier wires the model, the optional Ollama fallback and its answer
// cache. The returned manager sweeps the cache and must be stopped on shutdown.
func BuildClassifier(cfg *config.Config, model *classifier.Model, logger *log.Logger) (*classifier.Classifier, *cache.Manager) {
	manager := cache.NewManager(logger)
	opts := classifier.Options{Logger: logger}

	if cfg.UseOllama {
		answers := cache.NewLRUCache[core.Category](cfg.FallbackCacheSize, cfg.FallbackCacheTTL)
		manager.Register(answers)
		manager.StartCleanup(cfg.FallbackCacheTTL)

		opts.FallbackEnabled = true
		opts.Fallback = ollama.NewClient(ollama.Config{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.OllamaTimeout,
		})
		opts.Cache = answers
		logger.Info("Ollama fallback enabled",
			log.FieldModel, cfg.OllamaModel,
			"url", cfg.OllamaURL,
			"timeout", cfg.OllamaTimeout)
	}

	return classifier.New(model, opts), manager
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that is closed once cleanup has finished or timed out.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(ctx context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		cancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-finished:
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is done.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
