package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"finlens/internal/backend"
	"finlens/internal/budget"
	"finlens/internal/cli"
	apphttp "finlens/internal/http"
	"finlens/internal/log"
	"finlens/internal/ocr"
	"finlens/internal/receipt"
	"finlens/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	model := cli.LoadModel(logger, cfg.ModelPath)
	classifier, cacheManager := cli.BuildClassifier(cfg, model, logger)
	processor := receipt.NewProcessor(classifier, receipt.Config{
		MaxBytes: cfg.MaxReceiptBytes,
		Workers:  cfg.ClassifyWorkers,
	}, logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).Create(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	deps := apphttp.Deps{
		Expenses:           services.NewExpenseService(res.Store, logger),
		Alerts:             budget.NewEvaluator(res.Store, res.Store, logger),
		OCR:                ocr.NewTesseract(cfg.OCRLanguages, logger),
		Store:              res.Store,
		MaxReceiptBytes:    cfg.MaxReceiptBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}
	// A nil *amqp.Client must not end up inside the interfaces.
	if res.AMQP != nil {
		deps.Receipts = services.NewReceiptService(processor, res.AMQP, res.Store, logger)
		deps.Broker = res.AMQP
	} else {
		deps.Receipts = services.NewReceiptService(processor, nil, res.Store, logger)
	}

	srv := apphttp.NewServer(":"+cfg.Port, deps, logger)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cacheManager.Stop()
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	logger.Info("Starting finlens server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"ollama", classifier.FallbackEnabled(),
		"amqp", res.AMQP != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
