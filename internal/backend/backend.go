// Package backend builds the ledger store and broker client selected by configuration.
package backend

import (
	"context"
	"errors"
	"fmt"

	"finlens/internal/amqp"
	"finlens/internal/config"
	"finlens/internal/ledger"
	"finlens/internal/ledger/memory"
	"finlens/internal/log"
	"finlens/internal/storage"
)

// Type names a ledger backend.
type Type string

const (
	SQLite Type = "sqlite"
	Memory Type = "memory"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	return t == SQLite || t == Memory
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type         Type
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
	// RequireAMQP makes a broker connection failure fatal. The API server
	// runs without one; the worker cannot.
	RequireAMQP bool
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}
	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:         t,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// Result contains the store, the optional broker client and the cleanup for both.
type Result struct {
	Store ledger.Store
	AMQP  *amqp.Client
}

// Close releases the broker connection and the store.
func (r *Result) Close() error {
	var errs []error
	if r.AMQP != nil {
		if err := r.AMQP.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Factory creates backends based on configuration.
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create opens the store and, when configured, connects to the broker.
func (f *Factory) Create(ctx context.Context, cfg Config) (*Result, error) {
	var (
		store ledger.Store
		err   error
	)
	switch cfg.Type {
	case SQLite:
		if cfg.SQLiteDBPath == "" {
			return nil, errors.New("SQLite database path is required for sqlite backend")
		}
		store, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case Memory:
		store = memory.New()
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}

	res := &Result{Store: store}
	if cfg.AMQPURL == "" {
		if cfg.RequireAMQP {
			_ = store.Close()
			return nil, errors.New("AMQP URL is required")
		}
		return res, nil
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
	if err != nil {
		if cfg.RequireAMQP {
			_ = store.Close()
			return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, receipts will be stored directly",
			log.FieldError, err)
		return res, nil
	}
	res.AMQP = client
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return res, nil
}

var (
	_ ledger.Store = (*storage.SQLiteRepository)(nil)
	_ ledger.Store = (*memory.Store)(nil)
)
