package backend

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/gemini"
	"fintrack/internal/log"
	gsheet "fintrack/internal/sheets/google"
	"fintrack/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. Only a store failure is
// fatal; unreachable integrations are logged and left disabled.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	res := &Result{Store: store}
	f.connectAMQP(ctx, config, res)
	f.connectSheets(ctx, config, res)
	if config.GeminiAPIKey != "" {
		res.Generator = gemini.NewClient(config.GeminiAPIKey, config.GeminiModel)
		f.logger.InfoContext(ctx, "Initialized Gemini client", "model", config.GeminiModel)
	}

	res.Cleanup = func() error {
		var errs []error
		if res.AMQP != nil {
			errs = append(errs, res.AMQP.Close())
		}
		errs = append(errs, store.Close())
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Backend ready",
		"type", config.Type,
		"amqp_enabled", res.AMQP != nil,
		"sheets_enabled", res.Exporter != nil,
		"gemini_enabled", res.Generator != nil)

	return res, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		repo, err := storage.NewPostgresRepository(ctx, config.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized PostgreSQL backend")
		return repo, nil
	case MemoryBackend:
		f.logger.InfoContext(ctx, "Initialized memory backend")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) connectAMQP(ctx context.Context, config Config, res *Result) {
	if config.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without expense events", "error", err)
		return
	}
	res.AMQP = client
	res.Publisher = client
	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
}

func (f *DefaultFactory) connectSheets(ctx context.Context, config Config, res *Result) {
	if config.GoogleSpreadsheetID == "" {
		return
	}
	client, err := gsheet.New(ctx, config.GoogleSpreadsheetID, config.GoogleSheetName)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize Google Sheets client, sheets export disabled", "error", err)
		return
	}
	res.Exporter = client
	f.logger.InfoContext(ctx, "Initialized Google Sheets export")
}
