package backend

import (
	"context"
	"errors"
	"fmt"

	"myfinance/internal/amqp"
	"myfinance/internal/config"
	"myfinance/internal/kv"
	"myfinance/internal/kv/bolt"
	kvmemory "myfinance/internal/kv/memory"
	"myfinance/internal/kv/sqlite"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
	"myfinance/internal/sheets"
	gsheet "myfinance/internal/sheets/google"
	sheetsmemory "myfinance/internal/sheets/memory"
	"myfinance/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger  *log.Logger
	metrics *metrics.Metrics
}

// NewFactory creates a new backend factory. m may be nil.
func NewFactory(logger *log.Logger, m *metrics.Metrics) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger:  logger.WithComponent(log.ComponentBackend),
		metrics: m,
	}
}

// CreateBackend opens the store named by config and builds a gateway on it.
// An unreachable broker only disables notifications.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	store, err := OpenStore(config)
	if err != nil {
		return nil, err
	}

	opts := []storage.Option{
		storage.WithLogger(f.logger),
		storage.WithMetrics(f.metrics),
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			opts = append(opts, storage.WithNotifier(amqpClient))
		}
	}

	f.logger.Info("Initialized storage backend",
		"type", config.Type.String(),
		"amqp_enabled", amqpClient != nil)

	result := &BackendResult{
		Gateway: storage.NewGateway(store, opts...),
		Store:   store,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}
	if amqpClient != nil {
		result.Notifier = amqpClient
	}
	return result, nil
}

// OpenStore opens the kv store for the configured backend type.
func OpenStore(config Config) (kv.Store, error) {
	switch config.Type {
	case MemoryBackend:
		return kvmemory.New(), nil
	case BoltBackend:
		s, err := bolt.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		return s, nil
	case SQLiteBackend:
		s, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

// NewExporter returns the Google Sheets exporter when a spreadsheet is
// configured, else an in-memory one that only keeps the last reports.
func NewExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.MonthExporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("GOOGLE_SPREADSHEET_ID not set, exports are kept in memory only")
		return sheetsmemory.New(), nil
	}
	client, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return client, nil
}
