package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/sources/google"
	"finboard/internal/sources/memory"
	"finboard/internal/storage"

	goption "google.golang.org/api/option"
)

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements Factory.
type DefaultFactory struct {
	logger *slog.Logger
	// sheetsOptions are appended when building the Sheets service.
	sheetsOptions []goption.ClientOption
}

func NewFactory(logger *slog.Logger, sheetsOptions ...goption.ClientOption) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger, sheetsOptions: sheetsOptions}
}

// CreateBackend builds the ledger, the feed readers and the optional event
// client. On error everything created so far is released.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (_ *Result, err error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	res := &Result{Checks: make(map[string]Check)}
	defer func() {
		if err != nil {
			_ = res.Close()
		}
	}()

	seeded, err := f.seedStore(config.SeedDir)
	if err != nil {
		return nil, err
	}

	// Feeds.
	if config.Type == SheetsBackend {
		svc, err := google.NewService(ctx, config.GoogleCredentials, f.sheetsOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		client := google.New(svc, config.GoogleSpreadsheetID, config.GoogleSheets, f.logger)
		res.Aggregate, res.Channels, res.Roster = client, client, client
		f.logger.Info("Initialized Google Sheets feed", "spreadsheet_id", config.GoogleSpreadsheetID)
	} else {
		res.Aggregate, res.Channels, res.Roster = seeded, seeded, seeded
	}

	// Ledger.
	if config.Type.PersistentLedger() {
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.cleanup = append(res.cleanup, repo.Close)
		res.Ledger = repo
		res.Checks["ledger"] = repo.Ping
		f.logger.Info("Initialized SQLite ledger", "db_path", config.SQLiteDBPath)
	} else {
		res.Ledger = seeded
		f.logger.Info("Initialized memory ledger", "seed_dir", config.SeedDir)
	}

	// Events are optional; a broker that is down must not stop the service.
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without ledger events", "error", err)
		} else {
			res.Events = client
			res.cleanup = append(res.cleanup, client.Close)
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange, "queue", config.AMQPQueue)
		}
	}
	return res, nil
}

func (f *DefaultFactory) seedStore(dir string) (*memory.Store, error) {
	if dir == "" {
		return memory.New(), nil
	}
	store, err := memory.NewFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed data from %s: %w", dir, err)
	}
	return store, nil
}
