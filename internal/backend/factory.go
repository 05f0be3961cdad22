package backend

import (
	"context"
	"fmt"
	"time"

	"ajo/internal/amqp"
	"ajo/internal/cache"
	"ajo/internal/log"
	"ajo/internal/services"
	gsheet "ajo/internal/sheets/google"
	"ajo/internal/sheets/memory"
	"ajo/internal/storage"
)

// cacheSweepInterval is how often expired in-process report entries are dropped.
const cacheSweepInterval = time.Minute

var _ Factory = (*DefaultFactory)(nil)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentApp)}
}

// CreateBackend builds every collaborator. Optional remote services that
// cannot be reached (AMQP, Redis) degrade to their in-process fallbacks;
// storage and an explicitly requested exporter are required.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{}
	steps := []func(context.Context, Config, *Backend) error{
		f.createRepository,
		f.createDispatcher,
		f.createCache,
		f.createExporter,
	}
	for _, step := range steps {
		if err := step(ctx, config, b); err != nil {
			_ = b.Close()
			return nil, err
		}
	}
	return b, nil
}

func (f *DefaultFactory) createRepository(_ context.Context, config Config, b *Backend) error {
	switch config.Storage {
	case SQLiteStorage:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		b.Repo = repo
		f.logger.Info("Initialized SQLite storage", "db_path", config.SQLiteDBPath)
	default:
		b.Repo = storage.NewMemoryRepository()
		f.logger.Info("Initialized memory storage")
	}
	b.pingers = append(b.pingers, b.Repo)
	b.addCleanup(b.Repo.Close)
	return nil
}

func (f *DefaultFactory) createDispatcher(_ context.Context, config Config, b *Backend) error {
	if config.AMQPURL == "" {
		b.Dispatcher = services.NewLogDispatcher(f.logger.Logger)
		f.logger.Info("Reminders will be logged only", "amqp_enabled", false)
		return nil
	}
	client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, reminders will be logged only", "error", err)
		b.Dispatcher = services.NewLogDispatcher(f.logger.Logger)
		return nil
	}
	b.Dispatcher = client
	b.addCleanup(client.Close)
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)
	return nil
}

func (f *DefaultFactory) createCache(ctx context.Context, config Config, b *Backend) error {
	if config.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, config.RedisAddr, config.CacheTTL)
		if err == nil {
			b.Cache = store
			b.pingers = append(b.pingers, store)
			b.addCleanup(store.Close)
			f.logger.Info("Initialized Redis report cache", "addr", config.RedisAddr, "ttl", config.CacheTTL)
			return nil
		}
		f.logger.Warn("Redis unavailable, using in-process report cache", "addr", config.RedisAddr, "error", err)
	}

	size := config.CacheSize
	if size <= 0 {
		size = cache.DefaultMaxSize
	}
	store := cache.NewMemoryStore(size, config.CacheTTL)
	manager := cache.NewManager()
	manager.Register(store)
	manager.StartCleanup(cacheSweepInterval)
	b.Cache = store
	b.addCleanup(func() error {
		manager.Stop()
		return nil
	})
	f.logger.Info("Initialized in-process report cache", "max_size", size, "ttl", config.CacheTTL)
	return nil
}

func (f *DefaultFactory) createExporter(ctx context.Context, config Config, b *Backend) error {
	switch config.Export {
	case SheetsExport:
		client, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize Google Sheets exporter: %w", err)
		}
		b.Exporter = client
		f.logger.Info("Initialized Google Sheets export", "spreadsheet_id", config.GoogleSpreadsheetID)
	case MemoryExport:
		b.Exporter = memory.New()
		f.logger.Info("Initialized memory export")
	default:
		f.logger.Info("Report export disabled")
	}
	return nil
}
