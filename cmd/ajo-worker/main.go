package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"

	"ajo/internal/amqp"
	"ajo/internal/cli"
	"ajo/internal/config"
	"ajo/internal/log"
	"ajo/internal/storage"
	"ajo/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoad(log.ComponentWorker)
	if err := run(cfg, logger); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting ajo-worker", "concurrency", cfg.WorkerConcurrency)
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required for the reminder worker")
	}

	// Contacts are only resolvable from shared storage; a memory repository
	// would always be empty in this process.
	var repo storage.Repository
	if cfg.DataBackend == "sqlite" {
		sqliteRepo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return fmt.Errorf("initialize SQLite repository at %s: %w", cfg.SQLiteDBPath, err)
		}
		defer sqliteRepo.Close()
		repo = sqliteRepo
	} else {
		logger.Info("No shared storage configured, reminders will carry member IDs only")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return fmt.Errorf("initialize AMQP client: %w", err)
	}
	defer amqpClient.Close()

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	w := worker.NewReminderWorker(repo, worker.NewLogNotifier(logger.Logger))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeReminders(gctx, cfg.WorkerConcurrency, w.HandleReminderMessage)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("message consumption: %w", err)
	}
	return nil
}
