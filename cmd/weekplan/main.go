package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/knightqmd/scheduler-app/internal/cli"
	"github.com/knightqmd/scheduler-app/internal/config"
	"github.com/knightqmd/scheduler-app/internal/db"
	"github.com/knightqmd/scheduler-app/internal/intelligence"
	"github.com/knightqmd/scheduler-app/internal/llm"
	"github.com/knightqmd/scheduler-app/internal/repository"
	"github.com/knightqmd/scheduler-app/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Wire: wire,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
	defer func() {
		if app.Logger != nil {
			_ = app.Logger.Sync()
		}
	}()
	defer app.Close()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// wire opens the configured stores and builds the planning service.
func wire(ctx context.Context, cfg *config.Config, logger *zap.Logger) (service.PlanService, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	// The audit log lives in SQLite whichever backend holds the week.
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	closers = append(closers, database.Close)
	runs := repository.NewSQLitePlanRunRepo(database)

	var store repository.ScheduleStore
	switch cfg.Store.Backend {
	case config.BackendRedis:
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Store.RedisAddr},
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		closers = append(closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Store.RedisAddr, err)
		}
		store = repository.NewRedisScheduleStore(rdb, cfg.Store.RedisPrefix, cfg.Owner)
	default:
		store = repository.NewSQLiteScheduleStore(db.NewSQLiteUnitOfWork(database), cfg.Owner)
	}

	var observer llm.Observer = llm.NoopObserver{}
	if cfg.LLM.LogCalls || cfg.Debug {
		observer = llm.NewLogObserver(logger)
	}
	client, err := llm.NewClient(ctx, cfg.LLM, observer, logger)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	if c, ok := client.(io.Closer); ok {
		closers = append(closers, c.Close)
	}
	if cfg.Debug && !client.Available(ctx) {
		logger.Warn("model backend not reachable",
			zap.String("provider", string(cfg.LLM.Provider)),
			zap.String("endpoint", cfg.LLM.Endpoint))
	}

	plans := service.NewPlanService(store, runs, intelligence.NewPlanDraftService(client),
		service.PlanServiceConfig{
			Parse:  intelligence.ParseOptions{Extraction: cfg.Extraction},
			Logger: logger,
		},
		service.NewLogUseCaseObserver(logger),
	)
	return plans, closeAll, nil
}
