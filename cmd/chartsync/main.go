package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"chartsync/internal/amqp"
	appcli "chartsync/internal/cli"
	"chartsync/internal/config"
	applog "chartsync/internal/log"
	"chartsync/internal/services"
	"chartsync/internal/storage"
	"chartsync/internal/store"
	"chartsync/internal/store/memory"
	"chartsync/internal/worker"
)

func main() {
	appcli.LoadEnvFile()

	cmd := &cli.Command{
		Name:   "chartsync",
		Usage:  "Keep Mermaid charts in Notion pages up to date",
		Action: runCharts,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "charts",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML chart definitions file",
				Sources: cli.EnvVars("CHARTS_FILE"),
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print rendered charts instead of writing them",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Refresh charts once (all charts when no title is given)",
				ArgsUsage: "[title...]",
				Action:    runCharts,
			},
			{
				Name:   "watch",
				Usage:  "Refresh charts periodically and on refresh requests",
				Action: watchCharts,
			},
			{
				Name:      "trigger",
				Usage:     "Publish a refresh request (all charts when no title is given)",
				ArgsUsage: "[title]",
				Action:    triggerRefresh,
			},
			{
				Name:  "import",
				Usage: "Load the data sources of a seed file into the SQLite database",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "from",
						Usage:    "Path to the YAML seed file",
						Required: true,
					},
				},
				Action: importSeed,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger, both as the
// default and on the returned context.
func setup(ctx context.Context, cmd *cli.Command) (context.Context, *config.Config, *applog.Logger, error) {
	cfg, err := appcli.LoadConfig(cmd.String("charts"))
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := appcli.SetupLogger(cfg.LogLevel)
	return applog.WithLogger(ctx, logger), cfg, logger, nil
}

func newRunner(ctx context.Context, cmd *cli.Command, cfg *config.Config, logger *applog.Logger) (*services.Runner, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	res, err := appcli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", "error", err)
		}
	}

	blocks := res.Blocks
	if cmd.Bool("dry-run") {
		blocks = store.DryRun(blocks, os.Stdout)
		logger.Info("Dry run: charts are printed, not written")
	}

	updater := services.NewChartUpdater(blocks, res.Records, logger)
	return services.NewRunner(updater, cfg.Charts), cleanup, nil
}

func runCharts(ctx context.Context, cmd *cli.Command) error {
	ctx, cfg, logger, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	if titles := cmd.Args().Slice(); len(titles) > 0 {
		if err := cfg.Select(titles); err != nil {
			return err
		}
	}

	runner, cleanup, err := newRunner(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := appcli.GracefulShutdown(ctx, logger)
	defer cancel()

	start := time.Now()
	results, err := runner.RunAll(ctx)
	if err != nil {
		return fmt.Errorf("chart run failed after %d of %d charts: %w", len(results), len(cfg.Charts), err)
	}

	logger.Info("Charts updated",
		applog.FieldOperation, applog.OpRun,
		"charts", len(results),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

func watchCharts(ctx context.Context, cmd *cli.Command) error {
	ctx, cfg, logger, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	runner, cleanup, err := newRunner(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize AMQP client: %w", err)
		}
		defer client.Close()
		consumer = client
		logger.Info("Listening for refresh requests", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, refreshing on interval only")
	}

	ctx, cancel := appcli.GracefulShutdown(ctx, logger)
	defer cancel()

	var reloader *worker.Reloader
	if cfg.ChartsFile != "" {
		reloader = worker.NewReloader(cfg.ChartsFile, cfg.ReloadCharts, runner, logger)
	}

	w := worker.NewWatcher(runner, consumer, worker.Config{
		Interval: cfg.SyncInterval,
		Debounce: cfg.RefreshDebounce,
		Reloader: reloader,
	}, logger)

	logger.Info("Starting chart watcher",
		applog.FieldOperation, applog.OpStartup,
		"charts", len(cfg.Charts),
		"interval", cfg.SyncInterval.String(),
		"backend", cfg.DataBackend)

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	select {
	case err = <-errCh:
	case <-ctx.Done():
		select {
		case err = <-errCh:
			logger.Info("Shutdown complete")
		case <-time.After(30 * time.Second):
			logger.Warn("Shutdown timeout reached")
			return nil
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func triggerRefresh(ctx context.Context, cmd *cli.Command) error {
	ctx, cfg, logger, err := setup(ctx, cmd)
	if err != nil {
		return err
	}
	if cfg.AMQPURL == "" {
		return errors.New("AMQP_URL is required to publish refresh requests")
	}
	if cmd.Args().Len() > 1 {
		return errors.New("trigger takes at most one chart title")
	}
	title := cmd.Args().First()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize AMQP client: %w", err)
	}
	defer client.Close()

	if err := client.PublishRefresh(ctx, title); err != nil {
		return err
	}
	if title == "" {
		title = "all charts"
	}
	logger.Info("Refresh requested", "chart", title)
	return nil
}

func importSeed(ctx context.Context, cmd *cli.Command) error {
	ctx, cfg, logger, err := setup(ctx, cmd)
	if err != nil {
		return err
	}

	seed, err := memory.NewFromFile(cmd.String("from"))
	if err != nil {
		return err
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	defer repo.Close()

	stats, err := services.ImportDataSources(ctx, repo, seed.DataSources())
	if err != nil {
		return err
	}

	logger.Info("Seed imported",
		"db_path", cfg.SQLiteDBPath,
		"data_sources", stats.DataSources,
		"domains", stats.Domains,
		"records", stats.Records)
	return nil
}
