/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the billable-hours planner server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load YAML configuration, apply command-line overrides
  2. Build the logger (optional rotating log file)
  3. Initialize SQLite store
  4. Create API handler and router
  5. Run HTTP server and goal rollover scheduler side by side

COMMAND-LINE FLAGS:
  --config     YAML configuration file (default: planner.yaml, optional)
  --port       HTTP server port (overrides server.port)
  --db         SQLite database path (overrides storage.path)
               Use ":memory:" for in-memory database
  --log-level  debug, info, warn, error (overrides log.level)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection and log file

EXAMPLES:
  ./server --config=./planner.yaml
  ./server --db=":memory:" --log-level=debug
  ./server --port=3000

SEE ALSO:
  - config/config.go: Configuration sections and defaults
  - api/server.go: Router configuration
  - api/scheduler.go: Goal rollover scheduler
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/billable-planner/api"
	"github.com/warp/billable-planner/config"
	"github.com/warp/billable-planner/logging"
	"github.com/warp/billable-planner/store/sqlite"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var (
		configPath string
		port       int
		dbPath     string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          "server",
		Short:        "Billable hours planner API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("db") {
				cfg.Storage.Path = dbPath
			}
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = strings.ToLower(logLevel)
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "planner.yaml", "YAML configuration file")
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().StringVar(&dbPath, "db", "planner.db", "SQLite database path")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	store, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	handler, err := api.NewHandler(store, cfg, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, cfg.Server.CORSOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	scheduler := api.NewGoalRolloverScheduler(store, logger)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Interval = cfg.Scheduler.Interval

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.Storage.Path, "holidays", cfg.Planner.HolidayRegion)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return scheduler.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
