package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishkalaria12/snap-swap/config"
	"github.com/krishkalaria12/snap-swap/database"
	"github.com/krishkalaria12/snap-swap/logging"
	"github.com/krishkalaria12/snap-swap/worker"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "snap-swap",
	Short: "Face-swap image generation API",
	Long: `snap-swap serves the upload, generation and result API.

Examples:
  snap-swap serve
  snap-swap migrate
  snap-swap worker`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Migrate the database and run the HTTP server with in-process workers",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables and exit",
	RunE:  runMigrate,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume jobs from the Redis queue (QUEUE_BACKEND=redis)",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, workerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadSettings() (*config.Settings, error) {
	settings, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(settings.LogLevel, settings.LogFormat)
	return settings, nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	db, err := database.Connect(settings.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		return errors.Wrap(err, "migrate database")
	}
	log.Info().Msg("Database migrated")
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := build(ctx, settings)
	if err != nil {
		return err
	}
	defer deps.close()

	if err := database.Migrate(deps.db); err != nil {
		return errors.Wrap(err, "migrate database")
	}

	// With a Redis queue this process also consumes; extra `worker`
	// processes can be added alongside it.
	consumed := make(chan struct{})
	if redisQueue, ok := deps.queue.(*worker.RedisQueue); ok {
		go func() {
			defer close(consumed)
			_ = redisQueue.Consume(ctx, deps.processor.Process)
		}()
	} else {
		close(consumed)
	}

	app := deps.app()
	listenErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", settings.Port).Msg("Server is listening")
		listenErr <- app.Listen(":" + settings.Port)
	}()

	select {
	case err := <-listenErr:
		if err != nil {
			return errors.Wrap(err, "listen")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if pool, ok := deps.queue.(*worker.Pool); ok {
		if err := pool.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Worker pool did not drain")
		}
	}
	stop()
	<-consumed
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.QueueBackend != config.BackendRedis {
		return errors.New("worker requires QUEUE_BACKEND=redis")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := build(ctx, settings)
	if err != nil {
		return err
	}
	defer deps.close()

	redisQueue, ok := deps.queue.(*worker.RedisQueue)
	if !ok {
		return errors.New("worker requires a Redis queue")
	}
	return redisQueue.Consume(ctx, deps.processor.Process)
}
