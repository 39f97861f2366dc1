package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/coldchain/config"
	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/service"

	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker",
	Long: `Runs the background worker that watches for sensors that have
stopped reporting and records them in the audit trail.

The worker shares the database with the API server and can run alongside
any number of server instances.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWorker()
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

// runWorker starts the watchdog and blocks until signalled
func runWorker() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Info("Connecting to database...")
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	watchdog, err := service.NewWatchdog(service.WatchdogConfig{
		Repositories:    repository.NewRepositories(db),
		Logger:          log,
		Interval:        cfg.Watchdog.Interval,
		SilentThreshold: cfg.Watchdog.SilentThreshold,
	})
	if err != nil {
		log.Fatalf("Failed to initialize watchdog: %v", err)
	}

	if err := watchdog.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start watchdog: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Infof("Received signal %s, stopping worker...", sig.String())

	if err := watchdog.Stop(); err != nil {
		log.Warnf("Watchdog shutdown error: %v", err)
	}
	log.Info("Worker stopped")
}
