package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/appetiteclub/till/cmd/utils/internal/commands"
	"github.com/appetiteclub/till/pkg/platform"
)

const (
	appName    = "till-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := platform.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := platform.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	command := os.Args[1]

	switch command {
	case "seed-demo":
		if err := commands.SeedDemo(ctx, config, logger); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		logger.Info("Demo seeding completed")

	case "clear-demo":
		if err := commands.ClearDemo(ctx, config, logger); err != nil {
			log.Fatalf("Clear demo markers failed: %v", err)
		}

	case "reset-db":
		if err := commands.ResetDB(ctx, config, logger); err != nil {
			log.Fatalf("Storage reset failed: %v", err)
		}
		logger.Info("Storage reset completed")

	case "summary":
		if err := commands.Summary(ctx, config, logger); err != nil {
			log.Fatalf("Summary failed: %v", err)
		}

	case "events":
		if err := commands.Events(ctx, config, logger); err != nil {
			log.Fatalf("Event replay failed: %v", err)
		}

	case "backup":
		if err := commands.Backup(ctx, config, logger); err != nil {
			log.Fatalf("Backup failed: %v", err)
		}

	case "restore":
		if err := commands.Restore(ctx, config, logger); err != nil {
			log.Fatalf("Restore failed: %v", err)
		}

	case "version":
		fmt.Printf("%s version %s\n", appName, appVersion)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`%s - till maintenance commands

Usage:
  %s <command> [options]

Commands:
  seed-demo    Ring up a demo day (opens a shift, places sample bills)
  clear-demo   Forget demo markers so seed-demo runs again
  reset-db     Delete every key in the configured storage (USE WITH CAUTION)
  summary      Print today's sales and open shift figures as JSON
  events       Replay recent ledger events from the NATS stream (--follow keeps listening)
  backup       Write every stored key to --file (default till-backup-<time>.json)
  restore      Replace all data with --file; needs --confirm, saves current data first
  version      Print version information
  help         Show this help message

Environment Variables:
  UTILS_STORAGE_DRIVER   memory, file, mongo or postgres (default: file)
  UTILS_STORAGE_FILE_DIR Directory for the file driver (default: ./data)
  UTILS_DB_MONGO_URL     MongoDB connection URL
  UTILS_DB_POSTGRES_URL  PostgreSQL connection URL
  UTILS_NATS_URL         NATS server for events
  UTILS_LOG_LEVEL        debug, info, warn, error (default: info)

Examples:
  %s seed-demo
  %s summary --storage.file.dir=/var/lib/till
  %s restore --file=till-backup-20240501-210000.json --confirm
  UTILS_STORAGE_DRIVER=mongo %s reset-db

`, appName, appName, appName, appName, appName, appName)
}
