package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"lianbo/internal/app"
	"lianbo/internal/config"
	"lianbo/internal/logging"
)

func main() {
	dbPath := flag.String("db", "", "SQLite database file path")
	cfgPath := flag.String("config", "", "YAML configuration file path")
	flag.Parse()

	cfg := config.Load(*cfgPath)
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.NewsLogFile)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("watch loop starting", "interval", cfg.Scheduler.Interval)

	if err := application.Watch(ctx); err != nil {
		logger.Error("watch loop stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("watch loop stopped")
}
