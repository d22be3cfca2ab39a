package main

import (
	"flag"
	"os"

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
	if cfg.Backend.Debug {
		cfg.Logging.Level = "debug"
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.ServerLogFile)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if err := application.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
