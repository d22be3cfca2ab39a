package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"lianbo/internal/app"
	"lianbo/internal/config"
	"lianbo/internal/domain"
	"lianbo/internal/logging"
)

func main() {
	date := flag.String("date", "", "date to crawl, format YYYY-MM-DD (required)")
	dbPath := flag.String("db", "", "SQLite database file path")
	cfgPath := flag.String("config", "", "YAML configuration file path")
	flag.Parse()

	if *date == "" {
		fmt.Fprintln(os.Stderr, "missing required flag: --date YYYY-MM-DD")
		flag.Usage()
		os.Exit(2)
	}
	if _, err := time.Parse(domain.DateFormat, *date); err != nil {
		fmt.Fprintf(os.Stderr, "invalid date %q: use YYYY-MM-DD\n", *date)
		os.Exit(2)
	}

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

	report, err := application.Pipeline().ProcessDay(context.Background(), *date)
	if err != nil {
		logger.Error("crawl failed", "date", *date, "error", err)
		os.Exit(1)
	}

	logger.Info("crawl finished",
		"date", report.Date,
		"state", report.State,
		"skipped", report.Skipped,
		"items", report.TotalItems,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
}
