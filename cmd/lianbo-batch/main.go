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
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (default: batch.default_start_date)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (default: yesterday)")
	dbPath := flag.String("db", "", "SQLite database file path")
	cfgPath := flag.String("config", "", "YAML configuration file path")
	flag.Parse()

	cfg := config.Load(*cfgPath)
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.BatchLogFile)

	startStr := *startFlag
	if startStr == "" {
		startStr = cfg.Batch.DefaultStartDate
	}
	endStr := *endFlag
	if endStr == "" {
		endStr = time.Now().AddDate(0, 0, -1).Format(domain.DateFormat)
	}

	start, err := time.Parse(domain.DateFormat, startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid start date %q: use YYYY-MM-DD\n", startStr)
		os.Exit(2)
	}
	end, err := time.Parse(domain.DateFormat, endStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid end date %q: use YYYY-MM-DD\n", endStr)
		os.Exit(2)
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	logger.Info("batch run starting", "start", startStr, "end", endStr)

	report, err := application.Pipeline().ProcessRange(context.Background(), start, end)
	if err != nil {
		logger.Error("batch run failed", "error", err)
		os.Exit(1)
	}

	logger.Info("batch run finished",
		"total_days", report.TotalDays,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"failed_days", report.FailedDays,
		"success_rate", fmt.Sprintf("%.2f%%", report.SuccessRate()),
	)
}
