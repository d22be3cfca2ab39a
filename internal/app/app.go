package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"lianbo/internal/api"
	"lianbo/internal/config"
	"lianbo/internal/extract"
	"lianbo/internal/fetch"
	"lianbo/internal/scheduler"
	"lianbo/internal/storage"
	"lianbo/internal/usecase"
)

// Application wires config to the store, fetcher, pipeline, and API server.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	store    *storage.SQLiteRepository
	pipeline *usecase.Pipeline
	server   *api.Server
}

// New opens the store and builds the full collaborator graph.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", cfg.Database.Path, err)
	}

	fetcher := fetch.New(nil, fetch.Options{
		MaxRetries: cfg.Spider.MaxRetries,
		Timeout:    cfg.Spider.RequestTimeoutDuration(),
	}, logger.With("component", "fetcher"))

	detail := extract.NewDetailExtractor(fetcher, logger.With("component", "detail"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:   fetcher,
		Store:     store,
		Detail:    detail,
		ItemDelay: cfg.Spider.RequestDelayDuration(),
		Logger:    logger.With("component", "pipeline"),
	})

	server := api.New(store, fetcher, detail, logger.With("component", "api"))

	return &Application{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		pipeline: pipeline,
		server:   server,
	}, nil
}

// Pipeline exposes the day orchestrator for the CLI binaries.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// ListenAndServe blocks serving the JSON API on the configured address.
func (a *Application) ListenAndServe() error {
	addr := net.JoinHostPort(a.cfg.Backend.Host, strconv.Itoa(a.cfg.Backend.Port))
	a.logger.Info("serving API", "addr", addr)
	return http.ListenAndServe(addr, a.server.Routes())
}

// Watch crawls today immediately and then on the configured interval,
// blocking until ctx is canceled.
func (a *Application) Watch(ctx context.Context) error {
	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	watcher := usecase.NewWatcher(driver, a.pipeline)

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	<-ctx.Done()
	return watcher.Stop(context.Background())
}

// Close releases the store.
func (a *Application) Close() error {
	return a.store.Close()
}
