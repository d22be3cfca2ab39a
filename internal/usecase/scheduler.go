package usecase

import (
	"context"
	"time"

	"lianbo/internal/domain"
	"lianbo/internal/ports"
)

// Watcher wires the interval driver with the day pipeline: every tick it
// re-crawls the current day. Runs serialize by virtue of the driver's single
// blocking loop.
type Watcher struct {
	driver   ports.Scheduler
	pipeline *Pipeline
}

// NewWatcher returns a helper to start/stop the recurring crawl.
func NewWatcher(driver ports.Scheduler, pipeline *Pipeline) *Watcher {
	return &Watcher{driver: driver, pipeline: pipeline}
}

// Start registers the today-crawl job with the driver.
func (w *Watcher) Start(ctx context.Context) error {
	if w.driver == nil || w.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		date := trigger.Format(domain.DateFormat)
		if _, err := w.pipeline.ProcessDay(ctx, date); err != nil {
			w.pipeline.warn("scheduled crawl failed", "date", date, "error", err)
		}
	}

	return w.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.driver == nil {
		return nil
	}
	return w.driver.Stop(ctx)
}
