package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"lianbo/internal/domain"
	"lianbo/internal/extract"
	"lianbo/internal/ports"
)

// DetailExtractor produces the cleaned transcript body from a raw detail page.
type DetailExtractor interface {
	Extract(ctx context.Context, page string) (string, error)
}

// PipelineDeps wires the collaborators into the day orchestration.
type PipelineDeps struct {
	Fetcher   ports.Fetcher
	Store     ports.NewsStore
	Detail    DetailExtractor
	ItemDelay time.Duration
	Logger    *slog.Logger
}

// Pipeline drives one day's full scrape: fetch the day page, extract the item
// list, fetch and extract each detail page, persist. Item failures are logged
// and skipped; a failed day is re-runnable idempotently because upserts
// replace by link.
type Pipeline struct {
	fetcher   ports.Fetcher
	store     ports.NewsStore
	detail    DetailExtractor
	itemDelay time.Duration
	logger    *slog.Logger

	sleep func(time.Duration)
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		fetcher:   deps.Fetcher,
		store:     deps.Store,
		detail:    deps.Detail,
		itemDelay: deps.ItemDelay,
		logger:    deps.Logger,
		sleep:     time.Sleep,
	}
}

// ProcessDay runs the per-day state machine for date (YYYY-MM-DD). A day with
// any stored record is considered done and skipped; this is a coarse check
// that treats partial days as complete.
func (p *Pipeline) ProcessDay(ctx context.Context, date string) (domain.DayReport, error) {
	report := domain.DayReport{Date: date, State: domain.StatePending}

	has, err := p.store.HasDay(ctx, date)
	if err != nil {
		return report, fmt.Errorf("check existing day %s: %w", date, err)
	}
	if has {
		p.info("day already stored, skipping", "date", date)
		report.State = domain.StateDayComplete
		report.Skipped = true
		return report, nil
	}

	page, err := p.fetchDayPage(ctx, date)
	if err != nil {
		report.State = domain.StateDayFailed
		return report, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		report.State = domain.StateDayFailed
		return report, fmt.Errorf("parse day page %s: %w", date, err)
	}

	items := extract.ExtractList(doc, date)
	report.State = domain.StateListed
	report.TotalItems = len(items)
	p.info("day page listed", "date", date, "items", len(items))

	for _, item := range items {
		report.State = domain.StateFetching
		if p.processItem(ctx, date, item, len(items)) {
			report.Succeeded++
		} else {
			report.Failed++
		}
		// bounded request rate regardless of item outcome
		p.sleep(p.itemDelay)
	}

	report.State = domain.StateDayComplete
	p.info("day complete", "date", date, "succeeded", report.Succeeded, "failed", report.Failed)
	return report, nil
}

// fetchDayPage tries the known URL shapes in order until one yields a
// document.
func (p *Pipeline) fetchDayPage(ctx context.Context, date string) (string, error) {
	for _, dayURL := range extract.DayURLs(date) {
		p.debug("trying day url", "url", dayURL)
		page, err := p.fetcher.Fetch(ctx, dayURL)
		if err == nil && page != "" {
			return page, nil
		}
	}
	return "", fmt.Errorf("no day-page url shape worked for %s", date)
}

// processItem fetches, extracts, sanitizes, and persists one item. Failures
// are non-fatal to the day.
func (p *Pipeline) processItem(ctx context.Context, date string, item domain.NewsItem, total int) bool {
	p.info("processing item", "date", date, "index", item.Index, "total", total, "title", item.Title)

	page, err := p.fetcher.Fetch(ctx, item.Link)
	if err != nil {
		p.warn("item page unavailable", "link", item.Link, "error", err)
		return false
	}

	content, err := p.detail.Extract(ctx, page)
	if err != nil {
		p.warn("item content extraction failed", "link", item.Link, "error", err)
		return false
	}

	rec := domain.NewsRecord{
		Date:       date,
		Title:      item.Title,
		Link:       item.Link,
		ItemNumber: fmt.Sprintf("%d/%d", item.Index, total),
		TotalItems: total,
		Content:    extract.SanitizeContent(content),
	}

	if err := p.store.Upsert(ctx, rec); err != nil {
		p.warn("persist failed", "link", item.Link, "error", err)
		return false
	}

	return true
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) debug(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}
