package ports

import (
	"context"
	"time"

	"lianbo/internal/domain"
)

// Fetcher retrieves a page body. Implementations retry internally; a failed
// fetch surfaces as a single terminal error, never a panic or partial body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// NewsStore persists scraped records and answers the read paths the API needs.
type NewsStore interface {
	Upsert(ctx context.Context, rec domain.NewsRecord) error
	HasDay(ctx context.Context, date string) (bool, error)
	ListByDate(ctx context.Context, date string) ([]domain.NewsRecord, error)
	GetByID(ctx context.Context, id int64) (domain.NewsRecord, error)
}

// Scheduler controls when the pipeline executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
