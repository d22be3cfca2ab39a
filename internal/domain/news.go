package domain

import "time"

// NewsItem is a single entry extracted from a broadcast day page.
// Link is always absolute and never empty; duplicates within a day are
// possible and are kept as the site presents them.
type NewsItem struct {
	Index int
	Title string
	Link  string
}

// NewsRecord is the persisted form of a fully scraped news item.
type NewsRecord struct {
	ID         int64     `json:"id"`
	Date       string    `json:"date"`
	Title      string    `json:"title"`
	Link       string    `json:"link"`
	ItemNumber string    `json:"item_number"` // "k/n": position and total count for the day
	TotalItems int       `json:"total_items"`
	Content    string    `json:"content,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// DayState enumerates per-day pipeline milestones.
type DayState string

const (
	StatePending     DayState = "pending"
	StateListed      DayState = "listed"
	StateFetching    DayState = "fetching"
	StateDayComplete DayState = "day_complete"
	StateDayFailed   DayState = "day_failed"
)

// DayReport summarizes one day's pipeline run.
type DayReport struct {
	Date       string
	State      DayState
	Skipped    bool
	TotalItems int
	Succeeded  int
	Failed     int
}

// BatchReport accumulates day outcomes over an inclusive date range.
type BatchReport struct {
	Start      time.Time
	End        time.Time
	TotalDays  int
	Succeeded  int
	Failed     int
	FailedDays []string
}

// SuccessRate is the percentage of days that completed.
func (b BatchReport) SuccessRate() float64 {
	if b.TotalDays == 0 {
		return 0
	}
	return float64(b.Succeeded) / float64(b.TotalDays) * 100
}

// DateFormat is the calendar-date layout used across the store and APIs.
const DateFormat = "2006-01-02"
