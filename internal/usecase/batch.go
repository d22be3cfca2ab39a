package usecase

import (
	"context"
	"fmt"
	"time"

	"lianbo/internal/domain"
)

// ProcessRange runs the day pipeline once per calendar day over the inclusive
// [start, end] range. Failed days are counted and reported, never retried
// within the same run; a later re-run picks them up because stored days are
// skipped and stored links are replaced.
func (p *Pipeline) ProcessRange(ctx context.Context, start, end time.Time) (domain.BatchReport, error) {
	report := domain.BatchReport{Start: start, End: end}

	if start.After(end) {
		return report, fmt.Errorf("start date %s is after end date %s",
			start.Format(domain.DateFormat), end.Format(domain.DateFormat))
	}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		date := day.Format(domain.DateFormat)
		report.TotalDays++

		if _, err := p.ProcessDay(ctx, date); err != nil {
			p.warn("day failed", "date", date, "error", err)
			report.Failed++
			report.FailedDays = append(report.FailedDays, date)
			continue
		}
		report.Succeeded++
	}

	p.info("batch complete",
		"total_days", report.TotalDays,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"success_rate", fmt.Sprintf("%.2f%%", report.SuccessRate()),
	)
	return report, nil
}
