package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
)

const autoGenerateInterval = 12 * time.Hour

// RegisterBillingJobs wires the monthly auto-generation sweep. The job runs
// on an interval and generates the current period's invoices for every club
// at the start of each month; duplicate-period skipping makes repeated runs
// within the month harmless.
func RegisterBillingJobs(s *Scheduler, clubs club.Repository, bulk billing.BulkService) {
	s.AddJob("billing-auto-generate", autoGenerateInterval, func(ctx context.Context) error {
		now := time.Now()
		if now.Day() != 1 {
			return nil
		}
		return generateForAllClubs(ctx, clubs, bulk, now)
	})
}

func generateForAllClubs(ctx context.Context, clubs club.Repository, bulk billing.BulkService, now time.Time) error {
	list, err := clubs.List(ctx)
	if err != nil {
		return fmt.Errorf("list clubs: %w", err)
	}

	req := billing.BulkGenerateRequest{Month: int(now.Month()), Year: now.Year()}
	var failed int
	for _, c := range list {
		report, err := bulk.Generate(ctx, c.ID, "system:auto-generate", req)
		if err != nil {
			slog.Error("Auto-generation failed for club", "club", c.Slug, "error", err)
			failed++
			continue
		}
		slog.Info("Auto-generation finished",
			"club", c.Slug, "month", req.Month, "year", req.Year,
			"successful", report.Successful, "skipped", report.Skipped, "failed", report.Failed)
	}
	if failed > 0 {
		return fmt.Errorf("auto-generation failed for %d of %d clubs", failed, len(list))
	}
	return nil
}
