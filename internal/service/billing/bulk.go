package billing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
)

type bulkService struct {
	guardianRepo member.GuardianRepository
	invoiceSvc   billing.InvoiceService
	workers      int
}

func NewBulkService(guardianRepo member.GuardianRepository, invoiceSvc billing.InvoiceService, workers int) billing.BulkService {
	if workers < 1 {
		workers = 1
	}
	return &bulkService{guardianRepo: guardianRepo, invoiceSvc: invoiceSvc, workers: workers}
}

// Generate creates this period's invoice for every billable guardian of the
// club. Guardians run as independent work units on a bounded pool: one
// guardian's failure lands in that guardian's result entry and never aborts
// the batch. A guardian that already has a non-cancelled invoice for the
// period is reported as skipped, which makes re-running a partially failed
// batch safe.
func (s *bulkService) Generate(ctx context.Context, clubID, actor string, req billing.BulkGenerateRequest) (billing.BatchReport, error) {
	if err := req.Validate(); err != nil {
		return billing.BatchReport{}, err
	}

	guardians, err := s.guardianRepo.ListBillable(ctx, clubID)
	if err != nil {
		return billing.BatchReport{}, fmt.Errorf("list billable guardians: %w", err)
	}

	results := make([]billing.BatchResult, len(guardians))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	dispatched := len(guardians)
	for i, guardian := range guardians {
		// Stop dispatching once the operator aborts; in-flight units
		// run to completion on their own.
		if gctx.Err() != nil {
			dispatched = i
			break
		}

		i, guardian := i, guardian
		g.Go(func() error {
			res := s.generateOne(gctx, clubID, actor, guardian.ID, req)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return billing.BatchReport{}, err
	}

	// Guardians never dispatched still get an attributed entry so the
	// abort-path report accounts for every work unit.
	for i := dispatched; i < len(guardians); i++ {
		msg := fmt.Sprintf("not dispatched: %v", context.Cause(gctx))
		results[i] = billing.BatchResult{GuardianID: guardians[i].ID, Error: &msg}
	}

	report := billing.BatchReport{Total: len(guardians), Results: results}
	for _, res := range results {
		switch {
		case res.Success:
			report.Successful++
		case res.Skipped:
			report.Skipped++
		default:
			report.Failed++
		}
	}

	log.Printf("Bulk generation for club %s period %d/%d: %d ok, %d skipped, %d failed",
		clubID, req.Month, req.Year, report.Successful, report.Skipped, report.Failed)
	return report, nil
}

func (s *bulkService) generateOne(ctx context.Context, clubID, actor, guardianID string, req billing.BulkGenerateRequest) billing.BatchResult {
	res := billing.BatchResult{GuardianID: guardianID}

	createReq := billing.CreateInvoiceRequest{
		GuardianID: guardianID,
		Month:      req.Month,
		Year:       req.Year,
	}
	if req.DueDay != nil {
		due := billing.DueDateRule{Day: *req.DueDay}.
			Apply(billing.BillingPeriod{Month: req.Month, Year: req.Year}).
			Format("2006-01-02")
		createReq.DueDate = &due
	}

	inv, err := s.invoiceSvc.Create(ctx, clubID, actor, createReq)
	switch {
	case err == nil:
		res.Success = true
		res.InvoiceID = &inv.ID
	case errors.Is(err, billing.ErrDuplicatePeriod):
		res.Skipped = true
	default:
		msg := err.Error()
		res.Error = &msg
	}
	return res
}
