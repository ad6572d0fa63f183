package fee

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
)

type feeResolver struct {
	childRepo member.ChildRepository
	feeRepo   billing.FeeConfigRepository
}

func NewFeeResolver(childRepo member.ChildRepository, feeRepo billing.FeeConfigRepository) billing.FeeResolver {
	return &feeResolver{childRepo: childRepo, feeRepo: feeRepo}
}

// Resolve computes the ordered billable lines for one child and period.
// The base level fee comes first, then base redefinitions, then discounts
// and scholarships, then temporary changes, then pending one-time items.
// Amounts are signed so every invoice stays auditable line by line.
func (r *feeResolver) Resolve(ctx context.Context, childID string, period billing.BillingPeriod) ([]billing.LineItem, error) {
	if !period.IsValid() {
		return nil, billing.ErrInvalidPeriod
	}

	child, err := r.childRepo.GetByID(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}

	// Inactive, suspended and trial children are never billed.
	if !child.IsBillable() {
		return []billing.LineItem{}, nil
	}

	lines := []billing.LineItem{{
		ChildID:     child.ID,
		Description: fmt.Sprintf("Monthly fee - %s", child.Level),
		Amount:      child.MonthlyFee,
	}}
	running := child.MonthlyFee

	adjustments, err := r.feeRepo.ListAdjustmentsByChild(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list fee adjustments: %w", err)
	}

	var baseChanges, reductions, temporary []billing.FeeAdjustment
	for _, a := range adjustments {
		if !a.WindowValid() {
			// Data error in the authoring system; exclude and keep going.
			log.Printf("fee adjustment %s for child %s has effective_to before effective_from, skipping", a.ID, childID)
			continue
		}
		if !a.AppliesTo(period) {
			continue
		}
		switch a.Type {
		case billing.AdjustmentPermanentChange, billing.AdjustmentScheduleChange:
			baseChanges = append(baseChanges, a)
		case billing.AdjustmentDiscount, billing.AdjustmentScholarship:
			reductions = append(reductions, a)
		case billing.AdjustmentTemporaryChange:
			temporary = append(temporary, a)
		}
	}

	for _, a := range baseChanges {
		lines = append(lines, billing.LineItem{ChildID: child.ID, Description: a.Description, Amount: a.Amount})
		running = running.Add(a.Amount)
	}

	// Discounts and scholarships subtract their magnitude, but the sum of
	// all reductions on one child is floored so the running amount never
	// goes below zero.
	for _, a := range reductions {
		reduction := a.Amount.Abs()
		if reduction.GreaterThan(running) {
			reduction = running
		}
		lines = append(lines, billing.LineItem{ChildID: child.ID, Description: a.Description, Amount: reduction.Neg()})
		running = running.Sub(reduction)
	}

	for _, a := range temporary {
		lines = append(lines, billing.LineItem{ChildID: child.ID, Description: a.Description, Amount: a.Amount})
		running = running.Add(a.Amount)
	}

	items, err := r.feeRepo.ListPendingOneTimeItems(ctx, childID, period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("list one-time items: %w", err)
	}
	for _, it := range items {
		id := it.ID
		lines = append(lines, billing.LineItem{
			ChildID:       child.ID,
			Description:   it.Description,
			Amount:        it.Amount,
			OneTimeItemID: &id,
		})
	}

	return lines, nil
}

// Total sums a resolved line list.
func Total(lines []billing.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
