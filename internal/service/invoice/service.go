package invoice

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
)

const paymentIntentDuration = 30 * 24 * time.Hour

type invoiceService struct {
	invoiceRepo  billing.InvoiceRepository
	guardianRepo member.GuardianRepository
	childRepo    member.ChildRepository
	clubRepo     club.Repository
	feeRepo      billing.FeeConfigRepository
	auditRepo    billing.AuditRepository
	resolver     billing.FeeResolver
	gateway      billing.Gateway
	txm          billing.TxManager
	dueRule      billing.DueDateRule
}

func NewInvoiceService(
	invoiceRepo billing.InvoiceRepository,
	guardianRepo member.GuardianRepository,
	childRepo member.ChildRepository,
	clubRepo club.Repository,
	feeRepo billing.FeeConfigRepository,
	auditRepo billing.AuditRepository,
	resolver billing.FeeResolver,
	gateway billing.Gateway,
	txm billing.TxManager,
	dueRule billing.DueDateRule,
) billing.InvoiceService {
	return &invoiceService{
		invoiceRepo:  invoiceRepo,
		guardianRepo: guardianRepo,
		childRepo:    childRepo,
		clubRepo:     clubRepo,
		feeRepo:      feeRepo,
		auditRepo:    auditRepo,
		resolver:     resolver,
		gateway:      gateway,
		txm:          txm,
		dueRule:      dueRule,
	}
}

// build assembles an unpersisted invoice for every active child of the
// guardian. The caller decides what a NoBillableChildren failure means.
func (s *invoiceService) build(ctx context.Context, clubID, guardianID string, period billing.BillingPeriod, dueDate time.Time) (billing.Invoice, []string, error) {
	children, err := s.childRepo.ListActiveByGuardian(ctx, guardianID)
	if err != nil {
		return billing.Invoice{}, nil, fmt.Errorf("list children: %w", err)
	}
	if len(children) == 0 {
		return billing.Invoice{}, nil, billing.ErrNoBillableChildren
	}

	tenant, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		return billing.Invoice{}, nil, fmt.Errorf("get club: %w", err)
	}

	var items []billing.InvoiceItem
	var oneTimeIDs []string
	subtotal := decimal.Zero
	for _, child := range children {
		lines, err := s.resolver.Resolve(ctx, child.ID, period)
		if err != nil {
			return billing.Invoice{}, nil, fmt.Errorf("resolve fees for child %s: %w", child.ID, err)
		}
		for _, line := range lines {
			items = append(items, billing.InvoiceItem{
				ChildID:     line.ChildID,
				Description: line.Description,
				Amount:      line.Amount,
				Position:    len(items),
			})
			subtotal = subtotal.Add(line.Amount)
			if line.OneTimeItemID != nil {
				oneTimeIDs = append(oneTimeIDs, *line.OneTimeItemID)
			}
		}
	}

	tax := subtotal.Mul(tenant.TaxRate).Round(2)
	inv := billing.Invoice{
		ClubID:     clubID,
		GuardianID: guardianID,
		Month:      period.Month,
		Year:       period.Year,
		Items:      items,
		Subtotal:   subtotal,
		Tax:        tax,
		Total:      subtotal.Add(tax),
		PaidAmount: decimal.Zero,
		Status:     billing.InvoiceStatusPending,
		DueDate:    dueDate,
	}
	return inv, oneTimeIDs, nil
}

func (s *invoiceService) Create(ctx context.Context, clubID, actor string, req billing.CreateInvoiceRequest) (billing.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return billing.InvoiceResponse{}, err
	}

	guardian, err := s.guardianRepo.GetByID(ctx, req.GuardianID)
	if err != nil {
		return billing.InvoiceResponse{}, err
	}
	if guardian.ClubID != clubID {
		return billing.InvoiceResponse{}, member.ErrGuardianNotFound
	}

	period := billing.BillingPeriod{Month: req.Month, Year: req.Year}

	// Guard clause; the partial unique index is the authoritative backstop
	// under concurrency.
	exists, err := s.invoiceRepo.ExistsForPeriod(ctx, clubID, req.GuardianID, req.Month, req.Year)
	if err != nil {
		return billing.InvoiceResponse{}, fmt.Errorf("check existing invoice: %w", err)
	}
	if exists {
		return billing.InvoiceResponse{}, billing.ErrDuplicatePeriod
	}

	dueDate := s.dueRule.Apply(period)
	if req.DueDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.DueDate)
		if err != nil {
			return billing.InvoiceResponse{}, fmt.Errorf("parse due date: %w", err)
		}
		dueDate = parsed
	}

	var created billing.Invoice
	err = s.txm.WithinTx(ctx, func(ctx context.Context) error {
		inv, oneTimeIDs, err := s.build(ctx, clubID, req.GuardianID, period, dueDate)
		if err != nil {
			return err
		}

		created, err = s.invoiceRepo.Create(ctx, inv)
		if err != nil {
			return err
		}

		// One-time items move pending -> billed in the same transaction so
		// they can never land on two invoices.
		if err := s.feeRepo.MarkOneTimeItemsBilled(ctx, oneTimeIDs); err != nil {
			return fmt.Errorf("mark one-time items billed: %w", err)
		}

		return s.auditRepo.Record(ctx, billing.AuditRecord{
			InvoiceID:  created.ID,
			Actor:      actor,
			NextStatus: billing.InvoiceStatusPending,
			Note:       "invoice created",
		})
	})
	if err != nil {
		return billing.InvoiceResponse{}, err
	}

	s.attachPaymentIntent(ctx, guardian, &created)

	return created.ToResponse(time.Now()), nil
}

// attachPaymentIntent asks the gateway to host the invoice. Failures are
// logged and left for a later retry; the invoice itself is already committed.
func (s *invoiceService) attachPaymentIntent(ctx context.Context, guardian member.Guardian, inv *billing.Invoice) {
	if s.gateway == nil || !inv.Total.IsPositive() {
		return
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, billing.PaymentIntentRequest{
		ExternalID:  inv.ID,
		Amount:      inv.Total,
		PayerEmail:  guardian.Email,
		Description: fmt.Sprintf("Invoice %d/%d for %s", inv.Month, inv.Year, guardian.FullName()),
		Duration:    paymentIntentDuration,
	})
	if err != nil {
		log.Printf("Warning: payment intent for invoice %s not created: %v", inv.ID, err)
		return
	}

	if err := s.invoiceRepo.SetGatewayIntent(ctx, inv.ID, intent.ID, intent.URL); err != nil {
		log.Printf("Warning: failed to store payment intent for invoice %s: %v", inv.ID, err)
		return
	}
	inv.GatewayIntentID = &intent.ID
	inv.GatewayIntentURL = &intent.URL
}

func (s *invoiceService) GetByID(ctx context.Context, clubID, invoiceID string) (billing.InvoiceResponse, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, clubID, invoiceID)
	if err != nil {
		return billing.InvoiceResponse{}, err
	}
	return inv.ToResponse(time.Now()), nil
}

func (s *invoiceService) List(ctx context.Context, clubID string, f billing.InvoiceFilter) ([]billing.InvoiceResponse, error) {
	invoices, err := s.invoiceRepo.List(ctx, clubID, f)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	responses := make([]billing.InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = invoices[i].ToResponse(now)
	}
	return responses, nil
}

func (s *invoiceService) Cancel(ctx context.Context, clubID, invoiceID, actor string) error {
	var intentID *string

	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.GetForUpdate(ctx, clubID, invoiceID)
		if err != nil {
			return err
		}

		eff := inv.EffectiveStatus(time.Now())
		if eff == billing.InvoiceStatusPaid || eff == billing.InvoiceStatusCancelled {
			return billing.ErrInvalidTransition
		}

		if err := s.invoiceRepo.UpdateStatus(ctx, inv.ID, billing.InvoiceStatusCancelled); err != nil {
			return err
		}
		intentID = inv.GatewayIntentID

		return s.auditRepo.Record(ctx, billing.AuditRecord{
			InvoiceID:  inv.ID,
			Actor:      actor,
			PrevStatus: eff,
			NextStatus: billing.InvoiceStatusCancelled,
			Note:       "invoice cancelled",
		})
	})
	if err != nil {
		return err
	}

	// Best effort. A dangling hosted invoice paid after cancellation still
	// reconciles safely because the reconciler rejects cancelled invoices.
	if s.gateway != nil && intentID != nil {
		if err := s.gateway.ExpirePaymentIntent(ctx, *intentID); err != nil {
			log.Printf("Warning: payment intent %s for invoice %s not expired: %v", *intentID, invoiceID, err)
		}
	}
	return nil
}

func (s *invoiceService) Delete(ctx context.Context, clubID, invoiceID, actor string) error {
	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.GetForUpdate(ctx, clubID, invoiceID)
		if err != nil {
			return err
		}

		if !inv.IsDeletable(time.Now()) {
			return billing.ErrInvoiceNotDeletable
		}

		if err := s.auditRepo.Record(ctx, billing.AuditRecord{
			InvoiceID:  inv.ID,
			Actor:      actor,
			PrevStatus: billing.InvoiceStatusPending,
			Note:       "invoice deleted",
		}); err != nil {
			return err
		}

		return s.invoiceRepo.Delete(ctx, inv.ID)
	})
}

func (s *invoiceService) MarkPaid(ctx context.Context, clubID, invoiceID, actor string) (billing.InvoiceResponse, error) {
	var updated billing.Invoice
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		inv, err := s.invoiceRepo.GetForUpdate(ctx, clubID, invoiceID)
		if err != nil {
			return err
		}

		if inv.Status == billing.InvoiceStatusCancelled {
			return billing.ErrInvalidTransition
		}
		if inv.Status == billing.InvoiceStatusPaid {
			updated = inv
			return nil
		}

		now := time.Now()
		if err := s.invoiceRepo.UpdatePayment(ctx, inv.ID, inv.Total, billing.InvoiceStatusPaid, &now); err != nil {
			return err
		}

		if err := s.auditRepo.Record(ctx, billing.AuditRecord{
			InvoiceID:  inv.ID,
			Actor:      actor,
			PrevStatus: inv.EffectiveStatus(now),
			NextStatus: billing.InvoiceStatusPaid,
			Note:       "marked paid by administrator",
		}); err != nil {
			return err
		}

		inv.PaidAmount = inv.Total
		inv.Status = billing.InvoiceStatusPaid
		inv.PaidAt = &now
		updated = inv
		return nil
	})
	if err != nil {
		return billing.InvoiceResponse{}, err
	}
	return updated.ToResponse(time.Now()), nil
}

func (s *invoiceService) Preview(ctx context.Context, clubID, childID string, period billing.BillingPeriod) (billing.FeePreviewResponse, error) {
	if !period.IsValid() {
		return billing.FeePreviewResponse{}, billing.ErrInvalidPeriod
	}

	child, err := s.childRepo.GetByID(ctx, childID)
	if err != nil {
		return billing.FeePreviewResponse{}, err
	}
	if child.ClubID != clubID {
		return billing.FeePreviewResponse{}, member.ErrChildNotFound
	}

	lines, err := s.resolver.Resolve(ctx, childID, period)
	if err != nil {
		return billing.FeePreviewResponse{}, err
	}

	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}

	return billing.FeePreviewResponse{
		ChildID: childID,
		Month:   period.Month,
		Year:    period.Year,
		Lines:   lines,
		Total:   total,
	}, nil
}
