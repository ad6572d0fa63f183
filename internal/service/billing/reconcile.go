package billing

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
)

type reconcileService struct {
	invoiceRepo billing.InvoiceRepository
	paymentRepo billing.PaymentRepository
	auditRepo   billing.AuditRepository
	creditSvc   credit.Service
	txm         billing.TxManager
}

func NewReconcileService(
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	auditRepo billing.AuditRepository,
	creditSvc credit.Service,
	txm billing.TxManager,
) billing.ReconcileService {
	return &reconcileService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		auditRepo:   auditRepo,
		creditSvc:   creditSvc,
		txm:         txm,
	}
}

// ProcessPayment applies one confirmed gateway payment to its invoice. The
// invoice row is locked for the whole unit so two deliveries of the same
// payment, or two different payments racing on one invoice, serialize. Any
// amount beyond the outstanding balance becomes a credit deposit for the
// guardian in the same transaction.
func (s *reconcileService) ProcessPayment(ctx context.Context, clubID string, ev billing.PaymentEvent) (billing.InvoiceResponse, error) {
	if err := ev.Validate(); err != nil {
		return billing.InvoiceResponse{}, err
	}

	var updated billing.Invoice
	err := s.txm.WithinTx(ctx, func(ctx context.Context) error {
		// Duplicate webhook delivery guard.
		seen, err := s.paymentRepo.ExistsByExternalRef(ctx, clubID, ev.ExternalRef)
		if err != nil {
			return fmt.Errorf("check external reference: %w", err)
		}
		if seen {
			return billing.ErrPaymentAlreadyProcessed
		}

		inv, err := s.invoiceRepo.GetForUpdate(ctx, clubID, ev.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == billing.InvoiceStatusCancelled {
			return billing.ErrInvalidTransition
		}

		now := time.Now()
		prev := inv.EffectiveStatus(now)

		due := inv.Outstanding()
		applied := ev.Amount
		if applied.GreaterThan(due) {
			applied = due
		}

		if _, err := s.paymentRepo.Create(ctx, billing.Payment{
			ClubID:      clubID,
			InvoiceID:   inv.ID,
			Amount:      ev.Amount,
			Method:      ev.Method,
			Status:      billing.PaymentStatusCompleted,
			ExternalRef: ev.ExternalRef,
		}); err != nil {
			return err
		}

		newPaid := inv.PaidAmount.Add(applied)
		status := inv.Status
		var paidAt *time.Time
		if newPaid.GreaterThanOrEqual(inv.Total) {
			status = billing.InvoiceStatusPaid
			paidAt = &now
		}

		if err := s.invoiceRepo.UpdatePayment(ctx, inv.ID, newPaid, status, paidAt); err != nil {
			return err
		}

		if status == billing.InvoiceStatusPaid && prev != billing.InvoiceStatusPaid {
			if err := s.auditRepo.Record(ctx, billing.AuditRecord{
				InvoiceID:  inv.ID,
				Actor:      "gateway:" + ev.ExternalRef,
				PrevStatus: prev,
				NextStatus: billing.InvoiceStatusPaid,
				Note:       "payment reconciled",
			}); err != nil {
				return err
			}
		}

		if remainder := ev.Amount.Sub(due); remainder.IsPositive() {
			if err := s.creditSvc.Deposit(ctx, clubID, inv.GuardianID, remainder, ev.ExternalRef, &inv.ID); err != nil {
				return fmt.Errorf("deposit overpayment: %w", err)
			}
			log.Printf("Overpayment of %s on invoice %s deposited as credit for guardian %s",
				remainder.String(), inv.ID, inv.GuardianID)
		}

		inv.PaidAmount = newPaid
		inv.Status = status
		if paidAt != nil {
			inv.PaidAt = paidAt
		}
		updated = inv
		return nil
	})
	if err != nil {
		return billing.InvoiceResponse{}, err
	}

	return updated.ToResponse(time.Now()), nil
}

// RecordFailure stores a failed gateway payment for audit without touching
// the invoice.
func (s *reconcileService) RecordFailure(ctx context.Context, clubID string, ev billing.PaymentEvent) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	inv, err := s.invoiceRepo.GetByID(ctx, clubID, ev.InvoiceID)
	if err != nil {
		return err
	}

	_, err = s.paymentRepo.Create(ctx, billing.Payment{
		ClubID:      clubID,
		InvoiceID:   inv.ID,
		Amount:      ev.Amount,
		Method:      ev.Method,
		Status:      billing.PaymentStatusFailed,
		ExternalRef: ev.ExternalRef,
	})
	return err
}
