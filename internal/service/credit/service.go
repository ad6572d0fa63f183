package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
)

type creditService struct {
	repo        credit.Repository
	invoiceRepo billing.InvoiceRepository
	auditRepo   billing.AuditRepository
	txm         billing.TxManager
}

func NewCreditService(
	repo credit.Repository,
	invoiceRepo billing.InvoiceRepository,
	auditRepo billing.AuditRepository,
	txm billing.TxManager,
) credit.Service {
	return &creditService{repo: repo, invoiceRepo: invoiceRepo, auditRepo: auditRepo, txm: txm}
}

// Apply spends stored credit against an invoice. The account row is locked
// before the balance read so the check and the decrement see the same
// snapshot; concurrent applications cannot overdraw.
func (s *creditService) Apply(ctx context.Context, clubID, guardianID, invoiceID string, amount decimal.Decimal, actor string) error {
	if !amount.IsPositive() {
		return billing.ErrInvalidAmount
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.repo.GetAccountForUpdate(ctx, clubID, guardianID)
		if err != nil {
			return err
		}

		balance, err := s.repo.Balance(ctx, acc.ID)
		if err != nil {
			return fmt.Errorf("read credit balance: %w", err)
		}
		if balance.LessThan(amount) {
			return credit.ErrInsufficientCredit
		}

		inv, err := s.invoiceRepo.GetForUpdate(ctx, clubID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status == billing.InvoiceStatusCancelled || inv.Status == billing.InvoiceStatusPaid {
			return billing.ErrInvalidTransition
		}
		if amount.GreaterThan(inv.Outstanding()) {
			return credit.ErrCreditExceedsOutstanding
		}

		if _, err := s.repo.Append(ctx, credit.CreditTransaction{
			AccountID: acc.ID,
			Type:      credit.TransactionApplication,
			Amount:    amount.Neg(),
			InvoiceID: &invoiceID,
			Reference: actor,
		}); err != nil {
			return fmt.Errorf("append credit application: %w", err)
		}

		now := time.Now()
		prev := inv.EffectiveStatus(now)
		newPaid := inv.PaidAmount.Add(amount)
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
			return s.auditRepo.Record(ctx, billing.AuditRecord{
				InvoiceID:  inv.ID,
				Actor:      actor,
				PrevStatus: prev,
				NextStatus: billing.InvoiceStatusPaid,
				Note:       "paid by credit application",
			})
		}
		return nil
	})
}

func (s *creditService) Deposit(ctx context.Context, clubID, guardianID string, amount decimal.Decimal, reference string, invoiceID *string) error {
	if !amount.IsPositive() {
		return billing.ErrInvalidAmount
	}

	return s.txm.WithinTx(ctx, func(ctx context.Context) error {
		acc, err := s.repo.GetOrCreateAccount(ctx, clubID, guardianID)
		if err != nil {
			return err
		}

		_, err = s.repo.Append(ctx, credit.CreditTransaction{
			AccountID: acc.ID,
			Type:      credit.TransactionDeposit,
			Amount:    amount,
			InvoiceID: invoiceID,
			Reference: reference,
		})
		return err
	})
}

func (s *creditService) Balance(ctx context.Context, clubID, guardianID string) (decimal.Decimal, error) {
	acc, err := s.repo.GetOrCreateAccount(ctx, clubID, guardianID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.repo.Balance(ctx, acc.ID)
}

func (s *creditService) History(ctx context.Context, clubID, guardianID string) ([]credit.CreditTransaction, error) {
	acc, err := s.repo.GetOrCreateAccount(ctx, clubID, guardianID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTransactions(ctx, acc.ID)
}
