// Package fixtures provides in-memory repository implementations for tests.
package fixtures

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/credit"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
)

// TxManager is a pass-through transaction manager. The in-memory stores are
// individually consistent, so fn just runs on the same context.
type TxManager struct{}

func (TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ==================== Club ====================

type ClubRepo struct {
	mu    sync.RWMutex
	Clubs map[string]club.Club
}

func NewClubRepo(clubs ...club.Club) *ClubRepo {
	r := &ClubRepo{Clubs: make(map[string]club.Club)}
	for _, c := range clubs {
		r.Clubs[c.ID] = c
	}
	return r
}

func (r *ClubRepo) GetByID(ctx context.Context, id string) (club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.Clubs[id]
	if !ok {
		return club.Club{}, club.ErrClubNotFound
	}
	return c, nil
}

func (r *ClubRepo) List(ctx context.Context) ([]club.Club, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]club.Club, 0, len(r.Clubs))
	for _, c := range r.Clubs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ==================== Guardians and children ====================

type GuardianRepo struct {
	mu        sync.RWMutex
	Guardians map[string]member.Guardian
}

func NewGuardianRepo(guardians ...member.Guardian) *GuardianRepo {
	r := &GuardianRepo{Guardians: make(map[string]member.Guardian)}
	for _, g := range guardians {
		r.Guardians[g.ID] = g
	}
	return r
}

func (r *GuardianRepo) GetByID(ctx context.Context, id string) (member.Guardian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.Guardians[id]
	if !ok {
		return member.Guardian{}, member.ErrGuardianNotFound
	}
	return g, nil
}

func (r *GuardianRepo) ListBillable(ctx context.Context, clubID string) ([]member.Guardian, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []member.Guardian
	for _, g := range r.Guardians {
		if g.ClubID == clubID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type ChildRepo struct {
	mu sync.RWMutex
	// ByGuardian maps guardian id to that guardian's children.
	ByGuardian map[string][]member.Child
	Children   map[string]member.Child
}

func NewChildRepo() *ChildRepo {
	return &ChildRepo{ByGuardian: make(map[string][]member.Child), Children: make(map[string]member.Child)}
}

func (r *ChildRepo) Add(guardianID string, c member.Child) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Children[c.ID] = c
	r.ByGuardian[guardianID] = append(r.ByGuardian[guardianID], c)
}

func (r *ChildRepo) GetByID(ctx context.Context, id string) (member.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.Children[id]
	if !ok {
		return member.Child{}, member.ErrChildNotFound
	}
	return c, nil
}

func (r *ChildRepo) ListActiveByGuardian(ctx context.Context, guardianID string) ([]member.Child, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []member.Child
	for _, c := range r.ByGuardian[guardianID] {
		if c.Status == member.ChildStatusActive {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ==================== Invoices ====================

type InvoiceRepo struct {
	mu       sync.Mutex
	Invoices map[string]billing.Invoice
}

func NewInvoiceRepo() *InvoiceRepo {
	return &InvoiceRepo{Invoices: make(map[string]billing.Invoice)}
}

func (r *InvoiceRepo) Create(ctx context.Context, inv billing.Invoice) (billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Invoices {
		if existing.ClubID == inv.ClubID && existing.GuardianID == inv.GuardianID &&
			existing.Month == inv.Month && existing.Year == inv.Year &&
			existing.Status != billing.InvoiceStatusCancelled {
			return billing.Invoice{}, billing.ErrDuplicatePeriod
		}
	}
	inv.ID = uuid.New().String()
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	for i := range inv.Items {
		inv.Items[i].ID = uuid.New().String()
		inv.Items[i].InvoiceID = inv.ID
	}
	r.Invoices[inv.ID] = inv
	return inv, nil
}

func (r *InvoiceRepo) GetByID(ctx context.Context, clubID, id string) (billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[id]
	if !ok || inv.ClubID != clubID {
		return billing.Invoice{}, billing.ErrInvoiceNotFound
	}
	return inv, nil
}

func (r *InvoiceRepo) GetForUpdate(ctx context.Context, clubID, id string) (billing.Invoice, error) {
	return r.GetByID(ctx, clubID, id)
}

func (r *InvoiceRepo) ExistsForPeriod(ctx context.Context, clubID, guardianID string, month, year int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, inv := range r.Invoices {
		if inv.ClubID == clubID && inv.GuardianID == guardianID &&
			inv.Month == month && inv.Year == year &&
			inv.Status != billing.InvoiceStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status billing.InvoiceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[id]
	if !ok {
		return billing.ErrInvoiceNotFound
	}
	inv.Status = status
	inv.UpdatedAt = time.Now()
	r.Invoices[id] = inv
	return nil
}

func (r *InvoiceRepo) UpdatePayment(ctx context.Context, id string, paidAmount decimal.Decimal, status billing.InvoiceStatus, paidAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[id]
	if !ok {
		return billing.ErrInvoiceNotFound
	}
	inv.PaidAmount = paidAmount
	inv.Status = status
	inv.PaidAt = paidAt
	inv.UpdatedAt = time.Now()
	r.Invoices[id] = inv
	return nil
}

func (r *InvoiceRepo) SetGatewayIntent(ctx context.Context, id, intentID, intentURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[id]
	if !ok {
		return billing.ErrInvoiceNotFound
	}
	inv.GatewayIntentID = &intentID
	inv.GatewayIntentURL = &intentURL
	r.Invoices[id] = inv
	return nil
}

func (r *InvoiceRepo) LookupClub(ctx context.Context, invoiceID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.Invoices[invoiceID]
	if !ok {
		return "", billing.ErrInvoiceNotFound
	}
	return inv.ClubID, nil
}

func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Invoices[id]; !ok {
		return billing.ErrInvoiceNotFound
	}
	delete(r.Invoices, id)
	return nil
}

func (r *InvoiceRepo) List(ctx context.Context, clubID string, f billing.InvoiceFilter) ([]billing.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.Invoice
	for _, inv := range r.Invoices {
		if inv.ClubID != clubID {
			continue
		}
		// Filter on the derived view, not the stored column, so asking
		// for overdue finds pending invoices past their due date.
		if f.Status != nil && inv.EffectiveStatus(time.Now()) != *f.Status {
			continue
		}
		if f.Month != nil && inv.Month != *f.Month {
			continue
		}
		if f.Year != nil && inv.Year != *f.Year {
			continue
		}
		if f.GuardianID != nil && inv.GuardianID != *f.GuardianID {
			continue
		}
		if f.ChildID != nil {
			found := false
			for _, it := range inv.Items {
				if it.ChildID == *f.ChildID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ==================== Payments ====================

type PaymentRepo struct {
	mu       sync.Mutex
	Payments []billing.Payment
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{}
}

func (r *PaymentRepo) Create(ctx context.Context, p billing.Payment) (billing.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.Payments {
		if existing.ClubID == p.ClubID && existing.ExternalRef == p.ExternalRef {
			return billing.Payment{}, billing.ErrPaymentAlreadyProcessed
		}
	}
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now()
	r.Payments = append(r.Payments, p)
	return p, nil
}

func (r *PaymentRepo) ExistsByExternalRef(ctx context.Context, clubID, externalRef string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.Payments {
		if p.ClubID == clubID && p.ExternalRef == externalRef {
			return true, nil
		}
	}
	return false, nil
}

// ==================== Fee configuration ====================

type FeeConfigRepo struct {
	mu          sync.Mutex
	Adjustments map[string][]billing.FeeAdjustment
	OneTime     map[string][]billing.OneTimeItem
}

func NewFeeConfigRepo() *FeeConfigRepo {
	return &FeeConfigRepo{
		Adjustments: make(map[string][]billing.FeeAdjustment),
		OneTime:     make(map[string][]billing.OneTimeItem),
	}
}

func (r *FeeConfigRepo) AddAdjustment(a billing.FeeAdjustment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Adjustments[a.ChildID] = append(r.Adjustments[a.ChildID], a)
}

func (r *FeeConfigRepo) AddOneTimeItem(it billing.OneTimeItem) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.OneTime[it.ChildID] = append(r.OneTime[it.ChildID], it)
}

func (r *FeeConfigRepo) ListAdjustmentsByChild(ctx context.Context, childID string) ([]billing.FeeAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]billing.FeeAdjustment(nil), r.Adjustments[childID]...), nil
}

func (r *FeeConfigRepo) ListPendingOneTimeItems(ctx context.Context, childID string, month, year int) ([]billing.OneTimeItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.OneTimeItem
	for _, it := range r.OneTime[childID] {
		if it.Status == billing.OneTimeStatusPending && it.Month == month && it.Year == year {
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *FeeConfigRepo) MarkOneTimeItemsBilled(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	billed := make(map[string]bool, len(ids))
	for _, id := range ids {
		billed[id] = true
	}
	for childID, items := range r.OneTime {
		for i, it := range items {
			if billed[it.ID] && it.Status == billing.OneTimeStatusPending {
				items[i].Status = billing.OneTimeStatusBilled
			}
		}
		r.OneTime[childID] = items
	}
	return nil
}

// ==================== Credit ====================

type CreditRepo struct {
	mu           sync.Mutex
	Accounts     map[string]credit.CreditAccount // keyed by clubID+"/"+guardianID
	Transactions map[string][]credit.CreditTransaction
}

func NewCreditRepo() *CreditRepo {
	return &CreditRepo{
		Accounts:     make(map[string]credit.CreditAccount),
		Transactions: make(map[string][]credit.CreditTransaction),
	}
}

func (r *CreditRepo) GetOrCreateAccount(ctx context.Context, clubID, guardianID string) (credit.CreditAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := clubID + "/" + guardianID
	if acc, ok := r.Accounts[key]; ok {
		return acc, nil
	}
	acc := credit.CreditAccount{
		ID:         uuid.New().String(),
		ClubID:     clubID,
		GuardianID: guardianID,
		CreatedAt:  time.Now(),
	}
	r.Accounts[key] = acc
	return acc, nil
}

func (r *CreditRepo) GetAccountForUpdate(ctx context.Context, clubID, guardianID string) (credit.CreditAccount, error) {
	return r.GetOrCreateAccount(ctx, clubID, guardianID)
}

func (r *CreditRepo) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	balance := decimal.Zero
	for _, t := range r.Transactions[accountID] {
		balance = balance.Add(t.Amount)
	}
	return balance, nil
}

func (r *CreditRepo) Append(ctx context.Context, txn credit.CreditTransaction) (credit.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txn.ID = uuid.New().String()
	txn.CreatedAt = time.Now()
	r.Transactions[txn.AccountID] = append(r.Transactions[txn.AccountID], txn)
	return txn, nil
}

func (r *CreditRepo) ListTransactions(ctx context.Context, accountID string) ([]credit.CreditTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]credit.CreditTransaction(nil), r.Transactions[accountID]...), nil
}

// ==================== Audit ====================

type AuditRepo struct {
	mu      sync.Mutex
	Records []billing.AuditRecord
}

func NewAuditRepo() *AuditRepo {
	return &AuditRepo{}
}

func (r *AuditRepo) Record(ctx context.Context, rec billing.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = uuid.New().String()
	rec.At = time.Now()
	r.Records = append(r.Records, rec)
	return nil
}

func (r *AuditRepo) ListByInvoice(ctx context.Context, invoiceID string) ([]billing.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.AuditRecord
	for _, rec := range r.Records {
		if rec.InvoiceID == invoiceID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ==================== Gateway ====================

// Gateway is a scripted payment gateway.
type Gateway struct {
	mu      sync.Mutex
	Fail    bool
	Intents []billing.PaymentIntentRequest
	Expired []string
}

func (g *Gateway) CreatePaymentIntent(ctx context.Context, req billing.PaymentIntentRequest) (billing.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return billing.PaymentIntent{}, fmt.Errorf("create payment intent: %w", billing.ErrGatewayUnavailable)
	}
	g.Intents = append(g.Intents, req)
	intent := billing.PaymentIntent{
		ID:        "intent-" + req.ExternalID,
		URL:       "https://pay.example.com/" + req.ExternalID,
		ExpiresAt: time.Now().Add(req.Duration),
	}
	return intent, nil
}

func (g *Gateway) ExpirePaymentIntent(ctx context.Context, intentID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Fail {
		return fmt.Errorf("expire payment intent: %w", billing.ErrGatewayUnavailable)
	}
	g.Expired = append(g.Expired, intentID)
	return nil
}
