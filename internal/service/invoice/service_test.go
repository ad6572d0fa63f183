package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/fixtures"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/fee"
)

const (
	testClubID     = "club-1"
	testGuardianID = "g-1"
)

type testEnv struct {
	svc      billing.InvoiceService
	invoices *fixtures.InvoiceRepo
	fees     *fixtures.FeeConfigRepo
	audit    *fixtures.AuditRepo
	children *fixtures.ChildRepo
	gateway  *fixtures.Gateway
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clubs := fixtures.NewClubRepo(club.Club{
		ID: testClubID, Name: "Coastal Gymnastics", Slug: "coastal",
		TaxRate: decimal.RequireFromString("0.15"),
	})
	guardians := fixtures.NewGuardianRepo(member.Guardian{
		ID: testGuardianID, ClubID: testClubID,
		FirstName: "Sipho", LastName: "Dlamini", Email: "sipho@example.com",
	})

	children := fixtures.NewChildRepo()
	children.Add(testGuardianID, member.Child{
		ID: "c-1", ClubID: testClubID, FirstName: "Lwazi", LastName: "Dlamini",
		Level: "Level 2", Status: member.ChildStatusActive,
		MonthlyFee: decimal.RequireFromString("400"),
	})
	children.Add(testGuardianID, member.Child{
		ID: "c-2", ClubID: testClubID, FirstName: "Zanele", LastName: "Dlamini",
		Level: "Level 5", Status: member.ChildStatusActive,
		MonthlyFee: decimal.RequireFromString("600"),
	})
	children.Add(testGuardianID, member.Child{
		ID: "c-3", ClubID: testClubID, FirstName: "Thabo", LastName: "Dlamini",
		Level: "Level 1", Status: member.ChildStatusTrial,
		MonthlyFee: decimal.RequireFromString("300"),
	})

	env := &testEnv{
		invoices: fixtures.NewInvoiceRepo(),
		fees:     fixtures.NewFeeConfigRepo(),
		audit:    fixtures.NewAuditRepo(),
		children: children,
		gateway:  &fixtures.Gateway{},
	}
	env.svc = NewInvoiceService(
		env.invoices, guardians, children, clubs, env.fees, env.audit,
		fee.NewFeeResolver(children, env.fees),
		env.gateway, fixtures.TxManager{}, billing.DueDateRule{Day: 15},
	)
	return env
}

func createReq(month, year int) billing.CreateInvoiceRequest {
	return billing.CreateInvoiceRequest{GuardianID: testGuardianID, Month: month, Year: year}
}

func TestCreateInvoiceTotals(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)

	// Only the two active children are billed.
	require.Len(t, resp.Items, 2)

	subtotal := decimal.Zero
	for _, it := range resp.Items {
		subtotal = subtotal.Add(it.Amount)
	}
	assert.True(t, resp.Subtotal.Equal(subtotal))
	assert.True(t, resp.Total.Equal(resp.Subtotal.Add(resp.Tax)))
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("1000")))
	assert.True(t, resp.Tax.Equal(decimal.RequireFromString("150")))
	assert.Equal(t, billing.InvoiceStatusPending, resp.Status)
	assert.Equal(t, "2026-06-15", resp.DueDate)

	// A payment intent was attached.
	require.NotNil(t, resp.PaymentURL)

	records, err := env.audit.ListByInvoice(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, billing.InvoiceStatusPending, records[0].NextStatus)
}

func TestCreateInvoiceMarksOneTimeItemsBilled(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.fees.AddOneTimeItem(billing.OneTimeItem{
		ID: "ot-1", ClubID: testClubID, ChildID: "c-1",
		Category: billing.OneTimeRegistration, Description: "Annual registration",
		Amount: decimal.RequireFromString("150"), Month: 6, Year: 2026,
		Status: billing.OneTimeStatusPending,
	})

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	require.Len(t, resp.Items, 3)

	pending, err := env.fees.ListPendingOneTimeItems(context.Background(), "c-1", 6, 2026)
	require.NoError(t, err)
	assert.Empty(t, pending, "billed items must leave the pending pool")
}

func TestCreateInvoiceDuplicatePeriod(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)

	_, err = env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	assert.ErrorIs(t, err, billing.ErrDuplicatePeriod)
}

func TestCreateInvoiceAfterCancellationSucceeds(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	first, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	require.NoError(t, env.svc.Cancel(context.Background(), testClubID, first.ID, "admin"))

	// A cancelled invoice does not occupy the period.
	_, err = env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	assert.NoError(t, err)
}

func TestCreateInvoiceNoBillableChildren(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := createReq(6, 2026)
	req.GuardianID = "g-childless"
	clubs := fixtures.NewClubRepo(club.Club{ID: testClubID, Name: "Coastal"})
	guardians := fixtures.NewGuardianRepo(member.Guardian{ID: "g-childless", ClubID: testClubID})
	svc := NewInvoiceService(
		env.invoices, guardians, env.children, clubs, env.fees, env.audit,
		fee.NewFeeResolver(env.children, env.fees),
		nil, fixtures.TxManager{}, billing.DueDateRule{Day: 15},
	)

	_, err := svc.Create(context.Background(), testClubID, "admin", req)
	assert.ErrorIs(t, err, billing.ErrNoBillableChildren)
}

func TestCreateInvoiceUnknownGuardian(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req := createReq(6, 2026)
	req.GuardianID = "g-unknown"
	_, err := env.svc.Create(context.Background(), testClubID, "admin", req)
	assert.ErrorIs(t, err, member.ErrGuardianNotFound)
}

func TestCreateInvoiceGatewayFailureIsNotFatal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.gateway.Fail = true

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	assert.Nil(t, resp.PaymentURL)
}

func TestCancelPaidInvoiceFails(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	_, err = env.svc.MarkPaid(context.Background(), testClubID, resp.ID, "admin")
	require.NoError(t, err)

	err = env.svc.Cancel(context.Background(), testClubID, resp.ID, "admin")
	assert.ErrorIs(t, err, billing.ErrInvalidTransition)
}

func TestCancelOverdueInvoiceSucceeds(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	due := "2020-01-15"
	req := createReq(1, 2020)
	req.DueDate = &due
	resp, err := env.svc.Create(context.Background(), testClubID, "admin", req)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusOverdue, resp.Status)

	assert.NoError(t, env.svc.Cancel(context.Background(), testClubID, resp.ID, "admin"))
}

func TestCancelExpiresPaymentIntent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	require.NotNil(t, resp.PaymentURL)

	require.NoError(t, env.svc.Cancel(context.Background(), testClubID, resp.ID, "admin"))
	require.Len(t, env.gateway.Expired, 1)
	assert.Equal(t, "intent-"+resp.ID, env.gateway.Expired[0])
}

func TestDeleteGuards(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)

	t.Run("deletable while pending and unpaid", func(t *testing.T) {
		require.NoError(t, env.svc.Delete(context.Background(), testClubID, resp.ID, "admin"))
		_, err := env.svc.GetByID(context.Background(), testClubID, resp.ID)
		assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
	})

	t.Run("not deletable once paid", func(t *testing.T) {
		paid, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(7, 2026))
		require.NoError(t, err)
		_, err = env.svc.MarkPaid(context.Background(), testClubID, paid.ID, "admin")
		require.NoError(t, err)

		err = env.svc.Delete(context.Background(), testClubID, paid.ID, "admin")
		assert.ErrorIs(t, err, billing.ErrInvoiceNotDeletable)
	})
}

func TestMarkPaid(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	resp, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)

	paid, err := env.svc.MarkPaid(context.Background(), testClubID, resp.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPaid, paid.Status)
	assert.True(t, paid.PaidAmount.Equal(paid.Total))
	require.NotNil(t, paid.PaidAt)

	t.Run("cancelled invoices cannot be marked paid", func(t *testing.T) {
		other, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(7, 2026))
		require.NoError(t, err)
		require.NoError(t, env.svc.Cancel(context.Background(), testClubID, other.ID, "admin"))

		_, err = env.svc.MarkPaid(context.Background(), testClubID, other.ID, "admin")
		assert.ErrorIs(t, err, billing.ErrInvalidTransition)
	})
}

func TestPreview(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	preview, err := env.svc.Preview(context.Background(), testClubID, "c-1", billing.BillingPeriod{Month: 6, Year: 2026})
	require.NoError(t, err)
	require.Len(t, preview.Lines, 1)
	assert.True(t, preview.Total.Equal(decimal.RequireFromString("400")))
}

func TestListFilters(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), testClubID, "admin", createReq(6, 2026))
	require.NoError(t, err)
	_, err = env.svc.Create(context.Background(), testClubID, "admin", createReq(7, 2026))
	require.NoError(t, err)

	month := 6
	out, err := env.svc.List(context.Background(), testClubID, billing.InvoiceFilter{Month: &month})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	childID := "c-2"
	out, err = env.svc.List(context.Background(), testClubID, billing.InvoiceFilter{ChildID: &childID})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestListStatusFilterDerivesOverdue(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	pastDue := "2020-01-15"
	reqPast := createReq(1, 2020)
	reqPast.DueDate = &pastDue
	overdueInv, err := env.svc.Create(context.Background(), testClubID, "admin", reqPast)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusOverdue, overdueInv.Status)

	futureDue := "2099-06-15"
	reqFuture := createReq(6, 2099)
	reqFuture.DueDate = &futureDue
	pendingInv, err := env.svc.Create(context.Background(), testClubID, "admin", reqFuture)
	require.NoError(t, err)
	require.Equal(t, billing.InvoiceStatusPending, pendingInv.Status)

	// Overdue is a derived view over a stored pending row; the filter must
	// honour the derivation, and pending must exclude what overdue matches.
	overdue := billing.InvoiceStatusOverdue
	out, err := env.svc.List(context.Background(), testClubID, billing.InvoiceFilter{Status: &overdue})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, overdueInv.ID, out[0].ID)
	assert.Equal(t, billing.InvoiceStatusOverdue, out[0].Status)

	pending := billing.InvoiceStatusPending
	out, err = env.svc.List(context.Background(), testClubID, billing.InvoiceFilter{Status: &pending})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, pendingInv.ID, out[0].ID)
	assert.Equal(t, billing.InvoiceStatusPending, out[0].Status)
}

func TestDueDateRuleClampsToMonthEnd(t *testing.T) {
	t.Parallel()
	rule := billing.DueDateRule{Day: 31}
	due := rule.Apply(billing.BillingPeriod{Month: 2, Year: 2026})
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), due)
}
