package billing

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/club"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/fixtures"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/fee"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/service/invoice"
)

const bulkClubID = "club-1"

type bulkEnv struct {
	svc      billing.BulkService
	invoices *fixtures.InvoiceRepo
}

// newBulkEnv seeds billable guardians g-1..g-n, each with one active child,
// plus one guardian g-childless with no active children.
func newBulkEnv(t *testing.T, billable int) *bulkEnv {
	t.Helper()

	clubs := fixtures.NewClubRepo(club.Club{ID: bulkClubID, Name: "Coastal Gymnastics", Slug: "coastal"})
	children := fixtures.NewChildRepo()

	var members []member.Guardian
	for i := 1; i <= billable; i++ {
		id := fmt.Sprintf("g-%d", i)
		members = append(members, member.Guardian{
			ID: id, ClubID: bulkClubID,
			FirstName: "Parent", LastName: fmt.Sprintf("Family%02d", i),
			Email: fmt.Sprintf("parent%d@example.com", i),
		})
		children.Add(id, member.Child{
			ID: fmt.Sprintf("c-%d", i), ClubID: bulkClubID,
			FirstName: "Kid", LastName: fmt.Sprintf("Family%02d", i),
			Level: "Level 1", Status: member.ChildStatusActive,
			MonthlyFee: decimal.RequireFromString("450"),
		})
	}
	members = append(members, member.Guardian{
		ID: "g-childless", ClubID: bulkClubID,
		FirstName: "No", LastName: "Children", Email: "none@example.com",
	})

	guardians := fixtures.NewGuardianRepo(members...)
	invoices := fixtures.NewInvoiceRepo()
	fees := fixtures.NewFeeConfigRepo()

	invoiceSvc := invoice.NewInvoiceService(
		invoices, guardians, children, clubs, fees, fixtures.NewAuditRepo(),
		fee.NewFeeResolver(children, fees),
		nil, fixtures.TxManager{}, billing.DueDateRule{Day: 15},
	)

	return &bulkEnv{
		svc:      NewBulkService(guardians, invoiceSvc, 4),
		invoices: invoices,
	}
}

func TestBulkGeneratePartialFailure(t *testing.T) {
	t.Parallel()
	env := newBulkEnv(t, 5)

	report, err := env.svc.Generate(context.Background(), bulkClubID, "admin", billing.BulkGenerateRequest{Month: 6, Year: 2026})
	require.NoError(t, err)

	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 5, report.Successful)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Results, 6)

	// The failure is attributed to the childless guardian and its message
	// names the cause; the other five invoices persist.
	for _, res := range report.Results {
		if res.GuardianID == "g-childless" {
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Contains(t, *res.Error, billing.ErrNoBillableChildren.Error())
		} else {
			assert.True(t, res.Success, res.GuardianID)
			require.NotNil(t, res.InvoiceID)
		}
	}
	assert.Len(t, env.invoices.Invoices, 5)
}

func TestBulkGenerateIsIdempotent(t *testing.T) {
	t.Parallel()
	env := newBulkEnv(t, 3)
	req := billing.BulkGenerateRequest{Month: 6, Year: 2026}

	first, err := env.svc.Generate(context.Background(), bulkClubID, "admin", req)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Successful)

	second, err := env.svc.Generate(context.Background(), bulkClubID, "admin", req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Successful)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 1, second.Failed)

	// Still exactly one invoice per billed guardian.
	assert.Len(t, env.invoices.Invoices, 3)
}

func TestBulkGenerateAbortAttributesEveryGuardian(t *testing.T) {
	t.Parallel()
	env := newBulkEnv(t, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := env.svc.Generate(ctx, bulkClubID, "admin", billing.BulkGenerateRequest{Month: 6, Year: 2026})
	require.NoError(t, err)

	// Units never dispatched still carry their guardian and a reason, so
	// the report accounts for the whole batch after an abort.
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Failed)
	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.NotEmpty(t, res.GuardianID)
		require.NotNil(t, res.Error)
		assert.Contains(t, *res.Error, "not dispatched")
	}
	assert.Empty(t, env.invoices.Invoices)
}

func TestBulkGenerateDueDayOverride(t *testing.T) {
	t.Parallel()
	env := newBulkEnv(t, 1)

	day := 1
	report, err := env.svc.Generate(context.Background(), bulkClubID, "admin", billing.BulkGenerateRequest{Month: 6, Year: 2026, DueDay: &day})
	require.NoError(t, err)
	require.Equal(t, 1, report.Successful)

	for _, inv := range env.invoices.Invoices {
		assert.Equal(t, "2026-06-01", inv.DueDate.Format("2006-01-02"))
	}
}

func TestBulkGenerateRejectsBadPeriod(t *testing.T) {
	t.Parallel()
	env := newBulkEnv(t, 1)

	_, err := env.svc.Generate(context.Background(), bulkClubID, "admin", billing.BulkGenerateRequest{Month: 13, Year: 2026})
	assert.Error(t, err)
	assert.Empty(t, env.invoices.Invoices)
}
