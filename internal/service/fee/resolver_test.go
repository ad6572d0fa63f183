package fee

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/billing"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/domain/member"
	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/fixtures"
)

var testPeriod = billing.BillingPeriod{Month: 3, Year: 2026}

func newTestChild(id string, status member.ChildStatus, monthlyFee string) member.Child {
	return member.Child{
		ID:         id,
		ClubID:     "club-1",
		FirstName:  "Amy",
		LastName:   "Botha",
		Level:      "Level 3",
		Status:     status,
		MonthlyFee: decimal.RequireFromString(monthlyFee),
	}
}

func recurringAdjustment(childID string, typ billing.AdjustmentType, amount string) billing.FeeAdjustment {
	return billing.FeeAdjustment{
		ID:            "adj-" + string(typ),
		ClubID:        "club-1",
		ChildID:       childID,
		Type:          typ,
		Description:   string(typ),
		Amount:        decimal.RequireFromString(amount),
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Recurring:     true,
	}
}

func TestResolveBaseFeeOnly(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "650"))
	r := NewFeeResolver(children, fixtures.NewFeeConfigRepo())

	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Monthly fee - Level 3", lines[0].Description)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("650")))
}

func TestResolveInactiveChildYieldsNoLines(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusSuspended, "650"))
	r := NewFeeResolver(children, fixtures.NewFeeConfigRepo())

	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestResolveOrderingAndDiscountFloor(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "500"))

	fees := fixtures.NewFeeConfigRepo()
	fees.AddAdjustment(recurringAdjustment("c-1", billing.AdjustmentTemporaryChange, "40"))
	fees.AddAdjustment(recurringAdjustment("c-1", billing.AdjustmentScholarship, "800"))
	fees.AddAdjustment(recurringAdjustment("c-1", billing.AdjustmentPermanentChange, "100"))

	r := NewFeeResolver(children, fees)
	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	require.Len(t, lines, 4)

	// Base first, then base redefinitions, then reductions, then temporary.
	assert.Equal(t, "Monthly fee - Level 3", lines[0].Description)
	assert.Equal(t, string(billing.AdjustmentPermanentChange), lines[1].Description)
	assert.Equal(t, string(billing.AdjustmentScholarship), lines[2].Description)
	assert.Equal(t, string(billing.AdjustmentTemporaryChange), lines[3].Description)

	// The scholarship of 800 is floored so the running amount stops at zero.
	assert.True(t, lines[2].Amount.Equal(decimal.RequireFromString("-600")), lines[2].Amount.String())

	total := Total(lines)
	assert.True(t, total.Equal(decimal.RequireFromString("40")), total.String())
}

func TestResolveSkipsMalformedWindow(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "500"))

	bad := recurringAdjustment("c-1", billing.AdjustmentDiscount, "50")
	to := bad.EffectiveFrom.AddDate(0, -2, 0)
	bad.EffectiveTo = &to

	fees := fixtures.NewFeeConfigRepo()
	fees.AddAdjustment(bad)

	r := NewFeeResolver(children, fees)
	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestResolveNonRecurringTargetsOnePeriod(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "500"))

	once := recurringAdjustment("c-1", billing.AdjustmentDiscount, "50")
	once.Recurring = false
	once.EffectiveFrom = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	fees := fixtures.NewFeeConfigRepo()
	fees.AddAdjustment(once)
	r := NewFeeResolver(children, fees)

	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	lines, err = r.Resolve(context.Background(), "c-1", billing.BillingPeriod{Month: 4, Year: 2026})
	require.NoError(t, err)
	assert.Len(t, lines, 1)
}

func TestResolveAppendsPendingOneTimeItems(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "500"))

	fees := fixtures.NewFeeConfigRepo()
	fees.AddOneTimeItem(billing.OneTimeItem{
		ID:          "ot-1",
		ClubID:      "club-1",
		ChildID:     "c-1",
		Category:    billing.OneTimeCompetitionFee,
		Description: "Regional competition entry",
		Amount:      decimal.RequireFromString("250"),
		Month:       3,
		Year:        2026,
		Status:      billing.OneTimeStatusPending,
	})
	fees.AddOneTimeItem(billing.OneTimeItem{
		ID: "ot-2", ClubID: "club-1", ChildID: "c-1", Category: billing.OneTimeEquipment,
		Description: "Already billed", Amount: decimal.RequireFromString("100"),
		Month: 3, Year: 2026, Status: billing.OneTimeStatusBilled,
	})

	r := NewFeeResolver(children, fees)
	lines, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "Regional competition entry", lines[1].Description)
	require.NotNil(t, lines[1].OneTimeItemID)
	assert.Equal(t, "ot-1", *lines[1].OneTimeItemID)
}

func TestResolveIsDeterministic(t *testing.T) {
	t.Parallel()
	children := fixtures.NewChildRepo()
	children.Add("g-1", newTestChild("c-1", member.ChildStatusActive, "500"))

	fees := fixtures.NewFeeConfigRepo()
	fees.AddAdjustment(recurringAdjustment("c-1", billing.AdjustmentPermanentChange, "75"))
	fees.AddAdjustment(recurringAdjustment("c-1", billing.AdjustmentDiscount, "30"))

	r := NewFeeResolver(children, fees)
	first, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "c-1", testPeriod)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Description, second[i].Description)
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}
}
