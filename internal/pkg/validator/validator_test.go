package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty("\t\n"))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty("  x  "))
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"a@b.co", "parent.name+billing@club.org", "x_y@sub.domain.io"}
	for _, e := range valid {
		assert.True(t, IsValidEmail(e), e)
	}

	invalid := []string{"", "plain", "@no-local.co", "no-at.co", "a@b"}
	for _, e := range invalid {
		assert.False(t, IsValidEmail(e), e)
	}
}

func TestIsValidUUID(t *testing.T) {
	assert.True(t, IsValidUUID("0190a2c8-1f3b-7cde-89ab-0123456789ab"))
	assert.True(t, IsValidUUID("6fa459ea-ee8a-3ca4-894e-db77e160355e"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID("0190a2c8-1f3b-7cde-89ab-0123456789"))
}

func TestIsValidDate(t *testing.T) {
	d, ok := IsValidDate("2026-02-15")
	assert.True(t, ok)
	assert.Equal(t, 2026, d.Year())

	_, ok = IsValidDate("15-02-2026")
	assert.False(t, ok)

	_, ok = IsValidDate("2026-13-01")
	assert.False(t, ok)
}

func TestValidationErrorsToMap(t *testing.T) {
	errs := ValidationErrors{
		{Field: "month", Message: "month must be 1-12"},
		{Field: "guardian_id", Message: "guardian_id is required"},
	}

	m := errs.ToMap()
	assert.Len(t, m, 2)
	assert.Equal(t, "month must be 1-12", m["month"])
	assert.Contains(t, errs.Error(), "guardian_id")
}
