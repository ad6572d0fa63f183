package club

import (
	"time"

	"github.com/shopspring/decimal"
)

// Club is the billing tenant. Every guardian, child and invoice belongs to
// exactly one club.
type Club struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	TaxRate   decimal.Decimal `json:"tax_rate"` // flat rate, e.g. 0.15; zero when unset
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
