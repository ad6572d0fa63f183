package member

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChildStatus represents the membership status of a child
type ChildStatus string

const (
	ChildStatusActive    ChildStatus = "active"
	ChildStatusInactive  ChildStatus = "inactive"
	ChildStatusSuspended ChildStatus = "suspended"
	ChildStatusTrial     ChildStatus = "trial"
)

// Guardian is a billable account holder. A guardian can be responsible for
// several children and several guardians can share one child.
type Guardian struct {
	ID        string    `json:"id"`
	ClubID    string    `json:"club_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Child is a club member. Level drives the base fee lookup; MonthlyFee is the
// snapshot of the level fee at enrollment (or the latest fee review).
type Child struct {
	ID         string          `json:"id"`
	ClubID     string          `json:"club_id"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Level      string          `json:"level"`
	Status     ChildStatus     `json:"status"`
	MonthlyFee decimal.Decimal `json:"monthly_fee"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// IsBillable reports whether the child should appear on invoices.
// Only active children are billed; trial, suspended and inactive are not.
func (c *Child) IsBillable() bool {
	return c.Status == ChildStatusActive
}

func (g *Guardian) FullName() string {
	return g.FirstName + " " + g.LastName
}
