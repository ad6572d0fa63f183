package member

import "context"

type GuardianRepository interface {
	GetByID(ctx context.Context, id string) (Guardian, error)
	// ListBillable returns the guardians of a club that have at least one
	// active child. Used to enumerate bulk-generation work units.
	ListBillable(ctx context.Context, clubID string) ([]Guardian, error)
}

type ChildRepository interface {
	GetByID(ctx context.Context, id string) (Child, error)
	// ListActiveByGuardian returns the guardian's active children in a
	// stable order (last name, first name, id).
	ListActiveByGuardian(ctx context.Context, guardianID string) ([]Child, error)
}
