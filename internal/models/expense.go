package models

import (
	"maps"

	"github.com/mmynk/splitbill/internal/money"
)

// SplitPolicy determines how an expense's amount is divided.
type SplitPolicy string

const (
	// SplitEqual divides the amount across every current member, payer included.
	SplitEqual SplitPolicy = "equal"
	// SplitCustom takes each member's share from Expense.Split.
	SplitCustom SplitPolicy = "custom"
)

// Valid reports whether p is a known policy.
func (p SplitPolicy) Valid() bool {
	return p == SplitEqual || p == SplitCustom
}

// Expense is one payment recorded against a bill.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	BillID string

	// Name describes the expense (e.g., "Dinner").
	Name string

	// Amount is always positive.
	Amount money.Cents

	// PayerID is the identity of the member who paid.
	PayerID string

	Policy SplitPolicy

	// Split maps identities to their share. Only set when Policy is SplitCustom.
	Split map[string]money.Cents

	// CreatedBy is the user ID of the caller who recorded the expense.
	CreatedBy string

	CreatedAt int64
	UpdatedAt int64
}

// Clone returns a deep copy of e.
func (e *Expense) Clone() *Expense {
	c := *e
	c.Split = maps.Clone(e.Split)
	return &c
}
