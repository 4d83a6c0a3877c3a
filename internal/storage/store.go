// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/mmynk/splitbill/internal/models"
)

// Store defines the interface for bill, participant, expense and user storage.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the registry, ledger or service layers.
//
// Single-row writes are atomic. Serializing read-validate-write sequences on
// one bill is the caller's job (see internal/lock). Missing rows are reported
// as *apperr.NotFoundError and duplicate participants as *apperr.ValidationError.
type Store interface {
	BillStore
	ParticipantStore
	ExpenseStore
	UserStore

	// Close releases any resources held by the store.
	Close() error
}

// BillStore persists bills.
type BillStore interface {
	// CreateBill persists a new bill. ID, Code and timestamps are assigned
	// by the store when empty.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by its ID.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// GetBillByCode retrieves a bill by its join code.
	GetBillByCode(ctx context.Context, code string) (*models.Bill, error)

	// ListBillsForUser returns the bills a user hosts or has accepted,
	// newest first, filtered by archived state.
	ListBillsForUser(ctx context.Context, userID string, archived bool) ([]*models.Bill, error)

	// UpdateBill saves the name and archived flag of an existing bill.
	UpdateBill(ctx context.Context, bill *models.Bill) error

	// RegenerateCode assigns a fresh unique join code and returns it.
	RegenerateCode(ctx context.Context, billID string) (string, error)

	// DeleteBill removes a bill along with its participants and expenses.
	DeleteBill(ctx context.Context, billID string) error
}

// ParticipantStore persists bill participants.
type ParticipantStore interface {
	// AddParticipant inserts a participant row. ID and CreatedAt are assigned
	// when empty.
	AddParticipant(ctx context.Context, p *models.Participant) error

	// GetParticipant retrieves one participant of a bill.
	GetParticipant(ctx context.Context, billID, participantID string) (*models.Participant, error)

	// ListParticipants returns every row of a bill in creation order,
	// pending invitations included.
	ListParticipants(ctx context.Context, billID string) ([]*models.Participant, error)

	// AcceptParticipant marks a pending invitation as accepted.
	AcceptParticipant(ctx context.Context, billID, participantID string) error

	// RemoveParticipant deletes a participant row. Expenses are untouched.
	RemoveParticipant(ctx context.Context, billID, participantID string) error
}

// ExpenseStore persists expenses. Every lookup is scoped to a bill.
type ExpenseStore interface {
	// CreateExpense inserts an expense. ID and timestamps are assigned when empty.
	CreateExpense(ctx context.Context, e *models.Expense) error

	// GetExpense retrieves one expense of a bill.
	GetExpense(ctx context.Context, billID, expenseID string) (*models.Expense, error)

	// ListExpenses returns a bill's expenses in creation order.
	ListExpenses(ctx context.Context, billID string) ([]*models.Expense, error)

	// UpdateExpense overwrites every mutable field of an existing expense.
	UpdateExpense(ctx context.Context, e *models.Expense) error

	// DeleteExpense hard-deletes an expense.
	DeleteExpense(ctx context.Context, billID, expenseID string) error
}

// UserStore persists registered users.
type UserStore interface {
	// UpsertUser inserts a user or refreshes the email and display name of an
	// existing one.
	UpsertUser(ctx context.Context, user *models.User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to User. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}
