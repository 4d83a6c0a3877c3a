// Package ledger records the expenses of a bill. Every write validates the
// full record against the current roster under the bill lock before it
// touches storage.
package ledger

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/lock"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/storage"
)

const maxNameLength = 255

// Authorizer loads a bill's roster on behalf of a caller.
// *registry.Registry implements it.
type Authorizer interface {
	Authorize(ctx context.Context, caller models.Caller, billID string) (*registry.Roster, error)
}

// ExpenseInput is a new expense. Split is only read for the custom policy.
type ExpenseInput struct {
	Name    string
	Amount  money.Cents
	PayerID string
	Policy  models.SplitPolicy
	Split   map[string]money.Cents
}

// ExpensePatch is a partial update. Nil fields keep their stored value.
// A nil Split keeps the stored split; switching Policy to equal clears it.
type ExpensePatch struct {
	Name    *string
	Amount  *money.Cents
	PayerID *string
	Policy  *models.SplitPolicy
	Split   map[string]money.Cents
}

// Ledger adds, edits and removes expenses.
type Ledger struct {
	store   storage.ExpenseStore
	members Authorizer
	locker  lock.Locker
	metrics *metrics.Metrics
}

// New creates a Ledger. m may be nil.
func New(store storage.ExpenseStore, members Authorizer, locker lock.Locker, m *metrics.Metrics) *Ledger {
	return &Ledger{store: store, members: members, locker: locker, metrics: m}
}

// AddExpense validates and records a new expense.
func (l *Ledger) AddExpense(ctx context.Context, caller models.Caller, billID string, in ExpenseInput) (*models.Expense, error) {
	var created *models.Expense
	err := l.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := l.writableRoster(ctx, caller, billID)
		if err != nil {
			return err
		}

		e := &models.Expense{
			BillID:    billID,
			Name:      in.Name,
			Amount:    in.Amount,
			PayerID:   in.PayerID,
			Policy:    in.Policy,
			Split:     in.Split,
			CreatedBy: caller.UserID,
		}
		if err := validate(e, roster.Identities()); err != nil {
			return err
		}
		if err := l.store.CreateExpense(ctx, e); err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.ExpenseMutated("add")
	slog.Info("Expense added", "bill_id", billID, "expense_id", created.ID, "amount", created.Amount.String(), "policy", created.Policy)
	return created, nil
}

// UpdateExpense merges patch into the stored expense and re-validates the
// result under the same rules as AddExpense.
func (l *Ledger) UpdateExpense(ctx context.Context, caller models.Caller, billID, expenseID string, patch ExpensePatch) (*models.Expense, error) {
	var updated *models.Expense
	err := l.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		roster, err := l.writableRoster(ctx, caller, billID)
		if err != nil {
			return err
		}

		existing, err := l.store.GetExpense(ctx, billID, expenseID)
		if err != nil {
			return err
		}

		merged := apply(existing, patch)
		if err := validate(merged, roster.Identities()); err != nil {
			return err
		}
		if err := l.store.UpdateExpense(ctx, merged); err != nil {
			return err
		}
		updated = merged
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.metrics.ExpenseMutated("update")
	slog.Info("Expense updated", "bill_id", billID, "expense_id", expenseID)
	return updated, nil
}

// RemoveExpense hard-deletes an expense.
func (l *Ledger) RemoveExpense(ctx context.Context, caller models.Caller, billID, expenseID string) error {
	err := l.locker.WithLock(ctx, lock.BillKey(billID), func(ctx context.Context) error {
		if _, err := l.writableRoster(ctx, caller, billID); err != nil {
			return err
		}
		return l.store.DeleteExpense(ctx, billID, expenseID)
	})
	if err != nil {
		return err
	}

	l.metrics.ExpenseMutated("remove")
	slog.Info("Expense removed", "bill_id", billID, "expense_id", expenseID)
	return nil
}

// ListExpenses returns a bill's expenses in creation order.
func (l *Ledger) ListExpenses(ctx context.Context, caller models.Caller, billID string) ([]*models.Expense, error) {
	if _, err := l.members.Authorize(ctx, caller, billID); err != nil {
		return nil, err
	}
	return l.store.ListExpenses(ctx, billID)
}

// GetExpense returns one expense of a bill.
func (l *Ledger) GetExpense(ctx context.Context, caller models.Caller, billID, expenseID string) (*models.Expense, error) {
	if _, err := l.members.Authorize(ctx, caller, billID); err != nil {
		return nil, err
	}
	return l.store.GetExpense(ctx, billID, expenseID)
}

// Shares resolves what each current member owes for one expense.
func (l *Ledger) Shares(ctx context.Context, caller models.Caller, billID, expenseID string) (*models.Expense, *registry.Roster, map[string]money.Cents, error) {
	roster, err := l.members.Authorize(ctx, caller, billID)
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := l.store.GetExpense(ctx, billID, expenseID)
	if err != nil {
		return nil, nil, nil, err
	}
	shares, err := calculator.ResolveShares(e, roster.Identities())
	if err != nil {
		return nil, nil, nil, err
	}
	return e, roster, shares, nil
}

func (l *Ledger) writableRoster(ctx context.Context, caller models.Caller, billID string) (*registry.Roster, error) {
	roster, err := l.members.Authorize(ctx, caller, billID)
	if err != nil {
		return nil, err
	}
	if roster.Bill.Archived {
		return nil, apperr.Invalid("bill_id", "bill is archived")
	}
	return roster, nil
}

func apply(existing *models.Expense, patch ExpensePatch) *models.Expense {
	merged := existing.Clone()
	if patch.Name != nil {
		merged.Name = *patch.Name
	}
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.PayerID != nil {
		merged.PayerID = *patch.PayerID
	}
	if patch.Policy != nil {
		merged.Policy = *patch.Policy
	}
	if patch.Split != nil {
		merged.Split = patch.Split
	}
	return merged
}

// validate checks a complete expense against the member set and normalizes
// it: the name is trimmed and equal splits drop any supplied map.
func validate(e *models.Expense, members []string) error {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return apperr.Invalid("name", "is required")
	}
	if utf8.RuneCountInString(e.Name) > maxNameLength {
		return apperr.Invalid("name", "must be at most %d characters", maxNameLength)
	}
	if e.Amount <= 0 {
		return apperr.Invalid("amount", "must be greater than zero, got %s", e.Amount)
	}
	if e.Amount > money.MaxAmount {
		return apperr.Invalid("amount", "exceeds the maximum of %s", money.MaxAmount)
	}
	if !slices.Contains(members, e.PayerID) {
		return apperr.Invalid("payer_id", "%s is not a member of the bill", e.PayerID)
	}

	switch e.Policy {
	case models.SplitEqual:
		e.Split = nil
		return nil
	case models.SplitCustom:
		return calculator.ValidateCustomSplit(e.Amount, e.Split, members)
	default:
		return apperr.Invalid("split_policy", "must be one of [equal custom]")
	}
}
