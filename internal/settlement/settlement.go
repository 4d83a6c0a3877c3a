// Package settlement derives balances and suggested transfers for a bill.
// Nothing is cached: every call re-reads the roster and the ledger.
package settlement

import (
	"context"

	"github.com/mmynk/splitbill/internal/calculator"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
	"github.com/mmynk/splitbill/internal/registry"
	"github.com/mmynk/splitbill/internal/storage"
)

// Authorizer loads a bill's roster on behalf of a caller.
type Authorizer interface {
	Authorize(ctx context.Context, caller models.Caller, billID string) (*registry.Roster, error)
}

// MemberBalance is one member's standing on a bill.
type MemberBalance struct {
	Member models.Member
	Paid   money.Cents
	Owed   money.Cents
	Net    money.Cents // Positive = owed money, Negative = owes money
}

// Summary is the settlement state of a bill.
type Summary struct {
	// Balances follow roster order: host, registered participants, guests.
	Balances  []MemberBalance
	Transfers []calculator.Transfer
}

// Aggregator computes settlement summaries.
type Aggregator struct {
	members  Authorizer
	expenses storage.ExpenseStore
}

// NewAggregator creates an Aggregator.
func NewAggregator(members Authorizer, expenses storage.ExpenseStore) *Aggregator {
	return &Aggregator{members: members, expenses: expenses}
}

// Summarize computes member balances and transfers from the current roster
// and expenses. It does not take the bill lock; a member removed between
// the two reads surfaces as a validation error.
func (a *Aggregator) Summarize(ctx context.Context, caller models.Caller, billID string) (*Summary, error) {
	roster, err := a.members.Authorize(ctx, caller, billID)
	if err != nil {
		return nil, err
	}
	expenses, err := a.expenses.ListExpenses(ctx, billID)
	if err != nil {
		return nil, err
	}

	tallies, err := calculator.ComputeTallies(expenses, roster.Identities())
	if err != nil {
		return nil, err
	}

	summary := &Summary{Balances: make([]MemberBalance, 0, len(roster.Members))}
	balances := make(map[string]money.Cents, len(tallies))
	for _, m := range roster.Members {
		t := tallies[m.Identity]
		summary.Balances = append(summary.Balances, MemberBalance{
			Member: m,
			Paid:   t.Paid,
			Owed:   t.Owed,
			Net:    t.Net(),
		})
		balances[m.Identity] = t.Net()
	}

	summary.Transfers, err = calculator.ComputeTransfers(balances)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
