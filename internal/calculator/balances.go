package calculator

import (
	"log/slog"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
)

// Tally is what one member paid and owes across a bill's expenses.
type Tally struct {
	Paid money.Cents
	Owed money.Cents
}

// Net returns paid minus owed. Positive means the member is owed money.
func (t Tally) Net() money.Cents {
	return t.Paid - t.Owed
}

// Transfer is a single payment that moves a debtor toward zero.
type Transfer struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount money.Cents
}

// ComputeTallies aggregates paid and owed totals for every member.
//
// Algorithm:
//   - For each expense: payer contributed +amount
//   - Each member owes their resolved share (see ResolveShares)
//
// A payer who is not a current member is a stale reference and fails with a
// validation error.
func ComputeTallies(expenses []*models.Expense, members []string) (map[string]Tally, error) {
	tallies := make(map[string]Tally, len(members))
	for _, id := range members {
		tallies[id] = Tally{}
	}

	for _, e := range expenses {
		payer, ok := tallies[e.PayerID]
		if !ok {
			return nil, apperr.Invalid("payer_id", "expense %s was paid by %s, who is no longer a member of the bill", e.ID, e.PayerID)
		}
		paid, err := money.Add(payer.Paid, e.Amount)
		if err != nil {
			return nil, apperr.Invariant("tallies", "paid total of %s: %v", e.PayerID, err)
		}
		payer.Paid = paid
		tallies[e.PayerID] = payer

		shares, err := ResolveShares(e, members)
		if err != nil {
			return nil, err
		}
		for id, share := range shares {
			t := tallies[id]
			if t.Owed, err = money.Add(t.Owed, share); err != nil {
				return nil, apperr.Invariant("tallies", "owed total of %s: %v", id, err)
			}
			tallies[id] = t
		}
	}

	return tallies, nil
}

// ComputeBalances returns the net balance of every member. A bill with no
// expenses yields all-zero balances.
func ComputeBalances(expenses []*models.Expense, members []string) (map[string]money.Cents, error) {
	tallies, err := ComputeTallies(expenses, members)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]money.Cents, len(tallies))
	for id, t := range tallies {
		balances[id] = t.Net()
	}
	return balances, nil
}

// ComputeTransfers derives a short list of payments that settles balances.
//
// Greedy matching: the largest creditor is paired with the largest debtor
// and min(credit, debt) moves between them, until every balance is zero.
// Ties are broken by identity order. Each step zeroes at least one side, so
// n non-zero balances produce at most n-1 transfers.
//
// Balances must net to zero. A residual of exactly one cent is absorbed by
// the largest-magnitude holder; anything larger is an invariant violation.
func ComputeTransfers(balances map[string]money.Cents) ([]Transfer, error) {
	remaining := make(map[string]money.Cents, len(balances))
	var net money.Cents
	for _, id := range sortedKeys(balances) {
		b := balances[id]
		if b != 0 {
			remaining[id] = b
		}
		var err error
		if net, err = money.Add(net, b); err != nil {
			return nil, apperr.Invariant("balances", "net of balances: %v", err)
		}
	}

	switch {
	case net == 0:
	case net.Abs() == 1:
		holder := largestHolder(remaining)
		slog.Warn("absorbing residual cent in settlement", "holder", holder, "residual", net.String())
		remaining[holder] -= net
		if remaining[holder] == 0 {
			delete(remaining, holder)
		}
	default:
		return nil, apperr.Invariant("balances", "balances net to %s instead of zero", net)
	}

	var transfers []Transfer
	for len(remaining) > 0 {
		creditor, debtor := pick(remaining)
		if creditor == "" || debtor == "" {
			return nil, apperr.Invariant("balances", "unmatched balances remain: %v", remaining)
		}

		amount := min(remaining[creditor], -remaining[debtor])
		transfers = append(transfers, Transfer{From: debtor, To: creditor, Amount: amount})

		remaining[creditor] -= amount
		remaining[debtor] += amount
		if remaining[creditor] == 0 {
			delete(remaining, creditor)
		}
		if remaining[debtor] == 0 {
			delete(remaining, debtor)
		}
	}

	return transfers, nil
}

// pick returns the largest creditor and the largest debtor, preferring the
// smaller identity on ties.
func pick(balances map[string]money.Cents) (creditor, debtor string) {
	for _, id := range sortedKeys(balances) {
		b := balances[id]
		switch {
		case b > 0 && (creditor == "" || b > balances[creditor]):
			creditor = id
		case b < 0 && (debtor == "" || b < balances[debtor]):
			debtor = id
		}
	}
	return creditor, debtor
}

func largestHolder(balances map[string]money.Cents) string {
	var holder string
	for _, id := range sortedKeys(balances) {
		if holder == "" || balances[id].Abs() > balances[holder].Abs() {
			holder = id
		}
	}
	return holder
}
