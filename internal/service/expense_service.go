package service

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/ledger"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
	"github.com/mmynk/splitbill/pkg/api"
	"github.com/mmynk/splitbill/pkg/api/apiconnect"
)

var _ apiconnect.ExpenseServiceHandler = (*ExpenseService)(nil)

// ExpenseService implements the Connect ExpenseService on top of the ledger.
type ExpenseService struct {
	ledger  *ledger.Ledger
	metrics *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService. m may be nil.
func NewExpenseService(l *ledger.Ledger, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{ledger: l, metrics: m}
}

// AddExpense records a new expense.
func (s *ExpenseService) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	in, err := expenseInput(req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	e, err := s.ledger.AddExpense(ctx, caller, req.Msg.BillID, in)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.AddExpenseResponse{Expense: expenseToAPI(e)}), nil
}

func expenseInput(msg *api.AddExpenseRequest) (ledger.ExpenseInput, error) {
	amount, err := amountFrom(msg.Amount, msg.AmountCents)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	split, err := splitFrom(msg.Split, msg.SplitCents)
	if err != nil {
		return ledger.ExpenseInput{}, err
	}
	return ledger.ExpenseInput{
		Name:    msg.Name,
		Amount:  amount,
		PayerID: msg.PayerID,
		Policy:  models.SplitPolicy(msg.SplitPolicy),
		Split:   split,
	}, nil
}

// UpdateExpense applies a partial update to an expense.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	patch, err := expensePatch(req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	e, err := s.ledger.UpdateExpense(ctx, caller, req.Msg.BillID, req.Msg.ExpenseID, patch)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.UpdateExpenseResponse{Expense: expenseToAPI(e)}), nil
}

func expensePatch(msg *api.UpdateExpenseRequest) (ledger.ExpensePatch, error) {
	patch := ledger.ExpensePatch{
		Name:    msg.Name,
		PayerID: msg.PayerID,
	}

	switch {
	case msg.Amount != nil && msg.AmountCents != nil:
		return patch, apperr.Invalid("amount", "set either amount or amount_cents, not both")
	case msg.Amount != nil:
		amount, err := amountFrom(*msg.Amount, 0)
		if err != nil {
			return patch, err
		}
		patch.Amount = &amount
	case msg.AmountCents != nil:
		amount, err := amountFrom("", *msg.AmountCents)
		if err != nil {
			return patch, err
		}
		patch.Amount = &amount
	}

	if msg.SplitPolicy != nil {
		policy := models.SplitPolicy(*msg.SplitPolicy)
		patch.Policy = &policy
	}

	split, err := splitFrom(msg.Split, msg.SplitCents)
	if err != nil {
		return patch, err
	}
	patch.Split = split
	return patch, nil
}

// RemoveExpense deletes an expense.
func (s *ExpenseService) RemoveExpense(ctx context.Context, req *connect.Request[api.RemoveExpenseRequest]) (*connect.Response[api.RemoveExpenseResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	if err := s.ledger.RemoveExpense(ctx, caller, req.Msg.BillID, req.Msg.ExpenseID); err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	return connect.NewResponse(&api.RemoveExpenseResponse{}), nil
}

// ListExpenses returns every expense of a bill.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	expenses, err := s.ledger.ListExpenses(ctx, caller, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	resp := &api.ListExpensesResponse{Expenses: make([]api.Expense, 0, len(expenses))}
	for _, e := range expenses {
		resp.Expenses = append(resp.Expenses, expenseToAPI(e))
	}
	return connect.NewResponse(resp), nil
}

// GetExpenseShares resolves what each member owes for one expense.
func (s *ExpenseService) GetExpenseShares(ctx context.Context, req *connect.Request[api.GetExpenseSharesRequest]) (*connect.Response[api.GetExpenseSharesResponse], error) {
	caller, err := begin(ctx, req.Msg)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}

	e, roster, shares, err := s.ledger.Shares(ctx, caller, req.Msg.BillID, req.Msg.ExpenseID)
	if err != nil {
		return nil, toConnectError(err, s.metrics)
	}
	if total := money.Sum(shares); total != e.Amount {
		return nil, toConnectError(apperr.Invariant("shares", "shares of %s sum to %s, amount is %s", e.ID, total, e.Amount), s.metrics)
	}

	return connect.NewResponse(&api.GetExpenseSharesResponse{
		Expense: expenseToAPI(e),
		Shares:  sharesToAPI(roster, shares),
	}), nil
}
