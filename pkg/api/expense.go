package api

// AddExpenseRequest records an expense. A custom split may be given as
// decimal strings (split) or as cents (split_cents), not both. The split is
// ignored for the equal policy.
type AddExpenseRequest struct {
	BillID      string            `json:"bill_id" validate:"required"`
	Name        string            `json:"name" validate:"required,max=255"`
	Amount      string            `json:"amount,omitempty" validate:"required_without=AmountCents,excluded_with=AmountCents,positive_amount"`
	AmountCents int64             `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	PayerID     string            `json:"payer_id" validate:"required"`
	SplitPolicy string            `json:"split_policy" validate:"required,oneof=equal custom"`
	Split       map[string]string `json:"split,omitempty" validate:"omitempty,dive,keys,required,endkeys,required,nonnegative_amount"`
	SplitCents  map[string]int64  `json:"split_cents,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}

type AddExpenseResponse struct {
	Expense Expense `json:"expense"`
}

// UpdateExpenseRequest is a partial update. Nil fields are left unchanged.
// As with AddExpenseRequest, at most one form of the amount and of the split
// may be set.
// Switching split_policy to "equal" clears the stored split.
type UpdateExpenseRequest struct {
	BillID      string            `json:"bill_id" validate:"required"`
	ExpenseID   string            `json:"expense_id" validate:"required"`
	Name        *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Amount      *string           `json:"amount,omitempty" validate:"omitempty,positive_amount"`
	AmountCents *int64            `json:"amount_cents,omitempty" validate:"omitempty,gt=0"`
	PayerID     *string           `json:"payer_id,omitempty" validate:"omitempty,min=1"`
	SplitPolicy *string           `json:"split_policy,omitempty" validate:"omitempty,oneof=equal custom"`
	Split       map[string]string `json:"split,omitempty" validate:"omitempty,dive,keys,required,endkeys,required,nonnegative_amount"`
	SplitCents  map[string]int64  `json:"split_cents,omitempty" validate:"omitempty,dive,keys,required,endkeys,gte=0"`
}

type UpdateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type RemoveExpenseRequest struct {
	BillID    string `json:"bill_id" validate:"required"`
	ExpenseID string `json:"expense_id" validate:"required"`
}

type RemoveExpenseResponse struct{}

type ListExpensesRequest struct {
	BillID string `json:"bill_id" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type GetExpenseSharesRequest struct {
	BillID    string `json:"bill_id" validate:"required"`
	ExpenseID string `json:"expense_id" validate:"required"`
}

type GetExpenseSharesResponse struct {
	Expense Expense `json:"expense"`
	Shares  []Share `json:"shares"`
}
