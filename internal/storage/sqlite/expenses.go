package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/models"
	"github.com/mmynk/splitbill/internal/money"
)

const expenseColumns = "id, bill_id, name, amount_cents, payer_id, split_policy, split_json, created_by, created_at, updated_at"

// CreateExpense inserts a new expense.
func (s *SQLiteStore) CreateExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	e.UpdatedAt = e.CreatedAt

	split, err := encodeSplit(e)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.BillID, e.Name, int64(e.Amount), e.PayerID, string(e.Policy), split,
		e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves one expense of a bill.
func (s *SQLiteStore) GetExpense(ctx context.Context, billID, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE bill_id = ? AND id = ?",
		billID, expenseID,
	)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns a bill's expenses in creation order.
func (s *SQLiteStore) ListExpenses(ctx context.Context, billID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE bill_id = ? ORDER BY created_at, rowid",
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	return expenses, nil
}

// UpdateExpense overwrites the mutable fields of an expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = time.Now().Unix()
	split, err := encodeSplit(e)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE expenses
		SET name = ?, amount_cents = ?, payer_id = ?, split_policy = ?, split_json = ?, updated_at = ?
		WHERE bill_id = ? AND id = ?`,
		e.Name, int64(e.Amount), e.PayerID, string(e.Policy), split, e.UpdatedAt,
		e.BillID, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return expectOneRow(result, "expense", e.ID)
}

// DeleteExpense hard-deletes an expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, billID, expenseID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE bill_id = ? AND id = ?", billID, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectOneRow(result, "expense", expenseID)
}

// encodeSplit stores the custom split as a JSON object of integer cents.
// Equal splits store NULL.
func encodeSplit(e *models.Expense) (sql.NullString, error) {
	if e.Policy != models.SplitCustom {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(e.Split)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode split: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var amount int64
	var policy string
	var split sql.NullString
	err := row.Scan(&e.ID, &e.BillID, &e.Name, &amount, &e.PayerID, &policy, &split, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Amount = money.Cents(amount)
	e.Policy = models.SplitPolicy(policy)
	if split.Valid {
		if err := json.Unmarshal([]byte(split.String), &e.Split); err != nil {
			return nil, fmt.Errorf("failed to decode split of expense %s: %w", e.ID, err)
		}
	}
	return e, nil
}
