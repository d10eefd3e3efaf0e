package readmodel

import (
	"context"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
)

// ExpenseStatus is the payment view of one expense
type ExpenseStatus struct {
	ExpenseID string                          `json:"expenseId"`
	Result    domain.PaymentCalculationResult `json:"result"`
	Status    domain.PaymentStatusText        `json:"status"`
}

// CategoryStats is the payment aggregate of one category
type CategoryStats struct {
	CategoryID string                      `json:"categoryId"`
	Stats      domain.CategoryPaymentStats `json:"stats"`
}

// ExpensePaymentStatus computes the payment status of an expense from the read model
func (r *Reader) ExpensePaymentStatus(ctx context.Context, userID, eventID, expenseID string) (*ExpenseStatus, error) {
	expense, err := r.Expense(ctx, userID, eventID, expenseID)
	if err != nil {
		return nil, err
	}
	result := domain.CalculatePaymentStatus(expense, r.clock())
	return &ExpenseStatus{
		ExpenseID: expenseID,
		Result:    result,
		Status:    domain.GetPaymentStatusText(result),
	}, nil
}

// CategoryPaymentStats aggregates the payment status of a category's expenses
func (r *Reader) CategoryPaymentStats(ctx context.Context, userID, eventID, categoryID string) (*CategoryStats, error) {
	categories, err := r.Categories(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, c := range categories {
		if c.ID == categoryID {
			found = true
			break
		}
	}
	if !found {
		return nil, domain.ErrCategoryNotFound
	}

	expenses, err := r.Expenses(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	inCategory := make([]*domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.CategoryID == categoryID {
			inCategory = append(inCategory, e)
		}
	}

	return &CategoryStats{
		CategoryID: categoryID,
		Stats:      domain.CalculateCategoryPaymentStats(inCategory, r.clock()),
	}, nil
}
