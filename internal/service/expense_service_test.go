package service

import (
	"context"
	"testing"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpense(t *testing.T) {
	f := newFixture()

	expense, err := f.expenses.CreateExpense(context.Background(), testUser, testEvent, domain.ExpenseInput{
		CategoryID: "cat-food",
		Name:       " Buffet ",
		Amount:     dec("1200"),
		Vendor:     "Chef Co ",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "Buffet", expense.Name)
	assert.Equal(t, "Chef Co", expense.Vendor)
	assert.False(t, expense.HasPaymentSchedule)
	assert.Nil(t, expense.OneOffPayment)
}

func TestCreateExpense_CategoryOfAnotherEvent(t *testing.T) {
	f := newFixture()
	f.categoryRepo.AddCategory(&domain.Category{ID: "cat-other", EventID: "evt-2", UserID: testUser, Name: "Other", Color: "#000"})

	_, err := f.expenses.CreateExpense(context.Background(), testUser, testEvent, domain.ExpenseInput{
		CategoryID: "cat-other",
		Name:       "Buffet",
		Amount:     dec("100"),
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCreateExpense_Validation(t *testing.T) {
	f := newFixture()

	_, err := f.expenses.CreateExpense(context.Background(), testUser, testEvent, domain.ExpenseInput{
		CategoryID: "cat-food",
		Name:       "Buffet",
		Amount:     dec("-5"),
	})
	assert.ErrorIs(t, err, domain.ErrAmountNegative)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetExpenses_IncludesPayments(t *testing.T) {
	f := newFixture()

	expenses, err := f.expenses.GetExpenses(context.Background(), testUser, testEvent)
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	assert.Equal(t, "exp-cake", expenses[0].ID)
	assert.Equal(t, "exp-hall", expenses[1].ID)
	assert.Len(t, expenses[1].PaymentSchedule, 3)
}

func TestGetExpenses_OtherUser(t *testing.T) {
	f := newFixture()

	_, err := f.expenses.GetExpenses(context.Background(), otherUser, testEvent)
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestUpdateExpense_MoveCategory(t *testing.T) {
	f := newFixture()
	_, err := f.events.RecalculateEventTotals(context.Background(), testUser, testEvent)
	require.NoError(t, err)
	target := "cat-food"

	updated, err := f.expenses.UpdateExpense(context.Background(), testUser, testEvent, "exp-hall", domain.ExpenseUpdate{
		CategoryID: &target,
	})
	require.NoError(t, err)

	assert.Equal(t, "cat-food", updated.CategoryID)
	assert.Len(t, updated.PaymentSchedule, 3, "payments move with the expense")
	assert.True(t, f.category("cat-venue").SpentAmount.IsZero())
	assert.True(t, f.category("cat-food").SpentAmount.Equal(dec("300")))
}

func TestUpdateExpense_UnknownCategory(t *testing.T) {
	f := newFixture()
	target := "cat-missing"

	_, err := f.expenses.UpdateExpense(context.Background(), testUser, testEvent, "exp-hall", domain.ExpenseUpdate{
		CategoryID: &target,
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	assert.Equal(t, "cat-venue", f.expense("exp-hall").CategoryID)
}

func TestDeleteExpense(t *testing.T) {
	f := newFixture()
	_, err := f.events.RecalculateEventTotals(context.Background(), testUser, testEvent)
	require.NoError(t, err)

	require.NoError(t, f.expenses.DeleteExpense(context.Background(), testUser, testEvent, "exp-hall"))

	_, ok := f.expenseRepo.Get("exp-hall")
	assert.False(t, ok)
	assert.True(t, f.event().TotalSpentAmount.IsZero())

	err = f.expenses.DeleteExpense(context.Background(), testUser, testEvent, "exp-hall")
	assert.ErrorIs(t, err, domain.ErrExpenseNotFound)
}
