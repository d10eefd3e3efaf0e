package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCategory_UpdatesEventBudget(t *testing.T) {
	f := newFixture()

	category, err := f.categories.AddCategory(context.Background(), testUser, testEvent, domain.CategoryInput{
		Name:           " Flowers ",
		BudgetedAmount: dec("500"),
		Color:          "#ffc0cb",
	})
	require.NoError(t, err)

	assert.Equal(t, "Flowers", category.Name)
	assert.True(t, category.ScheduledAmount.IsZero())
	assert.True(t, category.SpentAmount.IsZero())
	assert.True(t, f.event().TotalBudgetedAmount.Equal(dec("7500")))
}

func TestAddCategory_Validation(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		input   domain.CategoryInput
		wantErr error
	}{
		{"empty name", domain.CategoryInput{Name: " ", Color: "#fff"}, domain.ErrNameRequired},
		{"negative budget", domain.CategoryInput{Name: "DJ", Color: "#fff", BudgetedAmount: dec("-1")}, domain.ErrAmountNegative},
		{"missing color", domain.CategoryInput{Name: "DJ"}, domain.ErrColorRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.AddCategory(context.Background(), testUser, testEvent, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddCategory_UnknownEvent(t *testing.T) {
	f := newFixture()

	_, err := f.categories.AddCategory(context.Background(), otherUser, testEvent, domain.CategoryInput{
		Name: "DJ", Color: "#fff", BudgetedAmount: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestUpdateCategory_BudgetRecalculates(t *testing.T) {
	f := newFixture()
	budget := dec("6000")

	updated, err := f.categories.UpdateCategory(context.Background(), testUser, testEvent, "cat-venue", domain.CategoryUpdate{
		BudgetedAmount: &budget,
	})
	require.NoError(t, err)

	assert.True(t, updated.BudgetedAmount.Equal(budget))
	assert.True(t, f.event().TotalBudgetedAmount.Equal(dec("8000")))
}

func TestUpdateCategory_EmptyUpdate(t *testing.T) {
	f := newFixture()

	_, err := f.categories.UpdateCategory(context.Background(), testUser, testEvent, "cat-venue", domain.CategoryUpdate{})
	assert.ErrorIs(t, err, domain.ErrNoFieldsToUpdate)
}

func TestDeleteCategory_CascadesExpenses(t *testing.T) {
	f := newFixture()
	_, err := f.events.RecalculateEventTotals(context.Background(), testUser, testEvent)
	require.NoError(t, err)

	require.NoError(t, f.categories.DeleteCategory(context.Background(), testUser, testEvent, "cat-venue"))

	_, ok := f.expenseRepo.Get("exp-hall")
	assert.False(t, ok, "expenses of the category should be removed")

	event := f.event()
	assert.True(t, event.TotalBudgetedAmount.Equal(dec("2000")))
	assert.True(t, event.TotalSpentAmount.IsZero())
	assert.True(t, event.TotalScheduledAmount.IsZero())
}

func TestDeleteCategory_NotFound(t *testing.T) {
	f := newFixture()

	err := f.categories.DeleteCategory(context.Background(), testUser, testEvent, "cat-missing")
	assert.True(t, errors.Is(err, domain.ErrCategoryNotFound))
}
