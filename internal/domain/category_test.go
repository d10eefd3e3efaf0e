package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateCategoryInput(t *testing.T) {
	valid := CategoryInput{Name: "Venue", BudgetedAmount: decimal.NewFromInt(5000), Color: "#ff8800"}

	tests := []struct {
		name    string
		userID  string
		eventID string
		input   CategoryInput
		wantErr error
	}{
		{"valid", "user-1", "event-1", valid, nil},
		{"missing user", "", "event-1", valid, ErrUserIDRequired},
		{"missing event", "user-1", " ", valid, ErrEventIDRequired},
		{"empty name", "user-1", "event-1", CategoryInput{Name: "  ", Color: "#fff"}, ErrNameRequired},
		{"negative budget", "user-1", "event-1", CategoryInput{Name: "Venue", BudgetedAmount: decimal.NewFromInt(-1), Color: "#fff"}, ErrAmountNegative},
		{"missing color", "user-1", "event-1", CategoryInput{Name: "Venue"}, ErrColorRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCategoryInput(tt.userID, tt.eventID, tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestValidateCategoryUpdate(t *testing.T) {
	empty := ""
	name := "Flowers"
	negative := decimal.NewFromInt(-10)

	assert.ErrorIs(t, ValidateCategoryUpdate("u", "e", "c", CategoryUpdate{}), ErrNoFieldsToUpdate)
	assert.ErrorIs(t, ValidateCategoryUpdate("u", "e", "c", CategoryUpdate{Name: &empty}), ErrNameRequired)
	assert.ErrorIs(t, ValidateCategoryUpdate("u", "e", "c", CategoryUpdate{Color: &empty}), ErrColorRequired)
	assert.ErrorIs(t, ValidateCategoryUpdate("u", "e", "c", CategoryUpdate{BudgetedAmount: &negative}), ErrAmountNegative)
	assert.NoError(t, ValidateCategoryUpdate("u", "e", "c", CategoryUpdate{Name: &name}))
}

func TestCategoryUpdate_Apply(t *testing.T) {
	name := "  Catering "
	budget := decimal.NewFromInt(1200)
	category := &Category{Name: "Food", BudgetedAmount: decimal.NewFromInt(900), Color: "#000"}

	CategoryUpdate{Name: &name, BudgetedAmount: &budget}.Apply(category)

	assert.Equal(t, "Catering", category.Name)
	assert.True(t, category.BudgetedAmount.Equal(budget))
	assert.Equal(t, "#000", category.Color)
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("name", ErrNameRequired)

	assert.Equal(t, "name: name is required", err.Error())
	assert.True(t, errors.Is(err, ErrNameRequired))
}
