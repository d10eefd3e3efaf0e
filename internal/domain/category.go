package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrCategoryNotFound = errors.New("category not found")

// Category groups expenses under a budget line
type Category struct {
	ID              string          `json:"id"`
	EventID         string          `json:"eventId"`
	UserID          string          `json:"userId"`
	Name            string          `json:"name"`
	BudgetedAmount  decimal.Decimal `json:"budgetedAmount"`
	ScheduledAmount decimal.Decimal `json:"scheduledAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	Color           string          `json:"color"`
	Icon            string          `json:"icon,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// CategoryInput is the payload for adding a category
type CategoryInput struct {
	Name           string          `json:"name"`
	BudgetedAmount decimal.Decimal `json:"budgetedAmount"`
	Color          string          `json:"color"`
	Icon           string          `json:"icon,omitempty"`
}

// CategoryUpdate carries optional category fields; nil means unchanged
type CategoryUpdate struct {
	Name           *string          `json:"name,omitempty"`
	BudgetedAmount *decimal.Decimal `json:"budgetedAmount,omitempty"`
	Color          *string          `json:"color,omitempty"`
	Icon           *string          `json:"icon,omitempty"`
}

// IsEmpty reports whether no field was provided
func (u CategoryUpdate) IsEmpty() bool {
	return u.Name == nil && u.BudgetedAmount == nil && u.Color == nil && u.Icon == nil
}

// ValidateCategoryInput checks the fields required to add a category
func ValidateCategoryInput(userID, eventID string, in CategoryInput) error {
	if err := validateOwner(userID, eventID); err != nil {
		return err
	}
	if err := validateName(in.Name); err != nil {
		return err
	}
	if in.BudgetedAmount.IsNegative() {
		return NewValidationError("budgetedAmount", ErrAmountNegative)
	}
	if strings.TrimSpace(in.Color) == "" {
		return NewValidationError("color", ErrColorRequired)
	}
	return nil
}

// ValidateCategoryUpdate checks the provided fields of a partial category update
func ValidateCategoryUpdate(userID, eventID, categoryID string, in CategoryUpdate) error {
	if err := validateOwner(userID, eventID); err != nil {
		return err
	}
	if categoryID == "" {
		return NewValidationError("categoryId", ErrCategoryNotFound)
	}
	if in.IsEmpty() {
		return NewValidationError("update", ErrNoFieldsToUpdate)
	}
	if in.Name != nil {
		if err := validateName(*in.Name); err != nil {
			return err
		}
	}
	if in.BudgetedAmount != nil && in.BudgetedAmount.IsNegative() {
		return NewValidationError("budgetedAmount", ErrAmountNegative)
	}
	if in.Color != nil && strings.TrimSpace(*in.Color) == "" {
		return NewValidationError("color", ErrColorRequired)
	}
	return nil
}

// Apply copies the provided fields onto c
func (u CategoryUpdate) Apply(c *Category) {
	if u.Name != nil {
		c.Name = strings.TrimSpace(*u.Name)
	}
	if u.BudgetedAmount != nil {
		c.BudgetedAmount = *u.BudgetedAmount
	}
	if u.Color != nil {
		c.Color = *u.Color
	}
	if u.Icon != nil {
		c.Icon = *u.Icon
	}
}

func validateOwner(userID, eventID string) error {
	if strings.TrimSpace(userID) == "" {
		return NewValidationError("userId", ErrUserIDRequired)
	}
	if strings.TrimSpace(eventID) == "" {
		return NewValidationError("eventId", ErrEventIDRequired)
	}
	return nil
}

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return NewValidationError("name", ErrNameRequired)
	}
	if len(name) > MaxNameLength {
		return NewValidationError("name", ErrNameTooLong)
	}
	return nil
}

// CategoryTotals are the recalculated aggregates for one category
type CategoryTotals struct {
	CategoryID      string          `json:"categoryId"`
	ScheduledAmount decimal.Decimal `json:"scheduledAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *Category) (*Category, error)
	GetByID(ctx context.Context, eventID string, id string) (*Category, error)
	GetAllByEvent(ctx context.Context, eventID string) ([]*Category, error)
	Update(ctx context.Context, category *Category) (*Category, error)
	// Delete removes the category together with its expenses and their payments
	Delete(ctx context.Context, eventID string, id string) error
}
