package service

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	events       *EventService
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categoryRepo domain.CategoryRepository, events *EventService) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo, events: events}
}

// AddCategory creates a category with zero scheduled and spent amounts
func (s *CategoryService) AddCategory(ctx context.Context, userID, eventID string, input domain.CategoryInput) (*domain.Category, error) {
	if err := domain.ValidateCategoryInput(userID, eventID, input); err != nil {
		return nil, err
	}
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.Create(ctx, &domain.Category{
		EventID:         eventID,
		UserID:          userID,
		Name:            strings.TrimSpace(input.Name),
		BudgetedAmount:  input.BudgetedAmount,
		ScheduledAmount: decimal.Zero,
		SpentAmount:     decimal.Zero,
		Color:           input.Color,
		Icon:            input.Icon,
	})
	if err != nil {
		return nil, err
	}

	s.events.syncTotals(ctx, userID, eventID)
	return category, nil
}

// GetCategories retrieves the categories of an event the user owns
func (s *CategoryService) GetCategories(ctx context.Context, userID, eventID string) ([]*domain.Category, error) {
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetAllByEvent(ctx, eventID)
}

// GetCategory retrieves one category of an event the user owns
func (s *CategoryService) GetCategory(ctx context.Context, userID, eventID, categoryID string) (*domain.Category, error) {
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.categoryRepo.GetByID(ctx, eventID, categoryID)
}

// UpdateCategory updates the provided category fields
func (s *CategoryService) UpdateCategory(ctx context.Context, userID, eventID, categoryID string, input domain.CategoryUpdate) (*domain.Category, error) {
	if err := domain.ValidateCategoryUpdate(userID, eventID, categoryID, input); err != nil {
		return nil, err
	}
	category, err := s.GetCategory(ctx, userID, eventID, categoryID)
	if err != nil {
		return nil, err
	}

	input.Apply(category)
	updated, err := s.categoryRepo.Update(ctx, category)
	if err != nil {
		return nil, err
	}

	if input.BudgetedAmount != nil {
		s.events.syncTotals(ctx, userID, eventID)
	}
	return updated, nil
}

// DeleteCategory removes a category with its expenses and payments
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, eventID, categoryID string) error {
	if _, err := s.GetCategory(ctx, userID, eventID, categoryID); err != nil {
		return err
	}
	if err := s.categoryRepo.Delete(ctx, eventID, categoryID); err != nil {
		return err
	}
	s.events.syncTotals(ctx, userID, eventID)
	return nil
}
