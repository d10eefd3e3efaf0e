package service

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
)

// ExpenseService handles expense business logic. Payments are managed by PaymentService.
type ExpenseService struct {
	expenseRepo  domain.ExpenseRepository
	categoryRepo domain.CategoryRepository
	events       *EventService
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(expenseRepo domain.ExpenseRepository, categoryRepo domain.CategoryRepository, events *EventService) *ExpenseService {
	return &ExpenseService{
		expenseRepo:  expenseRepo,
		categoryRepo: categoryRepo,
		events:       events,
	}
}

// CreateExpense adds an expense without payments to a category of the event
func (s *ExpenseService) CreateExpense(ctx context.Context, userID, eventID string, input domain.ExpenseInput) (*domain.Expense, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(ctx, eventID, input.CategoryID); err != nil {
		return nil, err
	}

	expense, err := s.expenseRepo.Create(ctx, &domain.Expense{
		EventID:     eventID,
		CategoryID:  input.CategoryID,
		UserID:      userID,
		Name:        strings.TrimSpace(input.Name),
		Amount:      input.Amount,
		Vendor:      strings.TrimSpace(input.Vendor),
		Notes:       input.Notes,
		ExpenseDate: input.ExpenseDate,
	})
	if err != nil {
		return nil, err
	}

	s.events.syncTotals(ctx, userID, eventID)
	return expense, nil
}

// GetExpenses retrieves every expense of an event with its payments
func (s *ExpenseService) GetExpenses(ctx context.Context, userID, eventID string) ([]*domain.Expense, error) {
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.expenseRepo.GetAllByEvent(ctx, eventID)
}

// GetExpense retrieves one expense of an event with its payments
func (s *ExpenseService) GetExpense(ctx context.Context, userID, eventID, expenseID string) (*domain.Expense, error) {
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return s.expenseRepo.GetByID(ctx, eventID, expenseID)
}

// UpdateExpense updates the provided expense fields. Moving an expense requires the
// target category to belong to the same event.
func (s *ExpenseService) UpdateExpense(ctx context.Context, userID, eventID, expenseID string, input domain.ExpenseUpdate) (*domain.Expense, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	expense, err := s.GetExpense(ctx, userID, eventID, expenseID)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != nil && *input.CategoryID != expense.CategoryID {
		if _, err := s.categoryRepo.GetByID(ctx, eventID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	input.Apply(expense)
	updated, err := s.expenseRepo.Update(ctx, expense)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil || input.Amount != nil {
		s.events.syncTotals(ctx, userID, eventID)
	}
	return updated, nil
}

// DeleteExpense removes an expense and its payments
func (s *ExpenseService) DeleteExpense(ctx context.Context, userID, eventID, expenseID string) error {
	if _, err := s.GetExpense(ctx, userID, eventID, expenseID); err != nil {
		return err
	}
	if err := s.expenseRepo.Delete(ctx, eventID, expenseID); err != nil {
		return err
	}
	s.events.syncTotals(ctx, userID, eventID)
	return nil
}
