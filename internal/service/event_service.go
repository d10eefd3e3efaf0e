package service

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Clock returns the current time; overdue classification and paid-at stamps use it
type Clock func() time.Time

// EventService handles event business logic and owns totals recalculation
type EventService struct {
	eventRepo    domain.EventRepository
	categoryRepo domain.CategoryRepository
	expenseRepo  domain.ExpenseRepository
	clock        Clock
}

// NewEventService creates a new EventService
func NewEventService(eventRepo domain.EventRepository, categoryRepo domain.CategoryRepository, expenseRepo domain.ExpenseRepository) *EventService {
	return &EventService{
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		clock:        time.Now,
	}
}

// SetClock overrides the time source (for tests)
func (s *EventService) SetClock(clock Clock) {
	s.clock = clock
}

// Now returns the service's current time
func (s *EventService) Now() time.Time {
	return s.clock()
}

// CreateEvent creates a new event with zero totals
func (s *EventService) CreateEvent(ctx context.Context, userID string, input domain.EventInput) (*domain.Event, error) {
	event := &domain.Event{
		UserID:               userID,
		Name:                 strings.TrimSpace(input.Name),
		EventType:            input.EventType,
		EventDate:            input.EventDate,
		TotalBudgetedAmount:  decimal.Zero,
		TotalScheduledAmount: decimal.Zero,
		TotalSpentAmount:     decimal.Zero,
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return s.eventRepo.Create(ctx, event)
}

// GetEvents retrieves all events of a user
func (s *EventService) GetEvents(ctx context.Context, userID string) ([]*domain.Event, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", domain.ErrUserIDRequired)
	}
	return s.eventRepo.GetAllByUser(ctx, userID)
}

// GetEvent retrieves an event the user owns
func (s *EventService) GetEvent(ctx context.Context, userID, eventID string) (*domain.Event, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", domain.ErrUserIDRequired)
	}
	if eventID == "" {
		return nil, domain.NewValidationError("eventId", domain.ErrEventIDRequired)
	}
	return s.eventRepo.GetByID(ctx, userID, eventID)
}

// UpdateEvent updates the provided event fields
func (s *EventService) UpdateEvent(ctx context.Context, userID, eventID string, input domain.EventUpdate) (*domain.Event, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	event, err := s.GetEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	input.Apply(event)
	return s.eventRepo.Update(ctx, event)
}

// DeleteEvent removes an event together with its categories, expenses and payments
func (s *EventService) DeleteEvent(ctx context.Context, userID, eventID string) error {
	if _, err := s.GetEvent(ctx, userID, eventID); err != nil {
		return err
	}
	return s.eventRepo.Delete(ctx, userID, eventID)
}

// RecalculateEventTotals recomputes every category's scheduled and spent amounts from
// its expenses' payments, then the event totals from its categories, and stores both
// in one write
func (s *EventService) RecalculateEventTotals(ctx context.Context, userID, eventID string) (*domain.Event, error) {
	event, err := s.GetEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	categories, err := s.categoryRepo.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenseRepo.GetAllByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]*domain.Expense, len(categories))
	for _, e := range expenses {
		byCategory[e.CategoryID] = append(byCategory[e.CategoryID], e)
	}

	now := s.clock()
	totals := domain.EventTotals{
		TotalBudgetedAmount:  decimal.Zero,
		TotalScheduledAmount: decimal.Zero,
		TotalSpentAmount:     decimal.Zero,
	}
	categoryTotals := make([]domain.CategoryTotals, 0, len(categories))
	for _, c := range categories {
		ct := domain.CalculateCategoryTotals(c.ID, byCategory[c.ID], now)
		categoryTotals = append(categoryTotals, ct)

		totals.TotalBudgetedAmount = totals.TotalBudgetedAmount.Add(c.BudgetedAmount)
		totals.TotalScheduledAmount = totals.TotalScheduledAmount.Add(ct.ScheduledAmount)
		totals.TotalSpentAmount = totals.TotalSpentAmount.Add(ct.SpentAmount)
	}

	if err := s.eventRepo.ApplyTotals(ctx, eventID, totals, categoryTotals); err != nil {
		return nil, err
	}

	event.TotalBudgetedAmount = totals.TotalBudgetedAmount
	event.TotalScheduledAmount = totals.TotalScheduledAmount
	event.TotalSpentAmount = totals.TotalSpentAmount
	return event, nil
}

// requireEvent checks that the user owns the event
func (s *EventService) requireEvent(ctx context.Context, userID, eventID string) error {
	_, err := s.GetEvent(ctx, userID, eventID)
	return err
}

// syncTotals recalculates the event totals after a write. A failure leaves the stored
// totals behind the data until the totals worker reconciles them.
func (s *EventService) syncTotals(ctx context.Context, userID, eventID string) {
	if _, err := s.RecalculateEventTotals(ctx, userID, eventID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Str("event_id", eventID).Msg("Failed to recalculate event totals")
	}
}
