package readmodel

import (
	"context"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
)

// EventSource loads events from authoritative storage
type EventSource interface {
	GetEvents(ctx context.Context, userID string) ([]*domain.Event, error)
	GetEvent(ctx context.Context, userID, eventID string) (*domain.Event, error)
}

// CategorySource loads categories from authoritative storage
type CategorySource interface {
	GetCategories(ctx context.Context, userID, eventID string) ([]*domain.Category, error)
}

// ExpenseSource loads expenses with their payments from authoritative storage
type ExpenseSource interface {
	GetExpenses(ctx context.Context, userID, eventID string) ([]*domain.Expense, error)
}

// Reader serves the cached read model. Missing or stale entries are reloaded through
// the retry policy and written back, so invalidated keys are refetched on next access.
type Reader struct {
	store      cache.Store
	events     EventSource
	categories CategorySource
	expenses   ExpenseSource
	policy     cache.RetryPolicy
	clock      func() time.Time
}

// NewReader creates a new Reader
func NewReader(store cache.Store, events EventSource, categories CategorySource, expenses ExpenseSource, policy cache.RetryPolicy) *Reader {
	return &Reader{
		store:      store,
		events:     events,
		categories: categories,
		expenses:   expenses,
		policy:     policy,
		clock:      time.Now,
	}
}

// SetClock overrides the time source used for payment status (for tests)
func (r *Reader) SetClock(clock func() time.Time) {
	r.clock = clock
}

// Events returns the user's event list
func (r *Reader) Events(ctx context.Context, userID string) ([]*domain.Event, error) {
	return cache.Fetch(ctx, r.store, cache.EventsKey(userID), func(ctx context.Context) ([]*domain.Event, error) {
		return cache.Retry(ctx, r.policy, func(ctx context.Context) ([]*domain.Event, error) {
			return r.events.GetEvents(ctx, userID)
		})
	})
}

// Event returns one event with its totals. The event key is not user scoped, so the
// cached entry's owner is checked.
func (r *Reader) Event(ctx context.Context, userID, eventID string) (*domain.Event, error) {
	event, err := cache.Fetch(ctx, r.store, cache.EventKey(eventID), func(ctx context.Context) (*domain.Event, error) {
		return cache.Retry(ctx, r.policy, func(ctx context.Context) (*domain.Event, error) {
			return r.events.GetEvent(ctx, userID, eventID)
		})
	})
	if err != nil {
		return nil, err
	}
	if event == nil || event.UserID != userID {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

// Categories returns the categories of an event the user owns
func (r *Reader) Categories(ctx context.Context, userID, eventID string) ([]*domain.Category, error) {
	if _, err := r.Event(ctx, userID, eventID); err != nil {
		return nil, err
	}
	return cache.Fetch(ctx, r.store, cache.CategoriesKey(eventID), func(ctx context.Context) ([]*domain.Category, error) {
		return cache.Retry(ctx, r.policy, func(ctx context.Context) ([]*domain.Category, error) {
			return r.categories.GetCategories(ctx, userID, eventID)
		})
	})
}

// Expenses returns the expenses of an event with their payments
func (r *Reader) Expenses(ctx context.Context, userID, eventID string) ([]*domain.Expense, error) {
	return cache.Fetch(ctx, r.store, cache.ExpensesKey(userID, eventID), func(ctx context.Context) ([]*domain.Expense, error) {
		return cache.Retry(ctx, r.policy, func(ctx context.Context) ([]*domain.Expense, error) {
			return r.expenses.GetExpenses(ctx, userID, eventID)
		})
	})
}

// Expense returns one expense from the event's expense list
func (r *Reader) Expense(ctx context.Context, userID, eventID, expenseID string) (*domain.Expense, error) {
	expenses, err := r.Expenses(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		if e.ID == expenseID {
			return e, nil
		}
	}
	return nil, domain.ErrExpenseNotFound
}
