package mutation

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingIDPrefix marks categories that exist only as optimistic placeholders
const PendingIDPrefix = "pending-"

type AddCategoryParams struct {
	UserID   string
	EventID  string
	Category domain.CategoryInput
}

type UpdateCategoryParams struct {
	UserID     string
	EventID    string
	CategoryID string
	Update     domain.CategoryUpdate
}

type DeleteCategoryParams struct {
	UserID     string
	EventID    string
	CategoryID string
}

// AddCategory appends a placeholder category with zero scheduled and spent amounts
// to the cached list, then refetches categories and event totals on success
func (l *Layer) AddCategory(ctx context.Context, params AddCategoryParams, cb *Callbacks[*domain.Category]) (*domain.Category, error) {
	if err := domain.ValidateCategoryInput(params.UserID, params.EventID, params.Category); err != nil {
		return reject(l, OpAddCategory, params.UserID, err, cb)
	}
	categoriesKey := cache.CategoriesKey(params.EventID)
	keys := []cache.Key{categoriesKey, cache.EventKey(params.EventID)}

	return run(ctx, l, plan{
		op:       OpAddCategory,
		userID:   params.UserID,
		eventID:  params.EventID,
		snapshot: keys,
		optimistic: func(ctx context.Context) error {
			now := l.clock()
			_, err := patch(ctx, l.store, categoriesKey, func(categories *[]*domain.Category) bool {
				*categories = append(*categories, &domain.Category{
					ID:              PendingIDPrefix + uuid.NewString(),
					EventID:         params.EventID,
					UserID:          params.UserID,
					Name:            strings.TrimSpace(params.Category.Name),
					BudgetedAmount:  params.Category.BudgetedAmount,
					ScheduledAmount: decimal.Zero,
					SpentAmount:     decimal.Zero,
					Color:           params.Category.Color,
					Icon:            params.Category.Icon,
					CreatedAt:       now,
					UpdatedAt:       now,
				})
				return true
			})
			return err
		},
		invalidate: keys,
		event:      websocket.CategoryCreated,
	}, func(ctx context.Context) (*domain.Category, error) {
		return l.actions.AddCategory(ctx, params.UserID, params.EventID, params.Category)
	}, cb)
}

// UpdateCategory patches the cached category in place before the server call
func (l *Layer) UpdateCategory(ctx context.Context, params UpdateCategoryParams, cb *Callbacks[*domain.Category]) (*domain.Category, error) {
	if err := domain.ValidateCategoryUpdate(params.UserID, params.EventID, params.CategoryID, params.Update); err != nil {
		return reject(l, OpUpdateCategory, params.UserID, err, cb)
	}
	categoriesKey := cache.CategoriesKey(params.EventID)
	keys := []cache.Key{categoriesKey, cache.EventKey(params.EventID)}

	return run(ctx, l, plan{
		op:       OpUpdateCategory,
		userID:   params.UserID,
		eventID:  params.EventID,
		entityID: params.CategoryID,
		snapshot: []cache.Key{categoriesKey},
		optimistic: func(ctx context.Context) error {
			_, err := patch(ctx, l.store, categoriesKey, func(categories *[]*domain.Category) bool {
				for _, c := range *categories {
					if c.ID == params.CategoryID {
						params.Update.Apply(c)
						return true
					}
				}
				return false
			})
			return err
		},
		invalidate: keys,
		event:      websocket.CategoryUpdated,
	}, func(ctx context.Context) (*domain.Category, error) {
		return l.actions.UpdateCategory(ctx, params.UserID, params.EventID, params.CategoryID, params.Update)
	}, cb)
}

// DeleteCategory has no optimistic phase; confirmation happens upstream
func (l *Layer) DeleteCategory(ctx context.Context, params DeleteCategoryParams, cb *Callbacks[struct{}]) error {
	if err := validateCategoryRef(params.UserID, params.EventID, params.CategoryID); err != nil {
		_, err = reject(l, OpDeleteCategory, params.UserID, err, cb)
		return err
	}
	_, err := run(ctx, l, plan{
		op:       OpDeleteCategory,
		userID:   params.UserID,
		eventID:  params.EventID,
		entityID: params.CategoryID,
		invalidate: []cache.Key{
			cache.CategoriesKey(params.EventID),
			cache.ExpensesKey(params.UserID, params.EventID),
		},
		event: websocket.CategoryDeleted,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.actions.DeleteCategory(ctx, params.UserID, params.EventID, params.CategoryID)
	}, cb)
	return err
}

func validateCategoryRef(userID, eventID, categoryID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.NewValidationError("userId", domain.ErrUserIDRequired)
	}
	if strings.TrimSpace(eventID) == "" {
		return domain.NewValidationError("eventId", domain.ErrEventIDRequired)
	}
	if strings.TrimSpace(categoryID) == "" {
		return domain.NewValidationError("categoryId", domain.ErrCategoryNotFound)
	}
	return nil
}
