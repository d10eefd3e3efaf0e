package mutation

import (
	"context"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// patch rewrites the cached value under key, keeping its stale flag.
// fn reports whether it changed anything; nothing is written otherwise.
func patch[T any](ctx context.Context, store cache.Store, key cache.Key, fn func(*T) bool) (bool, error) {
	value, stale, ok, err := cache.Peek[T](ctx, store, key)
	if err != nil || !ok {
		return false, err
	}
	if !fn(&value) {
		return false, nil
	}
	if err := cache.Put(ctx, store, key, value); err != nil {
		return false, err
	}
	if stale {
		return true, store.Invalidate(ctx, key)
	}
	return true, nil
}

// adjustSpent adds delta to the spent totals of the category and of the event,
// both in the event entry and in the user's event list
func adjustSpent(ctx context.Context, store cache.Store, userID, eventID, categoryID string, delta decimal.Decimal) error {
	if delta.IsZero() {
		return nil
	}

	if _, err := patch(ctx, store, cache.CategoriesKey(eventID), func(categories *[]*domain.Category) bool {
		for _, c := range *categories {
			if c.ID == categoryID {
				c.SpentAmount = c.SpentAmount.Add(delta)
				return true
			}
		}
		return false
	}); err != nil {
		return err
	}

	if _, err := patch(ctx, store, cache.EventKey(eventID), func(event **domain.Event) bool {
		if *event == nil {
			return false
		}
		(*event).TotalSpentAmount = (*event).TotalSpentAmount.Add(delta)
		return true
	}); err != nil {
		return err
	}

	_, err := patch(ctx, store, cache.EventsKey(userID), func(events *[]*domain.Event) bool {
		for _, e := range *events {
			if e.ID == eventID {
				e.TotalSpentAmount = e.TotalSpentAmount.Add(delta)
				return true
			}
		}
		return false
	})
	return err
}
