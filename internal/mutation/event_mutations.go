package mutation

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
)

type RecalculateParams struct {
	UserID  string
	EventID string
}

// RecalculateEventTotals delegates to the server without touching the cache.
// Callers decide what to refetch, typically with InvalidateEvent from OnSuccess.
func (l *Layer) RecalculateEventTotals(ctx context.Context, params RecalculateParams, cb *Callbacks[*domain.Event]) (*domain.Event, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return reject(l, OpRecalculateEventTotals, params.UserID, domain.NewValidationError("userId", domain.ErrUserIDRequired), cb)
	}
	if strings.TrimSpace(params.EventID) == "" {
		return reject(l, OpRecalculateEventTotals, params.UserID, domain.NewValidationError("eventId", domain.ErrEventIDRequired), cb)
	}
	return run(ctx, l, plan{
		op:       OpRecalculateEventTotals,
		userID:   params.UserID,
		eventID:  params.EventID,
		entityID: params.EventID,
		event:    websocket.TotalsRecalculated,
	}, func(ctx context.Context) (*domain.Event, error) {
		return l.actions.RecalculateEventTotals(ctx, params.UserID, params.EventID)
	}, cb)
}
