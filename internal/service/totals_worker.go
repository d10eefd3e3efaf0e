package service

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/rs/zerolog"
)

// Invalidator drops the cached read model of an event
type Invalidator interface {
	InvalidateEvent(ctx context.Context, userID, eventID string) []string
}

// TotalsWorker periodically recalculates the stored totals of every event so drift
// left by a failed post-write recalculation is repaired
type TotalsWorker struct {
	events      *EventService
	eventRepo   domain.EventRepository
	invalidator Invalidator
	logger      zerolog.Logger
	interval    time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	mu          sync.Mutex
	running     bool
}

// TotalsWorkerConfig holds configuration for the totals worker
type TotalsWorkerConfig struct {
	Interval time.Duration // How often to reconcile totals
}

// DefaultTotalsWorkerConfig returns sensible defaults
func DefaultTotalsWorkerConfig() TotalsWorkerConfig {
	return TotalsWorkerConfig{Interval: 15 * time.Minute}
}

// SyncResult summarizes one reconciliation pass
type SyncResult struct {
	Events    int
	Corrected int
	Errors    int
}

// NewTotalsWorker creates a new totals worker. invalidator may be nil.
func NewTotalsWorker(
	events *EventService,
	eventRepo domain.EventRepository,
	invalidator Invalidator,
	logger zerolog.Logger,
	config TotalsWorkerConfig,
) *TotalsWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultTotalsWorkerConfig().Interval
	}

	return &TotalsWorker{
		events:      events,
		eventRepo:   eventRepo,
		invalidator: invalidator,
		logger:      logger.With().Str("component", "totals_worker").Logger(),
		interval:    config.Interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background reconciliation
func (w *TotalsWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().Dur("interval", w.interval).Msg("Starting totals worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker
func (w *TotalsWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	w.logger.Info().Msg("Stopping totals worker")
	close(w.stopCh)
	<-w.doneCh
	w.logger.Info().Msg("Totals worker stopped")
}

func (w *TotalsWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.SyncAll(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.SyncAll(ctx)
		}
	}
}

// SyncAll recalculates every event and invalidates the cache of those whose
// stored totals changed
func (w *TotalsWorker) SyncAll(ctx context.Context) SyncResult {
	startTime := time.Now()
	var result SyncResult

	events, err := w.eventRepo.GetAll(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Failed to list events for totals sync")
		return result
	}
	result.Events = len(events)

	for _, ev := range events {
		select {
		case <-ctx.Done():
			return result
		case <-w.stopCh:
			return result
		default:
		}

		updated, err := w.events.RecalculateEventTotals(ctx, ev.UserID, ev.ID)
		if err != nil {
			w.logger.Error().Err(err).Str("event_id", ev.ID).Msg("Failed to recalculate event totals")
			result.Errors++
			continue
		}
		if totalsEqual(ev, updated) {
			continue
		}

		result.Corrected++
		w.logger.Debug().
			Str("event_id", ev.ID).
			Str("spent_before", ev.TotalSpentAmount.String()).
			Str("spent_after", updated.TotalSpentAmount.String()).
			Msg("Corrected event totals")
		if w.invalidator != nil {
			w.invalidator.InvalidateEvent(ctx, ev.UserID, ev.ID)
		}
	}

	w.logger.Info().
		Int("events", result.Events).
		Int("corrected", result.Corrected).
		Int("errors", result.Errors).
		Dur("elapsed", time.Since(startTime)).
		Msg("Completed totals sync")
	return result
}

// IsRunning returns whether the worker is currently running
func (w *TotalsWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func totalsEqual(a, b *domain.Event) bool {
	return a.TotalBudgetedAmount.Equal(b.TotalBudgetedAmount) &&
		a.TotalScheduledAmount.Equal(b.TotalScheduledAmount) &&
		a.TotalSpentAmount.Equal(b.TotalSpentAmount)
}
