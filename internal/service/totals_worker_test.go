package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingInvalidator) InvalidateEvent(ctx context.Context, userID, eventID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, userID+"/"+eventID)
	return nil
}

func (r *recordingInvalidator) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func setupTotalsWorker() (*TotalsWorker, *fixture, *recordingInvalidator) {
	f := newFixture()
	inv := &recordingInvalidator{}
	config := TotalsWorkerConfig{
		Interval: 100 * time.Millisecond, // Fast interval for testing
	}
	worker := NewTotalsWorker(f.events, f.eventRepo, inv, zerolog.Nop(), config)
	return worker, f, inv
}

func TestTotalsWorker_DefaultConfig(t *testing.T) {
	config := DefaultTotalsWorkerConfig()
	assert.Equal(t, 15*time.Minute, config.Interval)

	worker := NewTotalsWorker(nil, nil, nil, zerolog.Nop(), TotalsWorkerConfig{})
	assert.Equal(t, 15*time.Minute, worker.interval)
	assert.False(t, worker.IsRunning())
}

func TestTotalsWorker_SyncAll_CorrectsDrift(t *testing.T) {
	worker, f, inv := setupTotalsWorker()

	result := worker.SyncAll(context.Background())

	assert.Equal(t, SyncResult{Events: 1, Corrected: 1}, result)
	assert.Equal(t, []string{testUser + "/" + testEvent}, inv.calls())
	assert.True(t, f.event().TotalSpentAmount.Equal(dec("300")))
}

func TestTotalsWorker_SyncAll_NoDrift(t *testing.T) {
	worker, _, inv := setupTotalsWorker()
	worker.SyncAll(context.Background())

	result := worker.SyncAll(context.Background())

	assert.Equal(t, 0, result.Corrected)
	assert.Len(t, inv.calls(), 1, "only the first pass changed totals")
}

func TestTotalsWorker_SyncAll_RecalculateFails(t *testing.T) {
	worker, f, inv := setupTotalsWorker()
	f.eventRepo.ApplyTotalsFn = func(ctx context.Context, eventID string, totals domain.EventTotals, categories []domain.CategoryTotals) error {
		return errors.New("connection refused")
	}

	result := worker.SyncAll(context.Background())

	assert.Equal(t, 1, result.Errors)
	assert.Empty(t, inv.calls())
}

func TestTotalsWorker_SyncAll_ListFails(t *testing.T) {
	worker, f, _ := setupTotalsWorker()
	f.eventRepo.GetAllFn = func(ctx context.Context) ([]*domain.Event, error) {
		return nil, errors.New("connection refused")
	}

	assert.Equal(t, SyncResult{}, worker.SyncAll(context.Background()))
}

func TestTotalsWorker_StartStop(t *testing.T) {
	worker, f, _ := setupTotalsWorker()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	worker.Start(ctx)
	worker.Start(ctx) // idempotent
	time.Sleep(50 * time.Millisecond)

	assert.True(t, worker.IsRunning())
	assert.True(t, f.event().TotalSpentAmount.Equal(dec("300")), "runs immediately on start")

	worker.Stop()
	assert.False(t, worker.IsRunning())
}

func TestTotalsWorker_ContextCancel(t *testing.T) {
	worker, _, _ := setupTotalsWorker()

	ctx, cancel := context.WithCancel(context.Background())
	worker.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	cancel()
	require.Eventually(t, func() bool { return !worker.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestTotalsWorker_StopWithoutStart(t *testing.T) {
	worker, _, _ := setupTotalsWorker()
	worker.Stop()
	assert.False(t, worker.IsRunning())
}
