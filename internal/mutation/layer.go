package mutation

import (
	"context"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// Actions are the authoritative server operations the layer wraps
type Actions interface {
	MarkPaymentAsPaid(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.MarkPaidInput) (*domain.Payment, error)
	MarkPaymentAsUnpaid(ctx context.Context, userID, eventID, expenseID, paymentID string) (*domain.Payment, error)
	AddPayment(ctx context.Context, userID, eventID, expenseID string, input domain.PaymentInput) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.PaymentUpdate) (*domain.Payment, error)
	DeletePayment(ctx context.Context, userID, eventID, expenseID, paymentID string) error
	ClearAllPayments(ctx context.Context, userID, eventID, expenseID string) error
	CreatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult
	UpdatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult
	AddCategory(ctx context.Context, userID, eventID string, input domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, userID, eventID, categoryID string, input domain.CategoryUpdate) (*domain.Category, error)
	DeleteCategory(ctx context.Context, userID, eventID, categoryID string) error
	RecalculateEventTotals(ctx context.Context, userID, eventID string) (*domain.Event, error)
}

// Callbacks are optional hooks run after a mutation settles. Every mutation
// also returns its result and error, so callbacks are never required.
type Callbacks[T any] struct {
	OnSuccess func(T)
	OnError   func(error)
}

func (c *Callbacks[T]) success(v T) {
	if c != nil && c.OnSuccess != nil {
		c.OnSuccess(v)
	}
}

func (c *Callbacks[T]) failure(err error) {
	if c != nil && c.OnError != nil {
		c.OnError(err)
	}
}

// InvalidationPayload is pushed to the user's connections after a successful mutation
type InvalidationPayload struct {
	Operation Operation `json:"operation"`
	EventID   string    `json:"eventId"`
	EntityID  string    `json:"entityId,omitempty"`
	Keys      []string  `json:"keys"`
}

// ScopedEventID routes the notification to sockets viewing the event
func (p InvalidationPayload) ScopedEventID() string { return p.EventID }

// Layer wraps server actions with snapshot, optimistic apply and reconcile
// against the shared cache. Mutations of one user run one at a time since they
// all patch and may roll back the user's event list.
type Layer struct {
	store     cache.Store
	actions   Actions
	publisher websocket.EventPublisher
	logger    zerolog.Logger
	clock     func() time.Time
	locks     *keyedMutex
	tracker   *Tracker
}

func NewLayer(store cache.Store, actions Actions, logger zerolog.Logger) *Layer {
	return &Layer{
		store:     store,
		actions:   actions,
		publisher: &websocket.NoOpPublisher{},
		logger:    logger.With().Str("component", "mutation").Logger(),
		clock:     time.Now,
		locks:     newKeyedMutex(),
		tracker:   NewTracker(),
	}
}

// SetEventPublisher sets the publisher used to push invalidations
func (l *Layer) SetEventPublisher(publisher websocket.EventPublisher) {
	l.publisher = publisher
}

// SetClock overrides the time source used for optimistic paid-at stamps
func (l *Layer) SetClock(clock func() time.Time) {
	l.clock = clock
}

// Tracker exposes per-operation status
func (l *Layer) Tracker() *Tracker {
	return l.tracker
}

// plan describes one mutation run
type plan struct {
	op       Operation
	userID   string
	eventID  string
	entityID string
	// snapshot lists every cached aggregate the optimistic patch may touch
	snapshot []cache.Key
	// optimistic patches the cache before the server call; nil means no optimistic phase
	optimistic func(ctx context.Context) error
	// invalidate lists the keys marked stale after the server call succeeds
	invalidate []cache.Key
	event      func(payload interface{}) websocket.Event
}

// snapshotEntry is a verbatim copy of a cache entry taken before a mutation
type snapshotEntry struct {
	key     cache.Key
	entry   cache.Entry
	present bool
}

// reject reports a validation failure that stops a mutation before any server call
func reject[T any](l *Layer, op Operation, userID string, err error, cb *Callbacks[T]) (T, error) {
	var zero T
	l.tracker.begin(userID, op)
	l.tracker.finish(userID, op, err)
	l.logger.Debug().Err(err).Str("operation", string(op)).Str("user_id", userID).Msg("Mutation rejected")
	cb.failure(err)
	return zero, err
}

// run executes the three-phase protocol around call. Callbacks fire after the
// event lock is released so they may start further mutations.
func run[T any](ctx context.Context, l *Layer, p plan, call func(ctx context.Context) (T, error), cb *Callbacks[T]) (T, error) {
	l.tracker.begin(p.userID, p.op)

	result, err := l.locked(ctx, p, func(ctx context.Context) (any, error) {
		return call(ctx)
	})
	l.tracker.finish(p.userID, p.op, err)

	if err != nil {
		cb.failure(err)
		var zero T
		return zero, err
	}
	value, _ := result.(T)
	cb.success(value)
	return value, nil
}

func (l *Layer) locked(ctx context.Context, p plan, call func(ctx context.Context) (any, error)) (any, error) {
	// Always user then event
	unlockUser := l.locks.Lock("user:" + p.userID)
	defer unlockUser()
	unlockEvent := l.locks.Lock("event:" + p.eventID)
	defer unlockEvent()

	snapshots, complete := l.takeSnapshots(ctx, p.snapshot)

	patched := false
	if p.optimistic != nil && !complete {
		l.logger.Warn().Str("operation", string(p.op)).Msg("Optimistic update skipped, snapshot incomplete")
	} else if p.optimistic != nil {
		patched = true
		if err := p.optimistic(ctx); err != nil {
			// The server call still runs; the cache is refetched on success either way
			l.logger.Warn().Err(err).Str("operation", string(p.op)).Msg("Optimistic update skipped")
		}
	}

	result, err := call(ctx)
	if err != nil {
		err = normalizeError(p.op, err)
		if !patched {
			snapshots = nil
		}
		l.restore(ctx, snapshots)
		l.logger.Warn().
			Err(err).
			Str("operation", string(p.op)).
			Str("user_id", p.userID).
			Str("event_id", p.eventID).
			Int("restored", len(snapshots)).
			Msg("Mutation failed, optimistic state rolled back")
		return nil, err
	}

	keys := l.invalidate(ctx, p.invalidate)
	if p.event != nil {
		l.publisher.Publish(p.userID, p.event(InvalidationPayload{
			Operation: p.op,
			EventID:   p.eventID,
			EntityID:  p.entityID,
			Keys:      keys,
		}))
	}

	l.logger.Info().
		Str("operation", string(p.op)).
		Str("user_id", p.userID).
		Str("event_id", p.eventID).
		Strs("invalidated", keys).
		Msg("Mutation applied")
	return result, nil
}

// takeSnapshots copies every key it can read. complete is false when a read failed,
// in which case the optimistic phase must not run since that key could not be rolled back.
func (l *Layer) takeSnapshots(ctx context.Context, keys []cache.Key) (snapshots []snapshotEntry, complete bool) {
	snapshots = make([]snapshotEntry, 0, len(keys))
	complete = true
	for _, key := range keys {
		entry, ok, err := l.store.Get(ctx, key)
		if err != nil {
			l.logger.Warn().Err(err).Str("cache_key", key.String()).Msg("Snapshot read failed")
			complete = false
			continue
		}
		snapshots = append(snapshots, snapshotEntry{key: key, entry: entry, present: ok})
	}
	return snapshots, complete
}

// restore writes every present snapshot back byte for byte, stale flag included.
// Restores run even when ctx is done since the server call did not change anything.
func (l *Layer) restore(ctx context.Context, snapshots []snapshotEntry) {
	ctx = context.WithoutCancel(ctx)
	for _, s := range snapshots {
		if !s.present {
			continue
		}
		if err := l.store.Set(ctx, s.key, s.entry.Value); err != nil {
			l.logger.Error().Err(err).Str("cache_key", s.key.String()).Msg("Rollback write failed")
			continue
		}
		if s.entry.Stale {
			if err := l.store.Invalidate(ctx, s.key); err != nil {
				l.logger.Error().Err(err).Str("cache_key", s.key.String()).Msg("Rollback stale flag failed")
			}
		}
	}
}

func (l *Layer) invalidate(ctx context.Context, keys []cache.Key) []string {
	ctx = context.WithoutCancel(ctx)
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.store.Invalidate(ctx, key); err != nil {
			l.logger.Error().Err(err).Str("cache_key", key.String()).Msg("Cache invalidation failed")
			continue
		}
		names = append(names, key.String())
	}
	return names
}

// InvalidateEvent marks every cached aggregate of an event stale and notifies the user.
// Callers use it after operations that recompute totals server side.
func (l *Layer) InvalidateEvent(ctx context.Context, userID, eventID string) []string {
	keys := l.invalidate(ctx, eventKeys(userID, eventID))
	l.publisher.Publish(userID, websocket.CacheInvalidated(InvalidationPayload{
		EventID: eventID,
		Keys:    keys,
	}))
	return keys
}

func eventKeys(userID, eventID string) []cache.Key {
	return []cache.Key{
		cache.ExpensesKey(userID, eventID),
		cache.CategoriesKey(eventID),
		cache.EventKey(eventID),
		cache.EventsKey(userID),
	}
}
