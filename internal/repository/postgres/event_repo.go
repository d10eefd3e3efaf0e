package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id::text, user_id, name, event_type, event_date,
	total_budgeted_amount, total_scheduled_amount, total_spent_amount, created_at, updated_at`

// EventRepository implements domain.EventRepository using PostgreSQL
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// Create inserts an event with the totals it carries
func (r *EventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	amounts, err := numerics(event.TotalBudgetedAmount, event.TotalScheduledAmount, event.TotalSpentAmount)
	if err != nil {
		return nil, err
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO events (id, user_id, name, event_type, event_date,
			total_budgeted_amount, total_scheduled_amount, total_spent_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+eventColumns,
		event.ID, event.UserID, event.Name, string(event.EventType), timePtrToPgTimestamptz(event.EventDate),
		amounts[0], amounts[1], amounts[2],
	)
	return scanEvent(row)
}

// GetByID retrieves an event owned by userID
func (r *EventRepository) GetByID(ctx context.Context, userID string, id string) (*domain.Event, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEventNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	event, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	return event, err
}

// GetAllByUser retrieves a user's events, newest first
func (r *EventRepository) GetAllByUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// GetAll retrieves every event (for background reconciliation)
func (r *EventRepository) GetAll(ctx context.Context) ([]*domain.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// Update writes the event's descriptive fields. Totals are only written by ApplyTotals.
func (r *EventRepository) Update(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE events SET name = $3, event_type = $4, event_date = $5, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+eventColumns,
		event.ID, event.UserID, event.Name, string(event.EventType), timePtrToPgTimestamptz(event.EventDate),
	)
	updated, err := scanEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEventNotFound
	}
	return updated, err
}

// Delete removes an event; categories, expenses and payments cascade
func (r *EventRepository) Delete(ctx context.Context, userID string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

// ApplyTotals writes category and event aggregates in one transaction
func (r *EventRepository) ApplyTotals(ctx context.Context, eventID string, totals domain.EventTotals, categories []domain.CategoryTotals) error {
	eventAmounts, err := numerics(totals.TotalBudgetedAmount, totals.TotalScheduledAmount, totals.TotalSpentAmount)
	if err != nil {
		return err
	}

	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, c := range categories {
			amounts, err := numerics(c.ScheduledAmount, c.SpentAmount)
			if err != nil {
				return err
			}
			batch.Queue(`
				UPDATE categories SET scheduled_amount = $3, spent_amount = $4, updated_at = NOW()
				WHERE id = $1 AND event_id = $2`,
				c.CategoryID, eventID, amounts[0], amounts[1])
		}
		batch.Queue(`
			UPDATE events SET total_budgeted_amount = $2, total_scheduled_amount = $3,
				total_spent_amount = $4, updated_at = NOW()
			WHERE id = $1`,
			eventID, eventAmounts[0], eventAmounts[1], eventAmounts[2])

		results := tx.SendBatch(ctx, batch)
		last := batch.Len() - 1
		for i := 0; i <= last; i++ {
			tag, err := results.Exec()
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("apply totals: %w", err)
			}
			if i == last && tag.RowsAffected() == 0 {
				_ = results.Close()
				return domain.ErrEventNotFound
			}
		}
		return results.Close()
	})
}

func scanEvent(row pgx.Row) (*domain.Event, error) {
	var (
		e                          domain.Event
		eventType                  string
		eventDate                  pgtype.Timestamptz
		budgeted, scheduled, spent pgtype.Numeric
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Name, &eventType, &eventDate,
		&budgeted, &scheduled, &spent, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.EventType = domain.EventType(eventType)
	e.EventDate = pgTimestamptzToTimePtr(eventDate)
	e.TotalBudgetedAmount = pgNumericToDecimal(budgeted)
	e.TotalScheduledAmount = pgNumericToDecimal(scheduled)
	e.TotalSpentAmount = pgNumericToDecimal(spent)
	return &e, nil
}

func collectEvents(rows pgx.Rows) ([]*domain.Event, error) {
	defer rows.Close()
	result := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
