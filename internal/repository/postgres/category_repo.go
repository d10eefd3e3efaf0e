package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const categoryColumns = `id::text, event_id::text, user_id, name, budgeted_amount, scheduled_amount,
	spent_amount, color, icon, created_at, updated_at`

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a category
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	amounts, err := numerics(category.BudgetedAmount, category.ScheduledAmount, category.SpentAmount)
	if err != nil {
		return nil, err
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO categories (id, event_id, user_id, name, budgeted_amount, scheduled_amount,
			spent_amount, color, icon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+categoryColumns,
		category.ID, category.EventID, category.UserID, category.Name,
		amounts[0], amounts[1], amounts[2], category.Color, stringToPgText(category.Icon),
	)
	return scanCategory(row)
}

// GetByID retrieves a category of an event
func (r *CategoryRepository) GetByID(ctx context.Context, eventID string, id string) (*domain.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrCategoryNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND event_id = $2`, id, eventID)
	category, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	return category, err
}

// GetAllByEvent retrieves an event's categories in creation order
func (r *CategoryRepository) GetAllByEvent(ctx context.Context, eventID string) ([]*domain.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Update writes the category's editable fields
func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	budget, err := decimalToPgNumeric(category.BudgetedAmount)
	if err != nil {
		return nil, err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE categories SET name = $3, budgeted_amount = $4, color = $5, icon = $6, updated_at = NOW()
		WHERE id = $1 AND event_id = $2
		RETURNING `+categoryColumns,
		category.ID, category.EventID, category.Name, budget, category.Color, stringToPgText(category.Icon),
	)
	updated, err := scanCategory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrCategoryNotFound
	}
	return updated, err
}

// Delete removes the category; its expenses and their payments cascade
func (r *CategoryRepository) Delete(ctx context.Context, eventID string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND event_id = $2`, id, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c                          domain.Category
		budgeted, scheduled, spent pgtype.Numeric
		icon                       pgtype.Text
	)
	if err := row.Scan(&c.ID, &c.EventID, &c.UserID, &c.Name, &budgeted, &scheduled, &spent,
		&c.Color, &icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.BudgetedAmount = pgNumericToDecimal(budgeted)
	c.ScheduledAmount = pgNumericToDecimal(scheduled)
	c.SpentAmount = pgNumericToDecimal(spent)
	c.Icon = icon.String
	return &c, nil
}
