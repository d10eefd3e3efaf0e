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

const expenseColumns = `id::text, event_id::text, category_id::text, user_id, name, amount, vendor, notes,
	expense_date, has_payment_schedule, created_at, updated_at`

const paymentColumns = `id::text, expense_id::text, kind, amount, due_date, is_paid, paid_at,
	payment_method, description`

// ExpenseRepository implements domain.ExpenseRepository using PostgreSQL.
// Payments live in their own table and are loaded with their expense.
type ExpenseRepository struct {
	pool *pgxpool.Pool
}

// NewExpenseRepository creates a new ExpenseRepository
func NewExpenseRepository(pool *pgxpool.Pool) *ExpenseRepository {
	return &ExpenseRepository{pool: pool}
}

// Create inserts an expense without payments
func (r *ExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO expenses (id, event_id, category_id, user_id, name, amount, vendor, notes, expense_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+expenseColumns,
		expense.ID, expense.EventID, expense.CategoryID, expense.UserID, expense.Name, amount,
		stringToPgText(expense.Vendor), stringToPgText(expense.Notes), timePtrToPgTimestamptz(expense.ExpenseDate),
	)
	return scanExpense(row)
}

// GetByID retrieves an expense of an event with its payments
func (r *ExpenseRepository) GetByID(ctx context.Context, eventID string, id string) (*domain.Expense, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrExpenseNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND event_id = $2`, id, eventID)
	expense, err := scanExpense(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrExpenseNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := attachPayments(ctx, r.pool, []*domain.Expense{expense},
		`SELECT `+paymentColumns+` FROM payments WHERE expense_id = $1 ORDER BY kind, position`, id); err != nil {
		return nil, err
	}
	return expense, nil
}

// GetAllByEvent retrieves an event's expenses with their payments
func (r *ExpenseRepository) GetAllByEvent(ctx context.Context, eventID string) ([]*domain.Expense, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE event_id = $1 ORDER BY created_at, id`, eventID)
	if err != nil {
		return nil, err
	}
	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	err = attachPayments(ctx, r.pool, expenses, `
		SELECT `+paymentColumns+` FROM payments
		WHERE expense_id IN (SELECT id FROM expenses WHERE event_id = $1)
		ORDER BY expense_id, kind, position`, eventID)
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// Update writes the expense's descriptive fields. Payments are only written by ModifyPayments.
func (r *ExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	amount, err := decimalToPgNumeric(expense.Amount)
	if err != nil {
		return nil, err
	}

	var updated *domain.Expense
	err = inTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE expenses SET category_id = $3, name = $4, amount = $5, vendor = $6, notes = $7,
				expense_date = $8, updated_at = NOW()
			WHERE id = $1 AND event_id = $2
			RETURNING `+expenseColumns,
			expense.ID, expense.EventID, expense.CategoryID, expense.Name, amount,
			stringToPgText(expense.Vendor), stringToPgText(expense.Notes), timePtrToPgTimestamptz(expense.ExpenseDate),
		)
		e, err := scanExpense(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrExpenseNotFound
		}
		if err != nil {
			return err
		}
		updated = e
		return attachPayments(ctx, tx, []*domain.Expense{e},
			`SELECT `+paymentColumns+` FROM payments WHERE expense_id = $1 ORDER BY kind, position`, e.ID)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an expense; its payments cascade
func (r *ExpenseRepository) Delete(ctx context.Context, eventID string, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND event_id = $2`, id, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExpenseNotFound
	}
	return nil
}

// ModifyPayments loads the expense and its payments under a row lock, applies fn and
// writes the resulting payment configuration in the same transaction. Concurrent
// modifications of one expense queue on the lock, so none of them is lost.
func (r *ExpenseRepository) ModifyPayments(ctx context.Context, eventID, expenseID string, fn func(*domain.Expense) error) (*domain.Expense, error) {
	if _, err := uuid.Parse(expenseID); err != nil {
		return nil, domain.ErrExpenseNotFound
	}

	var modified *domain.Expense
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 AND event_id = $2 FOR UPDATE`,
			expenseID, eventID)
		expense, err := scanExpense(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrExpenseNotFound
		}
		if err != nil {
			return err
		}
		if err := attachPayments(ctx, tx, []*domain.Expense{expense},
			`SELECT `+paymentColumns+` FROM payments WHERE expense_id = $1 ORDER BY kind, position`, expenseID); err != nil {
			return err
		}

		if err := fn(expense); err != nil {
			return err
		}
		if err := writePayments(ctx, tx, expense); err != nil {
			return err
		}
		modified = expense
		return nil
	})
	if err != nil {
		return nil, err
	}
	return modified, nil
}

// writePayments replaces the stored payment configuration with the expense's
func writePayments(ctx context.Context, tx pgx.Tx, expense *domain.Expense) error {
	if _, err := tx.Exec(ctx, `UPDATE expenses SET has_payment_schedule = $2, updated_at = NOW() WHERE id = $1`,
		expense.ID, expense.HasPaymentSchedule); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM payments WHERE expense_id = $1`, expense.ID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, p := range expense.PaymentSchedule {
		if err := queuePayment(batch, expense.ID, domain.PaymentKindSchedule, i, p); err != nil {
			return err
		}
	}
	if expense.OneOffPayment != nil {
		if err := queuePayment(batch, expense.ID, domain.PaymentKindOneOff, 0, *expense.OneOffPayment); err != nil {
			return err
		}
	}
	if batch.Len() == 0 {
		return nil
	}
	return tx.SendBatch(ctx, batch).Close()
}

func queuePayment(batch *pgx.Batch, expenseID string, kind domain.PaymentKind, position int, p domain.Payment) error {
	amount, err := decimalToPgNumeric(p.Amount)
	if err != nil {
		return err
	}
	batch.Queue(`
		INSERT INTO payments (id, expense_id, kind, position, amount, due_date, is_paid, paid_at,
			payment_method, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, expenseID, string(kind), position, amount, p.DueDate, p.IsPaid,
		timePtrToPgTimestamptz(p.PaidAt), stringToPgText(p.PaymentMethod), stringToPgText(p.Description),
	)
	return nil
}

// attachPayments loads payments with the given query and distributes them onto expenses.
// Rows must be ordered by kind then position so schedules keep their order.
func attachPayments(ctx context.Context, q querier, expenses []*domain.Expense, sql string, args ...any) error {
	byID := make(map[string]*domain.Expense, len(expenses))
	for _, e := range expenses {
		byID[e.ID] = e
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p                   domain.Payment
			expenseID, kind     string
			amount              pgtype.Numeric
			paidAt              pgtype.Timestamptz
			method, description pgtype.Text
		)
		if err := rows.Scan(&p.ID, &expenseID, &kind, &amount, &p.DueDate, &p.IsPaid, &paidAt,
			&method, &description); err != nil {
			return err
		}
		p.Amount = pgNumericToDecimal(amount)
		p.PaidAt = pgTimestamptzToTimePtr(paidAt)
		p.PaymentMethod = method.String
		p.Description = description.String

		e, ok := byID[expenseID]
		if !ok {
			continue
		}
		if domain.PaymentKind(kind) == domain.PaymentKindOneOff {
			e.OneOffPayment = &p
		} else {
			e.PaymentSchedule = append(e.PaymentSchedule, p)
		}
	}
	return rows.Err()
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e             domain.Expense
		amount        pgtype.Numeric
		vendor, notes pgtype.Text
		expenseDate   pgtype.Timestamptz
	)
	if err := row.Scan(&e.ID, &e.EventID, &e.CategoryID, &e.UserID, &e.Name, &amount, &vendor, &notes,
		&expenseDate, &e.HasPaymentSchedule, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Amount = pgNumericToDecimal(amount)
	e.Vendor = vendor.String
	e.Notes = notes.String
	e.ExpenseDate = pgTimestamptzToTimePtr(expenseDate)
	return &e, nil
}

func collectExpenses(rows pgx.Rows) ([]*domain.Expense, error) {
	defer rows.Close()
	result := make([]*domain.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}
