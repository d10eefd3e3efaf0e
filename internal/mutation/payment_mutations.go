package mutation

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// PaymentRef identifies a payment, or with an empty PaymentID, an expense's payments
type PaymentRef struct {
	UserID    string
	EventID   string
	ExpenseID string
	PaymentID string
}

func (r PaymentRef) validate(needPayment bool) error {
	if strings.TrimSpace(r.UserID) == "" {
		return domain.NewValidationError("userId", domain.ErrUserIDRequired)
	}
	if strings.TrimSpace(r.EventID) == "" {
		return domain.NewValidationError("eventId", domain.ErrEventIDRequired)
	}
	if strings.TrimSpace(r.ExpenseID) == "" {
		return domain.NewValidationError("expenseId", domain.ErrExpenseNotFound)
	}
	if needPayment && strings.TrimSpace(r.PaymentID) == "" {
		return domain.NewValidationError("paymentId", domain.ErrPaymentNotFound)
	}
	return nil
}

type MarkPaidParams struct {
	PaymentRef
	Data domain.MarkPaidInput
}

type AddPaymentParams struct {
	PaymentRef
	Payment domain.PaymentInput
}

type UpdatePaymentParams struct {
	PaymentRef
	Update domain.PaymentUpdate
}

type ScheduleParams struct {
	PaymentRef
	Payments []domain.PaymentInput
}

func (p ScheduleParams) validate() error {
	if err := p.PaymentRef.validate(false); err != nil {
		return err
	}
	if len(p.Payments) == 0 {
		return domain.NewValidationError("payments", domain.ErrScheduleEmpty)
	}
	for _, in := range p.Payments {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// markPaidKeys are the aggregates a paid-state change touches
func markPaidKeys(userID, eventID string) []cache.Key {
	return eventKeys(userID, eventID)
}

// togglePaid flips the cached payment to paid and moves its amount into the
// category and event spent totals. The delta comes from the cached payment as it
// was before this mutation; an already settled payment contributes nothing.
func (l *Layer) togglePaid(ctx context.Context, ref PaymentRef, paid bool, data domain.MarkPaidInput) error {
	var (
		delta      decimal.Decimal
		categoryID string
	)

	_, err := patch(ctx, l.store, cache.ExpensesKey(ref.UserID, ref.EventID), func(expenses *[]*domain.Expense) bool {
		for _, e := range *expenses {
			if e.ID != ref.ExpenseID {
				continue
			}
			payment, ok := e.FindPayment(ref.PaymentID)
			if !ok || payment.IsPaid == paid {
				return false
			}
			categoryID = e.CategoryID
			if paid {
				delta = payment.Amount
				paidAt := l.clock()
				if data.PaidAt != nil {
					paidAt = *data.PaidAt
				}
				payment.PaidAt = &paidAt
				if data.PaymentMethod != "" {
					payment.PaymentMethod = data.PaymentMethod
				}
			} else {
				delta = payment.Amount.Neg()
				payment.PaidAt = nil
			}
			payment.IsPaid = paid
			return true
		}
		return false
	})
	if err != nil {
		return err
	}
	if categoryID == "" {
		return nil
	}
	return adjustSpent(ctx, l.store, ref.UserID, ref.EventID, categoryID, delta)
}

// MarkPaymentAsPaid marks a payment paid with an optimistic update of the
// expense, category and event totals
func (l *Layer) MarkPaymentAsPaid(ctx context.Context, params MarkPaidParams, cb *Callbacks[*domain.Payment]) (*domain.Payment, error) {
	if err := params.validate(true); err != nil {
		return reject(l, OpMarkPaymentAsPaid, params.UserID, err, cb)
	}
	keys := markPaidKeys(params.UserID, params.EventID)
	return run(ctx, l, plan{
		op:       OpMarkPaymentAsPaid,
		userID:   params.UserID,
		eventID:  params.EventID,
		entityID: params.PaymentID,
		snapshot: keys,
		optimistic: func(ctx context.Context) error {
			return l.togglePaid(ctx, params.PaymentRef, true, params.Data)
		},
		invalidate: keys,
		event:      websocket.PaymentPaid,
	}, func(ctx context.Context) (*domain.Payment, error) {
		return l.actions.MarkPaymentAsPaid(ctx, params.UserID, params.EventID, params.ExpenseID, params.PaymentID, params.Data)
	}, cb)
}

// MarkPaymentAsUnpaid reverses MarkPaymentAsPaid with the same optimistic protocol
func (l *Layer) MarkPaymentAsUnpaid(ctx context.Context, ref PaymentRef, cb *Callbacks[*domain.Payment]) (*domain.Payment, error) {
	if err := ref.validate(true); err != nil {
		return reject(l, OpMarkPaymentAsUnpaid, ref.UserID, err, cb)
	}
	keys := markPaidKeys(ref.UserID, ref.EventID)
	return run(ctx, l, plan{
		op:       OpMarkPaymentAsUnpaid,
		userID:   ref.UserID,
		eventID:  ref.EventID,
		entityID: ref.PaymentID,
		snapshot: keys,
		optimistic: func(ctx context.Context) error {
			return l.togglePaid(ctx, ref, false, domain.MarkPaidInput{})
		},
		invalidate: keys,
		event:      websocket.PaymentUnpaid,
	}, func(ctx context.Context) (*domain.Payment, error) {
		return l.actions.MarkPaymentAsUnpaid(ctx, ref.UserID, ref.EventID, ref.ExpenseID, ref.PaymentID)
	}, cb)
}

func (l *Layer) AddPayment(ctx context.Context, params AddPaymentParams, cb *Callbacks[*domain.Payment]) (*domain.Payment, error) {
	if err := params.validate(false); err != nil {
		return reject(l, OpAddPayment, params.UserID, err, cb)
	}
	if err := params.Payment.Validate(); err != nil {
		return reject(l, OpAddPayment, params.UserID, err, cb)
	}
	return run(ctx, l, plan{
		op:         OpAddPayment,
		userID:     params.UserID,
		eventID:    params.EventID,
		entityID:   params.ExpenseID,
		invalidate: []cache.Key{cache.ExpensesKey(params.UserID, params.EventID)},
		event:      websocket.PaymentCreated,
	}, func(ctx context.Context) (*domain.Payment, error) {
		return l.actions.AddPayment(ctx, params.UserID, params.EventID, params.ExpenseID, params.Payment)
	}, cb)
}

func (l *Layer) UpdatePayment(ctx context.Context, params UpdatePaymentParams, cb *Callbacks[*domain.Payment]) (*domain.Payment, error) {
	if err := params.validate(true); err != nil {
		return reject(l, OpUpdatePayment, params.UserID, err, cb)
	}
	if err := params.Update.Validate(); err != nil {
		return reject(l, OpUpdatePayment, params.UserID, err, cb)
	}
	return run(ctx, l, plan{
		op:         OpUpdatePayment,
		userID:     params.UserID,
		eventID:    params.EventID,
		entityID:   params.PaymentID,
		invalidate: []cache.Key{cache.ExpensesKey(params.UserID, params.EventID)},
		event:      websocket.PaymentUpdated,
	}, func(ctx context.Context) (*domain.Payment, error) {
		return l.actions.UpdatePayment(ctx, params.UserID, params.EventID, params.ExpenseID, params.PaymentID, params.Update)
	}, cb)
}

func (l *Layer) DeletePayment(ctx context.Context, ref PaymentRef, cb *Callbacks[struct{}]) error {
	if err := ref.validate(true); err != nil {
		_, err = reject(l, OpDeletePayment, ref.UserID, err, cb)
		return err
	}
	_, err := run(ctx, l, plan{
		op:         OpDeletePayment,
		userID:     ref.UserID,
		eventID:    ref.EventID,
		entityID:   ref.PaymentID,
		invalidate: []cache.Key{cache.ExpensesKey(ref.UserID, ref.EventID)},
		event:      websocket.PaymentDeleted,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.actions.DeletePayment(ctx, ref.UserID, ref.EventID, ref.ExpenseID, ref.PaymentID)
	}, cb)
	return err
}

// ClearAllPayments removes the schedule and one-off payment of an expense
func (l *Layer) ClearAllPayments(ctx context.Context, ref PaymentRef, cb *Callbacks[struct{}]) error {
	if err := ref.validate(false); err != nil {
		_, err = reject(l, OpClearAllPayments, ref.UserID, err, cb)
		return err
	}
	_, err := run(ctx, l, plan{
		op:         OpClearAllPayments,
		userID:     ref.UserID,
		eventID:    ref.EventID,
		entityID:   ref.ExpenseID,
		invalidate: []cache.Key{cache.ExpensesKey(ref.UserID, ref.EventID)},
		event:      websocket.PaymentsCleared,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, l.actions.ClearAllPayments(ctx, ref.UserID, ref.EventID, ref.ExpenseID)
	}, cb)
	return err
}

func (l *Layer) CreatePaymentSchedule(ctx context.Context, params ScheduleParams, cb *Callbacks[struct{}]) error {
	return l.saveSchedule(ctx, OpCreatePaymentSchedule, params, cb, websocket.ScheduleCreated, l.actions.CreatePaymentSchedule)
}

func (l *Layer) UpdatePaymentSchedule(ctx context.Context, params ScheduleParams, cb *Callbacks[struct{}]) error {
	return l.saveSchedule(ctx, OpUpdatePaymentSchedule, params, cb, websocket.ScheduleUpdated, l.actions.UpdatePaymentSchedule)
}

type scheduleAction func(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult

func (l *Layer) saveSchedule(
	ctx context.Context,
	op Operation,
	params ScheduleParams,
	cb *Callbacks[struct{}],
	event func(interface{}) websocket.Event,
	action scheduleAction,
) error {
	if err := params.validate(); err != nil {
		_, err = reject(l, op, params.UserID, err, cb)
		return err
	}
	_, err := run(ctx, l, plan{
		op:         op,
		userID:     params.UserID,
		eventID:    params.EventID,
		entityID:   params.ExpenseID,
		invalidate: []cache.Key{cache.ExpensesKey(params.UserID, params.EventID)},
		event:      event,
	}, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, resultError(op, action(ctx, params.UserID, params.EventID, params.ExpenseID, params.Payments))
	}, cb)
	return err
}
