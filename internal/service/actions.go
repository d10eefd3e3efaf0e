package service

import (
	"context"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
)

var _ mutation.Actions = (*Actions)(nil)

// Actions exposes the services as the server operations the mutation layer wraps
type Actions struct {
	Events     *EventService
	Categories *CategoryService
	Payments   *PaymentService
}

// NewActions creates the mutation.Actions adapter
func NewActions(events *EventService, categories *CategoryService, payments *PaymentService) *Actions {
	return &Actions{Events: events, Categories: categories, Payments: payments}
}

func (a *Actions) MarkPaymentAsPaid(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.MarkPaidInput) (*domain.Payment, error) {
	return a.Payments.MarkPaymentAsPaid(ctx, userID, eventID, expenseID, paymentID, input)
}

func (a *Actions) MarkPaymentAsUnpaid(ctx context.Context, userID, eventID, expenseID, paymentID string) (*domain.Payment, error) {
	return a.Payments.MarkPaymentAsUnpaid(ctx, userID, eventID, expenseID, paymentID)
}

func (a *Actions) AddPayment(ctx context.Context, userID, eventID, expenseID string, input domain.PaymentInput) (*domain.Payment, error) {
	return a.Payments.AddPayment(ctx, userID, eventID, expenseID, input)
}

func (a *Actions) UpdatePayment(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.PaymentUpdate) (*domain.Payment, error) {
	return a.Payments.UpdatePayment(ctx, userID, eventID, expenseID, paymentID, input)
}

func (a *Actions) DeletePayment(ctx context.Context, userID, eventID, expenseID, paymentID string) error {
	return a.Payments.DeletePayment(ctx, userID, eventID, expenseID, paymentID)
}

func (a *Actions) ClearAllPayments(ctx context.Context, userID, eventID, expenseID string) error {
	return a.Payments.ClearAllPayments(ctx, userID, eventID, expenseID)
}

func (a *Actions) CreatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult {
	return a.Payments.CreatePaymentSchedule(ctx, userID, eventID, expenseID, payments)
}

func (a *Actions) UpdatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult {
	return a.Payments.UpdatePaymentSchedule(ctx, userID, eventID, expenseID, payments)
}

func (a *Actions) AddCategory(ctx context.Context, userID, eventID string, input domain.CategoryInput) (*domain.Category, error) {
	return a.Categories.AddCategory(ctx, userID, eventID, input)
}

func (a *Actions) UpdateCategory(ctx context.Context, userID, eventID, categoryID string, input domain.CategoryUpdate) (*domain.Category, error) {
	return a.Categories.UpdateCategory(ctx, userID, eventID, categoryID, input)
}

func (a *Actions) DeleteCategory(ctx context.Context, userID, eventID, categoryID string) error {
	return a.Categories.DeleteCategory(ctx, userID, eventID, categoryID)
}

func (a *Actions) RecalculateEventTotals(ctx context.Context, userID, eventID string) (*domain.Event, error) {
	return a.Events.RecalculateEventTotals(ctx, userID, eventID)
}
