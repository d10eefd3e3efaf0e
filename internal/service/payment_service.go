package service

import (
	"context"
	"strings"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/google/uuid"
)

// PaymentService manages the payment configuration of expenses. Every successful
// write recalculates the event totals.
type PaymentService struct {
	expenseRepo domain.ExpenseRepository
	events      *EventService
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(expenseRepo domain.ExpenseRepository, events *EventService) *PaymentService {
	return &PaymentService{expenseRepo: expenseRepo, events: events}
}

// modify applies fn to the expense's payments in one locked read-modify-write and
// refreshes the event totals. fn works on the freshly loaded row, never on a copy
// read outside the transaction.
func (s *PaymentService) modify(ctx context.Context, userID, eventID, expenseID string, fn func(*domain.Expense) error) error {
	if err := s.events.requireEvent(ctx, userID, eventID); err != nil {
		return err
	}
	if _, err := s.expenseRepo.ModifyPayments(ctx, eventID, expenseID, fn); err != nil {
		return err
	}
	s.events.syncTotals(ctx, userID, eventID)
	return nil
}

// MarkPaymentAsPaid marks a scheduled or one-off payment paid. PaidAt defaults to now.
func (s *PaymentService) MarkPaymentAsPaid(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.MarkPaidInput) (*domain.Payment, error) {
	paidAt := s.events.Now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}
	method := strings.TrimSpace(input.PaymentMethod)

	var result domain.Payment
	err := s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		payment, ok := expense.FindPayment(paymentID)
		if !ok {
			return domain.ErrPaymentNotFound
		}
		payment.IsPaid = true
		payment.PaidAt = &paidAt
		if method != "" {
			payment.PaymentMethod = method
		}
		result = *payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkPaymentAsUnpaid clears the paid state of a payment
func (s *PaymentService) MarkPaymentAsUnpaid(ctx context.Context, userID, eventID, expenseID, paymentID string) (*domain.Payment, error) {
	var result domain.Payment
	err := s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		payment, ok := expense.FindPayment(paymentID)
		if !ok {
			return domain.ErrPaymentNotFound
		}
		payment.IsPaid = false
		payment.PaidAt = nil
		result = *payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AddPayment appends to the schedule when the expense has one, and otherwise
// sets the one-off payment, replacing any previous one
func (s *PaymentService) AddPayment(ctx context.Context, userID, eventID, expenseID string, input domain.PaymentInput) (*domain.Payment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	payment := s.newPayment(input)
	err := s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		if expense.HasPaymentSchedule {
			expense.PaymentSchedule = append(expense.PaymentSchedule, payment)
		} else {
			p := payment
			expense.OneOffPayment = &p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdatePayment updates the provided payment fields
func (s *PaymentService) UpdatePayment(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.PaymentUpdate) (*domain.Payment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var result domain.Payment
	err := s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		payment, ok := expense.FindPayment(paymentID)
		if !ok {
			return domain.ErrPaymentNotFound
		}
		input.Apply(payment)
		result = *payment
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DeletePayment removes one payment. Removing the last scheduled payment turns the
// schedule off.
func (s *PaymentService) DeletePayment(ctx context.Context, userID, eventID, expenseID, paymentID string) error {
	return s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		if expense.OneOffPayment != nil && expense.OneOffPayment.ID == paymentID {
			expense.OneOffPayment = nil
			return nil
		}

		idx := -1
		for i := range expense.PaymentSchedule {
			if expense.PaymentSchedule[i].ID == paymentID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return domain.ErrPaymentNotFound
		}
		expense.PaymentSchedule = append(expense.PaymentSchedule[:idx], expense.PaymentSchedule[idx+1:]...)
		if len(expense.PaymentSchedule) == 0 {
			expense.HasPaymentSchedule = false
		}
		return nil
	})
}

// ClearAllPayments removes the schedule and the one-off payment
func (s *PaymentService) ClearAllPayments(ctx context.Context, userID, eventID, expenseID string) error {
	return s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		expense.HasPaymentSchedule = false
		expense.PaymentSchedule = nil
		expense.OneOffPayment = nil
		return nil
	})
}

// CreatePaymentSchedule turns on a schedule for an expense that has none.
// Any one-off payment is dropped since an expense carries one configuration at a time.
func (s *PaymentService) CreatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult {
	return s.replaceSchedule(ctx, userID, eventID, expenseID, payments, func(expense *domain.Expense) error {
		if expense.HasPaymentSchedule && len(expense.PaymentSchedule) > 0 {
			return domain.ErrScheduleExists
		}
		return nil
	})
}

// UpdatePaymentSchedule replaces the payments of an existing schedule
func (s *PaymentService) UpdatePaymentSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput) domain.ActionResult {
	return s.replaceSchedule(ctx, userID, eventID, expenseID, payments, func(expense *domain.Expense) error {
		if !expense.HasPaymentSchedule {
			return domain.ErrScheduleNotActive
		}
		return nil
	})
}

// replaceSchedule swaps in a new schedule once precondition accepts the stored expense
func (s *PaymentService) replaceSchedule(ctx context.Context, userID, eventID, expenseID string, payments []domain.PaymentInput, precondition func(*domain.Expense) error) domain.ActionResult {
	if len(payments) == 0 {
		return domain.ActionFailed(domain.NewValidationError("payments", domain.ErrScheduleEmpty))
	}
	schedule := make([]domain.Payment, 0, len(payments))
	for _, in := range payments {
		if err := in.Validate(); err != nil {
			return domain.ActionFailed(err)
		}
		schedule = append(schedule, s.newPayment(in))
	}

	err := s.modify(ctx, userID, eventID, expenseID, func(expense *domain.Expense) error {
		if err := precondition(expense); err != nil {
			return err
		}
		expense.HasPaymentSchedule = true
		expense.PaymentSchedule = schedule
		expense.OneOffPayment = nil
		return nil
	})
	if err != nil {
		return domain.ActionFailed(err)
	}
	return domain.ActionSucceeded()
}

func (s *PaymentService) newPayment(input domain.PaymentInput) domain.Payment {
	payment := domain.Payment{
		ID:            uuid.NewString(),
		Amount:        input.Amount,
		DueDate:       input.DueDate,
		IsPaid:        input.IsPaid,
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Description:   strings.TrimSpace(input.Description),
	}
	if input.IsPaid {
		paidAt := s.events.Now()
		payment.PaidAt = &paidAt
	}
	return payment
}
