package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrExpenseNotFound = errors.New("expense not found")

// Expense is a cost within a category. It carries at most one payment configuration:
// a schedule (HasPaymentSchedule with PaymentSchedule) or a single OneOffPayment.
type Expense struct {
	ID                 string          `json:"id"`
	EventID            string          `json:"eventId"`
	CategoryID         string          `json:"categoryId"`
	UserID             string          `json:"userId"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Vendor             string          `json:"vendor,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	ExpenseDate        *time.Time      `json:"expenseDate,omitempty"`
	HasPaymentSchedule bool            `json:"hasPaymentSchedule"`
	PaymentSchedule    []Payment       `json:"paymentSchedule,omitempty"`
	OneOffPayment      *Payment        `json:"oneOffPayment,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// ExpenseAmount implements PaymentSource
func (e *Expense) ExpenseAmount() decimal.Decimal { return e.Amount }

// ScheduleEnabled implements PaymentSource
func (e *Expense) ScheduleEnabled() bool { return e.HasPaymentSchedule }

// Schedule implements PaymentSource
func (e *Expense) Schedule() []Payment { return e.PaymentSchedule }

// OneOff implements PaymentSource
func (e *Expense) OneOff() *Payment { return e.OneOffPayment }

// FindPayment returns the payment with id from the schedule or the one-off payment
func (e *Expense) FindPayment(id string) (*Payment, bool) {
	if e.OneOffPayment != nil && e.OneOffPayment.ID == id {
		return e.OneOffPayment, true
	}
	for i := range e.PaymentSchedule {
		if e.PaymentSchedule[i].ID == id {
			return &e.PaymentSchedule[i], true
		}
	}
	return nil, false
}

// Clone returns a deep copy so callers can patch it without aliasing the original
func (e *Expense) Clone() *Expense {
	c := *e
	if e.PaymentSchedule != nil {
		c.PaymentSchedule = make([]Payment, len(e.PaymentSchedule))
		copy(c.PaymentSchedule, e.PaymentSchedule)
	}
	if e.OneOffPayment != nil {
		p := *e.OneOffPayment
		c.OneOffPayment = &p
	}
	return &c
}

// ExpenseInput is the payload for creating an expense
type ExpenseInput struct {
	CategoryID  string          `json:"categoryId"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	Vendor      string          `json:"vendor,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	ExpenseDate *time.Time      `json:"expenseDate,omitempty"`
}

func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.CategoryID) == "" {
		return NewValidationError("categoryId", ErrCategoryNotFound)
	}
	if err := validateName(in.Name); err != nil {
		return err
	}
	if in.Amount.IsNegative() {
		return NewValidationError("amount", ErrAmountNegative)
	}
	return nil
}

// ExpenseUpdate carries optional expense fields; nil means unchanged
type ExpenseUpdate struct {
	CategoryID  *string          `json:"categoryId,omitempty"`
	Name        *string          `json:"name,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Vendor      *string          `json:"vendor,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	ExpenseDate *time.Time       `json:"expenseDate,omitempty"`
}

func (u ExpenseUpdate) Validate() error {
	if u.CategoryID == nil && u.Name == nil && u.Amount == nil && u.Vendor == nil && u.Notes == nil && u.ExpenseDate == nil {
		return NewValidationError("update", ErrNoFieldsToUpdate)
	}
	if u.CategoryID != nil && strings.TrimSpace(*u.CategoryID) == "" {
		return NewValidationError("categoryId", ErrCategoryNotFound)
	}
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	if u.Amount != nil && u.Amount.IsNegative() {
		return NewValidationError("amount", ErrAmountNegative)
	}
	return nil
}

// Apply copies the provided fields onto e
func (u ExpenseUpdate) Apply(e *Expense) {
	if u.CategoryID != nil {
		e.CategoryID = *u.CategoryID
	}
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Vendor != nil {
		e.Vendor = *u.Vendor
	}
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	if u.ExpenseDate != nil {
		e.ExpenseDate = u.ExpenseDate
	}
}

type ExpenseRepository interface {
	Create(ctx context.Context, expense *Expense) (*Expense, error)
	GetByID(ctx context.Context, eventID string, id string) (*Expense, error)
	GetAllByEvent(ctx context.Context, eventID string) ([]*Expense, error)
	Update(ctx context.Context, expense *Expense) (*Expense, error)
	Delete(ctx context.Context, eventID string, id string) error
	// ModifyPayments applies fn to the stored expense and persists its payment
	// configuration atomically. Concurrent calls for one expense are serialized;
	// an error from fn aborts without writing.
	ModifyPayments(ctx context.Context, eventID, expenseID string, fn func(*Expense) error) (*Expense, error)
}
