package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrPaymentNotFound = errors.New("payment not found")

// PaymentKind tells whether a payment belongs to a schedule or is the expense's one-off payment
type PaymentKind string

const (
	PaymentKindSchedule PaymentKind = "schedule"
	PaymentKindOneOff   PaymentKind = "one_off"
)

// Payment is a single scheduled or one-off disbursement against an expense
type Payment struct {
	ID            string          `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"dueDate"`
	IsPaid        bool            `json:"isPaid"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// PaymentInput is the payload for creating a payment or a schedule entry
type PaymentInput struct {
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"dueDate"`
	IsPaid        bool            `json:"isPaid"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	Description   string          `json:"description,omitempty"`
}

func (in PaymentInput) Validate() error {
	if in.Amount.IsNegative() {
		return NewValidationError("amount", ErrAmountNegative)
	}
	if in.DueDate.IsZero() {
		return NewValidationError("dueDate", ErrDueDateRequired)
	}
	if len(strings.TrimSpace(in.Description)) > MaxDescriptionLength {
		return NewValidationError("description", ErrNameTooLong)
	}
	return nil
}

// PaymentUpdate carries optional payment fields; nil means unchanged
type PaymentUpdate struct {
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
	PaymentMethod *string          `json:"paymentMethod,omitempty"`
	Description   *string          `json:"description,omitempty"`
}

func (u PaymentUpdate) Validate() error {
	if u.Amount == nil && u.DueDate == nil && u.PaymentMethod == nil && u.Description == nil {
		return NewValidationError("update", ErrNoFieldsToUpdate)
	}
	if u.Amount != nil && u.Amount.IsNegative() {
		return NewValidationError("amount", ErrAmountNegative)
	}
	if u.DueDate != nil && u.DueDate.IsZero() {
		return NewValidationError("dueDate", ErrDueDateRequired)
	}
	return nil
}

// Apply copies the provided fields onto p
func (u PaymentUpdate) Apply(p *Payment) {
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.DueDate != nil {
		p.DueDate = *u.DueDate
	}
	if u.PaymentMethod != nil {
		p.PaymentMethod = *u.PaymentMethod
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
}

// MarkPaidInput is the payload for marking a payment as paid.
// PaidAt defaults to the current time when nil.
type MarkPaidInput struct {
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
}

// ActionResult is the structured outcome some server actions report instead of an error
type ActionResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ActionFailed builds a failed ActionResult from err
func ActionFailed(err error) ActionResult {
	return ActionResult{Success: false, Error: err.Error()}
}

// ActionSucceeded is the successful ActionResult
func ActionSucceeded() ActionResult {
	return ActionResult{Success: true}
}
