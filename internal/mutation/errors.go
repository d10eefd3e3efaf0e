package mutation

import (
	"errors"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
)

// Operation names a mutation the layer runs
type Operation string

const (
	OpMarkPaymentAsPaid      Operation = "mark_payment_as_paid"
	OpMarkPaymentAsUnpaid    Operation = "mark_payment_as_unpaid"
	OpAddPayment             Operation = "add_payment"
	OpUpdatePayment          Operation = "update_payment"
	OpDeletePayment          Operation = "delete_payment"
	OpClearAllPayments       Operation = "clear_all_payments"
	OpCreatePaymentSchedule  Operation = "create_payment_schedule"
	OpUpdatePaymentSchedule  Operation = "update_payment_schedule"
	OpAddCategory            Operation = "add_category"
	OpUpdateCategory         Operation = "update_category"
	OpDeleteCategory         Operation = "delete_category"
	OpRecalculateEventTotals Operation = "recalculate_event_totals"
)

var fallbackMessages = map[Operation]string{
	OpMarkPaymentAsPaid:      "failed to mark payment as paid",
	OpMarkPaymentAsUnpaid:    "failed to mark payment as unpaid",
	OpAddPayment:             "failed to add payment",
	OpUpdatePayment:          "failed to update payment",
	OpDeletePayment:          "failed to delete payment",
	OpClearAllPayments:       "failed to clear payments",
	OpCreatePaymentSchedule:  "failed to create payment schedule",
	OpUpdatePaymentSchedule:  "failed to update payment schedule",
	OpAddCategory:            "failed to add category",
	OpUpdateCategory:         "failed to update category",
	OpDeleteCategory:         "failed to delete category",
	OpRecalculateEventTotals: "failed to recalculate event totals",
}

// FallbackMessage is the generic message used when a failure carries none
func (op Operation) FallbackMessage() string {
	if msg, ok := fallbackMessages[op]; ok {
		return msg
	}
	return "operation failed"
}

// ActionError is a server action failure normalized into a Go error.
// Message is the most specific description available.
type ActionError struct {
	Op      Operation
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ErrActionFailed is wrapped by every ActionError built from a structured failure result
var ErrActionFailed = errors.New("action reported failure")

// normalizeError keeps err when it already carries a message and otherwise
// substitutes the operation's fallback
func normalizeError(op Operation, err error) error {
	if err == nil {
		return nil
	}
	if err.Error() != "" {
		return err
	}
	return &ActionError{Op: op, Message: op.FallbackMessage(), Err: err}
}

// resultError turns a structured {success, error} result into an error
func resultError(op Operation, result domain.ActionResult) error {
	if result.Success {
		return nil
	}
	msg := result.Error
	if msg == "" {
		msg = op.FallbackMessage()
	}
	return &ActionError{Op: op, Message: msg, Err: ErrActionFailed}
}
