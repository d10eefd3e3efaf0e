package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/labstack/echo/v4"
)

// PaymentHandler handles payment HTTP requests. Every write goes through the mutation layer.
type PaymentHandler struct {
	layer *mutation.Layer
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(layer *mutation.Layer) *PaymentHandler {
	return &PaymentHandler{layer: layer}
}

// SetPaidRequest is the body of PATCH .../payments/:paymentId/paid
type SetPaidRequest struct {
	Paid          *bool      `json:"paid"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty"`
}

// ScheduleRequest is the body of POST and PUT .../schedule
type ScheduleRequest struct {
	Payments []domain.PaymentInput `json:"payments"`
}

func paymentRef(c echo.Context) mutation.PaymentRef {
	return mutation.PaymentRef{
		UserID:    userID(c),
		EventID:   c.Param("eventId"),
		ExpenseID: c.Param("expenseId"),
		PaymentID: c.Param("paymentId"),
	}
}

// refreshEvent builds callbacks that mark the event's aggregates stale after a
// payment write, since the server has already recomputed totals by then
func refreshEvent[T any](ctx context.Context, layer *mutation.Layer, ref mutation.PaymentRef) *mutation.Callbacks[T] {
	return &mutation.Callbacks[T]{
		OnSuccess: func(T) {
			layer.InvalidateEvent(context.WithoutCancel(ctx), ref.UserID, ref.EventID)
		},
	}
}

// SetPaid godoc
// @Summary Mark a payment paid or unpaid
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param paymentId path string true "Payment ID"
// @Param request body SetPaidRequest true "Paid flag with optional paid date and method"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/payments/{paymentId}/paid [patch]
func (h *PaymentHandler) SetPaid(c echo.Context) error {
	var req SetPaidRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Paid == nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "paid", Message: "paid is required"},
		})
	}

	ctx := c.Request().Context()
	ref := paymentRef(c)
	var (
		payment *domain.Payment
		err     error
	)
	if *req.Paid {
		payment, err = h.layer.MarkPaymentAsPaid(ctx, mutation.MarkPaidParams{
			PaymentRef: ref,
			Data:       domain.MarkPaidInput{PaidAt: req.PaidAt, PaymentMethod: req.PaymentMethod},
		}, nil)
	} else {
		payment, err = h.layer.MarkPaymentAsUnpaid(ctx, ref, nil)
	}
	if err != nil {
		return respondError(c, err, "Failed to update payment status")
	}
	return c.JSON(http.StatusOK, payment)
}

// AddPayment godoc
// @Summary Add a payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param request body domain.PaymentInput true "Payment to add"
// @Success 201 {object} domain.Payment
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/payments [post]
func (h *PaymentHandler) AddPayment(c echo.Context) error {
	var input domain.PaymentInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	ref := paymentRef(c)
	payment, err := h.layer.AddPayment(ctx, mutation.AddPaymentParams{PaymentRef: ref, Payment: input},
		refreshEvent[*domain.Payment](ctx, h.layer, ref))
	if err != nil {
		return respondError(c, err, "Failed to add payment")
	}
	return c.JSON(http.StatusCreated, payment)
}

// UpdatePayment godoc
// @Summary Update a payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param paymentId path string true "Payment ID"
// @Param request body domain.PaymentUpdate true "Fields to change"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/payments/{paymentId} [put]
func (h *PaymentHandler) UpdatePayment(c echo.Context) error {
	var input domain.PaymentUpdate
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	ref := paymentRef(c)
	payment, err := h.layer.UpdatePayment(ctx, mutation.UpdatePaymentParams{PaymentRef: ref, Update: input},
		refreshEvent[*domain.Payment](ctx, h.layer, ref))
	if err != nil {
		return respondError(c, err, "Failed to update payment")
	}
	return c.JSON(http.StatusOK, payment)
}

// DeletePayment godoc
// @Summary Delete a payment
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param paymentId path string true "Payment ID"
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/payments/{paymentId} [delete]
func (h *PaymentHandler) DeletePayment(c echo.Context) error {
	ctx := c.Request().Context()
	ref := paymentRef(c)
	if err := h.layer.DeletePayment(ctx, ref, refreshEvent[struct{}](ctx, h.layer, ref)); err != nil {
		return respondError(c, err, "Failed to delete payment")
	}
	return c.NoContent(http.StatusNoContent)
}

// ClearPayments godoc
// @Summary Clear all payments of an expense
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/payments [delete]
func (h *PaymentHandler) ClearPayments(c echo.Context) error {
	ctx := c.Request().Context()
	ref := paymentRef(c)
	if err := h.layer.ClearAllPayments(ctx, ref, refreshEvent[struct{}](ctx, h.layer, ref)); err != nil {
		return respondError(c, err, "Failed to clear payments")
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateSchedule godoc
// @Summary Create a payment schedule
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param request body ScheduleRequest true "Scheduled payments"
// @Success 201 {object} domain.ActionResult
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/schedule [post]
func (h *PaymentHandler) CreateSchedule(c echo.Context) error {
	return h.saveSchedule(c, h.layer.CreatePaymentSchedule, http.StatusCreated, "Failed to create payment schedule")
}

// UpdateSchedule godoc
// @Summary Replace a payment schedule
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param expenseId path string true "Expense ID"
// @Param request body ScheduleRequest true "Scheduled payments"
// @Success 200 {object} domain.ActionResult
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/expenses/{expenseId}/schedule [put]
func (h *PaymentHandler) UpdateSchedule(c echo.Context) error {
	return h.saveSchedule(c, h.layer.UpdatePaymentSchedule, http.StatusOK, "Failed to update payment schedule")
}

func (h *PaymentHandler) saveSchedule(
	c echo.Context,
	save func(context.Context, mutation.ScheduleParams, *mutation.Callbacks[struct{}]) error,
	status int,
	failure string,
) error {
	var req ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	ref := paymentRef(c)
	if err := save(ctx, mutation.ScheduleParams{PaymentRef: ref, Payments: req.Payments}, refreshEvent[struct{}](ctx, h.layer, ref)); err != nil {
		return respondError(c, err, failure)
	}
	return c.JSON(status, domain.ActionSucceeded())
}
