package handler

import (
	"net/http"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ExpenseHandler handles expense HTTP requests
type ExpenseHandler struct {
	expenses *service.ExpenseService
	reader   *readmodel.Reader
	layer    *mutation.Layer
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(expenses *service.ExpenseService, reader *readmodel.Reader, layer *mutation.Layer) *ExpenseHandler {
	return &ExpenseHandler{expenses: expenses, reader: reader, layer: layer}
}

// GetExpenses handles GET /api/v1/events/:eventId/expenses
func (h *ExpenseHandler) GetExpenses(c echo.Context) error {
	expenses, err := h.reader.Expenses(c.Request().Context(), userID(c), c.Param("eventId"))
	if err != nil {
		return respondError(c, err, "Failed to get expenses")
	}
	return c.JSON(http.StatusOK, expenses)
}

// CreateExpense handles POST /api/v1/events/:eventId/expenses
func (h *ExpenseHandler) CreateExpense(c echo.Context) error {
	var input domain.ExpenseInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	uid := userID(c)
	eventID := c.Param("eventId")
	expense, err := h.expenses.CreateExpense(ctx, uid, eventID, input)
	if err != nil {
		return respondError(c, err, "Failed to create expense")
	}
	h.layer.InvalidateEvent(ctx, uid, eventID)

	log.Info().Str("user_id", uid).Str("event_id", eventID).Str("expense_id", expense.ID).Msg("Expense created")
	return c.JSON(http.StatusCreated, expense)
}

// UpdateExpense handles PUT /api/v1/events/:eventId/expenses/:expenseId
func (h *ExpenseHandler) UpdateExpense(c echo.Context) error {
	var input domain.ExpenseUpdate
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	uid := userID(c)
	eventID := c.Param("eventId")
	expense, err := h.expenses.UpdateExpense(ctx, uid, eventID, c.Param("expenseId"), input)
	if err != nil {
		return respondError(c, err, "Failed to update expense")
	}
	h.layer.InvalidateEvent(ctx, uid, eventID)
	return c.JSON(http.StatusOK, expense)
}

// DeleteExpense handles DELETE /api/v1/events/:eventId/expenses/:expenseId
func (h *ExpenseHandler) DeleteExpense(c echo.Context) error {
	ctx := c.Request().Context()
	uid := userID(c)
	eventID := c.Param("eventId")
	if err := h.expenses.DeleteExpense(ctx, uid, eventID, c.Param("expenseId")); err != nil {
		return respondError(c, err, "Failed to delete expense")
	}
	h.layer.InvalidateEvent(ctx, uid, eventID)
	return c.NoContent(http.StatusNoContent)
}

// GetPaymentStatus handles GET /api/v1/events/:eventId/expenses/:expenseId/payment-status
func (h *ExpenseHandler) GetPaymentStatus(c echo.Context) error {
	status, err := h.reader.ExpensePaymentStatus(c.Request().Context(), userID(c), c.Param("eventId"), c.Param("expenseId"))
	if err != nil {
		return respondError(c, err, "Failed to get payment status")
	}
	return c.JSON(http.StatusOK, status)
}
