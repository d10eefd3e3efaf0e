package handler

import (
	"net/http"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/labstack/echo/v4"
)

// MutationHandler exposes the caller's mutation status for loading and disabled states
type MutationHandler struct {
	tracker *mutation.Tracker
}

// NewMutationHandler creates a new MutationHandler
func NewMutationHandler(tracker *mutation.Tracker) *MutationHandler {
	return &MutationHandler{tracker: tracker}
}

// GetStatus handles GET /api/v1/mutations
func (h *MutationHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.tracker.ForUser(userID(c)))
}
