package handler

import (
	"context"
	"net/http"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/middleware"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// EventHandler handles event HTTP requests
type EventHandler struct {
	events *service.EventService
	reader *readmodel.Reader
	layer  *mutation.Layer
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events *service.EventService, reader *readmodel.Reader, layer *mutation.Layer) *EventHandler {
	return &EventHandler{events: events, reader: reader, layer: layer}
}

func userID(c echo.Context) string {
	return middleware.GetUserID(c)
}

// GetEvents godoc
// @Summary List events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Event
// @Failure 401 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /events [get]
func (h *EventHandler) GetEvents(c echo.Context) error {
	events, err := h.reader.Events(c.Request().Context(), userID(c))
	if err != nil {
		return respondError(c, err, "Failed to get events")
	}
	return c.JSON(http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 503 {object} ProblemDetails
// @Router /events/{eventId} [get]
func (h *EventHandler) GetEvent(c echo.Context) error {
	event, err := h.reader.Event(c.Request().Context(), userID(c), c.Param("eventId"))
	if err != nil {
		return respondError(c, err, "Failed to get event")
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body domain.EventInput true "Event to create"
// @Success 201 {object} domain.Event
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /events [post]
func (h *EventHandler) CreateEvent(c echo.Context) error {
	var input domain.EventInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	uid := userID(c)
	event, err := h.events.CreateEvent(ctx, uid, input)
	if err != nil {
		return respondError(c, err, "Failed to create event")
	}
	h.layer.InvalidateEvent(ctx, uid, event.ID)

	log.Info().Str("user_id", uid).Str("event_id", event.ID).Msg("Event created")
	return c.JSON(http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Param request body domain.EventUpdate true "Fields to change"
// @Success 200 {object} domain.Event
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /events/{eventId} [put]
func (h *EventHandler) UpdateEvent(c echo.Context) error {
	var input domain.EventUpdate
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	ctx := c.Request().Context()
	uid := userID(c)
	event, err := h.events.UpdateEvent(ctx, uid, c.Param("eventId"), input)
	if err != nil {
		return respondError(c, err, "Failed to update event")
	}
	h.layer.InvalidateEvent(ctx, uid, event.ID)
	return c.JSON(http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 204
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /events/{eventId} [delete]
func (h *EventHandler) DeleteEvent(c echo.Context) error {
	ctx := c.Request().Context()
	uid := userID(c)
	eventID := c.Param("eventId")
	if err := h.events.DeleteEvent(ctx, uid, eventID); err != nil {
		return respondError(c, err, "Failed to delete event")
	}
	h.layer.InvalidateEvent(ctx, uid, eventID)

	log.Info().Str("user_id", uid).Str("event_id", eventID).Msg("Event deleted")
	return c.NoContent(http.StatusNoContent)
}

// RecalculateTotals godoc
// @Summary Recalculate event totals
// @Description Recomputes category and event aggregates from the stored payments.
// @Description The cache is left alone by the layer so the whole event is refreshed on success.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventId path string true "Event ID"
// @Success 200 {object} domain.Event
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Failure 422 {object} ProblemDetails
// @Router /events/{eventId}/recalculate [post]
func (h *EventHandler) RecalculateTotals(c echo.Context) error {
	ctx := c.Request().Context()
	uid := userID(c)
	eventID := c.Param("eventId")

	event, err := h.layer.RecalculateEventTotals(ctx, mutation.RecalculateParams{UserID: uid, EventID: eventID},
		&mutation.Callbacks[*domain.Event]{
			OnSuccess: func(*domain.Event) {
				h.layer.InvalidateEvent(context.WithoutCancel(ctx), uid, eventID)
			},
		})
	if err != nil {
		return respondError(c, err, "Failed to recalculate event totals")
	}
	return c.JSON(http.StatusOK, event)
}
