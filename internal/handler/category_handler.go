package handler

import (
	"net/http"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category HTTP requests. Writes go through the mutation layer.
type CategoryHandler struct {
	reader *readmodel.Reader
	layer  *mutation.Layer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(reader *readmodel.Reader, layer *mutation.Layer) *CategoryHandler {
	return &CategoryHandler{reader: reader, layer: layer}
}

// GetCategories handles GET /api/v1/events/:eventId/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	categories, err := h.reader.Categories(c.Request().Context(), userID(c), c.Param("eventId"))
	if err != nil {
		return respondError(c, err, "Failed to get categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// AddCategory handles POST /api/v1/events/:eventId/categories
func (h *CategoryHandler) AddCategory(c echo.Context) error {
	var input domain.CategoryInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.layer.AddCategory(c.Request().Context(), mutation.AddCategoryParams{
		UserID:   userID(c),
		EventID:  c.Param("eventId"),
		Category: input,
	}, nil)
	if err != nil {
		return respondError(c, err, "Failed to add category")
	}
	return c.JSON(http.StatusCreated, category)
}

// UpdateCategory handles PUT /api/v1/events/:eventId/categories/:categoryId
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var input domain.CategoryUpdate
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.layer.UpdateCategory(c.Request().Context(), mutation.UpdateCategoryParams{
		UserID:     userID(c),
		EventID:    c.Param("eventId"),
		CategoryID: c.Param("categoryId"),
		Update:     input,
	}, nil)
	if err != nil {
		return respondError(c, err, "Failed to update category")
	}
	return c.JSON(http.StatusOK, category)
}

// DeleteCategory handles DELETE /api/v1/events/:eventId/categories/:categoryId
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	err := h.layer.DeleteCategory(c.Request().Context(), mutation.DeleteCategoryParams{
		UserID:     userID(c),
		EventID:    c.Param("eventId"),
		CategoryID: c.Param("categoryId"),
	}, nil)
	if err != nil {
		return respondError(c, err, "Failed to delete category")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetPaymentStats handles GET /api/v1/events/:eventId/categories/:categoryId/payment-stats
func (h *CategoryHandler) GetPaymentStats(c echo.Context) error {
	stats, err := h.reader.CategoryPaymentStats(c.Request().Context(), userID(c), c.Param("eventId"), c.Param("categoryId"))
	if err != nil {
		return respondError(c, err, "Failed to get category payment stats")
	}
	return c.JSON(http.StatusOK, stats)
}
