package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCategories(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodGet, "/", "", testUserID, "eventId", testEventID)
	require.NoError(t, f.handlers.Categories.GetCategories(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
	assert.Equal(t, "Venue", categories[0].Name)
}

func TestGetCategories_OtherUser(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodGet, "/", "", otherUserID, "eventId", testEventID)
	require.NoError(t, f.handlers.Categories.GetCategories(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCategory_Success(t *testing.T) {
	f := newAPIFixture(t)

	// Prime the cache so the refetch marker can be observed
	c, _ := newContext(http.MethodGet, "/", "", testUserID, "eventId", testEventID)
	require.NoError(t, f.handlers.Categories.GetCategories(c))

	body := `{"name": "Photography", "budgetedAmount": "1500", "color": "#0000ff"}`
	c, rec := newContext(http.MethodPost, "/", body, testUserID, "eventId", testEventID)
	require.NoError(t, f.handlers.Categories.AddCategory(c))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var category domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))
	assert.Equal(t, "Photography", category.Name)
	assert.Equal(t, "1500", category.BudgetedAmount.String())
	assert.NotContains(t, category.ID, "pending-")

	assert.True(t, f.isStale(t, cache.CategoriesKey(testEventID)))

	c, rec = newContext(http.MethodGet, "/", "", testUserID, "eventId", testEventID)
	require.NoError(t, f.handlers.Categories.GetCategories(c))
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	assert.Len(t, categories, 2)
}

func TestAddCategory_Validation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"name": "", "budgetedAmount": "10", "color": "#fff"}`, "name"},
		{"negative budget", `{"name": "Music", "budgetedAmount": "-1", "color": "#fff"}`, "budgetedAmount"},
		{"missing color", `{"name": "Music", "budgetedAmount": "10"}`, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			c, rec := newContext(http.MethodPost, "/", tt.body, testUserID, "eventId", testEventID)
			require.NoError(t, f.handlers.Categories.AddCategory(c))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var problem ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			require.Len(t, problem.Errors, 1)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
		})
	}
}

func TestUpdateCategory_Success(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodPut, "/", `{"name": "Reception Venue"}`, testUserID,
		"eventId", testEventID, "categoryId", "cat-venue")
	require.NoError(t, f.handlers.Categories.UpdateCategory(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var category domain.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &category))
	assert.Equal(t, "Reception Venue", category.Name)
}

func TestUpdateCategory_NotFound(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodPut, "/", `{"name": "Nope"}`, testUserID,
		"eventId", testEventID, "categoryId", "cat-missing")
	require.NoError(t, f.handlers.Categories.UpdateCategory(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteCategory_RemovesExpenses(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodDelete, "/", "", testUserID, "eventId", testEventID, "categoryId", "cat-venue")
	require.NoError(t, f.handlers.Categories.DeleteCategory(c))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := f.expenseRepo.Get("exp-hall")
	assert.False(t, ok)
}

func TestGetCategoryPaymentStats(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodGet, "/", "", testUserID, "eventId", testEventID, "categoryId", "cat-venue")
	require.NoError(t, f.handlers.Categories.GetPaymentStats(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var stats readmodel.CategoryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Stats.TotalExpenses)
	assert.Equal(t, 1, stats.Stats.OverdueExpenses)
	assert.Equal(t, "300", stats.Stats.TotalPaid.String())
}

func TestGetCategoryPaymentStats_UnknownCategory(t *testing.T) {
	f := newAPIFixture(t)

	c, rec := newContext(http.MethodGet, "/", "", testUserID, "eventId", testEventID, "categoryId", "cat-missing")
	require.NoError(t, f.handlers.Categories.GetPaymentStats(c))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
