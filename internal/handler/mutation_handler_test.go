package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutationStatus_ReportsLastOutcome(t *testing.T) {
	f := newAPIFixture(t)

	c, _ := newContext(http.MethodPatch, "/", `{"paid": true}`, testUserID, paymentParams("exp-hall", "p-2")...)
	require.NoError(t, f.handlers.Payments.SetPaid(c))
	c, _ = newContext(http.MethodDelete, "/", "", testUserID, "eventId", testEventID, "categoryId", "cat-missing")
	require.NoError(t, f.handlers.Categories.DeleteCategory(c))

	c, rec := newContext(http.MethodGet, "/api/v1/mutations", "", testUserID)
	require.NoError(t, f.handlers.Mutations.GetStatus(c))

	require.Equal(t, http.StatusOK, rec.Code)
	var statuses map[mutation.Operation]mutation.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))

	assert.Equal(t, mutation.StateSuccess, statuses[mutation.OpMarkPaymentAsPaid].State)
	assert.Equal(t, mutation.StateError, statuses[mutation.OpDeleteCategory].State)
	assert.NotEmpty(t, statuses[mutation.OpDeleteCategory].Error)
}

func TestMutationStatus_IsPerUser(t *testing.T) {
	f := newAPIFixture(t)

	c, _ := newContext(http.MethodPatch, "/", `{"paid": true}`, testUserID, paymentParams("exp-hall", "p-2")...)
	require.NoError(t, f.handlers.Payments.SetPaid(c))

	c, rec := newContext(http.MethodGet, "/api/v1/mutations", "", otherUserID)
	require.NoError(t, f.handlers.Mutations.GetStatus(c))

	var statuses map[mutation.Operation]mutation.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	assert.Empty(t, statuses)
}
