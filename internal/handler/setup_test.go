package handler

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/middleware"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/mutation"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/readmodel"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/service"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/testutil"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	testUserID  = "auth0|alice"
	otherUserID = "auth0|bob"
	testEventID = "evt-1"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

// apiFixture wires the real services, mutation layer and reader over mock repositories
type apiFixture struct {
	eventRepo    *testutil.MockEventRepository
	categoryRepo *testutil.MockCategoryRepository
	expenseRepo  *testutil.MockExpenseRepository
	store        *cache.MemoryStore
	layer        *mutation.Layer
	reader       *readmodel.Reader
	hub          *websocket.Hub
	handlers     Handlers
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	eventRepo, categoryRepo, expenseRepo := testutil.NewMockRepositories()

	events := service.NewEventService(eventRepo, categoryRepo, expenseRepo)
	events.SetClock(func() time.Time { return testNow })
	categories := service.NewCategoryService(categoryRepo, events)
	expenses := service.NewExpenseService(expenseRepo, categoryRepo, events)
	payments := service.NewPaymentService(expenseRepo, events)

	store := cache.NewMemoryStore()
	hub := websocket.NewHub()
	layer := mutation.NewLayer(store, service.NewActions(events, categories, payments), zerolog.Nop())
	layer.SetEventPublisher(hub)
	layer.SetClock(func() time.Time { return testNow })

	reader := readmodel.NewReader(store, events, categories, expenses, cache.RetryPolicy{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		Classify:    cache.ClassifyError,
	})
	reader.SetClock(func() time.Time { return testNow })

	eventRepo.AddEvent(&domain.Event{ID: testEventID, UserID: testUserID, Name: "Our Wedding", EventType: domain.EventTypeWedding})
	categoryRepo.AddCategory(&domain.Category{
		ID: "cat-venue", EventID: testEventID, UserID: testUserID, Name: "Venue",
		BudgetedAmount: decimal.NewFromInt(5000), Color: "#ff0000",
	})
	paidAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	expenseRepo.AddExpense(&domain.Expense{
		ID: "exp-hall", EventID: testEventID, CategoryID: "cat-venue", UserID: testUserID,
		Name: "Hall", Amount: decimal.NewFromInt(1000), HasPaymentSchedule: true,
		PaymentSchedule: []domain.Payment{
			{ID: "p-1", Amount: decimal.NewFromInt(300), DueDate: paidAt, IsPaid: true, PaidAt: &paidAt},
			{ID: "p-2", Amount: decimal.NewFromInt(400), DueDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "p-3", Amount: decimal.NewFromInt(300), DueDate: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)},
		},
	})
	expenseRepo.AddExpense(&domain.Expense{
		ID: "exp-flowers", EventID: testEventID, CategoryID: "cat-venue", UserID: testUserID,
		Name: "Flowers", Amount: decimal.NewFromInt(200),
	})

	return &apiFixture{
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		store:        store,
		layer:        layer,
		reader:       reader,
		hub:          hub,
		handlers: Handlers{
			Events:     NewEventHandler(events, reader, layer),
			Categories: NewCategoryHandler(reader, layer),
			Expenses:   NewExpenseHandler(expenses, reader, layer),
			Payments:   NewPaymentHandler(layer),
			Mutations:  NewMutationHandler(layer.Tracker()),
			Health:     NewHealthHandler(hub, nil),
			WebSocket:  NewWebSocketHandler(hub, &mockJWTValidator{userID: testUserID}, testAllowedOrigins),
		},
	}
}

// newContext builds an authenticated echo context. params alternate name and value.
func newContext(method, target, body, userID string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

// isStale reports whether key holds a value marked stale
func (f *apiFixture) isStale(t *testing.T, key cache.Key) bool {
	t.Helper()
	entry, ok, err := f.store.Get(t.Context(), key)
	if err != nil {
		t.Fatalf("cache read failed: %v", err)
	}
	return ok && entry.Stale
}
