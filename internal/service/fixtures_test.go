package service

import (
	"context"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

const (
	testUser  = "auth0|alice"
	otherUser = "auth0|bob"
	testEvent = "evt-1"
)

var testNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	eventRepo    *testutil.MockEventRepository
	categoryRepo *testutil.MockCategoryRepository
	expenseRepo  *testutil.MockExpenseRepository
	events       *EventService
	categories   *CategoryService
	expenses     *ExpenseService
	payments     *PaymentService
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(month time.Month, d int) time.Time {
	return time.Date(2026, month, d, 0, 0, 0, 0, time.UTC)
}

// newFixture seeds one event with a venue category (budget 5000) holding a scheduled
// expense and a catering category (budget 2000) holding an expense without payments
func newFixture() *fixture {
	eventRepo, categoryRepo, expenseRepo := testutil.NewMockRepositories()
	events := NewEventService(eventRepo, categoryRepo, expenseRepo)
	events.SetClock(func() time.Time { return testNow })

	eventRepo.AddEvent(&domain.Event{
		ID:        testEvent,
		UserID:    testUser,
		Name:      "Our Wedding",
		EventType: domain.EventTypeWedding,
	})
	categoryRepo.AddCategory(&domain.Category{
		ID: "cat-venue", EventID: testEvent, UserID: testUser, Name: "Venue",
		BudgetedAmount: dec("5000"), Color: "#ff0000",
	})
	categoryRepo.AddCategory(&domain.Category{
		ID: "cat-food", EventID: testEvent, UserID: testUser, Name: "Catering",
		BudgetedAmount: dec("2000"), Color: "#00ff00",
	})
	paidAt := day(time.February, 1)
	expenseRepo.AddExpense(&domain.Expense{
		ID: "exp-hall", EventID: testEvent, CategoryID: "cat-venue", UserID: testUser,
		Name: "Hall", Amount: dec("1000"), HasPaymentSchedule: true,
		PaymentSchedule: []domain.Payment{
			{ID: "p-1", Amount: dec("300"), DueDate: day(time.February, 1), IsPaid: true, PaidAt: &paidAt},
			{ID: "p-2", Amount: dec("400"), DueDate: day(time.March, 1)},
			{ID: "p-3", Amount: dec("300"), DueDate: day(time.April, 1)},
		},
	})
	expenseRepo.AddExpense(&domain.Expense{
		ID: "exp-cake", EventID: testEvent, CategoryID: "cat-food", UserID: testUser,
		Name: "Cake", Amount: dec("250"),
	})

	return &fixture{
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		expenseRepo:  expenseRepo,
		events:       events,
		categories:   NewCategoryService(categoryRepo, events),
		expenses:     NewExpenseService(expenseRepo, categoryRepo, events),
		payments:     NewPaymentService(expenseRepo, events),
	}
}

func (f *fixture) event() *domain.Event {
	e, _ := f.eventRepo.GetByID(context.Background(), testUser, testEvent)
	return e
}

func (f *fixture) category(id string) *domain.Category {
	c, _ := f.categoryRepo.GetByID(context.Background(), testEvent, id)
	return c
}

func (f *fixture) expense(id string) *domain.Expense {
	e, _ := f.expenseRepo.Get(id)
	return e
}
