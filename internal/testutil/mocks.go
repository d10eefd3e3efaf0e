package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/google/uuid"
)

// MockEventRepository is a mock implementation of domain.EventRepository
type MockEventRepository struct {
	mu     sync.Mutex
	Events map[string]*domain.Event
	// CategoryRepo receives category totals written by ApplyTotals when set
	CategoryRepo *MockCategoryRepository

	GetByIDFn     func(ctx context.Context, userID, id string) (*domain.Event, error)
	ApplyTotalsFn func(ctx context.Context, eventID string, totals domain.EventTotals, categories []domain.CategoryTotals) error
	GetAllFn      func(ctx context.Context) ([]*domain.Event, error)
}

// NewMockEventRepository creates a new MockEventRepository
func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{Events: make(map[string]*domain.Event)}
}

// AddEvent stores an event directly (helper for tests)
func (m *MockEventRepository) AddEvent(event *domain.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events[event.ID] = event
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	stored := *event
	m.Events[event.ID] = &stored
	return copyEvent(&stored), nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, userID, id string) (*domain.Event, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Events[id]; ok && e.UserID == userID {
		return copyEvent(e), nil
	}
	return nil, domain.ErrEventNotFound
}

func (m *MockEventRepository) GetAllByUser(ctx context.Context, userID string) ([]*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Event, 0)
	for _, e := range m.Events {
		if e.UserID == userID {
			result = append(result, copyEvent(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockEventRepository) GetAll(ctx context.Context) ([]*domain.Event, error) {
	if m.GetAllFn != nil {
		return m.GetAllFn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Event, 0, len(m.Events))
	for _, e := range m.Events {
		result = append(result, copyEvent(e))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) (*domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Events[event.ID]; !ok {
		return nil, domain.ErrEventNotFound
	}
	event.UpdatedAt = time.Now()
	stored := *event
	m.Events[event.ID] = &stored
	return copyEvent(&stored), nil
}

func (m *MockEventRepository) Delete(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Events[id]; !ok || e.UserID != userID {
		return domain.ErrEventNotFound
	}
	delete(m.Events, id)
	return nil
}

func (m *MockEventRepository) ApplyTotals(ctx context.Context, eventID string, totals domain.EventTotals, categories []domain.CategoryTotals) error {
	if m.ApplyTotalsFn != nil {
		return m.ApplyTotalsFn(ctx, eventID, totals, categories)
	}
	m.mu.Lock()
	e, ok := m.Events[eventID]
	if !ok {
		m.mu.Unlock()
		return domain.ErrEventNotFound
	}
	e.TotalBudgetedAmount = totals.TotalBudgetedAmount
	e.TotalScheduledAmount = totals.TotalScheduledAmount
	e.TotalSpentAmount = totals.TotalSpentAmount
	m.mu.Unlock()

	if m.CategoryRepo != nil {
		m.CategoryRepo.applyTotals(eventID, categories)
	}
	return nil
}

func copyEvent(e *domain.Event) *domain.Event {
	c := *e
	return &c
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	mu         sync.Mutex
	Categories map[string]*domain.Category
	// ExpenseRepo receives the cascade of Delete when set
	ExpenseRepo *MockExpenseRepository

	CreateFn func(ctx context.Context, category *domain.Category) (*domain.Category, error)
	DeleteFn func(ctx context.Context, eventID, id string) error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{Categories: make(map[string]*domain.Category)}
}

// AddCategory stores a category directly (helper for tests)
func (m *MockCategoryRepository) AddCategory(category *domain.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Categories[category.ID] = category
}

func (m *MockCategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	stored := *category
	m.Categories[category.ID] = &stored
	c := stored
	return &c, nil
}

func (m *MockCategoryRepository) GetByID(ctx context.Context, eventID, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.Categories[id]; ok && c.EventID == eventID {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetAllByEvent(ctx context.Context, eventID string) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Category, 0)
	for _, c := range m.Categories {
		if c.EventID == eventID {
			cp := *c
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Categories[category.ID]; !ok {
		return nil, domain.ErrCategoryNotFound
	}
	stored := *category
	m.Categories[category.ID] = &stored
	c := stored
	return &c, nil
}

func (m *MockCategoryRepository) Delete(ctx context.Context, eventID, id string) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, eventID, id)
	}
	m.mu.Lock()
	c, ok := m.Categories[id]
	if !ok || c.EventID != eventID {
		m.mu.Unlock()
		return domain.ErrCategoryNotFound
	}
	delete(m.Categories, id)
	m.mu.Unlock()

	if m.ExpenseRepo != nil {
		m.ExpenseRepo.deleteByCategory(id)
	}
	return nil
}

func (m *MockCategoryRepository) applyTotals(eventID string, totals []domain.CategoryTotals) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range totals {
		if c, ok := m.Categories[t.CategoryID]; ok && c.EventID == eventID {
			c.ScheduledAmount = t.ScheduledAmount
			c.SpentAmount = t.SpentAmount
		}
	}
}

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository
type MockExpenseRepository struct {
	mu       sync.Mutex
	rowMu    sync.Mutex
	Expenses map[string]*domain.Expense

	ModifyPaymentsFn func(ctx context.Context, eventID, expenseID string, fn func(*domain.Expense) error) (*domain.Expense, error)
	GetAllByEventFn  func(ctx context.Context, eventID string) ([]*domain.Expense, error)
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{Expenses: make(map[string]*domain.Expense)}
}

// AddExpense stores an expense directly (helper for tests)
func (m *MockExpenseRepository) AddExpense(expense *domain.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Expenses[expense.ID] = expense
}

// Get returns a copy of the stored expense regardless of event (helper for tests)
func (m *MockExpenseRepository) Get(id string) (*domain.Expense, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.Expenses[id]
	if !ok {
		return nil, false
	}
	return e.Clone(), true
}

func (m *MockExpenseRepository) Create(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if expense.ID == "" {
		expense.ID = uuid.NewString()
	}
	m.Expenses[expense.ID] = expense.Clone()
	return expense.Clone(), nil
}

func (m *MockExpenseRepository) GetByID(ctx context.Context, eventID, id string) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Expenses[id]; ok && e.EventID == eventID {
		return e.Clone(), nil
	}
	return nil, domain.ErrExpenseNotFound
}

func (m *MockExpenseRepository) GetAllByEvent(ctx context.Context, eventID string) ([]*domain.Expense, error) {
	if m.GetAllByEventFn != nil {
		return m.GetAllByEventFn(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*domain.Expense, 0)
	for _, e := range m.Expenses {
		if e.EventID == eventID {
			result = append(result, e.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MockExpenseRepository) Update(ctx context.Context, expense *domain.Expense) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Expenses[expense.ID]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	// Payments are only written through ModifyPayments
	updated := expense.Clone()
	updated.HasPaymentSchedule = existing.HasPaymentSchedule
	updated.PaymentSchedule = existing.Clone().PaymentSchedule
	updated.OneOffPayment = existing.Clone().OneOffPayment
	m.Expenses[expense.ID] = updated
	return updated.Clone(), nil
}

func (m *MockExpenseRepository) Delete(ctx context.Context, eventID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.Expenses[id]; !ok || e.EventID != eventID {
		return domain.ErrExpenseNotFound
	}
	delete(m.Expenses, id)
	return nil
}

// ModifyPayments holds the expense's row lock across the whole read-modify-write
func (m *MockExpenseRepository) ModifyPayments(ctx context.Context, eventID, expenseID string, fn func(*domain.Expense) error) (*domain.Expense, error) {
	if m.ModifyPaymentsFn != nil {
		return m.ModifyPaymentsFn(ctx, eventID, expenseID, fn)
	}
	m.rowMu.Lock()
	defer m.rowMu.Unlock()

	m.mu.Lock()
	stored, ok := m.Expenses[expenseID]
	if ok {
		stored = stored.Clone()
	}
	m.mu.Unlock()
	if !ok || stored.EventID != eventID {
		return nil, domain.ErrExpenseNotFound
	}

	if err := fn(stored); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Expenses[expenseID]
	if !ok {
		return nil, domain.ErrExpenseNotFound
	}
	existing.HasPaymentSchedule = stored.HasPaymentSchedule
	existing.PaymentSchedule = stored.PaymentSchedule
	existing.OneOffPayment = stored.OneOffPayment
	return existing.Clone(), nil
}

func (m *MockExpenseRepository) deleteByCategory(categoryID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.Expenses {
		if e.CategoryID == categoryID {
			delete(m.Expenses, id)
		}
	}
}

// NewMockRepositories wires the three mocks so cascades and totals behave like the database
func NewMockRepositories() (*MockEventRepository, *MockCategoryRepository, *MockExpenseRepository) {
	events := NewMockEventRepository()
	categories := NewMockCategoryRepository()
	expenses := NewMockExpenseRepository()
	events.CategoryRepo = categories
	categories.ExpenseRepo = expenses
	return events, categories, expenses
}
