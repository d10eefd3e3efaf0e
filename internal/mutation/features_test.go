package mutation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/cache"
	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "mutation-layer",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// scenarioState is the world shared by the steps of one scenario
type scenarioState struct {
	store     *cache.MemoryStore
	actions   *fakeActions
	publisher *recordingPublisher
	layer     *Layer

	userID  string
	eventID string

	before   map[string]cache.Entry
	err      error
	observed map[string]decimal.Decimal
}

func initializeScenario(ctx *godog.ScenarioContext) {
	s := &scenarioState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		s.store = cache.NewMemoryStore()
		s.actions = &fakeActions{}
		s.publisher = &recordingPublisher{}
		s.layer = NewLayer(s.store, s.actions, zerolog.Nop())
		s.layer.SetEventPublisher(s.publisher)
		s.layer.SetClock(func() time.Time { return testNow })
		s.before = nil
		s.err = nil
		s.observed = make(map[string]decimal.Decimal)
		return ctx, nil
	})

	ctx.Step(`^an event "([^"]*)" owned by "([^"]*)" with category "([^"]*)"$`, s.anEventWithCategory)
	ctx.Step(`^the category "([^"]*)" has spent (-?\d+(?:\.\d+)?)$`, s.theCategoryHasSpent)
	ctx.Step(`^an expense "([^"]*)" in category "([^"]*)" with payments:$`, s.anExpenseWithPayments)
	ctx.Step(`^the server accepts mutations$`, s.theServerAccepts)
	ctx.Step(`^the server rejects mutations with "([^"]*)"$`, s.theServerRejects)
	ctx.Step(`^I mark payment "([^"]*)" of expense "([^"]*)" as paid$`, s.iMarkPaymentAsPaid)
	ctx.Step(`^I mark payment "([^"]*)" of expense "([^"]*)" as unpaid$`, s.iMarkPaymentAsUnpaid)
	ctx.Step(`^I add category "([^"]*)" with budget (-?\d+(?:\.\d+)?) and color "([^"]*)"$`, s.iAddCategory)
	ctx.Step(`^the mutation succeeds$`, s.theMutationSucceeds)
	ctx.Step(`^the mutation fails with "([^"]*)"$`, s.theMutationFailsWith)
	ctx.Step(`^while the server was called the category "([^"]*)" had spent (-?\d+(?:\.\d+)?)$`, s.categoryHadSpent)
	ctx.Step(`^while the server was called the event had spent (-?\d+(?:\.\d+)?)$`, s.eventHadSpent)
	ctx.Step(`^while the server was called the cached categories numbered (\d+)$`, s.categoriesNumbered)
	ctx.Step(`^the expenses, categories, event and event list caches are stale$`, s.allEventCachesStale)
	ctx.Step(`^the categories and event caches are stale$`, s.categoriesAndEventStale)
	ctx.Step(`^every cached aggregate is byte for byte what it was before$`, s.cacheUnchanged)
	ctx.Step(`^an? "([^"]*)" event was pushed to "([^"]*)"$`, s.eventWasPushed)
	ctx.Step(`^no event was pushed$`, s.noEventPushed)
	ctx.Step(`^the server was not called$`, s.serverNotCalled)
}

func (s *scenarioState) anEventWithCategory(eventID, userID, categoryID string) error {
	s.userID = userID
	s.eventID = eventID
	ctx := context.Background()

	event := &domain.Event{ID: eventID, UserID: userID, Name: "Event", EventType: domain.EventTypeWedding}
	if err := cache.Put(ctx, s.store, cache.EventKey(eventID), event); err != nil {
		return err
	}
	if err := cache.Put(ctx, s.store, cache.EventsKey(userID), []*domain.Event{event}); err != nil {
		return err
	}
	if err := cache.Put(ctx, s.store, cache.CategoriesKey(eventID), []*domain.Category{
		{ID: categoryID, EventID: eventID, UserID: userID, Name: "Category", Color: "#000000"},
	}); err != nil {
		return err
	}
	return cache.Put(ctx, s.store, cache.ExpensesKey(userID, eventID), []*domain.Expense{})
}

func (s *scenarioState) theCategoryHasSpent(categoryID, amount string) error {
	spent, err := decimal.NewFromString(amount)
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := patch(ctx, s.store, cache.CategoriesKey(s.eventID), func(categories *[]*domain.Category) bool {
		for _, c := range *categories {
			if c.ID == categoryID {
				c.SpentAmount = spent
				return true
			}
		}
		return false
	}); err != nil {
		return err
	}
	_, err = patch(ctx, s.store, cache.EventKey(s.eventID), func(event **domain.Event) bool {
		(*event).TotalSpentAmount = spent
		return true
	})
	return err
}

func (s *scenarioState) anExpenseWithPayments(expenseID, categoryID string, table *godog.Table) error {
	expense := &domain.Expense{
		ID:                 expenseID,
		EventID:            s.eventID,
		CategoryID:         categoryID,
		UserID:             s.userID,
		Name:               "Expense",
		HasPaymentSchedule: true,
	}
	total := decimal.Zero

	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		amount, err := decimal.NewFromString(row.Cells[1].Value)
		if err != nil {
			return err
		}
		paid, err := strconv.ParseBool(row.Cells[2].Value)
		if err != nil {
			return err
		}
		expense.PaymentSchedule = append(expense.PaymentSchedule, domain.Payment{
			ID:      row.Cells[0].Value,
			Amount:  amount,
			DueDate: testNow.AddDate(0, 0, i),
			IsPaid:  paid,
		})
		total = total.Add(amount)
	}
	expense.Amount = total

	return cache.Put(context.Background(), s.store, cache.ExpensesKey(s.userID, s.eventID), []*domain.Expense{expense})
}

// observe records the cached aggregates while a server call is in flight
func (s *scenarioState) observe(ctx context.Context) {
	if categories, _, ok, _ := cache.Peek[[]*domain.Category](ctx, s.store, cache.CategoriesKey(s.eventID)); ok {
		for _, c := range categories {
			s.observed["category:"+c.ID] = c.SpentAmount
		}
		s.observed["categories"] = decimal.NewFromInt(int64(len(categories)))
	}
	if event, _, ok, _ := cache.Peek[*domain.Event](ctx, s.store, cache.EventKey(s.eventID)); ok {
		s.observed["event"] = event.TotalSpentAmount
	}
}

func (s *scenarioState) configure(fail error) {
	s.actions.MarkPaymentAsPaidFn = func(ctx context.Context, userID, eventID, expenseID, paymentID string, input domain.MarkPaidInput) (*domain.Payment, error) {
		s.observe(ctx)
		if fail != nil {
			return nil, fail
		}
		return &domain.Payment{ID: paymentID, IsPaid: true}, nil
	}
	s.actions.MarkPaymentAsUnpaidFn = func(ctx context.Context, userID, eventID, expenseID, paymentID string) (*domain.Payment, error) {
		s.observe(ctx)
		if fail != nil {
			return nil, fail
		}
		return &domain.Payment{ID: paymentID}, nil
	}
	s.actions.AddCategoryFn = func(ctx context.Context, userID, eventID string, input domain.CategoryInput) (*domain.Category, error) {
		s.observe(ctx)
		if fail != nil {
			return nil, fail
		}
		return &domain.Category{ID: "cat-new", EventID: eventID, Name: input.Name}, nil
	}
}

func (s *scenarioState) theServerAccepts() error {
	s.configure(nil)
	return nil
}

func (s *scenarioState) theServerRejects(message string) error {
	s.configure(errors.New(message))
	return nil
}

func (s *scenarioState) captureBefore() {
	s.before = make(map[string]cache.Entry)
	for _, key := range eventKeys(s.userID, s.eventID) {
		if entry, ok, err := s.store.Get(context.Background(), key); err == nil && ok {
			s.before[key.String()] = entry
		}
	}
}

func (s *scenarioState) iMarkPaymentAsPaid(paymentID, expenseID string) error {
	s.captureBefore()
	_, s.err = s.layer.MarkPaymentAsPaid(context.Background(), MarkPaidParams{
		PaymentRef: PaymentRef{UserID: s.userID, EventID: s.eventID, ExpenseID: expenseID, PaymentID: paymentID},
	}, nil)
	return nil
}

func (s *scenarioState) iMarkPaymentAsUnpaid(paymentID, expenseID string) error {
	s.captureBefore()
	_, s.err = s.layer.MarkPaymentAsUnpaid(context.Background(),
		PaymentRef{UserID: s.userID, EventID: s.eventID, ExpenseID: expenseID, PaymentID: paymentID}, nil)
	return nil
}

func (s *scenarioState) iAddCategory(name, budget, color string) error {
	amount, err := decimal.NewFromString(budget)
	if err != nil {
		return err
	}
	s.captureBefore()
	_, s.err = s.layer.AddCategory(context.Background(), AddCategoryParams{
		UserID:   s.userID,
		EventID:  s.eventID,
		Category: domain.CategoryInput{Name: name, BudgetedAmount: amount, Color: color},
	}, nil)
	return nil
}

func (s *scenarioState) theMutationSucceeds() error {
	if s.err != nil {
		return fmt.Errorf("expected success, got %v", s.err)
	}
	return nil
}

func (s *scenarioState) theMutationFailsWith(message string) error {
	if s.err == nil {
		return errors.New("expected the mutation to fail")
	}
	if s.err.Error() != message {
		return fmt.Errorf("expected error %q, got %q", message, s.err.Error())
	}
	return nil
}

func (s *scenarioState) expectObserved(name, want string) error {
	expected, err := decimal.NewFromString(want)
	if err != nil {
		return err
	}
	got, ok := s.observed[name]
	if !ok {
		return fmt.Errorf("nothing observed for %s", name)
	}
	if !got.Equal(expected) {
		return fmt.Errorf("expected %s to be %s, got %s", name, expected, got)
	}
	return nil
}

func (s *scenarioState) categoryHadSpent(categoryID, amount string) error {
	return s.expectObserved("category:"+categoryID, amount)
}

func (s *scenarioState) eventHadSpent(amount string) error {
	return s.expectObserved("event", amount)
}

func (s *scenarioState) categoriesNumbered(count string) error {
	return s.expectObserved("categories", count)
}

func (s *scenarioState) expectStale(keys ...cache.Key) error {
	for _, key := range keys {
		entry, ok, err := s.store.Get(context.Background(), key)
		if err != nil {
			return err
		}
		if !ok || !entry.Stale {
			return fmt.Errorf("expected %s to be stale", key)
		}
	}
	return nil
}

func (s *scenarioState) allEventCachesStale() error {
	return s.expectStale(eventKeys(s.userID, s.eventID)...)
}

func (s *scenarioState) categoriesAndEventStale() error {
	return s.expectStale(cache.CategoriesKey(s.eventID), cache.EventKey(s.eventID))
}

func (s *scenarioState) cacheUnchanged() error {
	for name, before := range s.before {
		var key cache.Key
		for _, k := range eventKeys(s.userID, s.eventID) {
			if k.String() == name {
				key = k
			}
		}
		after, ok, err := s.store.Get(context.Background(), key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s disappeared from the cache", name)
		}
		if string(after.Value) != string(before.Value) || after.Stale != before.Stale {
			return fmt.Errorf("%s changed: %s -> %s", name, before.Value, after.Value)
		}
	}
	return nil
}

func (s *scenarioState) eventWasPushed(eventType, userID string) error {
	s.publisher.mu.Lock()
	defer s.publisher.mu.Unlock()
	for i, e := range s.publisher.events {
		if e.Type == eventType && s.publisher.users[i] == userID {
			return nil
		}
	}
	return fmt.Errorf("no %s event pushed to %s", eventType, userID)
}

func (s *scenarioState) noEventPushed() error {
	if n := len(s.publisher.Events()); n != 0 {
		return fmt.Errorf("expected no events, got %d", n)
	}
	return nil
}

func (s *scenarioState) serverNotCalled() error {
	if calls := s.actions.Calls(); len(calls) != 0 {
		return fmt.Errorf("expected no server calls, got %v", calls)
	}
	return nil
}
