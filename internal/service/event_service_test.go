package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dafibh/eventbudget/eventbudget-backend/internal/domain"
)

func TestCreateEvent_Success(t *testing.T) {
	f := newFixture()

	event, err := f.events.CreateEvent(context.Background(), testUser, domain.EventInput{
		Name:      "  Graduation Party ",
		EventType: domain.EventTypeGraduation,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if event.Name != "Graduation Party" {
		t.Errorf("Expected trimmed name, got %q", event.Name)
	}
	if event.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if !event.TotalSpentAmount.IsZero() || !event.TotalBudgetedAmount.IsZero() {
		t.Error("Expected zero totals for a new event")
	}
}

func TestCreateEvent_InvalidType(t *testing.T) {
	f := newFixture()

	_, err := f.events.CreateEvent(context.Background(), testUser, domain.EventInput{
		Name:      "Party",
		EventType: "rave",
	})
	if !errors.Is(err, domain.ErrInvalidEventType) {
		t.Errorf("Expected ErrInvalidEventType, got %v", err)
	}
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("Expected error to match ErrInvalidInput, got %v", err)
	}
}

func TestGetEvent_OtherUser(t *testing.T) {
	f := newFixture()

	_, err := f.events.GetEvent(context.Background(), otherUser, testEvent)
	if !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound, got %v", err)
	}
}

func TestGetEvent_MissingIDs(t *testing.T) {
	f := newFixture()

	if _, err := f.events.GetEvent(context.Background(), "", testEvent); !errors.Is(err, domain.ErrUserIDRequired) {
		t.Errorf("Expected ErrUserIDRequired, got %v", err)
	}
	if _, err := f.events.GetEvent(context.Background(), testUser, ""); !errors.Is(err, domain.ErrEventIDRequired) {
		t.Errorf("Expected ErrEventIDRequired, got %v", err)
	}
}

func TestUpdateEvent_NoFields(t *testing.T) {
	f := newFixture()

	_, err := f.events.UpdateEvent(context.Background(), testUser, testEvent, domain.EventUpdate{})
	if !errors.Is(err, domain.ErrNoFieldsToUpdate) {
		t.Errorf("Expected ErrNoFieldsToUpdate, got %v", err)
	}
}

func TestUpdateEvent_Rename(t *testing.T) {
	f := newFixture()
	name := "Beach Wedding"

	event, err := f.events.UpdateEvent(context.Background(), testUser, testEvent, domain.EventUpdate{Name: &name})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if event.Name != name {
		t.Errorf("Expected name %q, got %q", name, event.Name)
	}
	if event.EventType != domain.EventTypeWedding {
		t.Errorf("Expected event type unchanged, got %s", event.EventType)
	}
}

func TestDeleteEvent(t *testing.T) {
	f := newFixture()

	if err := f.events.DeleteEvent(context.Background(), otherUser, testEvent); !errors.Is(err, domain.ErrEventNotFound) {
		t.Errorf("Expected ErrEventNotFound for another user, got %v", err)
	}
	if err := f.events.DeleteEvent(context.Background(), testUser, testEvent); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := f.eventRepo.Events[testEvent]; ok {
		t.Error("Expected event to be removed")
	}
}

func TestRecalculateEventTotals(t *testing.T) {
	f := newFixture()

	event, err := f.events.RecalculateEventTotals(context.Background(), testUser, testEvent)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !event.TotalBudgetedAmount.Equal(dec("7000")) {
		t.Errorf("Expected budgeted 7000, got %s", event.TotalBudgetedAmount)
	}
	if !event.TotalScheduledAmount.Equal(dec("1000")) {
		t.Errorf("Expected scheduled 1000, got %s", event.TotalScheduledAmount)
	}
	if !event.TotalSpentAmount.Equal(dec("300")) {
		t.Errorf("Expected spent 300, got %s", event.TotalSpentAmount)
	}

	venue := f.category("cat-venue")
	if !venue.ScheduledAmount.Equal(dec("1000")) || !venue.SpentAmount.Equal(dec("300")) {
		t.Errorf("Expected venue scheduled 1000 spent 300, got %s/%s", venue.ScheduledAmount, venue.SpentAmount)
	}
	food := f.category("cat-food")
	if !food.ScheduledAmount.IsZero() {
		t.Errorf("Expected an expense without payments to schedule nothing, got %s", food.ScheduledAmount)
	}

	stored := f.event()
	if !stored.TotalSpentAmount.Equal(dec("300")) {
		t.Errorf("Expected stored spent 300, got %s", stored.TotalSpentAmount)
	}
}

func TestRecalculateEventTotals_WriteFails(t *testing.T) {
	f := newFixture()
	f.eventRepo.ApplyTotalsFn = func(ctx context.Context, eventID string, totals domain.EventTotals, categories []domain.CategoryTotals) error {
		return errors.New("connection reset")
	}

	if _, err := f.events.RecalculateEventTotals(context.Background(), testUser, testEvent); err == nil {
		t.Error("Expected the write error to be returned")
	}
}
