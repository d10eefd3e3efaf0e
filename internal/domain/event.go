package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrEventNotFound = errors.New("event not found")

// EventType is the kind of occasion being budgeted
type EventType string

const (
	EventTypeWedding     EventType = "wedding"
	EventTypeGraduation  EventType = "graduation"
	EventTypeBirthday    EventType = "birthday"
	EventTypeAnniversary EventType = "anniversary"
	EventTypeBabyShower  EventType = "baby_shower"
	EventTypeHoliday     EventType = "holiday"
	EventTypeOther       EventType = "other"
)

// IsValid reports whether t is a known event type
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeWedding, EventTypeGraduation, EventTypeBirthday, EventTypeAnniversary,
		EventTypeBabyShower, EventTypeHoliday, EventTypeOther:
		return true
	}
	return false
}

// Event is the top-level budget container. Its totals are aggregates of its categories.
type Event struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"userId"`
	Name                 string          `json:"name"`
	EventType            EventType       `json:"eventType"`
	EventDate            *time.Time      `json:"eventDate,omitempty"`
	TotalBudgetedAmount  decimal.Decimal `json:"totalBudgetedAmount"`
	TotalScheduledAmount decimal.Decimal `json:"totalScheduledAmount"`
	TotalSpentAmount     decimal.Decimal `json:"totalSpentAmount"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (e *Event) Validate() error {
	if e.UserID == "" {
		return NewValidationError("userId", ErrUserIDRequired)
	}
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return NewValidationError("name", ErrNameRequired)
	}
	if len(name) > MaxNameLength {
		return NewValidationError("name", ErrNameTooLong)
	}
	if !e.EventType.IsValid() {
		return NewValidationError("eventType", ErrInvalidEventType)
	}
	return nil
}

// EventTotals holds the authoritative aggregates written by a totals recalculation
type EventTotals struct {
	TotalBudgetedAmount  decimal.Decimal `json:"totalBudgetedAmount"`
	TotalScheduledAmount decimal.Decimal `json:"totalScheduledAmount"`
	TotalSpentAmount     decimal.Decimal `json:"totalSpentAmount"`
}

// EventInput is the payload for creating an event
type EventInput struct {
	Name      string     `json:"name"`
	EventType EventType  `json:"eventType"`
	EventDate *time.Time `json:"eventDate,omitempty"`
}

// EventUpdate carries optional event fields; nil means unchanged
type EventUpdate struct {
	Name      *string    `json:"name,omitempty"`
	EventType *EventType `json:"eventType,omitempty"`
	EventDate *time.Time `json:"eventDate,omitempty"`
}

func (u EventUpdate) Validate() error {
	if u.Name == nil && u.EventType == nil && u.EventDate == nil {
		return NewValidationError("update", ErrNoFieldsToUpdate)
	}
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	if u.EventType != nil && !u.EventType.IsValid() {
		return NewValidationError("eventType", ErrInvalidEventType)
	}
	return nil
}

// Apply copies the provided fields onto e
func (u EventUpdate) Apply(e *Event) {
	if u.Name != nil {
		e.Name = strings.TrimSpace(*u.Name)
	}
	if u.EventType != nil {
		e.EventType = *u.EventType
	}
	if u.EventDate != nil {
		e.EventDate = u.EventDate
	}
}

type EventRepository interface {
	Create(ctx context.Context, event *Event) (*Event, error)
	GetByID(ctx context.Context, userID string, id string) (*Event, error)
	GetAllByUser(ctx context.Context, userID string) ([]*Event, error)
	GetAll(ctx context.Context) ([]*Event, error)
	Update(ctx context.Context, event *Event) (*Event, error)
	Delete(ctx context.Context, userID string, id string) error
	// ApplyTotals writes category and event aggregates in one transaction
	ApplyTotals(ctx context.Context, eventID string, totals EventTotals, categories []CategoryTotals) error
}
