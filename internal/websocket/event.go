package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated      EventType = "created"
	EventTypeUpdated      EventType = "updated"
	EventTypeDeleted      EventType = "deleted"
	EventTypePaid         EventType = "paid"
	EventTypeUnpaid       EventType = "unpaid"
	EventTypeCleared      EventType = "cleared"
	EventTypeRecalculated EventType = "recalculated"
	EventTypeInvalidated  EventType = "invalidated"
	EventTypeSubscribed   EventType = "subscribed"
	EventTypeUnsubscribed EventType = "unsubscribed"
	EventTypeRejected     EventType = "rejected"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeEvent    EntityType = "event"
	EntityTypeCategory EntityType = "category"
	EntityTypePayment  EntityType = "payment"
	EntityTypeSchedule EntityType = "payment_schedule"
	EntityTypeCache    EntityType = "cache"
	// EntityTypeSubscription events answer a client's own subscribe commands
	EntityTypeSubscription EntityType = "subscription"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, eventId, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`              // Combined type e.g. "payment.paid"
	Entity    EntityType  `json:"entity"`            // Entity type e.g. "payment"
	EventID   string      `json:"eventId,omitempty"` // Budget event the change belongs to, empty for user-wide changes
	Payload   interface{} `json:"payload"`           // Entity data plus the invalidated cache keys
	Timestamp time.Time   `json:"timestamp"`         // Event timestamp
}

// EventScoped is implemented by payloads that belong to one budget event.
// The hub routes such events only to sockets viewing that budget event.
type EventScoped interface {
	ScopedEventID() string
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	e := Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
	if scoped, ok := payload.(EventScoped); ok {
		e.EventID = scoped.ScopedEventID()
	}
	return e
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentPaid creates a payment.paid event
func PaymentPaid(payload interface{}) Event {
	return NewEvent(EventTypePaid, EntityTypePayment, payload)
}

// PaymentUnpaid creates a payment.unpaid event
func PaymentUnpaid(payload interface{}) Event {
	return NewEvent(EventTypeUnpaid, EntityTypePayment, payload)
}

// PaymentCreated creates a payment.created event
func PaymentCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypePayment, payload)
}

// PaymentUpdated creates a payment.updated event
func PaymentUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypePayment, payload)
}

// PaymentDeleted creates a payment.deleted event
func PaymentDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypePayment, payload)
}

// PaymentsCleared creates a payment.cleared event
func PaymentsCleared(payload interface{}) Event {
	return NewEvent(EventTypeCleared, EntityTypePayment, payload)
}

// ScheduleCreated creates a payment_schedule.created event
func ScheduleCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeSchedule, payload)
}

// ScheduleUpdated creates a payment_schedule.updated event
func ScheduleUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeSchedule, payload)
}

// CategoryCreated creates a category.created event
func CategoryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCategory, payload)
}

// CategoryUpdated creates a category.updated event
func CategoryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCategory, payload)
}

// CategoryDeleted creates a category.deleted event
func CategoryDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCategory, payload)
}

// TotalsRecalculated creates an event.recalculated event
func TotalsRecalculated(payload interface{}) Event {
	return NewEvent(EventTypeRecalculated, EntityTypeEvent, payload)
}

// CacheInvalidated creates a cache.invalidated event
func CacheInvalidated(payload interface{}) Event {
	return NewEvent(EventTypeInvalidated, EntityTypeCache, payload)
}

// SubscriptionPayload answers a subscribe or unsubscribe command
type SubscriptionPayload struct {
	EventID string `json:"eventId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Subscribed acknowledges a subscribe command
func Subscribed(eventID string) Event {
	return NewEvent(EventTypeSubscribed, EntityTypeSubscription, SubscriptionPayload{EventID: eventID})
}

// Unsubscribed acknowledges an unsubscribe command
func Unsubscribed(eventID string) Event {
	return NewEvent(EventTypeUnsubscribed, EntityTypeSubscription, SubscriptionPayload{EventID: eventID})
}

// SubscriptionRejected reports a command the hub refused
func SubscriptionRejected(eventID string, err error) Event {
	return NewEvent(EventTypeRejected, EntityTypeSubscription, SubscriptionPayload{EventID: eventID, Error: err.Error()})
}
