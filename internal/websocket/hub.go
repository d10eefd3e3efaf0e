package websocket

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultMaxSubscriptions bounds the budget events one socket can follow
const DefaultMaxSubscriptions = 32

var (
	// ErrClientClosed is returned when attempting to send to a closed client
	ErrClientClosed = errors.New("client is closed")
	// ErrSendBufferFull is returned when a client cannot keep up with its events
	ErrSendBufferFull = errors.New("client send buffer is full")
	// ErrNotRegistered is returned for subscription commands of an unknown client
	ErrNotRegistered        = errors.New("client is not registered")
	ErrEventIDRequired      = errors.New("eventId is required")
	ErrTooManySubscriptions = errors.New("too many subscriptions")
	ErrUnknownAction        = errors.New("unknown action")
)

// ClientInterface defines the interface that clients must implement
type ClientInterface interface {
	ID() string
	UserID() string
	Send(data []byte) error
	Close() error
}

// subscriber is a registered socket and the budget events it views.
// An empty set means the socket views the user's overview and gets every event.
type subscriber struct {
	client ClientInterface
	events map[string]struct{}
}

func (s *subscriber) wants(eventID string) bool {
	if eventID == "" || len(s.events) == 0 {
		return true
	}
	_, ok := s.events[eventID]
	return ok
}

// Hub routes invalidation events to the sockets of a user. A socket that
// subscribed to budget events only hears about those; user-wide events reach
// every socket of the user. It is safe for concurrent use.
type Hub struct {
	mu               sync.RWMutex
	users            map[string]map[string]*subscriber
	maxSubscriptions int
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		users:            make(map[string]map[string]*subscriber),
		maxSubscriptions: DefaultMaxSubscriptions,
	}
}

// SetMaxSubscriptions changes the per-socket subscription limit
func (h *Hub) SetMaxSubscriptions(n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.maxSubscriptions = n
}

// Register adds a client to the hub under its user with no subscriptions
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sockets, ok := h.users[client.UserID()]
	if !ok {
		sockets = make(map[string]*subscriber)
		h.users[client.UserID()] = sockets
	}
	sockets[client.ID()] = &subscriber{client: client, events: make(map[string]struct{})}

	log.Debug().
		Str("user_id", client.UserID()).
		Str("client_id", client.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a client and its subscriptions. It reports whether the client was known.
func (h *Hub) Unregister(client ClientInterface) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	sockets, ok := h.users[client.UserID()]
	if !ok {
		return false
	}
	if _, ok := sockets[client.ID()]; !ok {
		return false
	}
	delete(sockets, client.ID())
	if len(sockets) == 0 {
		delete(h.users, client.UserID())
	}

	log.Debug().
		Str("user_id", client.UserID()).
		Str("client_id", client.ID()).
		Msg("WebSocket client unregistered")
	return true
}

// Subscribe narrows the client to events of eventID, on top of earlier subscriptions.
// Ownership is not checked here: events are published per user, so following
// another user's event id delivers nothing.
func (h *Hub) Subscribe(client ClientInterface, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return ErrEventIDRequired
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.lookup(client)
	if sub == nil {
		return ErrNotRegistered
	}
	if _, ok := sub.events[eventID]; ok {
		return nil
	}
	if len(sub.events) >= h.maxSubscriptions {
		return ErrTooManySubscriptions
	}
	sub.events[eventID] = struct{}{}
	return nil
}

// Unsubscribe drops one subscription. Dropping the last one returns the client to the overview.
func (h *Hub) Unsubscribe(client ClientInterface, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return ErrEventIDRequired
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sub := h.lookup(client)
	if sub == nil {
		return ErrNotRegistered
	}
	delete(sub.events, eventID)
	return nil
}

// Subscriptions lists the budget events the client follows, sorted
func (h *Hub) Subscriptions(client ClientInterface) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sub := h.lookup(client)
	if sub == nil {
		return nil
	}
	ids := make([]string, 0, len(sub.events))
	for id := range sub.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// lookup expects h.mu to be held
func (h *Hub) lookup(client ClientInterface) *subscriber {
	sockets, ok := h.users[client.UserID()]
	if !ok {
		return nil
	}
	return sockets[client.ID()]
}

// Publish delivers an event to the user's sockets that view its budget event.
// Sends never block; a socket whose buffer is full is dropped and will refetch
// everything after reconnecting.
func (h *Hub) Publish(userID string, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Str("user_id", userID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.users[userID]))
	for _, sub := range h.users[userID] {
		if sub.wants(event.EventID) {
			targets = append(targets, sub.client)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		err := client.Send(data)
		switch {
		case err == nil:
			delivered++
		case errors.Is(err, ErrSendBufferFull):
			log.Warn().
				Str("user_id", userID).
				Str("client_id", client.ID()).
				Msg("Dropping slow WebSocket client")
			if h.Unregister(client) {
				_ = client.Close()
			}
		default:
			log.Debug().
				Err(err).
				Str("user_id", userID).
				Str("client_id", client.ID()).
				Msg("Failed to send to client")
		}
	}

	log.Debug().
		Str("user_id", userID).
		Str("event_id", event.EventID).
		Str("event_type", event.Type).
		Int("delivered", delivered).
		Msg("Published event")
}

// ClientCount returns the number of clients connected for a user
func (h *Hub) ClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// TotalClientCount returns the total number of connected clients across all users
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, sockets := range h.users {
		total += len(sockets)
	}
	return total
}
