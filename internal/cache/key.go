package cache

import "strings"

// Entity names the kind of data stored under a key
type Entity string

const (
	EntityEvents     Entity = "events"
	EntityEvent      Entity = "event"
	EntityCategories Entity = "categories"
	EntityExpenses   Entity = "expenses"
)

// Key identifies a cache partition by entity type and owning identifiers
type Key struct {
	Entity Entity   `json:"entity"`
	Owners []string `json:"owners"`
}

// EventsKey is the user's event list
func EventsKey(userID string) Key {
	return Key{Entity: EntityEvents, Owners: []string{userID}}
}

// EventKey is a single event entry with its totals
func EventKey(eventID string) Key {
	return Key{Entity: EntityEvent, Owners: []string{eventID}}
}

// CategoriesKey is the category list of an event
func CategoriesKey(eventID string) Key {
	return Key{Entity: EntityCategories, Owners: []string{eventID}}
}

// ExpensesKey is the expense list of an event as seen by a user
func ExpensesKey(userID, eventID string) Key {
	return Key{Entity: EntityExpenses, Owners: []string{userID, eventID}}
}

// String returns the storage form, e.g. "expenses:user-1:event-9"
func (k Key) String() string {
	return string(k.Entity) + ":" + strings.Join(k.Owners, ":")
}
