package mutation

import (
	"sync"
	"time"
)

// State is the lifecycle of the latest invocation of an operation
type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateSuccess State = "success"
	StateError   State = "error"
)

// Status is what a view needs to render loading and disabled states
type Status struct {
	State     State     `json:"state"`
	Error     string    `json:"error,omitempty"`
	InFlight  int       `json:"inFlight"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type trackerKey struct {
	userID string
	op     Operation
}

// Tracker records per-user, per-operation mutation status
type Tracker struct {
	mu       sync.Mutex
	statuses map[trackerKey]*Status
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		statuses: make(map[trackerKey]*Status),
		now:      time.Now,
	}
}

func (t *Tracker) begin(userID string, op Operation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.status(userID, op)
	s.InFlight++
	s.State = StatePending
	s.Error = ""
	s.UpdatedAt = t.now()
}

func (t *Tracker) finish(userID string, op Operation, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.status(userID, op)
	if s.InFlight > 0 {
		s.InFlight--
	}
	s.UpdatedAt = t.now()
	if err != nil {
		s.Error = err.Error()
	} else {
		s.Error = ""
	}
	// A concurrent invocation still running keeps the operation pending
	switch {
	case s.InFlight > 0:
		s.State = StatePending
	case err != nil:
		s.State = StateError
	default:
		s.State = StateSuccess
	}
}

// status must be called with mu held
func (t *Tracker) status(userID string, op Operation) *Status {
	k := trackerKey{userID: userID, op: op}
	s, ok := t.statuses[k]
	if !ok {
		s = &Status{State: StateIdle}
		t.statuses[k] = s
	}
	return s
}

// State returns the current state of op for the user
func (t *Tracker) State(userID string, op Operation) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.statuses[trackerKey{userID: userID, op: op}]; ok {
		return s.State
	}
	return StateIdle
}

// IsPending reports whether op has an invocation in flight for the user
func (t *Tracker) IsPending(userID string, op Operation) bool {
	return t.State(userID, op) == StatePending
}

// ForUser returns a copy of every status recorded for the user
func (t *Tracker) ForUser(userID string) map[Operation]Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[Operation]Status)
	for k, s := range t.statuses {
		if k.userID == userID {
			out[k.op] = *s
		}
	}
	return out
}
