package cache

import (
	"context"
	"sync"
)

// Entry is a cached value together with its staleness flag.
// Generation changes on every write and every invalidation of the key; a
// missing key still reports the generation left by earlier invalidations.
type Entry struct {
	Value      []byte
	Stale      bool
	Generation uint64
}

// Store is the shared cache used by readers and the mutation layer.
// Invalidate keeps the value but marks it stale so the next read refetches.
type Store interface {
	Get(ctx context.Context, key Key) (Entry, bool, error)
	Set(ctx context.Context, key Key, value []byte) error
	// SetIfGeneration writes value only while the key is still at generation gen
	SetIfGeneration(ctx context.Context, key Key, value []byte, gen uint64) (bool, error)
	Invalidate(ctx context.Context, key Key) error
}

type memoryEntry struct {
	value   []byte
	stale   bool
	gen     uint64
	present bool
}

// MemoryStore is an in-process Store. It is safe for concurrent use and
// copies values on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key Key) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry := s.entries[key.String()]
	if !entry.present {
		return Entry{Generation: entry.gen}, false, nil
	}
	return Entry{Value: clone(entry.value), Stale: entry.stale, Generation: entry.gen}, true, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, key Key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.write(key.String(), value)
	return nil
}

// SetIfGeneration implements Store
func (s *MemoryStore) SetIfGeneration(ctx context.Context, key Key, value []byte, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if s.entries[k].gen != gen {
		return false, nil
	}
	s.write(k, value)
	return true, nil
}

func (s *MemoryStore) write(k string, value []byte) {
	s.entries[k] = memoryEntry{value: clone(value), gen: s.entries[k].gen + 1, present: true}
}

// Invalidate implements Store. Missing keys keep only their bumped generation.
func (s *MemoryStore) Invalidate(ctx context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	entry := s.entries[k]
	entry.gen++
	if entry.present {
		entry.stale = true
	}
	s.entries[k] = entry
	return nil
}

// Len returns the number of cached values
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, entry := range s.entries {
		if entry.present {
			n++
		}
	}
	return n
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
