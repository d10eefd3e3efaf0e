package cache

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Loader reads authoritative data for a cache key
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key unless it is missing or stale, in which case
// it loads the value and writes it back. The write-back is skipped when the key was
// written or invalidated while loading, so a slow read never hides a newer
// invalidation. Store failures degrade to a direct load.
func Fetch[T any](ctx context.Context, store Store, key Key, load Loader[T]) (T, error) {
	entry, ok, err := store.Get(ctx, key)
	readable := err == nil
	if !readable {
		log.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache read failed, loading from source")
	}

	if ok && !entry.Stale {
		var cached T
		if err := json.Unmarshal(entry.Value, &cached); err == nil {
			return cached, nil
		}
		log.Warn().Str("cache_key", key.String()).Msg("Discarding undecodable cache entry")
	}

	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if !readable {
		return value, nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache encode failed")
		return value, nil
	}
	written, err := store.SetIfGeneration(ctx, key, data, entry.Generation)
	if err != nil {
		log.Warn().Err(err).Str("cache_key", key.String()).Msg("Cache write failed")
	} else if !written {
		log.Debug().Str("cache_key", key.String()).Msg("Cache entry changed while loading, result not cached")
	}
	return value, nil
}

// Put encodes value and stores it under key
func Put[T any](ctx context.Context, store Store, key Key, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, data)
}

// Peek decodes the cached value for key without loading. ok is false when the key
// is missing or cannot be decoded; stale entries are returned with stale set.
func Peek[T any](ctx context.Context, store Store, key Key) (value T, stale bool, ok bool, err error) {
	entry, found, err := store.Get(ctx, key)
	if err != nil || !found {
		return value, false, false, err
	}
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		var zero T
		return zero, false, false, nil
	}
	return value, entry.Stale, true, nil
}
