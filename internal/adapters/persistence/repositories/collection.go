package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"invite-portal/internal/adapters/persistence/kv"
	"invite-portal/internal/core/domain"

	"github.com/sirupsen/logrus"
)

// Canonical keys of the durable store
const (
	KeyUsers         = "users"
	KeyApplications  = "applications"
	KeyNotifications = "notifications"
	KeySettings      = "settings"
	KeyLastCleanup   = "lastCleanup"
	KeyUserDisplay   = "user_display"
)

// Keys of a tab's session area
const (
	KeySession   = "session"
	KeyCSRFToken = "csrf_token"
)

// errAbort stops a mutation without writing and without surfacing an error
var errAbort = errors.New("abort mutation")

// collection is a JSON array stored under one key. Every read-modify-write
// runs under mu so a single process never interleaves two writers.
type collection[T any] struct {
	store kv.Store
	key   string
	log   logrus.FieldLogger
	mu    sync.Mutex
}

func newCollection[T any](store kv.Store, key string, log logrus.FieldLogger) *collection[T] {
	return &collection[T]{store: store, key: key, log: log}
}

// load decodes the collection. Undecodable data is logged, replaced by an
// empty array and read as empty.
func (c *collection[T]) load(ctx context.Context) ([]*T, error) {
	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var items []*T
	if err := json.Unmarshal(raw, &items); err != nil {
		corrupt := &domain.StorageCorruptionError{Key: c.key, Err: err}
		c.log.WithError(corrupt).WithField("key", c.key).Warn("resetting corrupted collection")
		if err := c.store.Set(ctx, c.key, []byte("[]")); err != nil {
			return nil, fmt.Errorf("failed to reset %s: %w", c.key, err)
		}
		return nil, nil
	}

	// a JSON null element decodes to a nil pointer
	kept := items[:0]
	for _, item := range items {
		if item != nil {
			kept = append(kept, item)
		}
	}
	return kept, nil
}

func (c *collection[T]) save(ctx context.Context, items []*T) error {
	if items == nil {
		items = []*T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", c.key, err)
	}
	return c.store.Set(ctx, c.key, raw)
}

// All returns a snapshot of the collection
func (c *collection[T]) All(ctx context.Context) ([]*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(ctx)
}

// Mutate loads the collection, applies fn and writes the result back.
// Nothing is written when fn returns an error; errAbort is swallowed.
func (c *collection[T]) Mutate(ctx context.Context, fn func(items []*T) ([]*T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	items, err := c.load(ctx)
	if err != nil {
		return err
	}

	updated, err := fn(items)
	if errors.Is(err, errAbort) {
		return nil
	}
	if err != nil {
		return err
	}

	return c.save(ctx, updated)
}

// Ensure writes an empty or seed array when the key is absent and reports
// whether it did.
func (c *collection[T]) Ensure(ctx context.Context, seed []*T) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		return false, err
	}
	if raw != nil {
		return false, nil
	}
	return true, c.save(ctx, seed)
}

// Count returns the number of records
func (c *collection[T]) Count(ctx context.Context) (int, error) {
	items, err := c.All(ctx)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}
