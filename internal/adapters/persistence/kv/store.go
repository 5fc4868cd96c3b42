// Package kv provides the byte-valued key-value stores that back every
// collection. A missing key reads as (nil, nil).
package kv

import (
	"context"
)

// Store is the persistence capability injected into repositories
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}

// Footprint sums the length of every key and value in the store
func Footprint(ctx context.Context, s Store) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for key, value := range entries {
		total += len(key) + len(value)
	}
	return total, nil
}
