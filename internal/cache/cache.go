package cache

import (
	"context"
	"strings"
)

// Cache holds read-model snapshots (dashboard stats, monthly series) between
// writes. Implementations must be safe for concurrent use.
//
// Entries live under a generation. Readers take the generation before they
// query the store and pass it to Get and Set; Invalidate moves to a new
// generation, so a value computed before an invalidation is never served
// after it.
type Cache interface {
	Generation(ctx context.Context) (int64, error)
	// Get decodes the cached value for key into dst. The bool is false on a
	// miss.
	Get(ctx context.Context, gen int64, key string, dst any) (bool, error)
	Set(ctx context.Context, gen int64, key string, value any) error
	Invalidate(ctx context.Context) error
	Close() error
}

const keyPrefix = "bizledger:"

// Key joins parts into a namespaced cache key.
func Key(parts ...string) string {
	return keyPrefix + strings.Join(parts, ":")
}

type Nop struct{}

func (Nop) Generation(context.Context) (int64, error)             { return 0, nil }
func (Nop) Get(context.Context, int64, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, int64, string, any) error         { return nil }
func (Nop) Invalidate(context.Context) error                      { return nil }
func (Nop) Close() error                                          { return nil }
