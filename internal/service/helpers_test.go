package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"bizledger/internal/domain"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mapCache is an in-process cache.Cache that records invalidations.
type mapCache struct {
	mu            sync.Mutex
	gen           int64
	entries       map[string][]byte
	invalidations int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]byte{}}
}

func mapKey(gen int64, key string) string {
	return fmt.Sprintf("%d/%s", gen, key)
}

func (c *mapCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, nil
}

func (c *mapCache) Get(_ context.Context, gen int64, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[mapKey(gen, key)]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (c *mapCache) Set(_ context.Context, gen int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[mapKey(gen, key)] = raw
	return nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = map[string][]byte{}
	c.invalidations++
	return nil
}

func (c *mapCache) Close() error { return nil }

func (c *mapCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type fixture struct {
	svc   *Service
	store *repository.MemoryRepository
	cache *mapCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := repository.NewMemory()
	c := newMapCache()
	svc := New(store, c, zaptest.NewLogger(t), time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC) }
	return fixture{svc: svc, store: store, cache: c}
}

func (f fixture) client(t *testing.T, name string) domain.Client {
	t.Helper()
	c, err := f.svc.CreateClient(context.Background(), repository.ClientInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f fixture) product(t *testing.T, name string, cost, sale string, qty int) domain.Product {
	t.Helper()
	p, err := f.svc.CreateProduct(context.Background(), repository.ProductInput{
		Name:      name,
		Type:      domain.ProductTypeOther,
		CostPrice: decimal.RequireFromString(cost),
		SalePrice: decimal.RequireFromString(sale),
		Quantity:  qty,
	})
	require.NoError(t, err)
	return p
}

func (f fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Quantity
}
