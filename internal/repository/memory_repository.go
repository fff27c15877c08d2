package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"bizledger/internal/domain"

	"github.com/shopspring/decimal"
)

// MemoryRepository keeps everything in process memory. It backs the test
// suites and STORE_DRIVER=memory for local development.
type MemoryRepository struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	seq      int64
	clients  map[string]memRecord[domain.Client]
	products map[string]memRecord[domain.Product]
	sales    map[string]memRecord[domain.Sale]
	now      func() time.Time
}

type memRecord[T any] struct {
	seq   int64
	value T
}

func NewMemory() *MemoryRepository {
	return NewMemoryWithClock(func() time.Time { return time.Now().UTC() })
}

// NewMemoryWithClock is NewMemory with a controllable clock for timestamps.
func NewMemoryWithClock(now func() time.Time) *MemoryRepository {
	return &MemoryRepository{
		state: &memState{
			clients:  map[string]memRecord[domain.Client]{},
			products: map[string]memRecord[domain.Product]{},
			sales:    map[string]memRecord[domain.Sale]{},
			now:      now,
		},
	}
}

func (m *MemoryRepository) locked(fn func(s *memState) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.state)
}

func (m *MemoryRepository) ListClients(ctx context.Context) ([]domain.Client, error) {
	var out []domain.Client
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.ListClients(ctx)
		return err
	})
	return out, err
}

func (m *MemoryRepository) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	var out *domain.Client
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.GetClient(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryRepository) CreateClient(ctx context.Context, input ClientInput) (domain.Client, error) {
	var out domain.Client
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.CreateClient(ctx, input)
		return err
	})
	return out, err
}

func (m *MemoryRepository) UpdateClient(ctx context.Context, id string, input ClientInput) (*domain.Client, error) {
	var out *domain.Client
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.UpdateClient(ctx, id, input)
		return err
	})
	return out, err
}

func (m *MemoryRepository) DeleteClient(ctx context.Context, id string) error {
	return m.locked(func(s *memState) error { return s.DeleteClient(ctx, id) })
}

func (m *MemoryRepository) ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error) {
	var out []domain.Product
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.ListProducts(ctx, filter)
		return err
	})
	return out, err
}

func (m *MemoryRepository) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var out *domain.Product
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.GetProduct(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryRepository) CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error) {
	var out domain.Product
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.CreateProduct(ctx, input)
		return err
	})
	return out, err
}

func (m *MemoryRepository) UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error) {
	var out *domain.Product
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.UpdateProduct(ctx, id, input)
		return err
	})
	return out, err
}

func (m *MemoryRepository) DeleteProduct(ctx context.Context, id string) error {
	return m.locked(func(s *memState) error { return s.DeleteProduct(ctx, id) })
}

func (m *MemoryRepository) AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error) {
	var out *domain.Product
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.AdjustStock(ctx, id, delta)
		return err
	})
	return out, err
}

func (m *MemoryRepository) ListSales(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error) {
	var out []domain.Sale
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.ListSales(ctx, filter)
		return err
	})
	return out, err
}

func (m *MemoryRepository) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var out *domain.Sale
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.GetSale(ctx, id)
		return err
	})
	return out, err
}

func (m *MemoryRepository) InsertSale(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	var out domain.Sale
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.InsertSale(ctx, sale)
		return err
	})
	return out, err
}

func (m *MemoryRepository) DailyTotals(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.DayTotal, error) {
	var out []domain.DayTotal
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.DailyTotals(ctx, from, to, loc)
		return err
	})
	return out, err
}

func (m *MemoryRepository) Stats(ctx context.Context) (domain.DashboardStats, error) {
	var out domain.DashboardStats
	err := m.locked(func(s *memState) error {
		var err error
		out, err = s.Stats(ctx)
		return err
	})
	return out, err
}

func (m *MemoryRepository) Purge(ctx context.Context) error {
	return m.locked(func(s *memState) error { return s.Purge(ctx) })
}

// WithinTx runs fn against a copy of the data and publishes the copy only
// when fn succeeds.
func (m *MemoryRepository) WithinTx(_ context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	draft := m.state.clone()
	if err := fn(draft); err != nil {
		return err
	}
	m.state = draft
	return nil
}

func (m *MemoryRepository) Close(context.Context) error {
	return nil
}

func (s *memState) clone() *memState {
	out := &memState{
		seq:      s.seq,
		clients:  make(map[string]memRecord[domain.Client], len(s.clients)),
		products: make(map[string]memRecord[domain.Product], len(s.products)),
		sales:    make(map[string]memRecord[domain.Sale], len(s.sales)),
		now:      s.now,
	}
	for id, rec := range s.clients {
		out.clients[id] = rec
	}
	for id, rec := range s.products {
		out.products[id] = rec
	}
	// sale items are never mutated in place, sharing the slices is safe
	for id, rec := range s.sales {
		out.sales[id] = rec
	}
	return out
}

func (s *memState) nextSeq() int64 {
	s.seq++
	return s.seq
}

func (s *memState) ListClients(context.Context) ([]domain.Client, error) {
	return newestFirst(s.clients, func(c domain.Client) time.Time { return c.CreatedAt }, nil), nil
}

func (s *memState) GetClient(_ context.Context, id string) (*domain.Client, error) {
	rec, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	client := rec.value
	return &client, nil
}

func (s *memState) CreateClient(_ context.Context, input ClientInput) (domain.Client, error) {
	now := s.now()
	client := domain.Client{
		ID:          newID(),
		Name:        input.Name,
		ContactInfo: input.ContactInfo,
		Address:     input.Address,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.clients[client.ID] = memRecord[domain.Client]{seq: s.nextSeq(), value: client}
	return client, nil
}

func (s *memState) UpdateClient(_ context.Context, id string, input ClientInput) (*domain.Client, error) {
	rec, ok := s.clients[id]
	if !ok {
		return nil, ErrNotFound
	}
	client := rec.value
	client.Name = input.Name
	client.ContactInfo = input.ContactInfo
	client.Address = input.Address
	client.Notes = input.Notes
	client.UpdatedAt = s.now()
	rec.value = client
	s.clients[id] = rec
	return &client, nil
}

func (s *memState) DeleteClient(_ context.Context, id string) error {
	if _, ok := s.clients[id]; !ok {
		return ErrNotFound
	}
	delete(s.clients, id)
	return nil
}

func (s *memState) ListProducts(_ context.Context, filter ProductListFilter) ([]domain.Product, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	keep := func(p domain.Product) bool {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			return false
		}
		return filter.Type == "" || p.Type == filter.Type
	}
	all := newestFirst(s.products, func(p domain.Product) time.Time { return p.CreatedAt }, keep)
	return paginate(all, filter.Limit, filter.Offset), nil
}

func (s *memState) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	rec, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	product := rec.value
	return &product, nil
}

func (s *memState) CreateProduct(_ context.Context, input ProductInput) (domain.Product, error) {
	now := s.now()
	product := domain.Product{
		ID:         newID(),
		Name:       input.Name,
		Type:       input.Type,
		CostPrice:  input.CostPrice,
		SalePrice:  input.SalePrice,
		Quantity:   input.Quantity,
		Attributes: input.Attributes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.products[product.ID] = memRecord[domain.Product]{seq: s.nextSeq(), value: product}
	return product, nil
}

func (s *memState) UpdateProduct(_ context.Context, id string, input ProductInput) (*domain.Product, error) {
	rec, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	product := rec.value
	product.Name = input.Name
	product.Type = input.Type
	product.CostPrice = input.CostPrice
	product.SalePrice = input.SalePrice
	product.Quantity = input.Quantity
	product.Attributes = input.Attributes
	product.UpdatedAt = s.now()
	rec.value = product
	s.products[id] = rec
	return &product, nil
}

func (s *memState) DeleteProduct(_ context.Context, id string) error {
	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *memState) AdjustStock(_ context.Context, id string, delta int) (*domain.Product, error) {
	rec, ok := s.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	product := rec.value
	product.Quantity += delta
	product.UpdatedAt = s.now()
	rec.value = product
	s.products[id] = rec
	return &product, nil
}

func (s *memState) ListSales(_ context.Context, filter SaleListFilter) ([]domain.Sale, error) {
	keep := func(sale domain.Sale) bool {
		if filter.ClientID != "" && sale.ClientID != filter.ClientID {
			return false
		}
		if filter.From != nil && sale.Date.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !sale.Date.Before(*filter.To) {
			return false
		}
		return true
	}
	all := newestFirst(s.sales, func(sale domain.Sale) time.Time { return sale.CreatedAt }, keep)
	return paginate(all, filter.Limit, filter.Offset), nil
}

func (s *memState) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	rec, ok := s.sales[id]
	if !ok {
		return nil, ErrNotFound
	}
	sale := rec.value
	return &sale, nil
}

func (s *memState) InsertSale(_ context.Context, sale domain.Sale) (domain.Sale, error) {
	if sale.ID == "" {
		sale.ID = newID()
	}
	now := s.now()
	if sale.Date.IsZero() {
		sale.Date = now
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = now
	}
	sale.UpdatedAt = sale.CreatedAt
	items := make([]domain.SaleItem, len(sale.Items))
	copy(items, sale.Items)
	sale.Items = items
	s.sales[sale.ID] = memRecord[domain.Sale]{seq: s.nextSeq(), value: sale}
	return sale, nil
}

func (s *memState) DailyTotals(_ context.Context, from, to time.Time, loc *time.Location) ([]domain.DayTotal, error) {
	byDay := map[string]*domain.DayTotal{}
	for _, rec := range s.sales {
		sale := rec.value
		if sale.Date.Before(from) || !sale.Date.Before(to) {
			continue
		}
		key := dayKey(sale.Date, loc)
		total, ok := byDay[key]
		if !ok {
			total = &domain.DayTotal{Day: key, Revenue: decimal.Zero, Profit: decimal.Zero}
			byDay[key] = total
		}
		total.Revenue = total.Revenue.Add(sale.TotalAmount)
		total.Profit = total.Profit.Add(sale.TotalProfit)
	}

	out := make([]domain.DayTotal, 0, len(byDay))
	for _, total := range byDay {
		out = append(out, *total)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (s *memState) Stats(context.Context) (domain.DashboardStats, error) {
	stats := domain.DashboardStats{
		TotalClients:    len(s.clients),
		TotalProducts:   len(s.products),
		TotalSalesCount: len(s.sales),
		TotalRevenue:    decimal.Zero,
		TotalProfit:     decimal.Zero,
	}
	for _, rec := range s.sales {
		stats.TotalRevenue = stats.TotalRevenue.Add(rec.value.TotalAmount)
		stats.TotalProfit = stats.TotalProfit.Add(rec.value.TotalProfit)
	}
	return stats, nil
}

func (s *memState) Purge(context.Context) error {
	s.clients = map[string]memRecord[domain.Client]{}
	s.products = map[string]memRecord[domain.Product]{}
	s.sales = map[string]memRecord[domain.Sale]{}
	return nil
}

func (s *memState) WithinTx(_ context.Context, fn func(Store) error) error {
	return fn(s)
}

func (s *memState) Close(context.Context) error {
	return nil
}

// newestFirst orders by timestamp descending, falling back to insertion order
// so records created within the same clock tick stay deterministic.
func newestFirst[T any](records map[string]memRecord[T], ts func(T) time.Time, keep func(T) bool) []T {
	list := make([]memRecord[T], 0, len(records))
	for _, rec := range records {
		if keep != nil && !keep(rec.value) {
			continue
		}
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		ti, tj := ts(list[i].value), ts(list[j].value)
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return list[i].seq > list[j].seq
	})
	out := make([]T, len(list))
	for i, rec := range list {
		out[i] = rec.value
	}
	return out
}

func paginate[T any](items []T, limit, offset int) []T {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
