package repository

import (
	"context"
	"errors"
	"time"

	"bizledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("not found")

// Store is the persistence contract shared by the postgres, mongo and memory
// backends. Methods called on the Store passed to WithinTx run in that
// transaction.
type Store interface {
	ListClients(ctx context.Context) ([]domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	CreateClient(ctx context.Context, input ClientInput) (domain.Client, error)
	UpdateClient(ctx context.Context, id string, input ClientInput) (*domain.Client, error)
	DeleteClient(ctx context.Context, id string) error

	ListProducts(ctx context.Context, filter ProductListFilter) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// AdjustStock adds delta to the product quantity in one atomic step and
	// returns the product as stored afterwards. No lower bound is enforced.
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)

	ListSales(ctx context.Context, filter SaleListFilter) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	InsertSale(ctx context.Context, sale domain.Sale) (domain.Sale, error)
	DailyTotals(ctx context.Context, from, to time.Time, loc *time.Location) ([]domain.DayTotal, error)
	Stats(ctx context.Context) (domain.DashboardStats, error)

	// Purge removes every client, product and sale.
	Purge(ctx context.Context) error
	WithinTx(ctx context.Context, fn func(Store) error) error
	Close(ctx context.Context) error
}

type ClientInput struct {
	Name        string
	ContactInfo string
	Address     string
	Notes       string
}

type ProductInput struct {
	Name       string
	Type       domain.ProductType
	CostPrice  decimal.Decimal
	SalePrice  decimal.Decimal
	Quantity   int
	Attributes domain.ProductAttributes
}

type ProductListFilter struct {
	Search string
	Type   domain.ProductType
	Limit  int
	Offset int
}

type SaleListFilter struct {
	ClientID string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// validID reports whether id could name a stored record. Every backend
// treats a malformed id as a missing record.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func newID() string {
	return uuid.NewString()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 200
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}
