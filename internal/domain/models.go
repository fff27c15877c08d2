package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactInfo string    `json:"contact_info"`
	Address     string    `json:"address"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Product struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Type       ProductType       `json:"type"`
	CostPrice  decimal.Decimal   `json:"cost_price"`
	SalePrice  decimal.Decimal   `json:"sale_price"`
	Quantity   int               `json:"quantity"`
	Attributes ProductAttributes `json:"attributes"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// ProductAttributes carries the type-specific fields. Heat sinks use size and
// weight, capacitors use the uF and watt ratings.
type ProductAttributes struct {
	SizeInches  *float64 `json:"size_inches,omitempty" bson:"size_inches,omitempty"`
	WeightGrams *float64 `json:"weight_grams,omitempty" bson:"weight_grams,omitempty"`
	UFValue     *string  `json:"uf_value,omitempty" bson:"uf_value,omitempty"`
	WattValue   *string  `json:"watt_value,omitempty" bson:"watt_value,omitempty"`
}

type Sale struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	Items         []SaleItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalProfit   decimal.Decimal `json:"total_profit"`
	CargoSlipInfo string          `json:"cargo_slip_info"`
	TrackingNo    string          `json:"tracking_no"`
	Date          time.Time       `json:"date"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SaleItem is a line of a sale. Prices are copied from the product when the
// sale is created and never follow later product edits.
type SaleItem struct {
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name"`
	ProductType     ProductType     `json:"product_type"`
	Quantity        int             `json:"quantity"`
	SalePriceAtTime decimal.Decimal `json:"sale_price_at_time"`
	CostPriceAtTime decimal.Decimal `json:"cost_price_at_time"`
}

type SaleLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type SaleView struct {
	Sale
	ClientName string `json:"client_name"`
}

type RecentSale struct {
	ID         string          `json:"id"`
	ClientName string          `json:"client_name"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
}

type DashboardStats struct {
	TotalClients    int             `json:"total_clients"`
	TotalProducts   int             `json:"total_products"`
	TotalSalesCount int             `json:"total_sales_count"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalProfit     decimal.Decimal `json:"total_profit"`
}

// DayTotal is one calendar day of sales as grouped by a store. Day is
// formatted as 2006-01-02 in the requested location.
type DayTotal struct {
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

type ChartPoint struct {
	Date    string          `json:"date"`
	Day     string          `json:"day"`
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

type ProductImportResult struct {
	TotalRows int      `json:"total_rows"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}
