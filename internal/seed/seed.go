// Package seed loads the demo data set used for local development.
package seed

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"bizledger/internal/domain"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	salesCount   = 20
	historyDays  = 30
	maxLineItems = 3
	maxLineQty   = 10
)

type Summary struct {
	Clients  int
	Products int
	Sales    int
	Revenue  decimal.Decimal
	Profit   decimal.Decimal
}

func ptr[T any](v T) *T { return &v }

var clients = []repository.ClientInput{
	{Name: "ElectroTech Solutions", ContactInfo: "0300-1234567", Address: "Shop 12, Hall Road, Lahore", Notes: "Regular buyer of capacitors"},
	{Name: "Alpha Electronics", ContactInfo: "0321-9876543", Address: "Office 4, Sadar, Rawalpindi", Notes: "Needs VAT invoices"},
	{Name: "Cooling Systems PK", ContactInfo: "info@coolingsys.pk", Address: "Industrial Estate, Karachi", Notes: "Bulk buyer of heat sinks"},
	{Name: "Ahmed Traders", ContactInfo: "0333-5555555", Address: "College Road, Multan"},
	{Name: "Fast Repair Lab", ContactInfo: "0345-1122334", Address: "Gulberg III, Lahore", Notes: "Small quantities, high frequency"},
}

var products = []repository.ProductInput{
	{
		Name: "Aluminum Heat Sink Large", Type: domain.ProductTypeHeatSink,
		CostPrice: decimal.NewFromInt(150), SalePrice: decimal.NewFromInt(250), Quantity: 500,
		Attributes: domain.ProductAttributes{SizeInches: ptr(8.5), WeightGrams: ptr(200.0)},
	},
	{
		Name: "CPU Cooler Sink", Type: domain.ProductTypeHeatSink,
		CostPrice: decimal.NewFromInt(80), SalePrice: decimal.NewFromInt(150), Quantity: 1200,
		Attributes: domain.ProductAttributes{SizeInches: ptr(3.5), WeightGrams: ptr(85.0)},
	},
	{
		Name: "Industrial Fin Sink", Type: domain.ProductTypeHeatSink,
		CostPrice: decimal.NewFromInt(400), SalePrice: decimal.NewFromInt(750), Quantity: 150,
		Attributes: domain.ProductAttributes{SizeInches: ptr(12.0), WeightGrams: ptr(650.0)},
	},
	{
		Name: "Ceramic Capacitor 10uF", Type: domain.ProductTypeCapacitor,
		CostPrice: decimal.NewFromInt(5), SalePrice: decimal.NewFromInt(15), Quantity: 5000,
		Attributes: domain.ProductAttributes{UFValue: ptr("10"), WattValue: ptr("0.5")},
	},
	{
		Name: "Electrolytic Capacitor 1000uF", Type: domain.ProductTypeCapacitor,
		CostPrice: decimal.NewFromInt(25), SalePrice: decimal.NewFromInt(45), Quantity: 2000,
		Attributes: domain.ProductAttributes{UFValue: ptr("1000"), WattValue: ptr("1")},
	},
	{
		Name: "High Voltage Cap", Type: domain.ProductTypeCapacitor,
		CostPrice: decimal.NewFromInt(150), SalePrice: decimal.NewFromInt(300), Quantity: 300,
		Attributes: domain.ProductAttributes{UFValue: ptr("220"), WattValue: ptr("10")},
	},
	{
		Name: "Thermal Paste Syringe", Type: domain.ProductTypeOther,
		CostPrice: decimal.NewFromInt(120), SalePrice: decimal.NewFromInt(250), Quantity: 100,
	},
}

// Run replaces all clients, products and sales with the demo set. Historic
// sales are written directly and leave product stock untouched. The whole
// load runs in one store transaction.
func Run(ctx context.Context, store repository.Store, rng *rand.Rand, now time.Time, logger *zap.Logger) (Summary, error) {
	summary := Summary{Revenue: decimal.Zero, Profit: decimal.Zero}
	err := store.WithinTx(ctx, func(tx repository.Store) error {
		summary = Summary{Revenue: decimal.Zero, Profit: decimal.Zero}
		if err := tx.Purge(ctx); err != nil {
			return err
		}

		createdClients := make([]domain.Client, 0, len(clients))
		for _, in := range clients {
			c, err := tx.CreateClient(ctx, in)
			if err != nil {
				return fmt.Errorf("seed client %q: %w", in.Name, err)
			}
			createdClients = append(createdClients, c)
		}
		createdProducts := make([]domain.Product, 0, len(products))
		for _, in := range products {
			p, err := tx.CreateProduct(ctx, in)
			if err != nil {
				return fmt.Errorf("seed product %q: %w", in.Name, err)
			}
			createdProducts = append(createdProducts, p)
		}
		summary.Clients, summary.Products = len(createdClients), len(createdProducts)

		for i := 0; i < salesCount; i++ {
			sale := randomSale(rng, now, createdClients, createdProducts)
			if _, err := tx.InsertSale(ctx, sale); err != nil {
				return fmt.Errorf("seed sale %d: %w", i+1, err)
			}
			summary.Sales++
			summary.Revenue = summary.Revenue.Add(sale.TotalAmount)
			summary.Profit = summary.Profit.Add(sale.TotalProfit)
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	logger.Info("demo data seeded",
		zap.Int("clients", summary.Clients),
		zap.Int("products", summary.Products),
		zap.Int("sales", summary.Sales),
	)
	return summary, nil
}

func randomSale(rng *rand.Rand, now time.Time, cs []domain.Client, ps []domain.Product) domain.Sale {
	client := cs[rng.IntN(len(cs))]
	lines := rng.IntN(maxLineItems) + 1
	items := make([]domain.SaleItem, 0, lines)
	for j := 0; j < lines; j++ {
		product := ps[rng.IntN(len(ps))]
		items = append(items, domain.NewSaleItem(product, rng.IntN(maxLineQty)+1))
	}
	amount, profit := domain.SumItems(items)

	date := now.AddDate(0, 0, -rng.IntN(historyDays))
	sale := domain.Sale{
		ClientID:    client.ID,
		Items:       items,
		TotalAmount: amount,
		TotalProfit: profit,
		Date:        date,
		CreatedAt:   date,
	}
	if rng.Float64() > 0.3 {
		sale.CargoSlipInfo = "TCS"
		if rng.Float64() > 0.5 {
			sale.CargoSlipInfo = "Leopard Courier"
		}
	}
	if rng.Float64() > 0.3 {
		sale.TrackingNo = fmt.Sprintf("TRK-%d", rng.IntN(100000))
	}
	return sale
}
