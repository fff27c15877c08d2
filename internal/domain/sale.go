package domain

import "github.com/shopspring/decimal"

// NewSaleItem snapshots the product's current prices for a line of qty units.
func NewSaleItem(product Product, qty int) SaleItem {
	return SaleItem{
		ProductID:       product.ID,
		ProductName:     product.Name,
		ProductType:     product.Type,
		Quantity:        qty,
		SalePriceAtTime: product.SalePrice,
		CostPriceAtTime: product.CostPrice,
	}
}

func (i SaleItem) Revenue() decimal.Decimal {
	return i.SalePriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i SaleItem) Cost() decimal.Decimal {
	return i.CostPriceAtTime.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i SaleItem) Profit() decimal.Decimal {
	return i.Revenue().Sub(i.Cost())
}

// SumItems returns the sale totals for items: revenue and profit.
func SumItems(items []SaleItem) (decimal.Decimal, decimal.Decimal) {
	amount := decimal.Zero
	profit := decimal.Zero
	for _, item := range items {
		amount = amount.Add(item.Revenue())
		profit = profit.Add(item.Profit())
	}
	return amount, profit
}
