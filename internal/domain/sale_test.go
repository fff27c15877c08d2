package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNewSaleItemSnapshotsPrices(t *testing.T) {
	product := Product{
		ID:        "p1",
		Name:      "CPU Cooler Sink",
		Type:      ProductTypeHeatSink,
		CostPrice: decimal.NewFromInt(80),
		SalePrice: decimal.NewFromInt(150),
	}

	item := NewSaleItem(product, 3)
	product.SalePrice = decimal.NewFromInt(999)

	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, ProductTypeHeatSink, item.ProductType)
	assert.True(t, item.SalePriceAtTime.Equal(decimal.NewFromInt(150)))
	assert.True(t, item.Revenue().Equal(decimal.NewFromInt(450)))
	assert.True(t, item.Cost().Equal(decimal.NewFromInt(240)))
	assert.True(t, item.Profit().Equal(decimal.NewFromInt(210)))
}

func TestSumItemsEmpty(t *testing.T) {
	amount, profit := SumItems(nil)
	assert.True(t, amount.IsZero())
	assert.True(t, profit.IsZero())
}

func TestSumItemsMatchesLineFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "lines")
		items := make([]SaleItem, 0, n)
		wantAmount := decimal.Zero
		wantProfit := decimal.Zero
		for i := 0; i < n; i++ {
			// cents keep the generated prices exact
			price := decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "price"), -2)
			cost := decimal.New(rapid.Int64Range(0, 10_000_00).Draw(t, "cost"), -2)
			qty := rapid.IntRange(1, 500).Draw(t, "qty")
			items = append(items, SaleItem{Quantity: qty, SalePriceAtTime: price, CostPriceAtTime: cost})

			q := decimal.NewFromInt(int64(qty))
			wantAmount = wantAmount.Add(price.Mul(q))
			wantProfit = wantProfit.Add(price.Sub(cost).Mul(q))
		}

		amount, profit := SumItems(items)
		if !amount.Equal(wantAmount) {
			t.Fatalf("amount %s, want %s", amount, wantAmount)
		}
		if !profit.Equal(wantProfit) {
			t.Fatalf("profit %s, want %s", profit, wantProfit)
		}
	})
}

func TestParseProductType(t *testing.T) {
	cases := map[string]ProductType{
		"HEAT_SINK":  ProductTypeHeatSink,
		"heat sink":  ProductTypeHeatSink,
		"Heat-Sink":  ProductTypeHeatSink,
		" capacitor": ProductTypeCapacitor,
		"other":      ProductTypeOther,
	}
	for raw, want := range cases {
		got, err := ParseProductType(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	_, err := ParseProductType("resistor")
	assert.Error(t, err)
	assert.False(t, ProductType("").Valid())
}
