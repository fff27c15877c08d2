package repository

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"bizledger/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore runs the behaviour every Store backend shares. Each subtest
// starts from an empty store.
func testStore(t *testing.T, store Store) {
	ctx := context.Background()
	run := func(name string, fn func(t *testing.T)) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Purge(ctx))
			fn(t)
		})
	}

	run("clients", func(t *testing.T) {
		first, err := store.CreateClient(ctx, ClientInput{Name: "ElectroTech Solutions", ContactInfo: "0300-1234567"})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		second, err := store.CreateClient(ctx, ClientInput{Name: "Alpha Electronics"})
		require.NoError(t, err)

		clients, err := store.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, clients, 2)
		assert.Equal(t, second.ID, clients[0].ID)
		assert.Equal(t, "0300-1234567", clients[1].ContactInfo)

		updated, err := store.UpdateClient(ctx, first.ID, ClientInput{Name: "ElectroTech", Address: "Hall Road"})
		require.NoError(t, err)
		assert.Equal(t, "ElectroTech", updated.Name)
		assert.Empty(t, updated.ContactInfo, "update replaces every field")

		got, err := store.GetClient(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "Hall Road", got.Address)

		require.NoError(t, store.DeleteClient(ctx, first.ID))
		for _, id := range []string{first.ID, uuid.NewString(), "not-a-uuid"} {
			_, err = store.GetClient(ctx, id)
			assert.True(t, errors.Is(err, ErrNotFound), id)
			_, err = store.UpdateClient(ctx, id, ClientInput{Name: "x"})
			assert.True(t, errors.Is(err, ErrNotFound), id)
			assert.True(t, errors.Is(store.DeleteClient(ctx, id), ErrNotFound), id)
		}
	})

	run("products", func(t *testing.T) {
		size := 4.5
		uf := "10uF"
		inputs := []ProductInput{
			{Name: "Aluminum Heat Sink Large", Type: domain.ProductTypeHeatSink, CostPrice: decimal.RequireFromString("15.50"), SalePrice: decimal.NewFromInt(25), Quantity: 100, Attributes: domain.ProductAttributes{SizeInches: &size}},
			{Name: "Ceramic Capacitor", Type: domain.ProductTypeCapacitor, CostPrice: decimal.RequireFromString("0.25"), SalePrice: decimal.RequireFromString("0.75"), Quantity: 5000, Attributes: domain.ProductAttributes{UFValue: &uf}},
			{Name: "CPU Cooler Sink", Type: domain.ProductTypeHeatSink, CostPrice: decimal.NewFromInt(8), SalePrice: decimal.NewFromInt(12)},
		}
		var created []domain.Product
		for _, in := range inputs {
			p, err := store.CreateProduct(ctx, in)
			require.NoError(t, err)
			created = append(created, p)
			time.Sleep(5 * time.Millisecond)
		}

		got, err := store.GetProduct(ctx, created[0].ID)
		require.NoError(t, err)
		assert.True(t, got.CostPrice.Equal(decimal.RequireFromString("15.5")))
		require.NotNil(t, got.Attributes.SizeInches)
		assert.InDelta(t, 4.5, *got.Attributes.SizeInches, 1e-9)
		assert.Nil(t, got.Attributes.UFValue)

		sinks, err := store.ListProducts(ctx, ProductListFilter{Type: domain.ProductTypeHeatSink})
		require.NoError(t, err)
		require.Len(t, sinks, 2)
		assert.Equal(t, "CPU Cooler Sink", sinks[0].Name)

		found, err := store.ListProducts(ctx, ProductListFilter{Search: "CAPAC"})
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.NotNil(t, found[0].Attributes.UFValue)
		assert.Equal(t, "10uF", *found[0].Attributes.UFValue)

		page, err := store.ListProducts(ctx, ProductListFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "Ceramic Capacitor", page[0].Name)

		updated, err := store.UpdateProduct(ctx, created[1].ID, ProductInput{
			Name:      "Film Capacitor",
			Type:      domain.ProductTypeCapacitor,
			CostPrice: decimal.NewFromInt(1),
			SalePrice: decimal.NewFromInt(2),
			Quantity:  7,
		})
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Quantity)
		assert.Nil(t, updated.Attributes.UFValue)

		require.NoError(t, store.DeleteProduct(ctx, created[2].ID))
		_, err = store.GetProduct(ctx, created[2].ID)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.True(t, errors.Is(store.DeleteProduct(ctx, created[2].ID), ErrNotFound))
	})

	run("stock", func(t *testing.T) {
		p, err := store.CreateProduct(ctx, ProductInput{Name: "Thermal Paste", Type: domain.ProductTypeOther, Quantity: 2})
		require.NoError(t, err)

		after, err := store.AdjustStock(ctx, p.ID, -5)
		require.NoError(t, err)
		assert.Equal(t, -3, after.Quantity)
		after, err = store.AdjustStock(ctx, p.ID, 10)
		require.NoError(t, err)
		assert.Equal(t, 7, after.Quantity)

		_, err = store.AdjustStock(ctx, uuid.NewString(), -1)
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	run("transactions", func(t *testing.T) {
		p, err := store.CreateProduct(ctx, ProductInput{Name: "High Voltage Cap", Type: domain.ProductTypeCapacitor, Quantity: 10})
		require.NoError(t, err)
		clientID := uuid.NewString()

		boom := errors.New("boom")
		err = store.WithinTx(ctx, func(tx Store) error {
			if _, err := tx.AdjustStock(ctx, p.ID, -4); err != nil {
				return err
			}
			if _, err := tx.InsertSale(ctx, domain.Sale{ClientID: clientID, TotalAmount: decimal.NewFromInt(1)}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 10, got.Quantity)
		sales, err := store.ListSales(ctx, SaleListFilter{})
		require.NoError(t, err)
		assert.Empty(t, sales)

		require.NoError(t, store.WithinTx(ctx, func(tx Store) error {
			if _, err := tx.AdjustStock(ctx, p.ID, -4); err != nil {
				return err
			}
			_, err := tx.InsertSale(ctx, domain.Sale{ClientID: clientID, TotalAmount: decimal.NewFromInt(1)})
			return err
		}))
		got, err = store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, got.Quantity)
		sales, err = store.ListSales(ctx, SaleListFilter{})
		require.NoError(t, err)
		assert.Len(t, sales, 1)
	})

	run("sales", func(t *testing.T) {
		alpha, beta := uuid.NewString(), uuid.NewString()
		feb := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)
		item := domain.SaleItem{
			ProductID:       uuid.NewString(),
			ProductName:     "Aluminum Heat Sink Large",
			ProductType:     domain.ProductTypeHeatSink,
			Quantity:        4,
			SalePriceAtTime: decimal.RequireFromString("25.00"),
			CostPriceAtTime: decimal.RequireFromString("15.50"),
		}
		inserted, err := store.InsertSale(ctx, domain.Sale{
			ClientID:      alpha,
			Items:         []domain.SaleItem{item},
			TotalAmount:   decimal.NewFromInt(100),
			TotalProfit:   decimal.NewFromInt(38),
			CargoSlipInfo: "TCS",
			TrackingNo:    "TRK-1",
			Date:          feb,
		})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = store.InsertSale(ctx, domain.Sale{ClientID: beta, Date: feb.AddDate(0, 1, 0)})
		require.NoError(t, err)

		got, err := store.GetSale(ctx, inserted.ID)
		require.NoError(t, err)
		assert.Equal(t, alpha, got.ClientID)
		assert.True(t, got.Date.Equal(feb))
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(100)))
		assert.True(t, got.TotalProfit.Equal(decimal.NewFromInt(38)))
		assert.Equal(t, "TRK-1", got.TrackingNo)
		require.Len(t, got.Items, 1)
		assert.Equal(t, item.ProductName, got.Items[0].ProductName)
		assert.Equal(t, 4, got.Items[0].Quantity)
		assert.True(t, got.Items[0].SalePriceAtTime.Equal(item.SalePriceAtTime))
		assert.True(t, got.Items[0].CostPriceAtTime.Equal(item.CostPriceAtTime))

		all, err := store.ListSales(ctx, SaleListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, beta, all[0].ClientID)

		byClient, err := store.ListSales(ctx, SaleListFilter{ClientID: alpha})
		require.NoError(t, err)
		require.Len(t, byClient, 1)

		to := feb
		before, err := store.ListSales(ctx, SaleListFilter{To: &to})
		require.NoError(t, err)
		assert.Empty(t, before)
		from := feb
		onward, err := store.ListSales(ctx, SaleListFilter{From: &from, Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, onward, 1)
		assert.Equal(t, alpha, onward[0].ClientID)

		_, err = store.GetSale(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	run("daily totals and stats", func(t *testing.T) {
		karachi, err := time.LoadLocation("Asia/Karachi")
		require.NoError(t, err)
		client, err := store.CreateClient(ctx, ClientInput{Name: "Beta Components"})
		require.NoError(t, err)
		_, err = store.CreateProduct(ctx, ProductInput{Name: "Switch", Type: domain.ProductTypeOther})
		require.NoError(t, err)

		insert := func(at time.Time, amount, profit string) {
			_, err := store.InsertSale(ctx, domain.Sale{
				ClientID:    client.ID,
				Date:        at,
				TotalAmount: decimal.RequireFromString(amount),
				TotalProfit: decimal.RequireFromString(profit),
			})
			require.NoError(t, err)
		}
		insert(time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), "100.25", "40")
		insert(time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC), "50", "10.5")
		// 21:00 UTC on the 3rd is already the 4th in Karachi
		insert(time.Date(2026, 2, 3, 21, 0, 0, 0, time.UTC), "30", "5")
		// still January in Karachi
		insert(time.Date(2026, 1, 31, 18, 59, 0, 0, time.UTC), "7", "7")
		insert(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), "999", "999")

		from := time.Date(2026, 2, 1, 0, 0, 0, 0, karachi)
		totals, err := store.DailyTotals(ctx, from, from.AddDate(0, 1, 0), karachi)
		require.NoError(t, err)
		require.Len(t, totals, 2)
		assert.Equal(t, "2026-02-03", totals[0].Day)
		assert.True(t, totals[0].Revenue.Equal(decimal.RequireFromString("150.25")), totals[0].Revenue.String())
		assert.True(t, totals[0].Profit.Equal(decimal.RequireFromString("50.5")), totals[0].Profit.String())
		assert.Equal(t, "2026-02-04", totals[1].Day)
		assert.True(t, totals[1].Revenue.Equal(decimal.NewFromInt(30)))

		empty, err := store.DailyTotals(ctx, from.AddDate(1, 0, 0), from.AddDate(1, 1, 0), karachi)
		require.NoError(t, err)
		assert.Empty(t, empty)

		stats, err := store.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.TotalClients)
		assert.Equal(t, 1, stats.TotalProducts)
		assert.Equal(t, 5, stats.TotalSalesCount)
		assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("1186.25")), stats.TotalRevenue.String())
		assert.True(t, stats.TotalProfit.Equal(decimal.RequireFromString("1061.5")), stats.TotalProfit.String())

		require.NoError(t, store.Purge(ctx))
		stats, err = store.Stats(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.TotalClients)
		assert.Zero(t, stats.TotalProducts)
		assert.Zero(t, stats.TotalSalesCount)
		assert.True(t, stats.TotalRevenue.IsZero())
	})
}

func TestMemoryStoreContract(t *testing.T) {
	testStore(t, NewMemory())
}
