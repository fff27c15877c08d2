package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"bizledger/internal/domain"
	"bizledger/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientValidationAndTrim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateClient(ctx, repository.ClientInput{Name: "   "})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	c, err := f.svc.CreateClient(ctx, repository.ClientInput{Name: " Zeta Electronics ", ContactInfo: " 0300-1234567 "})
	require.NoError(t, err)
	assert.Equal(t, "Zeta Electronics", c.Name)
	assert.Equal(t, "0300-1234567", c.ContactInfo)

	_, err = f.svc.UpdateClient(ctx, c.ID, repository.ClientInput{})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	err = f.svc.DeleteClient(ctx, "nope")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestProductValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	negative := -1.0
	blank := "  "

	bad := map[string]repository.ProductInput{
		"name":   {Type: domain.ProductTypeOther},
		"type":   {Name: "Resistor", Type: "RESISTOR"},
		"cost":   {Name: "x", Type: domain.ProductTypeOther, CostPrice: decimal.NewFromInt(-1)},
		"sale":   {Name: "x", Type: domain.ProductTypeOther, SalePrice: decimal.NewFromInt(-1)},
		"size":   {Name: "x", Type: domain.ProductTypeHeatSink, Attributes: domain.ProductAttributes{SizeInches: &negative}},
		"weight": {Name: "x", Type: domain.ProductTypeHeatSink, Attributes: domain.ProductAttributes{WeightGrams: &negative}},
		"stock":  {Name: "x", Type: domain.ProductTypeOther, Quantity: math.MaxInt32 + 1},
	}
	for name, input := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.CreateProduct(ctx, input)
			assert.True(t, errors.Is(err, ErrInvalidInput), err)
		})
	}

	p, err := f.svc.CreateProduct(ctx, repository.ProductInput{
		Name:       "Film Capacitor",
		Type:       "capacitor",
		Attributes: domain.ProductAttributes{UFValue: &blank},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProductTypeCapacitor, p.Type)
	assert.Nil(t, p.Attributes.UFValue)

	_, err = f.svc.ListProducts(ctx, repository.ProductListFilter{Type: "gadget"})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	list, err := f.svc.ListProducts(ctx, repository.ProductListFilter{Type: "Capacitor"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestImportProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	csv := "name,type,cost_price,sale_price,quantity\n" +
		"Aluminum Heat Sink Large,HEAT_SINK,15.5,25,100\n" +
		"Mystery,UNKNOWN,1,2,3\n" +
		"High Voltage Cap,CAPACITOR,5,12,50\n"

	before := f.cache.invalidations
	result, err := f.svc.ImportProducts(ctx, "products.csv", strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "row 3")
	assert.Equal(t, before+1, f.cache.invalidations)

	products, err := f.svc.ListProducts(ctx, repository.ProductListFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	_, err = f.svc.ImportProducts(ctx, "products.csv", strings.NewReader("foo,bar\n1,2\n"))
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
