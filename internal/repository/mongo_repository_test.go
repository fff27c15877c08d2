package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoTimezone(t *testing.T) {
	ref := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", mongoTimezone(berlin, ref))
	assert.Equal(t, "UTC", mongoTimezone(time.UTC, ref))
	assert.Equal(t, "+05:00", mongoTimezone(time.FixedZone("PKT", 5*3600), ref))
	assert.Equal(t, "-03:30", mongoTimezone(time.FixedZone("NST", -(3*3600+1800)), ref))
}

func TestDecimal128KeepsScale(t *testing.T) {
	for _, raw := range []string{"0", "12.5", "1500.0075", "-3.25"} {
		in := decimal.RequireFromString(raw)
		encoded, err := toDecimal128(in)
		require.NoError(t, err)
		out, err := fromDecimal128(encoded)
		require.NoError(t, err)
		assert.True(t, in.Equal(out), raw)
	}
}

func TestWrapMongoMapsMissingDocuments(t *testing.T) {
	assert.Equal(t, ErrNotFound, wrapMongo(mongo.ErrNoDocuments, "get sale %s", "x"))
	assert.Equal(t, ErrNotFound, wrapMongo(ErrNotFound, "get sale %s", "x"))

	other := wrapMongo(errors.New("socket closed"), "get sale %s", "x")
	assert.EqualError(t, other, "get sale x: socket closed")
}

func TestDateRange(t *testing.T) {
	assert.Empty(t, dateRange(nil, nil))
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rng := dateRange(&from, nil)
	assert.Equal(t, from, rng["$gte"])
	assert.NotContains(t, rng, "$lt")
}
