package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"bizledger/internal/domain"
	"bizledger/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMonthly(t *testing.T) {
	month := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	points := service.MonthlySeries(month, []domain.DayTotal{
		{Day: "2026-02-03", Revenue: decimal.NewFromInt(250), Profit: decimal.NewFromInt(100)},
		{Day: "2026-02-10", Revenue: decimal.RequireFromString("15.5"), Profit: decimal.NewFromInt(10)},
	})

	buf := &bytes.Buffer{}
	renderMonthly(buf, month, points)
	out := buf.String()

	assert.Contains(t, out, "Sales February 2026")
	assert.Contains(t, out, "2026-02-28")
	assert.Contains(t, out, "250.00")
	assert.Contains(t, out, "265.50")
	assert.Contains(t, out, "110.00")
}

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd(&app{})
	for _, path := range [][]string{{"seed"}, {"import-products"}, {"report", "monthly"}} {
		cmd, _, err := root.Find(path)
		if assert.NoError(t, err) {
			assert.Equal(t, path[len(path)-1], cmd.Name())
		}
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestRunClosesStoreWhenCommandFails(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_URL", "")
	dir := t.TempDir()

	a := &app{}
	err := run(a, []string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"import-products", filepath.Join(dir, "missing.xlsx"),
	})
	require.Error(t, err)
	assert.NotNil(t, a.svc, "store was opened")
	assert.Nil(t, a.store)
	assert.Nil(t, a.cache)
}
