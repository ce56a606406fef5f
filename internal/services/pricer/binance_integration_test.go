//go:build integration

package pricer

import (
	"context"
	"testing"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// Calls the public Binance API, run with: go test -tags=integration ./...
func TestBinancePricer_DailyClosePrice_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	p := NewBinancePricer(zap.NewNop(), binance.NewClient("", ""), "USDT")
	utcTime, err := domain.ParseUTC("2023-06-01 12:00:00")
	require.NoError(t, err)

	price, ok, err := p.DailyClosePrice(context.Background(), "BTC", utcTime)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, price.GreaterThan(domain.MustDecimal("20000")), "BTC close %s", price)

	_, ok, err = p.DailyClosePrice(context.Background(), "NOSUCHCOIN", utcTime)
	require.NoError(t, err)
	assert.False(t, ok)
}
