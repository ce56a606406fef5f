package pricer

import (
	"context"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/pkg/retrier"
)

const (
	day   int64 = 1672531200000 // 2023-01-01 00:00:00
	noon        = day + 12*3600*1000
	dayMs int64 = 24 * 3600 * 1000
)

type fakeKlines struct {
	calls   int
	symbols []string
	fn      func(call int, symbol string, startTime int64) ([]*binance.Kline, error)
}

func (f *fakeKlines) fetch(_ context.Context, symbol, interval string, startTime int64, limit int) ([]*binance.Kline, error) {
	f.calls++
	f.symbols = append(f.symbols, symbol)
	if interval != dailyInterval || limit != 1 {
		return nil, errors.Errorf("unexpected request %s %d", interval, limit)
	}
	return f.fn(f.calls, symbol, startTime)
}

func newTestPricer(f *fakeKlines) *BinancePricer {
	return newBinancePricer(zap.NewNop(), "USDT", f.fetch,
		retrier.WithInitialInterval(time.Millisecond), retrier.WithMaxRetries(2))
}

func TestDailyClosePrice(t *testing.T) {
	f := &fakeKlines{fn: func(_ int, _ string, startTime int64) ([]*binance.Kline, error) {
		return []*binance.Kline{{OpenTime: startTime, Close: "16625.08"}}, nil
	}}
	p := newTestPricer(f)

	price, ok, err := p.DailyClosePrice(context.Background(), "btc", noon)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("16625.08").Equal(price))
	assert.Equal(t, []string{"BTCUSDT"}, f.symbols)

	// same day is served from the cache
	_, _, err = p.DailyClosePrice(context.Background(), "BTC", day+1000)
	require.NoError(t, err)
	assert.Equal(t, 1, f.calls)

	_, _, err = p.DailyClosePrice(context.Background(), "BTC", day+dayMs)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
}

func TestDailyClosePriceReference(t *testing.T) {
	f := &fakeKlines{}
	price, ok, err := newTestPricer(f).DailyClosePrice(context.Background(), "USDT", noon)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, 0, f.calls)
}

func TestDailyClosePriceNotFound(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(call int, symbol string, startTime int64) ([]*binance.Kline, error)
		calls int
	}{
		{
			name: "invalid symbol is not retried",
			fn: func(int, string, int64) ([]*binance.Kline, error) {
				return nil, &common.APIError{Code: invalidSymbolCode, Message: "Invalid symbol."}
			},
			calls: 1,
		},
		{
			name:  "no candles",
			fn:    func(int, string, int64) ([]*binance.Kline, error) { return nil, nil },
			calls: 1,
		},
		{
			name: "pair listed later",
			fn: func(_ int, _ string, startTime int64) ([]*binance.Kline, error) {
				return []*binance.Kline{{OpenTime: startTime + 30*dayMs, Close: "1"}}, nil
			},
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeKlines{fn: tt.fn}
			p := newTestPricer(f)
			_, ok, err := p.DailyClosePrice(context.Background(), "NEW", noon)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.calls, f.calls)

			// negative answers are cached too
			_, ok, err = p.DailyClosePrice(context.Background(), "NEW", noon)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, tt.calls, f.calls)
		})
	}
}

func TestDailyClosePriceRetries(t *testing.T) {
	t.Run("transient failure", func(t *testing.T) {
		f := &fakeKlines{fn: func(call int, _ string, startTime int64) ([]*binance.Kline, error) {
			if call < 3 {
				return nil, errors.New("i/o timeout")
			}
			return []*binance.Kline{{OpenTime: startTime, Close: "1200.5"}}, nil
		}}
		price, ok, err := newTestPricer(f).DailyClosePrice(context.Background(), "ETH", noon)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.True(t, decimal.RequireFromString("1200.5").Equal(price))
		assert.Equal(t, 3, f.calls)
	})

	t.Run("persistent failure", func(t *testing.T) {
		f := &fakeKlines{fn: func(int, string, int64) ([]*binance.Kline, error) {
			return nil, errors.New("connection refused")
		}}
		_, _, err := newTestPricer(f).DailyClosePrice(context.Background(), "ETH", noon)
		require.Error(t, err)
		assert.Equal(t, 3, f.calls)
	})
}
