// Package pricer looks up historical daily close prices on Binance.
package pricer

import (
	"context"
	"strings"
	"sync"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/pkg/retrier"
)

const (
	dailyInterval = "1d"
	// invalidSymbolCode Binance API error code for unknown trading pairs.
	invalidSymbolCode = -1121
)

// klinesFetcher fetches at most limit klines of symbol starting at startTime (ms).
type klinesFetcher func(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]*binance.Kline, error)

type cachedPrice struct {
	price decimal.Decimal
	ok    bool
}

// BinancePricer daily close prices of ASSET/REFERENCE pairs from the public klines API.
type BinancePricer struct {
	l         *zap.Logger
	reference string
	fetch     klinesFetcher
	retrier   *retrier.Retrier

	mu    sync.Mutex
	cache map[string]cachedPrice
}

// NewBinancePricer creates a pricer using the Binance public API. API keys are not required.
func NewBinancePricer(l *zap.Logger, client *binance.Client, reference string) *BinancePricer {
	fetch := func(ctx context.Context, symbol, interval string, startTime int64, limit int) ([]*binance.Kline, error) {
		return client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(startTime).
			Limit(limit).
			Do(ctx)
	}
	return newBinancePricer(l, reference, fetch)
}

func newBinancePricer(l *zap.Logger, reference string, fetch klinesFetcher, opts ...retrier.Option) *BinancePricer {
	p := &BinancePricer{
		l:         l,
		reference: strings.ToUpper(reference),
		fetch:     fetch,
		cache:     make(map[string]cachedPrice),
	}
	opts = append([]retrier.Option{
		retrier.WithRetryIf(func(err error) bool { return !isInvalidSymbol(err) }),
		retrier.WithOnRetry(func(attempt int, err error) {
			p.l.Warn("binance klines request failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		}),
	}, opts...)
	p.retrier = retrier.New(opts...)
	return p
}

// DailyClosePrice close price of asset in the reference currency on the UTC day of utcTime.
// ok is false when Binance has no such pair or no candle for that day.
func (p *BinancePricer) DailyClosePrice(ctx context.Context, asset string, utcTime int64) (decimal.Decimal, bool, error) {
	asset = strings.ToUpper(asset)
	if asset == p.reference {
		return domain.One, true, nil
	}

	dayStart := domain.DayStart(utcTime)
	symbol := asset + p.reference
	key := symbol + "@" + domain.FormatUTCDate(dayStart)

	p.mu.Lock()
	cached, hit := p.cache[key]
	p.mu.Unlock()
	if hit {
		return cached.price, cached.ok, nil
	}

	klines, err := retrier.DoWithData(p.retrier, ctx, func(ctx context.Context) ([]*binance.Kline, error) {
		return p.fetch(ctx, symbol, dailyInterval, dayStart, 1)
	})
	if err != nil && !isInvalidSymbol(err) {
		return decimal.Zero, false, errors.Wrapf(err, "failed to fetch klines from Binance for %s", symbol)
	}

	result := cachedPrice{}
	if err == nil && len(klines) > 0 && klines[0].OpenTime == dayStart {
		price, err := decimal.NewFromString(klines[0].Close)
		if err != nil {
			return decimal.Zero, false, errors.Wrapf(err, "failed to parse close price of %s", symbol)
		}
		result = cachedPrice{price: price, ok: true}
	}

	p.mu.Lock()
	p.cache[key] = result
	p.mu.Unlock()

	p.l.Debug("daily close price", zap.String("symbol", symbol),
		zap.String("day", domain.FormatUTCDate(dayStart)), zap.Bool("found", result.ok),
		zap.String("price", result.price.String()))
	return result.price, result.ok, nil
}

func isInvalidSymbol(err error) bool {
	var apiErr *common.APIError
	return errors.As(err, &apiErr) && apiErr.Code == invalidSymbolCode
}
