package report

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

// AnnualReport year-end figures in the reference and the home currency.
type AnnualReport struct {
	// UTCTime year-end timestamp.
	UTCTime              int64           `json:"utc_time"`
	PNLReference         decimal.Decimal `json:"pnl_reference"`
	ExchangeRate         decimal.Decimal `json:"exchange_rate"`
	PNLHome              decimal.Decimal `json:"pnl_home"`
	WalletValueReference decimal.Decimal `json:"wallet_value_reference"`
	WalletValueHome      decimal.Decimal `json:"wallet_value_home"`
}

// Year calendar year of the report.
func (a AnnualReport) Year() int {
	return domain.UTCYear(a.UTCTime)
}

// AnnualReports builds one report per calendar year from the last snapshot of that year.
// Prices missing from extra info are asked from the pricer; everything still missing is
// returned at once as MissingExtraInfoError.
func (r *Report) AnnualReports(ctx context.Context) ([]AnnualReport, error) {
	var (
		reports []AnnualReport
		missing []domain.ExtraInfoEntry
	)

	for _, ys := range lastSnapshotPerYear(r.snapshots) {
		s := ys.Snapshot
		yearEnd := domain.YearEndTimestamp(ys.Year)

		rate, ok, err := r.exchangeRate(yearEnd)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, domain.ExtraInfoEntry{
				UTCTime: yearEnd,
				Type:    domain.ExtraInfoExchangeRate,
				Asset:   r.acc.Reference,
				Value:   "<home currency per " + r.acc.Reference + ">",
			})
		}

		value, missingPrices, err := r.walletValue(ctx, s.Wallet, yearEnd)
		if err != nil {
			return nil, err
		}
		missing = append(missing, missingPrices...)
		if !ok || len(missingPrices) > 0 {
			continue
		}

		reports = append(reports, AnnualReport{
			UTCTime:              yearEnd,
			PNLReference:         s.PNL,
			ExchangeRate:         rate,
			PNLHome:              s.PNL.Mul(rate),
			WalletValueReference: value,
			WalletValueHome:      value.Mul(rate),
		})
	}

	if len(missing) > 0 {
		return nil, &MissingExtraInfoError{Entries: missing}
	}
	return reports, nil
}

func (r *Report) exchangeRate(utcTime int64) (decimal.Decimal, bool, error) {
	e, ok := r.extra.Find(utcTime, domain.ExtraInfoExchangeRate, "")
	if !ok {
		return decimal.Zero, false, nil
	}
	rate, err := e.Decimal()
	if err != nil {
		return decimal.Zero, false, errors.Wrapf(err, "exchange rate at %s", domain.FormatUTC(utcTime))
	}
	return rate, true, nil
}

// walletValue sums amount × price over the wallet. USD-like assets price at 1.
func (r *Report) walletValue(ctx context.Context, w domain.Wallet, utcTime int64) (decimal.Decimal, []domain.ExtraInfoEntry, error) {
	total := decimal.Zero
	var missing []domain.ExtraInfoEntry
	for _, asset := range w.Assets() {
		amount := w.Amount(asset)
		if r.acc.IsUSDLike(asset) {
			total = total.Add(amount)
			continue
		}

		price, ok, err := r.extra.AssetPrice(utcTime, asset)
		if err != nil {
			return decimal.Zero, nil, errors.Wrapf(err, "price of %s", asset)
		}
		if !ok {
			if ok, err = r.lookupPrice(ctx, asset, utcTime); err != nil {
				return decimal.Zero, nil, err
			}
			if ok {
				price, _, err = r.extra.AssetPrice(utcTime, asset)
				if err != nil {
					return decimal.Zero, nil, err
				}
			}
		}
		if !ok {
			missing = append(missing, domain.ExtraInfoEntry{
				UTCTime: utcTime,
				Type:    domain.ExtraInfoAssetPrice,
				Asset:   asset,
				Value:   "<" + asset + " price in " + r.acc.Reference + ">",
			})
			continue
		}
		total = total.Add(amount.Mul(price))
	}
	return total, missing, nil
}

// yearSnapshot the snapshot a calendar year closes with.
type yearSnapshot struct {
	Year     int
	Snapshot transaction.WalletSnapshot
}

// lastSnapshotPerYear the last snapshot at or before the end of every calendar year from the
// first transaction on. A year without transactions closes with the previous year's snapshot.
func lastSnapshotPerYear(snapshots []transaction.WalletSnapshot) []yearSnapshot {
	var last []yearSnapshot
	for _, s := range snapshots {
		if s.Transaction == nil {
			continue
		}
		year := s.Year()
		if n := len(last); n > 0 {
			if last[n-1].Year == year {
				last[n-1].Snapshot = s
				continue
			}
			for y := last[n-1].Year + 1; y < year; y++ {
				last = append(last, yearSnapshot{Year: y, Snapshot: last[n-1].Snapshot})
			}
		}
		last = append(last, yearSnapshot{Year: year, Snapshot: s})
	}
	return last
}
