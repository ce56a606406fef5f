package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/report"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

var transactionLogHeader = []string{
	"utc_time", "type", "base_currency", "base_amount", "quote_currency", "quote_amount",
	"fee_currency", "fee", "fee_in_reference", "avg_price", "base_obtain_price",
	"pnl", "total_pnl", "wallet",
}

var annualHeader = []string{
	"year", "utc_time", "pnl_reference", "exchange_rate", "pnl_home",
	"wallet_value_reference", "wallet_value_home",
}

func decimalCell(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return domain.NiceString(d)
}

// WriteTransactionLog one row per processed transaction with the wallet after it.
func WriteTransactionLog(w io.Writer, snapshots []transaction.WalletSnapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(transactionLogHeader); err != nil {
		return errors.Wrap(err, "write transaction log header")
	}

	for _, s := range snapshots {
		t := s.Transaction
		if t == nil {
			continue
		}
		row := []string{
			domain.FormatUTC(t.UTCTime),
			t.Kind.String(),
			t.BaseCurrency,
			decimalCell(t.BaseAmount),
			t.QuoteCurrency,
			decimalCell(t.QuoteAmount),
			t.FeeCurrency,
			decimalCell(t.Fee),
			decimalCell(s.Outcome.FeeInReference),
			decimalCell(s.Outcome.AvgPrice),
			decimalCell(s.Outcome.BaseObtainPrice),
			decimalCell(s.Outcome.PNL),
			domain.NiceString(s.PNL),
			s.Wallet.String(),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write transaction log row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush transaction log")
}

// WriteTransactionLogFile writes the transaction log atomically.
func WriteTransactionLogFile(path string, snapshots []transaction.WalletSnapshot) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteTransactionLog(w, snapshots)
	})
}

// WriteAnnualReports one row per year.
func WriteAnnualReports(w io.Writer, reports []report.AnnualReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(annualHeader); err != nil {
		return errors.Wrap(err, "write annual report header")
	}

	for _, r := range reports {
		row := []string{
			strconv.Itoa(r.Year()),
			domain.FormatUTC(r.UTCTime),
			domain.NiceString(r.PNLReference),
			domain.NiceString(r.ExchangeRate),
			domain.NiceString(r.PNLHome.Round(2)),
			domain.NiceString(r.WalletValueReference),
			domain.NiceString(r.WalletValueHome.Round(2)),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write annual report row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "flush annual reports")
}

// WriteAnnualReportsFile writes the annual reports atomically.
func WriteAnnualReportsFile(path string, reports []report.AnnualReport) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		return WriteAnnualReports(w, reports)
	})
}
