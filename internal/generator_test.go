package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/config"
	"github.com/vadiminshakov/pnlreport/internal/csvio"
	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/report"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

const twoYearStatement = `User_ID,UTC_Time,Account,Operation,Coin,Change,Remark
1,2022-03-01 10:00:00,Spot,Deposit,USDT,1000,
1,2022-06-01 10:00:00,Spot,Buy,BTC,1,
1,2022-06-01 10:00:00,Spot,Buy,USDT,-100,
1,2023-06-01 10:00:00,Spot,Sell,BTC,-0.5,
1,2023-06-01 10:00:00,Spot,Sell,USDT,100,
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "statement.csv")
	require.NoError(t, os.WriteFile(input, []byte(twoYearStatement), 0o644))

	return config.Config{
		Input:            input,
		Extra:            filepath.Join(dir, "extra.csv"),
		HomeCurrency:     "NOK",
		OutDir:           filepath.Join(dir, "out"),
		Reference:        transaction.DefaultReference,
		USDLike:          transaction.DefaultUSDLike,
		DepositCostBasis: transaction.DepositZeroCost,
		WALDir:           filepath.Join(dir, "wal"),
		Offline:          true,
	}
}

func TestGeneratorMissingExtraInfo(t *testing.T) {
	conf := testConfig(t)
	g, err := NewGenerator(zap.NewNop(), conf)
	require.NoError(t, err)
	defer g.Close()

	summary, err := g.Run(context.Background())
	require.True(t, errors.Is(err, report.ErrMissingExtraInfo))
	require.Len(t, summary.Missing, 4)

	hints, err := csvio.ReadExtraInfoFile(filepath.Join(conf.OutDir, missingFile))
	require.NoError(t, err)
	assert.Len(t, hints.Entries(), 4)

	assert.FileExists(t, filepath.Join(conf.OutDir, transactionsFile))
	assert.NoFileExists(t, filepath.Join(conf.OutDir, annualFile))
	assert.Contains(t, summary.Render(conf.HomeCurrency), "4 extra info entries missing")
}

func TestGeneratorRun(t *testing.T) {
	conf := testConfig(t)

	end2022, end2023 := domain.YearEndTimestamp(2022), domain.YearEndTimestamp(2023)
	extra := domain.NewExtraInfo()
	extra.Add(domain.ExtraInfoEntry{UTCTime: end2022, Type: domain.ExtraInfoExchangeRate, Asset: "USDT", Value: "10"})
	extra.Add(domain.ExtraInfoEntry{UTCTime: end2023, Type: domain.ExtraInfoExchangeRate, Asset: "USDT", Value: "11"})
	extra.Add(domain.ExtraInfoEntry{UTCTime: end2022, Type: domain.ExtraInfoAssetPrice, Asset: "BTC", Value: "200"})
	extra.Add(domain.ExtraInfoEntry{UTCTime: end2023, Type: domain.ExtraInfoAssetPrice, Asset: "BTC", Value: "300"})
	require.NoError(t, csvio.WriteExtraInfoFile(conf.Extra, extra))

	g, err := NewGenerator(zap.NewNop(), conf)
	require.NoError(t, err)
	defer g.Close()

	summary, err := g.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Transactions)
	assert.True(t, domain.MustDecimal("50").Equal(summary.TotalPNL))
	require.Len(t, summary.Annual, 2)
	assert.True(t, domain.MustDecimal("12650").Equal(summary.Annual[1].WalletValueHome))
	assert.Empty(t, summary.Missing)

	annual, err := os.ReadFile(filepath.Join(conf.OutDir, annualFile))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(annual), "\n"))

	records, err := g.journal.RecordsAfter(0)
	require.NoError(t, err)
	assert.Len(t, records, 3)

	assert.Contains(t, summary.Render(conf.HomeCurrency), "pnl NOK")
}

func TestGeneratorViewerNeedsJournal(t *testing.T) {
	conf := testConfig(t)
	conf.WALDir = ""
	conf.HTTPAddr = ":0"

	_, err := NewGenerator(zap.NewNop(), conf)
	assert.Error(t, err)
}

func TestHomeAmount(t *testing.T) {
	assert.Equal(t, "12.50", homeAmount(domain.MustDecimal("12.5"), "XYZ"))
	assert.Equal(t, "$1,234.57", homeAmount(domain.MustDecimal("1234.567"), "USD"))
	assert.Equal(t, "$1.01", homeAmount(domain.MustDecimal("1.005"), "USD"), "no float rounding drift")
	assert.Equal(t, "¥1,235", homeAmount(domain.MustDecimal("1234.5"), "JPY"))
}
