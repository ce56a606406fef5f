package report

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
	pricerMock "github.com/vadiminshakov/pnlreport/mocks/pricer"
)

func d(s string) decimal.Decimal {
	return domain.MustDecimal(s)
}

func proportions(utcTime int64, pairs ...string) domain.ExtraInfoEntry {
	var p []domain.AssetProportion
	for i := 0; i+1 < len(pairs); i += 2 {
		p = append(p, domain.AssetProportion{Asset: pairs[i], Proportion: d(pairs[i+1])})
	}
	return domain.NewAutoInvestProportionsEntry(utcTime, p)
}

func assertBalance(t *testing.T, w domain.Wallet, asset, amount, avg string) {
	t.Helper()
	assert.Truef(t, d(amount).Equal(w.Amount(asset)), "%s amount: expected %s, got %s", asset, amount, w.Amount(asset))
	assert.Truef(t, d(avg).Equal(w.AvgObtainPrice(asset)), "%s avg: expected %s, got %s", asset, avg, w.AvgObtainPrice(asset))
}

type memoryJournal struct {
	saved []transaction.WalletSnapshot
}

func (j *memoryJournal) Save(s transaction.WalletSnapshot) error {
	j.saved = append(j.saved, s)
	return nil
}

func TestBuyThenSell(t *testing.T) {
	changes := []domain.RawAccountChange{
		change(startTime, domain.OperationBuy, "BTC", "1"),
		change(startTime, domain.OperationBuy, "USDT", "-100"),
		change(startTime, domain.OperationFee, "USDT", "0"),
		change(startTime+1000, domain.OperationSell, "BTC", "-1"),
		change(startTime+1000, domain.OperationSell, "USDT", "150"),
	}

	journal := &memoryJournal{}
	r := New(zap.NewNop(), transaction.DefaultAccounting(), nil, WithJournal(journal))
	require.NoError(t, r.Run(context.Background(), changes))

	snapshots := r.Snapshots()
	require.Len(t, snapshots, 3)
	assert.Nil(t, snapshots[0].Transaction)
	assertBalance(t, snapshots[1].Wallet, "BTC", "1", "100")
	assert.True(t, d("-100").Equal(snapshots[1].Wallet.Amount("USDT")))

	last := snapshots[2]
	assert.Equal(t, transaction.KindSell, last.Transaction.Kind)
	assert.True(t, d("50").Equal(last.PNL))
	assert.True(t, last.Wallet.Amount("BTC").IsZero())
	assert.Len(t, journal.saved, 2)
}

func TestAutoInvestProcessing(t *testing.T) {
	changes := append([]domain.RawAccountChange{change(startTime-1000, domain.OperationDeposit, "USDT", "100")},
		autoInvestChanges(
			"-5", "USDT",
			"0.01", "BNB",
			"0.0002", "BTC",
			"0.0004", "ETH",
			"-10", "USDT",
			"0.0004", "BTC",
			"0.0008", "ETH",
			"-10", "USDT",
			"0.00065", "BTC",
			"0.001", "ETH",
			"-5", "USDT",
			"0.0002", "BTC",
			"-5", "USDT",
			"0.0002", "BTC",
		)...)

	at := func(i int) int64 { return startTime + int64(i)*1000 }
	extra := domain.NewExtraInfo()
	extra.Add(proportions(at(0), "BTC", "0.5", "BNB", "0.3", "ETH", "0.2"))
	extra.Add(proportions(at(4), "BTC", "0.5", "ETH", "0.5"))
	extra.Add(proportions(at(10), "BTC", "1"))

	r := New(zap.NewNop(), transaction.DefaultAccounting(), extra)
	require.NoError(t, r.Run(context.Background(), changes))

	// snapshots[0] is empty, snapshots[1] is the deposit
	s := func(i int) domain.Wallet { return r.Snapshots()[i+2].Wallet }

	assertBalance(t, s(0), "USDT", "95", "1")
	assertBalance(t, s(1), "BNB", "0.01", "150")
	assertBalance(t, s(2), "BTC", "0.0002", "12500")
	assertBalance(t, s(3), "ETH", "0.0004", "2500")
	assertBalance(t, s(4), "USDT", "85", "1")
	assertBalance(t, s(5), "BTC", "0.0006", "12500")
	assertBalance(t, s(6), "ETH", "0.0012", "5000")
	assertBalance(t, s(7), "USDT", "75", "1")
	assertBalance(t, s(8), "BTC", "0.00125", "10000")
	assertBalance(t, s(9), "ETH", "0.0022", "5000")
	assertBalance(t, s(10), "USDT", "70", "1")
	assertBalance(t, s(11), "BTC", "0.00145", "12068.96551724")
	assertBalance(t, s(12), "USDT", "65", "1")

	final := s(13)
	assertBalance(t, final, "USDT", "65", "1")
	assertBalance(t, final, "BNB", "0.01", "150")
	assertBalance(t, final, "BTC", "0.00165", "13636.36363636")
	assertBalance(t, final, "ETH", "0.0022", "5000")
	assert.True(t, r.Snapshots()[15].PNL.IsZero())
}

func TestAutoInvestSplitAcquisition(t *testing.T) {
	spend, buy := startTime, startTime+1000
	changes := []domain.RawAccountChange{
		change(startTime-1000, domain.OperationDeposit, "USDT", "100"),
		change(spend, domain.OperationAutoInvest, "USDT", "-10"),
		change(buy, domain.OperationAutoInvest, "BTC", "0.0005"),
		change(buy, domain.OperationAutoInvest, "BTC", "0.0005"),
	}
	extra := domain.NewExtraInfo()
	extra.Add(proportions(spend, "BTC", "1"))

	r := New(zap.NewNop(), transaction.DefaultAccounting(), extra)
	require.NoError(t, r.Run(context.Background(), changes))

	snapshots := r.Snapshots()
	require.Len(t, snapshots, 4)
	last := snapshots[3]
	assertBalance(t, last.Wallet, "BTC", "0.001", "10000")
	assertBalance(t, last.Wallet, "USDT", "90", "1")
	assert.True(t, d("10").Equal(last.Wallet.Amount("BTC").Mul(last.Wallet.AvgObtainPrice("BTC"))),
		"cost basis equals the invested amount")
}

func TestMissingProportions(t *testing.T) {
	r := New(zap.NewNop(), transaction.DefaultAccounting(), nil)
	err := r.Run(context.Background(), autoInvestChanges("-5", "USDT", "0.001", "BNB"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingExtraInfo))

	var missing *MissingExtraInfoError
	require.True(t, errors.As(err, &missing))
	require.Len(t, missing.Entries, 1)
	assert.Equal(t, domain.ExtraInfoAutoInvestProportions, missing.Entries[0].Type)
	assert.Equal(t, "BNB", missing.Entries[0].Asset)
}

func TestWithdrawPriceResolution(t *testing.T) {
	changes := []domain.RawAccountChange{
		change(startTime, domain.OperationBuy, "BTC", "1"),
		change(startTime, domain.OperationBuy, "USDT", "-100"),
		change(startTime+1000, domain.OperationWithdraw, "BTC", "-0.5"),
	}

	t.Run("price from pricer is appended to extra info", func(t *testing.T) {
		p := pricerMock.NewPricer(t)
		p.On("DailyClosePrice", mock.Anything, "BTC", startTime+1000).Return(d("300"), true, nil).Once()

		r := New(zap.NewNop(), transaction.DefaultAccounting(), nil, WithPricer(p))
		require.NoError(t, r.Run(context.Background(), changes))

		price, ok, err := r.ExtraInfo().AssetPrice(startTime+1000, "BTC")
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, d("300").Equal(price))
		assert.True(t, d("100").Equal(r.Snapshots()[2].PNL))
	})

	t.Run("price from extra info wins", func(t *testing.T) {
		extra := domain.NewExtraInfo()
		extra.Add(domain.ExtraInfoEntry{UTCTime: startTime + 1000, Type: domain.ExtraInfoAssetPrice, Asset: "BTC", Value: "200"})

		r := New(zap.NewNop(), transaction.DefaultAccounting(), extra, WithPricer(pricerMock.NewPricer(t)))
		require.NoError(t, r.Run(context.Background(), changes))
		assert.True(t, d("50").Equal(r.Snapshots()[2].PNL))
	})

	t.Run("unknown price", func(t *testing.T) {
		p := pricerMock.NewPricer(t)
		p.On("DailyClosePrice", mock.Anything, "BTC", startTime+1000).Return(decimal.Zero, false, nil).Once()

		r := New(zap.NewNop(), transaction.DefaultAccounting(), nil, WithPricer(p))
		err := r.Run(context.Background(), changes)
		assert.True(t, errors.Is(err, ErrMissingExtraInfo))
	})

	t.Run("pricer failure", func(t *testing.T) {
		p := pricerMock.NewPricer(t)
		p.On("DailyClosePrice", mock.Anything, "BTC", startTime+1000).Return(decimal.Zero, false, errors.New("connection refused")).Once()

		r := New(zap.NewNop(), transaction.DefaultAccounting(), nil, WithPricer(p))
		err := r.Run(context.Background(), changes)
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrMissingExtraInfo))
	})
}

func TestUnknownTransactionAbortsRun(t *testing.T) {
	changes := []domain.RawAccountChange{
		change(startTime, domain.OperationDeposit, "BTC", "1"),
		change(startTime, domain.OperationBuy, "ETH", "1"),
	}
	r := New(zap.NewNop(), transaction.DefaultAccounting(), nil)
	err := r.Run(context.Background(), changes)
	assert.True(t, errors.Is(err, transaction.ErrUnknownTransaction))
	assert.Empty(t, r.Snapshots())
}

func TestIdempotence(t *testing.T) {
	changes := []domain.RawAccountChange{
		change(startTime, domain.OperationDeposit, "USDT", "1000"),
		change(startTime+1000, domain.OperationBuy, "BNB", "1"),
		change(startTime+1000, domain.OperationBuy, "USDT", "-300"),
		change(startTime+1000, domain.OperationFee, "BNB", "-0.001"),
		change(startTime+2000, domain.OperationTransactionBuy, "ETH", "0.1"),
		change(startTime+2000, domain.OperationTransactionSpend, "USDT", "-150"),
		change(startTime+2000, domain.OperationTransactionFee, "BNB", "-0.0005"),
		change(startTime+3000, domain.OperationSell, "ETH", "-0.05"),
		change(startTime+3000, domain.OperationSell, "USDT", "100"),
		change(startTime+3000, domain.OperationFee, "USDT", "-0.1"),
		change(startTime+4000, domain.OperationSavingsSubscription, "USDT", "-500"),
		change(startTime+4000, domain.OperationSavingsSubscription, "LDUSDT", "500"),
		change(startTime+5000, domain.OperationSavingsInterest, "LDUSDT", "0.5"),
	}

	run := func() []transaction.WalletSnapshot {
		r := New(zap.NewNop(), transaction.DefaultAccounting(), nil)
		require.NoError(t, r.Run(context.Background(), changes))
		return r.Snapshots()
	}

	first, second := run(), run()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]), "snapshot #%d differs: %s vs %s", i, first[i].Wallet, second[i].Wallet)
	}
}

func TestDiffMismatchIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := New(zap.New(core), transaction.DefaultAccounting(), nil)

	// savings legs of the spot account only: the wallet is left as is on purpose
	savings := transaction.New(startTime)
	savings.Append(change(startTime, domain.OperationSavingsSubscription, "USDT", "-100"))
	savings, err := savings.Clarify(transaction.DefaultAccounting())
	require.NoError(t, err)

	_, err = r.process([]*transaction.Transaction{savings})
	require.NoError(t, err)
	assert.Equal(t, 0, logs.FilterMessage("wallet diff mismatch").Len())

	deposit := &transaction.Transaction{
		UTCTime: startTime,
		Kind:    transaction.KindDeposit,
		Changes: []domain.RawAccountChange{
			change(startTime, domain.OperationDeposit, "BTC", "0.1"),
			change(startTime, domain.OperationDeposit, "ETH", "1"),
		},
		BaseCurrency: "BTC",
		BaseAmount:   d("0.1"),
	}
	_, err = r.process([]*transaction.Transaction{deposit})
	require.NoError(t, err)

	mismatches := logs.FilterMessage("wallet diff mismatch")
	require.Equal(t, 1, mismatches.Len())
	assert.Equal(t, zapcore.WarnLevel, mismatches.All()[0].Level)
	assert.Equal(t, 1, mismatches.FilterField(zap.String("expected", "[0.1 BTC, 1 ETH]")).Len())
}
