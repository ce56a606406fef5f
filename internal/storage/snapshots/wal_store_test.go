package snapshots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

func snapshot(t *testing.T, utcTime int64, asset, amount, price string) transaction.WalletSnapshot {
	t.Helper()
	tx := transaction.New(utcTime)
	tx.Append(domain.NewRawAccountChange(utcTime, domain.AccountSpot, domain.OperationDeposit, asset, domain.MustDecimal(amount), ""))
	c, err := tx.Clarify(transaction.DefaultAccounting())
	require.NoError(t, err)

	s := transaction.EmptySnapshot().PrepareFor(c)
	s.Wallet.Add(asset, domain.MustDecimal(amount), domain.MustDecimal(price))
	return s
}

func TestWALStore(t *testing.T) {
	dir := t.TempDir()

	store, err := NewWALStore(dir, "run-1")
	require.NoError(t, err)

	require.NoError(t, store.Save(snapshot(t, 1000, "BTC", "1", "100")))
	require.NoError(t, store.Save(snapshot(t, 2000, "ETH", "2", "10")))
	assert.Equal(t, uint64(2), store.CurrentIndex())

	records, err := store.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-1", records[0].Record.RunID)
	assert.Equal(t, int64(1000), records[0].Record.UTCTime)
	assert.Equal(t, "Deposit", records[0].Record.Kind)
	assert.True(t, domain.MustDecimal("100").Equal(records[0].Record.Assets["BTC"].AvgObtainPrice))

	records, err = store.RecordsAfter(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, uint64(2), records[0].Index)
	assert.True(t, domain.MustDecimal("2").Equal(records[0].Record.Assets["ETH"].Amount))

	require.NoError(t, store.Close())
}

func TestWALStoreKeepsRunsApart(t *testing.T) {
	dir := t.TempDir()

	first, err := NewWALStore(dir, "run-1")
	require.NoError(t, err)
	require.NoError(t, first.Save(snapshot(t, 1000, "BTC", "1", "100")))
	require.NoError(t, first.Close())

	second, err := NewWALStore(dir, "run-2")
	require.NoError(t, err)
	defer second.Close()
	require.NoError(t, second.Save(snapshot(t, 1000, "BTC", "3", "100")))

	records, err := second.RecordsAfter(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "run-2", records[0].Record.RunID)
	assert.Equal(t, uint64(2), records[0].Index)
}

func TestNewWALStoreRequiresRunID(t *testing.T) {
	_, err := NewWALStore(t.TempDir(), "")
	assert.Error(t, err)
}
