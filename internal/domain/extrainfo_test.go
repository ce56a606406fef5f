package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtraInfo_Lookup(t *testing.T) {
	x := NewExtraInfo()
	assert.True(t, x.IsEmpty())

	x.Add(ExtraInfoEntry{UTCTime: 2000, Type: ExtraInfoExchangeRate, Asset: "NOK", Value: "10.5"})
	x.Add(ExtraInfoEntry{UTCTime: 1000, Type: ExtraInfoAssetPrice, Asset: "BTC", Value: "16500.1"})
	x.Add(ExtraInfoEntry{UTCTime: 2000, Type: ExtraInfoAssetPrice, Asset: "ETH", Value: "1200"})

	rate, ok := x.Find(2000, ExtraInfoExchangeRate, "")
	require.True(t, ok)
	assert.Equal(t, "NOK", rate.Asset)

	price, ok, err := x.AssetPrice(2000, "ETH")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, MustDecimal("1200").Equal(price))

	_, ok, err = x.AssetPrice(2000, "BTC")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok = x.Find(1000, ExtraInfoExchangeRate, "")
	assert.False(t, ok)
	assert.True(t, x.Contains(ExtraInfoEntry{UTCTime: 1000, Type: ExtraInfoAssetPrice, Asset: "BTC"}))
	assert.False(t, x.Contains(ExtraInfoEntry{UTCTime: 1000, Type: ExtraInfoAssetPrice, Asset: "LTC"}))

	entries := x.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, int64(1000), entries[0].UTCTime)
}

func TestExtraInfoEntry_Proportions(t *testing.T) {
	e := NewAutoInvestProportionsEntry(1000, []AssetProportion{
		{Asset: "BTC", Proportion: MustDecimal("0.5")},
		{Asset: "ETH", Proportion: MustDecimal("0.50")},
	})
	assert.Equal(t, "BTC|ETH", e.Asset)
	assert.Equal(t, "0.5|0.5", e.Value)

	proportions, err := e.Proportions()
	require.NoError(t, err)
	require.Len(t, proportions, 2)
	assert.Equal(t, "ETH", proportions[1].Asset)

	_, err = ExtraInfoEntry{Type: ExtraInfoAutoInvestProportions, Asset: "BTC|ETH", Value: "1"}.Proportions()
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = ExtraInfoEntry{Type: ExtraInfoAssetPrice, Value: "abc"}.Decimal()
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestTimeConversions(t *testing.T) {
	ts, err := ParseUTC("2022-12-20 20:48:22")
	require.NoError(t, err)
	assert.Equal(t, "2022-12-20 20:48:22", FormatUTC(ts))
	assert.Equal(t, "2022-12-20", FormatUTCDate(ts))
	assert.Equal(t, 2022, UTCYear(ts))
	assert.Equal(t, "2022-12-31 23:59:59", FormatUTC(YearEndTimestamp(2022)))
	assert.Equal(t, "2022-12-20 00:00:00", FormatUTC(DayStart(ts)))

	_, err = ParseUTC("20.12.2022")
	assert.ErrorIs(t, err, ErrMalformedInput)
}
