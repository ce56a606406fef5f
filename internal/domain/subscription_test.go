package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscription(t *testing.T, proportions ...string) *AutoInvestSubscription {
	t.Helper()
	s, err := NewAutoInvestSubscription(1000, MustDecimal("5"))
	require.NoError(t, err)
	for i := 0; i+1 < len(proportions); i += 2 {
		require.NoError(t, s.AddAssetProportion(proportions[i], MustDecimal(proportions[i+1])))
	}
	return s
}

func TestAutoInvestSubscription_InvalidAmount(t *testing.T) {
	for _, amount := range []decimal.Decimal{decimal.Zero, MustDecimal("-2")} {
		_, err := NewAutoInvestSubscription(1000, amount)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestAutoInvestSubscription_Validity(t *testing.T) {
	tests := []struct {
		name        string
		proportions []string
		valid       bool
	}{
		{name: "no proportions", valid: false},
		{name: "sum less than one", proportions: []string{"BTC", "0.2", "LTC", "0.2", "ETH", "0.2"}, valid: false},
		{name: "almost one", proportions: []string{"BTC", "0.99999999"}, valid: false},
		{name: "sum greater than one", proportions: []string{"BTC", "0.4", "LTC", "0.4", "ETH", "0.4"}, valid: false},
		{name: "slightly above one", proportions: []string{"BTC", "1.00000001"}, valid: false},
		{name: "single coin", proportions: []string{"BTC", "1"}, valid: true},
		{name: "multiple coins", proportions: []string{"BTC", "0.5", "LTC", "0.3", "ETH", "0.2"}, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, newSubscription(t, tt.proportions...).IsValid())
		})
	}
}

func TestAutoInvestSubscription_DuplicateProportion(t *testing.T) {
	s := newSubscription(t, "BTC", "1")
	err := s.AddAssetProportion("BTC", One)
	assert.ErrorIs(t, err, ErrInvalidSubscription)
}

func TestAutoInvestSubscription_InvestmentForAsset(t *testing.T) {
	s := newSubscription(t, "BTC", "0.5", "LTC", "0.3", "ETH", "0.2")

	expected := map[string]string{"BTC": "2.5", "LTC": "1.5", "ETH": "1"}
	for asset, amount := range expected {
		investment, err := s.InvestmentForAsset(asset)
		require.NoError(t, err)
		assert.True(t, MustDecimal(amount).Equal(investment), "%s: expected %s, got %s", asset, amount, investment)
	}
}

func TestAutoInvestSubscription_InvalidInvestmentForAsset(t *testing.T) {
	s := newSubscription(t)
	_, err := s.InvestmentForAsset("BTC")
	assert.ErrorIs(t, err, ErrInvalidSubscription, "proportions not registered")

	require.NoError(t, s.AddAssetProportion("BTC", MustDecimal("0.5")))
	require.NoError(t, s.AddAssetProportion("LTC", MustDecimal("0.3")))
	_, err = s.InvestmentForAsset("BTC")
	assert.ErrorIs(t, err, ErrInvalidSubscription, "proportion sum < 1")

	require.NoError(t, s.AddAssetProportion("ETH", MustDecimal("0.2")))
	_, err = s.InvestmentForAsset("BNB")
	assert.ErrorIs(t, err, ErrInvalidSubscription, "unknown coin")
}

func TestAutoInvestSubscription_AcquiredAssets(t *testing.T) {
	s := newSubscription(t)
	s.RegisterAcquiredAsset("ETH")
	s.RegisterAcquiredAsset("BNB")
	s.RegisterAcquiredAsset("ETH")
	assert.Equal(t, []string{"BNB", "ETH"}, s.AcquiredAssets())
}
