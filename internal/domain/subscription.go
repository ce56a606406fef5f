package domain

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// AutoInvestSubscription auto-invest plan in force from UTCTime: a fixed investment amount
// split among assets by proportions which must sum up to exactly one.
type AutoInvestSubscription struct {
	UTCTime          int64
	InvestmentAmount decimal.Decimal
	proportions      map[string]decimal.Decimal
	acquired         map[string]struct{}
}

// NewAutoInvestSubscription creates a subscription without proportions.
func NewAutoInvestSubscription(utcTime int64, investmentAmount decimal.Decimal) (*AutoInvestSubscription, error) {
	if !investmentAmount.IsPositive() {
		return nil, errors.Wrapf(ErrInvalidArgument, "auto-invest amount must be positive, got %s",
			NiceString(investmentAmount))
	}
	return &AutoInvestSubscription{
		UTCTime:          utcTime,
		InvestmentAmount: investmentAmount,
		proportions:      make(map[string]decimal.Decimal),
		acquired:         make(map[string]struct{}),
	}, nil
}

// AddAssetProportion registers the share of the investment spent on asset.
// Registering the same asset twice is an error.
func (s *AutoInvestSubscription) AddAssetProportion(asset string, proportion decimal.Decimal) error {
	if _, ok := s.proportions[asset]; ok {
		return errors.Wrapf(ErrInvalidSubscription, "proportion for %s already registered", asset)
	}
	if !proportion.IsPositive() {
		return errors.Wrapf(ErrInvalidSubscription, "proportion for %s must be positive, got %s",
			asset, NiceString(proportion))
	}
	s.proportions[asset] = proportion
	return nil
}

// Configure registers all the proportions of the plan.
func (s *AutoInvestSubscription) Configure(proportions []AssetProportion) error {
	for _, p := range proportions {
		if err := s.AddAssetProportion(p.Asset, p.Proportion); err != nil {
			return err
		}
	}
	return nil
}

// IsConfigured reports whether any proportion has been registered.
func (s *AutoInvestSubscription) IsConfigured() bool {
	return len(s.proportions) > 0
}

// IsValid reports whether proportions are registered and sum up to exactly one.
func (s *AutoInvestSubscription) IsValid() bool {
	if len(s.proportions) == 0 {
		return false
	}
	sum := decimal.Zero
	for _, p := range s.proportions {
		sum = sum.Add(p)
	}
	return sum.Equal(One)
}

// InvestmentForAsset returns the part of the investment amount spent on asset.
func (s *AutoInvestSubscription) InvestmentForAsset(asset string) (decimal.Decimal, error) {
	if !s.IsValid() {
		return decimal.Zero, errors.Wrapf(ErrInvalidSubscription,
			"subscription from %s has invalid proportions", FormatUTC(s.UTCTime))
	}
	p, ok := s.proportions[asset]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrInvalidSubscription,
			"subscription from %s has no proportion for %s", FormatUTC(s.UTCTime), asset)
	}
	return s.InvestmentAmount.Mul(p), nil
}

// RegisterAcquiredAsset remembers that asset was bought within this subscription.
func (s *AutoInvestSubscription) RegisterAcquiredAsset(asset string) {
	s.acquired[asset] = struct{}{}
}

// AcquiredAssets returns the assets bought within this subscription, sorted.
func (s *AutoInvestSubscription) AcquiredAssets() []string {
	assets := make([]string, 0, len(s.acquired))
	for asset := range s.acquired {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}
