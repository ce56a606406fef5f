// Package transaction groups raw account changes into typed transactions and applies the
// average-cost accounting rules of every transaction kind to wallet snapshots.
package transaction

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// DepositCostBasis how the obtain price of deposited assets is established.
type DepositCostBasis string

const (
	// DepositZeroCost deposited assets are added with zero obtain price.
	DepositZeroCost DepositCostBasis = "zero"
	// DepositPriceHint deposited assets are added at the ASSET_PRICE given in extra info.
	DepositPriceHint DepositCostBasis = "price_hint"
)

// IsValid checks if the DepositCostBasis value is valid.
func (d DepositCostBasis) IsValid() bool {
	return d == DepositZeroCost || d == DepositPriceHint
}

// DefaultReference default reference currency.
const DefaultReference = "USDT"

// DefaultUSDLike default set of USD-stable assets.
var DefaultUSDLike = []string{"USDT", "BUSD", "USDC", "FDUSD", "TUSD"}

// Accounting parameters shared by classification and processing.
type Accounting struct {
	// Reference currency PNL is realized in.
	Reference        string
	DepositCostBasis DepositCostBasis
	usdLike          map[string]struct{}
}

// NewAccounting creates accounting parameters. The reference currency is always USD-like.
func NewAccounting(reference string, usdLike []string, depositCostBasis DepositCostBasis) (Accounting, error) {
	reference = strings.ToUpper(strings.TrimSpace(reference))
	if reference == "" {
		return Accounting{}, errors.Wrap(domain.ErrInvalidArgument, "reference currency is required")
	}
	if !depositCostBasis.IsValid() {
		return Accounting{}, errors.Wrapf(domain.ErrInvalidArgument, "unknown deposit cost basis %q", depositCostBasis)
	}

	set := map[string]struct{}{reference: {}}
	for _, asset := range usdLike {
		set[strings.ToUpper(strings.TrimSpace(asset))] = struct{}{}
	}

	return Accounting{Reference: reference, DepositCostBasis: depositCostBasis, usdLike: set}, nil
}

// DefaultAccounting USDT reference, default USD-like set, zero-cost deposits.
func DefaultAccounting() Accounting {
	acc, _ := NewAccounting(DefaultReference, DefaultUSDLike, DepositZeroCost)
	return acc
}

// IsUSDLike reports whether asset is a USD-stable asset.
func (a Accounting) IsUSDLike(asset string) bool {
	_, ok := a.usdLike[asset]
	return ok
}

// ReferencePrice value of one unit of asset in the reference currency according to the
// wallet: the reference itself is worth 1, other USD-like assets without cost basis too.
func (a Accounting) ReferencePrice(w domain.Wallet, asset string) decimal.Decimal {
	if asset == a.Reference {
		return domain.One
	}
	avg := w.AvgObtainPrice(asset)
	if avg.IsZero() && a.IsUSDLike(asset) {
		return domain.One
	}
	return avg
}
