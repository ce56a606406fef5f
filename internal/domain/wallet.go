package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AssetBalance amount of one asset held in the wallet and its cost basis per unit.
type AssetBalance struct {
	Amount         decimal.Decimal `json:"amount"`
	AvgObtainPrice decimal.Decimal `json:"avg_obtain_price"`
}

// Wallet maps asset symbols to held amounts and average obtain prices.
// The zero value is an empty wallet ready to use.
type Wallet struct {
	assets map[string]AssetBalance
}

// NewWallet creates an empty wallet.
func NewWallet() Wallet {
	return Wallet{assets: make(map[string]AssetBalance)}
}

// Clone returns a deep copy; the copy never shares state with w.
func (w Wallet) Clone() Wallet {
	c := NewWallet()
	for asset, b := range w.assets {
		c.assets[asset] = b
	}
	return c
}

// Add adds amount of asset obtained at price per unit and re-computes the weighted
// average obtain price. When the wallet held nothing (or a negative balance) the new
// average is price itself.
func (w *Wallet) Add(asset string, amount, price decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	if w.assets == nil {
		w.assets = make(map[string]AssetBalance)
	}

	current := w.assets[asset]
	newAmount := current.Amount.Add(amount)
	if newAmount.IsZero() {
		delete(w.assets, asset)
		return
	}

	avg := price
	if current.Amount.IsPositive() && newAmount.IsPositive() {
		total := current.Amount.Mul(current.AvgObtainPrice).Add(amount.Mul(price))
		avg = Div(total, newAmount)
	}

	w.assets[asset] = AssetBalance{Amount: newAmount, AvgObtainPrice: avg}
}

// Decrease removes amount of asset. The average obtain price stays untouched.
func (w *Wallet) Decrease(asset string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	if w.assets == nil {
		w.assets = make(map[string]AssetBalance)
	}

	current := w.assets[asset]
	current.Amount = current.Amount.Sub(amount)
	if current.Amount.IsZero() {
		delete(w.assets, asset)
		return
	}
	w.assets[asset] = current
}

// Amount returns the held amount of asset, zero when absent.
func (w Wallet) Amount(asset string) decimal.Decimal {
	return w.assets[asset].Amount
}

// AvgObtainPrice returns the average obtain price of asset, zero when absent.
func (w Wallet) AvgObtainPrice(asset string) decimal.Decimal {
	return w.assets[asset].AvgObtainPrice
}

// Balance returns the balance of asset and whether it is held.
func (w Wallet) Balance(asset string) (AssetBalance, bool) {
	b, ok := w.assets[asset]
	return b, ok
}

// Assets returns the held assets in alphabetical order.
func (w Wallet) Assets() []string {
	assets := make([]string, 0, len(w.assets))
	for asset := range w.assets {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	return assets
}

// Len number of assets held.
func (w Wallet) Len() int {
	return len(w.assets)
}

// Equal compares wallets by value.
func (w Wallet) Equal(other Wallet) bool {
	if len(w.assets) != len(other.assets) {
		return false
	}
	for asset, b := range w.assets {
		o, ok := other.assets[asset]
		if !ok || !b.Amount.Equal(o.Amount) || !b.AvgObtainPrice.Equal(o.AvgObtainPrice) {
			return false
		}
	}
	return true
}

// DiffFrom returns the amount change of every asset between old and w.
func (w Wallet) DiffFrom(old Wallet) WalletDiff {
	diff := NewWalletDiff()
	for asset, b := range w.assets {
		diff.Add(asset, b.Amount.Sub(old.Amount(asset)))
	}
	for asset, b := range old.assets {
		if _, ok := w.assets[asset]; !ok {
			diff.Add(asset, b.Amount.Neg())
		}
	}
	return diff
}

// String returns the wallet content, sorted by asset.
func (w Wallet) String() string {
	parts := make([]string, 0, len(w.assets))
	for _, asset := range w.Assets() {
		b := w.assets[asset]
		parts = append(parts, fmt.Sprintf("%s %s @ %s", NiceString(b.Amount), asset, NiceString(b.AvgObtainPrice)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// WalletDiff amount change per asset. Zero changes are not stored.
type WalletDiff struct {
	changes map[string]decimal.Decimal
}

// NewWalletDiff creates an empty diff.
func NewWalletDiff() WalletDiff {
	return WalletDiff{changes: make(map[string]decimal.Decimal)}
}

// Add accumulates amount for asset.
func (d *WalletDiff) Add(asset string, amount decimal.Decimal) {
	if d.changes == nil {
		d.changes = make(map[string]decimal.Decimal)
	}
	sum := d.changes[asset].Add(amount)
	if sum.IsZero() {
		delete(d.changes, asset)
		return
	}
	d.changes[asset] = sum
}

// Get returns the change of asset.
func (d WalletDiff) Get(asset string) decimal.Decimal {
	return d.changes[asset]
}

// Equal compares diffs by value.
func (d WalletDiff) Equal(other WalletDiff) bool {
	if len(d.changes) != len(other.changes) {
		return false
	}
	for asset, amount := range d.changes {
		if !amount.Equal(other.changes[asset]) {
			return false
		}
	}
	return true
}

// String returns the diff sorted by asset.
func (d WalletDiff) String() string {
	assets := make([]string, 0, len(d.changes))
	for asset := range d.changes {
		assets = append(assets, asset)
	}
	sort.Strings(assets)
	parts := make([]string, 0, len(assets))
	for _, asset := range assets {
		parts = append(parts, fmt.Sprintf("%s %s", NiceString(d.changes[asset]), asset))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
