package transaction

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// processDeposit adds the deposited amount at the price given by the deposit policy.
func (t *Transaction) processDeposit(acc Accounting, prev WalletSnapshot, extra *domain.ExtraInfoEntry) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)

	price := decimal.Zero
	switch {
	case acc.IsUSDLike(t.BaseCurrency):
		price = domain.One
	case acc.DepositCostBasis == DepositPriceHint:
		p, err := t.extraPrice(extra)
		if err != nil {
			return WalletSnapshot{}, err
		}
		price = p
	}

	next.Wallet.Add(t.BaseCurrency, t.BaseAmount, price)
	next.Outcome.AvgPrice = price
	next.Outcome.BaseObtainPrice = next.Wallet.AvgObtainPrice(t.BaseCurrency)
	return next, nil
}

// processWithdraw treats a withdrawal as a disposal at the realization price.
func (t *Transaction) processWithdraw(acc Accounting, prev WalletSnapshot, extra *domain.ExtraInfoEntry) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)
	amount := t.BaseAmount.Neg()

	price := domain.One
	if !acc.IsUSDLike(t.BaseCurrency) {
		p, err := t.extraPrice(extra)
		if err != nil {
			return WalletSnapshot{}, err
		}
		price = p
	}

	avg := acc.ReferencePrice(prev.Wallet, t.BaseCurrency)
	next.realize(price.Sub(avg).Mul(amount))
	next.Wallet.Decrease(t.BaseCurrency, amount)

	next.Outcome.AvgPrice = price
	next.Outcome.BaseObtainPrice = avg
	return next, nil
}

// processAdditions interest and airdrops: zero-cost additions, USD-like assets at par.
func (t *Transaction) processAdditions(acc Accounting, prev WalletSnapshot) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)
	for _, c := range t.Changes {
		price := decimal.Zero
		if acc.IsUSDLike(c.Asset) {
			price = domain.One
		}
		if c.Amount.IsNegative() {
			next.Wallet.Decrease(c.Asset, c.Amount.Neg())
			continue
		}
		next.Wallet.Add(c.Asset, c.Amount, price)
	}
	return next, nil
}

// processDust converts small balances into one asset carrying their combined cost basis.
func (t *Transaction) processDust(acc Accounting, prev WalletSnapshot) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)

	cost := decimal.Zero
	for _, c := range t.Changes {
		if c.Asset == t.BaseCurrency {
			continue
		}
		if !c.Amount.IsNegative() {
			return WalletSnapshot{}, errors.Wrapf(ErrInconsistent, "dust collection received %s besides %s", c, t.BaseCurrency)
		}
		disposed := c.Amount.Neg()
		cost = cost.Add(disposed.Mul(acc.ReferencePrice(prev.Wallet, c.Asset)))
		next.Wallet.Decrease(c.Asset, disposed)
	}

	obtainPrice := domain.Div(cost, t.BaseAmount)
	next.Wallet.Add(t.BaseCurrency, t.BaseAmount, obtainPrice)
	next.Outcome.BaseObtainPrice = obtainPrice
	return next, nil
}
