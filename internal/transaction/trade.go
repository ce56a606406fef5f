package transaction

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// processBuy acquires the base asset for a USD-like quote. The fee is either paid in the
// quote, in the base asset bought for the first time, or in a third (exchange) token.
func (t *Transaction) processBuy(acc Accounting, prev WalletSnapshot) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)
	feeRef := t.feeInReference(acc, prev.Wallet)
	quotePrice := acc.ReferencePrice(prev.Wallet, t.QuoteCurrency)
	quoteSpent := t.QuoteAmount.Neg()

	var obtainPrice decimal.Decimal
	switch {
	case !t.HasFee() || t.FeeCurrency == t.QuoteCurrency:
		spent := quoteSpent.Sub(t.Fee)
		next.Wallet.Decrease(t.QuoteCurrency, spent)
		obtainPrice = domain.Div(spent.Mul(quotePrice), t.BaseAmount)
		next.Wallet.Add(t.BaseCurrency, t.BaseAmount, obtainPrice)
		next.Outcome.FeeInReference = t.Fee.Mul(quotePrice)
	case t.FeeCurrency == t.BaseCurrency && feeRef.IsZero():
		obtained := t.BaseAmount.Add(t.Fee)
		next.Wallet.Decrease(t.QuoteCurrency, quoteSpent)
		obtainPrice = domain.Div(quoteSpent, obtained).Mul(quotePrice)
		next.Wallet.Add(t.BaseCurrency, obtained, obtainPrice)
		next.Outcome.FeeInReference = t.Fee.Mul(obtainPrice)
	default:
		next.Wallet.Decrease(t.QuoteCurrency, quoteSpent)
		cost := quoteSpent.Mul(quotePrice).Sub(feeRef)
		obtainPrice = domain.Div(cost, t.BaseAmount)
		next.Wallet.Add(t.BaseCurrency, t.BaseAmount, obtainPrice)
		next.Wallet.Decrease(t.FeeCurrency, t.Fee.Neg())
		next.Outcome.FeeInReference = feeRef
	}

	next.Outcome.AvgPrice = domain.Div(quoteSpent.Mul(quotePrice), t.BaseAmount)
	next.Outcome.BaseObtainPrice = obtainPrice
	return next, nil
}

// processSell disposes of the base asset for a USD-like quote and realizes PNL against the
// average obtain price of the previous snapshot.
func (t *Transaction) processSell(acc Accounting, prev WalletSnapshot) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)
	feeRef := t.feeInReference(acc, prev.Wallet)
	sold := t.BaseAmount.Neg()
	avg := prev.Wallet.AvgObtainPrice(t.BaseCurrency)

	received := t.QuoteAmount.Add(feeRef)
	next.realize(received.Sub(sold.Mul(avg)))

	next.Wallet.Add(t.QuoteCurrency, t.QuoteAmount, domain.One)
	next.Wallet.Decrease(t.BaseCurrency, sold)
	if t.HasFee() {
		next.Wallet.Decrease(t.FeeCurrency, t.Fee.Neg())
	}

	next.Outcome.FeeInReference = feeRef
	next.Outcome.AvgPrice = domain.Div(t.QuoteAmount, sold)
	next.Outcome.BaseObtainPrice = avg
	return next, nil
}

// processCoinToCoin swaps two non USD-like assets as an implicit sell at cost followed by a
// buy, so the disposal realizes no PNL and the received asset inherits the cost basis.
func (t *Transaction) processCoinToCoin(acc Accounting, prev WalletSnapshot) (WalletSnapshot, error) {
	next := prev.PrepareFor(t)
	feeRef := t.feeInReference(acc, prev.Wallet)
	spent := t.QuoteAmount.Neg()
	proceeds := spent.Mul(acc.ReferencePrice(prev.Wallet, t.QuoteCurrency))
	next.Wallet.Decrease(t.QuoteCurrency, spent)

	cost, obtained := proceeds, t.BaseAmount
	switch {
	case !t.HasFee():
	case t.FeeCurrency == t.BaseCurrency:
		obtained = obtained.Add(t.Fee)
	default:
		cost = cost.Sub(feeRef)
		next.Wallet.Decrease(t.FeeCurrency, t.Fee.Neg())
	}

	obtainPrice := domain.Div(cost, obtained)
	next.Wallet.Add(t.BaseCurrency, obtained, obtainPrice)
	next.realize(decimal.Zero)

	next.Outcome.FeeInReference = feeRef
	next.Outcome.AvgPrice = domain.Div(proceeds, t.BaseAmount)
	next.Outcome.BaseObtainPrice = obtainPrice
	return next, nil
}
