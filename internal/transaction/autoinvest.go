package transaction

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// processAutoInvest applies either the spend of a subscription or its acquisitions.
// The first transaction of a subscription configures its proportions from extra.
func (t *Transaction) processAutoInvest(acc Accounting, prev WalletSnapshot, extra *domain.ExtraInfoEntry) (WalletSnapshot, error) {
	sub := t.Subscription
	if sub == nil {
		return WalletSnapshot{}, errors.Wrapf(ErrInconsistent, "auto-invest transaction %s without subscription",
			domain.FormatUTC(t.UTCTime))
	}

	isSpend, isAcquire := t.QuoteCurrency != "", t.BaseCurrency != ""
	if isSpend && isAcquire {
		return WalletSnapshot{}, errors.Wrapf(ErrAmbiguousAutoInvest,
			"spend and acquisition at %s", domain.FormatUTC(t.UTCTime))
	}

	if t.UTCTime == sub.UTCTime && !sub.IsConfigured() && extra != nil &&
		extra.Type == domain.ExtraInfoAutoInvestProportions {
		proportions, err := extra.Proportions()
		if err != nil {
			return WalletSnapshot{}, errors.Wrap(err, "auto-invest proportions")
		}
		if err := sub.Configure(proportions); err != nil {
			return WalletSnapshot{}, errors.Wrapf(err, "configure subscription of %s", domain.FormatUTC(sub.UTCTime))
		}
	}

	next := prev.PrepareFor(t)
	if isSpend {
		next.Wallet.Decrease(t.QuoteCurrency, t.QuoteAmount.Neg())
		return next, nil
	}

	// one share per asset, however many rows the purchase is split into
	acquired, err := mergeByAsset(t.Changes)
	if err != nil {
		return WalletSnapshot{}, errors.Wrap(err, "auto-invest acquisition")
	}
	for _, c := range acquired {
		investment, err := sub.InvestmentForAsset(c.Asset)
		if err != nil {
			return WalletSnapshot{}, errors.Wrapf(err, "auto-invest acquisition %s", c)
		}
		obtainPrice := domain.Div(investment, c.Amount)
		next.Wallet.Add(c.Asset, c.Amount, obtainPrice)
		if c.Asset == t.BaseCurrency {
			next.Outcome.AvgPrice = obtainPrice
		}
	}
	next.Outcome.BaseObtainPrice = next.Wallet.AvgObtainPrice(t.BaseCurrency)
	return next, nil
}
