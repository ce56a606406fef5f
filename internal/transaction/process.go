package transaction

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// Process applies the transaction to prev and returns the next snapshot. extra is the
// entry requested by NecessaryExtraInfo, nil when none was needed or found.
func (t *Transaction) Process(acc Accounting, prev WalletSnapshot, extra *domain.ExtraInfoEntry) (WalletSnapshot, error) {
	switch t.Kind {
	case KindBuy:
		return t.processBuy(acc, prev)
	case KindSell:
		return t.processSell(acc, prev)
	case KindCoinToCoin:
		return t.processCoinToCoin(acc, prev)
	case KindDeposit:
		return t.processDeposit(acc, prev, extra)
	case KindWithdraw:
		return t.processWithdraw(acc, prev, extra)
	case KindAutoInvest:
		return t.processAutoInvest(acc, prev, extra)
	case KindSavingsSubscription, KindSavingsRedemption:
		return prev.PrepareFor(t), nil
	case KindSavingsInterest, KindDistribution:
		return t.processAdditions(acc, prev)
	case KindDustCollection:
		return t.processDust(acc, prev)
	default:
		return WalletSnapshot{}, errors.Wrapf(ErrUnknownTransaction, "can't process unclassified transaction %s", t)
	}
}

// NecessaryExtraInfo the extra info entry the transaction needs to be processed, with a
// placeholder value describing what to fill in.
func (t *Transaction) NecessaryExtraInfo(acc Accounting) (domain.ExtraInfoEntry, bool) {
	switch t.Kind {
	case KindWithdraw:
		if acc.IsUSDLike(t.BaseCurrency) {
			return domain.ExtraInfoEntry{}, false
		}
		return t.priceHint(acc), true
	case KindDeposit:
		if acc.DepositCostBasis != DepositPriceHint || acc.IsUSDLike(t.BaseCurrency) {
			return domain.ExtraInfoEntry{}, false
		}
		return t.priceHint(acc), true
	case KindAutoInvest:
		if t.Subscription == nil || t.Subscription.UTCTime != t.UTCTime {
			return domain.ExtraInfoEntry{}, false
		}
		assets := t.Subscription.AcquiredAssets()
		hints := make([]string, len(assets))
		for i, a := range assets {
			hints[i] = "<" + a + " share>"
		}
		return domain.ExtraInfoEntry{
			UTCTime: t.UTCTime,
			Type:    domain.ExtraInfoAutoInvestProportions,
			Asset:   strings.Join(assets, "|"),
			Value:   strings.Join(hints, "|"),
		}, true
	}
	return domain.ExtraInfoEntry{}, false
}

func (t *Transaction) priceHint(acc Accounting) domain.ExtraInfoEntry {
	return domain.ExtraInfoEntry{
		UTCTime: t.UTCTime,
		Type:    domain.ExtraInfoAssetPrice,
		Asset:   t.BaseCurrency,
		Value:   "<" + t.BaseCurrency + " price in " + acc.Reference + ">",
	}
}

// feeInReference fee value in the reference currency, valued on the wallet before the trade.
func (t *Transaction) feeInReference(acc Accounting, w domain.Wallet) decimal.Decimal {
	if !t.HasFee() {
		return decimal.Zero
	}
	return t.Fee.Mul(acc.ReferencePrice(w, t.FeeCurrency))
}

// extraPrice reads the ASSET_PRICE of the base asset from extra.
func (t *Transaction) extraPrice(extra *domain.ExtraInfoEntry) (decimal.Decimal, error) {
	if extra == nil || extra.Type != domain.ExtraInfoAssetPrice || extra.Asset != t.BaseCurrency {
		return decimal.Zero, errors.Wrapf(ErrMissingPrice, "%s %s at %s",
			t.Kind, t.BaseCurrency, domain.FormatUTC(t.UTCTime))
	}
	price, err := extra.Decimal()
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "price of %s", t.BaseCurrency)
	}
	return price, nil
}
