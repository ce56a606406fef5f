package transaction

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// Clarify classifies the transaction from the shape of its changes and returns it
// re-wrapped as the concrete kind. The receiver is never modified.
func (t *Transaction) Clarify(acc Accounting) (*Transaction, error) {
	switch t.Kind {
	case KindUnknown:
	case KindAutoInvest:
		return t.clarifyAutoInvest(acc)
	default:
		return nil, errors.Errorf("transaction %s is already clarified", t)
	}

	is := func(op domain.Operation) func(domain.Operation) bool {
		return func(o domain.Operation) bool { return o == op }
	}

	switch {
	case t.hasOnly(func(o domain.Operation) bool { return o.IsTrade() || o.IsFee() }):
		return t.clarifyTrade(acc)
	case t.hasOnly(is(domain.OperationDeposit)):
		return t.clarifySingleAsset(KindDeposit)
	case t.hasOnly(is(domain.OperationWithdraw)):
		return t.clarifySingleAsset(KindWithdraw)
	case t.hasOnly(is(domain.OperationSavingsSubscription)):
		return t.clarifySingleAsset(KindSavingsSubscription)
	case t.hasOnly(is(domain.OperationSavingsRedemption)):
		return t.clarifySingleAsset(KindSavingsRedemption)
	case t.hasOnly(is(domain.OperationSavingsInterest)):
		return t.clarifyAdditions(KindSavingsInterest)
	case t.hasOnly(is(domain.OperationDistribution)):
		return t.clarifyAdditions(KindDistribution)
	case t.hasOnly(is(domain.OperationDustCollection)):
		return t.clarifyDust()
	}

	return nil, t.unknown()
}

func (t *Transaction) unknown() error {
	return errors.Wrapf(ErrUnknownTransaction, "%s: operations [%s]", domain.FormatUTC(t.UTCTime), t.OperationMultiSet())
}

// clarifyTrade classifies spot trades: one received leg, one spent leg, at most one fee asset.
func (t *Transaction) clarifyTrade(acc Accounting) (*Transaction, error) {
	var received, spent, fees []domain.RawAccountChange
	for _, c := range t.Changes {
		switch {
		case c.Operation.IsFee():
			fees = append(fees, c)
		case c.Amount.IsPositive():
			received = append(received, c)
		case c.Amount.IsNegative():
			spent = append(spent, c)
		}
	}

	var err error
	if received, err = mergeByAsset(received); err != nil {
		return nil, err
	}
	if spent, err = mergeByAsset(spent); err != nil {
		return nil, err
	}
	if fees, err = mergeByAsset(fees); err != nil {
		return nil, err
	}
	if len(received) != 1 || len(spent) != 1 || len(fees) > 1 {
		return nil, t.unknown()
	}

	c := t.clone()
	switch {
	case acc.IsUSDLike(received[0].Asset):
		c.Kind = KindSell
		c.BaseCurrency, c.BaseAmount = spent[0].Asset, spent[0].Amount
		c.QuoteCurrency, c.QuoteAmount = received[0].Asset, received[0].Amount
	case acc.IsUSDLike(spent[0].Asset):
		c.Kind = KindBuy
		c.BaseCurrency, c.BaseAmount = received[0].Asset, received[0].Amount
		c.QuoteCurrency, c.QuoteAmount = spent[0].Asset, spent[0].Amount
	default:
		c.Kind = KindCoinToCoin
		c.BaseCurrency, c.BaseAmount = received[0].Asset, received[0].Amount
		c.QuoteCurrency, c.QuoteAmount = spent[0].Asset, spent[0].Amount
	}
	if len(fees) == 1 {
		c.FeeCurrency, c.Fee = fees[0].Asset, fees[0].Amount
		if c.Fee.IsPositive() {
			return nil, errors.Wrapf(ErrUnknownTransaction, "%s: positive fee %s %s",
				domain.FormatUTC(t.UTCTime), domain.NiceString(c.Fee), c.FeeCurrency)
		}
	}

	return c, nil
}

// clarifySingleAsset deposits, withdrawals and savings moves of exactly one asset.
func (t *Transaction) clarifySingleAsset(kind Kind) (*Transaction, error) {
	merged, err := mergeByAsset(t.Changes)
	if err != nil {
		return nil, err
	}
	if len(merged) != 1 {
		return nil, t.unknown()
	}

	c := t.clone()
	c.Kind = kind
	c.BaseCurrency, c.BaseAmount = merged[0].Asset, merged[0].Amount
	return c, nil
}

// clarifyAdditions interest and distributions, possibly of several assets.
func (t *Transaction) clarifyAdditions(kind Kind) (*Transaction, error) {
	merged, err := mergeByAsset(t.Changes)
	if err != nil {
		return nil, err
	}

	c := t.clone()
	c.Kind = kind
	c.BaseCurrency, c.BaseAmount = merged[0].Asset, merged[0].Amount
	return c, nil
}

// clarifyDust one received asset, at least one disposed asset.
func (t *Transaction) clarifyDust() (*Transaction, error) {
	merged, err := mergeByAsset(t.Changes)
	if err != nil {
		return nil, err
	}

	var received []domain.RawAccountChange
	disposed := 0
	for _, m := range merged {
		switch {
		case m.Amount.IsPositive():
			received = append(received, m)
		case m.Amount.IsNegative():
			disposed++
		}
	}
	if len(received) != 1 || disposed == 0 {
		return nil, t.unknown()
	}

	c := t.clone()
	c.Kind = KindDustCollection
	c.BaseCurrency, c.BaseAmount = received[0].Asset, received[0].Amount
	return c, nil
}

// clarifyAutoInvest fills the legs of an auto-invest transaction built by grouping.
func (t *Transaction) clarifyAutoInvest(acc Accounting) (*Transaction, error) {
	if t.Subscription == nil {
		return nil, errors.Wrapf(ErrInconsistent, "auto-invest transaction %s without subscription",
			domain.FormatUTC(t.UTCTime))
	}
	if !t.hasOnly(func(o domain.Operation) bool { return o == domain.OperationAutoInvest }) {
		return nil, t.unknown()
	}

	c := t.clone()
	for _, ch := range t.Changes {
		switch {
		case acc.IsUSDLike(ch.Asset) && ch.Amount.IsNegative():
			if c.QuoteCurrency == "" {
				c.QuoteCurrency = ch.Asset
			}
			c.QuoteAmount = c.QuoteAmount.Add(ch.Amount)
		case ch.Amount.IsPositive():
			if c.BaseCurrency == "" {
				c.BaseCurrency = ch.Asset
			}
			if ch.Asset == c.BaseCurrency {
				c.BaseAmount = c.BaseAmount.Add(ch.Amount)
			}
		default:
			return nil, errors.Wrapf(ErrInconsistent, "auto-invest change %s is neither spend nor acquisition", ch)
		}
	}
	return c, nil
}

// mergeByAsset merges changes per asset in order of first appearance. Changes of one asset
// with different operations are summed into the first one.
func mergeByAsset(changes []domain.RawAccountChange) ([]domain.RawAccountChange, error) {
	var order []string
	groups := make(map[string]map[domain.Operation][]domain.RawAccountChange)
	var opOrder = make(map[string][]domain.Operation)
	for _, c := range changes {
		byOp, ok := groups[c.Asset]
		if !ok {
			byOp = make(map[domain.Operation][]domain.RawAccountChange)
			groups[c.Asset] = byOp
			order = append(order, c.Asset)
		}
		if _, seen := byOp[c.Operation]; !seen {
			opOrder[c.Asset] = append(opOrder[c.Asset], c.Operation)
		}
		byOp[c.Operation] = append(byOp[c.Operation], c)
	}

	merged := make([]domain.RawAccountChange, 0, len(order))
	for _, asset := range order {
		var acc domain.RawAccountChange
		for i, op := range opOrder[asset] {
			m, err := domain.MergeRawChanges(groups[asset][op])
			if err != nil {
				return nil, errors.Wrapf(err, "merge %s changes", asset)
			}
			if i == 0 {
				acc = m
				continue
			}
			acc.Amount = acc.Amount.Add(m.Amount)
		}
		merged = append(merged, acc)
	}
	return merged, nil
}
