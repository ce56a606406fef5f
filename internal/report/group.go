package report

import (
	"github.com/pkg/errors"
	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

// NormalizeLendingAssets returns the changes with flexible-savings asset names (LDBTC)
// replaced by the underlying asset (BTC).
func NormalizeLendingAssets(changes []domain.RawAccountChange) []domain.RawAccountChange {
	normalized := make([]domain.RawAccountChange, len(changes))
	for i, c := range changes {
		normalized[i] = c.WithNormalizedAsset()
	}
	return normalized
}

// autoInvestState accumulator of the grouping fold: the active subscription, the
// auto-invest transactions of the current group and those of the previous group.
type autoInvestState struct {
	acc          transaction.Accounting
	subscription *domain.AutoInvestSubscription
	current      []*transaction.Transaction
	previous     []*transaction.Transaction
}

// GroupTransactions groups time-ordered changes into unclassified transactions: changes
// sharing a timestamp form one transaction. Auto-invest changes are wrapped into
// auto-invest transactions bound to the subscription they belong to, even though the
// spend and the acquisitions happen at different timestamps.
func GroupTransactions(acc transaction.Accounting, changes []domain.RawAccountChange) ([]*transaction.Transaction, error) {
	var (
		transactions []*transaction.Transaction
		tx           *transaction.Transaction
		state        = autoInvestState{acc: acc}
	)

	for i, c := range changes {
		if i > 0 && c.UTCTime < changes[i-1].UTCTime {
			return nil, errors.Wrapf(domain.ErrMalformedInput, "changes are not ordered by time: %s after %s", c, changes[i-1])
		}
		if tx == nil || c.UTCTime != tx.UTCTime {
			tx = transaction.New(c.UTCTime)
			transactions = append(transactions, tx)
		}

		if c.Operation == domain.OperationAutoInvest {
			wrapped, err := state.update(c, tx)
			if err != nil {
				return nil, err
			}
			if wrapped != tx {
				transactions[len(transactions)-1] = wrapped
				tx = wrapped
			}
		}
		tx.Append(c)
	}

	return transactions, nil
}

func (s *autoInvestState) isSpend(c domain.RawAccountChange) bool {
	return s.acc.IsUSDLike(c.Asset) && c.Amount.IsNegative()
}

func (s *autoInvestState) isAcquisition(c domain.RawAccountChange) bool {
	return !s.acc.IsUSDLike(c.Asset) && c.Amount.IsPositive()
}

// update folds one auto-invest change into the state and returns tx wrapped as an
// auto-invest transaction.
func (s *autoInvestState) update(c domain.RawAccountChange, tx *transaction.Transaction) (*transaction.Transaction, error) {
	switch {
	case s.isSpend(c):
		if s.subscriptionChanged() {
			anchor := tx.UTCTime
			if len(s.current) > 0 {
				anchor = s.current[0].UTCTime
			}
			sub, err := domain.NewAutoInvestSubscription(anchor, c.Amount.Neg())
			if err != nil {
				return nil, errors.Wrapf(err, "auto-invest subscription at %s", domain.FormatUTC(anchor))
			}
			s.subscription = sub
			for _, cached := range s.current {
				cached.Subscription = sub
				for _, cc := range cached.Changes {
					if s.isAcquisition(cc) {
						sub.RegisterAcquiredAsset(cc.Asset)
					}
				}
			}
		}
		s.previous, s.current = s.current, nil
	case s.isAcquisition(c):
		if s.subscription == nil {
			return nil, errors.Wrapf(transaction.ErrInconsistent, "auto-invest acquisition %s before any spend", c)
		}
	default:
		return nil, errors.Wrapf(transaction.ErrInconsistent, "auto-invest change %s is neither spend nor acquisition", c)
	}

	if tx.Kind != transaction.KindAutoInvest {
		tx = tx.WrapAutoInvest(s.subscription)
		s.current = append(s.current, tx)
	}
	if s.isAcquisition(c) {
		s.subscription.RegisterAcquiredAsset(c.Asset)
	}

	return tx, nil
}

// subscriptionChanged reports whether the spend starts a new subscription: the first one,
// or the coins of the last completed group differ from the group before it.
func (s *autoInvestState) subscriptionChanged() bool {
	if s.subscription == nil {
		return true
	}
	if len(s.previous) == 0 {
		return false
	}
	return !sameSet(s.coins(s.previous), s.coins(s.current))
}

func (s *autoInvestState) coins(transactions []*transaction.Transaction) map[string]struct{} {
	coins := make(map[string]struct{}, len(transactions))
	for _, t := range transactions {
		coins[t.ChangeAsset(s.acc)] = struct{}{}
	}
	return coins
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
