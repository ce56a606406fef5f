// Package report drives the accounting engine: it groups raw changes into transactions,
// classifies them, resolves the extra info they need and folds them into wallet snapshots.
package report

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/pnlreport/internal/domain"
	"github.com/vadiminshakov/pnlreport/internal/transaction"
)

// Pricer looks up historical asset prices in the reference currency.
type Pricer interface {
	// DailyClosePrice returns the close price of the day utcTime falls into; ok is false
	// when the exchange knows no price.
	DailyClosePrice(ctx context.Context, asset string, utcTime int64) (price decimal.Decimal, ok bool, err error)
}

// Journal persists every produced snapshot.
type Journal interface {
	Save(s transaction.WalletSnapshot) error
}

// Option configures the Report.
type Option func(*Report)

// WithPricer sets the price collaborator used when extra info lacks a price.
func WithPricer(p Pricer) Option {
	return func(r *Report) {
		r.pricer = p
	}
}

// WithJournal sets the snapshot journal.
func WithJournal(j Journal) Option {
	return func(r *Report) {
		r.journal = j
	}
}

// Report accounting run over one statement.
type Report struct {
	l       *zap.Logger
	acc     transaction.Accounting
	extra   *domain.ExtraInfo
	pricer  Pricer
	journal Journal

	transactions []*transaction.Transaction
	snapshots    []transaction.WalletSnapshot
}

// New creates a report. extra is read and appended to with discovered prices.
func New(l *zap.Logger, acc transaction.Accounting, extra *domain.ExtraInfo, opts ...Option) *Report {
	if extra == nil {
		extra = domain.NewExtraInfo()
	}
	r := &Report{l: l, acc: acc, extra: extra}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtraInfo the extra info table, including prices discovered during the run.
func (r *Report) ExtraInfo() *domain.ExtraInfo {
	return r.extra
}

// Transactions classified transactions of the last run.
func (r *Report) Transactions() []*transaction.Transaction {
	return r.transactions
}

// Snapshots snapshot history of the last run, starting with the empty snapshot.
func (r *Report) Snapshots() []transaction.WalletSnapshot {
	return r.snapshots
}

// Run processes the time-ordered changes of a statement.
func (r *Report) Run(ctx context.Context, changes []domain.RawAccountChange) error {
	grouped, err := GroupTransactions(r.acc, NormalizeLendingAssets(changes))
	if err != nil {
		return errors.Wrap(err, "group transactions")
	}
	transactions, err := ClarifyTransactionTypes(r.acc, grouped)
	if err != nil {
		return errors.Wrap(err, "clarify transactions")
	}
	r.l.Info("transactions grouped",
		zap.Int("changes", len(changes)), zap.Int("transactions", len(transactions)))

	if err := r.resolveExtraInfo(ctx, transactions); err != nil {
		return err
	}

	snapshots, err := r.process(transactions)
	if err != nil {
		return err
	}
	r.transactions, r.snapshots = transactions, snapshots
	return nil
}

// ClarifyTransactionTypes classifies every grouped transaction.
func ClarifyTransactionTypes(acc transaction.Accounting, grouped []*transaction.Transaction) ([]*transaction.Transaction, error) {
	clarified := make([]*transaction.Transaction, 0, len(grouped))
	for _, t := range grouped {
		c, err := t.Clarify(acc)
		if err != nil {
			return nil, err
		}
		clarified = append(clarified, c)
	}
	return clarified, nil
}

// resolveExtraInfo makes sure every transaction finds the extra info it needs. Missing
// prices are asked from the pricer and appended to the table.
func (r *Report) resolveExtraInfo(ctx context.Context, transactions []*transaction.Transaction) error {
	var missing []domain.ExtraInfoEntry
	for _, t := range transactions {
		need, ok := t.NecessaryExtraInfo(r.acc)
		if !ok || r.extra.Contains(need) {
			continue
		}

		if need.Type == domain.ExtraInfoAssetPrice {
			found, err := r.lookupPrice(ctx, need.Asset, need.UTCTime)
			if err != nil {
				return err
			}
			if found {
				continue
			}
		}
		missing = append(missing, need)
	}

	if len(missing) > 0 {
		return &MissingExtraInfoError{Entries: missing}
	}
	return nil
}

// lookupPrice asks the pricer for the price of asset and stores it as ASSET_PRICE at utcTime.
func (r *Report) lookupPrice(ctx context.Context, asset string, utcTime int64) (bool, error) {
	if r.pricer == nil {
		return false, nil
	}
	price, ok, err := r.pricer.DailyClosePrice(ctx, asset, utcTime)
	if err != nil {
		return false, errors.Wrapf(err, "price of %s at %s", asset, domain.FormatUTC(utcTime))
	}
	if !ok {
		r.l.Warn("no price found", zap.String("asset", asset), zap.String("time", domain.FormatUTC(utcTime)))
		return false, nil
	}

	r.extra.Add(domain.ExtraInfoEntry{
		UTCTime: utcTime,
		Type:    domain.ExtraInfoAssetPrice,
		Asset:   asset,
		Value:   price.String(),
	})
	r.l.Debug("price discovered", zap.String("asset", asset),
		zap.String("time", domain.FormatUTC(utcTime)), zap.String("price", price.String()))
	return true, nil
}

// process folds the transactions into snapshots, strictly in order.
func (r *Report) process(transactions []*transaction.Transaction) ([]transaction.WalletSnapshot, error) {
	snapshots := make([]transaction.WalletSnapshot, 0, len(transactions)+1)
	prev := transaction.EmptySnapshot()
	snapshots = append(snapshots, prev)

	for _, t := range transactions {
		var extra *domain.ExtraInfoEntry
		if need, ok := t.NecessaryExtraInfo(r.acc); ok {
			if e, found := r.extra.Find(need.UTCTime, need.Type, need.LookupAsset()); found {
				extra = &e
			}
		}

		next, err := t.Process(r.acc, prev, extra)
		if err != nil {
			return nil, errors.Wrapf(err, "process %s", t)
		}
		r.checkDiff(t, prev, next)

		if r.journal != nil {
			if err := r.journal.Save(next); err != nil {
				return nil, errors.Wrap(err, "journal snapshot")
			}
		}
		snapshots = append(snapshots, next)
		prev = next
	}

	return snapshots, nil
}

// checkDiff compares the wallet change with the sum of the raw changes.
func (r *Report) checkDiff(t *transaction.Transaction, prev, next transaction.WalletSnapshot) {
	switch t.Kind {
	case transaction.KindSavingsSubscription, transaction.KindSavingsRedemption:
		return
	}

	expected := t.OperationDiff()
	actual := next.DiffFrom(prev)
	if expected.Equal(actual) {
		return
	}

	fields := []zap.Field{
		zap.String("transaction", t.String()),
		zap.String("expected", expected.String()),
		zap.String("actual", actual.String()),
	}
	if t.Kind == transaction.KindAutoInvest {
		r.l.Debug("wallet diff mismatch", fields...)
		return
	}
	r.l.Warn("wallet diff mismatch", fields...)
}
