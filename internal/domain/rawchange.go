package domain

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// lendingPrefix marks assets locked in flexible savings (LDBTC, LDUSDT).
const lendingPrefix = "LD"

// RawAccountChange one atomic ledger entry of the exchange statement.
type RawAccountChange struct {
	// UTCTime unix timestamp in milliseconds.
	UTCTime   int64
	Account   AccountType
	Operation Operation
	Asset     string
	// Amount signed change of the asset balance.
	Amount decimal.Decimal
	Remark string
}

// NewRawAccountChange creates a new account-change record.
func NewRawAccountChange(utcTime int64, account AccountType, op Operation, asset string,
	amount decimal.Decimal, remark string) RawAccountChange {
	return RawAccountChange{
		UTCTime:   utcTime,
		Account:   account,
		Operation: op,
		Asset:     asset,
		Amount:    amount,
		Remark:    remark,
	}
}

// String returns a human-readable representation.
func (c RawAccountChange) String() string {
	return fmt.Sprintf("RawAccountChange{utcTime=%s, account=%s, operation=%s, asset=%s, amount=%s, remark=%q}",
		FormatUTC(c.UTCTime), c.Account, c.Operation, c.Asset, NiceString(c.Amount), c.Remark)
}

// Equal compares two changes by value.
func (c RawAccountChange) Equal(other RawAccountChange) bool {
	return c.UTCTime == other.UTCTime &&
		c.Account == other.Account &&
		c.Operation == other.Operation &&
		c.Asset == other.Asset &&
		c.Amount.Equal(other.Amount) &&
		c.Remark == other.Remark
}

// WithNormalizedAsset returns a copy where the lending prefix is stripped from the asset
// (LDBTC -> BTC). Other changes are returned unchanged.
func (c RawAccountChange) WithNormalizedAsset() RawAccountChange {
	if len(c.Asset) >= 3 && strings.HasPrefix(c.Asset, lendingPrefix) {
		c.Asset = c.Asset[len(lendingPrefix):]
	}
	return c
}

// MergeRawChanges sums the amounts of changes sharing timestamp, operation and asset.
// The remark of the first change is kept.
func MergeRawChanges(changes []RawAccountChange) (RawAccountChange, error) {
	if len(changes) == 0 {
		return RawAccountChange{}, errors.Wrap(ErrInvalidArgument, "can't merge an empty list of changes")
	}

	merged := changes[0]
	for _, c := range changes[1:] {
		if c.UTCTime != merged.UTCTime {
			return RawAccountChange{}, errors.Wrapf(ErrInvalidArgument,
				"can't merge changes with different timestamps: %s and %s", merged, c)
		}
		if c.Operation != merged.Operation {
			return RawAccountChange{}, errors.Wrapf(ErrInvalidArgument,
				"can't merge changes with different operations: %s and %s", merged, c)
		}
		if c.Asset != merged.Asset {
			return RawAccountChange{}, errors.Wrapf(ErrInvalidArgument,
				"can't merge changes with different assets: %s and %s", merged, c)
		}
		merged.Amount = merged.Amount.Add(c.Amount)
	}

	return merged, nil
}
