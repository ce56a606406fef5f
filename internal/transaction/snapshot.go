package transaction

import (
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// Outcome values derived while processing the transaction of a snapshot.
type Outcome struct {
	// FeeInReference fee converted to the reference currency.
	FeeInReference decimal.Decimal
	// AvgPrice execution price of the trade in the reference currency.
	AvgPrice decimal.Decimal
	// BaseObtainPrice average obtain price of the base asset used or produced by the transaction.
	BaseObtainPrice decimal.Decimal
	// PNL realized by this transaction.
	PNL decimal.Decimal
}

// WalletSnapshot wallet state and accumulated realized PNL right after a transaction.
type WalletSnapshot struct {
	// Transaction that produced the snapshot, nil for the initial snapshot.
	Transaction *Transaction
	Wallet      domain.Wallet
	// PNL cumulative realized PNL.
	PNL     decimal.Decimal
	Outcome Outcome
}

// EmptySnapshot initial snapshot: empty wallet, zero PNL.
func EmptySnapshot() WalletSnapshot {
	return WalletSnapshot{Wallet: domain.NewWallet()}
}

// PrepareFor starts the snapshot of t from a copy of the wallet and PNL.
func (s WalletSnapshot) PrepareFor(t *Transaction) WalletSnapshot {
	return WalletSnapshot{
		Transaction: t,
		Wallet:      s.Wallet.Clone(),
		PNL:         s.PNL,
	}
}

// realize records pnl on the snapshot.
func (s *WalletSnapshot) realize(pnl decimal.Decimal) {
	s.Outcome.PNL = pnl
	s.PNL = s.PNL.Add(pnl)
}

// UTCTime timestamp of the snapshot transaction, zero for the initial snapshot.
func (s WalletSnapshot) UTCTime() int64 {
	if s.Transaction == nil {
		return 0
	}
	return s.Transaction.UTCTime
}

// Year UTC year of the snapshot transaction.
func (s WalletSnapshot) Year() int {
	return domain.UTCYear(s.UTCTime())
}

// DiffFrom wallet change since old.
func (s WalletSnapshot) DiffFrom(old WalletSnapshot) domain.WalletDiff {
	return s.Wallet.DiffFrom(old.Wallet)
}

// Equal compares wallet, PNL and transaction identity.
func (s WalletSnapshot) Equal(other WalletSnapshot) bool {
	if (s.Transaction == nil) != (other.Transaction == nil) {
		return false
	}
	if s.Transaction != nil &&
		(s.Transaction.UTCTime != other.Transaction.UTCTime || s.Transaction.Kind != other.Transaction.Kind) {
		return false
	}
	return s.Wallet.Equal(other.Wallet) && s.PNL.Equal(other.PNL)
}
