package transaction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/pnlreport/internal/domain"
)

// Kind variant of a transaction.
type Kind int

const (
	// KindUnknown provisional kind of a grouped but not yet classified transaction.
	KindUnknown Kind = iota
	KindBuy
	KindSell
	KindCoinToCoin
	KindDeposit
	KindWithdraw
	KindAutoInvest
	KindSavingsSubscription
	KindSavingsRedemption
	KindSavingsInterest
	KindDistribution
	KindDustCollection
)

var kindNames = map[Kind]string{
	KindUnknown:             "Unknown",
	KindBuy:                 "Buy",
	KindSell:                "Sell",
	KindCoinToCoin:          "Coin-to-coin",
	KindDeposit:             "Deposit",
	KindWithdraw:            "Withdraw",
	KindAutoInvest:          "Auto-invest",
	KindSavingsSubscription: "Savings subscription",
	KindSavingsRedemption:   "Savings redemption",
	KindSavingsInterest:     "Savings interest",
	KindDistribution:        "Distribution",
	KindDustCollection:      "Dust collection",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Transaction set of raw account changes sharing one timestamp, interpreted as one
// logical event. Leg fields are filled by Clarify.
type Transaction struct {
	UTCTime int64
	Kind    Kind
	Changes []domain.RawAccountChange
	// Subscription the auto-invest subscription the transaction belongs to.
	Subscription *domain.AutoInvestSubscription

	BaseCurrency  string
	BaseAmount    decimal.Decimal
	QuoteCurrency string
	QuoteAmount   decimal.Decimal
	FeeCurrency   string
	Fee           decimal.Decimal
}

// New creates an empty unclassified transaction.
func New(utcTime int64) *Transaction {
	return &Transaction{UTCTime: utcTime}
}

// Append adds a change to the transaction.
func (t *Transaction) Append(c domain.RawAccountChange) {
	t.Changes = append(t.Changes, c)
}

// Len number of raw changes.
func (t *Transaction) Len() int {
	return len(t.Changes)
}

// clone copies the transaction. The subscription is shared.
func (t *Transaction) clone() *Transaction {
	c := *t
	c.Changes = make([]domain.RawAccountChange, len(t.Changes))
	copy(c.Changes, t.Changes)
	return &c
}

// WrapAutoInvest returns the transaction as an auto-invest transaction of sub.
func (t *Transaction) WrapAutoInvest(sub *domain.AutoInvestSubscription) *Transaction {
	c := t.clone()
	c.Kind = KindAutoInvest
	c.Subscription = sub
	return c
}

// HasFee reports whether a fee leg was classified.
func (t *Transaction) HasFee() bool {
	return t.FeeCurrency != ""
}

// Year UTC year of the transaction.
func (t *Transaction) Year() int {
	return domain.UTCYear(t.UTCTime)
}

// OperationDiff per-asset sum of all raw changes: the change the transaction should
// cause to the wallet.
func (t *Transaction) OperationDiff() domain.WalletDiff {
	diff := domain.NewWalletDiff()
	for _, c := range t.Changes {
		diff.Add(c.Asset, c.Amount)
	}
	return diff
}

// OperationMultiSet operations of the transaction with their counts, e.g. "BUY:2, FEE:1".
func (t *Transaction) OperationMultiSet() string {
	counts := make(map[domain.Operation]int)
	for _, c := range t.Changes {
		counts[c.Operation]++
	}
	ops := make([]domain.Operation, 0, len(counts))
	for op := range counts {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })

	parts := make([]string, 0, len(ops))
	for _, op := range ops {
		parts = append(parts, fmt.Sprintf("%s:%d", op, counts[op]))
	}
	return strings.Join(parts, ", ")
}

// hasOnly reports whether every change has one of the given operations.
func (t *Transaction) hasOnly(match func(domain.Operation) bool) bool {
	if len(t.Changes) == 0 {
		return false
	}
	for _, c := range t.Changes {
		if !match(c.Operation) {
			return false
		}
	}
	return true
}

// String human-readable description of the transaction.
func (t *Transaction) String() string {
	when := domain.FormatUTC(t.UTCTime)
	switch t.Kind {
	case KindBuy, KindSell, KindCoinToCoin:
		s := fmt.Sprintf("%s %s %s %s/%s %s", when, t.Kind,
			domain.NiceString(t.BaseAmount), t.BaseCurrency,
			domain.NiceString(t.QuoteAmount), t.QuoteCurrency)
		if t.HasFee() {
			s += fmt.Sprintf(", fee %s %s", domain.NiceString(t.Fee), t.FeeCurrency)
		}
		return s
	case KindUnknown:
		return fmt.Sprintf("%s %s [%s]", when, t.Kind, t.OperationMultiSet())
	default:
		return fmt.Sprintf("%s %s %s %s", when, t.Kind, domain.NiceString(t.BaseAmount), t.BaseCurrency)
	}
}

// ChangeAsset asset of the transaction used to compare auto-invest groups: the acquired
// asset, or "amount asset" for the spend.
func (t *Transaction) ChangeAsset(acc Accounting) string {
	for _, c := range t.Changes {
		if acc.IsUSDLike(c.Asset) && c.Amount.IsNegative() {
			return fmt.Sprintf("%s %s", domain.NiceString(c.Amount), c.Asset)
		}
	}
	for _, c := range t.Changes {
		if c.Amount.IsPositive() {
			return c.Asset
		}
	}
	return ""
}
