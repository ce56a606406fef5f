package domain

import (
	"strings"

	"github.com/pkg/errors"
)

// AccountType Binance account a change was booked on.
type AccountType int

const (
	AccountSpot AccountType = iota
	AccountEarn
)

const (
	accountStringSpot = "SPOT"
	accountStringEarn = "EARN"
)

// ParseAccountType parses the capitalized statement representation ("Spot", "Earn").
func ParseAccountType(s string) (AccountType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case accountStringSpot:
		return AccountSpot, nil
	case accountStringEarn:
		return AccountEarn, nil
	default:
		return 0, errors.Wrapf(ErrMalformedInput, "invalid account type string: %q", s)
	}
}

// String returns the string representation of the account type.
func (a AccountType) String() string {
	switch a {
	case AccountSpot:
		return accountStringSpot
	case AccountEarn:
		return accountStringEarn
	default:
		return "unknown"
	}
}

// Operation kind of an atomic account change.
type Operation int

const (
	OperationBuy Operation = iota
	OperationSell
	OperationFee
	OperationTransactionRelated
	OperationTransactionBuy
	OperationTransactionSpend
	OperationTransactionRevenue
	OperationTransactionSold
	OperationTransactionFee
	OperationDeposit
	OperationWithdraw
	OperationAutoInvest
	OperationSavingsSubscription
	OperationSavingsRedemption
	OperationSavingsInterest
	OperationDistribution
	OperationDustCollection
)

var operationNames = map[Operation]string{
	OperationBuy:                 "BUY",
	OperationSell:                "SELL",
	OperationFee:                 "FEE",
	OperationTransactionRelated:  "TRANSACTION_RELATED",
	OperationTransactionBuy:      "TRANSACTION_BUY",
	OperationTransactionSpend:    "TRANSACTION_SPEND",
	OperationTransactionRevenue:  "TRANSACTION_REVENUE",
	OperationTransactionSold:     "TRANSACTION_SOLD",
	OperationTransactionFee:      "TRANSACTION_FEE",
	OperationDeposit:             "DEPOSIT",
	OperationWithdraw:            "WITHDRAW",
	OperationAutoInvest:          "AUTO_INVEST",
	OperationSavingsSubscription: "SAVINGS_SUBSCRIPTION",
	OperationSavingsRedemption:   "SAVINGS_REDEMPTION",
	OperationSavingsInterest:     "SAVINGS_INTEREST",
	OperationDistribution:        "DISTRIBUTION",
	OperationDustCollection:      "DUST_COLLECTION",
}

// statement strings as they appear in the Binance transaction history export
var operationByStatement = map[string]Operation{
	"buy":                               OperationBuy,
	"sell":                              OperationSell,
	"fee":                               OperationFee,
	"transaction related":               OperationTransactionRelated,
	"transaction buy":                   OperationTransactionBuy,
	"transaction spend":                 OperationTransactionSpend,
	"transaction revenue":               OperationTransactionRevenue,
	"transaction sold":                  OperationTransactionSold,
	"transaction fee":                   OperationTransactionFee,
	"deposit":                           OperationDeposit,
	"withdraw":                          OperationWithdraw,
	"auto-invest transaction":           OperationAutoInvest,
	"simple earn flexible subscription": OperationSavingsSubscription,
	"savings purchase":                  OperationSavingsSubscription,
	"simple earn flexible redemption":   OperationSavingsRedemption,
	"savings principal redemption":      OperationSavingsRedemption,
	"simple earn flexible interest":     OperationSavingsInterest,
	"savings interest":                  OperationSavingsInterest,
	"distribution":                      OperationDistribution,
	"small assets exchange bnb":         OperationDustCollection,
}

// ParseOperation parses both statement strings ("Transaction Spend") and
// canonical names ("TRANSACTION_SPEND").
func ParseOperation(s string) (Operation, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if op, ok := operationByStatement[key]; ok {
		return op, nil
	}
	for op, name := range operationNames {
		if strings.EqualFold(name, key) {
			return op, nil
		}
	}
	return 0, errors.Wrapf(ErrMalformedInput, "invalid operation string: %q", s)
}

// String returns the canonical name of the operation.
func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsTrade reports whether the operation is one leg of a spot trade (not the fee).
func (o Operation) IsTrade() bool {
	switch o {
	case OperationBuy, OperationSell, OperationTransactionRelated,
		OperationTransactionBuy, OperationTransactionSpend,
		OperationTransactionRevenue, OperationTransactionSold:
		return true
	}
	return false
}

// IsFee reports whether the operation is a trading fee.
func (o Operation) IsFee() bool {
	return o == OperationFee || o == OperationTransactionFee
}
