package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ExtraInfoType kind of externally provided information.
type ExtraInfoType int

const (
	ExtraInfoAssetPrice ExtraInfoType = iota
	ExtraInfoExchangeRate
	ExtraInfoAutoInvestProportions
)

const (
	extraInfoStringAssetPrice            = "ASSET_PRICE"
	extraInfoStringExchangeRate          = "EXCHANGE_RATE"
	extraInfoStringAutoInvestProportions = "AUTO_INVEST_PROPORTIONS"
)

// proportionSeparator separates assets and fractions of AUTO_INVEST_PROPORTIONS entries.
const proportionSeparator = "|"

// ParseExtraInfoType parses the stored representation of the type.
func ParseExtraInfoType(s string) (ExtraInfoType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case extraInfoStringAssetPrice:
		return ExtraInfoAssetPrice, nil
	case extraInfoStringExchangeRate:
		return ExtraInfoExchangeRate, nil
	case extraInfoStringAutoInvestProportions:
		return ExtraInfoAutoInvestProportions, nil
	default:
		return 0, errors.Wrapf(ErrMalformedInput, "invalid extra info type: %q", s)
	}
}

// String returns the stored representation of the type.
func (t ExtraInfoType) String() string {
	switch t {
	case ExtraInfoAssetPrice:
		return extraInfoStringAssetPrice
	case ExtraInfoExchangeRate:
		return extraInfoStringExchangeRate
	case ExtraInfoAutoInvestProportions:
		return extraInfoStringAutoInvestProportions
	default:
		return "UNKNOWN"
	}
}

// ExtraInfoEntry one unit of user-provided information for a time moment.
// Value is a decimal string for prices and rates; for proportions both Asset and Value
// are "|"-separated lists ("BTC|ETH", "0.5|0.5").
type ExtraInfoEntry struct {
	UTCTime int64
	Type    ExtraInfoType
	Asset   string
	Value   string
}

// Decimal parses the value as a decimal number.
func (e ExtraInfoEntry) Decimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(e.Value))
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrMalformedInput, "invalid %s value %q at %s",
			e.Type, e.Value, FormatUTC(e.UTCTime))
	}
	return d, nil
}

// AssetProportion share of an auto-invest plan spent on one asset.
type AssetProportion struct {
	Asset      string
	Proportion decimal.Decimal
}

// Proportions decodes an AUTO_INVEST_PROPORTIONS entry.
func (e ExtraInfoEntry) Proportions() ([]AssetProportion, error) {
	if e.Type != ExtraInfoAutoInvestProportions {
		return nil, errors.Wrapf(ErrInvalidArgument, "entry at %s is %s, not %s",
			FormatUTC(e.UTCTime), e.Type, ExtraInfoAutoInvestProportions)
	}
	assets := strings.Split(e.Asset, proportionSeparator)
	values := strings.Split(e.Value, proportionSeparator)
	if len(assets) != len(values) {
		return nil, errors.Wrapf(ErrMalformedInput, "auto-invest proportions at %s: %d assets but %d values",
			FormatUTC(e.UTCTime), len(assets), len(values))
	}
	proportions := make([]AssetProportion, 0, len(assets))
	for i, asset := range assets {
		p, err := decimal.NewFromString(strings.TrimSpace(values[i]))
		if err != nil {
			return nil, errors.Wrapf(ErrMalformedInput, "auto-invest proportion %q for %s", values[i], asset)
		}
		proportions = append(proportions, AssetProportion{Asset: strings.TrimSpace(asset), Proportion: p})
	}
	return proportions, nil
}

// NewAutoInvestProportionsEntry encodes proportions as an extra info entry.
func NewAutoInvestProportionsEntry(utcTime int64, proportions []AssetProportion) ExtraInfoEntry {
	assets := make([]string, len(proportions))
	values := make([]string, len(proportions))
	for i, p := range proportions {
		assets[i] = p.Asset
		values[i] = NiceString(p.Proportion)
	}
	return ExtraInfoEntry{
		UTCTime: utcTime,
		Type:    ExtraInfoAutoInvestProportions,
		Asset:   strings.Join(assets, proportionSeparator),
		Value:   strings.Join(values, proportionSeparator),
	}
}

// String returns a human-readable representation.
func (e ExtraInfoEntry) String() string {
	return fmt.Sprintf("%s %s %s=%s", FormatUTC(e.UTCTime), e.Type, e.Asset, e.Value)
}

// ExtraInfo side table of user-provided information, indexed by timestamp.
type ExtraInfo struct {
	byTime map[int64][]ExtraInfoEntry
	all    []ExtraInfoEntry
}

// NewExtraInfo creates an empty extra info table.
func NewExtraInfo() *ExtraInfo {
	return &ExtraInfo{byTime: make(map[int64][]ExtraInfoEntry)}
}

// Add stores the entry.
func (x *ExtraInfo) Add(e ExtraInfoEntry) {
	if x.byTime == nil {
		x.byTime = make(map[int64][]ExtraInfoEntry)
	}
	x.byTime[e.UTCTime] = append(x.byTime[e.UTCTime], e)
	x.all = append(x.all, e)
}

// IsEmpty reports whether nothing is stored.
func (x *ExtraInfo) IsEmpty() bool {
	return x == nil || len(x.all) == 0
}

// Entries returns all entries ordered by timestamp, insertion order within a timestamp.
func (x *ExtraInfo) Entries() []ExtraInfoEntry {
	if x == nil {
		return nil
	}
	entries := make([]ExtraInfoEntry, len(x.all))
	copy(entries, x.all)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].UTCTime < entries[j].UTCTime })
	return entries
}

// Find returns the entry of the given type at utcTime. An empty asset matches any asset.
func (x *ExtraInfo) Find(utcTime int64, t ExtraInfoType, asset string) (ExtraInfoEntry, bool) {
	if x == nil {
		return ExtraInfoEntry{}, false
	}
	for _, e := range x.byTime[utcTime] {
		if e.Type == t && (asset == "" || e.Asset == asset) {
			return e, true
		}
	}
	return ExtraInfoEntry{}, false
}

// Contains reports whether an entry with the same timestamp, type and asset is stored.
func (x *ExtraInfo) Contains(e ExtraInfoEntry) bool {
	_, ok := x.Find(e.UTCTime, e.Type, e.LookupAsset())
	return ok
}

// LookupAsset asset to match the entry by: exchange rates and proportions are unique per
// timestamp, their asset field is informational.
func (e ExtraInfoEntry) LookupAsset() string {
	if e.Type == ExtraInfoExchangeRate || e.Type == ExtraInfoAutoInvestProportions {
		return ""
	}
	return e.Asset
}

// AssetPrice returns the stored price of asset at utcTime.
func (x *ExtraInfo) AssetPrice(utcTime int64, asset string) (decimal.Decimal, bool, error) {
	e, ok := x.Find(utcTime, ExtraInfoAssetPrice, asset)
	if !ok {
		return decimal.Zero, false, nil
	}
	price, err := e.Decimal()
	if err != nil {
		return decimal.Zero, false, err
	}
	return price, true, nil
}
