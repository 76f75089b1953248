// Package format renders market values as dashboard labels.
package format

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// DateLayout is the layout used by Date, e.g. "Jan 2, 2006, 03:04 PM".
const DateLayout = "Jan 2, 2006, 03:04 PM"

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	trillion = decimal.NewFromInt(1_000_000_000_000)
)

// Currency formats v as US dollars with two decimals: "$1,234.56", "-$0.50".
func Currency(v decimal.Decimal) string {
	s := grouped(v.Abs())
	if v.Round(2).IsNegative() {
		return "-$" + s
	}
	return "$" + s
}

// Compact abbreviates large values with T/B/M/K suffixes: "1.23B".
// Values under a thousand (including negatives) are printed with two decimals.
func Compact(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(trillion):
		return v.Div(trillion).StringFixed(2) + "T"
	case v.GreaterThanOrEqual(billion):
		return v.Div(billion).StringFixed(2) + "B"
	case v.GreaterThanOrEqual(million):
		return v.Div(million).StringFixed(2) + "M"
	case v.GreaterThanOrEqual(thousand):
		return v.Div(thousand).StringFixed(2) + "K"
	}
	return v.StringFixed(2)
}

// Percentage formats a percent value with an explicit sign: "+1.23%", "-4.50%".
func Percentage(v decimal.Decimal) string {
	s := v.StringFixed(2)
	if !strings.HasPrefix(s, "-") {
		s = "+" + s
	}
	return s + "%"
}

// Date formats a unix millisecond timestamp in UTC.
func Date(unixMS int64) string {
	return time.UnixMilli(unixMS).UTC().Format(DateLayout)
}

// Ago renders a relative time such as "3 minutes ago".
// The zero time renders as an empty string.
func Ago(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// grouped renders a non-negative value with thousands separators and two decimals.
func grouped(v decimal.Decimal) string {
	fixed := v.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	whole, err := decimal.NewFromString(intPart)
	if err != nil {
		return fixed
	}
	return humanize.BigComma(whole.BigInt()) + "." + frac
}
