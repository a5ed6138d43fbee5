package lifecycle

import (
	"strings"

	"github.com/shopspring/decimal"

	"trade-signal-bot/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// ParseNumber parses a price typed by the operator. A comma is accepted as the
// decimal separator.
func ParseNumber(raw string) (decimal.Decimal, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if v == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ComputeResult returns the realized R-multiple of s, rounded to two decimals.
// The second value is false when entry or stop is not a number or the risk is zero.
func ComputeResult(s entity.Signal) (decimal.Decimal, bool) {
	entry, ok := ParseNumber(s.Entry)
	if !ok {
		return decimal.Zero, false
	}
	stop, ok := ParseNumber(s.Stop)
	if !ok {
		return decimal.Zero, false
	}
	risk := entry.Sub(stop).Abs()
	if risk.IsZero() {
		return decimal.Zero, false
	}

	sign := decimal.NewFromInt(s.Direction.Sign())
	total := decimal.Zero
	for _, c := range s.Closes {
		exit, ok := ParseNumber(c.Price)
		if !ok {
			continue
		}
		size := decimal.NewFromFloat(c.SizePercent).Div(hundred)
		total = total.Add(sign.Mul(exit.Sub(entry)).Div(risk).Mul(size))
	}

	return total.Round(2), true
}

// DisplayResult returns the result shown to readers: the override when present,
// else the computed value. The second value is false when neither exists.
func DisplayResult(s entity.Signal) (string, bool) {
	if s.ResultOverride != nil {
		if v, ok := ParseNumber(*s.ResultOverride); ok {
			return v.StringFixed(2), true
		}
		return *s.ResultOverride, true
	}
	if r, ok := ComputeResult(s); ok {
		return r.StringFixed(2), true
	}
	return "", false
}
