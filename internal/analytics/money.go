package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// amount accumulates monetary values without float drift
type amount struct {
	d decimal.Decimal
}

func toDecimal(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

func (a *amount) add(v float64) {
	a.d = a.d.Add(toDecimal(v))
}

func (a *amount) addLine(price float64, qty int) {
	a.d = a.d.Add(toDecimal(price).Mul(decimal.NewFromInt(int64(qty))))
}

func (a amount) float() float64 {
	return a.d.InexactFloat64()
}

// per divides the accumulated amount by n, returning 0 when n is 0
func (a amount) per(n int) float64 {
	if n == 0 {
		return 0
	}
	return a.d.Div(decimal.NewFromInt(int64(n))).InexactFloat64()
}

func percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return toDecimal(part).Div(toDecimal(whole)).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// percentChange returns nil when there is no baseline to compare against
func percentChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := toDecimal(current).Sub(toDecimal(previous)).
		Div(toDecimal(previous)).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
	return &v
}
