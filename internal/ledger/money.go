package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MoneyPlaces is the number of fraction digits carried by persisted amounts.
	MoneyPlaces int32 = 2
	// RatePlaces is the number of fraction digits carried by persisted
	// commission rates.
	RatePlaces int32 = 4
)

var (
	// DefaultCommissionRate applies to vendors without an explicit rate.
	DefaultCommissionRate = decimal.RequireFromString("0.15")

	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RoundMoney rounds half away from zero to cents.
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MoneyPlaces)
}

// Commission returns round(gross × rate, 2).
func Commission(gross, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(gross.Mul(rate))
}

// NetPayout returns gross minus its rounded commission, so the two always sum
// back to gross exactly.
func NetPayout(gross, rate decimal.Decimal) decimal.Decimal {
	return RoundMoney(gross).Sub(Commission(gross, rate))
}

// EffectiveRate resolves a nullable vendor rate against the platform fallback.
func EffectiveRate(rate *decimal.Decimal, fallback decimal.Decimal) decimal.Decimal {
	if rate == nil {
		return fallback
	}
	return *rate
}

// NormalizeCommissionRate converts admin input into a stored fraction.
// Inputs are clamped to [0,100]; anything above 1 is read as a percentage.
// The fraction is rounded half away from zero to RatePlaces.
func NormalizeCommissionRate(input decimal.Decimal) decimal.Decimal {
	switch {
	case input.IsNegative():
		return decimal.Zero
	case input.GreaterThan(hundred):
		input = hundred
	}
	if input.GreaterThan(one) {
		input = input.Div(hundred)
	}
	return input.Round(RatePlaces)
}

// ValidateRate rejects rates outside [0,1].
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(one) {
		return fmt.Errorf("commission rate %s outside [0,1]", rate.String())
	}
	return nil
}

// LineTotal prices one order line.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Totals is the settled view of an Accumulator.
type Totals struct {
	Count      int
	Gross      decimal.Decimal
	Rate       decimal.Decimal
	Commission decimal.Decimal
	Net        decimal.Decimal
}

// Accumulator sums order amounts for one vendor. Commission is derived from
// the exact gross once, so summing per order or over the whole set yields the
// same cents.
type Accumulator struct {
	rate  decimal.Decimal
	count int
	gross decimal.Decimal
}

func NewAccumulator(rate decimal.Decimal) *Accumulator {
	return &Accumulator{rate: rate, gross: decimal.Zero}
}

func (a *Accumulator) Add(amount decimal.Decimal) {
	a.count++
	a.gross = a.gross.Add(amount)
}

func (a *Accumulator) Totals() Totals {
	gross := RoundMoney(a.gross)
	return Totals{
		Count:      a.count,
		Gross:      gross,
		Rate:       a.rate,
		Commission: Commission(gross, a.rate),
		Net:        NetPayout(gross, a.rate),
	}
}
