package forecast

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// divisionPrecision is the number of decimal places kept by every division
// in the engine. Fixed here so results do not depend on
// decimal.DivisionPrecision.
const divisionPrecision int32 = 16

// displayPlaces is the rounding applied to RateDisplay and eager rates.
const displayPlaces int32 = 1

// Coverage is a duration in periods. Unbounded means the consumption rate
// is zero and stock never runs out.
type Coverage struct {
	Periods   decimal.Decimal
	Unbounded bool
}

// UnboundedCoverage is the sentinel for a zero consumption rate.
var UnboundedCoverage = Coverage{Periods: decimal.Zero, Unbounded: true}

// AtLeast reports whether the coverage meets threshold. Unbounded coverage
// meets every threshold.
func (c Coverage) AtLeast(threshold decimal.Decimal) bool {
	if c.Unbounded {
		return true
	}
	return c.Periods.GreaterThanOrEqual(threshold)
}

func (c Coverage) String() string {
	if c.Unbounded {
		return "unbounded"
	}
	return c.Periods.StringFixed(2)
}

// MarshalJSON encodes an unbounded coverage as null.
func (c Coverage) MarshalJSON() ([]byte, error) {
	if c.Unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(c.Periods)
}

// UnmarshalJSON reads null as unbounded.
func (c *Coverage) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*c = UnboundedCoverage
		return nil
	}
	var periods decimal.Decimal
	if err := json.Unmarshal(data, &periods); err != nil {
		return err
	}
	*c = Coverage{Periods: periods}
	return nil
}

// Runway is the number of days until stockout.
type Runway struct {
	Days      decimal.Decimal
	Unbounded bool
}

// Before reports whether the stockout happens strictly before day.
func (r Runway) Before(day int64) bool {
	if r.Unbounded {
		return false
	}
	return r.Days.LessThan(decimal.NewFromInt(day))
}

func (r Runway) String() string {
	if r.Unbounded {
		return "never"
	}
	return r.Days.StringFixed(1)
}

// MarshalJSON encodes an unbounded runway as null.
func (r Runway) MarshalJSON() ([]byte, error) {
	if r.Unbounded {
		return []byte("null"), nil
	}
	return json.Marshal(r.Days)
}

// UnmarshalJSON reads null as unbounded.
func (r *Runway) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*r = Runway{Days: decimal.Zero, Unbounded: true}
		return nil
	}
	var days decimal.Decimal
	if err := json.Unmarshal(data, &days); err != nil {
		return err
	}
	*r = Runway{Days: days}
	return nil
}

func isNull(data []byte) bool {
	return string(bytes.TrimSpace(data)) == "null"
}

// ComputeAverageRate returns the mean shipped quantity over the windowSize
// most recent periods of the series. Periods the product did not ship in
// count as zero, and so do missing periods when the series is shorter than
// the window. A product without history has rate zero.
func ComputeAverageRate(series ShipmentSeries, id ProductID, windowSize int) decimal.Decimal {
	if windowSize < 1 {
		windowSize = 1
	}
	return mean(series.recent(id, windowSize))
}

func mean(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.DivRound(decimal.NewFromInt(int64(len(values))), divisionPrecision)
}

// coverage divides qty by rate, or returns the sentinel for a zero rate.
func coverage(qty, rate decimal.Decimal) Coverage {
	if !rate.IsPositive() {
		return UnboundedCoverage
	}
	return Coverage{Periods: qty.DivRound(rate, divisionPrecision)}
}

// runway converts stock and a per-period rate into days until stockout.
func runway(stock, rate decimal.Decimal, kind PeriodKind) Runway {
	if !rate.IsPositive() {
		return Runway{Days: decimal.Zero, Unbounded: true}
	}
	days := stock.Mul(decimal.NewFromInt(kind.DaysPerPeriod()))
	return Runway{Days: days.DivRound(rate, divisionPrecision)}
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
