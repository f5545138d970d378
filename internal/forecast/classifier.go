package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classify assigns a risk category to one product. Rules are evaluated in
// order and the first match wins:
//
//  1. NoActivity: rate and stock are both zero
//  2. Overstocked: current coverage >= thresholds.Overstock (when non-zero)
//  3. Safe: current coverage >= thresholds.Safe
//  4. NeedsReorder: nothing pending, or no arrival date
//  5. WillArriveLate: stock runs out before the inbound arrives
//  6. AwaitingInbound: otherwise
//
// Negative inputs count as zero. Classify never fails.
func Classify(stock StockPosition, inbound InboundPlan, rate decimal.Decimal, kind PeriodKind, now time.Time, thresholds Thresholds) RiskAssessment {
	total := nonNegative(stock.Total)
	pending := nonNegative(inbound.PendingQuantity)
	rate = nonNegative(rate)

	a := RiskAssessment{
		ProductID:         stock.ProductID,
		StockTotal:        total,
		PendingInbound:    pending,
		Rate:              rate,
		RateDisplay:       rate.Round(displayPlaces),
		CurrentCoverage:   coverage(total, rate),
		ProjectedCoverage: coverage(total.Add(pending), rate),
		DaysUntilStockout: runway(total, rate, kind),
	}

	onOrder := pending.IsPositive() && inbound.ArrivalDate != nil
	if onOrder {
		arrival := *inbound.ArrivalDate
		days := daysBetween(now, arrival)
		a.ArrivalDate = &arrival
		a.DaysUntilArrival = &days
	}

	a.Category = decide(a, onOrder, thresholds)
	return a
}

func decide(a RiskAssessment, onOrder bool, thresholds Thresholds) Category {
	safe := nonNegative(thresholds.Safe)
	overstock := nonNegative(thresholds.Overstock)

	switch {
	case a.Rate.IsZero() && a.StockTotal.IsZero():
		return NoActivity
	case overstock.IsPositive() && a.CurrentCoverage.AtLeast(overstock):
		return Overstocked
	case a.CurrentCoverage.AtLeast(safe):
		return Safe
	case !onOrder:
		return NeedsReorder
	case a.DaysUntilStockout.Before(*a.DaysUntilArrival):
		return WillArriveLate
	default:
		return AwaitingInbound
	}
}

// daysBetween counts calendar days from now's date to t's date. t is a
// calendar date, so its day is read in its own location; now's day is read
// in now's location. Negative when t is in the past.
func daysBetween(now, t time.Time) int64 {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int64(to.Sub(from).Hours() / 24)
}
