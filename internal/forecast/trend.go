package forecast

import "github.com/shopspring/decimal"

// ExtractTrend returns the windowSize most recent quantities of a product in
// chronological order: the first element is the oldest period of the window
// and the last is the most recent. Missing history is zero-padded at the
// start.
func ExtractTrend(series ShipmentSeries, id ProductID, windowSize int) []decimal.Decimal {
	values := series.recent(id, windowSize)
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return values
}
