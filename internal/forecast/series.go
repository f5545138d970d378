package forecast

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ShipmentSeries maps (product, period) to a shipped quantity. Missing pairs
// read as zero. The zero value is an empty series.
type ShipmentSeries struct {
	quantities map[ProductID]map[PeriodCode]decimal.Decimal
	periods    []PeriodCode // distinct codes, most recent first
}

// NewShipmentSeries indexes rows. Quantities for the same (product, period)
// are summed and negative quantities count as zero. A row without a product
// or period key is an InputShapeError.
func NewShipmentSeries(rows []ShipmentRow) (ShipmentSeries, error) {
	s := ShipmentSeries{quantities: make(map[ProductID]map[PeriodCode]decimal.Decimal)}
	seen := make(map[PeriodCode]struct{})

	for i, row := range rows {
		if row.ProductID == "" {
			return ShipmentSeries{}, &InputShapeError{Table: TableShipments, Column: ColProductID, Row: i}
		}
		if row.Period == "" {
			return ShipmentSeries{}, &InputShapeError{Table: TableShipments, Column: ColPeriod, Row: i}
		}

		byPeriod, ok := s.quantities[row.ProductID]
		if !ok {
			byPeriod = make(map[PeriodCode]decimal.Decimal)
			s.quantities[row.ProductID] = byPeriod
		}
		prev, ok := byPeriod[row.Period]
		if !ok {
			prev = decimal.Zero
		}
		byPeriod[row.Period] = prev.Add(nonNegative(row.Quantity))

		if _, ok := seen[row.Period]; !ok {
			seen[row.Period] = struct{}{}
			s.periods = append(s.periods, row.Period)
		}
	}

	sort.Slice(s.periods, func(i, j int) bool { return s.periods[i] > s.periods[j] })
	return s, nil
}

// Periods returns every period code in the series, most recent first.
func (s ShipmentSeries) Periods() []PeriodCode {
	return append([]PeriodCode(nil), s.periods...)
}

// Quantity returns the shipped quantity, zero when absent.
func (s ShipmentSeries) Quantity(id ProductID, period PeriodCode) decimal.Decimal {
	if q, ok := s.quantities[id][period]; ok {
		return q
	}
	return decimal.Zero
}

// HasProduct reports whether the product shipped in any period.
func (s ShipmentSeries) HasProduct(id ProductID) bool {
	_, ok := s.quantities[id]
	return ok
}

// Products returns the number of distinct products in the series.
func (s ShipmentSeries) Products() int {
	return len(s.quantities)
}

// recent returns the quantities of the windowSize most recent periods,
// most recent first, zero-padded at the old end to exactly windowSize.
func (s ShipmentSeries) recent(id ProductID, windowSize int) []decimal.Decimal {
	if windowSize < 1 {
		windowSize = 1
	}

	out := make([]decimal.Decimal, windowSize)
	for i := range out {
		if i < len(s.periods) {
			out[i] = s.Quantity(id, s.periods[i])
		} else {
			out[i] = decimal.Zero
		}
	}
	return out
}
