package forecast

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Options carries every parameter of an analysis run. Nothing is read from
// globals or the wall clock.
type Options struct {
	WindowSize int
	PeriodKind PeriodKind
	// Thresholds of the zero value select DefaultThresholds. Otherwise both
	// fields are used as given: setting only Safe leaves Overstock at zero,
	// which disables Overstocked. Start from DefaultThresholds to change
	// one limit.
	Thresholds Thresholds
	Rounding   RoundingPolicy
	Now        time.Time
}

// Validate checks the options Analyze cannot work without.
func (o Options) Validate() error {
	if o.WindowSize < 1 {
		return fmt.Errorf("%w: window size must be at least 1, got %d", ErrInvalidOptions, o.WindowSize)
	}
	if !o.PeriodKind.Valid() {
		return fmt.Errorf("%w: unknown period kind %d", ErrInvalidOptions, o.PeriodKind)
	}
	return nil
}

func (o Options) thresholds() Thresholds {
	if o.Thresholds.Safe.IsZero() && o.Thresholds.Overstock.IsZero() {
		return DefaultThresholds()
	}
	return o.Thresholds
}

// Analyze assesses every master product that also has a stock position.
// Products without a stock position are dropped; products without an
// inbound plan are treated as having nothing on order. The output follows
// master order. Analyze does not modify its inputs.
func Analyze(series ShipmentSeries, stock []StockPosition, inbound []InboundPlan, master []Product, opts Options) ([]RiskAssessment, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	stockByID, err := indexStock(stock)
	if err != nil {
		return nil, err
	}
	inboundByID, err := indexInbound(inbound)
	if err != nil {
		return nil, err
	}

	thresholds := opts.thresholds()
	results := make([]RiskAssessment, 0, len(master))
	seen := make(map[ProductID]struct{}, len(master))

	for i, p := range master {
		if p.ID == "" {
			return nil, &InputShapeError{Table: TableMaster, Column: ColProductID, Row: i}
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		position, ok := stockByID[p.ID]
		if !ok {
			continue
		}

		rate := ComputeAverageRate(series, p.ID, opts.WindowSize)
		if opts.Rounding == RoundEager {
			rate = rate.Round(displayPlaces)
		}
		trend := ExtractTrend(series, p.ID, opts.WindowSize)

		plan, ok := inboundByID[p.ID]
		if !ok {
			plan = InboundPlan{ProductID: p.ID, PendingQuantity: decimal.Zero}
		}

		a := Classify(position, plan, rate, opts.PeriodKind, opts.Now, thresholds)
		a.ProductName = p.Name
		a.MajorCategory = p.MajorCategory
		a.Trend = trend
		results = append(results, a)
	}

	return results, nil
}

func indexStock(stock []StockPosition) (map[ProductID]StockPosition, error) {
	byID := make(map[ProductID]StockPosition, len(stock))
	for i, s := range stock {
		if s.ProductID == "" {
			return nil, &InputShapeError{Table: TableStock, Column: ColProductID, Row: i}
		}
		prev, ok := byID[s.ProductID]
		if !ok {
			byID[s.ProductID] = clonePosition(s)
			continue
		}
		for name, qty := range s.Locations {
			cur, ok := prev.Locations[name]
			if !ok {
				cur = decimal.Zero
			}
			prev.Locations[name] = cur.Add(nonNegative(qty))
		}
		prev.Total = prev.Total.Add(nonNegative(s.Total))
		byID[s.ProductID] = prev
	}
	return byID, nil
}

func clonePosition(s StockPosition) StockPosition {
	locations := make(map[string]decimal.Decimal, len(s.Locations))
	for name, qty := range s.Locations {
		locations[name] = nonNegative(qty)
	}
	return StockPosition{ProductID: s.ProductID, Locations: locations, Total: nonNegative(s.Total)}
}

func indexInbound(inbound []InboundPlan) (map[ProductID]InboundPlan, error) {
	byID := make(map[ProductID]InboundPlan, len(inbound))
	for i, p := range inbound {
		if p.ProductID == "" {
			return nil, &InputShapeError{Table: TableInbound, Column: ColProductID, Row: i}
		}
		prev, ok := byID[p.ProductID]
		if !ok {
			byID[p.ProductID] = InboundPlan{
				ProductID:       p.ProductID,
				PendingQuantity: nonNegative(p.PendingQuantity),
				ArrivalDate:     p.ArrivalDate,
			}
			continue
		}
		prev.PendingQuantity = prev.PendingQuantity.Add(nonNegative(p.PendingQuantity))
		if p.ArrivalDate != nil && (prev.ArrivalDate == nil || p.ArrivalDate.Before(*prev.ArrivalDate)) {
			prev.ArrivalDate = p.ArrivalDate
		}
		byID[p.ProductID] = prev
	}
	return byID, nil
}

// Summarize counts assessments per category. Every category is present in
// the result, with zero when unused.
func Summarize(assessments []RiskAssessment) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, c := range Categories {
		counts[c] = 0
	}
	for _, a := range assessments {
		counts[a.Category]++
	}
	return counts
}
