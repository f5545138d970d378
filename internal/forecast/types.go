package forecast

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductID identifies a sellable product or a composite set product.
type ProductID string

// PeriodCode labels a reporting bucket (e.g. "2403" or "240304w").
// Codes are only compared, never parsed.
type PeriodCode string

// PeriodKind selects the reporting bucket size.
type PeriodKind int

const (
	Monthly PeriodKind = iota
	Weekly
)

// DaysPerPeriod converts a period-denominated rate into a daily one.
func (k PeriodKind) DaysPerPeriod() int64 {
	if k == Weekly {
		return 7
	}
	return 30
}

func (k PeriodKind) String() string {
	switch k {
	case Monthly:
		return "monthly"
	case Weekly:
		return "weekly"
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the known kinds.
func (k PeriodKind) Valid() bool {
	return k == Monthly || k == Weekly
}

// ParsePeriodKind returns the kind for a label (case-sensitive, lower case).
func ParsePeriodKind(label string) (PeriodKind, bool) {
	switch label {
	case "monthly", "month", "m":
		return Monthly, true
	case "weekly", "week", "w":
		return Weekly, true
	}
	return Monthly, false
}

// Category is the risk judgment for one product.
type Category string

const (
	NoActivity      Category = "no_activity"
	Overstocked     Category = "overstocked"
	Safe            Category = "safe"
	NeedsReorder    Category = "needs_reorder"
	WillArriveLate  Category = "will_arrive_late"
	AwaitingInbound Category = "awaiting_inbound"
)

// Categories lists every category in decision order.
var Categories = []Category{
	NoActivity,
	Overstocked,
	Safe,
	NeedsReorder,
	WillArriveLate,
	AwaitingInbound,
}

// Product is a master-data record. The caller has already applied any
// category or search filtering.
type Product struct {
	ID            ProductID `json:"product_id"`
	Name          string    `json:"product_name"`
	MajorCategory string    `json:"major_category"`
	MinorCategory string    `json:"minor_category"`
}

// ShipmentRow is one aggregated (product, period) quantity.
type ShipmentRow struct {
	ProductID ProductID
	Period    PeriodCode
	Quantity  decimal.Decimal
}

// StockPosition is the on-hand quantity of a product across its locations.
type StockPosition struct {
	ProductID ProductID                  `json:"product_id"`
	Locations map[string]decimal.Decimal `json:"locations"`
	Total     decimal.Decimal            `json:"total"`
}

// NewStockPosition builds a position whose total is the sum of its locations.
func NewStockPosition(id ProductID, locations map[string]decimal.Decimal) StockPosition {
	total := decimal.Zero
	copied := make(map[string]decimal.Decimal, len(locations))
	for name, qty := range locations {
		qty = nonNegative(qty)
		copied[name] = qty
		total = total.Add(qty)
	}
	return StockPosition{ProductID: id, Locations: copied, Total: total}
}

// InboundPlan is the pending inbound quantity of a product. ArrivalDate is
// nil when nothing is on order.
type InboundPlan struct {
	ProductID       ProductID       `json:"product_id"`
	PendingQuantity decimal.Decimal `json:"pending_quantity"`
	ArrivalDate     *time.Time      `json:"arrival_date,omitempty"`
}

// Thresholds are coverage limits, in periods.
type Thresholds struct {
	// Safe is the minimum coverage considered sufficient.
	Safe decimal.Decimal
	// Overstock is the coverage at or above which stock is excessive.
	// Zero disables the Overstocked category.
	Overstock decimal.Decimal
}

// DefaultThresholds returns Safe=1.0 and Overstock=3.0.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Safe:      decimal.NewFromInt(1),
		Overstock: decimal.NewFromInt(3),
	}
}

// RoundingPolicy controls when the average rate is rounded.
type RoundingPolicy int

const (
	// RoundLazy keeps the unrounded rate for coverage math and only rounds
	// RateDisplay.
	RoundLazy RoundingPolicy = iota
	// RoundEager rounds the rate to one decimal before any coverage math.
	RoundEager
)

// RiskAssessment is the engine's output row. It is never mutated after
// construction.
type RiskAssessment struct {
	ProductID         ProductID         `json:"product_id"`
	ProductName       string            `json:"product_name,omitempty"`
	MajorCategory     string            `json:"major_category,omitempty"`
	StockTotal        decimal.Decimal   `json:"stock_total"`
	PendingInbound    decimal.Decimal   `json:"pending_inbound"`
	ArrivalDate       *time.Time        `json:"arrival_date,omitempty"`
	Rate              decimal.Decimal   `json:"rate"`
	RateDisplay       decimal.Decimal   `json:"rate_display"`
	CurrentCoverage   Coverage          `json:"current_coverage"`
	ProjectedCoverage Coverage          `json:"projected_coverage"`
	DaysUntilStockout Runway            `json:"days_until_stockout"`
	DaysUntilArrival  *int64            `json:"days_until_arrival,omitempty"`
	Category          Category          `json:"category"`
	Trend             []decimal.Decimal `json:"trend"`
}
