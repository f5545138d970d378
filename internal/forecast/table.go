package forecast

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Table names used in InputShapeError.
const (
	TableShipments = "shipments"
	TableStock     = "stock"
	TableInbound   = "inbound"
	TableMaster    = "master"
)

// Canonical column names. Adapters rename source columns to these before
// handing a Table to the engine.
const (
	ColProductID     = "product_id"
	ColProductName   = "product_name"
	ColMajorCategory = "major_category"
	ColMinorCategory = "minor_category"
	ColPeriod        = "period"
	ColQuantity      = "quantity"
	ColTotal         = "total"
	ColPending       = "pending_quantity"
	ColArrivalDate   = "arrival_date"
)

var arrivalLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Table is a column-oriented input table with string cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Diagnostics counts cells that failed numeric or date coercion and were
// read as zero (or as no date).
type Diagnostics struct {
	CoercionFallbacks int            `json:"coercion_fallbacks"`
	ByColumn          map[string]int `json:"by_column,omitempty"`
}

// Fallback records one coerced cell of column. Safe on a nil receiver.
func (d *Diagnostics) Fallback(column string) {
	if d == nil {
		return
	}
	d.CoercionFallbacks++
	if d.ByColumn == nil {
		d.ByColumn = make(map[string]int)
	}
	d.ByColumn[column]++
}

// Merge adds other's counts into d.
func (d *Diagnostics) Merge(other Diagnostics) {
	d.CoercionFallbacks += other.CoercionFallbacks
	if len(other.ByColumn) == 0 {
		return
	}
	if d.ByColumn == nil {
		d.ByColumn = make(map[string]int, len(other.ByColumn))
	}
	for col, n := range other.ByColumn {
		d.ByColumn[col] += n
	}
}

// ParseQuantity parses a numeric cell. Blank, malformed and negative cells
// yield zero; ok is false when the cell was not a clean non-negative number.
// Blank cells are treated as zero without being reported.
func ParseQuantity(cell string) (qty decimal.Decimal, ok bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, true
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// ParseArrivalDate parses an arrival date cell. A blank cell means no date
// and is not a fallback.
func ParseArrivalDate(cell string) (*time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return nil, true
	}
	for _, layout := range arrivalLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

type columnIndex map[string]int

func (t Table) index() columnIndex {
	idx := make(columnIndex, len(t.Columns))
	for i, c := range t.Columns {
		idx[strings.TrimSpace(c)] = i
	}
	return idx
}

func (t Table) require(table string, cols ...string) (columnIndex, error) {
	idx := t.index()
	for _, c := range cols {
		if _, ok := idx[c]; !ok {
			return nil, &InputShapeError{Table: table, Column: c, Row: -1}
		}
	}
	return idx, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (idx columnIndex) get(row []string, col string) string {
	i, ok := idx[col]
	if !ok {
		return ""
	}
	return cell(row, i)
}

func (idx columnIndex) quantity(row []string, col string, diag *Diagnostics) decimal.Decimal {
	qty, ok := ParseQuantity(idx.get(row, col))
	if !ok {
		diag.Fallback(col)
	}
	return qty
}

// ShipmentRowsFromTable decodes a pre-aggregated shipments table
// (product_id, period, quantity). Empty keys are left for NewShipmentSeries
// to reject.
func ShipmentRowsFromTable(t Table, diag *Diagnostics) ([]ShipmentRow, error) {
	idx, err := t.require(TableShipments, ColProductID, ColPeriod, ColQuantity)
	if err != nil {
		return nil, err
	}

	rows := make([]ShipmentRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, ShipmentRow{
			ProductID: ProductID(idx.get(r, ColProductID)),
			Period:    PeriodCode(idx.get(r, ColPeriod)),
			Quantity:  idx.quantity(r, ColQuantity, diag),
		})
	}
	return rows, nil
}

// StockFromTable decodes a stock table. Every column other than product_id,
// product_name and total is a location. When total is absent it is the sum
// of the locations.
func StockFromTable(t Table, diag *Diagnostics) ([]StockPosition, error) {
	idx, err := t.require(TableStock, ColProductID)
	if err != nil {
		return nil, err
	}

	var locations []string
	for _, c := range t.Columns {
		c = strings.TrimSpace(c)
		switch c {
		case ColProductID, ColProductName, ColTotal, "":
			continue
		}
		locations = append(locations, c)
	}
	_, hasTotal := idx[ColTotal]

	positions := make([]StockPosition, 0, len(t.Rows))
	for i, r := range t.Rows {
		id := ProductID(idx.get(r, ColProductID))
		if id == "" {
			return nil, &InputShapeError{Table: TableStock, Column: ColProductID, Row: i}
		}

		byLocation := make(map[string]decimal.Decimal, len(locations))
		for _, loc := range locations {
			byLocation[loc] = idx.quantity(r, loc, diag)
		}
		pos := NewStockPosition(id, byLocation)
		if hasTotal {
			pos.Total = idx.quantity(r, ColTotal, diag)
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// InboundFromTable decodes an inbound table (product_id, pending_quantity,
// arrival_date).
func InboundFromTable(t Table, diag *Diagnostics) ([]InboundPlan, error) {
	idx, err := t.require(TableInbound, ColProductID, ColPending, ColArrivalDate)
	if err != nil {
		return nil, err
	}

	plans := make([]InboundPlan, 0, len(t.Rows))
	for i, r := range t.Rows {
		id := ProductID(idx.get(r, ColProductID))
		if id == "" {
			return nil, &InputShapeError{Table: TableInbound, Column: ColProductID, Row: i}
		}
		arrival, ok := ParseArrivalDate(idx.get(r, ColArrivalDate))
		if !ok {
			diag.Fallback(ColArrivalDate)
		}
		plans = append(plans, InboundPlan{
			ProductID:       id,
			PendingQuantity: idx.quantity(r, ColPending, diag),
			ArrivalDate:     arrival,
		})
	}
	return plans, nil
}

// ProductsFromTable decodes a master table. Category columns are optional.
func ProductsFromTable(t Table) ([]Product, error) {
	idx, err := t.require(TableMaster, ColProductID, ColProductName)
	if err != nil {
		return nil, err
	}

	products := make([]Product, 0, len(t.Rows))
	for i, r := range t.Rows {
		id := ProductID(idx.get(r, ColProductID))
		if id == "" {
			return nil, &InputShapeError{Table: TableMaster, Column: ColProductID, Row: i}
		}
		products = append(products, Product{
			ID:            id,
			Name:          idx.get(r, ColProductName),
			MajorCategory: idx.get(r, ColMajorCategory),
			MinorCategory: idx.get(r, ColMinorCategory),
		})
	}
	return products, nil
}
