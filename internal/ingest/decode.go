package ingest

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
)

// Kind names the table a file holds.
type Kind string

const (
	KindMaster    Kind = "master"
	KindShipments Kind = "shipments"
	KindStock     Kind = "stock"
	KindInbound   Kind = "inbound"
)

// Kinds lists every kind in load order.
var Kinds = []Kind{KindMaster, KindShipments, KindStock, KindInbound}

// ParseKind accepts a kind name or a common synonym.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "master", "products", "product_master", "set_master":
		return KindMaster, true
	case "shipments", "shipment", "sales":
		return KindShipments, true
	case "stock", "inventory", "stock_levels":
		return KindStock, true
	case "inbound", "po", "purchase_orders", "purchase_order_lines":
		return KindInbound, true
	}
	return "", false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006/1/2",
	"20060102",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"01-02-06",
	"1/2/06",
}

// ParseDate parses a date cell in any of the layouts seen in exports. The
// result is in loc.
func ParseDate(cell string, loc *time.Location) (time.Time, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type columns map[string]int

func indexOf(t forecast.Table) columns {
	idx := make(columns, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := idx[c]; !dup {
			idx[c] = i
		}
	}
	return idx
}

func (c columns) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return false
		}
	}
	return true
}

func (c columns) require(table string, names ...string) error {
	for _, n := range names {
		if _, ok := c[n]; !ok {
			return &forecast.InputShapeError{Table: table, Column: n, Row: -1}
		}
	}
	return nil
}

func (c columns) get(row []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (c columns) quantity(row []string, name string, diag *forecast.Diagnostics) decimal.Decimal {
	qty, ok := forecast.ParseQuantity(c.get(row, name))
	if !ok {
		diag.Fallback(name)
	}
	return qty
}

// Products decodes a master table.
func Products(t forecast.Table) ([]forecast.Product, error) {
	return forecast.ProductsFromTable(t)
}

// ShipmentRecords decodes raw shipment lines (product_id, shipped_at,
// quantity). Rows with an unreadable date are skipped and counted.
func ShipmentRecords(t forecast.Table, loc *time.Location, diag *forecast.Diagnostics) ([]domain.ShipmentRecord, error) {
	idx := indexOf(t)
	if err := idx.require(forecast.TableShipments, forecast.ColProductID, ColShippedAt, forecast.ColQuantity); err != nil {
		return nil, err
	}

	records := make([]domain.ShipmentRecord, 0, len(t.Rows))
	for i, row := range t.Rows {
		id := idx.get(row, forecast.ColProductID)
		if id == "" {
			return nil, &forecast.InputShapeError{Table: forecast.TableShipments, Column: forecast.ColProductID, Row: i}
		}
		shippedAt, ok := ParseDate(idx.get(row, ColShippedAt), loc)
		if !ok {
			diag.Fallback(ColShippedAt)
			continue
		}
		records = append(records, domain.ShipmentRecord{
			ProductID: id,
			ShippedAt: shippedAt,
			Quantity:  idx.quantity(row, forecast.ColQuantity, diag),
		})
	}
	return records, nil
}

// ShipmentRows decodes a shipments table into engine rows. A table with a
// period column is used as is; raw lines with shipped_at are bucketed with
// kind.Code and summed.
func ShipmentRows(t forecast.Table, kind forecast.PeriodKind, loc *time.Location, diag *forecast.Diagnostics) ([]forecast.ShipmentRow, error) {
	idx := indexOf(t)

	if idx.has(forecast.ColPeriod) {
		return forecast.ShipmentRowsFromTable(t, diag)
	}

	records, err := ShipmentRecords(t, loc, diag)
	if err != nil {
		return nil, err
	}
	return AggregateShipments(records, kind), nil
}

// AggregateShipments sums raw lines per (product, period). Output follows
// first appearance.
func AggregateShipments(records []domain.ShipmentRecord, kind forecast.PeriodKind) []forecast.ShipmentRow {
	type key struct {
		id     forecast.ProductID
		period forecast.PeriodCode
	}
	positions := make(map[key]int)
	var rows []forecast.ShipmentRow
	for _, rec := range records {
		k := key{id: forecast.ProductID(rec.ProductID), period: kind.Code(rec.ShippedAt)}
		if i, ok := positions[k]; ok {
			rows[i].Quantity = rows[i].Quantity.Add(rec.Quantity)
			continue
		}
		positions[k] = len(rows)
		rows = append(rows, forecast.ShipmentRow{ProductID: k.id, Period: k.period, Quantity: rec.Quantity})
	}
	return rows
}

// StockPositions decodes a stock table. Long tables (product_id, location,
// quantity) are pivoted; wide tables carry one column per location.
func StockPositions(t forecast.Table, diag *forecast.Diagnostics) ([]forecast.StockPosition, error) {
	idx := indexOf(t)
	if !idx.has(ColLocation) {
		return forecast.StockFromTable(t, diag)
	}
	if err := idx.require(forecast.TableStock, forecast.ColProductID, forecast.ColQuantity); err != nil {
		return nil, err
	}

	var order []forecast.ProductID
	byID := make(map[forecast.ProductID]map[string]decimal.Decimal)
	for i, row := range t.Rows {
		id := forecast.ProductID(idx.get(row, forecast.ColProductID))
		if id == "" {
			return nil, &forecast.InputShapeError{Table: forecast.TableStock, Column: forecast.ColProductID, Row: i}
		}
		locations, ok := byID[id]
		if !ok {
			locations = make(map[string]decimal.Decimal)
			byID[id] = locations
			order = append(order, id)
		}
		location := idx.get(row, ColLocation)
		locations[location] = locations[location].Add(idx.quantity(row, forecast.ColQuantity, diag))
	}

	positions := make([]forecast.StockPosition, 0, len(order))
	for _, id := range order {
		positions = append(positions, forecast.NewStockPosition(id, byID[id]))
	}
	return positions, nil
}

// PurchaseOrderLines decodes purchase order lines. A missing status column
// means Released; an unknown status is counted and read as Released too.
func PurchaseOrderLines(t forecast.Table, loc *time.Location, diag *forecast.Diagnostics) ([]domain.PurchaseOrderLine, error) {
	idx := indexOf(t)
	if err := idx.require(forecast.TableInbound, ColPONumber, forecast.ColProductID, forecast.ColQuantity); err != nil {
		return nil, err
	}

	lines := make([]domain.PurchaseOrderLine, 0, len(t.Rows))
	for i, row := range t.Rows {
		line := domain.PurchaseOrderLine{
			PONumber:  idx.get(row, ColPONumber),
			ProductID: idx.get(row, forecast.ColProductID),
			Quantity:  idx.quantity(row, forecast.ColQuantity, diag),
		}
		if line.PONumber == "" {
			return nil, &forecast.InputShapeError{Table: forecast.TableInbound, Column: ColPONumber, Row: i}
		}
		if line.ProductID == "" {
			return nil, &forecast.InputShapeError{Table: forecast.TableInbound, Column: forecast.ColProductID, Row: i}
		}

		if raw := idx.get(row, ColStatus); raw != "" {
			status, ok := domain.ParsePOStatus(raw)
			if !ok {
				diag.Fallback(ColStatus)
			}
			line.Status = status
		}

		if raw := idx.get(row, ColExpectedAt); raw != "" {
			if expected, ok := ParseDate(raw, loc); ok {
				line.ExpectedAt = sql.NullTime{Time: expected, Valid: true}
			} else {
				diag.Fallback(ColExpectedAt)
			}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// InboundPlans decodes an inbound table. A table that already holds
// pending_quantity per product is used as is; purchase order lines are
// reduced to one plan per product: open quantities summed, earliest
// expected date kept.
func InboundPlans(t forecast.Table, loc *time.Location, diag *forecast.Diagnostics) ([]forecast.InboundPlan, error) {
	idx := indexOf(t)
	if !idx.has(ColPONumber) {
		return forecast.InboundFromTable(t, diag)
	}

	lines, err := PurchaseOrderLines(t, loc, diag)
	if err != nil {
		return nil, err
	}
	return PlansFromLines(lines), nil
}

// PlansFromLines reduces purchase order lines in an open status to one
// inbound plan per product.
func PlansFromLines(lines []domain.PurchaseOrderLine) []forecast.InboundPlan {
	var order []forecast.ProductID
	byID := make(map[forecast.ProductID]*forecast.InboundPlan)
	for _, line := range lines {
		if !domain.IsOpenPOStatus(line.Status) {
			continue
		}
		id := forecast.ProductID(line.ProductID)
		plan, ok := byID[id]
		if !ok {
			plan = &forecast.InboundPlan{ProductID: id, PendingQuantity: decimal.Zero}
			byID[id] = plan
			order = append(order, id)
		}
		plan.PendingQuantity = plan.PendingQuantity.Add(line.Quantity)
		if line.ExpectedAt.Valid && (plan.ArrivalDate == nil || line.ExpectedAt.Time.Before(*plan.ArrivalDate)) {
			expected := line.ExpectedAt.Time
			plan.ArrivalDate = &expected
		}
	}

	plans := make([]forecast.InboundPlan, 0, len(order))
	for _, id := range order {
		plans = append(plans, *byID[id])
	}
	return plans
}

// Describe summarizes a decoded table for log lines.
func Describe(t forecast.Table) string {
	return fmt.Sprintf("%s (%d columns, %d rows)", t.Name, len(t.Columns), len(t.Rows))
}
