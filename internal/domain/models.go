package domain

import (
	"database/sql"
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
)

// Unit selects which master table products come from: single packs or
// composite sets.
type Unit string

const (
	UnitPack Unit = "pack"
	UnitSet  Unit = "set"
)

// ParseUnit accepts "pack" and "set" in any case.
func ParseUnit(s string) (Unit, bool) {
	switch Unit(lower(s)) {
	case UnitPack:
		return UnitPack, true
	case UnitSet:
		return UnitSet, true
	}
	return "", false
}

// MasterRecord is a product_master or set_master row.
type MasterRecord struct {
	ProductID     string         `db:"product_id"`
	ProductName   string         `db:"product_name"`
	MajorCategory sql.NullString `db:"major_category"`
	MinorCategory sql.NullString `db:"minor_category"`
}

func (r MasterRecord) Product() forecast.Product {
	return forecast.Product{
		ID:            forecast.ProductID(r.ProductID),
		Name:          r.ProductName,
		MajorCategory: r.MajorCategory.String,
		MinorCategory: r.MinorCategory.String,
	}
}

// ShipmentAggregate is one (product, period) total from the shipments table.
type ShipmentAggregate struct {
	ProductID string          `db:"product_id"`
	Period    string          `db:"period"`
	Quantity  decimal.Decimal `db:"quantity"`
}

// ShipmentRecord is a raw shipment line.
type ShipmentRecord struct {
	ProductID string          `db:"product_id"`
	ShippedAt time.Time       `db:"shipped_at"`
	Quantity  decimal.Decimal `db:"quantity"`
}

// StockLocationRecord is the on-hand quantity of a product at one location.
type StockLocationRecord struct {
	ProductID string          `db:"product_id"`
	Location  string          `db:"location"`
	Quantity  decimal.Decimal `db:"quantity"`
}

// InboundRecord is the open purchase order total of a product.
type InboundRecord struct {
	ProductID       string          `db:"product_id"`
	PendingQuantity decimal.Decimal `db:"pending_quantity"`
	ArrivalDate     sql.NullTime    `db:"arrival_date"`
}

func (r InboundRecord) Plan() forecast.InboundPlan {
	plan := forecast.InboundPlan{
		ProductID:       forecast.ProductID(r.ProductID),
		PendingQuantity: r.PendingQuantity,
	}
	if r.ArrivalDate.Valid {
		t := r.ArrivalDate.Time
		plan.ArrivalDate = &t
	}
	return plan
}

// PurchaseOrderLine is one line of a purchase order as loaded by the seeder.
type PurchaseOrderLine struct {
	PONumber   string          `db:"po_number"`
	ProductID  string          `db:"product_id"`
	Quantity   decimal.Decimal `db:"quantity"`
	Status     int             `db:"status"`
	ExpectedAt sql.NullTime    `db:"expected_at"`
}
