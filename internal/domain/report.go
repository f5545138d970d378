package domain

import (
	"time"

	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
)

// RiskReport is the response of an assessment run.
type RiskReport struct {
	Unit        Unit                      `json:"unit"`
	PeriodKind  string                    `json:"period_kind"`
	WindowSize  int                       `json:"window_size"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Total       int                       `json:"total"`
	Items       []forecast.RiskAssessment `json:"items"`
	Summary     map[forecast.Category]int `json:"summary"`
}

// RiskSummary counts products per category without the item list.
type RiskSummary struct {
	Unit        Unit                      `json:"unit"`
	PeriodKind  string                    `json:"period_kind"`
	WindowSize  int                       `json:"window_size"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Total       int                       `json:"total"`
	Counts      map[forecast.Category]int `json:"counts"`
}

// ShipmentTrend is one row of the shipment history table. Quantities follow
// the table's Periods (newest first); Trend runs oldest to newest.
type ShipmentTrend struct {
	ProductID     string            `json:"product_id"`
	ProductName   string            `json:"product_name"`
	MajorCategory string            `json:"major_category,omitempty"`
	Quantities    []decimal.Decimal `json:"quantities"`
	Trend         []decimal.Decimal `json:"trend"`
}

// ShipmentTrendTable is the shipment history of the filtered products over
// the most recent periods.
type ShipmentTrendTable struct {
	PeriodKind string          `json:"period_kind"`
	Periods    []string        `json:"periods"`
	Rows       []ShipmentTrend `json:"rows"`
}

// InventoryItem is a master product joined with its stock position.
type InventoryItem struct {
	ProductID     string                     `json:"product_id"`
	ProductName   string                     `json:"product_name"`
	MajorCategory string                     `json:"major_category,omitempty"`
	MinorCategory string                     `json:"minor_category,omitempty"`
	Locations     map[string]decimal.Decimal `json:"locations"`
	Total         decimal.Decimal            `json:"total"`
}

// Snapshot is the full set of engine inputs loaded for one request.
type Snapshot struct {
	Master    []forecast.Product       `json:"master"`
	Shipments []forecast.ShipmentRow   `json:"shipments"`
	Stock     []forecast.StockPosition `json:"stock"`
	Inbound   []forecast.InboundPlan   `json:"inbound"`
}
