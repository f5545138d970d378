package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
)

// Store is the write side used to load decoded tables. Satisfied by
// *repository.Loader.
type Store interface {
	UpsertMaster(ctx context.Context, unit domain.Unit, products []forecast.Product) (int, error)
	InsertShipments(ctx context.Context, records []domain.ShipmentRecord, replace bool) (int, error)
	ReplaceStock(ctx context.Context, positions []forecast.StockPosition) (int, error)
	UpsertPurchaseOrderLines(ctx context.Context, lines []domain.PurchaseOrderLine) (int, error)
}

type LoadOptions struct {
	// Unit selects the master table; empty means pack.
	Unit domain.Unit
	// Replace empties the shipments table before inserting.
	Replace  bool
	Location *time.Location
}

type LoadResult struct {
	Kind        Kind                 `json:"kind"`
	Table       string               `json:"table"`
	Rows        int                  `json:"rows"`
	Written     int                  `json:"written"`
	Diagnostics forecast.Diagnostics `json:"diagnostics"`
}

// Load decodes t as kind and writes it through store.
func Load(ctx context.Context, store Store, kind Kind, t forecast.Table, opts LoadOptions) (*LoadResult, error) {
	result := &LoadResult{Kind: kind, Table: t.Name, Rows: len(t.Rows)}
	diag := &result.Diagnostics

	var err error
	switch kind {
	case KindMaster:
		unit := opts.Unit
		if unit == "" {
			unit = domain.UnitPack
		}
		var products []forecast.Product
		if products, err = Products(t); err == nil {
			result.Written, err = store.UpsertMaster(ctx, unit, products)
		}
	case KindShipments:
		var records []domain.ShipmentRecord
		if records, err = ShipmentRecords(t, opts.Location, diag); err == nil {
			result.Written, err = store.InsertShipments(ctx, records, opts.Replace)
		}
	case KindStock:
		var positions []forecast.StockPosition
		if positions, err = StockPositions(t, diag); err == nil {
			result.Written, err = store.ReplaceStock(ctx, positions)
		}
	case KindInbound:
		var lines []domain.PurchaseOrderLine
		if lines, err = PurchaseOrderLines(t, opts.Location, diag); err == nil {
			result.Written, err = store.UpsertPurchaseOrderLines(ctx, lines)
		}
	default:
		return nil, fmt.Errorf("unknown ingest kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s from %s: %w", kind, t.Name, err)
	}
	return result, nil
}
