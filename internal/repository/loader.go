package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/jmoiron/sqlx"
)

// TxRunner runs fn inside a transaction. Satisfied by *postgres.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

// Loader writes seed and ingest data. Every method runs in one transaction.
type Loader struct {
	db TxRunner
}

func NewLoader(db TxRunner) *Loader {
	return &Loader{db: db}
}

// UpsertMaster inserts or updates master products of a unit.
func (l *Loader) UpsertMaster(ctx context.Context, unit domain.Unit, products []forecast.Product) (int, error) {
	table, err := MasterTable(unit)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (product_id, product_name, major_category, minor_category, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NOW())
		ON CONFLICT (product_id)
		DO UPDATE SET
			product_name = EXCLUDED.product_name,
			major_category = EXCLUDED.major_category,
			minor_category = EXCLUDED.minor_category,
			updated_at = NOW()
	`, table)

	count := 0
	err = l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare master upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			if _, err := stmt.ExecContext(ctx, string(p.ID), p.Name, p.MajorCategory, p.MinorCategory); err != nil {
				return fmt.Errorf("failed to upsert product %s: %w", p.ID, err)
			}
			count++
		}
		return nil
	})
	return count, err
}

// InsertShipments appends raw shipment lines. When replace is set the
// table is emptied first.
func (l *Loader) InsertShipments(ctx context.Context, records []domain.ShipmentRecord, replace bool) (int, error) {
	count := 0
	err := l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if replace {
			if _, err := tx.ExecContext(ctx, `DELETE FROM shipments`); err != nil {
				return fmt.Errorf("failed to clear shipments: %w", err)
			}
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO shipments (product_id, shipped_at, quantity)
			VALUES ($1, $2, $3)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare shipment insert: %w", err)
		}
		defer stmt.Close()

		for _, rec := range records {
			if _, err := stmt.ExecContext(ctx, rec.ProductID, rec.ShippedAt, rec.Quantity); err != nil {
				return fmt.Errorf("failed to insert shipment for %s: %w", rec.ProductID, err)
			}
			count++
		}
		return nil
	})
	return count, err
}

// ReplaceStock swaps the whole stock snapshot for positions. Locations are
// written in name order.
func (l *Loader) ReplaceStock(ctx context.Context, positions []forecast.StockPosition) (int, error) {
	count := 0
	err := l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_levels`); err != nil {
			return fmt.Errorf("failed to clear stock levels: %w", err)
		}

		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO stock_levels (product_id, location, quantity, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (product_id, location)
			DO UPDATE SET quantity = stock_levels.quantity + EXCLUDED.quantity, updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare stock insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range positions {
			names := make([]string, 0, len(p.Locations))
			for name := range p.Locations {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				if _, err := stmt.ExecContext(ctx, string(p.ProductID), name, p.Locations[name]); err != nil {
					return fmt.Errorf("failed to insert stock for %s/%s: %w", p.ProductID, name, err)
				}
				count++
			}
		}
		return nil
	})
	return count, err
}

// UpsertPurchaseOrderLines inserts or updates PO lines keyed by
// (po_number, product_id).
func (l *Loader) UpsertPurchaseOrderLines(ctx context.Context, lines []domain.PurchaseOrderLine) (int, error) {
	count := 0
	err := l.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO purchase_order_lines (po_number, product_id, quantity, status, expected_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (po_number, product_id)
			DO UPDATE SET
				quantity = EXCLUDED.quantity,
				status = EXCLUDED.status,
				expected_at = EXCLUDED.expected_at,
				updated_at = NOW()
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare purchase order upsert: %w", err)
		}
		defer stmt.Close()

		for _, line := range lines {
			if _, err := stmt.ExecContext(ctx, line.PONumber, line.ProductID, line.Quantity, line.Status, line.ExpectedAt); err != nil {
				return fmt.Errorf("failed to upsert purchase order %s/%s: %w", line.PONumber, line.ProductID, err)
			}
			count++
		}
		return nil
	})
	return count, err
}
