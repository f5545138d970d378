package repository

import (
	"context"
	"fmt"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
)

type stockRepository struct {
	db Querier
}

func NewStockRepository(db Querier) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) ListPositions(ctx context.Context) ([]forecast.StockPosition, error) {
	query := `
		SELECT product_id, location, quantity
		FROM stock_levels
		ORDER BY product_id, location
	`

	var records []domain.StockLocationRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error listing stock levels: %w", err)
	}

	return pivotStock(records), nil
}

// pivotStock turns one row per (product, location) into one position per
// product, in first-seen order.
func pivotStock(records []domain.StockLocationRecord) []forecast.StockPosition {
	var order []string
	byProduct := make(map[string]map[string]decimal.Decimal)

	for _, rec := range records {
		locations, ok := byProduct[rec.ProductID]
		if !ok {
			locations = make(map[string]decimal.Decimal)
			byProduct[rec.ProductID] = locations
			order = append(order, rec.ProductID)
		}
		prev, ok := locations[rec.Location]
		if !ok {
			prev = decimal.Zero
		}
		locations[rec.Location] = prev.Add(rec.Quantity)
	}

	positions := make([]forecast.StockPosition, 0, len(order))
	for _, id := range order {
		positions = append(positions, forecast.NewStockPosition(forecast.ProductID(id), byProduct[id]))
	}
	return positions
}
