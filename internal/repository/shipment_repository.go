package repository

import (
	"context"
	"fmt"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
)

const monthlyShipmentsQuery = `
	SELECT product_id, to_char(shipped_at, 'YYMM') AS period, SUM(quantity) AS quantity
	FROM shipments
	GROUP BY 1, 2
	ORDER BY 2 DESC
`

const weeklyShipmentsQuery = `
	SELECT product_id, to_char(date_trunc('week', shipped_at), 'YYMMDD') || 'w' AS period, SUM(quantity) AS quantity
	FROM shipments
	GROUP BY 1, 2
	ORDER BY 2 DESC
`

type shipmentRepository struct {
	db Querier
}

func NewShipmentRepository(db Querier) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func shipmentsQuery(kind forecast.PeriodKind) (string, error) {
	switch kind {
	case forecast.Monthly:
		return monthlyShipmentsQuery, nil
	case forecast.Weekly:
		return weeklyShipmentsQuery, nil
	default:
		return "", fmt.Errorf("unknown period kind %d", kind)
	}
}

// Aggregate sums shipped quantities per product and period code.
func (r *shipmentRepository) Aggregate(ctx context.Context, kind forecast.PeriodKind) ([]forecast.ShipmentRow, error) {
	query, err := shipmentsQuery(kind)
	if err != nil {
		return nil, err
	}

	var aggregates []domain.ShipmentAggregate
	if err := r.db.SelectContext(ctx, &aggregates, query); err != nil {
		return nil, fmt.Errorf("error aggregating %s shipments: %w", kind, err)
	}

	rows := make([]forecast.ShipmentRow, len(aggregates))
	for i, a := range aggregates {
		rows[i] = forecast.ShipmentRow{
			ProductID: forecast.ProductID(a.ProductID),
			Period:    forecast.PeriodCode(a.Period),
			Quantity:  a.Quantity,
		}
	}
	return rows, nil
}
