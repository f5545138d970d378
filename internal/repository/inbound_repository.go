package repository

import (
	"context"
	"fmt"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/lib/pq"
)

type inboundRepository struct {
	db Querier
}

func NewInboundRepository(db Querier) InboundRepository {
	return &inboundRepository{db: db}
}

// ListOpen sums the quantity of open purchase order lines per product and
// takes the earliest expected arrival.
func (r *inboundRepository) ListOpen(ctx context.Context) ([]forecast.InboundPlan, error) {
	query := `
		SELECT
			product_id,
			SUM(quantity) AS pending_quantity,
			MIN(expected_at)::timestamp AS arrival_date
		FROM purchase_order_lines
		WHERE status = ANY($1::smallint[])
			AND quantity > 0
		GROUP BY product_id
		ORDER BY product_id
	`

	statuses := make([]int64, len(domain.OpenPOStatuses))
	for i, s := range domain.OpenPOStatuses {
		statuses[i] = int64(s)
	}

	var records []domain.InboundRecord
	if err := r.db.SelectContext(ctx, &records, query, pq.Array(statuses)); err != nil {
		return nil, fmt.Errorf("error listing open purchase orders: %w", err)
	}

	plans := make([]forecast.InboundPlan, len(records))
	for i, rec := range records {
		plans[i] = rec.Plan()
	}
	return plans, nil
}
