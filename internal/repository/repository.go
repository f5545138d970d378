package repository

import (
	"context"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
)

// Querier is the read side of *postgres.DB and *sqlx.DB.
type Querier interface {
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type MasterRepository interface {
	ListProducts(ctx context.Context, unit domain.Unit) ([]forecast.Product, error)
	ListCategories(ctx context.Context, unit domain.Unit) ([]string, error)
}

type ShipmentRepository interface {
	Aggregate(ctx context.Context, kind forecast.PeriodKind) ([]forecast.ShipmentRow, error)
}

type StockRepository interface {
	ListPositions(ctx context.Context) ([]forecast.StockPosition, error)
}

type InboundRepository interface {
	ListOpen(ctx context.Context) ([]forecast.InboundPlan, error)
}
