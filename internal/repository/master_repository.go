package repository

import (
	"context"
	"fmt"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
)

type masterRepository struct {
	db Querier
}

func NewMasterRepository(db Querier) MasterRepository {
	return &masterRepository{db: db}
}

// MasterTable returns the table holding products of the given unit.
func MasterTable(unit domain.Unit) (string, error) {
	switch unit {
	case domain.UnitPack, "":
		return "product_master", nil
	case domain.UnitSet:
		return "set_master", nil
	default:
		return "", fmt.Errorf("unknown unit %q", unit)
	}
}

func (r *masterRepository) ListProducts(ctx context.Context, unit domain.Unit) ([]forecast.Product, error) {
	table, err := MasterTable(unit)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT product_id, product_name, major_category, minor_category
		FROM %s
		ORDER BY product_id
	`, table)

	var records []domain.MasterRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("error listing %s: %w", table, err)
	}

	products := make([]forecast.Product, len(records))
	for i, rec := range records {
		products[i] = rec.Product()
	}
	return products, nil
}

func (r *masterRepository) ListCategories(ctx context.Context, unit domain.Unit) ([]string, error) {
	table, err := MasterTable(unit)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT major_category
		FROM %s
		WHERE major_category IS NOT NULL AND major_category <> ''
		ORDER BY major_category
	`, table)

	var categories []string
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("error listing categories of %s: %w", table, err)
	}
	return categories, nil
}
