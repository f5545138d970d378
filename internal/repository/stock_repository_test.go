package repository

import (
	"testing"

	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivotStock(t *testing.T) {
	records := []domain.StockLocationRecord{
		{ProductID: "00000002", Location: "tokyo", Quantity: decimal.NewFromInt(4)},
		{ProductID: "00000001", Location: "osaka", Quantity: decimal.NewFromInt(10)},
		{ProductID: "00000002", Location: "osaka", Quantity: decimal.NewFromInt(6)},
		{ProductID: "00000002", Location: "osaka", Quantity: decimal.NewFromInt(1)},
	}

	positions := pivotStock(records)

	require.Len(t, positions, 2)
	assert.Equal(t, forecast.ProductID("00000002"), positions[0].ProductID)
	assert.True(t, positions[0].Total.Equal(decimal.NewFromInt(11)))
	assert.True(t, positions[0].Locations["osaka"].Equal(decimal.NewFromInt(7)))
	assert.True(t, positions[1].Total.Equal(decimal.NewFromInt(10)))
}

func TestPivotStock_Empty(t *testing.T) {
	assert.Empty(t, pivotStock(nil))
}

func TestShipmentsQuery(t *testing.T) {
	monthly, err := shipmentsQuery(forecast.Monthly)
	require.NoError(t, err)
	assert.Contains(t, monthly, "'YYMM'")

	weekly, err := shipmentsQuery(forecast.Weekly)
	require.NoError(t, err)
	assert.Contains(t, weekly, "date_trunc('week'")
	assert.Contains(t, weekly, "|| 'w'")

	_, err = shipmentsQuery(forecast.PeriodKind(5))
	assert.Error(t, err)
}

func TestMasterTable(t *testing.T) {
	table, err := MasterTable(domain.UnitPack)
	require.NoError(t, err)
	assert.Equal(t, "product_master", table)

	table, err = MasterTable(domain.UnitSet)
	require.NoError(t, err)
	assert.Equal(t, "set_master", table)

	_, err = MasterTable("crate")
	assert.Error(t, err)
}
