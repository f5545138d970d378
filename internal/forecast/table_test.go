package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		cell   string
		want   string
		wantOK bool
	}{
		{"", "0", true},
		{"  ", "0", true},
		{"12", "12", true},
		{" 1,200 ", "1200", true},
		{"3.5", "3.5", true},
		{"abc", "0", false},
		{"-4", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			got, ok := ParseQuantity(tt.cell)
			assert.Equal(t, tt.wantOK, ok)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestParseArrivalDate(t *testing.T) {
	d, ok := ParseArrivalDate("2024-04-11")
	require.True(t, ok)
	require.NotNil(t, d)
	assert.Equal(t, 11, d.Day())

	d, ok = ParseArrivalDate("2024/04/12")
	require.True(t, ok)
	assert.Equal(t, 12, d.Day())

	d, ok = ParseArrivalDate("")
	assert.True(t, ok)
	assert.Nil(t, d)

	d, ok = ParseArrivalDate("next tuesday")
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestShipmentRowsFromTable(t *testing.T) {
	table := Table{
		Name:    TableShipments,
		Columns: []string{"product_id", "period", "quantity"},
		Rows: [][]string{
			{"A", "2403", "10"},
			{"A", "2403", "oops"},
			{"B", "2402", "5"},
		},
	}

	var diag Diagnostics
	rows, err := ShipmentRowsFromTable(table, &diag)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	series := mustSeries(t, rows...)

	assertDecimal(t, "10", series.Quantity("A", "2403"))
	assertDecimal(t, "5", series.Quantity("B", "2402"))
	assert.Equal(t, 1, diag.CoercionFallbacks)
	assert.Equal(t, 1, diag.ByColumn[ColQuantity])
}

func TestShipmentRowsFromTable_MissingColumn(t *testing.T) {
	table := Table{Columns: []string{"product_id", "quantity"}}

	_, err := ShipmentRowsFromTable(table, nil)

	var shapeErr *InputShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, ColPeriod, shapeErr.Column)
	assert.Equal(t, -1, shapeErr.Row)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestStockFromTable_LocationsSum(t *testing.T) {
	table := Table{
		Columns: []string{"product_id", "product_name", "tokyo", "osaka"},
		Rows: [][]string{
			{"A", "Alpha", "10", "5"},
			{"B", "Bravo", "", "x"},
		},
	}

	var diag Diagnostics
	positions, err := StockFromTable(table, &diag)
	require.NoError(t, err)
	require.Len(t, positions, 2)

	assertDecimal(t, "15", positions[0].Total)
	assertDecimal(t, "10", positions[0].Locations["tokyo"])
	assert.NotContains(t, positions[0].Locations, ColProductName)
	assertDecimal(t, "0", positions[1].Total)
	assert.Equal(t, 1, diag.ByColumn["osaka"])
}

func TestStockFromTable_TotalColumnWins(t *testing.T) {
	table := Table{
		Columns: []string{"product_id", "tokyo", "total"},
		Rows:    [][]string{{"A", "10", "40"}},
	}

	positions, err := StockFromTable(table, nil)
	require.NoError(t, err)

	assertDecimal(t, "40", positions[0].Total)
	assertDecimal(t, "10", positions[0].Locations["tokyo"])
}

func TestStockFromTable_EmptyID(t *testing.T) {
	table := Table{
		Columns: []string{"product_id", "tokyo"},
		Rows:    [][]string{{"A", "1"}, {" ", "2"}},
	}

	_, err := StockFromTable(table, nil)

	var shapeErr *InputShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, TableStock, shapeErr.Table)
	assert.Equal(t, 1, shapeErr.Row)
}

func TestInboundFromTable(t *testing.T) {
	table := Table{
		Columns: []string{"product_id", "pending_quantity", "arrival_date"},
		Rows: [][]string{
			{"A", "200", "2024-04-11"},
			{"B", "0", ""},
			{"C", "30", "soon"},
		},
	}

	var diag Diagnostics
	plans, err := InboundFromTable(table, &diag)
	require.NoError(t, err)
	require.Len(t, plans, 3)

	require.NotNil(t, plans[0].ArrivalDate)
	assertDecimal(t, "200", plans[0].PendingQuantity)
	assert.Nil(t, plans[1].ArrivalDate)
	assert.Nil(t, plans[2].ArrivalDate)
	assert.Equal(t, 1, diag.ByColumn[ColArrivalDate])
}

func TestProductsFromTable(t *testing.T) {
	table := Table{
		Columns: []string{"product_id", "product_name", "major_category"},
		Rows:    [][]string{{"00000012", "Widget", "tools"}},
	}

	products, err := ProductsFromTable(table)
	require.NoError(t, err)
	require.Len(t, products, 1)

	assert.Equal(t, ProductID("00000012"), products[0].ID)
	assert.Equal(t, "tools", products[0].MajorCategory)
	assert.Empty(t, products[0].MinorCategory)

	_, err = ProductsFromTable(Table{Columns: []string{"product_id"}})
	assert.True(t, IsInputShapeError(err))
}

func TestDiagnostics_Merge(t *testing.T) {
	var total Diagnostics
	total.Merge(Diagnostics{CoercionFallbacks: 2, ByColumn: map[string]int{"quantity": 2}})
	total.Merge(Diagnostics{CoercionFallbacks: 1, ByColumn: map[string]int{"quantity": 1}})
	total.Merge(Diagnostics{})

	assert.Equal(t, 3, total.CoercionFallbacks)
	assert.Equal(t, 3, total.ByColumn["quantity"])
}
