package forecast

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "expected %s, got %s", want, got.String())
}

func mustSeries(t *testing.T, rows ...ShipmentRow) ShipmentSeries {
	t.Helper()
	s, err := NewShipmentSeries(rows)
	require.NoError(t, err)
	return s
}

func ship(id, period, qty string) ShipmentRow {
	return ShipmentRow{ProductID: ProductID(id), Period: PeriodCode(period), Quantity: dec(qty)}
}

func TestComputeAverageRate_MeanOfWindow(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2401", "100"),
		ship("A", "2402", "120"),
		ship("A", "2403", "80"),
	)

	assertDecimal(t, "100", ComputeAverageRate(series, "A", 3))
}

func TestComputeAverageRate_UsesMostRecentPeriods(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2312", "1000"),
		ship("A", "2401", "100"),
		ship("A", "2402", "120"),
		ship("A", "2403", "80"),
	)

	// 2312 falls outside a window of 3.
	assertDecimal(t, "100", ComputeAverageRate(series, "A", 3))
	assertDecimal(t, "325", ComputeAverageRate(series, "A", 4))
}

func TestComputeAverageRate_MissingPeriodsCountAsZero(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2401", "90"),
		ship("A", "2403", "60"),
		ship("B", "2402", "10"),
	)

	// Window spans 2401..2403; A has nothing in 2402.
	assertDecimal(t, "50", ComputeAverageRate(series, "A", 3))
}

func TestComputeAverageRate_ShortSeriesIsPadded(t *testing.T) {
	series := mustSeries(t, ship("A", "2403", "40"))

	assertDecimal(t, "10", ComputeAverageRate(series, "A", 4))
}

func TestComputeAverageRate_NoHistory(t *testing.T) {
	series := mustSeries(t, ship("A", "2403", "40"))

	assert.True(t, ComputeAverageRate(series, "C", 4).IsZero())
	assert.True(t, ComputeAverageRate(ShipmentSeries{}, "C", 4).IsZero())
}

func TestComputeAverageRate_NonPositiveWindowActsAsOne(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2402", "10"),
		ship("A", "2403", "40"),
	)

	assertDecimal(t, "40", ComputeAverageRate(series, "A", 0))
	assertDecimal(t, "40", ComputeAverageRate(series, "A", -3))
}

func TestComputeAverageRate_Monotonic(t *testing.T) {
	lower := mustSeries(t,
		ship("A", "2401", "5"),
		ship("A", "2402", "0"),
		ship("A", "2403", "7"),
	)
	higher := mustSeries(t,
		ship("A", "2401", "5"),
		ship("A", "2402", "3"),
		ship("A", "2403", "9"),
	)

	for window := 1; window <= 5; window++ {
		lo := ComputeAverageRate(lower, "A", window)
		hi := ComputeAverageRate(higher, "A", window)
		assert.Truef(t, hi.GreaterThanOrEqual(lo), "window %d: %s < %s", window, hi, lo)
	}
}

func TestComputeAverageRate_NeverNegative(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2402", "-50"),
		ship("A", "2403", "10"),
	)

	assertDecimal(t, "5", ComputeAverageRate(series, "A", 2))
}

func TestNewShipmentSeries_SumsDuplicates(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2403", "10"),
		ship("A", "2403", "15"),
	)

	assertDecimal(t, "25", series.Quantity("A", "2403"))
	assert.Equal(t, []PeriodCode{"2403"}, series.Periods())
}

func TestNewShipmentSeries_PeriodsDescending(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2402", "1"),
		ship("B", "2403", "1"),
		ship("A", "2312", "1"),
	)

	assert.Equal(t, []PeriodCode{"2403", "2402", "2312"}, series.Periods())
	assert.Equal(t, 2, series.Products())
	assert.True(t, series.HasProduct("B"))
	assert.False(t, series.HasProduct("Z"))
}

func TestNewShipmentSeries_RejectsEmptyKeys(t *testing.T) {
	_, err := NewShipmentSeries([]ShipmentRow{ship("A", "2403", "1"), ship("", "2403", "1")})
	require.Error(t, err)

	var shapeErr *InputShapeError
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, TableShipments, shapeErr.Table)
	assert.Equal(t, ColProductID, shapeErr.Column)
	assert.Equal(t, 1, shapeErr.Row)

	_, err = NewShipmentSeries([]ShipmentRow{ship("A", "", "1")})
	require.ErrorAs(t, err, &shapeErr)
	assert.Equal(t, ColPeriod, shapeErr.Column)
}

func TestCoverage_AtLeast(t *testing.T) {
	assert.True(t, UnboundedCoverage.AtLeast(dec("1000000")))
	assert.True(t, Coverage{Periods: dec("1")}.AtLeast(dec("1")))
	assert.False(t, Coverage{Periods: dec("0.99")}.AtLeast(dec("1")))
}

func TestCoverage_MarshalJSON(t *testing.T) {
	b, err := UnboundedCoverage.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(b))

	b, err = Coverage{Periods: dec("0.5")}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"0.5"`, string(b))
}

func TestCoverageAndRunway_JSONRoundTrip(t *testing.T) {
	type row struct {
		Current Coverage `json:"current"`
		Runway  Runway   `json:"runway"`
	}

	finite := row{
		Current: Coverage{Periods: dec("1.25")},
		Runway:  Runway{Days: dec("37.5")},
	}
	b, err := json.Marshal(finite)
	require.NoError(t, err)

	var got row
	require.NoError(t, json.Unmarshal(b, &got))
	assert.False(t, got.Current.Unbounded)
	assertDecimal(t, "1.25", got.Current.Periods)
	assert.False(t, got.Runway.Unbounded)
	assertDecimal(t, "37.5", got.Runway.Days)

	unbounded := row{Current: UnboundedCoverage, Runway: Runway{Unbounded: true}}
	b, err = json.Marshal(unbounded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"current":null,"runway":null}`, string(b))

	got = row{}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, got.Current.Unbounded)
	assert.True(t, got.Runway.Unbounded)

	assert.Error(t, json.Unmarshal([]byte(`{"current":"lots"}`), &got))
}
