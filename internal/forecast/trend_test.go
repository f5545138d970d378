package forecast

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decimalsToStrings(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestExtractTrend_ChronologicalOrder(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2403", "80"),
		ship("A", "2401", "100"),
		ship("A", "2402", "120"),
	)

	trend := ExtractTrend(series, "A", 3)

	assert.Equal(t, []string{"100", "120", "80"}, decimalsToStrings(trend))
}

func TestExtractTrend_LastIsMostRecent(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2310", "1"),
		ship("A", "2311", "2"),
		ship("A", "2312", "3"),
		ship("A", "2401", "4"),
		ship("A", "2402", "5"),
	)

	trend := ExtractTrend(series, "A", 3)

	require.Len(t, trend, 3)
	assertDecimal(t, "5", trend[len(trend)-1])
	assertDecimal(t, "3", trend[0])
}

func TestExtractTrend_ZeroPadded(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2402", "7"),
		ship("A", "2403", "9"),
	)

	assert.Equal(t, []string{"0", "0", "7", "9"}, decimalsToStrings(ExtractTrend(series, "A", 4)))
	assert.Equal(t, []string{"0", "0", "0", "0"}, decimalsToStrings(ExtractTrend(series, "C", 4)))
	assert.Equal(t, []string{"0", "0", "0", "0"}, decimalsToStrings(ExtractTrend(ShipmentSeries{}, "C", 4)))
}

func TestExtractTrend_Restartable(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2402", "7"),
		ship("A", "2403", "9"),
	)

	first := ExtractTrend(series, "A", 2)
	first[0] = dec("999")
	second := ExtractTrend(series, "A", 2)

	assert.Equal(t, []string{"7", "9"}, decimalsToStrings(second))
}

func TestExtractTrend_MeanMatchesRate(t *testing.T) {
	series := mustSeries(t,
		ship("A", "2401", "13"),
		ship("A", "2403", "2"),
		ship("B", "2402", "5"),
	)

	for window := 1; window <= 6; window++ {
		assertDecimal(t, ComputeAverageRate(series, "A", window).String(), mean(ExtractTrend(series, "A", window)))
	}
}
