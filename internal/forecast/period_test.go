package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyCode(t *testing.T) {
	assert.Equal(t, PeriodCode("2403"), MonthlyCode(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, PeriodCode("2501"), MonthlyCode(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestWeeklyCode(t *testing.T) {
	// 2024-03-04 is a Monday.
	monday := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, PeriodCode("240304w"), WeeklyCode(monday))
	assert.Equal(t, PeriodCode("240304w"), WeeklyCode(monday.AddDate(0, 0, 6)))
	assert.Equal(t, PeriodCode("240311w"), WeeklyCode(monday.AddDate(0, 0, 7)))
	// Crosses a month boundary.
	assert.Equal(t, PeriodCode("240226w"), WeeklyCode(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestPeriodKind(t *testing.T) {
	at := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, PeriodCode("2403"), Monthly.Code(at))
	assert.Equal(t, PeriodCode("240304w"), Weekly.Code(at))

	assert.Equal(t, int64(30), Monthly.DaysPerPeriod())
	assert.Equal(t, int64(7), Weekly.DaysPerPeriod())

	k, ok := ParsePeriodKind("weekly")
	assert.True(t, ok)
	assert.Equal(t, Weekly, k)
	_, ok = ParsePeriodKind("daily")
	assert.False(t, ok)
	assert.False(t, PeriodKind(7).Valid())
}

func TestWeeklyCodesSortChronologically(t *testing.T) {
	earlier := WeeklyCode(time.Date(2023, 12, 28, 0, 0, 0, 0, time.UTC))
	later := WeeklyCode(time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))

	assert.Less(t, string(earlier), string(later))
}
