package forecast

import "time"

// MonthlyCode returns the YYMM code of the month containing t.
func MonthlyCode(t time.Time) PeriodCode {
	return PeriodCode(t.Format("0601"))
}

// WeeklyCode returns the YYMMDD code of the Monday starting t's ISO week,
// suffixed with "w".
func WeeklyCode(t time.Time) PeriodCode {
	offset := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return PeriodCode(monday.Format("060102") + "w")
}

// Code returns the period code of t for this kind.
func (k PeriodKind) Code(t time.Time) PeriodCode {
	if k == Weekly {
		return WeeklyCode(t)
	}
	return MonthlyCode(t)
}
