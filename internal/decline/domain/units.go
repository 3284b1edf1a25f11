package decline

import (
	"math"
	"time"
)

// DaysPerYear is the year length used to convert elapsed days to years.
const DaysPerYear = 365.0

// PercentToFraction converts a percentage (0-100) to a fraction (0-1).
func PercentToFraction(pct float64) float64 {
	return pct / 100
}

// DaysToYears converts whole days to years.
func DaysToYears(days int) float64 {
	return float64(days) / DaysPerYear
}

// ElapsedDays returns the whole calendar days from origin to at.
// Both values are truncated to their UTC date first, so the result is signed.
func ElapsedDays(origin, at time.Time) int {
	o := truncateToDay(origin)
	a := truncateToDay(at)
	return int(math.Round(a.Sub(o).Hours() / 24))
}

// ElapsedYears returns the signed elapsed time in years from origin to at.
func ElapsedYears(origin, at time.Time) float64 {
	return DaysToYears(ElapsedDays(origin, at))
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
