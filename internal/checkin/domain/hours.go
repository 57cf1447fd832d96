package checkin

import "github.com/shopspring/decimal"

// ElapsedHours computes billable hours from a meter reading pair.
// Missing readings or an end reading before the start yield zero, never a
// negative value. The result is rounded to one decimal place, the system-wide
// unit for billable flight time; downstream arithmetic operates on these
// rounded values so totals stay reproducible.
func ElapsedHours(start, end decimal.NullDecimal) decimal.Decimal {
	if !start.Valid || !end.Valid {
		return decimal.Zero
	}
	if end.Decimal.LessThan(start.Decimal) {
		return decimal.Zero
	}
	return Round1(end.Decimal.Sub(start.Decimal))
}

// Round1 rounds to one decimal place, the billable-time unit.
func Round1(d decimal.Decimal) decimal.Decimal { return d.Round(1) }

// Round2 rounds to two decimal places, the money unit.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }
