package checkin

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return parsed
}

func nd(t *testing.T, value string) decimal.NullDecimal {
	t.Helper()
	return decimal.NullDecimal{Decimal: d(t, value), Valid: true}
}

func noReading() decimal.NullDecimal { return decimal.NullDecimal{} }

func TestElapsedHours_MissingReadingsAreZero(t *testing.T) {
	if got := ElapsedHours(noReading(), nd(t, "102.0")); !got.IsZero() {
		t.Fatalf("expected zero for missing start, got %s", got)
	}
	if got := ElapsedHours(nd(t, "100.0"), noReading()); !got.IsZero() {
		t.Fatalf("expected zero for missing end, got %s", got)
	}
}

func TestElapsedHours_EqualReadingsAreZero(t *testing.T) {
	got := ElapsedHours(nd(t, "100.0"), nd(t, "100.0"))
	if !got.IsZero() {
		t.Fatalf("expected zero for equal readings, got %s", got)
	}
}

func TestElapsedHours_EndBeforeStartIsZeroNotNegative(t *testing.T) {
	got := ElapsedHours(nd(t, "102.0"), nd(t, "100.0"))
	if !got.IsZero() {
		t.Fatalf("expected zero for end before start, got %s", got)
	}
}

func TestElapsedHours_RoundsToOneDecimal(t *testing.T) {
	got := ElapsedHours(nd(t, "100.00"), nd(t, "101.26"))
	if !got.Equal(d(t, "1.3")) {
		t.Fatalf("expected 1.3, got %s", got)
	}
	if got.Exponent() < -1 {
		t.Fatalf("expected one decimal place, got %s", got)
	}
}

func TestRound2(t *testing.T) {
	got := Round2(d(t, "10.005"))
	if !got.Equal(d(t, "10.01")) {
		t.Fatalf("expected 10.01, got %s", got)
	}
}
