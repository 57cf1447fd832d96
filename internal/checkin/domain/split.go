package checkin

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// SplitResult is the dual/solo breakdown of a flight's billable time.
// Total always equals Dual + Solo: both parts are rounded from directly
// observed meter deltas and summed, so there is no rounding drift between
// the parts and the whole.
type SplitResult struct {
	Total decimal.Decimal `json:"total"`
	Dual  decimal.Decimal `json:"dual"`
	Solo  decimal.Decimal `json:"solo"`
}

// ComputeSplit derives the dual/solo hour split for the active basis. The
// returned error is a descriptive blocking reason; a non-nil error means the
// split cannot be computed from the given inputs and no further calculation
// may proceed.
func ComputeSplit(basis ChargeBasis, instruction InstructionType, hasSoloAtEnd bool, readings MeterReadings) (SplitResult, error) {
	if basis == BasisNone {
		return SplitResult{}, ErrNoChargeBasis
	}
	if basis == BasisAirswitch {
		return SplitResult{}, ErrAirswitchUnsupported
	}

	start, end, soloEnd := readings.ForBasis(basis)

	if instruction == InstructionSolo {
		total := ElapsedHours(start, end)
		return SplitResult{Total: total, Dual: decimal.Zero, Solo: total}, nil
	}

	if !hasSoloAtEnd {
		total := ElapsedHours(start, end)
		return SplitResult{Total: total, Dual: total, Solo: decimal.Zero}, nil
	}

	// Split flight: the flight transitioned from instructed to solo
	// mid-flight, so start, dual-end and solo-end (the final reading) must
	// all be present and in order.
	if !start.Valid {
		return SplitResult{}, fmt.Errorf("checkin: %s start reading is required for a solo split", basis)
	}
	if !end.Valid {
		return SplitResult{}, fmt.Errorf("checkin: %s dual-end reading is required for a solo split", basis)
	}
	if !soloEnd.Valid {
		return SplitResult{}, fmt.Errorf("checkin: %s solo-end reading is required for a solo split", basis)
	}
	if end.Decimal.LessThan(start.Decimal) {
		return SplitResult{}, fmt.Errorf("checkin: %s dual-end reading %s is before the start reading %s", basis, end.Decimal, start.Decimal)
	}
	if soloEnd.Decimal.LessThan(end.Decimal) {
		return SplitResult{}, fmt.Errorf("checkin: %s solo-end reading %s is before the dual-end reading %s", basis, soloEnd.Decimal, end.Decimal)
	}

	dual := Round1(end.Decimal.Sub(start.Decimal))
	solo := Round1(soloEnd.Decimal.Sub(end.Decimal))
	return SplitResult{Total: dual.Add(solo), Dual: dual, Solo: solo}, nil
}
