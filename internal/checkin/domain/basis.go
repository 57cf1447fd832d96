package checkin

import "github.com/shopspring/decimal"

// ChargeBasis identifies which meter a rate is billed against.
type ChargeBasis string

const (
	BasisHobbs     ChargeBasis = "hobbs"
	BasisTacho     ChargeBasis = "tacho"
	BasisAirswitch ChargeBasis = "airswitch"
	// BasisNone means billing cannot proceed for the rate.
	BasisNone ChargeBasis = ""
)

// ChargeRate is a configured hourly rate for an aircraft+flight-type or
// instructor+flight-type pair. Read-only input; the basis flags come from
// external configuration and are not guaranteed consistent.
type ChargeRate struct {
	ID              string          `json:"id"`
	RatePerHour     decimal.Decimal `json:"rate_per_hour"`
	ChargeHobbs     bool            `json:"charge_hobbs"`
	ChargeTacho     bool            `json:"charge_tacho"`
	ChargeAirswitch bool            `json:"charge_airswitch"`
}

// ResolveBasis derives a single billing basis from a rate's flags. It is
// total: a missing rate or an all-false rate resolves to BasisNone, and a
// rate with multiple flags set degrades to the priority
// hobbs > tacho > airswitch. The priority is a compatibility policy for
// malformed configuration data, not a stated business rule.
func ResolveBasis(rate *ChargeRate) ChargeBasis {
	if rate == nil {
		return BasisNone
	}
	switch {
	case rate.ChargeHobbs:
		return BasisHobbs
	case rate.ChargeTacho:
		return BasisTacho
	case rate.ChargeAirswitch:
		return BasisAirswitch
	default:
		return BasisNone
	}
}
