package checkin

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstructionType classifies a flight type.
type InstructionType string

const (
	InstructionTrial InstructionType = "trial"
	InstructionDual  InstructionType = "dual"
	InstructionSolo  InstructionType = "solo"
)

// AllowsSoloSplit reports whether a solo-at-end split may be offered.
// Pure solo flights are 100% solo and never split.
func (t InstructionType) AllowsSoloSplit() bool {
	return t == InstructionTrial || t == InstructionDual
}

// MeterReadings holds the raw meter values captured at check-in, per basis.
// Only the readings for the active billing basis are meaningful.
type MeterReadings struct {
	HobbsStart   decimal.NullDecimal `json:"hobbs_start"`
	HobbsEnd     decimal.NullDecimal `json:"hobbs_end"`
	HobbsSoloEnd decimal.NullDecimal `json:"hobbs_solo_end"`

	TachoStart   decimal.NullDecimal `json:"tacho_start"`
	TachoEnd     decimal.NullDecimal `json:"tacho_end"`
	TachoSoloEnd decimal.NullDecimal `json:"tacho_solo_end"`

	AirswitchStart decimal.NullDecimal `json:"airswitch_start"`
	AirswitchEnd   decimal.NullDecimal `json:"airswitch_end"`
}

// ForBasis returns the start, end and solo-end readings for a basis.
// Airswitch has no solo-end meter.
func (m MeterReadings) ForBasis(basis ChargeBasis) (start, end, soloEnd decimal.NullDecimal) {
	switch basis {
	case BasisHobbs:
		return m.HobbsStart, m.HobbsEnd, m.HobbsSoloEnd
	case BasisTacho:
		return m.TachoStart, m.TachoEnd, m.TachoSoloEnd
	case BasisAirswitch:
		return m.AirswitchStart, m.AirswitchEnd, decimal.NullDecimal{}
	default:
		return decimal.NullDecimal{}, decimal.NullDecimal{}, decimal.NullDecimal{}
	}
}

// ClearOutsideBasis blanks readings that do not belong to the active basis,
// so misleading historical values are not stored once the basis is known.
// For pure solo flights the solo-end reading is cleared as well; it is never
// read for those flights.
func (m MeterReadings) ClearOutsideBasis(basis ChargeBasis, instruction InstructionType) MeterReadings {
	cleared := MeterReadings{}
	switch basis {
	case BasisHobbs:
		cleared.HobbsStart, cleared.HobbsEnd, cleared.HobbsSoloEnd = m.HobbsStart, m.HobbsEnd, m.HobbsSoloEnd
	case BasisTacho:
		cleared.TachoStart, cleared.TachoEnd, cleared.TachoSoloEnd = m.TachoStart, m.TachoEnd, m.TachoSoloEnd
	case BasisAirswitch:
		cleared.AirswitchStart, cleared.AirswitchEnd = m.AirswitchStart, m.AirswitchEnd
	}
	if !instruction.AllowsSoloSplit() {
		cleared.HobbsSoloEnd = decimal.NullDecimal{}
		cleared.TachoSoloEnd = decimal.NullDecimal{}
	}
	return cleared
}

// Booking is the check-in view of a booking record.
// CheckinApprovedAt and CheckinInvoiceID are owned exclusively by the
// approval transition; once CheckinApprovedAt is set the billing inputs are
// read-only.
type Booking struct {
	ID           string          `json:"id"`
	TenantID     string          `json:"tenant_id"`
	AircraftID   string          `json:"aircraft_id"`
	InstructorID string          `json:"instructor_id"`
	FlightTypeID string          `json:"flight_type_id"`
	Instruction  InstructionType `json:"instruction_type"`
	HasSoloAtEnd bool            `json:"has_solo_at_end"`
	Readings     MeterReadings   `json:"readings"`

	CheckinApprovedAt *time.Time `json:"checkin_approved_at,omitempty"`
	CheckinInvoiceID  string     `json:"checkin_invoice_id,omitempty"`
}

// IsApproved reports whether the booking passed the terminal approval
// transition.
func (b *Booking) IsApproved() bool {
	return b != nil && b.CheckinApprovedAt != nil && !b.CheckinApprovedAt.IsZero()
}
