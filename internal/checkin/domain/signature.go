package checkin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// readingScale is the fixed scale decimals are rendered at inside the
// signature payload, so value-equal inputs hash equal regardless of how the
// operator typed them (1.5 vs 1.50).
const readingScale = 4

// signaturePayload is the canonical serialization of every input that
// affects pricing. Struct field order fixes the JSON key order, so equal
// values always produce equal bytes.
type signaturePayload struct {
	BookingID    string   `json:"booking_id"`
	AircraftID   string   `json:"aircraft_id"`
	InstructorID string   `json:"instructor_id"`
	FlightTypeID string   `json:"flight_type_id"`
	Instruction  string   `json:"instruction_type"`
	HasSoloAtEnd bool     `json:"has_solo_at_end"`
	Readings     []string `json:"readings"`

	AircraftRate   []string `json:"aircraft_rate"`
	InstructorRate []string `json:"instructor_rate"`
	TaxRate        string   `json:"tax_rate"`
}

// ComputeSignature fingerprints the priced inputs of a booking. Two
// signatures are equal iff the computed draft would be identical; staleness
// is decided by comparing this value against the signature stored on the
// last draft, never by timestamps.
func ComputeSignature(booking *Booking, aircraftRate, instructorRate *ChargeRate, taxRate decimal.Decimal) string {
	if booking == nil {
		return ""
	}
	payload := signaturePayload{
		BookingID:    booking.ID,
		AircraftID:   booking.AircraftID,
		InstructorID: booking.InstructorID,
		FlightTypeID: booking.FlightTypeID,
		Instruction:  string(booking.Instruction),
		HasSoloAtEnd: booking.HasSoloAtEnd,
		Readings: []string{
			canonical(booking.Readings.HobbsStart),
			canonical(booking.Readings.HobbsEnd),
			canonical(booking.Readings.HobbsSoloEnd),
			canonical(booking.Readings.TachoStart),
			canonical(booking.Readings.TachoEnd),
			canonical(booking.Readings.TachoSoloEnd),
			canonical(booking.Readings.AirswitchStart),
			canonical(booking.Readings.AirswitchEnd),
		},
		AircraftRate:   rateSnapshot(aircraftRate),
		InstructorRate: rateSnapshot(instructorRate),
		TaxRate:        taxRate.StringFixed(readingScale),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		// Marshal of a flat string struct cannot fail; keep the signature
		// defined anyway.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func rateSnapshot(rate *ChargeRate) []string {
	if rate == nil {
		return nil
	}
	return []string{
		rate.ID,
		rate.RatePerHour.StringFixed(readingScale),
		boolString(rate.ChargeHobbs),
		boolString(rate.ChargeTacho),
		boolString(rate.ChargeAirswitch),
	}
}

func canonical(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(readingScale)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
