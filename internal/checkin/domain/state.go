package checkin

import "github.com/shopspring/decimal"

// State is the check-in billing state of a booking. It is derived, never
// stored: Approved comes from the booking's approval marker, the
// Calculated/Stale distinction is a pure function of signature equality.
type State string

const (
	StateUncalculated State = "uncalculated"
	StateCalculated   State = "calculated"
	StateStale        State = "stale"
	StateApproved     State = "approved"
)

// DeriveState tags the booking's position in the
// Uncalculated → Calculated ⇄ Stale → Approved machine.
// A stale draft still carries its last-known numbers for display, but it
// blocks approval until recalculated.
func DeriveState(booking *Booking, draft *DraftCalculation, currentSignature string) State {
	if booking.IsApproved() {
		return StateApproved
	}
	if draft == nil {
		return StateUncalculated
	}
	if draft.Signature != currentSignature {
		return StateStale
	}
	return StateCalculated
}

// Evaluation is the outcome of pricing a booking's current inputs. It is
// computed on every render and on both the calculate and approve
// transitions; approve re-runs it because inputs may have changed since the
// draft was built even without an edit.
type Evaluation struct {
	Basis           ChargeBasis     `json:"basis"`
	InstructorBasis ChargeBasis     `json:"instructor_basis"`
	Split           SplitResult     `json:"split"`
	SplitError      string          `json:"split_error,omitempty"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	Signature       string          `json:"signature"`

	// InstructorBasisConflictForSoloSplit is set when a dual+solo split is
	// active and the instructor's resolved basis differs from the
	// aircraft's. Mixed-basis time sourcing for the instructor is refused.
	InstructorBasisConflictForSoloSplit bool `json:"instructor_basis_conflict_for_solo_split"`

	splitErr error
}

// Evaluate resolves basis, split and signature from the booking's current
// inputs. It never fails; blocking conditions are carried in the result and
// reported by ValidateCalculate.
func Evaluate(booking *Booking, aircraftRate, instructorRate *ChargeRate, taxRate decimal.Decimal) Evaluation {
	eval := Evaluation{
		Basis:           ResolveBasis(aircraftRate),
		InstructorBasis: ResolveBasis(instructorRate),
		TaxRate:         taxRate,
		Signature:       ComputeSignature(booking, aircraftRate, instructorRate, taxRate),
	}

	split, err := ComputeSplit(eval.Basis, booking.Instruction, booking.HasSoloAtEnd, booking.Readings)
	if err != nil {
		eval.splitErr = err
		eval.SplitError = err.Error()
	}
	eval.Split = split

	if booking.HasSoloAtEnd && booking.Instruction.AllowsSoloSplit() &&
		booking.InstructorID != "" && instructorRate != nil &&
		eval.InstructorBasis != BasisNone && eval.InstructorBasis != eval.Basis {
		eval.InstructorBasisConflictForSoloSplit = true
	}
	return eval
}

// ValidateCalculate runs the calculate precondition chain. Each failing
// precondition aborts with its own reason; no partial draft is produced.
// The same chain gates approval.
func (e Evaluation) ValidateCalculate(booking *Booking, aircraftRate *ChargeRate) error {
	if booking == nil {
		return ErrBookingNotFound
	}
	if booking.IsApproved() {
		return ErrAlreadyApproved
	}
	if booking.AircraftID == "" {
		return ErrNoAircraft
	}
	if booking.FlightTypeID == "" {
		return ErrNoFlightType
	}
	if aircraftRate == nil {
		return ErrNoAircraftRate
	}
	if e.Basis == BasisNone {
		return ErrNoChargeBasis
	}
	if e.Basis == BasisAirswitch {
		return ErrAirswitchUnsupported
	}
	if e.splitErr != nil {
		return e.splitErr
	}
	if !e.Split.Total.IsPositive() {
		return ErrZeroBillingHours
	}
	if e.InstructorBasisConflictForSoloSplit {
		return ErrInstructorBasisConflict
	}
	return nil
}
