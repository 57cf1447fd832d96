package checkin

import "errors"

var (
	// ErrBookingNotFound is returned when the booking cannot be loaded.
	ErrBookingNotFound = errors.New("checkin: booking not found")
	// ErrAlreadyApproved is returned when billing inputs are mutated after approval.
	ErrAlreadyApproved = errors.New("checkin: booking is already approved and locked for billing")
	// ErrNoAircraft is returned when no aircraft is selected.
	ErrNoAircraft = errors.New("checkin: no aircraft selected")
	// ErrNoFlightType is returned when no flight type is selected.
	ErrNoFlightType = errors.New("checkin: no flight type selected")
	// ErrNoAircraftRate is returned when no charge rate exists for the aircraft and flight type.
	ErrNoAircraftRate = errors.New("checkin: no charge rate configured for the aircraft and flight type")
	// ErrNoChargeBasis is returned when none of the aircraft rate's basis flags are set.
	ErrNoChargeBasis = errors.New("checkin: no charge basis configured for the aircraft rate")
	// ErrAirswitchUnsupported is returned when billing would run on the airswitch meter.
	ErrAirswitchUnsupported = errors.New("checkin: unsupported configuration: airswitch billing is not supported for manual entry")
	// ErrZeroBillingHours is returned when no billable time was recorded.
	ErrZeroBillingHours = errors.New("checkin: billing hours must be greater than zero")
	// ErrInstructorBasisConflict is returned when a solo split is active and the
	// instructor rate resolves to a different meter than the aircraft rate.
	ErrInstructorBasisConflict = errors.New("checkin: instructor charge basis conflicts with aircraft basis for a solo split")
	// ErrNoDraft is returned when approval is attempted without a calculated draft.
	ErrNoDraft = errors.New("checkin: no draft calculation exists")
	// ErrDraftStale is returned when the draft no longer matches current inputs.
	ErrDraftStale = errors.New("checkin: draft is stale, recalculate before approving")
	// ErrEmptyDraft is returned when a draft has no line items.
	ErrEmptyDraft = errors.New("checkin: draft contains no line items")
	// ErrInvalidLine is returned when a draft line has a non-positive quantity or negative price.
	ErrInvalidLine = errors.New("checkin: draft line has non-positive quantity or negative unit price")
	// ErrNonPositiveTotal is returned when the draft total is not positive.
	ErrNonPositiveTotal = errors.New("checkin: draft total amount must be greater than zero")
	// ErrLineIndexOutOfRange is returned for an edit against a missing line.
	ErrLineIndexOutOfRange = errors.New("checkin: line index out of range")
)
