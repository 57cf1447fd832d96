package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	checkin "flightops-cloud/internal/checkin/domain"
	"flightops-cloud/internal/observability/metrics"

	"github.com/shopspring/decimal"
)

// BookingRepository supplies booking records and accepts the writes this
// core is allowed to make. Implementations must reject billing writes for
// bookings whose approval marker is already set.
type BookingRepository interface {
	Get(ctx context.Context, bookingID string) (*checkin.Booking, error)
	GetDraft(ctx context.Context, bookingID string) (*checkin.DraftCalculation, error)
	ReplaceDraft(ctx context.Context, bookingID string, draft *checkin.DraftCalculation) error
	UpdateReadings(ctx context.Context, bookingID string, readings checkin.MeterReadings) error
	// MarkApproved writes checkin_approved_at and checkin_invoice_id as one
	// atomic unit and fails on an already-approved booking.
	MarkApproved(ctx context.Context, bookingID, invoiceID string, at time.Time) error
}

// ChargeRateLookup resolves configured charge rates. A missing rate is
// (nil, nil), not an error.
type ChargeRateLookup interface {
	AircraftRate(ctx context.Context, aircraftID, flightTypeID string) (*checkin.ChargeRate, error)
	InstructorRate(ctx context.Context, instructorID, flightTypeID string) (*checkin.ChargeRate, error)
}

// TaxRateProvider supplies the organisation's current default tax rate as a
// decimal fraction (0.15 for 15%).
type TaxRateProvider interface {
	RateAt(ctx context.Context, tenantID string, at time.Time) (decimal.Decimal, error)
}

// InvoiceRequest is the finalized payload handed to the invoicing boundary.
type InvoiceRequest struct {
	TenantID  string                    `json:"tenant_id"`
	BookingID string                    `json:"booking_id"`
	Reference string                    `json:"reference"`
	Currency  string                    `json:"currency"`
	TaxRate   decimal.Decimal           `json:"tax_rate"`
	DueDate   time.Time                 `json:"due_date"`
	Notes     string                    `json:"notes,omitempty"`
	Items     []checkin.InvoiceLineItem `json:"items"`
}

// InvoiceCreator creates an invoice on the external invoicing service.
// The call is treated as a single atomic remote operation; failures are
// surfaced verbatim and never retried silently.
type InvoiceCreator interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (string, error)
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Snapshot is the current check-in view of a booking: the derived state,
// the live evaluation and the last draft (stale drafts keep their numbers
// for display).
type Snapshot struct {
	Booking    *checkin.Booking          `json:"booking"`
	Evaluation checkin.Evaluation        `json:"evaluation"`
	Draft      *checkin.DraftCalculation `json:"draft,omitempty"`
	State      checkin.State             `json:"state"`
}

// ApprovalResult reports a completed approval.
type ApprovalResult struct {
	BookingID  string    `json:"booking_id"`
	InvoiceID  string    `json:"invoice_id"`
	ApprovedAt time.Time `json:"approved_at"`
}

// CheckInService orchestrates the check-in billing transitions.
type CheckInService struct {
	bookings BookingRepository
	rates    ChargeRateLookup
	tax      TaxRateProvider
	invoices InvoiceCreator
	clock    Clock
	cfg      BillingConfig
}

// NewCheckInService constructs the service.
func NewCheckInService(
	bookings BookingRepository,
	rates ChargeRateLookup,
	tax TaxRateProvider,
	invoices InvoiceCreator,
	clock Clock,
	cfg BillingConfig,
) (*CheckInService, error) {
	if bookings == nil {
		return nil, errors.New("checkin service: nil booking repository")
	}
	if rates == nil {
		return nil, errors.New("checkin service: nil charge rate lookup")
	}
	if tax == nil {
		return nil, errors.New("checkin service: nil tax rate provider")
	}
	if invoices == nil {
		return nil, errors.New("checkin service: nil invoice creator")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &CheckInService{
		bookings: bookings,
		rates:    rates,
		tax:      tax,
		invoices: invoices,
		clock:    clock,
		cfg:      cfg,
	}, nil
}

// Evaluate prices the booking's current inputs without producing a draft.
// It is pure over in-memory state apart from the rate/tax reads and may run
// on every input change.
func (s *CheckInService) Evaluate(ctx context.Context, bookingID string) (*Snapshot, error) {
	booking, aircraftRate, instructorRate, taxRate, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	draft, err := s.bookings.GetDraft(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	eval := checkin.Evaluate(booking, aircraftRate, instructorRate, taxRate)
	return &Snapshot{
		Booking:    booking,
		Evaluation: eval,
		Draft:      draft,
		State:      checkin.DeriveState(booking, draft, eval.Signature),
	}, nil
}

// Calculate runs the full precondition chain and replaces the booking's
// draft. Any failing precondition aborts with its specific reason and no
// partial draft is produced.
func (s *CheckInService) Calculate(ctx context.Context, bookingID string) (*checkin.DraftCalculation, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveCheckinCalculate(result, time.Since(start))
	}()

	booking, aircraftRate, instructorRate, taxRate, err := s.load(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	eval := checkin.Evaluate(booking, aircraftRate, instructorRate, taxRate)
	if err := eval.ValidateCalculate(booking, aircraftRate); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	// Once the basis is known, readings for the other meters are cleared so
	// misleading values are not kept on the record. The clearing happens
	// before the draft is signed; the draft must fingerprint the readings it
	// leaves behind, or it would be stale the moment it is stored.
	cleared := booking.Readings.ClearOutsideBasis(eval.Basis, booking.Instruction)
	if cleared != booking.Readings {
		if err := s.bookings.UpdateReadings(ctx, booking.ID, cleared); err != nil {
			result = metrics.ResultError
			return nil, err
		}
		booking.Readings = cleared
		eval = checkin.Evaluate(booking, aircraftRate, instructorRate, taxRate)
	}

	items := checkin.BuildLineItems(checkin.DraftInput{
		Basis:          eval.Basis,
		Split:          eval.Split,
		AircraftID:     booking.AircraftID,
		AircraftRate:   aircraftRate,
		InstructorID:   booking.InstructorID,
		InstructorRate: instructorRate,
		Instruction:    booking.Instruction,
		HasSoloAtEnd:   booking.HasSoloAtEnd,
		TaxRate:        taxRate,
		Readings:       booking.Readings,
	})
	draft := checkin.NewDraftCalculation(eval.Signature, s.clock.Now().UTC(), eval.Basis, eval.Split, items)

	if err := s.bookings.ReplaceDraft(ctx, booking.ID, draft); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return draft, nil
}

// EditLine applies an operator adjustment to one draft line. The draft's
// signature is untouched, so an edit alone never makes the draft stale.
func (s *CheckInService) EditLine(ctx context.Context, bookingID string, index int, patch checkin.LinePatch) (*checkin.DraftCalculation, error) {
	result := metrics.ResultSuccess
	defer func() {
		metrics.IncCheckinLineEdit(result)
	}()

	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if booking == nil {
		result = metrics.ResultError
		return nil, checkin.ErrBookingNotFound
	}
	if booking.IsApproved() {
		result = metrics.ResultError
		return nil, checkin.ErrAlreadyApproved
	}

	draft, err := s.bookings.GetDraft(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	edited, err := draft.EditLine(index, patch)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if err := s.bookings.ReplaceDraft(ctx, bookingID, edited); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return edited, nil
}

// Approve re-validates every calculate precondition against live data,
// checks the draft is fresh and payable, creates the invoice and locks the
// booking. The invoice call and the approval markers are treated as one
// unit: if the remote call fails nothing is written and the operator may
// retry explicitly.
func (s *CheckInService) Approve(ctx context.Context, bookingID string) (*ApprovalResult, error) {
	start := time.Now()
	result := metrics.ResultSuccess
	defer func() {
		metrics.ObserveCheckinApprove(result, time.Since(start))
	}()

	booking, aircraftRate, instructorRate, taxRate, err := s.load(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}

	draft, err := s.bookings.GetDraft(ctx, bookingID)
	if err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if draft == nil {
		result = metrics.ResultError
		return nil, checkin.ErrNoDraft
	}

	// Inputs may have changed since calculation even without an edit, e.g.
	// a concurrently updated tax rate, so the whole chain runs again.
	eval := checkin.Evaluate(booking, aircraftRate, instructorRate, taxRate)
	if err := eval.ValidateCalculate(booking, aircraftRate); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	if draft.Signature != eval.Signature {
		result = metrics.ResultError
		return nil, checkin.ErrDraftStale
	}
	if err := draft.ValidateForApproval(); err != nil {
		result = metrics.ResultError
		return nil, err
	}

	now := s.clock.Now().UTC()
	invoiceStart := time.Now()
	invoiceID, err := s.invoices.CreateInvoice(ctx, InvoiceRequest{
		TenantID:  booking.TenantID,
		BookingID: booking.ID,
		Reference: fmt.Sprintf("Flight check-in %s", booking.ID),
		Currency:  s.cfg.Currency,
		TaxRate:   taxRate,
		DueDate:   now.AddDate(0, 0, s.cfg.DueTermDays),
		Notes:     s.cfg.InvoiceNotes,
		Items:     draft.Items,
	})
	if err != nil {
		metrics.ObserveInvoiceCreate(metrics.ResultError, time.Since(invoiceStart))
		result = metrics.ResultError
		return nil, err
	}
	metrics.ObserveInvoiceCreate(metrics.ResultSuccess, time.Since(invoiceStart))

	if err := s.bookings.MarkApproved(ctx, booking.ID, invoiceID, now); err != nil {
		result = metrics.ResultError
		return nil, err
	}
	return &ApprovalResult{BookingID: booking.ID, InvoiceID: invoiceID, ApprovedAt: now}, nil
}

func (s *CheckInService) load(ctx context.Context, bookingID string) (*checkin.Booking, *checkin.ChargeRate, *checkin.ChargeRate, decimal.Decimal, error) {
	if bookingID == "" {
		return nil, nil, nil, decimal.Zero, checkin.ErrBookingNotFound
	}
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, nil, nil, decimal.Zero, err
	}
	if booking == nil {
		return nil, nil, nil, decimal.Zero, checkin.ErrBookingNotFound
	}

	var aircraftRate *checkin.ChargeRate
	if booking.AircraftID != "" && booking.FlightTypeID != "" {
		aircraftRate, err = s.rates.AircraftRate(ctx, booking.AircraftID, booking.FlightTypeID)
		if err != nil {
			return nil, nil, nil, decimal.Zero, err
		}
	}
	var instructorRate *checkin.ChargeRate
	if booking.InstructorID != "" && booking.FlightTypeID != "" {
		instructorRate, err = s.rates.InstructorRate(ctx, booking.InstructorID, booking.FlightTypeID)
		if err != nil {
			return nil, nil, nil, decimal.Zero, err
		}
	}

	taxRate, err := s.tax.RateAt(ctx, booking.TenantID, s.clock.Now().UTC())
	if err != nil {
		return nil, nil, nil, decimal.Zero, err
	}
	return booking, aircraftRate, instructorRate, taxRate, nil
}
