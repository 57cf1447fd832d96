package application

import (
	"context"
	"errors"
	"testing"
	"time"

	checkin "flightops-cloud/internal/checkin/domain"
	"flightops-cloud/internal/checkin/infrastructure/memory"
	"flightops-cloud/internal/checkin/infrastructure/tax"

	"github.com/shopspring/decimal"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingInvoiceCreator struct {
	requests []InvoiceRequest
	nextID   string
	err      error
}

func (c *recordingInvoiceCreator) CreateInvoice(ctx context.Context, req InvoiceRequest) (string, error) {
	c.requests = append(c.requests, req)
	if c.err != nil {
		return "", c.err
	}
	if c.nextID == "" {
		return "inv-1", nil
	}
	return c.nextID, nil
}

func d(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	out, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", value, err)
	}
	return out
}

func nd(t *testing.T, value string) decimal.NullDecimal {
	t.Helper()
	return decimal.NullDecimal{Decimal: d(t, value), Valid: true}
}

type fixture struct {
	service  *CheckInService
	bookings *memory.BookingRepository
	rates    *memory.ChargeRateLookup
	invoices *recordingInvoiceCreator
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	bookings := memory.NewBookingRepository()
	rates := memory.NewChargeRateLookup()
	invoices := &recordingInvoiceCreator{}
	taxes, err := tax.NewFixedRateProvider(d(t, "0.15"))
	if err != nil {
		t.Fatalf("fixed tax provider: %v", err)
	}
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	service, err := NewCheckInService(bookings, rates, taxes, invoices, fixedClock{now: now}, BillingConfig{
		Currency:    "NZD",
		DueTermDays: 14,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &fixture{service: service, bookings: bookings, rates: rates, invoices: invoices, now: now}
}

func (f *fixture) seedDualBooking(t *testing.T) *checkin.Booking {
	t.Helper()

	booking := &checkin.Booking{
		ID:           "bk-1",
		TenantID:     "org-1",
		AircraftID:   "ac-1",
		InstructorID: "ins-1",
		FlightTypeID: "ft-dual",
		Instruction:  checkin.InstructionDual,
		Readings: checkin.MeterReadings{
			HobbsStart: nd(t, "100.0"),
			HobbsEnd:   nd(t, "101.5"),
		},
	}
	f.bookings.Put(booking)
	f.rates.PutAircraftRate("ac-1", "ft-dual", &checkin.ChargeRate{
		ID:          "rate-ac-1",
		RatePerHour: d(t, "200"),
		ChargeHobbs: true,
	})
	f.rates.PutInstructorRate("ins-1", "ft-dual", &checkin.ChargeRate{
		ID:          "rate-ins-1",
		RatePerHour: d(t, "80"),
		ChargeHobbs: true,
	})
	return booking
}

func TestCalculateProducesDraftAndSnapshotIsCalculated(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	ctx := context.Background()

	draft, err := f.service.Calculate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if draft.BillingBasis != checkin.BasisHobbs {
		t.Fatalf("expected hobbs basis, got %q", draft.BillingBasis)
	}
	if !draft.BillingHours.Equal(d(t, "1.5")) {
		t.Fatalf("expected 1.5 billing hours, got %s", draft.BillingHours)
	}
	if len(draft.Items) != 2 {
		t.Fatalf("expected aircraft and instructor lines, got %d", len(draft.Items))
	}
	if !draft.Totals.TotalAmount.Equal(d(t, "483.00")) {
		t.Fatalf("expected total 483.00, got %s", draft.Totals.TotalAmount)
	}

	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateCalculated {
		t.Fatalf("expected calculated state, got %q", snap.State)
	}
}

func TestCalculateClearsReadingsOutsideBasis(t *testing.T) {
	f := newFixture(t)
	booking := f.seedDualBooking(t)
	booking.Readings.TachoStart = nd(t, "50.0")
	booking.Readings.TachoEnd = nd(t, "51.0")
	f.bookings.Put(booking)
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	stored, err := f.bookings.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if stored.Readings.TachoStart.Valid || stored.Readings.TachoEnd.Valid {
		t.Fatal("expected tacho readings cleared after hobbs-basis calculation")
	}
	if !stored.Readings.HobbsEnd.Valid {
		t.Fatal("expected hobbs readings kept")
	}
}

func TestCalculateWithClearedReadingsStaysFreshAndApprovable(t *testing.T) {
	f := newFixture(t)
	booking := f.seedDualBooking(t)
	booking.Readings.TachoStart = nd(t, "50.0")
	booking.Readings.TachoEnd = nd(t, "51.0")
	f.bookings.Put(booking)
	ctx := context.Background()

	draft, err := f.service.Calculate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	// The clearing of the tacho readings is part of the calculation itself,
	// so the stored draft must fingerprint the cleared record.
	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateCalculated {
		t.Fatalf("expected state calculated right after calculate, got %q", snap.State)
	}
	if snap.Evaluation.Signature != draft.Signature {
		t.Fatal("expected the draft signature to match the cleared booking")
	}

	if _, err := f.service.Approve(ctx, "bk-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func TestCalculatePreconditionFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown booking", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.service.Calculate(ctx, "missing"); !errors.Is(err, checkin.ErrBookingNotFound) {
			t.Fatalf("expected ErrBookingNotFound, got %v", err)
		}
	})

	t.Run("no aircraft rate", func(t *testing.T) {
		f := newFixture(t)
		booking := f.seedDualBooking(t)
		booking.FlightTypeID = "ft-other"
		f.bookings.Put(booking)
		if _, err := f.service.Calculate(ctx, "bk-1"); !errors.Is(err, checkin.ErrNoAircraftRate) {
			t.Fatalf("expected ErrNoAircraftRate, got %v", err)
		}
	})

	t.Run("zero billable time", func(t *testing.T) {
		f := newFixture(t)
		booking := f.seedDualBooking(t)
		booking.Readings.HobbsEnd = booking.Readings.HobbsStart
		f.bookings.Put(booking)
		if _, err := f.service.Calculate(ctx, "bk-1"); !errors.Is(err, checkin.ErrZeroBillingHours) {
			t.Fatalf("expected ErrZeroBillingHours, got %v", err)
		}
	})
}

func TestEvaluateAfterCalculateStaysFresh(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	for i := 0; i < 3; i++ {
		snap, err := f.service.Evaluate(ctx, "bk-1")
		if err != nil {
			t.Fatalf("evaluate: %v", err)
		}
		if snap.State != checkin.StateCalculated {
			t.Fatalf("expected state to stay calculated, got %q", snap.State)
		}
	}
}

func TestChangedReadingMakesDraftStale(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	booking, err := f.bookings.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	booking.Readings.HobbsEnd = nd(t, "102.0")
	f.bookings.Put(booking)

	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateStale {
		t.Fatalf("expected stale state after reading change, got %q", snap.State)
	}
	if _, err := f.service.Approve(ctx, "bk-1"); !errors.Is(err, checkin.ErrDraftStale) {
		t.Fatalf("expected ErrDraftStale on approve, got %v", err)
	}
	if len(f.invoices.requests) != 0 {
		t.Fatal("no invoice should be created for a stale draft")
	}
}

func TestInstructorSwapMakesDraftStale(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	f.rates.PutInstructorRate("ins-2", "ft-dual", &checkin.ChargeRate{
		ID:          "rate-ins-2",
		RatePerHour: d(t, "95"),
		ChargeHobbs: true,
	})
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}

	booking, err := f.bookings.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	booking.InstructorID = "ins-2"
	f.bookings.Put(booking)

	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateStale {
		t.Fatalf("expected stale state after instructor swap, got %q", snap.State)
	}
}

func TestEditLineKeepsDraftFresh(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	price := d(t, "180")
	edited, err := f.service.EditLine(ctx, "bk-1", 0, checkin.LinePatch{UnitPrice: &price})
	if err != nil {
		t.Fatalf("edit line: %v", err)
	}
	if !edited.Lines[0].UnitPrice.Equal(price) {
		t.Fatalf("expected edited price %s, got %s", price, edited.Lines[0].UnitPrice)
	}

	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateCalculated {
		t.Fatalf("an operator edit must not make the draft stale, got %q", snap.State)
	}
}

func TestEditLineWithoutDraftFails(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	price := d(t, "180")

	_, err := f.service.EditLine(context.Background(), "bk-1", 0, checkin.LinePatch{UnitPrice: &price})
	if !errors.Is(err, checkin.ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
}

func TestApproveCreatesInvoiceAndLocksBooking(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	f.invoices.nextID = "inv-42"
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	approved, err := f.service.Approve(ctx, "bk-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.InvoiceID != "inv-42" {
		t.Fatalf("expected invoice id inv-42, got %q", approved.InvoiceID)
	}
	if !approved.ApprovedAt.Equal(f.now) {
		t.Fatalf("expected approval at %s, got %s", f.now, approved.ApprovedAt)
	}

	if len(f.invoices.requests) != 1 {
		t.Fatalf("expected one invoice request, got %d", len(f.invoices.requests))
	}
	req := f.invoices.requests[0]
	if req.TenantID != "org-1" || req.BookingID != "bk-1" {
		t.Fatalf("unexpected invoice request %+v", req)
	}
	if req.Currency != "NZD" {
		t.Fatalf("expected currency NZD, got %q", req.Currency)
	}
	if !req.DueDate.Equal(f.now.AddDate(0, 0, 14)) {
		t.Fatalf("expected due date 14 days out, got %s", req.DueDate)
	}
	if len(req.Items) != 2 {
		t.Fatalf("expected two invoice items, got %d", len(req.Items))
	}

	booking, err := f.bookings.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if !booking.IsApproved() || booking.CheckinInvoiceID != "inv-42" {
		t.Fatalf("expected booking locked with invoice id, got %+v", booking)
	}

	snap, err := f.service.Evaluate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if snap.State != checkin.StateApproved {
		t.Fatalf("expected approved state, got %q", snap.State)
	}
}

func TestApproveWithoutDraftFails(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)

	_, err := f.service.Approve(context.Background(), "bk-1")
	if !errors.Is(err, checkin.ErrNoDraft) {
		t.Fatalf("expected ErrNoDraft, got %v", err)
	}
	if len(f.invoices.requests) != 0 {
		t.Fatal("no invoice call expected without a draft")
	}
}

func TestApproveRemoteFailureLeavesBookingUnapproved(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	f.invoices.err = errors.New("invoicing unavailable")
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if _, err := f.service.Approve(ctx, "bk-1"); err == nil {
		t.Fatal("expected approve to surface the invoicing error")
	}

	booking, err := f.bookings.Get(ctx, "bk-1")
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if booking.IsApproved() {
		t.Fatal("booking must stay unapproved after a failed invoice call")
	}

	// The operator retries once the remote side recovers.
	f.invoices.err = nil
	if _, err := f.service.Approve(ctx, "bk-1"); err != nil {
		t.Fatalf("retry approve: %v", err)
	}
}

func TestApprovedBookingRejectsFurtherWrites(t *testing.T) {
	f := newFixture(t)
	f.seedDualBooking(t)
	ctx := context.Background()

	if _, err := f.service.Calculate(ctx, "bk-1"); err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if _, err := f.service.Approve(ctx, "bk-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := f.service.Calculate(ctx, "bk-1"); !errors.Is(err, checkin.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved on recalculate, got %v", err)
	}
	price := d(t, "10")
	if _, err := f.service.EditLine(ctx, "bk-1", 0, checkin.LinePatch{UnitPrice: &price}); !errors.Is(err, checkin.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved on edit, got %v", err)
	}
	if _, err := f.service.Approve(ctx, "bk-1"); !errors.Is(err, checkin.ErrAlreadyApproved) {
		t.Fatalf("expected ErrAlreadyApproved on second approve, got %v", err)
	}
	if len(f.invoices.requests) != 1 {
		t.Fatalf("expected exactly one invoice request, got %d", len(f.invoices.requests))
	}
}

func TestSoloSplitApprovalTotals(t *testing.T) {
	f := newFixture(t)
	booking := f.seedDualBooking(t)
	booking.HasSoloAtEnd = true
	booking.Readings.HobbsEnd = nd(t, "101.5")
	booking.Readings.HobbsSoloEnd = nd(t, "103.0")
	f.bookings.Put(booking)
	ctx := context.Background()

	draft, err := f.service.Calculate(ctx, "bk-1")
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if !draft.DualTime.Equal(d(t, "1.5")) || !draft.SoloTime.Equal(d(t, "1.5")) {
		t.Fatalf("expected 1.5 dual and 1.5 solo, got %s/%s", draft.DualTime, draft.SoloTime)
	}
	// Aircraft bills the full 3.0 hours, the instructor only the dual part.
	if !draft.Lines[0].Quantity.Equal(d(t, "3")) {
		t.Fatalf("expected aircraft quantity 3, got %s", draft.Lines[0].Quantity)
	}
	if !draft.Lines[1].Quantity.Equal(d(t, "1.5")) {
		t.Fatalf("expected instructor quantity 1.5, got %s", draft.Lines[1].Quantity)
	}
	if _, err := f.service.Approve(ctx, "bk-1"); err != nil {
		t.Fatalf("approve: %v", err)
	}
}
