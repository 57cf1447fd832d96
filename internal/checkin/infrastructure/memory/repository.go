package memory

import (
	"context"
	"sync"
	"time"

	checkin "flightops-cloud/internal/checkin/domain"
)

// BookingRepository is an in-memory booking store.
type BookingRepository struct {
	mu     sync.RWMutex
	data   map[string]*checkin.Booking
	drafts map[string]*checkin.DraftCalculation
}

// NewBookingRepository constructs a repository.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		data:   make(map[string]*checkin.Booking),
		drafts: make(map[string]*checkin.DraftCalculation),
	}
}

// Put seeds or replaces a booking.
func (r *BookingRepository) Put(booking *checkin.Booking) {
	if booking == nil {
		return
	}
	r.mu.Lock()
	r.data[booking.ID] = cloneBooking(booking)
	r.mu.Unlock()
}

// Get loads a booking.
func (r *BookingRepository) Get(ctx context.Context, bookingID string) (*checkin.Booking, error) {
	_ = ctx
	r.mu.RLock()
	booking := r.data[bookingID]
	r.mu.RUnlock()
	if booking == nil {
		return nil, nil
	}
	return cloneBooking(booking), nil
}

// GetDraft loads the booking's last draft calculation.
func (r *BookingRepository) GetDraft(ctx context.Context, bookingID string) (*checkin.DraftCalculation, error) {
	_ = ctx
	r.mu.RLock()
	draft := r.drafts[bookingID]
	r.mu.RUnlock()
	if draft == nil {
		return nil, nil
	}
	return cloneDraft(draft), nil
}

// ReplaceDraft overwrites the booking's draft.
func (r *BookingRepository) ReplaceDraft(ctx context.Context, bookingID string, draft *checkin.DraftCalculation) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	booking := r.data[bookingID]
	if booking == nil {
		return checkin.ErrBookingNotFound
	}
	if booking.IsApproved() {
		return checkin.ErrAlreadyApproved
	}
	r.drafts[bookingID] = cloneDraft(draft)
	return nil
}

// UpdateReadings overwrites the booking's meter readings.
func (r *BookingRepository) UpdateReadings(ctx context.Context, bookingID string, readings checkin.MeterReadings) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	booking := r.data[bookingID]
	if booking == nil {
		return checkin.ErrBookingNotFound
	}
	if booking.IsApproved() {
		return checkin.ErrAlreadyApproved
	}
	booking.Readings = readings
	return nil
}

// MarkApproved sets both approval markers in one step. A second approval
// attempt fails.
func (r *BookingRepository) MarkApproved(ctx context.Context, bookingID, invoiceID string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	booking := r.data[bookingID]
	if booking == nil {
		return checkin.ErrBookingNotFound
	}
	if booking.IsApproved() {
		return checkin.ErrAlreadyApproved
	}
	approvedAt := at
	booking.CheckinApprovedAt = &approvedAt
	booking.CheckinInvoiceID = invoiceID
	return nil
}

func cloneBooking(booking *checkin.Booking) *checkin.Booking {
	if booking == nil {
		return nil
	}
	copied := *booking
	if booking.CheckinApprovedAt != nil {
		at := *booking.CheckinApprovedAt
		copied.CheckinApprovedAt = &at
	}
	return &copied
}

func cloneDraft(draft *checkin.DraftCalculation) *checkin.DraftCalculation {
	if draft == nil {
		return nil
	}
	copied := *draft
	copied.Items = append([]checkin.InvoiceLineItem(nil), draft.Items...)
	copied.Lines = append([]checkin.CalculatedLine(nil), draft.Lines...)
	return &copied
}
