package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	checkin "flightops-cloud/internal/checkin/domain"
)

const (
	defaultBookingsTable = "bookings"
	defaultDraftsTable   = "checkin_drafts"
)

// BookingRepository is a Postgres implementation of the booking store.
// The draft lives in its own table, one row per booking, replaced on every
// recalculation.
type BookingRepository struct {
	db          *sql.DB
	table       string
	draftsTable string
}

// BookingOption configures the repository.
type BookingOption func(*BookingRepository)

// WithBookingsTable overrides the bookings table name.
func WithBookingsTable(table string) BookingOption {
	return func(r *BookingRepository) {
		if table != "" {
			r.table = table
		}
	}
}

// WithDraftsTable overrides the drafts table name.
func WithDraftsTable(table string) BookingOption {
	return func(r *BookingRepository) {
		if table != "" {
			r.draftsTable = table
		}
	}
}

// NewBookingRepository constructs a repository with defaults.
func NewBookingRepository(db *sql.DB, opts ...BookingOption) *BookingRepository {
	repo := &BookingRepository{
		db:          db,
		table:       defaultBookingsTable,
		draftsTable: defaultDraftsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// Get loads a booking. A missing booking is (nil, nil).
func (r *BookingRepository) Get(ctx context.Context, bookingID string) (*checkin.Booking, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}
	if bookingID == "" {
		return nil, checkin.ErrBookingNotFound
	}

	query := fmt.Sprintf(`
SELECT id, tenant_id, aircraft_id, instructor_id, flight_type_id, instruction_type, has_solo_at_end,
	hobbs_start, hobbs_end, hobbs_solo_end,
	tacho_start, tacho_end, tacho_solo_end,
	airswitch_start, airswitch_end,
	checkin_approved_at, checkin_invoice_id
FROM %s
WHERE id = $1
LIMIT 1`, r.table)

	var (
		booking     checkin.Booking
		aircraftID  sql.NullString
		instructor  sql.NullString
		flightType  sql.NullString
		instruction sql.NullString
		approvedAt  sql.NullTime
		invoiceID   sql.NullString
	)
	row := r.db.QueryRowContext(ctx, query, bookingID)
	err := row.Scan(
		&booking.ID, &booking.TenantID, &aircraftID, &instructor, &flightType, &instruction, &booking.HasSoloAtEnd,
		&booking.Readings.HobbsStart, &booking.Readings.HobbsEnd, &booking.Readings.HobbsSoloEnd,
		&booking.Readings.TachoStart, &booking.Readings.TachoEnd, &booking.Readings.TachoSoloEnd,
		&booking.Readings.AirswitchStart, &booking.Readings.AirswitchEnd,
		&approvedAt, &invoiceID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	booking.AircraftID = aircraftID.String
	booking.InstructorID = instructor.String
	booking.FlightTypeID = flightType.String
	booking.Instruction = checkin.InstructionType(instruction.String)
	if approvedAt.Valid {
		at := approvedAt.Time.UTC()
		booking.CheckinApprovedAt = &at
	}
	booking.CheckinInvoiceID = invoiceID.String
	return &booking, nil
}

// GetDraft loads the booking's last draft calculation, or nil.
func (r *BookingRepository) GetDraft(ctx context.Context, bookingID string) (*checkin.DraftCalculation, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("booking repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT payload
FROM %s
WHERE booking_id = $1
LIMIT 1`, r.draftsTable)

	var payload []byte
	if err := r.db.QueryRowContext(ctx, query, bookingID).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	var draft checkin.DraftCalculation
	if err := json.Unmarshal(payload, &draft); err != nil {
		return nil, fmt.Errorf("booking repo: corrupt draft payload: %w", err)
	}
	return &draft, nil
}

// ReplaceDraft upserts the booking's draft row. Writes against an approved
// booking are rejected.
func (r *BookingRepository) ReplaceDraft(ctx context.Context, bookingID string, draft *checkin.DraftCalculation) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}
	if err := r.ensureWritable(ctx, bookingID); err != nil {
		return err
	}
	payload, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (booking_id, signature, calculated_at, payload)
VALUES ($1, $2, $3, $4)
ON CONFLICT (booking_id) DO UPDATE
SET signature = EXCLUDED.signature, calculated_at = EXCLUDED.calculated_at, payload = EXCLUDED.payload`, r.draftsTable)

	_, err = r.db.ExecContext(ctx, query, bookingID, draft.Signature, draft.CalculatedAt, payload)
	return err
}

// UpdateReadings overwrites the booking's meter readings.
func (r *BookingRepository) UpdateReadings(ctx context.Context, bookingID string, readings checkin.MeterReadings) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET hobbs_start = $2, hobbs_end = $3, hobbs_solo_end = $4,
	tacho_start = $5, tacho_end = $6, tacho_solo_end = $7,
	airswitch_start = $8, airswitch_end = $9
WHERE id = $1 AND checkin_approved_at IS NULL`, r.table)

	res, err := r.db.ExecContext(ctx, query, bookingID,
		readings.HobbsStart, readings.HobbsEnd, readings.HobbsSoloEnd,
		readings.TachoStart, readings.TachoEnd, readings.TachoSoloEnd,
		readings.AirswitchStart, readings.AirswitchEnd,
	)
	if err != nil {
		return err
	}
	return r.requireWrite(ctx, bookingID, res)
}

// MarkApproved sets both approval markers in one statement. The guard in
// the WHERE clause makes a second approval, including a concurrent one,
// fail instead of overwriting.
func (r *BookingRepository) MarkApproved(ctx context.Context, bookingID, invoiceID string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("booking repo: nil db")
	}

	query := fmt.Sprintf(`
UPDATE %s
SET checkin_approved_at = $2, checkin_invoice_id = $3
WHERE id = $1 AND checkin_approved_at IS NULL`, r.table)

	res, err := r.db.ExecContext(ctx, query, bookingID, at.UTC(), invoiceID)
	if err != nil {
		return err
	}
	return r.requireWrite(ctx, bookingID, res)
}

func (r *BookingRepository) ensureWritable(ctx context.Context, bookingID string) error {
	booking, err := r.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return checkin.ErrBookingNotFound
	}
	if booking.IsApproved() {
		return checkin.ErrAlreadyApproved
	}
	return nil
}

// requireWrite distinguishes a missing booking from an approval-locked one
// when a guarded UPDATE touched no rows.
func (r *BookingRepository) requireWrite(ctx context.Context, bookingID string, res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	booking, err := r.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return checkin.ErrBookingNotFound
	}
	return checkin.ErrAlreadyApproved
}
