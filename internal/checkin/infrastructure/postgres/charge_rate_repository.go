package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	checkin "flightops-cloud/internal/checkin/domain"
)

const (
	defaultAircraftRatesTable   = "aircraft_charge_rates"
	defaultInstructorRatesTable = "instructor_charge_rates"
)

// ChargeRateRepository resolves aircraft and instructor charge rate rows.
// Rates are keyed by chargeable and flight type; a missing row is (nil, nil)
// so the caller can report its own precondition error.
type ChargeRateRepository struct {
	db               *sql.DB
	aircraftTable    string
	instructorsTable string
}

// ChargeRateOption configures the repository.
type ChargeRateOption func(*ChargeRateRepository)

// WithAircraftRatesTable overrides the aircraft rates table name.
func WithAircraftRatesTable(table string) ChargeRateOption {
	return func(r *ChargeRateRepository) {
		if table != "" {
			r.aircraftTable = table
		}
	}
}

// WithInstructorRatesTable overrides the instructor rates table name.
func WithInstructorRatesTable(table string) ChargeRateOption {
	return func(r *ChargeRateRepository) {
		if table != "" {
			r.instructorsTable = table
		}
	}
}

// NewChargeRateRepository constructs a repository with defaults.
func NewChargeRateRepository(db *sql.DB, opts ...ChargeRateOption) *ChargeRateRepository {
	repo := &ChargeRateRepository{
		db:               db,
		aircraftTable:    defaultAircraftRatesTable,
		instructorsTable: defaultInstructorRatesTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AircraftRate looks up the aircraft's rate for a flight type.
func (r *ChargeRateRepository) AircraftRate(ctx context.Context, aircraftID, flightTypeID string) (*checkin.ChargeRate, error) {
	return r.lookup(ctx, r.aircraftTable, "aircraft_id", aircraftID, flightTypeID)
}

// InstructorRate looks up the instructor's rate for a flight type.
func (r *ChargeRateRepository) InstructorRate(ctx context.Context, instructorID, flightTypeID string) (*checkin.ChargeRate, error) {
	return r.lookup(ctx, r.instructorsTable, "instructor_id", instructorID, flightTypeID)
}

func (r *ChargeRateRepository) lookup(ctx context.Context, table, keyColumn, chargeableID, flightTypeID string) (*checkin.ChargeRate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("charge rate repo: nil db")
	}
	if chargeableID == "" || flightTypeID == "" {
		return nil, nil
	}

	query := fmt.Sprintf(`
SELECT id, rate_per_hour, charge_hobbs, charge_tacho, charge_airswitch
FROM %s
WHERE %s = $1 AND flight_type_id = $2
LIMIT 1`, table, keyColumn)

	var rate checkin.ChargeRate
	row := r.db.QueryRowContext(ctx, query, chargeableID, flightTypeID)
	err := row.Scan(&rate.ID, &rate.RatePerHour, &rate.ChargeHobbs, &rate.ChargeTacho, &rate.ChargeAirswitch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rate, nil
}
