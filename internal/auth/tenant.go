package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrTenantMismatch indicates resource belongs to a different tenant.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("resource not found")
)

// BookingTenantChecker validates booking tenant ownership.
type BookingTenantChecker interface {
	EnsureBookingTenant(ctx context.Context, tenantID, bookingID string) error
}

// BookingChecker checks booking ownership against the bookings table.
type BookingChecker struct {
	db    *sql.DB
	table string
}

// NewBookingChecker constructs a BookingChecker.
func NewBookingChecker(db *sql.DB) *BookingChecker {
	if db == nil {
		return nil
	}
	return &BookingChecker{db: db, table: "bookings"}
}

// EnsureBookingTenant verifies the booking belongs to the tenant.
func (c *BookingChecker) EnsureBookingTenant(ctx context.Context, tenantID, bookingID string) error {
	if c == nil || c.db == nil {
		return nil
	}
	if tenantID == "" || bookingID == "" {
		return nil
	}
	query := fmt.Sprintf("SELECT tenant_id FROM %s WHERE id = $1 LIMIT 1", c.table)
	var owner string
	if err := c.db.QueryRowContext(ctx, query, bookingID).Scan(&owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if owner != tenantID {
		return ErrTenantMismatch
	}
	return nil
}
