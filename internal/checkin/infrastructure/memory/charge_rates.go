package memory

import (
	"context"
	"sync"

	checkin "flightops-cloud/internal/checkin/domain"
)

// ChargeRateLookup is an in-memory charge rate store.
type ChargeRateLookup struct {
	mu          sync.RWMutex
	aircraft    map[string]*checkin.ChargeRate
	instructors map[string]*checkin.ChargeRate
}

// NewChargeRateLookup constructs a lookup.
func NewChargeRateLookup() *ChargeRateLookup {
	return &ChargeRateLookup{
		aircraft:    make(map[string]*checkin.ChargeRate),
		instructors: make(map[string]*checkin.ChargeRate),
	}
}

// PutAircraftRate seeds a rate for an aircraft+flight-type pair.
func (l *ChargeRateLookup) PutAircraftRate(aircraftID, flightTypeID string, rate *checkin.ChargeRate) {
	l.mu.Lock()
	l.aircraft[aircraftID+"|"+flightTypeID] = cloneRate(rate)
	l.mu.Unlock()
}

// PutInstructorRate seeds a rate for an instructor+flight-type pair.
func (l *ChargeRateLookup) PutInstructorRate(instructorID, flightTypeID string, rate *checkin.ChargeRate) {
	l.mu.Lock()
	l.instructors[instructorID+"|"+flightTypeID] = cloneRate(rate)
	l.mu.Unlock()
}

// AircraftRate returns the configured aircraft rate or nil.
func (l *ChargeRateLookup) AircraftRate(ctx context.Context, aircraftID, flightTypeID string) (*checkin.ChargeRate, error) {
	_ = ctx
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneRate(l.aircraft[aircraftID+"|"+flightTypeID]), nil
}

// InstructorRate returns the configured instructor rate or nil.
func (l *ChargeRateLookup) InstructorRate(ctx context.Context, instructorID, flightTypeID string) (*checkin.ChargeRate, error) {
	_ = ctx
	l.mu.RLock()
	defer l.mu.RUnlock()
	return cloneRate(l.instructors[instructorID+"|"+flightTypeID]), nil
}

func cloneRate(rate *checkin.ChargeRate) *checkin.ChargeRate {
	if rate == nil {
		return nil
	}
	copied := *rate
	return &copied
}
