package tax

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// FixedRateProvider returns a fixed tax rate fraction.
type FixedRateProvider struct {
	rate decimal.Decimal
}

// NewFixedRateProvider constructs the provider.
func NewFixedRateProvider(rate decimal.Decimal) (*FixedRateProvider, error) {
	if rate.IsNegative() {
		return nil, errors.New("tax provider: negative rate")
	}
	return &FixedRateProvider{rate: rate}, nil
}

// RateAt returns the configured fixed rate.
func (p *FixedRateProvider) RateAt(ctx context.Context, tenantID string, at time.Time) (decimal.Decimal, error) {
	_ = ctx
	_ = tenantID
	_ = at
	return p.rate, nil
}
