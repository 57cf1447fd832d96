package tax

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RateProvider resolves a tenant's tax rate.
type RateProvider interface {
	RateAt(ctx context.Context, tenantID string, at time.Time) (decimal.Decimal, error)
}

// FallbackProvider asks the primary provider first and answers with a
// configured rate when the organisation has no stored setting. Other
// failures surface unchanged.
type FallbackProvider struct {
	primary  RateProvider
	fallback decimal.Decimal
}

// NewFallbackProvider constructs a provider with a fallback rate.
func NewFallbackProvider(primary RateProvider, fallback decimal.Decimal) (*FallbackProvider, error) {
	if primary == nil {
		return nil, errors.New("tax provider: nil primary provider")
	}
	if fallback.IsNegative() {
		return nil, errors.New("tax provider: negative fallback rate")
	}
	return &FallbackProvider{primary: primary, fallback: fallback}, nil
}

// RateAt returns the tenant's rate, or the fallback when none is stored.
func (p *FallbackProvider) RateAt(ctx context.Context, tenantID string, at time.Time) (decimal.Decimal, error) {
	rate, err := p.primary.RateAt(ctx, tenantID, at)
	if err == nil {
		return rate, nil
	}
	if errors.Is(err, ErrNoSettings) {
		return p.fallback, nil
	}
	return decimal.Zero, err
}
