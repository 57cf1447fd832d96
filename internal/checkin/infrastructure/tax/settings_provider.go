package tax

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const defaultSettingsTable = "organisation_settings"

// ErrNoSettings indicates the tenant has no stored tax rate setting.
var ErrNoSettings = errors.New("tax provider: no settings row for tenant")

// SettingsProvider resolves the organisation's default tax rate from its
// settings row. Rates rarely change mid-session, so reads are cached for a
// short validity window.
type SettingsProvider struct {
	db    *sql.DB
	table string
	ttl   time.Duration

	mu     sync.Mutex
	cached map[string]cachedRate
}

type cachedRate struct {
	rate      decimal.Decimal
	expiresAt time.Time
}

// SettingsOption configures the provider.
type SettingsOption func(*SettingsProvider)

// WithSettingsTable overrides the settings table name.
func WithSettingsTable(table string) SettingsOption {
	return func(p *SettingsProvider) {
		if table != "" {
			p.table = table
		}
	}
}

// WithCacheTTL sets the cache validity window.
func WithCacheTTL(ttl time.Duration) SettingsOption {
	return func(p *SettingsProvider) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// NewSettingsProvider constructs a provider with defaults.
func NewSettingsProvider(db *sql.DB, opts ...SettingsOption) *SettingsProvider {
	p := &SettingsProvider{
		db:     db,
		table:  defaultSettingsTable,
		ttl:    30 * time.Second,
		cached: make(map[string]cachedRate),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RateAt returns the tenant's default tax rate as a decimal fraction.
func (p *SettingsProvider) RateAt(ctx context.Context, tenantID string, at time.Time) (decimal.Decimal, error) {
	if p == nil || p.db == nil {
		return decimal.Zero, errors.New("tax provider: nil db")
	}
	if tenantID == "" {
		return decimal.Zero, errors.New("tax provider: empty tenant id")
	}

	p.mu.Lock()
	entry, ok := p.cached[tenantID]
	p.mu.Unlock()
	if ok && at.Before(entry.expiresAt) {
		return entry.rate, nil
	}

	query := fmt.Sprintf(`
SELECT default_tax_rate
FROM %s
WHERE tenant_id = $1
LIMIT 1`, p.table)

	var raw string
	if err := p.db.QueryRowContext(ctx, query, tenantID).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ErrNoSettings
		}
		return decimal.Zero, err
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("tax provider: invalid stored rate %q", raw)
	}
	if rate.IsNegative() {
		return decimal.Zero, errors.New("tax provider: negative stored rate")
	}

	p.mu.Lock()
	p.cached[tenantID] = cachedRate{rate: rate, expiresAt: at.Add(p.ttl)}
	p.mu.Unlock()
	return rate, nil
}
