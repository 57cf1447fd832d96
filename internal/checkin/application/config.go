package application

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// BillingConfig defines check-in billing defaults.
type BillingConfig struct {
	Currency       string  `yaml:"currency"`
	DueTermDays    int     `yaml:"due_term_days"`
	InvoiceNotes   string  `yaml:"invoice_notes"`
	FallbackTaxPct float64 `yaml:"fallback_tax_pct"`
}

// LoadBillingConfig loads billing config from yaml or env.
func LoadBillingConfig() (BillingConfig, error) {
	cfg := BillingConfig{
		Currency:       getenvDefault("BILLING_CURRENCY", "NZD"),
		DueTermDays:    getenvIntDefault("BILLING_DUE_TERM_DAYS", 14),
		InvoiceNotes:   os.Getenv("BILLING_INVOICE_NOTES"),
		FallbackTaxPct: getenvFloatDefault("BILLING_FALLBACK_TAX_PCT", 0),
	}

	if path := os.Getenv("BILLING_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.Currency == "" {
		return cfg, errors.New("billing config: currency required")
	}
	if cfg.DueTermDays <= 0 {
		return cfg, errors.New("billing config: due term days must be positive")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
