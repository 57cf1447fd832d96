package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type config struct {
	dsn          string
	tenantID     string
	bookingCount int
	withSchema   bool
}

func main() {
	cfg := parseConfig()
	if cfg.dsn == "" {
		log.Fatal("PG_DSN or DATABASE_URL is required")
	}
	if cfg.bookingCount <= 0 {
		log.Fatal("booking-count must be > 0")
	}

	db, err := sql.Open("pgx", cfg.dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	if cfg.withSchema {
		log.Print("creating schema")
		if err := createSchema(ctx, db); err != nil {
			log.Fatalf("create schema: %v", err)
		}
	}

	log.Printf("seeding demo data: tenant=%s bookings=%d", cfg.tenantID, cfg.bookingCount)
	if err := seedDemo(ctx, db, cfg.tenantID, cfg.bookingCount); err != nil {
		log.Fatalf("seed demo: %v", err)
	}
	log.Print("done")
}

func parseConfig() config {
	cfg := config{}
	flag.StringVar(&cfg.dsn, "dsn", envDefault("PG_DSN", os.Getenv("DATABASE_URL")), "postgres dsn")
	flag.StringVar(&cfg.tenantID, "tenant", "org-demo", "tenant id")
	flag.IntVar(&cfg.bookingCount, "booking-count", 5, "number of demo bookings")
	flag.BoolVar(&cfg.withSchema, "schema", true, "create tables before seeding")
	flag.Parse()
	return cfg
}

func envDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func createSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			aircraft_id TEXT,
			instructor_id TEXT,
			flight_type_id TEXT,
			instruction_type TEXT,
			has_solo_at_end BOOLEAN NOT NULL DEFAULT FALSE,
			hobbs_start NUMERIC, hobbs_end NUMERIC, hobbs_solo_end NUMERIC,
			tacho_start NUMERIC, tacho_end NUMERIC, tacho_solo_end NUMERIC,
			airswitch_start NUMERIC, airswitch_end NUMERIC,
			checkin_approved_at TIMESTAMPTZ,
			checkin_invoice_id TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS checkin_drafts (
			booking_id TEXT PRIMARY KEY REFERENCES bookings(id),
			signature TEXT NOT NULL,
			calculated_at TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS aircraft_charge_rates (
			id TEXT PRIMARY KEY,
			aircraft_id TEXT NOT NULL,
			flight_type_id TEXT NOT NULL,
			rate_per_hour NUMERIC NOT NULL,
			charge_hobbs BOOLEAN NOT NULL DEFAULT FALSE,
			charge_tacho BOOLEAN NOT NULL DEFAULT FALSE,
			charge_airswitch BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (aircraft_id, flight_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS instructor_charge_rates (
			id TEXT PRIMARY KEY,
			instructor_id TEXT NOT NULL,
			flight_type_id TEXT NOT NULL,
			rate_per_hour NUMERIC NOT NULL,
			charge_hobbs BOOLEAN NOT NULL DEFAULT FALSE,
			charge_tacho BOOLEAN NOT NULL DEFAULT FALSE,
			charge_airswitch BOOLEAN NOT NULL DEFAULT FALSE,
			UNIQUE (instructor_id, flight_type_id)
		)`,
		`CREATE TABLE IF NOT EXISTS organisation_settings (
			tenant_id TEXT PRIMARY KEY,
			default_tax_rate TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			actor TEXT, role TEXT, action TEXT,
			resource_type TEXT, resource_id TEXT, booking_id TEXT,
			metadata JSONB, payload_digest TEXT,
			ip TEXT, user_agent TEXT,
			created_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func seedDemo(ctx context.Context, db *sql.DB, tenantID string, bookingCount int) error {
	if _, err := db.ExecContext(ctx, `
INSERT INTO organisation_settings (tenant_id, default_tax_rate)
VALUES ($1, '0.15')
ON CONFLICT (tenant_id) DO NOTHING`, tenantID); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `
INSERT INTO aircraft_charge_rates (id, aircraft_id, flight_type_id, rate_per_hour, charge_hobbs)
VALUES ('rate-ac-demo', 'ZK-DEM', 'ft-dual', 250, TRUE)
ON CONFLICT (id) DO NOTHING`); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `
INSERT INTO instructor_charge_rates (id, instructor_id, flight_type_id, rate_per_hour, charge_hobbs)
VALUES ('rate-ins-demo', 'ins-demo', 'ft-dual', 90, TRUE)
ON CONFLICT (id) DO NOTHING`); err != nil {
		return err
	}

	for i := 0; i < bookingCount; i++ {
		id := fmt.Sprintf("bk-demo-%03d", i+1)
		start := 1000.0 + float64(i)*2.5
		end := start + 1.2
		if _, err := db.ExecContext(ctx, `
INSERT INTO bookings (id, tenant_id, aircraft_id, instructor_id, flight_type_id, instruction_type, hobbs_start, hobbs_end)
VALUES ($1, $2, 'ZK-DEM', 'ins-demo', 'ft-dual', 'dual', $3, $4)
ON CONFLICT (id) DO NOTHING`, id, tenantID, start, end); err != nil {
			return err
		}
	}
	return nil
}
