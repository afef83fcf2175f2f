package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const activeSeatIndex = "bookings_active_seat_uq"

var migrations = []struct {
	name string
	sql  string
}{
	{"flights", `CREATE TABLE IF NOT EXISTS flights (
		flight_id      TEXT PRIMARY KEY,
		source         TEXT NOT NULL,
		destination    TEXT NOT NULL,
		departure_time TIMESTAMPTZ NOT NULL,
		arrival_time   TIMESTAMPTZ NOT NULL,
		price_cents    BIGINT NOT NULL CHECK (price_cents >= 0),
		total_seats    INTEGER NOT NULL DEFAULT 0
	)`},
	{"flights_route_idx", `CREATE INDEX IF NOT EXISTS flights_route_departure_idx
		ON flights (source, destination, departure_time)`},
	{"passengers", `CREATE TABLE IF NOT EXISTS passengers (
		passport_no TEXT PRIMARY KEY,
		name        TEXT NOT NULL DEFAULT '',
		email       TEXT NOT NULL DEFAULT '',
		phone       TEXT NOT NULL DEFAULT '',
		address     TEXT NOT NULL DEFAULT '',
		gender      TEXT NOT NULL DEFAULT '',
		dob         DATE
	)`},
	{"bookings", `CREATE TABLE IF NOT EXISTS bookings (
		booking_id    BIGSERIAL PRIMARY KEY,
		flight_id     TEXT NOT NULL REFERENCES flights (flight_id),
		passport_no   TEXT NOT NULL,
		seat_no       TEXT NOT NULL,
		class         TEXT NOT NULL DEFAULT 'Economy',
		status        TEXT NOT NULL DEFAULT 'booked',
		booking_date  TIMESTAMPTZ NOT NULL DEFAULT now(),
		cancelled_at  TIMESTAMPTZ,
		cancelled_by  TEXT,
		refund_id     BIGINT,
		ticket_synced BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"bookings_active_seat_uq", `CREATE UNIQUE INDEX IF NOT EXISTS ` + activeSeatIndex + `
		ON bookings (flight_id, seat_no) WHERE status = 'booked'`},
	{"bookings_passport_idx", `CREATE INDEX IF NOT EXISTS bookings_passport_idx ON bookings (passport_no)`},
	{"bookings_unsynced_idx", `CREATE INDEX IF NOT EXISTS bookings_unsynced_idx ON bookings (booking_id) WHERE NOT ticket_synced`},
	{"tickets", `CREATE TABLE IF NOT EXISTS tickets (
		ticket_no   TEXT PRIMARY KEY,
		booking_id  BIGINT REFERENCES bookings (booking_id) ON DELETE CASCADE,
		flight_id   TEXT NOT NULL,
		passport_no TEXT NOT NULL,
		seat_no     TEXT NOT NULL,
		class       TEXT NOT NULL,
		price_cents BIGINT NOT NULL,
		issued_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`},
	{"tickets_booking_idx", `CREATE INDEX IF NOT EXISTS tickets_booking_idx ON tickets (booking_id)`},
	{"refunds", `CREATE TABLE IF NOT EXISTS refunds (
		refund_id    BIGSERIAL PRIMARY KEY,
		booking_id   BIGINT NOT NULL REFERENCES bookings (booking_id) ON DELETE CASCADE,
		passport_no  TEXT NOT NULL,
		amount_cents BIGINT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at TIMESTAMPTZ
	)`},
	{"reschedule_transactions", `CREATE TABLE IF NOT EXISTS reschedule_transactions (
		id             BIGSERIAL PRIMARY KEY,
		booking_id     BIGINT NOT NULL REFERENCES bookings (booking_id) ON DELETE CASCADE,
		old_flight_id  TEXT NOT NULL,
		new_flight_id  TEXT,
		old_seat       TEXT NOT NULL,
		new_seat       TEXT,
		requested_by   TEXT NOT NULL,
		status         TEXT NOT NULL DEFAULT 'pending',
		reason         TEXT,
		requested_date DATE NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		processed_at   TIMESTAMPTZ
	)`},
	{"reschedule_pending_idx", `CREATE INDEX IF NOT EXISTS reschedule_pending_idx
		ON reschedule_transactions (created_at) WHERE status = 'pending'`},
}

// Migrate creates the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, m := range migrations {
		if _, err := db.Exec(ctx, m.sql); err != nil {
			return fmt.Errorf("migration %s: %w", m.name, err)
		}
	}
	return nil
}
