package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Search(ctx context.Context, search domain.FlightSearch) ([]domain.Flight, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `flight_id, source, destination, departure_time, arrival_time, price_cents, total_seats`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, classify("list flights", err)
	}
	return collectFlights(rows)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	return getFlight(ctx, r.db, id)
}

// Search matches any combination of route and departure date; empty fields are ignored.
func (r *PGFlightRepository) Search(ctx context.Context, search domain.FlightSearch) ([]domain.Flight, error) {
	var zone, day *string
	if !search.Date.IsZero() {
		z, d := scheduleDay(search.Date)
		zone, day = &z, &d
	}

	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE ($1::text = '' OR source = $1)
		  AND ($2::text = '' OR destination = $2)
		  AND ($4::date IS NULL OR (departure_time AT TIME ZONE $3::text)::date = $4::date)
		ORDER BY departure_time`, search.Source, search.Destination, zone, day)
	if err != nil {
		return nil, classify("search flights", err)
	}
	return collectFlights(rows)
}

func getFlight(ctx context.Context, q querier, id string) (*domain.Flight, error) {
	row := q.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE flight_id=$1`, id)
	f, err := scanFlight(row)
	if err != nil {
		return nil, notFound("get flight", err, domain.ErrFlightNotFound)
	}
	return f, nil
}

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Source, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.TotalSeats); err != nil {
		return nil, err
	}
	return &f, nil
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, classify("scan flight", err)
		}
		flights = append(flights, *f)
	}
	return flights, classify("iterate flights", rows.Err())
}

// scheduleDay splits t into the IANA zone name and calendar date that
// departure_time is compared against. Local has no IANA name and is read as UTC.
func scheduleDay(t time.Time) (zone, day string) {
	zone = t.Location().String()
	if t.Location() == time.Local {
		zone = "UTC"
	}
	return zone, t.Format(time.DateOnly)
}

var _ FlightRepository = (*PGFlightRepository)(nil)
