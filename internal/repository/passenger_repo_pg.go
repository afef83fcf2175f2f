package repository

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PassengerRepository interface {
	GetByPassport(ctx context.Context, passportNo string) (*domain.Passenger, error)
}

type PGPassengerRepository struct {
	db *pgxpool.Pool
}

func NewPassengerRepository(db *pgxpool.Pool) PassengerRepository {
	return &PGPassengerRepository{db: db}
}

func (r *PGPassengerRepository) GetByPassport(ctx context.Context, passportNo string) (*domain.Passenger, error) {
	var p domain.Passenger
	err := r.db.QueryRow(ctx, `SELECT passport_no, name, email, phone, address, gender, dob FROM passengers WHERE passport_no=$1`, passportNo).
		Scan(&p.PassportNo, &p.Name, &p.Email, &p.Phone, &p.Address, &p.Gender, &p.DOB)
	if err != nil {
		return nil, notFound("get passenger", err, domain.ErrNotFound)
	}
	return &p, nil
}

// upsertPassenger only overwrites contact fields that were supplied.
func upsertPassenger(ctx context.Context, q querier, p domain.Passenger) error {
	_, err := q.Exec(ctx, `INSERT INTO passengers (passport_no, name, email, phone, address, gender, dob)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (passport_no) DO UPDATE SET
			name    = COALESCE(NULLIF(EXCLUDED.name, ''), passengers.name),
			email   = COALESCE(NULLIF(EXCLUDED.email, ''), passengers.email),
			phone   = COALESCE(NULLIF(EXCLUDED.phone, ''), passengers.phone),
			address = COALESCE(NULLIF(EXCLUDED.address, ''), passengers.address),
			gender  = COALESCE(NULLIF(EXCLUDED.gender, ''), passengers.gender),
			dob     = COALESCE(EXCLUDED.dob, passengers.dob)`,
		p.PassportNo, p.Name, p.Email, p.Phone, p.Address, p.Gender, p.DOB)
	return err
}

var _ PassengerRepository = (*PGPassengerRepository)(nil)
