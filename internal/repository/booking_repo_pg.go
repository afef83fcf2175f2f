package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingStore owns bookings and their dependent records (tickets, refunds, reschedule requests).
// Lifecycle writes go through WithinTx; the remaining methods are single-statement reads and jobs.
type BookingStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error

	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ListByPassenger(ctx context.Context, passportNo string) ([]domain.Booking, error)
	ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error)
	ListPendingReschedules(ctx context.Context, limit int) ([]domain.RescheduleTransaction, error)

	ListUnsyncedBookings(ctx context.Context, limit int) ([]domain.Booking, error)
	SyncTicket(ctx context.Context, ticket domain.Ticket) error
	FinalizeRefundsBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Refund, error)
}

type PGBookingStore struct {
	db *pgxpool.Pool
}

func NewBookingStore(db *pgxpool.Pool) BookingStore {
	return &PGBookingStore{db: db}
}

func (s *PGBookingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return classify("begin", err)
	}

	if err := fn(ctx, &pgBookingTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, classify("rollback", rbErr))
		}
		return err
	}

	return classify("commit", tx.Commit(ctx))
}

const bookingColumns = `booking_id, flight_id, passport_no, seat_no, class, status, booking_date, cancelled_at, cancelled_by, refund_id, ticket_synced`

func (s *PGBookingStore) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	row := s.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id=$1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFound("get booking", err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (s *PGBookingStore) ListByPassenger(ctx context.Context, passportNo string) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE passport_no=$1 ORDER BY booking_date DESC`, passportNo)
	if err != nil {
		return nil, classify("list passenger bookings", err)
	}
	return collectBookings(rows)
}

func (s *PGBookingStore) ListByFlight(ctx context.Context, flightID string) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE flight_id=$1 ORDER BY seat_no, booking_id`, flightID)
	if err != nil {
		return nil, classify("list flight bookings", err)
	}
	return collectBookings(rows)
}

const rescheduleColumns = `id, booking_id, old_flight_id, new_flight_id, old_seat, new_seat, requested_by, status, reason, requested_date, created_at, processed_at`

func (s *PGBookingStore) ListPendingReschedules(ctx context.Context, limit int) ([]domain.RescheduleTransaction, error) {
	rows, err := s.db.Query(ctx, `SELECT `+rescheduleColumns+` FROM reschedule_transactions
		WHERE status=$1 ORDER BY created_at LIMIT $2`, domain.RescheduleStatusPending, limit)
	if err != nil {
		return nil, classify("list pending reschedules", err)
	}
	defer rows.Close()

	list := make([]domain.RescheduleTransaction, 0)
	for rows.Next() {
		r, err := scanReschedule(rows)
		if err != nil {
			return nil, classify("scan reschedule", err)
		}
		list = append(list, *r)
	}
	return list, classify("iterate reschedules", rows.Err())
}

func (s *PGBookingStore) ListUnsyncedBookings(ctx context.Context, limit int) ([]domain.Booking, error) {
	rows, err := s.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE NOT ticket_synced AND status=$1 ORDER BY booking_id LIMIT $2`, domain.BookingStatusBooked, limit)
	if err != nil {
		return nil, classify("list unsynced bookings", err)
	}
	return collectBookings(rows)
}

// SyncTicket rewrites the booking's ticket (or issues it) and clears the degraded flag.
func (s *PGBookingStore) SyncTicket(ctx context.Context, ticket domain.Ticket) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return classify("begin", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `UPDATE tickets SET flight_id=$2, seat_no=$3, class=$4, price_cents=$5, updated_at=now()
		WHERE booking_id=$1`, ticket.BookingID, ticket.FlightID, ticket.SeatNo, ticket.Class, ticket.PriceCents)
	if err != nil {
		return classify("update ticket", err)
	}
	if tag.RowsAffected() == 0 {
		if err := insertTicket(ctx, tx, ticket); err != nil {
			return classify("insert ticket", err)
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE bookings SET ticket_synced=TRUE, updated_at=now() WHERE booking_id=$1`, ticket.BookingID); err != nil {
		return classify("mark ticket synced", err)
	}
	return classify("commit", tx.Commit(ctx))
}

func (s *PGBookingStore) FinalizeRefundsBefore(ctx context.Context, deadline time.Time, limit int) ([]domain.Refund, error) {
	rows, err := s.db.Query(ctx, `UPDATE refunds SET status=$1, processed_at=now()
		WHERE refund_id IN (
			SELECT refund_id FROM refunds WHERE status=$2 AND created_at <= $3
			ORDER BY refund_id LIMIT $4 FOR UPDATE SKIP LOCKED)
		RETURNING `+refundColumns,
		domain.RefundStatusCompleted, domain.RefundStatusPending, deadline, limit)
	if err != nil {
		return nil, classify("finalize refunds", err)
	}
	defer rows.Close()

	var finalized []domain.Refund
	for rows.Next() {
		r, err := scanRefund(rows)
		if err != nil {
			return nil, classify("scan refund", err)
		}
		finalized = append(finalized, *r)
	}
	return finalized, classify("iterate refunds", rows.Err())
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.PassportNo, &b.SeatNo, &b.Class, &b.Status, &b.BookingDate,
		&b.CancelledAt, &b.CancelledBy, &b.RefundID, &b.TicketSynced); err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]domain.Booking, error) {
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, classify("scan booking", err)
		}
		bookings = append(bookings, *b)
	}
	return bookings, classify("iterate bookings", rows.Err())
}

func scanReschedule(row pgx.Row) (*domain.RescheduleTransaction, error) {
	var r domain.RescheduleTransaction
	if err := row.Scan(&r.ID, &r.BookingID, &r.OldFlightID, &r.NewFlightID, &r.OldSeat, &r.NewSeat,
		&r.RequestedBy, &r.Status, &r.Reason, &r.RequestedDate, &r.CreatedAt, &r.ProcessedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

const refundColumns = `refund_id, booking_id, passport_no, amount_cents, status, created_at, processed_at`

func scanRefund(row pgx.Row) (*domain.Refund, error) {
	var r domain.Refund
	if err := row.Scan(&r.ID, &r.BookingID, &r.PassportNo, &r.AmountCents, &r.Status, &r.CreatedAt, &r.ProcessedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func insertTicket(ctx context.Context, q querier, t domain.Ticket) error {
	_, err := q.Exec(ctx, `INSERT INTO tickets (ticket_no, booking_id, flight_id, passport_no, seat_no, class, price_cents, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticket_no) DO UPDATE SET
			flight_id=EXCLUDED.flight_id, seat_no=EXCLUDED.seat_no, class=EXCLUDED.class,
			price_cents=EXCLUDED.price_cents, updated_at=now()`,
		t.TicketNo, t.BookingID, t.FlightID, t.PassportNo, t.SeatNo, t.Class, t.PriceCents, t.IssuedAt)
	if err != nil {
		return fmt.Errorf("ticket %s: %w", t.TicketNo, err)
	}
	return nil
}

var _ BookingStore = (*PGBookingStore)(nil)
