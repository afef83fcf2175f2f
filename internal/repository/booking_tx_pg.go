package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/jackc/pgx/v5"
)

// BookingTx is the write side of a single lifecycle transaction.
//
// Methods documented as best-effort run inside a savepoint: when they fail the
// savepoint is rolled back and the surrounding transaction stays usable.
type BookingTx interface {
	// LockSeat serialises check-then-write on (flight, seat) until the transaction ends.
	LockSeat(ctx context.Context, flightID, seatNo string) error
	GetFlight(ctx context.Context, id string) (*domain.Flight, error)
	// FindRouteFlight returns the earliest flight on the route departing on date, or nil.
	FindRouteFlight(ctx context.Context, source, destination string, date time.Time, excludeFlightID string) (*domain.Flight, error)

	// UpsertPassenger is best-effort.
	UpsertPassenger(ctx context.Context, p domain.Passenger) error
	// FindActiveSeatHolder returns nil when nobody holds the seat.
	FindActiveSeatHolder(ctx context.Context, flightID, seatNo string) (*domain.Booking, error)
	ListPassengerFlightBookings(ctx context.Context, passportNo, flightID string) ([]domain.Booking, error)
	InsertBooking(ctx context.Context, b *domain.Booking) error
	GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error)
	MarkCancelled(ctx context.Context, bookingID int64, at time.Time, by string) error
	RestoreBooking(ctx context.Context, bookingID int64) error
	MoveBooking(ctx context.Context, bookingID int64, flightID, seatNo string) error

	// InsertTicket is best-effort.
	InsertTicket(ctx context.Context, t domain.Ticket) error
	// UpdateTicketForBooking is best-effort. It prefers the ticket linked to the booking and
	// falls back to the passenger's ticket on the old flight. Reports whether a ticket was updated.
	UpdateTicketForBooking(ctx context.Context, b domain.Booking, oldFlightID string, price int64) (bool, error)
	// MarkTicketUnsynced is best-effort.
	MarkTicketUnsynced(ctx context.Context, bookingID int64) error

	// InsertRefund is best-effort; it also links the refund to the booking.
	InsertRefund(ctx context.Context, r *domain.Refund) error
	GetRefundForUpdate(ctx context.Context, id int64) (*domain.Refund, error)
	DeleteRefund(ctx context.Context, id int64) error

	InsertReschedule(ctx context.Context, r *domain.RescheduleTransaction) error
	GetRescheduleForUpdate(ctx context.Context, id int64) (*domain.RescheduleTransaction, error)
	CompleteReschedule(ctx context.Context, id int64, newFlightID, newSeat string, at time.Time) error
}

type pgBookingTx struct {
	tx pgx.Tx
}

func (t *pgBookingTx) savepoint(ctx context.Context, fn func(q pgx.Tx) error) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(sp); err != nil {
		return errors.Join(err, sp.Rollback(ctx))
	}
	return sp.Commit(ctx)
}

func (t *pgBookingTx) LockSeat(ctx context.Context, flightID, seatNo string) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, flightID+"/"+seatNo)
	return classify("lock seat", err)
}

func (t *pgBookingTx) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	return getFlight(ctx, t.tx, id)
}

func (t *pgBookingTx) FindRouteFlight(ctx context.Context, source, destination string, date time.Time, excludeFlightID string) (*domain.Flight, error) {
	zone, day := scheduleDay(date)
	row := t.tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE source=$1 AND destination=$2 AND (departure_time AT TIME ZONE $3::text)::date = $4::date AND flight_id <> $5
		ORDER BY departure_time LIMIT 1`, source, destination, zone, day, excludeFlightID)
	f, err := scanFlight(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find route flight", err)
	}
	return f, nil
}

func (t *pgBookingTx) UpsertPassenger(ctx context.Context, p domain.Passenger) error {
	return classify("upsert passenger", t.savepoint(ctx, func(q pgx.Tx) error {
		return upsertPassenger(ctx, q, p)
	}))
}

func (t *pgBookingTx) FindActiveSeatHolder(ctx context.Context, flightID, seatNo string) (*domain.Booking, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings
		WHERE flight_id=$1 AND seat_no=$2 AND status=$3 LIMIT 1`, flightID, seatNo, domain.BookingStatusBooked)
	b, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("find seat holder", err)
	}
	return b, nil
}

func (t *pgBookingTx) ListPassengerFlightBookings(ctx context.Context, passportNo, flightID string) ([]domain.Booking, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE passport_no=$1 AND flight_id=$2`, passportNo, flightID)
	if err != nil {
		return nil, classify("list own flight bookings", err)
	}
	return collectBookings(rows)
}

func (t *pgBookingTx) InsertBooking(ctx context.Context, b *domain.Booking) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO bookings (flight_id, passport_no, seat_no, class, status, booking_date, ticket_synced)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		RETURNING booking_id`, b.FlightID, b.PassportNo, b.SeatNo, b.Class, b.Status, b.BookingDate).
		Scan(&b.ID)
	if err != nil {
		return classify("insert booking", err)
	}
	b.TicketSynced = true
	return nil
}

func (t *pgBookingTx) GetBookingForUpdate(ctx context.Context, id int64) (*domain.Booking, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_id=$1 FOR UPDATE`, id)
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFound("get booking", err, domain.ErrBookingNotFound)
	}
	return b, nil
}

func (t *pgBookingTx) MarkCancelled(ctx context.Context, bookingID int64, at time.Time, by string) error {
	_, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$2, cancelled_at=$3, cancelled_by=$4, updated_at=now()
		WHERE booking_id=$1`, bookingID, domain.BookingStatusCancelled, at, by)
	return classify("cancel booking", err)
}

func (t *pgBookingTx) RestoreBooking(ctx context.Context, bookingID int64) error {
	_, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$2, cancelled_at=NULL, cancelled_by=NULL, refund_id=NULL, updated_at=now()
		WHERE booking_id=$1`, bookingID, domain.BookingStatusBooked)
	return classify("restore booking", err)
}

func (t *pgBookingTx) MoveBooking(ctx context.Context, bookingID int64, flightID, seatNo string) error {
	_, err := t.tx.Exec(ctx, `UPDATE bookings SET flight_id=$2, seat_no=$3, updated_at=now() WHERE booking_id=$1`, bookingID, flightID, seatNo)
	return classify("move booking", err)
}

func (t *pgBookingTx) InsertTicket(ctx context.Context, ticket domain.Ticket) error {
	return classify("insert ticket", t.savepoint(ctx, func(q pgx.Tx) error {
		return insertTicket(ctx, q, ticket)
	}))
}

// UpdateTicketForBooking falls back to the passenger's unlinked ticket on the
// old flight; tickets owned by other bookings are never touched.
func (t *pgBookingTx) UpdateTicketForBooking(ctx context.Context, b domain.Booking, oldFlightID string, price int64) (bool, error) {
	var updated bool
	err := t.savepoint(ctx, func(q pgx.Tx) error {
		tag, err := q.Exec(ctx, `UPDATE tickets SET flight_id=$2, seat_no=$3, price_cents=$4, updated_at=now()
			WHERE booking_id=$1`, b.ID, b.FlightID, b.SeatNo, price)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			tag, err = q.Exec(ctx, `UPDATE tickets SET flight_id=$3, seat_no=$4, price_cents=$5, booking_id=$6, updated_at=now()
				WHERE ticket_no = (SELECT ticket_no FROM tickets
					WHERE passport_no=$1 AND flight_id=$2 AND (booking_id IS NULL OR booking_id=$6)
					ORDER BY issued_at DESC LIMIT 1)`,
				b.PassportNo, oldFlightID, b.FlightID, b.SeatNo, price, b.ID)
			if err != nil {
				return err
			}
		}
		updated = tag.RowsAffected() > 0
		return nil
	})
	return updated, classify("update ticket", err)
}

func (t *pgBookingTx) MarkTicketUnsynced(ctx context.Context, bookingID int64) error {
	return classify("mark ticket unsynced", t.savepoint(ctx, func(q pgx.Tx) error {
		_, err := q.Exec(ctx, `UPDATE bookings SET ticket_synced=FALSE, updated_at=now() WHERE booking_id=$1`, bookingID)
		return err
	}))
}

func (t *pgBookingTx) InsertRefund(ctx context.Context, r *domain.Refund) error {
	return classify("insert refund", t.savepoint(ctx, func(q pgx.Tx) error {
		if err := q.QueryRow(ctx, `INSERT INTO refunds (booking_id, passport_no, amount_cents, status, created_at, processed_at)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING refund_id`,
			r.BookingID, r.PassportNo, r.AmountCents, r.Status, r.CreatedAt, r.ProcessedAt).Scan(&r.ID); err != nil {
			return err
		}
		_, err := q.Exec(ctx, `UPDATE bookings SET refund_id=$2 WHERE booking_id=$1`, r.BookingID, r.ID)
		return err
	}))
}

func (t *pgBookingTx) GetRefundForUpdate(ctx context.Context, id int64) (*domain.Refund, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+refundColumns+` FROM refunds WHERE refund_id=$1 FOR UPDATE`, id)
	r, err := scanRefund(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify("get refund", err)
	}
	return r, nil
}

func (t *pgBookingTx) DeleteRefund(ctx context.Context, id int64) error {
	_, err := t.tx.Exec(ctx, `DELETE FROM refunds WHERE refund_id=$1 AND status=$2`, id, domain.RefundStatusPending)
	return classify("delete refund", err)
}

func (t *pgBookingTx) InsertReschedule(ctx context.Context, r *domain.RescheduleTransaction) error {
	err := t.tx.QueryRow(ctx, `INSERT INTO reschedule_transactions
		(booking_id, old_flight_id, new_flight_id, old_seat, new_seat, requested_by, status, reason, requested_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		r.BookingID, r.OldFlightID, r.NewFlightID, r.OldSeat, r.NewSeat, r.RequestedBy, r.Status, r.Reason, r.RequestedDate, r.CreatedAt).
		Scan(&r.ID)
	return classify("insert reschedule", err)
}

func (t *pgBookingTx) GetRescheduleForUpdate(ctx context.Context, id int64) (*domain.RescheduleTransaction, error) {
	row := t.tx.QueryRow(ctx, `SELECT `+rescheduleColumns+` FROM reschedule_transactions WHERE id=$1 FOR UPDATE`, id)
	r, err := scanReschedule(row)
	if err != nil {
		return nil, notFound("get reschedule", err, domain.ErrRescheduleNotFound)
	}
	return r, nil
}

func (t *pgBookingTx) CompleteReschedule(ctx context.Context, id int64, newFlightID, newSeat string, at time.Time) error {
	_, err := t.tx.Exec(ctx, `UPDATE reschedule_transactions SET status=$2, new_flight_id=$3, new_seat=$4, processed_at=$5
		WHERE id=$1`, id, domain.RescheduleStatusCompleted, newFlightID, newSeat, at)
	return classify("complete reschedule", err)
}

var _ BookingTx = (*pgBookingTx)(nil)
