package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type CreateBookingInput struct {
	FlightID   string     `json:"flight_id"`
	PassportNo string     `json:"passport_no"`
	SeatNo     string     `json:"seat_no"`
	Class      string     `json:"class"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	Gender     string     `json:"gender"`
	DOB        *time.Time `json:"dob"`
}

type CreateBookingResult struct {
	BookingID    int64            `json:"booking_id"`
	TicketNo     string           `json:"ticket_no"`
	TicketIssued bool             `json:"ticket_issued"`
	FlightID     string           `json:"flight_id"`
	SeatNo       string           `json:"seat_no"`
	Class        domain.SeatClass `json:"class"`
	PriceCents   int64            `json:"price_cents"`
}

func (s *BookingService) CreateBooking(ctx context.Context, caller domain.Caller, input CreateBookingInput) (*CreateBookingResult, error) {
	if caller.PassportNo == "" {
		if caller.IsAdmin() {
			return nil, fmt.Errorf("%w: bookings are created by passengers", domain.ErrForbidden)
		}
		return nil, domain.ErrUnauthenticated
	}
	input.FlightID = strings.TrimSpace(input.FlightID)
	if input.FlightID == "" {
		return nil, domain.Validationf("flight_id is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, domain.Validationf("name is required")
	}
	if input.PassportNo == "" {
		input.PassportNo = caller.PassportNo
	}
	if input.PassportNo != caller.PassportNo {
		return nil, domain.ErrNotOwner
	}
	seat, err := normalizeSeat(input.SeatNo)
	if err != nil {
		return nil, err
	}
	class, err := domain.ParseSeatClass(input.Class)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	flight, err := s.flights.GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"op": "create_booking", "flight_id": flight.ID, "seat_no": seat, "passport_no": input.PassportNo})

	release, err := s.lockSeat(ctx, entry, flight.ID, seat)
	if err != nil {
		return nil, err
	}
	defer release()

	booking := domain.Booking{
		FlightID:    flight.ID,
		PassportNo:  input.PassportNo,
		SeatNo:      seat,
		Class:       class,
		Status:      domain.BookingStatusBooked,
		BookingDate: s.now(),
	}
	var ticket domain.Ticket
	var ticketIssued bool

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		if err := tx.UpsertPassenger(ctx, domain.Passenger{
			PassportNo: input.PassportNo,
			Name:       input.Name,
			Email:      input.Email,
			Phone:      input.Phone,
			Address:    input.Address,
			Gender:     input.Gender,
			DOB:        input.DOB,
		}); err != nil {
			entry.WithError(err).Warn("contact update failed")
		}

		if err := s.checkSeatFree(ctx, tx, flight.ID, seat, input.PassportNo, 0); err != nil {
			return err
		}

		if err := tx.InsertBooking(ctx, &booking); err != nil {
			return err
		}

		ticket = domain.NewTicket(booking, *flight, booking.BookingDate)
		if err := tx.InsertTicket(ctx, ticket); err != nil {
			entry.WithError(err).WithField("booking_id", booking.ID).Warn("ticket insert failed")
			if err := tx.MarkTicketUnsynced(ctx, booking.ID); err != nil {
				entry.WithError(err).WithField("booking_id", booking.ID).Warn("could not flag booking for ticket resync")
			}
			return nil
		}
		ticketIssued = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry.WithField("booking_id", booking.ID).Info("booking created")

	result := &CreateBookingResult{
		BookingID:    booking.ID,
		TicketIssued: ticketIssued,
		FlightID:     flight.ID,
		SeatNo:       seat,
		Class:        class,
		PriceCents:   flight.PriceCents,
	}
	if ticketIssued {
		result.TicketNo = ticket.TicketNo
	}

	event := bookingEvent(kafka.EventBookingCreated, booking)
	event.TicketNo = result.TicketNo
	s.publish(ctx, event)

	return result, nil
}

// checkSeatFree takes the seat lock and rejects a seat held by another active booking.
// A seat held by the passenger themselves is reported as a duplicate. ignoreBookingID
// excludes the booking being moved or restored.
func (s *BookingService) checkSeatFree(ctx context.Context, tx repository.BookingTx, flightID, seat, passportNo string, ignoreBookingID int64) error {
	if err := tx.LockSeat(ctx, flightID, seat); err != nil {
		return err
	}

	holder, err := tx.FindActiveSeatHolder(ctx, flightID, seat)
	if err != nil {
		return err
	}
	if holder != nil && holder.ID != ignoreBookingID && holder.PassportNo != passportNo {
		return domain.ErrSeatTaken
	}

	own, err := tx.ListPassengerFlightBookings(ctx, passportNo, flightID)
	if err != nil {
		return err
	}
	for _, b := range own {
		if b.ID != ignoreBookingID && b.Active() && b.SeatNo == seat {
			return domain.ErrSeatAlreadyBooked
		}
	}
	return nil
}

// lockSeat takes the optional Redis lock in front of the database lock.
// Redis being unavailable is not fatal, the advisory lock still applies.
func (s *BookingService) lockSeat(ctx context.Context, entry logrus.FieldLogger, flightID, seat string) (func(), error) {
	noop := func() {}
	if s.cache == nil {
		return noop, nil
	}

	token, ok, err := s.cache.AcquireSeatLock(ctx, flightID, seat, s.seatLockTTL)
	if err != nil {
		entry.WithError(err).Warn("redis seat lock unavailable")
		return noop, nil
	}
	if !ok {
		return nil, domain.ErrSeatTaken
	}
	return func() {
		if err := s.cache.ReleaseSeatLock(context.WithoutCancel(ctx), flightID, seat, token); err != nil {
			entry.WithError(err).Warn("failed to release seat lock")
		}
	}, nil
}
