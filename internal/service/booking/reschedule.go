package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

const dateLayout = "2006-01-02"

type RescheduleInput struct {
	BookingID   int64  `json:"booking_id"`
	NewDate     string `json:"new_date"`
	NewFlightID string `json:"new_flight_id"`
	NewSeat     string `json:"new_seat"`
	Reason      string `json:"reason"`
	AutoProcess bool   `json:"auto_process"`
}

type RescheduleResult struct {
	TransactionID   int64                   `json:"insert_id"`
	AppliedFlightID *string                 `json:"applied_flight_id"`
	AppliedSeat     *string                 `json:"applied_seat,omitempty"`
	Status          domain.RescheduleStatus `json:"status"`
	Message         string                  `json:"message"`
}

// Reschedule records the request first and, with AutoProcess, applies it in the
// same transaction. Not finding a flight or seat is reported in the result, not as an error.
func (s *BookingService) Reschedule(ctx context.Context, caller domain.Caller, input RescheduleInput) (*RescheduleResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if input.BookingID <= 0 {
		return nil, domain.Validationf("booking_id is required")
	}
	if strings.TrimSpace(input.NewDate) == "" {
		return nil, domain.Validationf("new_date is required")
	}
	date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(input.NewDate), s.location)
	if err != nil {
		return nil, domain.Validationf("new_date must be YYYY-MM-DD")
	}
	var newSeat string
	if strings.TrimSpace(input.NewSeat) != "" {
		if newSeat, err = normalizeSeat(input.NewSeat); err != nil {
			return nil, err
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var explicit *domain.Flight
	if id := strings.TrimSpace(input.NewFlightID); id != "" {
		if explicit, err = s.flights.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	entry := s.log.WithFields(logrus.Fields{"op": "reschedule", "booking_id": input.BookingID, "by": caller.Identity()})

	var (
		booking   *domain.Booking
		oldFlight string
		outcome   *applyOutcome
	)
	result := &RescheduleResult{Status: domain.RescheduleStatusPending}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		var err error
		booking, err = tx.GetBookingForUpdate(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if err := authorize(caller, booking); err != nil {
			return err
		}
		if !booking.Active() {
			return domain.ErrBookingCancelled
		}
		oldFlight = booking.FlightID

		current, err := tx.GetFlight(ctx, booking.FlightID)
		if err != nil {
			return err
		}
		if explicit != nil && !current.SameRoute(*explicit) {
			return domain.Validationf("flight %s is not on the %s-%s route", explicit.ID, current.Source, current.Destination)
		}

		rt := &domain.RescheduleTransaction{
			BookingID:     booking.ID,
			OldFlightID:   booking.FlightID,
			OldSeat:       booking.SeatNo,
			RequestedBy:   caller.Identity(),
			Status:        domain.RescheduleStatusPending,
			RequestedDate: date,
			CreatedAt:     s.now(),
		}
		if explicit != nil {
			rt.NewFlightID = &explicit.ID
		}
		if newSeat != "" {
			rt.NewSeat = &newSeat
		}
		if reason := strings.TrimSpace(input.Reason); reason != "" {
			rt.Reason = &reason
		}
		if input.AutoProcess {
			rt.Status = domain.RescheduleStatusCompleted
		}
		if err := tx.InsertReschedule(ctx, rt); err != nil {
			return err
		}
		result.TransactionID = rt.ID
		result.Status = rt.Status

		if !input.AutoProcess {
			result.Message = "reschedule request recorded"
			return nil
		}

		outcome, err = s.apply(ctx, tx, entry, booking, *current, explicit, newSeat, rt)
		if err != nil {
			return err
		}
		result.Message = outcome.message
		if outcome.flight != nil {
			result.AppliedFlightID = &outcome.flight.ID
			result.AppliedSeat = &booking.SeatNo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry = entry.WithField("reschedule_id", result.TransactionID)
	if result.AppliedFlightID != nil {
		entry.WithFields(logrus.Fields{"from": oldFlight, "to": *result.AppliedFlightID}).Info("booking rescheduled")
		s.publish(ctx, bookingEvent(kafka.EventBookingRescheduled, *booking))
	} else {
		entry.Info(result.Message)
		s.publish(ctx, bookingEvent(kafka.EventRescheduleRecorded, *booking))
	}
	return result, nil
}

// ProcessReschedule applies a pending request. When there is still nothing to
// apply the request stays pending.
func (s *BookingService) ProcessReschedule(ctx context.Context, caller domain.Caller, rescheduleID int64) (*RescheduleResult, error) {
	if !caller.IsAdmin() {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	if rescheduleID <= 0 {
		return nil, domain.Validationf("reschedule id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{"op": "process_reschedule", "reschedule_id": rescheduleID, "by": caller.Identity()})

	var booking *domain.Booking
	result := &RescheduleResult{TransactionID: rescheduleID, Status: domain.RescheduleStatusPending}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		rt, err := tx.GetRescheduleForUpdate(ctx, rescheduleID)
		if err != nil {
			return err
		}
		if rt.Status != domain.RescheduleStatusPending {
			return domain.ErrAlreadyProcessed
		}

		booking, err = tx.GetBookingForUpdate(ctx, rt.BookingID)
		if err != nil {
			return err
		}
		if !booking.Active() {
			return domain.ErrBookingCancelled
		}
		current, err := tx.GetFlight(ctx, booking.FlightID)
		if err != nil {
			return err
		}

		var target *domain.Flight
		if rt.NewFlightID != nil {
			if target, err = tx.GetFlight(ctx, *rt.NewFlightID); err != nil {
				return err
			}
		}
		var seat string
		if rt.NewSeat != nil {
			seat = *rt.NewSeat
		}

		outcome, err := s.apply(ctx, tx, entry.WithField("booking_id", booking.ID), booking, *current, target, seat, rt)
		if err != nil {
			return err
		}
		result.Message = outcome.message
		if outcome.flight != nil {
			result.Status = domain.RescheduleStatusCompleted
			result.AppliedFlightID = &outcome.flight.ID
			result.AppliedSeat = &booking.SeatNo
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AppliedFlightID == nil {
		entry.Info(result.Message)
		return result, nil
	}

	entry.WithField("to", *result.AppliedFlightID).Info("pending reschedule applied")
	s.publish(ctx, bookingEvent(kafka.EventBookingRescheduled, *booking))
	return result, nil
}

type applyOutcome struct {
	flight  *domain.Flight
	message string
}

// apply moves booking to target (or the earliest same-route flight on the
// requested date) and completes rt. It mutates booking on success.
func (s *BookingService) apply(
	ctx context.Context,
	tx repository.BookingTx,
	entry logrus.FieldLogger,
	booking *domain.Booking,
	current domain.Flight,
	target *domain.Flight,
	newSeat string,
	rt *domain.RescheduleTransaction,
) (*applyOutcome, error) {
	if target == nil {
		day := s.scheduleDay(rt.RequestedDate)
		match, err := tx.FindRouteFlight(ctx, current.Source, current.Destination, day, current.ID)
		if err != nil {
			return nil, err
		}
		if match == nil {
			return &applyOutcome{message: fmt.Sprintf("no %s-%s flight on %s, request recorded",
				current.Source, current.Destination, day.Format(dateLayout))}, nil
		}
		target = match
	}

	seat := newSeat
	if seat == "" {
		seat = booking.SeatNo
	}

	err := s.checkSeatFree(ctx, tx, target.ID, seat, booking.PassportNo, booking.ID)
	if errors.Is(err, domain.ErrSeatTaken) || errors.Is(err, domain.ErrSeatAlreadyBooked) {
		return &applyOutcome{message: fmt.Sprintf("seat %s on flight %s is not available, request recorded", seat, target.ID)}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := tx.MoveBooking(ctx, booking.ID, target.ID, seat); err != nil {
		return nil, err
	}
	if err := tx.CompleteReschedule(ctx, rt.ID, target.ID, seat, s.now()); err != nil {
		return nil, err
	}

	oldFlightID := booking.FlightID
	booking.FlightID = target.ID
	booking.SeatNo = seat

	updated, err := tx.UpdateTicketForBooking(ctx, *booking, oldFlightID, target.PriceCents)
	switch {
	case err != nil:
		entry.WithError(err).Warn("ticket update failed")
	case !updated:
		entry.Info("no ticket to move, booking left for resync")
	}
	if err != nil || !updated {
		if err := tx.MarkTicketUnsynced(ctx, booking.ID); err != nil {
			entry.WithError(err).Warn("could not flag booking for ticket resync")
		} else {
			booking.TicketSynced = false
		}
	}

	return &applyOutcome{flight: target, message: "booking moved to flight " + target.ID}, nil
}

// scheduleDay re-anchors a stored calendar date, which reads back as UTC
// midnight, in the schedule location.
func (s *BookingService) scheduleDay(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.location)
}
