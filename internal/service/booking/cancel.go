package booking

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type CancelResult struct {
	BookingID        int64                `json:"booking_id"`
	Status           domain.BookingStatus `json:"status"`
	RefundID         *int64               `json:"refund_id,omitempty"`
	RefundCents      int64                `json:"refund_cents"`
	RefundStatus     domain.RefundStatus  `json:"refund_status,omitempty"`
	AlreadyCancelled bool                 `json:"already_cancelled"`
	Message          string               `json:"message"`
}

func (s *BookingService) CancelBooking(ctx context.Context, caller domain.Caller, bookingID int64) (*CancelResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if bookingID <= 0 {
		return nil, domain.Validationf("booking_id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{"op": "cancel_booking", "booking_id": bookingID, "by": caller.Identity()})

	var (
		booking *domain.Booking
		refund  *domain.Refund
		result  *CancelResult
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		var err error
		booking, err = tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorize(caller, booking); err != nil {
			return err
		}

		if !booking.Active() {
			result = &CancelResult{
				BookingID:        booking.ID,
				Status:           booking.Status,
				RefundID:         booking.RefundID,
				AlreadyCancelled: true,
				Message:          "booking is already cancelled",
			}
			return nil
		}

		flight, err := tx.GetFlight(ctx, booking.FlightID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.MarkCancelled(ctx, booking.ID, now, caller.Identity()); err != nil {
			return err
		}
		booking.Status = domain.BookingStatusCancelled
		booking.CancelledAt = &now
		by := caller.Identity()
		booking.CancelledBy = &by

		refund = &domain.Refund{
			BookingID:   booking.ID,
			PassportNo:  booking.PassportNo,
			AmountCents: domain.RefundAmount(flight.PriceCents, domain.RefundRatePercent),
			Status:      domain.RefundStatusCompleted,
			CreatedAt:   now,
			ProcessedAt: &now,
		}
		if s.refundGrace > 0 {
			refund.Status = domain.RefundStatusPending
			refund.ProcessedAt = nil
		}

		result = &CancelResult{
			BookingID:   booking.ID,
			Status:      booking.Status,
			RefundCents: refund.AmountCents,
			Message:     "booking cancelled",
		}
		if err := tx.InsertRefund(ctx, refund); err != nil {
			entry.WithError(err).Warn("refund record failed")
			refund = nil
			return nil
		}
		result.RefundID = &refund.ID
		result.RefundStatus = refund.Status
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyCancelled {
		entry.Info("booking already cancelled")
		return result, nil
	}

	entry.WithField("refund_cents", result.RefundCents).Info("booking cancelled")

	event := bookingEvent(kafka.EventBookingCancelled, *booking)
	event.RefundCents = result.RefundCents
	s.publish(ctx, event)
	if refund != nil && refund.Finalized() {
		s.publish(ctx, refundEvent(*booking, *refund))
	}

	return result, nil
}

func refundEvent(b domain.Booking, r domain.Refund) kafka.BookingEvent {
	event := bookingEvent(kafka.EventRefundCompleted, b)
	event.RefundCents = r.AmountCents
	return event
}
