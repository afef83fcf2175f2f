package booking

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type UndoResult struct {
	BookingID int64  `json:"booking_id"`
	Restored  bool   `json:"restored"`
	Message   string `json:"message"`
}

// UndoCancel puts a cancelled booking back while its refund is still pending.
// A completed refund is terminal and the request is refused with ErrRefundFinalized.
func (s *BookingService) UndoCancel(ctx context.Context, caller domain.Caller, bookingID int64) (*UndoResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if bookingID <= 0 {
		return nil, domain.Validationf("booking_id is required")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	entry := s.log.WithFields(logrus.Fields{"op": "undo_cancel", "booking_id": bookingID, "by": caller.Identity()})

	var booking *domain.Booking
	result := &UndoResult{BookingID: bookingID}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.BookingTx) error {
		var err error
		booking, err = tx.GetBookingForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := authorize(caller, booking); err != nil {
			return err
		}

		if booking.Active() {
			result.Message = "booking is not cancelled"
			return nil
		}

		var refund *domain.Refund
		if booking.RefundID != nil {
			refund, err = tx.GetRefundForUpdate(ctx, *booking.RefundID)
			if err != nil {
				return err
			}
		}
		if refund != nil && refund.Finalized() {
			return domain.ErrRefundFinalized
		}

		// the seat may have been sold while the booking was cancelled
		if err := s.checkSeatFree(ctx, tx, booking.FlightID, booking.SeatNo, booking.PassportNo, booking.ID); err != nil {
			return err
		}

		if refund != nil {
			if err := tx.DeleteRefund(ctx, refund.ID); err != nil {
				return err
			}
		}
		if err := tx.RestoreBooking(ctx, booking.ID); err != nil {
			return err
		}

		booking.Status = domain.BookingStatusBooked
		booking.CancelledAt = nil
		booking.CancelledBy = nil
		booking.RefundID = nil
		result.Restored = true
		result.Message = "cancellation undone"
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrRefundFinalized) {
			entry.Info("undo refused, refund already completed")
		}
		return nil, err
	}

	if !result.Restored {
		return result, nil
	}

	entry.Info("booking restored")
	s.publish(ctx, bookingEvent(kafka.EventBookingRestored, *booking))
	return result, nil
}
