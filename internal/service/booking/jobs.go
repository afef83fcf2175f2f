package booking

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/sirupsen/logrus"
)

// ResyncTickets re-issues tickets for bookings whose ticket write failed or drifted.
// It returns the number of bookings brought back in sync.
func (s *BookingService) ResyncTickets(ctx context.Context) (int, error) {
	bookings, err := s.store.ListUnsyncedBookings(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, b := range bookings {
		entry := s.log.WithFields(logrus.Fields{"op": "resync_ticket", "booking_id": b.ID, "flight_id": b.FlightID})

		flight, err := s.flights.GetByID(ctx, b.FlightID)
		if err != nil {
			entry.WithError(err).Warn("flight lookup failed")
			continue
		}
		if err := s.store.SyncTicket(ctx, domain.NewTicket(b, *flight, s.now())); err != nil {
			entry.WithError(err).Warn("ticket resync failed")
			continue
		}
		synced++
	}
	if synced > 0 {
		s.log.WithField("count", synced).Info("tickets resynced")
	}
	return synced, ctx.Err()
}

// FinalizeRefunds completes pending refunds older than the grace window. Once
// completed a cancellation can no longer be undone.
func (s *BookingService) FinalizeRefunds(ctx context.Context) (int, error) {
	if s.refundGrace <= 0 {
		return 0, nil
	}

	refunds, err := s.store.FinalizeRefundsBefore(ctx, s.now().Add(-s.refundGrace), s.batchSize)
	if err != nil {
		return 0, err
	}

	for _, r := range refunds {
		b, err := s.store.GetBooking(ctx, r.BookingID)
		if err != nil {
			s.log.WithError(err).WithField("refund_id", r.ID).Warn("refund finalized for unknown booking")
			continue
		}
		s.publish(ctx, refundEvent(*b, r))
	}
	if len(refunds) > 0 {
		s.log.WithField("count", len(refunds)).Info("refunds finalized")
	}
	return len(refunds), nil
}
