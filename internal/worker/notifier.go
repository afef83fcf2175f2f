package worker

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/sirupsen/logrus"
)

type PassengerLookup interface {
	GetByPassport(ctx context.Context, passportNo string) (*domain.Passenger, error)
}

type Mailer interface {
	Send(ctx context.Context, to string, event kafka.BookingEvent) error
}

// Notifier emails passengers about lifecycle events read from the notifications topic.
type Notifier struct {
	passengers PassengerLookup
	mailer     Mailer
	log        logrus.FieldLogger
}

func NewNotifier(passengers PassengerLookup, mailer Mailer, log logrus.FieldLogger) *Notifier {
	return &Notifier{passengers: passengers, mailer: mailer, log: log}
}

// Handle returns an error only for failures worth redelivering the message for.
func (n *Notifier) Handle(ctx context.Context, event kafka.BookingEvent) error {
	entry := n.log.WithFields(logrus.Fields{"event": event.Type, "booking_id": event.BookingID})
	if event.PassportNo == "" {
		entry.Debug("event has no passenger, skipped")
		return nil
	}

	passenger, err := n.passengers.GetByPassport(ctx, event.PassportNo)
	if errors.Is(err, domain.ErrNotFound) {
		entry.Warn("passenger not found, notification skipped")
		return nil
	}
	if err != nil {
		return err
	}
	if passenger.Email == "" {
		entry.Debug("passenger has no email, skipped")
		return nil
	}

	if err := n.mailer.Send(ctx, passenger.Email, event); err != nil {
		// SMTP outages must not wedge the topic
		entry.WithError(err).Error("notification email failed")
		return nil
	}
	return nil
}
