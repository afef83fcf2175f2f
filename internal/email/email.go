package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/kafka"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Sender struct {
	dialer Dialer
	from   string
	log    logrus.FieldLogger
}

// NewSender returns a sender that only logs when no SMTP host is configured.
func NewSender(cfg config.SMTPConfig, log logrus.FieldLogger) *Sender {
	s := &Sender{from: cfg.From, log: log}
	if cfg.Host != "" {
		s.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return s
}

func NewSenderWithDialer(d Dialer, from string, log logrus.FieldLogger) *Sender {
	return &Sender{dialer: d, from: from, log: log}
}

var subjects = map[string]string{
	kafka.EventBookingCreated:     "Your booking is confirmed",
	kafka.EventBookingCancelled:   "Your booking was cancelled",
	kafka.EventBookingRestored:    "Your booking was restored",
	kafka.EventBookingRescheduled: "Your booking was rescheduled",
	kafka.EventRescheduleRecorded: "We received your reschedule request",
	kafka.EventRefundCompleted:    "Your refund has been processed",
}

var bodyTemplate = template.Must(template.New("notification").Parse(`<p>Booking #{{.BookingID}}</p>
<p>Flight {{.FlightID}}, seat {{.SeatNo}}, status: {{.Status}}</p>
{{if .TicketNo}}<p>Ticket: {{.TicketNo}}</p>{{end}}
{{if .RefundCents}}<p>Refund: {{.Refund}}</p>{{end}}`))

type bodyData struct {
	kafka.BookingEvent
	Refund string
}

// Send emails the passenger about a lifecycle event. Unknown event types are ignored.
func (s *Sender) Send(ctx context.Context, to string, event kafka.BookingEvent) error {
	subject, ok := subjects[event.Type]
	if !ok || to == "" {
		return nil
	}

	var body bytes.Buffer
	data := bodyData{BookingEvent: event, Refund: fmt.Sprintf("%d.%02d", event.RefundCents/100, event.RefundCents%100)}
	if err := bodyTemplate.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	entry := s.log.WithFields(logrus.Fields{"to": to, "type": event.Type, "booking_id": event.BookingID})
	if s.dialer == nil {
		entry.Info("smtp not configured, skipping email")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	entry.Info("email sent")
	return nil
}
