package kafka

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventBookingCreated     = "booking_created"
	EventBookingCancelled   = "booking_cancelled"
	EventBookingRestored    = "booking_restored"
	EventBookingRescheduled = "booking_rescheduled"
	EventRescheduleRecorded = "reschedule_recorded"
	EventRefundCompleted    = "refund_completed"
)

type BookingEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	BookingID   int64     `json:"booking_id"`
	FlightID    string    `json:"flight_id"`
	PassportNo  string    `json:"passport_no"`
	SeatNo      string    `json:"seat_no"`
	Status      string    `json:"status"`
	TicketNo    string    `json:"ticket_no,omitempty"`
	RefundCents int64     `json:"refund_cents,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string) BookingEvent {
	return BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}
