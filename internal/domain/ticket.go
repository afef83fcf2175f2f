package domain

import (
	"fmt"
	"strings"
	"time"
)

const ticketFlightPrefixLen = 6

type Ticket struct {
	TicketNo   string    `json:"ticket_no"`
	BookingID  int64     `json:"booking_id"`
	FlightID   string    `json:"flight_id"`
	PassportNo string    `json:"passport_no"`
	SeatNo     string    `json:"seat_no"`
	Class      SeatClass `json:"class"`
	PriceCents int64     `json:"price_cents"`
	IssuedAt   time.Time `json:"issued_at"`
}

// TicketNumber is deterministic so a re-issue of the same booking hits the same row.
func TicketNumber(flightID, passportNo string, bookingID int64) string {
	prefix := strings.ToUpper(flightID)
	if len(prefix) > ticketFlightPrefixLen {
		prefix = prefix[:ticketFlightPrefixLen]
	}
	return fmt.Sprintf("TK%s-%s-%d", prefix, strings.ToUpper(passportNo), bookingID)
}

func NewTicket(b Booking, f Flight, now time.Time) Ticket {
	return Ticket{
		TicketNo:   TicketNumber(b.FlightID, b.PassportNo, b.ID),
		BookingID:  b.ID,
		FlightID:   b.FlightID,
		PassportNo: b.PassportNo,
		SeatNo:     b.SeatNo,
		Class:      b.Class,
		PriceCents: f.PriceCents,
		IssuedAt:   now,
	}
}
