package domain

import (
	"regexp"
	"time"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type SeatClass string

const (
	ClassEconomy  SeatClass = "Economy"
	ClassBusiness SeatClass = "Business"
)

// ParseSeatClass defaults to Economy when the value is empty.
func ParseSeatClass(s string) (SeatClass, error) {
	switch s {
	case "", string(ClassEconomy), "economy":
		return ClassEconomy, nil
	case string(ClassBusiness), "business":
		return ClassBusiness, nil
	default:
		return "", Validationf("unknown class %q", s)
	}
}

var seatNoPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{0,9}$`)

// ValidSeatNo reports whether s looks like a seat label such as "12A".
func ValidSeatNo(s string) bool {
	return seatNoPattern.MatchString(s)
}

type Booking struct {
	ID           int64         `json:"booking_id"`
	FlightID     string        `json:"flight_id"`
	PassportNo   string        `json:"passport_no"`
	SeatNo       string        `json:"seat_no"`
	Class        SeatClass     `json:"class"`
	Status       BookingStatus `json:"status"`
	BookingDate  time.Time     `json:"booking_date"`
	CancelledAt  *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy  *string       `json:"cancelled_by,omitempty"`
	RefundID     *int64        `json:"refund_id,omitempty"`
	TicketSynced bool          `json:"ticket_synced"`
}

func (b Booking) Active() bool {
	return b.Status == BookingStatusBooked
}

// Passenger contact fields are optional; empty values leave the stored ones untouched.
type Passenger struct {
	PassportNo string
	Name       string
	Email      string
	Phone      string
	Address    string
	Gender     string
	DOB        *time.Time
}
