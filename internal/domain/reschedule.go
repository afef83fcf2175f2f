package domain

import "time"

type RescheduleStatus string

const (
	RescheduleStatusPending   RescheduleStatus = "pending"
	RescheduleStatusCompleted RescheduleStatus = "completed"
)

// RescheduleTransaction is append-only: one row per request.
type RescheduleTransaction struct {
	ID            int64            `json:"id"`
	BookingID     int64            `json:"booking_id"`
	OldFlightID   string           `json:"old_flight_id"`
	NewFlightID   *string          `json:"new_flight_id,omitempty"`
	OldSeat       string           `json:"old_seat"`
	NewSeat       *string          `json:"new_seat,omitempty"`
	RequestedBy   string           `json:"requested_by"`
	Status        RescheduleStatus `json:"status"`
	Reason        *string          `json:"reason,omitempty"`
	RequestedDate time.Time        `json:"requested_date"`
	CreatedAt     time.Time        `json:"created_at"`
	ProcessedAt   *time.Time       `json:"processed_at,omitempty"`
}
