package domain

import "time"

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusCompleted RefundStatus = "completed"
)

// RefundRatePercent is fixed: a cancellation always keeps 10% of the fare.
const RefundRatePercent = 90

type Refund struct {
	ID          int64        `json:"refund_id"`
	BookingID   int64        `json:"booking_id"`
	PassportNo  string       `json:"passport_no"`
	AmountCents int64        `json:"amount_cents"`
	Status      RefundStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `json:"processed_at,omitempty"`
}

func (r Refund) Finalized() bool {
	return r.Status == RefundStatusCompleted
}

// RefundAmount returns ratePercent of the fare, rounded half up to the cent.
func RefundAmount(priceCents int64, ratePercent int) int64 {
	return (priceCents*int64(ratePercent) + 50) / 100
}
