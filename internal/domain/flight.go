package domain

import "time"

type Flight struct {
	ID            string    `json:"flight_id"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    int64     `json:"price_cents"`
	TotalSeats    int       `json:"total_seats"`
}

// SameRoute reports whether both flights connect the same pair of airports in the same direction.
func (f Flight) SameRoute(other Flight) bool {
	return f.Source == other.Source && f.Destination == other.Destination
}

// DepartsOn reports whether the flight leaves on day's calendar date in day's location.
func (f Flight) DepartsOn(day time.Time) bool {
	fy, fm, fd := f.DepartureTime.In(day.Location()).Date()
	y, m, d := day.Date()
	return fy == y && fm == m && fd == d
}

// FlightSearch.Date carries the schedule location the day is interpreted in.
type FlightSearch struct {
	Source      string
	Destination string
	Date        time.Time
}
