package booking

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/repository"
)

// memFlights is a read-only catalog.
type memFlights map[string]domain.Flight

func (f memFlights) List(_ context.Context) ([]domain.Flight, error) {
	list := make([]domain.Flight, 0, len(f))
	for _, fl := range f {
		list = append(list, fl)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].DepartureTime.Before(list[j].DepartureTime) })
	return list, nil
}

func (f memFlights) GetByID(_ context.Context, id string) (*domain.Flight, error) {
	fl, ok := f[id]
	if !ok {
		return nil, domain.ErrFlightNotFound
	}
	return &fl, nil
}

func (f memFlights) Search(ctx context.Context, search domain.FlightSearch) ([]domain.Flight, error) {
	all, _ := f.List(ctx)
	var found []domain.Flight
	for _, fl := range all {
		if (search.Source == "" || fl.Source == search.Source) &&
			(search.Destination == "" || fl.Destination == search.Destination) &&
			(search.Date.IsZero() || fl.DepartsOn(search.Date)) {
			found = append(found, fl)
		}
	}
	return found, nil
}

type memData struct {
	bookings    map[int64]domain.Booking
	tickets     map[string]domain.Ticket
	refunds     map[int64]domain.Refund
	reschedules map[int64]domain.RescheduleTransaction
	passengers  map[string]domain.Passenger
	nextID      int64
}

func (d memData) clone() memData {
	return memData{
		bookings:    maps.Clone(d.bookings),
		tickets:     maps.Clone(d.tickets),
		refunds:     maps.Clone(d.refunds),
		reschedules: maps.Clone(d.reschedules),
		passengers:  maps.Clone(d.passengers),
		nextID:      d.nextID,
	}
}

// memStore keeps whole-store snapshots: a transaction works on a copy that
// replaces the committed state only when fn succeeds. Transactions are
// serialised, which stands in for the advisory seat lock.
type memStore struct {
	mu      sync.Mutex
	data    memData
	flights memFlights

	failPassenger     bool
	failBookingInsert bool
	failTicketInsert  bool
	failTicketUpdate  bool
	failRefundInsert  bool

	seatLocks int
}

func newMemStore(flights memFlights) *memStore {
	return &memStore{
		flights: flights,
		data: memData{
			bookings:    map[int64]domain.Booking{},
			tickets:     map[string]domain.Ticket{},
			refunds:     map[int64]domain.Refund{},
			reschedules: map[int64]domain.RescheduleTransaction{},
			passengers:  map[string]domain.Passenger{},
		},
	}
}

var errInjected = errors.New("injected failure")

func (s *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.BookingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{store: s, data: s.data.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return domain.ErrUnavailable
	}
	s.data = tx.data
	return nil
}

func (s *memStore) GetBooking(_ context.Context, id int64) (*domain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (s *memStore) filterBookings(keep func(domain.Booking) bool) []domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.Booking, 0)
	for _, b := range s.data.bookings {
		if keep(b) {
			list = append(list, b)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *memStore) ListByPassenger(_ context.Context, passportNo string) ([]domain.Booking, error) {
	return s.filterBookings(func(b domain.Booking) bool { return b.PassportNo == passportNo }), nil
}

func (s *memStore) ListByFlight(_ context.Context, flightID string) ([]domain.Booking, error) {
	return s.filterBookings(func(b domain.Booking) bool { return b.FlightID == flightID }), nil
}

func (s *memStore) ListPendingReschedules(_ context.Context, limit int) ([]domain.RescheduleTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.RescheduleTransaction, 0)
	for _, r := range s.data.reschedules {
		if r.Status == domain.RescheduleStatusPending {
			list = append(list, r)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *memStore) ListUnsyncedBookings(_ context.Context, limit int) ([]domain.Booking, error) {
	list := s.filterBookings(func(b domain.Booking) bool { return !b.TicketSynced && b.Active() })
	if len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *memStore) SyncTicket(_ context.Context, ticket domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for no, t := range s.data.tickets {
		if t.BookingID == ticket.BookingID {
			t.FlightID, t.SeatNo, t.Class, t.PriceCents = ticket.FlightID, ticket.SeatNo, ticket.Class, ticket.PriceCents
			s.data.tickets[no] = t
			replaced = true
		}
	}
	if !replaced {
		s.data.tickets[ticket.TicketNo] = ticket
	}
	b := s.data.bookings[ticket.BookingID]
	b.TicketSynced = true
	s.data.bookings[ticket.BookingID] = b
	return nil
}

func (s *memStore) FinalizeRefundsBefore(_ context.Context, deadline time.Time, limit int) ([]domain.Refund, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var done []domain.Refund
	for id, r := range s.data.refunds {
		if len(done) == limit {
			break
		}
		if r.Status == domain.RefundStatusPending && !r.CreatedAt.After(deadline) {
			at := deadline
			r.Status = domain.RefundStatusCompleted
			r.ProcessedAt = &at
			s.data.refunds[id] = r
			done = append(done, r)
		}
	}
	return done, nil
}

func (s *memStore) booking(id int64) domain.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.bookings[id]
}

func (s *memStore) refundsFor(bookingID int64) []domain.Refund {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []domain.Refund
	for _, r := range s.data.refunds {
		if r.BookingID == bookingID {
			list = append(list, r)
		}
	}
	return list
}

func (s *memStore) ticketFor(bookingID int64) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.data.tickets {
		if t.BookingID == bookingID {
			return t, true
		}
	}
	return domain.Ticket{}, false
}

func (s *memStore) reschedule(id int64) (domain.RescheduleTransaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.reschedules[id]
	return r, ok
}

func (s *memStore) counts() (bookings, reschedules int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.bookings), len(s.data.reschedules)
}

type memTx struct {
	store *memStore
	data  memData
}

func (t *memTx) id() int64 {
	t.data.nextID++
	return t.data.nextID
}

func (t *memTx) LockSeat(_ context.Context, _, _ string) error {
	t.store.seatLocks++
	return nil
}

func (t *memTx) GetFlight(ctx context.Context, id string) (*domain.Flight, error) {
	return t.store.flights.GetByID(ctx, id)
}

func (t *memTx) FindRouteFlight(_ context.Context, source, destination string, date time.Time, excludeFlightID string) (*domain.Flight, error) {
	var best *domain.Flight
	for _, f := range t.store.flights {
		if f.Source != source || f.Destination != destination || f.ID == excludeFlightID || !f.DepartsOn(date) {
			continue
		}
		if best == nil || f.DepartureTime.Before(best.DepartureTime) {
			best = &f
		}
	}
	return best, nil
}

func (t *memTx) UpsertPassenger(_ context.Context, p domain.Passenger) error {
	if t.store.failPassenger {
		return errInjected
	}
	t.data.passengers[p.PassportNo] = p
	return nil
}

func (t *memTx) FindActiveSeatHolder(_ context.Context, flightID, seatNo string) (*domain.Booking, error) {
	for _, b := range t.data.bookings {
		if b.FlightID == flightID && b.SeatNo == seatNo && b.Active() {
			return &b, nil
		}
	}
	return nil, nil
}

func (t *memTx) ListPassengerFlightBookings(_ context.Context, passportNo, flightID string) ([]domain.Booking, error) {
	var list []domain.Booking
	for _, b := range t.data.bookings {
		if b.PassportNo == passportNo && b.FlightID == flightID {
			list = append(list, b)
		}
	}
	return list, nil
}

// seatUnique mirrors the partial unique index on active seats.
func (t *memTx) seatUnique(flightID, seatNo string, except int64) error {
	for _, b := range t.data.bookings {
		if b.ID != except && b.Active() && b.FlightID == flightID && b.SeatNo == seatNo {
			return domain.ErrSeatTaken
		}
	}
	return nil
}

func (t *memTx) InsertBooking(_ context.Context, b *domain.Booking) error {
	if t.store.failBookingInsert {
		return domain.Persistence("insert booking", errInjected)
	}
	if err := t.seatUnique(b.FlightID, b.SeatNo, 0); err != nil {
		return err
	}
	b.ID = t.id()
	b.TicketSynced = true
	t.data.bookings[b.ID] = *b
	return nil
}

func (t *memTx) GetBookingForUpdate(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := t.data.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) MarkCancelled(_ context.Context, bookingID int64, at time.Time, by string) error {
	b := t.data.bookings[bookingID]
	b.Status = domain.BookingStatusCancelled
	b.CancelledAt = &at
	b.CancelledBy = &by
	t.data.bookings[bookingID] = b
	return nil
}

func (t *memTx) RestoreBooking(_ context.Context, bookingID int64) error {
	b := t.data.bookings[bookingID]
	if err := t.seatUnique(b.FlightID, b.SeatNo, b.ID); err != nil {
		return err
	}
	b.Status = domain.BookingStatusBooked
	b.CancelledAt, b.CancelledBy, b.RefundID = nil, nil, nil
	t.data.bookings[bookingID] = b
	return nil
}

func (t *memTx) MoveBooking(_ context.Context, bookingID int64, flightID, seatNo string) error {
	if err := t.seatUnique(flightID, seatNo, bookingID); err != nil {
		return err
	}
	b := t.data.bookings[bookingID]
	b.FlightID, b.SeatNo = flightID, seatNo
	t.data.bookings[bookingID] = b
	return nil
}

func (t *memTx) InsertTicket(_ context.Context, ticket domain.Ticket) error {
	if t.store.failTicketInsert {
		return domain.Persistence("insert ticket", errInjected)
	}
	t.data.tickets[ticket.TicketNo] = ticket
	return nil
}

func (t *memTx) UpdateTicketForBooking(_ context.Context, b domain.Booking, oldFlightID string, price int64) (bool, error) {
	if t.store.failTicketUpdate {
		return false, domain.Persistence("update ticket", errInjected)
	}
	no := ""
	for k, tk := range t.data.tickets {
		if tk.BookingID == b.ID {
			no = k
		}
	}
	if no == "" {
		for k, tk := range t.data.tickets {
			if tk.PassportNo == b.PassportNo && tk.FlightID == oldFlightID && (tk.BookingID == 0 || tk.BookingID == b.ID) {
				no = k
			}
		}
	}
	if no == "" {
		return false, nil
	}
	tk := t.data.tickets[no]
	tk.BookingID, tk.FlightID, tk.SeatNo, tk.PriceCents = b.ID, b.FlightID, b.SeatNo, price
	t.data.tickets[no] = tk
	return true, nil
}

func (t *memTx) MarkTicketUnsynced(_ context.Context, bookingID int64) error {
	b := t.data.bookings[bookingID]
	b.TicketSynced = false
	t.data.bookings[bookingID] = b
	return nil
}

func (t *memTx) InsertRefund(_ context.Context, r *domain.Refund) error {
	if t.store.failRefundInsert {
		return domain.Persistence("insert refund", errInjected)
	}
	r.ID = t.id()
	t.data.refunds[r.ID] = *r
	b := t.data.bookings[r.BookingID]
	id := r.ID
	b.RefundID = &id
	t.data.bookings[r.BookingID] = b
	return nil
}

func (t *memTx) GetRefundForUpdate(_ context.Context, id int64) (*domain.Refund, error) {
	r, ok := t.data.refunds[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (t *memTx) DeleteRefund(_ context.Context, id int64) error {
	if r, ok := t.data.refunds[id]; ok && r.Status == domain.RefundStatusPending {
		delete(t.data.refunds, id)
	}
	return nil
}

// InsertReschedule keeps requested_date the way a DATE column returns it.
func (t *memTx) InsertReschedule(_ context.Context, r *domain.RescheduleTransaction) error {
	r.ID = t.id()
	stored := *r
	y, m, d := r.RequestedDate.Date()
	stored.RequestedDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	t.data.reschedules[r.ID] = stored
	return nil
}

func (t *memTx) GetRescheduleForUpdate(_ context.Context, id int64) (*domain.RescheduleTransaction, error) {
	r, ok := t.data.reschedules[id]
	if !ok {
		return nil, domain.ErrRescheduleNotFound
	}
	return &r, nil
}

func (t *memTx) CompleteReschedule(_ context.Context, id int64, newFlightID, newSeat string, at time.Time) error {
	r := t.data.reschedules[id]
	r.Status = domain.RescheduleStatusCompleted
	r.NewFlightID, r.NewSeat, r.ProcessedAt = &newFlightID, &newSeat, &at
	t.data.reschedules[id] = r
	return nil
}

var (
	_ repository.BookingStore     = (*memStore)(nil)
	_ repository.BookingTx        = (*memTx)(nil)
	_ repository.FlightRepository = memFlights(nil)
)
