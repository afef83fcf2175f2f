package flights

import (
	"context"
	"strings"
	"time"

	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/repository"
	"github.com/sirupsen/logrus"
)

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id string) (*domain.Flight, error)
	Search(ctx context.Context, source, destination, date string) ([]domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type FlightService struct {
	repo     repository.FlightRepository
	cache    FlightCache
	log      logrus.FieldLogger
	location *time.Location
}

type FlightServiceOption func(*FlightService)

// WithLocation sets the zone a search date is a calendar day in. Defaults to UTC.
func WithLocation(loc *time.Location) FlightServiceOption {
	return func(s *FlightService) {
		if loc != nil {
			s.location = loc
		}
	}
}

// NewFlightService accepts a nil cache; every List then goes to the database.
func NewFlightService(repo repository.FlightRepository, cache FlightCache, log logrus.FieldLogger, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{repo: repo, cache: cache, log: log, location: time.UTC}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		cached, err := s.cache.GetFlights(ctx)
		if err != nil {
			s.log.WithError(err).Warn("flights cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			s.log.WithError(err).Warn("flights cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id string) (*domain.Flight, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Validationf("flight_id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// Search takes an optional YYYY-MM-DD date; airports are compared upper-cased.
func (s *FlightService) Search(ctx context.Context, source, destination, date string) ([]domain.Flight, error) {
	search := domain.FlightSearch{
		Source:      strings.ToUpper(strings.TrimSpace(source)),
		Destination: strings.ToUpper(strings.TrimSpace(destination)),
	}
	if date = strings.TrimSpace(date); date != "" {
		d, err := time.ParseInLocation(time.DateOnly, date, s.location)
		if err != nil {
			return nil, domain.Validationf("date must be YYYY-MM-DD")
		}
		search.Date = d
	}
	return s.repo.Search(ctx, search)
}

var _ FlightUseCase = (*FlightService)(nil)
