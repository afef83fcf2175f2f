package bookings_service_api

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Server exposes the booking lifecycle over gRPC. Callers come from AuthInterceptor.
type Server struct {
	bookings booking.BookingUseCase
	log      logrus.FieldLogger
}

var _ BookingsServiceServer = (*Server)(nil)

func NewServer(bookings booking.BookingUseCase, log logrus.FieldLogger) *Server {
	return &Server{bookings: bookings, log: log}
}

func (s *Server) CreateBooking(ctx context.Context, req *booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	result, err := s.bookings.CreateBooking(ctx, auth.CallerFromContext(ctx), *req)
	if err != nil {
		return nil, s.toStatus("CreateBooking", err)
	}
	return result, nil
}

func (s *Server) CancelBooking(ctx context.Context, req *BookingRequest) (*booking.CancelResult, error) {
	result, err := s.bookings.CancelBooking(ctx, auth.CallerFromContext(ctx), req.BookingID)
	if err != nil {
		return nil, s.toStatus("CancelBooking", err)
	}
	return result, nil
}

func (s *Server) UndoCancel(ctx context.Context, req *BookingRequest) (*booking.UndoResult, error) {
	result, err := s.bookings.UndoCancel(ctx, auth.CallerFromContext(ctx), req.BookingID)
	if err != nil {
		return nil, s.toStatus("UndoCancel", err)
	}
	return result, nil
}

func (s *Server) Reschedule(ctx context.Context, req *booking.RescheduleInput) (*booking.RescheduleResult, error) {
	result, err := s.bookings.Reschedule(ctx, auth.CallerFromContext(ctx), *req)
	if err != nil {
		return nil, s.toStatus("Reschedule", err)
	}
	return result, nil
}

func (s *Server) ProcessReschedule(ctx context.Context, req *ProcessRescheduleRequest) (*booking.RescheduleResult, error) {
	result, err := s.bookings.ProcessReschedule(ctx, auth.CallerFromContext(ctx), req.RescheduleID)
	if err != nil {
		return nil, s.toStatus("ProcessReschedule", err)
	}
	return result, nil
}

func (s *Server) toStatus(method string, err error) error {
	code := codeFor(err)
	switch code {
	case codes.Internal:
		s.log.WithError(err).WithField("method", method).Error("rpc failed")
	case codes.Unavailable:
		s.log.WithError(err).WithField("method", method).Warn("rpc timed out")
	}
	return status.Error(code, domain.PublicMessage(err))
}

func codeFor(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, domain.ErrForbidden):
		return codes.PermissionDenied
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrSeatTaken), errors.Is(err, domain.ErrSeatAlreadyBooked):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrConflict):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// AuthInterceptor resolves the bearer token in the "authorization" metadata.
// Methods outside ServiceName (health, reflection) pass through untouched.
func AuthInterceptor(tokens *auth.TokenManager) grpc.UnaryServerInterceptor {
	prefix := "/" + ServiceName + "/"
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !strings.HasPrefix(info.FullMethod, prefix) {
			return handler(ctx, req)
		}

		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get("authorization"); len(values) > 0 {
				header = values[0]
			}
		}
		caller, err := tokens.Parse(auth.BearerToken(header))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "invalid or missing token")
		}
		return handler(auth.ContextWithCaller(ctx, caller), req)
	}
}
