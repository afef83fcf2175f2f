package bookings_service_api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Domenick1991/flightdesk/config"
	"github.com/Domenick1991/flightdesk/internal/auth"
	"github.com/Domenick1991/flightdesk/internal/domain"
	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type mockBookings struct {
	mock.Mock
	booking.BookingUseCase
}

func (m *mockBookings) CreateBooking(ctx context.Context, caller domain.Caller, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *mockBookings) CancelBooking(ctx context.Context, caller domain.Caller, id int64) (*booking.CancelResult, error) {
	args := m.Called(caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CancelResult), args.Error(1)
}

func (m *mockBookings) UndoCancel(ctx context.Context, caller domain.Caller, id int64) (*booking.UndoResult, error) {
	args := m.Called(caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.UndoResult), args.Error(1)
}

func (m *mockBookings) Reschedule(ctx context.Context, caller domain.Caller, input booking.RescheduleInput) (*booking.RescheduleResult, error) {
	args := m.Called(caller, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RescheduleResult), args.Error(1)
}

func (m *mockBookings) ProcessReschedule(ctx context.Context, caller domain.Caller, id int64) (*booking.RescheduleResult, error) {
	args := m.Called(caller, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.RescheduleResult), args.Error(1)
}

var passenger = domain.Caller{PassportNo: "P1234567", Role: domain.RolePassenger}

type rpcHarness struct {
	conn     *grpc.ClientConn
	bookings *mockBookings
	hook     *test.Hook
	token    string
}

func newRPCHarness(t *testing.T) *rpcHarness {
	t.Helper()
	log, hook := test.NewNullLogger()
	tokens := auth.NewTokenManager(config.AuthConfig{JWTSecret: "test-secret", Issuer: "flightdesk", TokenTTL: 60})
	bookings := &mockBookings{}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(AuthInterceptor(tokens)))
	RegisterBookingsServiceServer(srv, NewServer(bookings, log))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	token, err := tokens.Issue(passenger)
	require.NoError(t, err)
	return &rpcHarness{conn: conn, bookings: bookings, hook: hook, token: token}
}

func (h *rpcHarness) invoke(t *testing.T, method string, token string, req, resp any) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}
	return h.conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, resp)
}

func TestServer_CreateBooking(t *testing.T) {
	h := newRPCHarness(t)
	input := booking.CreateBookingInput{FlightID: "SQ2510250220100", SeatNo: "12A", Name: "Asha"}
	h.bookings.On("CreateBooking", passenger, input).Return(&booking.CreateBookingResult{
		BookingID: 7, FlightID: "SQ2510250220100", SeatNo: "12A", PriceCents: 500000, TicketIssued: true,
	}, nil).Once()

	var resp booking.CreateBookingResult
	err := h.invoke(t, "CreateBooking", h.token, &input, &resp)

	require.NoError(t, err)
	assert.Equal(t, int64(7), resp.BookingID)
	assert.Equal(t, int64(500000), resp.PriceCents)
	h.bookings.AssertExpectations(t)
}

func TestServer_RequiresToken(t *testing.T) {
	h := newRPCHarness(t)

	var resp booking.CancelResult
	err := h.invoke(t, "CancelBooking", "", &BookingRequest{BookingID: 1}, &resp)

	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	h.bookings.AssertNotCalled(t, "CancelBooking", mock.Anything, mock.Anything)
}

func TestServer_ErrorCodes(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{name: "not found", err: domain.ErrBookingNotFound, code: codes.NotFound, message: "booking not found"},
		{name: "not owner", err: domain.ErrNotOwner, code: codes.PermissionDenied, message: "booking belongs to another passenger"},
		{name: "refund final", err: domain.ErrRefundFinalized, code: codes.FailedPrecondition, message: "refund already completed"},
		{name: "seat resold", err: domain.ErrSeatTaken, code: codes.AlreadyExists, message: "seat already taken"},
		{name: "timeout", err: domain.ErrUnavailable, code: codes.Unavailable, message: "service temporarily unavailable"},
		{name: "storage", err: domain.Persistence("delete refund", assert.AnError), code: codes.Internal, message: "internal error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newRPCHarness(t)
			h.bookings.On("UndoCancel", passenger, int64(3)).Return(nil, tc.err).Once()

			var resp booking.UndoResult
			err := h.invoke(t, "UndoCancel", h.token, &BookingRequest{BookingID: 3}, &resp)

			st, ok := status.FromError(err)
			require.True(t, ok)
			assert.Equal(t, tc.code, st.Code())
			assert.Equal(t, tc.message, st.Message())
			if tc.code == codes.Internal {
				require.NotNil(t, h.hook.LastEntry())
				assert.Equal(t, "rpc failed", h.hook.LastEntry().Message)
			}
		})
	}
}

func TestServer_Reschedule(t *testing.T) {
	h := newRPCHarness(t)
	input := booking.RescheduleInput{BookingID: 9, NewDate: "2025-10-27", AutoProcess: true}
	flight := "SQ2510270600100"
	h.bookings.On("Reschedule", passenger, input).Return(&booking.RescheduleResult{
		TransactionID:   12,
		AppliedFlightID: &flight,
		Status:          domain.RescheduleStatusCompleted,
	}, nil).Once()
	h.bookings.On("ProcessReschedule", passenger, int64(12)).Return(nil, domain.ErrForbidden).Once()

	var resp booking.RescheduleResult
	require.NoError(t, h.invoke(t, "Reschedule", h.token, &input, &resp))
	require.NotNil(t, resp.AppliedFlightID)
	assert.Equal(t, flight, *resp.AppliedFlightID)

	err := h.invoke(t, "ProcessReschedule", h.token, &ProcessRescheduleRequest{RescheduleID: 12}, &resp)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	h.bookings.AssertExpectations(t)
}
