package bookings_service_api

import (
	"context"

	"github.com/Domenick1991/flightdesk/internal/service/booking"
	"google.golang.org/grpc"
)

const ServiceName = "flightdesk.bookings.v1.BookingsService"

type BookingRequest struct {
	BookingID int64 `json:"booking_id"`
}

type ProcessRescheduleRequest struct {
	RescheduleID int64 `json:"reschedule_id"`
}

// BookingsServiceServer is the server side of ServiceName.
type BookingsServiceServer interface {
	CreateBooking(ctx context.Context, req *booking.CreateBookingInput) (*booking.CreateBookingResult, error)
	CancelBooking(ctx context.Context, req *BookingRequest) (*booking.CancelResult, error)
	UndoCancel(ctx context.Context, req *BookingRequest) (*booking.UndoResult, error)
	Reschedule(ctx context.Context, req *booking.RescheduleInput) (*booking.RescheduleResult, error)
	ProcessReschedule(ctx context.Context, req *ProcessRescheduleRequest) (*booking.RescheduleResult, error)
}

func RegisterBookingsServiceServer(s grpc.ServiceRegistrar, srv BookingsServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// unaryHandler adapts one typed method to grpc.MethodDesc.
func unaryHandler[Req any, Resp any](method string, call func(BookingsServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BookingsServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingsServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("CreateBooking", BookingsServiceServer.CreateBooking),
		unaryHandler("CancelBooking", BookingsServiceServer.CancelBooking),
		unaryHandler("UndoCancel", BookingsServiceServer.UndoCancel),
		unaryHandler("Reschedule", BookingsServiceServer.Reschedule),
		unaryHandler("ProcessReschedule", BookingsServiceServer.ProcessReschedule),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "flightdesk/bookings/v1/bookings.proto",
}
