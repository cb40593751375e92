package grpc

import (
	"context"

	grpcgo "google.golang.org/grpc"
)

const serviceName = "clinicsched.v1.StaffBooking"

// StaffBookingServer is the staff facing booking API.
type StaffBookingServer interface {
	Availability(context.Context, *AvailabilityRequest) (*AvailabilityResponse, error)
	SuggestNext(context.Context, *SuggestNextRequest) (*SuggestNextResponse, error)
	Periods(context.Context, *PeriodsRequest) (*PeriodsResponse, error)
	Slots(context.Context, *SlotsRequest) (*SlotsResponse, error)
	Validate(context.Context, *BookingRequest) (*ValidateResponse, error)
	Book(context.Context, *BookingRequest) (*AppointmentResponse, error)
	BookSeries(context.Context, *SeriesRequest) (*AppointmentsResponse, error)
	Reschedule(context.Context, *RescheduleRequest) (*AppointmentResponse, error)
	Cancel(context.Context, *AppointmentRequest) (*AppointmentResponse, error)
	GetAppointment(context.Context, *AppointmentRequest) (*AppointmentResponse, error)
	DayAppointments(context.Context, *DayAppointmentsRequest) (*AppointmentsResponse, error)
}

var StaffBookingServiceDesc = grpcgo.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StaffBookingServer)(nil),
	Methods: []grpcgo.MethodDesc{
		{MethodName: "Availability", Handler: unaryHandler("Availability", StaffBookingServer.Availability)},
		{MethodName: "SuggestNext", Handler: unaryHandler("SuggestNext", StaffBookingServer.SuggestNext)},
		{MethodName: "Periods", Handler: unaryHandler("Periods", StaffBookingServer.Periods)},
		{MethodName: "Slots", Handler: unaryHandler("Slots", StaffBookingServer.Slots)},
		{MethodName: "Validate", Handler: unaryHandler("Validate", StaffBookingServer.Validate)},
		{MethodName: "Book", Handler: unaryHandler("Book", StaffBookingServer.Book)},
		{MethodName: "BookSeries", Handler: unaryHandler("BookSeries", StaffBookingServer.BookSeries)},
		{MethodName: "Reschedule", Handler: unaryHandler("Reschedule", StaffBookingServer.Reschedule)},
		{MethodName: "Cancel", Handler: unaryHandler("Cancel", StaffBookingServer.Cancel)},
		{MethodName: "GetAppointment", Handler: unaryHandler("GetAppointment", StaffBookingServer.GetAppointment)},
		{MethodName: "DayAppointments", Handler: unaryHandler("DayAppointments", StaffBookingServer.DayAppointments)},
	},
	Streams:  []grpcgo.StreamDesc{},
	Metadata: "clinicsched/v1/staff_booking",
}

func RegisterStaffBookingServer(s grpcgo.ServiceRegistrar, srv StaffBookingServer) {
	s.RegisterService(&StaffBookingServiceDesc, srv)
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

func unaryHandler[Req, Resp any](method string, call func(StaffBookingServer, context.Context, *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpcgo.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpcgo.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StaffBookingServer), ctx, in)
		}
		info := &grpcgo.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(StaffBookingServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
