package grpc

import (
	"context"

	grpcgo "google.golang.org/grpc"
)

// StaffBookingClient calls a StaffBooking server using the JSON codec.
type StaffBookingClient struct {
	cc grpcgo.ClientConnInterface
}

func NewStaffBookingClient(cc grpcgo.ClientConnInterface) *StaffBookingClient {
	return &StaffBookingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpcgo.ClientConnInterface, method string, in any, opts []grpcgo.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpcgo.CallOption{grpcgo.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, fullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *StaffBookingClient) Availability(ctx context.Context, in *AvailabilityRequest, opts ...grpcgo.CallOption) (*AvailabilityResponse, error) {
	return invoke[AvailabilityResponse](ctx, c.cc, "Availability", in, opts)
}

func (c *StaffBookingClient) SuggestNext(ctx context.Context, in *SuggestNextRequest, opts ...grpcgo.CallOption) (*SuggestNextResponse, error) {
	return invoke[SuggestNextResponse](ctx, c.cc, "SuggestNext", in, opts)
}

func (c *StaffBookingClient) Periods(ctx context.Context, in *PeriodsRequest, opts ...grpcgo.CallOption) (*PeriodsResponse, error) {
	return invoke[PeriodsResponse](ctx, c.cc, "Periods", in, opts)
}

func (c *StaffBookingClient) Slots(ctx context.Context, in *SlotsRequest, opts ...grpcgo.CallOption) (*SlotsResponse, error) {
	return invoke[SlotsResponse](ctx, c.cc, "Slots", in, opts)
}

func (c *StaffBookingClient) Validate(ctx context.Context, in *BookingRequest, opts ...grpcgo.CallOption) (*ValidateResponse, error) {
	return invoke[ValidateResponse](ctx, c.cc, "Validate", in, opts)
}

func (c *StaffBookingClient) Book(ctx context.Context, in *BookingRequest, opts ...grpcgo.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "Book", in, opts)
}

func (c *StaffBookingClient) BookSeries(ctx context.Context, in *SeriesRequest, opts ...grpcgo.CallOption) (*AppointmentsResponse, error) {
	return invoke[AppointmentsResponse](ctx, c.cc, "BookSeries", in, opts)
}

func (c *StaffBookingClient) Reschedule(ctx context.Context, in *RescheduleRequest, opts ...grpcgo.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "Reschedule", in, opts)
}

func (c *StaffBookingClient) Cancel(ctx context.Context, in *AppointmentRequest, opts ...grpcgo.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "Cancel", in, opts)
}

func (c *StaffBookingClient) GetAppointment(ctx context.Context, in *AppointmentRequest, opts ...grpcgo.CallOption) (*AppointmentResponse, error) {
	return invoke[AppointmentResponse](ctx, c.cc, "GetAppointment", in, opts)
}

func (c *StaffBookingClient) DayAppointments(ctx context.Context, in *DayAppointmentsRequest, opts ...grpcgo.CallOption) (*AppointmentsResponse, error) {
	return invoke[AppointmentsResponse](ctx, c.cc, "DayAppointments", in, opts)
}
