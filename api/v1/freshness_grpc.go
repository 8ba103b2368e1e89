// Package v1 holds the freshness.v1.Freshness service. Requests and
// responses are typed Go messages; on the wire each one is a JSON object
// carried as google.protobuf.Struct (see freshness.proto), so the
// descriptor below is maintained by hand.
package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "freshness.v1.Freshness"

const (
	Freshness_SubmitRating_FullMethodName        = "/freshness.v1.Freshness/SubmitRating"
	Freshness_GetRatingSummary_FullMethodName    = "/freshness.v1.Freshness/GetRatingSummary"
	Freshness_GetLocation_FullMethodName         = "/freshness.v1.Freshness/GetLocation"
	Freshness_GetLocations_FullMethodName        = "/freshness.v1.Freshness/GetLocations"
	Freshness_GetLocationScore_FullMethodName    = "/freshness.v1.Freshness/GetLocationScore"
	Freshness_GetLocationStats_FullMethodName    = "/freshness.v1.Freshness/GetLocationStats"
	Freshness_GetTimeAnalysis_FullMethodName     = "/freshness.v1.Freshness/GetTimeAnalysis"
	Freshness_GetNearbyLocations_FullMethodName  = "/freshness.v1.Freshness/GetNearbyLocations"
	Freshness_SearchLocations_FullMethodName     = "/freshness.v1.Freshness/SearchLocations"
	Freshness_GetPopularLocations_FullMethodName = "/freshness.v1.Freshness/GetPopularLocations"
	Freshness_GetUserPreferences_FullMethodName  = "/freshness.v1.Freshness/GetUserPreferences"
	Freshness_SetUserPreferences_FullMethodName  = "/freshness.v1.Freshness/SetUserPreferences"
)

// FreshnessServer is the server API for the Freshness service.
type FreshnessServer interface {
	SubmitRating(context.Context, *SubmitRatingRequest) (*SubmitRatingResponse, error)
	GetRatingSummary(context.Context, *LocationRequest) (*RatingSummary, error)
	GetLocation(context.Context, *LocationRequest) (*LocationDetail, error)
	GetLocations(context.Context, *LocationsRequest) (*LocationsResponse, error)
	GetLocationScore(context.Context, *LocationRequest) (*LocationScore, error)
	GetLocationStats(context.Context, *LocationRequest) (*LocationStats, error)
	GetTimeAnalysis(context.Context, *LocationRequest) (*TimeAnalysis, error)
	GetNearbyLocations(context.Context, *NearbyRequest) (*NearbyResponse, error)
	SearchLocations(context.Context, *SearchRequest) (*SearchResponse, error)
	GetPopularLocations(context.Context, *PopularRequest) (*PopularResponse, error)
	GetUserPreferences(context.Context, *UserPreferencesRequest) (*UserPreferencesResponse, error)
	SetUserPreferences(context.Context, *SetUserPreferencesRequest) (*SetUserPreferencesResponse, error)
}

// UnimplementedFreshnessServer must be embedded to have forward compatible
// implementations.
type UnimplementedFreshnessServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedFreshnessServer) SubmitRating(context.Context, *SubmitRatingRequest) (*SubmitRatingResponse, error) {
	return nil, unimplemented("SubmitRating")
}
func (UnimplementedFreshnessServer) GetRatingSummary(context.Context, *LocationRequest) (*RatingSummary, error) {
	return nil, unimplemented("GetRatingSummary")
}
func (UnimplementedFreshnessServer) GetLocation(context.Context, *LocationRequest) (*LocationDetail, error) {
	return nil, unimplemented("GetLocation")
}
func (UnimplementedFreshnessServer) GetLocations(context.Context, *LocationsRequest) (*LocationsResponse, error) {
	return nil, unimplemented("GetLocations")
}
func (UnimplementedFreshnessServer) GetLocationScore(context.Context, *LocationRequest) (*LocationScore, error) {
	return nil, unimplemented("GetLocationScore")
}
func (UnimplementedFreshnessServer) GetLocationStats(context.Context, *LocationRequest) (*LocationStats, error) {
	return nil, unimplemented("GetLocationStats")
}
func (UnimplementedFreshnessServer) GetTimeAnalysis(context.Context, *LocationRequest) (*TimeAnalysis, error) {
	return nil, unimplemented("GetTimeAnalysis")
}
func (UnimplementedFreshnessServer) GetNearbyLocations(context.Context, *NearbyRequest) (*NearbyResponse, error) {
	return nil, unimplemented("GetNearbyLocations")
}
func (UnimplementedFreshnessServer) SearchLocations(context.Context, *SearchRequest) (*SearchResponse, error) {
	return nil, unimplemented("SearchLocations")
}
func (UnimplementedFreshnessServer) GetPopularLocations(context.Context, *PopularRequest) (*PopularResponse, error) {
	return nil, unimplemented("GetPopularLocations")
}
func (UnimplementedFreshnessServer) GetUserPreferences(context.Context, *UserPreferencesRequest) (*UserPreferencesResponse, error) {
	return nil, unimplemented("GetUserPreferences")
}
func (UnimplementedFreshnessServer) SetUserPreferences(context.Context, *SetUserPreferencesRequest) (*SetUserPreferencesResponse, error) {
	return nil, unimplemented("SetUserPreferences")
}

func RegisterFreshnessServer(s grpc.ServiceRegistrar, srv FreshnessServer) {
	s.RegisterService(&Freshness_ServiceDesc, srv)
}

// unaryHandler decodes the Struct body into Req before interceptors run and
// encodes the handler's Resp afterwards. A body that does not fit Req is
// rejected with InvalidArgument.
func unaryHandler[Req, Resp any](fullMethod string, call func(FreshnessServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		body := new(structpb.Struct)
		if err := dec(body); err != nil {
			return nil, err
		}
		in := new(Req)
		if err := FromBody(body, in); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
		}

		handle := func(ctx context.Context, req any) (any, error) {
			out, err := call(srv.(FreshnessServer), ctx, req.(*Req))
			if err != nil {
				return nil, err
			}
			resp, err := ToBody(out)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode response: %v", err)
			}
			return resp, nil
		}
		if interceptor == nil {
			return handle(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handle)
	}
}

// Freshness_ServiceDesc is the grpc.ServiceDesc for the Freshness service.
var Freshness_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FreshnessServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitRating", Handler: unaryHandler(Freshness_SubmitRating_FullMethodName, FreshnessServer.SubmitRating)},
		{MethodName: "GetRatingSummary", Handler: unaryHandler(Freshness_GetRatingSummary_FullMethodName, FreshnessServer.GetRatingSummary)},
		{MethodName: "GetLocation", Handler: unaryHandler(Freshness_GetLocation_FullMethodName, FreshnessServer.GetLocation)},
		{MethodName: "GetLocations", Handler: unaryHandler(Freshness_GetLocations_FullMethodName, FreshnessServer.GetLocations)},
		{MethodName: "GetLocationScore", Handler: unaryHandler(Freshness_GetLocationScore_FullMethodName, FreshnessServer.GetLocationScore)},
		{MethodName: "GetLocationStats", Handler: unaryHandler(Freshness_GetLocationStats_FullMethodName, FreshnessServer.GetLocationStats)},
		{MethodName: "GetTimeAnalysis", Handler: unaryHandler(Freshness_GetTimeAnalysis_FullMethodName, FreshnessServer.GetTimeAnalysis)},
		{MethodName: "GetNearbyLocations", Handler: unaryHandler(Freshness_GetNearbyLocations_FullMethodName, FreshnessServer.GetNearbyLocations)},
		{MethodName: "SearchLocations", Handler: unaryHandler(Freshness_SearchLocations_FullMethodName, FreshnessServer.SearchLocations)},
		{MethodName: "GetPopularLocations", Handler: unaryHandler(Freshness_GetPopularLocations_FullMethodName, FreshnessServer.GetPopularLocations)},
		{MethodName: "GetUserPreferences", Handler: unaryHandler(Freshness_GetUserPreferences_FullMethodName, FreshnessServer.GetUserPreferences)},
		{MethodName: "SetUserPreferences", Handler: unaryHandler(Freshness_SetUserPreferences_FullMethodName, FreshnessServer.SetUserPreferences)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/v1/freshness.proto",
}

// FreshnessClient is the client API for the Freshness service.
type FreshnessClient interface {
	SubmitRating(ctx context.Context, in *SubmitRatingRequest, opts ...grpc.CallOption) (*SubmitRatingResponse, error)
	GetRatingSummary(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*RatingSummary, error)
	GetLocation(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationDetail, error)
	GetLocations(ctx context.Context, in *LocationsRequest, opts ...grpc.CallOption) (*LocationsResponse, error)
	GetLocationScore(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationScore, error)
	GetLocationStats(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationStats, error)
	GetTimeAnalysis(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*TimeAnalysis, error)
	GetNearbyLocations(ctx context.Context, in *NearbyRequest, opts ...grpc.CallOption) (*NearbyResponse, error)
	SearchLocations(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error)
	GetPopularLocations(ctx context.Context, in *PopularRequest, opts ...grpc.CallOption) (*PopularResponse, error)
	GetUserPreferences(ctx context.Context, in *UserPreferencesRequest, opts ...grpc.CallOption) (*UserPreferencesResponse, error)
	SetUserPreferences(ctx context.Context, in *SetUserPreferencesRequest, opts ...grpc.CallOption) (*SetUserPreferencesResponse, error)
}

type freshnessClient struct {
	cc grpc.ClientConnInterface
}

func NewFreshnessClient(cc grpc.ClientConnInterface) FreshnessClient {
	return &freshnessClient{cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	body, err := ToBody(in)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "encode request: %v", err)
	}
	reply := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, body, reply, opts...); err != nil {
		return nil, err
	}
	out := new(Resp)
	if err := FromBody(reply, out); err != nil {
		return nil, status.Errorf(codes.Internal, "decode response: %v", err)
	}
	return out, nil
}

func (c *freshnessClient) SubmitRating(ctx context.Context, in *SubmitRatingRequest, opts ...grpc.CallOption) (*SubmitRatingResponse, error) {
	return invoke[SubmitRatingResponse](ctx, c.cc, Freshness_SubmitRating_FullMethodName, in, opts)
}
func (c *freshnessClient) GetRatingSummary(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*RatingSummary, error) {
	return invoke[RatingSummary](ctx, c.cc, Freshness_GetRatingSummary_FullMethodName, in, opts)
}
func (c *freshnessClient) GetLocation(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationDetail, error) {
	return invoke[LocationDetail](ctx, c.cc, Freshness_GetLocation_FullMethodName, in, opts)
}
func (c *freshnessClient) GetLocations(ctx context.Context, in *LocationsRequest, opts ...grpc.CallOption) (*LocationsResponse, error) {
	return invoke[LocationsResponse](ctx, c.cc, Freshness_GetLocations_FullMethodName, in, opts)
}
func (c *freshnessClient) GetLocationScore(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationScore, error) {
	return invoke[LocationScore](ctx, c.cc, Freshness_GetLocationScore_FullMethodName, in, opts)
}
func (c *freshnessClient) GetLocationStats(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*LocationStats, error) {
	return invoke[LocationStats](ctx, c.cc, Freshness_GetLocationStats_FullMethodName, in, opts)
}
func (c *freshnessClient) GetTimeAnalysis(ctx context.Context, in *LocationRequest, opts ...grpc.CallOption) (*TimeAnalysis, error) {
	return invoke[TimeAnalysis](ctx, c.cc, Freshness_GetTimeAnalysis_FullMethodName, in, opts)
}
func (c *freshnessClient) GetNearbyLocations(ctx context.Context, in *NearbyRequest, opts ...grpc.CallOption) (*NearbyResponse, error) {
	return invoke[NearbyResponse](ctx, c.cc, Freshness_GetNearbyLocations_FullMethodName, in, opts)
}
func (c *freshnessClient) SearchLocations(ctx context.Context, in *SearchRequest, opts ...grpc.CallOption) (*SearchResponse, error) {
	return invoke[SearchResponse](ctx, c.cc, Freshness_SearchLocations_FullMethodName, in, opts)
}
func (c *freshnessClient) GetPopularLocations(ctx context.Context, in *PopularRequest, opts ...grpc.CallOption) (*PopularResponse, error) {
	return invoke[PopularResponse](ctx, c.cc, Freshness_GetPopularLocations_FullMethodName, in, opts)
}
func (c *freshnessClient) GetUserPreferences(ctx context.Context, in *UserPreferencesRequest, opts ...grpc.CallOption) (*UserPreferencesResponse, error) {
	return invoke[UserPreferencesResponse](ctx, c.cc, Freshness_GetUserPreferences_FullMethodName, in, opts)
}
func (c *freshnessClient) SetUserPreferences(ctx context.Context, in *SetUserPreferencesRequest, opts ...grpc.CallOption) (*SetUserPreferencesResponse, error) {
	return invoke[SetUserPreferencesResponse](ctx, c.cc, Freshness_SetUserPreferences_FullMethodName, in, opts)
}
