package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the appraisal service
const ServiceName = "appraisal.v1.AppraisalService"

// AppraisalServiceServer is the server API for the appraisal service.
// Every request and response is a google.protobuf.Struct carrying snake_case JSON fields.
type AppraisalServiceServer interface {
	// Stateless engine calls
	RecomputeRow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeTotals(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EstimateRentFromSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EstimatePriceFromRent(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSimulation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ApplyAdjustment(context.Context, *structpb.Struct) (*structpb.Struct, error)

	// Breakdown and estimation
	AddBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetLocalType(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveBreakdown(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReorderBreakdowns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetAnalysis(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveEstimation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportSynthesis(context.Context, *structpb.Struct) (*structpb.Struct, error)

	// Simulations
	CreateSimulation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateSimulation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSimulations(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSimulation(context.Context, *structpb.Struct) (*structpb.Struct, error)

	// Comparables
	SelectComparable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetAdjustment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveComparable(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetComparison(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AppraisalServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the appraisal service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AppraisalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("RecomputeRow", AppraisalServiceServer.RecomputeRow),
		unaryHandler("ComputeTotals", AppraisalServiceServer.ComputeTotals),
		unaryHandler("EstimateRentFromSale", AppraisalServiceServer.EstimateRentFromSale),
		unaryHandler("EstimatePriceFromRent", AppraisalServiceServer.EstimatePriceFromRent),
		unaryHandler("ComputeSimulation", AppraisalServiceServer.ComputeSimulation),
		unaryHandler("ApplyAdjustment", AppraisalServiceServer.ApplyAdjustment),
		unaryHandler("AddBreakdown", AppraisalServiceServer.AddBreakdown),
		unaryHandler("EditBreakdown", AppraisalServiceServer.EditBreakdown),
		unaryHandler("SetLocalType", AppraisalServiceServer.SetLocalType),
		unaryHandler("RemoveBreakdown", AppraisalServiceServer.RemoveBreakdown),
		unaryHandler("ReorderBreakdowns", AppraisalServiceServer.ReorderBreakdowns),
		unaryHandler("GetAnalysis", AppraisalServiceServer.GetAnalysis),
		unaryHandler("SaveEstimation", AppraisalServiceServer.SaveEstimation),
		unaryHandler("ExportSynthesis", AppraisalServiceServer.ExportSynthesis),
		unaryHandler("CreateSimulation", AppraisalServiceServer.CreateSimulation),
		unaryHandler("UpdateSimulation", AppraisalServiceServer.UpdateSimulation),
		unaryHandler("ListSimulations", AppraisalServiceServer.ListSimulations),
		unaryHandler("DeleteSimulation", AppraisalServiceServer.DeleteSimulation),
		unaryHandler("SelectComparable", AppraisalServiceServer.SelectComparable),
		unaryHandler("SetAdjustment", AppraisalServiceServer.SetAdjustment),
		unaryHandler("RemoveComparable", AppraisalServiceServer.RemoveComparable),
		unaryHandler("GetComparison", AppraisalServiceServer.GetComparison),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterAppraisalServiceServer registers srv on s
func RegisterAppraisalServiceServer(s grpc.ServiceRegistrar, srv AppraisalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the path of a method of the appraisal service, e.g. "/appraisal.v1.AppraisalService/GetAnalysis"
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AppraisalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(AppraisalServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client calls the appraisal service over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient creates a client for the appraisal service
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Invoke sends req encoded as JSON fields to method and decodes the response into resp.
// resp may be nil when the response body is not needed.
func (c *Client) Invoke(ctx context.Context, method string, req interface{}, resp interface{}, opts ...grpc.CallOption) error {
	in, err := encodeMessage(req)
	if err != nil {
		return err
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return err
	}

	if resp == nil {
		return nil
	}
	return decodeMessage(out, resp)
}
