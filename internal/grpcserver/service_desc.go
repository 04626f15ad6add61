package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "hiretop.matching.v1.MatchingService"

// MatchingServiceServer is the RPC surface. Requests and responses are
// google.protobuf.Struct messages so gateways can forward JSON bodies as-is.
type MatchingServiceServer interface {
	RankOffers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RankApplicants(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Statistics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Apply(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Accept(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reject(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetApplication(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type rpc func(MatchingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, call rpc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			impl := srv.(MatchingServiceServer)
			if interceptor == nil {
				return call(impl, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(impl, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// FullMethod returns the invocation path of a method, e.g. for conn.Invoke.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MatchingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("RankOffers", MatchingServiceServer.RankOffers),
		unary("RankApplicants", MatchingServiceServer.RankApplicants),
		unary("Statistics", MatchingServiceServer.Statistics),
		unary("Apply", MatchingServiceServer.Apply),
		unary("Accept", MatchingServiceServer.Accept),
		unary("Reject", MatchingServiceServer.Reject),
		unary("GetApplication", MatchingServiceServer.GetApplication),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hiretop/matching/v1/matching.proto",
}

// Register mounts srv on g.
func Register(g *grpc.Server, srv MatchingServiceServer) {
	g.RegisterService(&serviceDesc, srv)
}
