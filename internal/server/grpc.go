package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// GraphServiceName is the fully qualified gRPC service name. Every method
// takes and returns a google.protobuf.Struct carrying the same JSON objects
// as the HTTP API.
const GraphServiceName = "litgraph.v1.GraphService"

// Method names of GraphService.
const (
	MethodGraph    = "Graph"
	MethodSummary  = "Summary"
	MethodSearch   = "Search"
	MethodAdvanced = "AdvancedSearch"
	MethodCharts   = "Charts"
	MethodArticle  = "GetArticle"
	MethodStats    = "Stats"
	MethodFacets   = "Facets"
	MethodSessions = "Sessions"
)

// FullMethod returns the gRPC path of a GraphService method.
func FullMethod(name string) string { return "/" + GraphServiceName + "/" + name }

// graphService is the handler type registered for GraphService.
type graphService interface {
	Graph(ctx context.Context, q model.GraphQuery) *model.GraphResponse
	Summary(ctx context.Context, req model.SummaryRequest) (string, error)
}

type articleRequest struct {
	ID int `json:"id"`
}

type empty struct{}

var graphServiceDesc = grpc.ServiceDesc{
	ServiceName: GraphServiceName,
	HandlerType: (*graphService)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodGraph, func(s *LitServer, ctx context.Context, q *model.GraphQuery) (any, error) {
			return s.Graph(ctx, *q), nil
		}),
		unary(MethodSummary, func(s *LitServer, ctx context.Context, req *model.SummaryRequest) (any, error) {
			text, err := s.Summary(ctx, *req)
			if err != nil {
				return nil, err
			}
			return model.SummaryResponse{Summary: text}, nil
		}),
		unary(MethodSearch, func(s *LitServer, _ context.Context, req *model.SearchRequest) (any, error) {
			if err := model.Validate(*req); err != nil {
				return nil, validationInput(err)
			}
			return s.catalog.Search(*req), nil
		}),
		unary(MethodAdvanced, func(s *LitServer, _ context.Context, req *model.SearchRequest) (any, error) {
			if err := model.Validate(*req); err != nil {
				return nil, validationInput(err)
			}
			return s.catalog.Advanced(*req), nil
		}),
		unary(MethodCharts, func(s *LitServer, _ context.Context, _ *empty) (any, error) {
			return s.catalog.Charts(), nil
		}),
		unary(MethodArticle, func(s *LitServer, ctx context.Context, req *articleRequest) (any, error) {
			return s.Article(ctx, req.ID)
		}),
		unary(MethodStats, func(s *LitServer, _ context.Context, _ *empty) (any, error) {
			return s.catalog.Stats(), nil
		}),
		unary(MethodFacets, func(s *LitServer, _ context.Context, _ *empty) (any, error) {
			return s.catalog.Facets(), nil
		}),
		unary(MethodSessions, func(s *LitServer, _ context.Context, _ *empty) (any, error) {
			if s.Presence == nil {
				return map[string]any{"sessions": []any{}}, nil
			}
			return map[string]any{"sessions": s.Presence.Roster(0)}, nil
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "litgraph/v1/graph.proto",
}

// unary builds a MethodDesc whose Struct request is decoded into Req and
// whose result is encoded back into a Struct.
func unary[Req any](name string, call func(*LitServer, context.Context, *Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				var r Req
				if err := FromStruct(req.(*structpb.Struct), &r); err != nil {
					return nil, status.Errorf(codes.InvalidArgument, "decode request: %v", err)
				}
				out, err := call(srv.(*LitServer), ctx, &r)
				if err != nil {
					return nil, grpcError(err)
				}
				resp, err := ToStruct(out)
				if err != nil {
					return nil, status.Errorf(codes.Internal, "encode response: %v", err)
				}
				return resp, nil
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// grpcError maps an operation error to a gRPC status.
func grpcError(err error) error {
	var ie inputError
	var nf notFoundError
	switch {
	case errors.As(err, &ie):
		return status.Error(codes.InvalidArgument, ie.Error())
	case errors.As(err, &nf):
		return status.Error(codes.NotFound, nf.Error())
	}
	return status.Errorf(codes.Internal, "%v", err)
}

// ToStruct converts a JSON-encodable object into a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	return structpb.NewStruct(m)
}

// FromStruct decodes a Struct into v through its JSON form.
func FromStruct(s *structpb.Struct, v any) error {
	data, err := json.Marshal(s.AsMap())
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// NewGRPCServer creates a gRPC server with the standard interceptors and
// registers GraphService, the health service and reflection.
func NewGRPCServer(s *LitServer, authToken string) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			RecoveryInterceptor,
			LoggingInterceptor,
			MetricsInterceptor(s.Metrics),
			AuthInterceptor(authToken),
		),
	)

	srv.RegisterService(&graphServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus(GraphServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return srv
}
