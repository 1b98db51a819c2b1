package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/server"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// GRPCClient implements LitClient over the GraphService gRPC transport.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

var _ LitClient = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return NewGRPCClientConn(conn, token), nil
}

// NewGRPCClientConn wraps an existing connection. Close closes conn.
func NewGRPCClientConn(conn *grpc.ClientConn, token string) *GRPCClient {
	return &GRPCClient{conn: conn, token: token}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// invoke sends req as a Struct and decodes the Struct reply into out.
func (c *GRPCClient) invoke(ctx context.Context, method string, req, out any) error {
	in, err := server.ToStruct(req)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}
	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, server.FullMethod(method), in, resp); err != nil {
		return err
	}
	if err := server.FromStruct(resp, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

func (c *GRPCClient) Graph(ctx context.Context, q model.GraphQuery) (*model.GraphResponse, error) {
	if err := checkGraphQuery(q); err != nil {
		return nil, err
	}
	var resp model.GraphResponse
	if err := c.invoke(ctx, server.MethodGraph, q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) Summarize(ctx context.Context, req model.SummaryRequest) (string, error) {
	if err := model.Validate(req); err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	var resp model.SummaryResponse
	if err := c.invoke(ctx, server.MethodSummary, req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" || resp.Summary == summarize.MsgUnable {
		return "", ErrNoSummary
	}
	return resp.Summary, nil
}

func (c *GRPCClient) Search(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error) {
	return c.search(ctx, server.MethodSearch, req)
}

func (c *GRPCClient) AdvancedSearch(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error) {
	return c.search(ctx, server.MethodAdvanced, req)
}

func (c *GRPCClient) search(ctx context.Context, method string, req model.SearchRequest) (*model.ArticlePage, error) {
	if err := checkSearch(req); err != nil {
		return nil, err
	}
	var page model.ArticlePage
	if err := c.invoke(ctx, method, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *GRPCClient) Charts(ctx context.Context) (*model.Charts, error) {
	var ch model.Charts
	if err := c.invoke(ctx, server.MethodCharts, struct{}{}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *GRPCClient) Facets(ctx context.Context) (*model.Facets, error) {
	var f model.Facets
	if err := c.invoke(ctx, server.MethodFacets, struct{}{}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *GRPCClient) Stats(ctx context.Context) (*model.CatalogStats, error) {
	var st model.CatalogStats
	if err := c.invoke(ctx, server.MethodStats, struct{}{}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *GRPCClient) GetArticle(ctx context.Context, id int) (*model.Article, error) {
	var a model.Article
	if err := c.invoke(ctx, server.MethodArticle, map[string]int{"id": id}, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *GRPCClient) Sessions(ctx context.Context) (*SessionRoster, error) {
	var r SessionRoster
	if err := c.invoke(ctx, server.MethodSessions, struct{}{}, &r); err != nil {
		return nil, err
	}
	for _, e := range r.Sessions {
		if e.Idle {
			r.Idle++
		} else {
			r.Active++
		}
	}
	return &r, nil
}

// Health asks the standard gRPC health service about GraphService.
func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	resp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{
		Service: server.GraphServiceName,
	})
	if err != nil {
		return "", err
	}
	return resp.GetStatus().String(), nil
}
