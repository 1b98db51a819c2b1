package server

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// requireCode asserts that err is a gRPC error with the given status code.
func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected gRPC error with code %v, got nil", code)
	}
	st, ok := status.FromError(err)
	if !ok {
		t.Fatalf("expected gRPC status error, got %v", err)
	}
	if st.Code() != code {
		t.Fatalf("expected code=%v, got %v (%s)", code, st.Code(), st.Message())
	}
}

// startGRPC serves GraphService over an in-memory listener.
func startGRPC(t *testing.T, token string) (*LitServer, *grpc.ClientConn) {
	t.Helper()
	srv, _, _ := newTestServer(t)
	lis := bufconn.Listen(1 << 20)
	gs := NewGRPCServer(srv, token)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return srv, conn
}

func invoke(ctx context.Context, conn *grpc.ClientConn, method string, req any, out any) error {
	in, err := ToStruct(req)
	if err != nil {
		return err
	}
	resp := new(structpb.Struct)
	if err := conn.Invoke(ctx, FullMethod(method), in, resp); err != nil {
		return err
	}
	return FromStruct(resp, out)
}

func TestGRPCGraph(t *testing.T) {
	_, conn := startGRPC(t, "")
	var resp model.GraphResponse
	err := invoke(context.Background(), conn, MethodGraph, model.GraphQuery{Keywords: []string{"plants"}}, &resp)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Nodes) != 2 || len(resp.Edges) != 1 {
		t.Fatalf("expected keyword + 1 article, got %d nodes %d edges", len(resp.Nodes), len(resp.Edges))
	}
}

func TestGRPCSummary(t *testing.T) {
	_, conn := startGRPC(t, "")
	ctx := context.Background()

	var resp model.SummaryResponse
	if err := invoke(ctx, conn, MethodSummary, model.SummaryRequest{PubID: intPtr(2)}, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary != "Plants grow." {
		t.Fatalf("unexpected summary %q", resp.Summary)
	}

	err := invoke(ctx, conn, MethodSummary, model.SummaryRequest{PubID: intPtr(77)}, &resp)
	requireCode(t, err, codes.NotFound)
	if status.Convert(err).Message() != summarize.MsgNotFound {
		t.Fatalf("unexpected message %q", status.Convert(err).Message())
	}

	err = invoke(ctx, conn, MethodSummary, model.SummaryRequest{}, &resp)
	requireCode(t, err, codes.InvalidArgument)
}

func TestGRPCSearch(t *testing.T) {
	_, conn := startGRPC(t, "")
	ctx := context.Background()

	var page model.ArticlePage
	if err := invoke(ctx, conn, MethodSearch, model.SearchRequest{Query: "ISS"}, &page); err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Articles[0].ID != 2 {
		t.Fatalf("unexpected page %+v", page)
	}

	err := invoke(ctx, conn, MethodAdvanced, model.SearchRequest{Sort: "sideways"}, &page)
	requireCode(t, err, codes.InvalidArgument)
}

func TestGRPCCatalogReads(t *testing.T) {
	srv, conn := startGRPC(t, "")
	ctx := context.Background()

	var a model.Article
	if err := invoke(ctx, conn, MethodArticle, map[string]int{"id": 1}, &a); err != nil {
		t.Fatal(err)
	}
	if a.Pmcid != "PMC1" {
		t.Fatalf("unexpected article %+v", a)
	}
	requireCode(t, invoke(ctx, conn, MethodArticle, map[string]int{"id": 404}, &a), codes.NotFound)

	var st model.CatalogStats
	if err := invoke(ctx, conn, MethodStats, struct{}{}, &st); err != nil {
		t.Fatal(err)
	}
	if st.TotalArticles != srv.Catalog().Len() {
		t.Fatalf("expected %d articles, got %d", srv.Catalog().Len(), st.TotalArticles)
	}

	var ch model.Charts
	if err := invoke(ctx, conn, MethodCharts, struct{}{}, &ch); err != nil {
		t.Fatal(err)
	}
	if len(ch.Articles) != 3 {
		t.Fatalf("expected 3 chart articles, got %d", len(ch.Articles))
	}

	var f model.Facets
	if err := invoke(ctx, conn, MethodFacets, struct{}{}, &f); err != nil {
		t.Fatal(err)
	}
	if len(f.Publishers) != 2 {
		t.Fatalf("expected 2 publishers, got %v", f.Publishers)
	}
}

func TestGRPCAuthAndHealth(t *testing.T) {
	_, conn := startGRPC(t, "secret")
	ctx := context.Background()

	hc, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: GraphServiceName})
	if err != nil {
		t.Fatalf("health check must not need a token: %v", err)
	}
	if hc.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %v", hc.GetStatus())
	}

	var st model.CatalogStats
	requireCode(t, invoke(ctx, conn, MethodStats, struct{}{}, &st), codes.Unauthenticated)

	authed := metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer secret")
	if err := invoke(authed, conn, MethodStats, struct{}{}, &st); err != nil {
		t.Fatal(err)
	}
}

func TestGRPCErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err  error
		code codes.Code
	}{
		{inputError("bad"), codes.InvalidArgument},
		{notFoundError("gone"), codes.NotFound},
		{context.Canceled, codes.Internal},
	} {
		requireCode(t, grpcError(tc.err), tc.code)
	}
}

func TestStructRoundTrip(t *testing.T) {
	in := model.GraphQuery{ArticleID: intPtr(5)}
	s, err := ToStruct(in)
	if err != nil {
		t.Fatal(err)
	}
	var out model.GraphQuery
	if err := FromStruct(s, &out); err != nil {
		t.Fatal(err)
	}
	if out.ArticleID == nil || *out.ArticleID != 5 {
		t.Fatalf("unexpected query %+v", out)
	}
	if _, err := ToStruct([]int{1}); err == nil {
		t.Fatal("expected an error for a non-object value")
	}
}
