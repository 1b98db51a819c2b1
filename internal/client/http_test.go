package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// testHandler captures the incoming request details and returns a canned response.
type testHandler struct {
	method string
	path   string
	body   string
	auth   string
	calls  atomic.Int32

	statusCode   int
	responseBody string
}

func (h *testHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls.Add(1)
	h.method = r.Method
	h.path = r.URL.Path
	h.auth = r.Header.Get("Authorization")
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		h.body = string(data)
	}

	w.Header().Set("Content-Type", "application/json")
	if h.statusCode != 0 {
		w.WriteHeader(h.statusCode)
	}
	if h.responseBody != "" {
		_, _ = w.Write([]byte(h.responseBody))
	}
}

// newTestClient creates an HTTPClient pointed at a test server with the given handler.
func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewHTTPClient(srv.URL+"/", "tok")
}

func TestHTTPClient_Graph(t *testing.T) {
	h := &testHandler{responseBody: `{
		"nodes": [
			{"id": "author_ann_lee", "label": "Ann Lee", "group": "author"},
			{"id": 12, "label": "Bone loss", "group": "article", "pmcid": "PMC12"}
		],
		"edges": [{"from": "author_ann_lee", "to": "12", "label": "WROTE"}]
	}`}
	c := newTestClient(t, h)

	resp, err := c.Graph(context.Background(), model.GraphQuery{Author: "Ann Lee"})
	if err != nil {
		t.Fatal(err)
	}
	if h.method != http.MethodPost || h.path != "/api/kg" {
		t.Fatalf("unexpected request %s %s", h.method, h.path)
	}
	if h.body != `{"author":"Ann Lee"}` {
		t.Fatalf("unexpected body %s", h.body)
	}
	if h.auth != "Bearer tok" {
		t.Fatalf("expected bearer token, got %q", h.auth)
	}
	if len(resp.Nodes) != 2 || resp.Nodes[1].ID != "12" || resp.Nodes[1].Payload.String("pmcid") != "PMC12" {
		t.Fatalf("unexpected nodes %+v", resp.Nodes)
	}
}

func TestHTTPClient_Graph_RejectsAmbiguousQuery(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c := newTestClient(t, h)

	for _, q := range []model.GraphQuery{
		{},
		{Author: "Ann Lee", Title: "Bone"},
	} {
		if _, err := c.Graph(context.Background(), q); err == nil {
			t.Fatalf("expected an error for %+v", q)
		}
	}
	if h.calls.Load() != 0 {
		t.Fatal("invalid queries must not reach the server")
	}
}

func TestHTTPClient_Summarize(t *testing.T) {
	for _, tc := range []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
		apiCode int
	}{
		{"OK", 200, `{"summary":"Bones thin."}`, "Bones thin.", nil, 0},
		{"NothingToSummarize", 200, `{"summary":"` + summarize.MsgUnable + `"}`, "", ErrNoSummary, 0},
		{"NotFound", 404, `{"summary":"` + summarize.MsgNotFound + `"}`, "", nil, 404},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: tc.status, responseBody: tc.body})
			got, err := c.Summarize(context.Background(), model.SummaryRequest{Title: "Bone"})
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			case tc.apiCode != 0:
				var apiErr *APIError
				if !errors.As(err, &apiErr) || apiErr.StatusCode != tc.apiCode {
					t.Fatalf("expected APIError %d, got %v", tc.apiCode, err)
				}
				if apiErr.Message != summarize.MsgNotFound {
					t.Fatalf("unexpected message %q", apiErr.Message)
				}
			default:
				if err != nil || got != tc.want {
					t.Fatalf("expected %q, got %q, %v", tc.want, got, err)
				}
			}
		})
	}
}

func TestHTTPClient_Summarize_RequiresTitleOrID(t *testing.T) {
	h := &testHandler{responseBody: `{"summary":"x"}`}
	c := newTestClient(t, h)
	if _, err := c.Summarize(context.Background(), model.SummaryRequest{}); err == nil {
		t.Fatal("expected a validation error")
	}
	if h.calls.Load() != 0 {
		t.Fatal("invalid request must not reach the server")
	}
}

func TestHTTPClient_Routes(t *testing.T) {
	for _, tc := range []struct {
		name   string
		body   string
		call   func(*HTTPClient) error
		method string
		path   string
	}{
		{"Search", `{"articles":[],"page":1,"total":0,"per_page":20}`, func(c *HTTPClient) error {
			_, err := c.Search(context.Background(), model.SearchRequest{Query: "bone"})
			return err
		}, http.MethodPost, "/api/articles"},
		{"AdvancedSearch", `{"articles":[],"page":1}`, func(c *HTTPClient) error {
			_, err := c.AdvancedSearch(context.Background(), model.SearchRequest{Filters: map[string][]string{model.FacetYear: {"2020"}}})
			return err
		}, http.MethodPost, "/api/advancedf"},
		{"Charts", `{"years":[]}`, func(c *HTTPClient) error {
			_, err := c.Charts(context.Background())
			return err
		}, http.MethodPost, "/api/charts"},
		{"Facets", `{"keywords":["bone"]}`, func(c *HTTPClient) error {
			_, err := c.Facets(context.Background())
			return err
		}, http.MethodGet, "/v1/facets"},
		{"Stats", `{"total_articles":3}`, func(c *HTTPClient) error {
			_, err := c.Stats(context.Background())
			return err
		}, http.MethodGet, "/v1/stats"},
		{"GetArticle", `{"id":7,"Title":"x"}`, func(c *HTTPClient) error {
			_, err := c.GetArticle(context.Background(), 7)
			return err
		}, http.MethodGet, "/v1/articles/7"},
		{"DeleteArticle", ``, func(c *HTTPClient) error {
			return c.DeleteArticle(context.Background(), 7)
		}, http.MethodDelete, "/v1/articles/7"},
		{"Reload", `{"articles":3}`, func(c *HTTPClient) error {
			_, err := c.Reload(context.Background())
			return err
		}, http.MethodPost, "/v1/catalog/reload"},
		{"Sessions", `{"sessions":[],"active":0,"idle":0}`, func(c *HTTPClient) error {
			_, err := c.Sessions(context.Background())
			return err
		}, http.MethodGet, "/v1/sessions"},
		{"Health", `{"status":"ok"}`, func(c *HTTPClient) error {
			_, err := c.Health(context.Background())
			return err
		}, http.MethodGet, "/healthz"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := &testHandler{responseBody: tc.body}
			if tc.body == "" {
				h.statusCode = http.StatusNoContent
			}
			c := newTestClient(t, h)
			if err := tc.call(c); err != nil {
				t.Fatal(err)
			}
			if h.method != tc.method || h.path != tc.path {
				t.Fatalf("expected %s %s, got %s %s", tc.method, tc.path, h.method, h.path)
			}
		})
	}
}

func TestHTTPClient_Search_Validates(t *testing.T) {
	h := &testHandler{responseBody: `{}`}
	c := newTestClient(t, h)
	if _, err := c.Search(context.Background(), model.SearchRequest{Sort: "random"}); err == nil {
		t.Fatal("expected a validation error")
	}
	if h.calls.Load() != 0 {
		t.Fatal("invalid request must not reach the server")
	}
}

func TestHTTPClient_ImportArticles(t *testing.T) {
	h := &testHandler{responseBody: `{"articles":[{"id":4,"title":"New","created":true}]}`}
	c := newTestClient(t, h)

	got, err := c.ImportArticles(context.Background(), []*model.Article{{Title: "New", Pmcid: "PMC4"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 4 || !got[0].Created {
		t.Fatalf("unexpected result %+v", got)
	}
	if !strings.HasPrefix(h.body, `[{"id":0,"Title":"New"`) {
		t.Fatalf("expected an array body, got %s", h.body)
	}
}

func TestHTTPClient_APIError(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want string
	}{
		{"JSONError", `{"error":"article 9 not found"}`, "article 9 not found"},
		{"PlainText", "not found\n", "not found"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestClient(t, &testHandler{statusCode: http.StatusNotFound, responseBody: tc.body})
			_, err := c.GetArticle(context.Background(), 9)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.StatusCode != 404 || apiErr.Message != tc.want {
				t.Fatalf("unexpected error %+v", apiErr)
			}
			if apiErr.Error() != "HTTP 404: "+tc.want {
				t.Fatalf("unexpected message %q", apiErr.Error())
			}
		})
	}
}

func TestHTTPClient_DecodeError(t *testing.T) {
	c := newTestClient(t, &testHandler{responseBody: `{not json`})
	if _, err := c.Stats(context.Background()); err == nil || !strings.Contains(err.Error(), "decoding response") {
		t.Fatalf("expected a decode error, got %v", err)
	}
}

func TestHTTPClient_CircuitBreaker(t *testing.T) {
	h := &testHandler{statusCode: http.StatusBadGateway, responseBody: `{"error":"upstream down"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()
	c := NewHTTPClientWithBreaker(srv.URL, "", BreakerConfig{ConsecutiveFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		var apiErr *APIError
		if _, err := c.Stats(context.Background()); !errors.As(err, &apiErr) {
			t.Fatalf("call %d: expected APIError, got %v", i, err)
		}
	}
	if _, err := c.Stats(context.Background()); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if got := h.calls.Load(); got != 3 {
		t.Fatalf("open breaker must not call the server, got %d calls", got)
	}
}

func TestHTTPClient_CircuitBreaker_IgnoresClientErrors(t *testing.T) {
	h := &testHandler{statusCode: http.StatusNotFound, responseBody: `{"error":"nope"}`}
	srv := httptest.NewServer(h)
	defer srv.Close()
	c := NewHTTPClientWithBreaker(srv.URL, "", BreakerConfig{ConsecutiveFailures: 2, Timeout: time.Minute})

	for i := 0; i < 5; i++ {
		var apiErr *APIError
		if _, err := c.GetArticle(context.Background(), 1); !errors.As(err, &apiErr) {
			t.Fatalf("call %d: expected APIError, got %v", i, err)
		}
	}
	if got := h.calls.Load(); got != 5 {
		t.Fatalf("expected every call to reach the server, got %d", got)
	}
}
