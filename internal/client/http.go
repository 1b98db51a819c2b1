package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// BreakerConfig controls when the HTTP client stops calling a failing server.
type BreakerConfig struct {
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a trial request.
	Timeout time.Duration
}

// DefaultBreakerConfig trips after five consecutive failures and retries
// after ten seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{ConsecutiveFailures: 5, Timeout: 10 * time.Second}
}

// HTTPClient implements LitClient using the litgraph HTTP/JSON API. Transport
// failures and 5xx responses count against a circuit breaker; once it opens,
// calls fail fast with gobreaker.ErrOpenState.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

var _ LitClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return NewHTTPClientWithBreaker(baseURL, token, DefaultBreakerConfig())
}

// NewHTTPClientWithBreaker is NewHTTPClient with explicit breaker settings.
func NewHTTPClientWithBreaker(baseURL, token string, cfg BreakerConfig) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "litgraph-http",
			Timeout: cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.StatusCode < 500
				}
				return err == nil
			},
		}),
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Graph and summaries ---

func (c *HTTPClient) Graph(ctx context.Context, q model.GraphQuery) (*model.GraphResponse, error) {
	if err := checkGraphQuery(q); err != nil {
		return nil, err
	}
	var resp model.GraphResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/kg", q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Summarize asks for a summary. A reply saying the article has nothing to
// summarize is ErrNoSummary.
func (c *HTTPClient) Summarize(ctx context.Context, req model.SummaryRequest) (string, error) {
	if err := model.Validate(req); err != nil {
		return "", fmt.Errorf("summary: %w", err)
	}
	var resp model.SummaryResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/summary", req, &resp); err != nil {
		return "", err
	}
	if resp.Summary == "" || resp.Summary == summarize.MsgUnable {
		return "", ErrNoSummary
	}
	return resp.Summary, nil
}

// --- Catalogue ---

func (c *HTTPClient) Search(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error) {
	return c.search(ctx, "/api/articles", req)
}

func (c *HTTPClient) AdvancedSearch(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error) {
	return c.search(ctx, "/api/advancedf", req)
}

func (c *HTTPClient) search(ctx context.Context, path string, req model.SearchRequest) (*model.ArticlePage, error) {
	if err := checkSearch(req); err != nil {
		return nil, err
	}
	var page model.ArticlePage
	if err := c.doJSON(ctx, http.MethodPost, path, req, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) Charts(ctx context.Context) (*model.Charts, error) {
	var ch model.Charts
	if err := c.doJSON(ctx, http.MethodPost, "/api/charts", struct{}{}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (c *HTTPClient) Facets(ctx context.Context) (*model.Facets, error) {
	var f model.Facets
	if err := c.doJSON(ctx, http.MethodGet, "/v1/facets", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *HTTPClient) Stats(ctx context.Context) (*model.CatalogStats, error) {
	var st model.CatalogStats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *HTTPClient) GetArticle(ctx context.Context, id int) (*model.Article, error) {
	var a model.Article
	if err := c.doJSON(ctx, http.MethodGet, "/v1/articles/"+strconv.Itoa(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ImportArticles upserts articles by PMCID.
func (c *HTTPClient) ImportArticles(ctx context.Context, articles []*model.Article) ([]ImportResult, error) {
	var resp struct {
		Articles []ImportResult `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/articles", articles, &resp); err != nil {
		return nil, err
	}
	return resp.Articles, nil
}

func (c *HTTPClient) DeleteArticle(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/articles/"+strconv.Itoa(id), nil, nil)
}

// Reload makes the server re-read its catalogue and returns the new size.
func (c *HTTPClient) Reload(ctx context.Context) (int, error) {
	var resp struct {
		Articles int `json:"articles"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/catalog/reload", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Articles, nil
}

// --- Sessions and health ---

func (c *HTTPClient) Sessions(ctx context.Context) (*SessionRoster, error) {
	var r SessionRoster
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/healthz", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON runs one request through the circuit breaker.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, result)
	})
	return err
}

// roundTrip performs an HTTP request with optional JSON body and decodes the
// JSON response. If result is nil, the response body is discarded.
func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		// The summary endpoint reports failures in its summary field.
		var errResp struct {
			Error   string `json:"error"`
			Summary string `json:"summary"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
			}
			if errResp.Summary != "" {
				return &APIError{StatusCode: resp.StatusCode, Message: errResp.Summary}
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
