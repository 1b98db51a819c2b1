// Package client provides a transport-agnostic interface for the litgraph
// service, with HTTP/JSON and gRPC implementations.
package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/presence"
)

// LitClient is what the CLI and the explorer use to reach a server. It
// satisfies explorer.Fetcher and explorer.Summarizer.
type LitClient interface {
	Graph(ctx context.Context, q model.GraphQuery) (*model.GraphResponse, error)
	Summarize(ctx context.Context, req model.SummaryRequest) (string, error)

	Search(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error)
	AdvancedSearch(ctx context.Context, req model.SearchRequest) (*model.ArticlePage, error)
	Charts(ctx context.Context) (*model.Charts, error)
	Facets(ctx context.Context) (*model.Facets, error)
	Stats(ctx context.Context) (*model.CatalogStats, error)
	GetArticle(ctx context.Context, id int) (*model.Article, error)
	Sessions(ctx context.Context) (*SessionRoster, error)

	Health(ctx context.Context) (string, error)
	Close() error
}

// ErrNoSummary is returned by Summarize when the server found the article
// but had no text to summarize.
var ErrNoSummary = errors.New("no summary available")

// SessionRoster is the explorer session listing.
type SessionRoster struct {
	Sessions []presence.Entry `json:"sessions"`
	Active   int              `json:"active"`
	Idle     int              `json:"idle"`
}

// ImportResult reports what happened to one imported article.
type ImportResult struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Created bool   `json:"created"`
}

// checkGraphQuery rejects queries that do not select exactly one mode. The
// server would answer them with an empty graph.
func checkGraphQuery(q model.GraphQuery) error {
	if err := model.Validate(q); err != nil {
		return fmt.Errorf("graph query: %w", err)
	}
	return nil
}

func checkSearch(req model.SearchRequest) error {
	if err := model.Validate(req); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}
