package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/catalog"
	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/metrics"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/presence"
	"github.com/alfredjeanlab/litgraph/internal/store"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// LitServer answers catalogue, graph and summary requests over HTTP and gRPC.
type LitServer struct {
	store      store.Store
	catalog    *catalog.Catalog
	publisher  events.Publisher
	sseHub     *sseHub
	summarizer summarize.Extractive

	Presence *presence.Tracker
	Metrics  *metrics.Registry
}

// NewLitServer returns a server over the given store, catalogue and publisher.
func NewLitServer(s store.Store, cat *catalog.Catalog, p events.Publisher) *LitServer {
	if p == nil {
		p = &events.NoopPublisher{}
	}
	return &LitServer{
		store:      s,
		catalog:    cat,
		publisher:  p,
		sseHub:     newSSEHub(),
		summarizer: summarize.Extractive{MinWords: 50, MaxWords: 120},
		Presence:   presence.New(),
		Metrics:    metrics.NewRegistry(),
	}
}

// SetSummaryBounds sets the word budget of the extractive summarizer.
func (s *LitServer) SetSummaryBounds(minWords, maxWords int) {
	s.summarizer = summarize.Extractive{MinWords: minWords, MaxWords: maxWords}
}

// Catalog returns the in-memory catalogue.
func (s *LitServer) Catalog() *catalog.Catalog { return s.catalog }

// Store returns the backing article store.
func (s *LitServer) Store() store.Store { return s.store }

// publish sends an event to the bus and to SSE clients. Both are
// best-effort; failures are logged.
func (s *LitServer) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "error", err)
		s.Metrics.EventsPublishFailed.WithLabelValues(topic).Inc()
	}
	s.broadcastEvent(topic, event)
}

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// notFoundError indicates a missing article.
// Transport layers map this to 404 / NotFound.
type notFoundError string

func (e notFoundError) Error() string { return string(e) }

// validationInput converts a *model.ValidationError into an inputError and
// passes other errors through.
func validationInput(err error) error {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		return inputError(ve.Error())
	}
	return err
}

// Reload rebuilds the catalogue from the store.
func (s *LitServer) Reload(ctx context.Context) error {
	err := s.catalog.Load(ctx, s.store)
	s.Metrics.RecordReload(err)
	if err != nil {
		return err
	}
	s.Metrics.SetCatalogStats(s.catalog.Stats())
	s.publish(ctx, events.TopicCatalogRefreshed, events.CatalogRefreshed{Articles: s.catalog.Len()})
	return nil
}

// Graph answers a knowledge-graph query from the catalogue.
func (s *LitServer) Graph(_ context.Context, q model.GraphQuery) *model.GraphResponse {
	resp := s.catalog.Graph(q)
	s.Metrics.RecordGraphQuery(q.Mode(), len(resp.Nodes))
	return resp
}

// Summary summarizes an article found by title, else by pub_id. A title that
// matches nothing and an unknown pub_id are notFoundErrors; a request with
// neither is an inputError. An article with no text yields MsgUnable.
func (s *LitServer) Summary(_ context.Context, req model.SummaryRequest) (string, error) {
	var a *model.Article
	if title := strings.TrimSpace(req.Title); title != "" {
		var ok bool
		if a, ok = s.catalog.ByTitle(title); !ok {
			page := s.catalog.Search(model.SearchRequest{Query: title})
			if len(page.Articles) == 0 {
				s.Metrics.SummariesTotal.WithLabelValues("not_found").Inc()
				return "", notFoundError(summarize.MsgNotFound)
			}
			a = page.Articles[0]
		}
	} else {
		if req.PubID == nil {
			s.Metrics.SummariesTotal.WithLabelValues("bad_request").Inc()
			return "", inputError(summarize.MsgBadID)
		}
		var ok bool
		if a, ok = s.catalog.Get(*req.PubID); !ok {
			s.Metrics.SummariesTotal.WithLabelValues("not_found").Inc()
			return "", notFoundError(summarize.MsgNotFound)
		}
	}

	text := s.summarizer.Summarize(a.SummarySource())
	if text == "" {
		s.Metrics.SummariesTotal.WithLabelValues("no_text").Inc()
		return summarize.MsgUnable, nil
	}
	s.Metrics.SummariesTotal.WithLabelValues("ok").Inc()
	return text, nil
}

// Article returns one article from the catalogue.
func (s *LitServer) Article(_ context.Context, id int) (*model.Article, error) {
	a, ok := s.catalog.Get(id)
	if !ok {
		return nil, notFoundError(fmt.Sprintf("article %d not found", id))
	}
	return a, nil
}

// Import validates and upserts articles in one transaction, reloads the
// catalogue and publishes one event per article.
func (s *LitServer) Import(ctx context.Context, articles []*model.Article) ([]bool, error) {
	if len(articles) == 0 {
		return nil, inputError("no articles to import")
	}
	for i, a := range articles {
		if a == nil {
			return nil, inputError(fmt.Sprintf("article %d is empty", i))
		}
		if err := model.ValidateArticle(a); err != nil {
			return nil, inputError(fmt.Sprintf("article %d: %v", i, err))
		}
	}

	created := make([]bool, len(articles))
	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		for i, a := range articles {
			c, err := tx.UpsertArticle(ctx, a)
			if err != nil {
				return fmt.Errorf("upsert %q: %w", a.Title, err)
			}
			created[i] = c
		}
		return nil
	})
	if err != nil {
		s.Metrics.ArticlesImported.WithLabelValues("error").Add(float64(len(articles)))
		return nil, err
	}

	for i, a := range articles {
		result := "updated"
		if created[i] {
			result = "created"
		}
		s.Metrics.ArticlesImported.WithLabelValues(result).Inc()
		s.publish(ctx, events.TopicArticleImported, events.ArticleImported{Article: a, Created: created[i]})
	}
	if err := s.Reload(ctx); err != nil {
		slog.Error("reload after import failed", "error", err)
	}
	return created, nil
}

// Delete removes an article and reloads the catalogue.
func (s *LitServer) Delete(ctx context.Context, id int) error {
	if err := s.store.DeleteArticle(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFoundError(fmt.Sprintf("article %d not found", id))
		}
		return err
	}
	if err := s.Reload(ctx); err != nil {
		slog.Error("reload after delete failed", "error", err)
	}
	return nil
}

// broadcastEvent fans an event out to SSE clients.
func (s *LitServer) broadcastEvent(topic string, event any) {
	if s.sseHub == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Warn("failed to marshal event for SSE broadcast", "topic", topic, "error", err)
		return
	}
	s.sseHub.broadcast(topic, payload)
}
