// Package events publishes litgraph activity on a message bus.
package events

import (
	"context"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Subject prefixes. Subscribe to Prefix+">" for everything.
const (
	Prefix         = "litgraph."
	ExplorerPrefix = "litgraph.explorer."
)

// Catalogue topics, published by the server.
const (
	TopicArticleImported  = "litgraph.article.imported"
	TopicCatalogRefreshed = "litgraph.catalog.refreshed"
	TopicCatalogExported  = "litgraph.catalog.exported"
)

// Explorer topics, published by explorer sessions.
const (
	TopicExplorerRootLoaded = "litgraph.explorer.root_loaded"
	TopicExplorerExpanded   = "litgraph.explorer.article_expanded"
	TopicExplorerCollapsed  = "litgraph.explorer.article_collapsed"
	TopicExplorerCleared    = "litgraph.explorer.cleared"
	TopicExplorerClosed     = "litgraph.explorer.closed"
)

// ArticleImported is published after an article is created or updated.
type ArticleImported struct {
	Article *model.Article `json:"article"`
	Created bool           `json:"created"`
}

// CatalogRefreshed is published after the in-memory catalogue reloads.
type CatalogRefreshed struct {
	Articles int `json:"articles"`
}

// CatalogExported is published after a sync run writes the catalogue out.
type CatalogExported struct {
	Articles     int      `json:"articles"`
	Destinations []string `json:"destinations"`
}

// ExplorerActivity describes one structural change in an explorer session.
type ExplorerActivity struct {
	SessionID string    `json:"session_id"`
	Action    string    `json:"action"`
	Mode      string    `json:"mode,omitempty"`
	Query     string    `json:"query,omitempty"`
	NodeID    string    `json:"node_id,omitempty"`
	Nodes     int       `json:"nodes"`
	Edges     int       `json:"edges"`
	At        time.Time `json:"at"`
}

// Publisher emits events. Publish is best effort; callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// NoopPublisher discards events when no bus is configured.
type NoopPublisher struct{}

func (*NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (*NoopPublisher) Close() error                               { return nil }

// Message is one raw payload received from the bus.
type Message struct {
	Topic string
	Data  []byte
}

// Subscriber streams payloads for a topic pattern. The cancel func returned
// by Subscribe unsubscribes and closes the channel; it is safe to call twice.
type Subscriber interface {
	Subscribe(topic string) (<-chan Message, func(), error)
	Close() error
}
