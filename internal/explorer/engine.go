// Package explorer is the knowledge-graph exploration engine. It builds a
// client-side graph step by step from server responses, reveals large
// neighborhoods in batches behind "+N more" sentinels, expands and collapses
// articles with exact rollback, and drives a pluggable Renderer.
//
// Engine methods are safe for concurrent use. Fetches run without holding
// the engine lock; every mutation after a fetch re-checks a generation
// counter, so a superseded response is dropped instead of applied.
// Collaborators are called after the lock is released, in the order the
// engine queued them.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Fetcher runs graph queries against the server.
type Fetcher interface {
	Graph(ctx context.Context, q model.GraphQuery) (*model.GraphResponse, error)
}

// Summarizer asks the server for an article summary.
type Summarizer interface {
	Summarize(ctx context.Context, req model.SummaryRequest) (string, error)
}

// Outcome reports what a click or activation did.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeExpanded
	OutcomeCollapsed
	OutcomeRevealed
	OutcomeInspected
	OutcomeLoaded
	// OutcomeStale means a newer request superseded this one; nothing changed.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExpanded:
		return "expanded"
	case OutcomeCollapsed:
		return "collapsed"
	case OutcomeRevealed:
		return "revealed"
	case OutcomeInspected:
		return "inspected"
	case OutcomeLoaded:
		return "loaded"
	case OutcomeStale:
		return "stale"
	}
	return "ignored"
}

// Options configures an Engine. Fetcher and Renderer are required; the other
// collaborators default to no-ops.
type Options struct {
	Fetcher    Fetcher
	Summarizer Summarizer
	Renderer   Renderer
	Detail     DetailView
	Notifier   Notifier
	Links      LinkOpener
	// Inspect is called for clicks on author and keyword nodes.
	Inspect func(Node)
	// Events receives explorer activity, tagged with SessionID.
	Events    events.Publisher
	SessionID string
	BatchSize int
	Layout    *Layout
	Logger    *slog.Logger
}

// Engine owns the graph store, the expansion and root-batch records, and the
// collaborators that show them.
type Engine struct {
	mu sync.Mutex

	graph      *Graph
	loader     batchLoader
	layout     Layout
	roots      map[string]*rootBatch
	expansions map[string]*expansion
	loading    map[string]uint64
	focus      string
	primary    string // lower-cased author of the current root query

	articleGen  uint64
	rootGen     uint64 // bumped by every root load start, Clear and Close
	bindGen     uint64 // bumped only when a router is bound or the graph is cleared
	rootCounter int
	revision    uint64

	fetcher    Fetcher
	summarizer Summarizer
	renderer   Renderer
	detail     DetailView
	notifier   Notifier
	links      LinkOpener
	inspect    func(Node)
	events     events.Publisher
	session    string
	logger     *slog.Logger
}

// New creates an engine with an empty graph.
func New(opts Options) (*Engine, error) {
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("explorer: fetcher is required")
	}
	if opts.Renderer == nil {
		return nil, fmt.Errorf("explorer: renderer is required")
	}
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	layout := DefaultLayout()
	if opts.Layout != nil {
		layout = *opts.Layout
	}
	e := &Engine{
		graph:      NewGraph(),
		layout:     layout,
		roots:      make(map[string]*rootBatch),
		expansions: make(map[string]*expansion),
		loading:    make(map[string]uint64),
		fetcher:    opts.Fetcher,
		summarizer: opts.Summarizer,
		renderer:   opts.Renderer,
		detail:     opts.Detail,
		notifier:   opts.Notifier,
		links:      opts.Links,
		inspect:    opts.Inspect,
		events:     opts.Events,
		session:    opts.SessionID,
		logger:     opts.Logger,
	}
	e.loader = batchLoader{graph: e.graph, size: size}
	if e.detail == nil {
		e.detail = nopDetail{}
	}
	if e.notifier == nil {
		e.notifier = nopNotifier{}
	}
	if e.events == nil {
		e.events = &events.NoopPublisher{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

type nopDetail struct{}

func (nopDetail) Show(model.Payload) {}
func (nopDetail) Hide()              {}

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

// effects are collaborator calls queued under the lock and run after it is
// released.
type effects []func()

func (fx *effects) add(f func()) { *fx = append(*fx, f) }

func (fx effects) run() {
	for _, f := range fx {
		f()
	}
}

// unlockAndRun releases the engine lock and then runs the queued effects.
func (e *Engine) unlockAndRun(fx effects) {
	e.mu.Unlock()
	fx.run()
}

// Layout returns the session layout.
func (e *Engine) Layout() Layout { return e.layout }

// BatchSize returns the number of candidates revealed per batch.
func (e *Engine) BatchSize() int { return e.loader.size }

// Snapshot returns the current graph state without pushing it anywhere.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.snapshotLocked()
	return s
}

// Node returns a node of the current graph.
func (e *Engine) Node(id string) (Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.graph.Node(id)
}

// Focus returns the article holding detail focus, or "".
func (e *Engine) Focus() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.focus
}

// Expanded reports whether the article has an expansion record.
func (e *Engine) Expanded(articleID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.expansions[articleID]
	return ok
}

// LoadAuthor replaces the graph with the articles of an author.
func (e *Engine) LoadAuthor(ctx context.Context, name string) (Outcome, error) {
	name = strings.TrimSpace(name)
	return e.loadRoot(ctx, model.GraphQuery{Author: name}, rootLoad{
		what:    "author articles",
		primary: strings.ToLower(name),
	})
}

// LoadKeywords replaces the graph with the articles matching any keyword.
func (e *Engine) LoadKeywords(ctx context.Context, keywords []string) (Outcome, error) {
	return e.loadRoot(ctx, model.GraphQuery{Keywords: keywords}, rootLoad{what: "keyword articles"})
}

// LoadTitle replaces the graph with the article matching a title, its
// authors and its keywords.
func (e *Engine) LoadTitle(ctx context.Context, title string) (Outcome, error) {
	return e.loadRoot(ctx, model.GraphQuery{Title: strings.TrimSpace(title)}, rootLoad{what: "title graph"})
}

// LoadArticle replaces the graph with one article and expands it, so its
// authors are batched and collapsible like any other expansion.
func (e *Engine) LoadArticle(ctx context.Context, articleID int) (Outcome, error) {
	return e.loadRoot(ctx, model.ArticleQuery(articleID), rootLoad{
		what:   "article graph",
		expand: ArticleID(articleID),
	})
}

type rootLoad struct {
	what    string
	primary string
	expand  string
}

func (e *Engine) loadRoot(ctx context.Context, q model.GraphQuery, rl rootLoad) (Outcome, error) {
	e.mu.Lock()
	e.rootGen++
	gen := e.rootGen
	e.mu.Unlock()

	resp, err := e.fetcher.Graph(ctx, q)

	e.mu.Lock()
	var fx effects
	if gen != e.rootGen {
		e.mu.Unlock()
		e.logger.Debug("explorer: dropped stale root response", "mode", q.Mode())
		return OutcomeStale, nil
	}
	if err != nil {
		msg := fmt.Sprintf("failed to fetch %s: %v", rl.what, err)
		fx.add(func() { e.notifier.Notify(LevelError, msg) })
		e.unlockAndRun(fx)
		return OutcomeIgnored, fmt.Errorf("fetch %s: %w", rl.what, err)
	}

	if e.focus != "" {
		e.collapseLocked(e.focus, true, &fx)
	}
	e.resetRecordsLocked()
	e.primary = rl.primary

	nodes := e.buildNodes(resp.Nodes)
	edges := e.buildEdges(resp.Edges)

	focus := ""
	if rl.expand != "" && containsNode(nodes, rl.expand) {
		e.installArticleRoot(rl.expand, nodes, edges, resp.Article, &fx)
		focus = rl.expand
	} else {
		e.installRoot(nodes, edges)
	}

	e.bindLocked(&fx)
	e.renderLocked(&fx, focus)
	n, m := e.graph.Len()
	e.publishLocked(&fx, events.TopicExplorerRootLoaded, events.ExplorerActivity{
		Action: "root_loaded",
		Mode:   q.Mode(),
		Query:  describeQuery(q),
		NodeID: focus,
		Nodes:  n,
		Edges:  m,
	})
	e.unlockAndRun(fx)
	return OutcomeLoaded, nil
}

// installRoot renders a root payload: every non-article node, the first
// batch of articles, and the server edges whose endpoints are shown. Edges
// waiting on hidden articles are kept with the root batch record.
func (e *Engine) installRoot(nodes []Node, edges []Edge) {
	var articles, others []Node
	for _, n := range nodes {
		if n.Kind == KindArticle {
			articles = append(articles, n)
		} else {
			others = append(others, n)
		}
	}
	e.graph.Replace(others, nil)

	rb := &rootBatch{remaining: articles, pending: edges}
	if len(articles) > e.loader.size {
		e.rootCounter++
		rb.counter = e.rootCounter
		rb.sentinel = rootSentinelID(rb.counter)
	}
	if !e.loader.revealRoot(rb) {
		e.roots[rb.sentinel] = rb
	}
	e.prunePending(rb)
}

// prunePending drops pending edges that can never be added because an
// endpoint is neither shown nor waiting in the batch.
func (e *Engine) prunePending(rb *rootBatch) {
	waiting := make(map[string]bool, len(rb.remaining))
	for _, n := range rb.remaining {
		waiting[n.ID] = true
	}
	kept := rb.pending[:0]
	for _, edge := range rb.pending {
		fromOK := e.graph.HasNode(edge.From) || waiting[edge.From]
		toOK := e.graph.HasNode(edge.To) || waiting[edge.To]
		if fromOK && toOK {
			kept = append(kept, edge)
			continue
		}
		e.logger.Debug("explorer: dropped edge with unknown endpoint",
			"edge", edge.ID, "from", edge.From, "to", edge.To)
	}
	rb.pending = kept
}

// installArticleRoot renders a single-article payload. The article and any
// non-author nodes go to the root; the authors become the article's
// expansion candidates.
func (e *Engine) installArticleRoot(articleID string, nodes []Node, edges []Edge, meta model.Payload, fx *effects) {
	var root, candidates []Node
	for _, n := range nodes {
		if n.ID == articleID || n.Kind != KindAuthor {
			root = append(root, n)
		} else {
			candidates = append(candidates, n)
		}
	}
	var rootEdges []Edge
	for _, edge := range edges {
		if containsNode(root, edge.From) && containsNode(root, edge.To) {
			rootEdges = append(rootEdges, edge)
		}
	}
	e.graph.Replace(root, rootEdges)

	owner, _ := e.graph.Node(articleID)
	x := e.newExpansion(owner, candidates, meta)
	e.loader.revealArticle(x)
	e.expansions[articleID] = x
	e.focus = articleID
	show := maps.Clone(x.meta)
	fx.add(func() { e.detail.Show(show) })
}

// Clear empties the graph, drops every record, hides the detail view and
// invalidates in-flight fetches.
func (e *Engine) Clear() {
	e.mu.Lock()
	var fx effects
	e.rootGen++
	e.bindGen++
	e.articleGen++
	e.resetRecordsLocked()
	e.graph.Clear()
	e.focus = ""
	e.primary = ""
	fx.add(e.detail.Hide)
	e.renderLocked(&fx, "")
	e.publishLocked(&fx, events.TopicExplorerCleared, events.ExplorerActivity{Action: "cleared"})
	e.unlockAndRun(fx)
}

// Close announces the end of the session. Fetches still in flight are
// ignored when they return.
func (e *Engine) Close() {
	e.mu.Lock()
	var fx effects
	e.rootGen++
	e.bindGen++
	e.articleGen++
	n, m := e.graph.Len()
	e.publishLocked(&fx, events.TopicExplorerClosed, events.ExplorerActivity{
		Action: "closed",
		Nodes:  n,
		Edges:  m,
	})
	e.unlockAndRun(fx)
}

func (e *Engine) resetRecordsLocked() {
	e.expansions = make(map[string]*expansion)
	e.roots = make(map[string]*rootBatch)
	e.loading = make(map[string]uint64)
	e.focus = ""
}

// CloseDetail collapses the focused article, or just hides the detail view
// when nothing is focused.
func (e *Engine) CloseDetail() {
	e.mu.Lock()
	var fx effects
	if e.focus == "" {
		fx.add(e.detail.Hide)
		e.unlockAndRun(fx)
		return
	}
	id := e.focus
	e.collapseLocked(id, true, &fx)
	e.renderLocked(&fx, "")
	e.publishCollapseLocked(&fx, id)
	e.unlockAndRun(fx)
}

// Click dispatches a click on a node by its kind.
func (e *Engine) Click(ctx context.Context, nodeID string) (Outcome, error) {
	e.mu.Lock()
	node, ok := e.graph.Node(nodeID)
	e.mu.Unlock()
	if !ok {
		return OutcomeIgnored, nil
	}

	switch node.Kind {
	case KindMoreRoot:
		return e.RevealRoot(nodeID), nil
	case KindMoreArticle:
		return e.RevealArticle(nodeID), nil
	case KindArticle:
		return e.ActivateArticle(ctx, nodeID)
	}
	if e.inspect != nil {
		e.inspect(node)
	}
	return OutcomeInspected, nil
}

// RevealRoot discloses the next batch of articles behind a root sentinel.
// Unknown or exhausted sentinels are a no-op.
func (e *Engine) RevealRoot(sentinelID string) Outcome {
	e.mu.Lock()
	rb, ok := e.roots[sentinelID]
	if !ok {
		e.mu.Unlock()
		return OutcomeIgnored
	}
	var fx effects
	if e.loader.revealRoot(rb) {
		delete(e.roots, sentinelID)
	}
	e.renderLocked(&fx, "")
	e.unlockAndRun(fx)
	return OutcomeRevealed
}

// OpenLink opens the external link of a node. Nodes without a link are
// ignored.
func (e *Engine) OpenLink(nodeID string) error {
	e.mu.Lock()
	node, ok := e.graph.Node(nodeID)
	e.mu.Unlock()
	if !ok || e.links == nil {
		return nil
	}
	link := LinkFor(node.Payload)
	if link == "" {
		return nil
	}
	if err := e.links.Open(link); err != nil {
		e.notifier.Notify(LevelWarn, "failed to open link: "+err.Error())
		return fmt.Errorf("open %s: %w", link, err)
	}
	return nil
}

func (e *Engine) buildNodes(in []model.GraphNode) []Node {
	seen := make(map[string]bool, len(in))
	out := make([]Node, 0, len(in))
	for _, gn := range in {
		id := strings.TrimSpace(gn.ID)
		switch {
		case id == "":
			e.logger.Debug("explorer: dropped node without id", "label", gn.Label)
			continue
		case strings.HasPrefix(id, morePrefix):
			e.logger.Debug("explorer: dropped node in sentinel namespace", "id", id)
			continue
		case seen[id]:
			continue
		}
		seen[id] = true
		n := Node{
			ID:      id,
			Label:   gn.Label,
			Kind:    Classify(id, gn.Group),
			Payload: gn.Payload,
		}
		if n.Kind == KindAuthor && e.primary != "" && strings.EqualFold(strings.TrimSpace(n.Label), e.primary) {
			n.Primary = true
		}
		out = append(out, n)
	}
	return out
}

func (e *Engine) buildEdges(in []model.GraphEdge) []Edge {
	out := make([]Edge, 0, len(in))
	for i, ge := range in {
		if ge.From == "" || ge.To == "" {
			e.logger.Debug("explorer: dropped edge without endpoints", "index", i)
			continue
		}
		id := ge.ID
		if id == "" {
			id = serverEdgeID(i)
		}
		out = append(out, Edge{ID: id, From: ge.From, To: ge.To, Label: ge.Label})
	}
	return out
}

func containsNode(nodes []Node, id string) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

func describeQuery(q model.GraphQuery) string {
	switch q.Mode() {
	case model.ModeArticle:
		return fmt.Sprint(*q.ArticleID)
	case model.ModeAuthor:
		return q.Author
	case model.ModeKeyword:
		return strings.Join(q.Keywords, ",")
	case model.ModeTitle:
		return q.Title
	}
	return ""
}

func (e *Engine) publishLocked(fx *effects, topic string, ev events.ExplorerActivity) {
	ev.SessionID = e.session
	ev.At = time.Now().UTC()
	fx.add(func() {
		if err := e.events.Publish(context.Background(), topic, ev); err != nil {
			e.logger.Warn("explorer: publish failed", "topic", topic, "err", err)
		}
	})
}

func (e *Engine) publishCollapseLocked(fx *effects, articleID string) {
	n, m := e.graph.Len()
	e.publishLocked(fx, events.TopicExplorerCollapsed, events.ExplorerActivity{
		Action: "article_collapsed",
		NodeID: articleID,
		Nodes:  n,
		Edges:  m,
	})
}
