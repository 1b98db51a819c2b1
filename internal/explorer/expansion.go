package explorer

import (
	"context"
	"fmt"
	"maps"

	"github.com/alfredjeanlab/litgraph/internal/events"
	"github.com/alfredjeanlab/litgraph/internal/model"
)

// ActivateArticle expands an article, or collapses it when it is already
// expanded. Another focused article is collapsed first without hiding the
// detail view. A response that arrives after a newer activation, a root load
// or a clear is dropped and reported as OutcomeStale.
func (e *Engine) ActivateArticle(ctx context.Context, articleID string) (Outcome, error) {
	e.mu.Lock()
	var fx effects
	node, ok := e.graph.Node(articleID)
	if !ok || node.Kind != KindArticle {
		e.mu.Unlock()
		return OutcomeIgnored, fmt.Errorf("activate %s: %w", articleID, ErrUnknownNode)
	}

	if e.focus != "" && e.focus != articleID {
		prev := e.focus
		e.collapseLocked(prev, false, &fx)
		e.renderLocked(&fx, "")
		e.publishCollapseLocked(&fx, prev)
	}
	if _, ok := e.expansions[articleID]; ok {
		e.collapseLocked(articleID, true, &fx)
		e.renderLocked(&fx, "")
		e.publishCollapseLocked(&fx, articleID)
		e.unlockAndRun(fx)
		return OutcomeCollapsed, nil
	}

	serverID, ok := ServerArticleID(articleID)
	if !ok {
		serverID, ok = node.Payload.Int("id")
	}
	if !ok {
		msg := "failed to fetch article authors: no catalogue id for " + articleID
		fx.add(func() { e.notifier.Notify(LevelError, msg) })
		e.unlockAndRun(fx)
		return OutcomeIgnored, fmt.Errorf("activate %s: no catalogue id", articleID)
	}

	e.articleGen++
	gen, rootGen := e.articleGen, e.rootGen
	e.loading[articleID] = gen
	e.unlockAndRun(fx)

	resp, err := e.fetcher.Graph(ctx, model.ArticleQuery(serverID))

	e.mu.Lock()
	fx = nil
	if e.loading[articleID] == gen {
		delete(e.loading, articleID)
	}
	if gen != e.articleGen || rootGen != e.rootGen || !e.graph.HasNode(articleID) {
		e.mu.Unlock()
		e.logger.Debug("explorer: dropped stale article response", "article", articleID)
		return OutcomeStale, nil
	}
	if err != nil {
		msg := fmt.Sprintf("failed to fetch article authors: %v", err)
		fx.add(func() { e.notifier.Notify(LevelError, msg) })
		e.unlockAndRun(fx)
		return OutcomeIgnored, fmt.Errorf("fetch article authors: %w", err)
	}

	if e.focus != "" && e.focus != articleID {
		e.collapseLocked(e.focus, false, &fx)
	}

	owner, _ := e.graph.Node(articleID)
	var candidates []Node
	for _, n := range e.buildNodes(resp.Nodes) {
		if n.ID != articleID {
			candidates = append(candidates, n)
		}
	}
	x := e.newExpansion(owner, candidates, resp.Article)
	e.loader.revealArticle(x)
	e.expansions[articleID] = x
	e.focus = articleID

	show := maps.Clone(x.meta)
	fx.add(func() { e.detail.Show(show) })
	e.renderLocked(&fx, articleID)
	n, m := e.graph.Len()
	e.publishLocked(&fx, events.TopicExplorerExpanded, events.ExplorerActivity{
		Action: "article_expanded",
		NodeID: articleID,
		Nodes:  n,
		Edges:  m,
	})
	e.unlockAndRun(fx)
	return OutcomeExpanded, nil
}

func (e *Engine) newExpansion(owner Node, candidates []Node, meta model.Payload) *expansion {
	if len(meta) == 0 {
		meta = maps.Clone(owner.Payload)
	}
	return &expansion{
		article:    owner.ID,
		suffix:     ArticleSuffix(owner.ID),
		meta:       meta,
		candidates: candidates,
	}
}

// Collapse removes everything the article's expansion added. The detail
// view is hidden when hideDetail is set and the article was focused.
// Articles without an expansion are left alone.
func (e *Engine) Collapse(articleID string, hideDetail bool) Outcome {
	e.mu.Lock()
	var fx effects
	if !e.collapseLocked(articleID, hideDetail, &fx) {
		e.mu.Unlock()
		return OutcomeIgnored
	}
	e.renderLocked(&fx, "")
	e.publishCollapseLocked(&fx, articleID)
	e.unlockAndRun(fx)
	return OutcomeCollapsed
}

// collapseLocked removes the recorded edges, then the recorded nodes, then
// the record itself.
func (e *Engine) collapseLocked(articleID string, hideDetail bool, fx *effects) bool {
	x, ok := e.expansions[articleID]
	if !ok {
		if e.focus == articleID {
			e.focus = ""
		}
		return false
	}
	for _, id := range x.edges {
		e.graph.RemoveEdge(id)
	}
	for _, id := range x.nodes {
		e.graph.RemoveNode(id)
	}
	delete(e.expansions, articleID)
	if e.focus == articleID {
		if hideDetail {
			fx.add(e.detail.Hide)
		}
		e.focus = ""
	}
	return true
}

// RevealArticle discloses the next batch of authors behind an article
// sentinel. Unknown or exhausted sentinels are a no-op.
func (e *Engine) RevealArticle(sentinelID string) Outcome {
	e.mu.Lock()
	x, ok := e.expansions[articleForSentinel(sentinelID)]
	if !ok || x.remaining() == 0 {
		e.mu.Unlock()
		return OutcomeIgnored
	}
	var fx effects
	e.loader.revealArticle(x)
	e.renderLocked(&fx, x.article)
	e.unlockAndRun(fx)
	return OutcomeRevealed
}

// Loading reports whether an activation of the article is in flight.
func (e *Engine) Loading(articleID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.loading[articleID]
	return ok
}
