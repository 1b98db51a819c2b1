package explorer

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/summarize"
)

// SummaryKey is the payload key a node's summary is cached under.
const SummaryKey = "ai_summary"

// Summary returns a summary for an article node. The server is asked by
// title first, then by catalogue ID; when both fail a few leading sentences
// of the abstract or the shortest section are used. The result is cached on
// the node payload.
func (e *Engine) Summary(ctx context.Context, nodeID string) (string, error) {
	e.mu.Lock()
	node, ok := e.graph.Node(nodeID)
	if !ok {
		e.mu.Unlock()
		return "", fmt.Errorf("summary for %s: %w", nodeID, ErrUnknownNode)
	}
	if s := node.Payload.String(SummaryKey); s != "" {
		e.mu.Unlock()
		return s, nil
	}
	meta := model.Payload{}
	maps.Copy(meta, node.Payload)
	if x, ok := e.expansions[nodeID]; ok {
		for k, v := range x.meta {
			if _, set := meta[k]; !set {
				meta[k] = v
			}
		}
	}
	e.mu.Unlock()

	text := e.fetchSummary(ctx, nodeID, meta)

	e.mu.Lock()
	defer e.mu.Unlock()
	// The node may be gone by now; the summary is still worth returning.
	_ = e.graph.SetPayload(nodeID, SummaryKey, text)
	return text, nil
}

func (e *Engine) fetchSummary(ctx context.Context, nodeID string, meta model.Payload) string {
	if e.summarizer != nil {
		if title := meta.String("Title", "title_full", "title"); title != "" {
			s, err := e.summarizer.Summarize(ctx, model.SummaryRequest{Title: title})
			if err == nil && s != "" {
				return s
			}
			e.logger.Debug("explorer: summary by title failed", "node", nodeID, "err", err)
		}
		id, ok := ServerArticleID(nodeID)
		if !ok {
			id, ok = meta.Int("id")
		}
		if ok {
			s, err := e.summarizer.Summarize(ctx, model.SummaryRequest{PubID: &id})
			if err == nil && s != "" {
				return s
			}
			e.logger.Debug("explorer: summary by id failed", "node", nodeID, "err", err)
		}
	}
	return localSummary(meta)
}

func localSummary(meta model.Payload) string {
	text := meta.String("Abstract", "abstract", "summary")
	if text == "" {
		text = shortestSection(meta["Sections"])
	}
	if text == "" {
		return summarize.MsgNoText
	}
	return summarize.Lead(text, 3)
}

func shortestSection(v any) string {
	var best string
	consider := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if best == "" || len(s) < len(best) {
			best = s
		}
	}
	switch sections := v.(type) {
	case map[string]string:
		for _, s := range sections {
			consider(s)
		}
	case map[string]any:
		for _, s := range sections {
			if str, ok := s.(string); ok {
				consider(str)
			}
		}
	}
	return best
}
