package explorer

import (
	"strconv"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// DefaultBatchSize is how many candidates one reveal discloses.
const DefaultBatchSize = 10

const (
	labelMoreArticles = "more articles"
	labelMoreAuthors  = "more authors"
	labelWrittenBy    = "written by"
)

func moreLabel(remaining int) string {
	return "+" + strconv.Itoa(remaining) + " more"
}

// rootBatch is the disclosure state behind one more_root_<n> sentinel.
type rootBatch struct {
	sentinel  string
	counter   int
	remaining []Node
	// pending holds server edges with an endpoint that is not revealed yet.
	pending []Edge
}

// expansion is the disclosure state of one expanded article. nodes and edges
// list exactly what the expansion put into the graph, sentinel included.
type expansion struct {
	article    string
	suffix     string
	meta       model.Payload
	candidates []Node
	next       int
	nodes      []string
	edges      []string
}

func (x *expansion) remaining() int { return len(x.candidates) - x.next }

func (x *expansion) forget(nodeID, edgeID string) {
	x.nodes = removeString(x.nodes, nodeID)
	x.edges = removeString(x.edges, edgeID)
}

func (x *expansion) track(nodeID, edgeID string) {
	if !containsString(x.nodes, nodeID) {
		x.nodes = append(x.nodes, nodeID)
	}
	if !containsString(x.edges, edgeID) {
		x.edges = append(x.edges, edgeID)
	}
}

// batchLoader reveals candidate prefixes into a graph and maintains the
// sentinel that stands for the rest.
type batchLoader struct {
	graph *Graph
	size  int
}

// reveal adds up to size candidates, skipping IDs already present. It
// returns the batch it considered, the IDs it actually added, and the rest.
func (b *batchLoader) reveal(candidates []Node) (batch []Node, added []string, rest []Node) {
	n := min(b.size, len(candidates))
	batch, rest = candidates[:n], candidates[n:]
	for _, node := range batch {
		if b.graph.AddNode(node) {
			added = append(added, node.ID)
		}
	}
	return batch, added, rest
}

// revealRoot discloses the next batch behind a root sentinel. It reports
// whether the record is exhausted; the sentinel is gone from the graph when
// it is.
func (b *batchLoader) revealRoot(rb *rootBatch) (exhausted bool) {
	batch, added, rest := b.reveal(rb.remaining)
	rb.remaining = rest
	b.flushPending(rb)

	edgeID := rootSentinelEdgeID(rb.counter)
	if len(rest) == 0 {
		b.graph.RemoveEdge(edgeID)
		b.graph.RemoveNode(rb.sentinel)
		return true
	}

	b.graph.UpsertNode(Node{
		ID:        rb.sentinel,
		Label:     moreLabel(len(rest)),
		Kind:      KindMoreRoot,
		Remaining: len(rest),
	})
	target := ""
	switch {
	case len(added) > 0:
		target = added[0]
	case len(batch) > 0:
		target = batch[0].ID
	}
	if target == "" || !b.graph.HasNode(target) {
		b.graph.RemoveEdge(edgeID)
		return false
	}
	// Endpoints exist, so the upsert cannot fail.
	_ = b.graph.UpsertEdge(Edge{
		ID:     edgeID,
		From:   rb.sentinel,
		To:     target,
		Label:  labelMoreArticles,
		Dashed: true,
	})
	return false
}

func (b *batchLoader) flushPending(rb *rootBatch) {
	kept := rb.pending[:0]
	for _, e := range rb.pending {
		if b.graph.HasEdge(e.ID) {
			continue
		}
		if err := b.graph.AddEdge(e); err != nil {
			kept = append(kept, e)
		}
	}
	rb.pending = kept
}

// revealArticle discloses the next batch of an expansion's candidates, each
// joined to the article by a "written by" edge, and keeps the article
// sentinel in step with what is left.
func (b *batchLoader) revealArticle(x *expansion) {
	batch, added, _ := b.reveal(x.candidates[x.next:])
	x.nodes = append(x.nodes, added...)

	for i, node := range batch {
		eid := authorEdgeID(x.suffix, x.next+i)
		if b.graph.HasEdge(eid) || b.graph.Connected(node.ID, x.article) {
			continue
		}
		if err := b.graph.AddEdge(Edge{ID: eid, From: node.ID, To: x.article, Label: labelWrittenBy}); err == nil {
			x.edges = append(x.edges, eid)
		}
	}
	x.next += len(batch)

	sentinel := articleSentinelID(x.suffix)
	edgeID := articleSentinelEdgeID(x.suffix)
	if x.remaining() == 0 {
		b.graph.RemoveEdge(edgeID)
		b.graph.RemoveNode(sentinel)
		x.forget(sentinel, edgeID)
		return
	}

	b.graph.UpsertNode(Node{
		ID:        sentinel,
		Label:     moreLabel(x.remaining()),
		Kind:      KindMoreArticle,
		Remaining: x.remaining(),
	})
	// Both endpoints were just ensured, so the upsert cannot fail.
	_ = b.graph.UpsertEdge(Edge{
		ID:     edgeID,
		From:   sentinel,
		To:     x.article,
		Label:  labelMoreAuthors,
		Dashed: true,
	})
	x.track(sentinel, edgeID)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
