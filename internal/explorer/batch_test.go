package explorer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func articleNodes(n int) []Node {
	out := make([]Node, n)
	for i := range out {
		out[i] = Node{ID: ArticleID(i + 1), Label: fmt.Sprintf("Article %d", i+1), Kind: KindArticle}
	}
	return out
}

func TestRevealRoot_Exhaustion(t *testing.T) {
	g := NewGraph()
	b := batchLoader{graph: g, size: 10}
	rb := &rootBatch{sentinel: rootSentinelID(1), counter: 1, remaining: articleNodes(25)}

	steps := []struct {
		articles  int
		label     string
		exhausted bool
	}{
		{10, "+15 more", false},
		{20, "+5 more", false},
		{25, "", true},
	}
	for i, step := range steps {
		exhausted := b.revealRoot(rb)
		assert.Equal(t, step.exhausted, exhausted, "step %d", i)

		articles := 0
		for _, n := range g.Nodes() {
			if n.Kind == KindArticle {
				articles++
			}
		}
		assert.Equal(t, step.articles, articles, "step %d articles", i)

		sentinel, ok := g.Node(rb.sentinel)
		edge, edgeOK := g.Edge(rootSentinelEdgeID(1))
		if step.exhausted {
			assert.False(t, ok, "sentinel should be gone")
			assert.False(t, edgeOK, "sentinel edge should be gone")
			continue
		}
		require.True(t, ok)
		require.True(t, edgeOK)
		assert.Equal(t, step.label, sentinel.Label)
		assert.Equal(t, KindMoreRoot, sentinel.Kind)
		assert.Equal(t, labelMoreArticles, edge.Label)
		assert.True(t, edge.Dashed)
		// The sentinel edge points at the first node of the latest batch.
		assert.Equal(t, ArticleID(i*10+1), edge.To)
	}
}

func TestRevealRoot_SkipsExistingAndFlushesPending(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "keyword_bone", Kind: KindKeyword})
	g.AddNode(Node{ID: ArticleID(2), Kind: KindArticle, Label: "already here"})
	b := batchLoader{graph: g, size: 2}
	rb := &rootBatch{
		sentinel:  rootSentinelID(4),
		counter:   4,
		remaining: articleNodes(3),
		pending: []Edge{
			{ID: "k1", From: "keyword_bone", To: ArticleID(1)},
			{ID: "k3", From: "keyword_bone", To: ArticleID(3)},
		},
	}

	_, added, _ := b.reveal(rb.remaining[:2])
	assert.Equal(t, []string{ArticleID(1)}, added)

	g.RemoveNode(ArticleID(1))
	assert.False(t, b.revealRoot(rb))
	n, _ := g.Node(ArticleID(2))
	assert.Equal(t, "already here", n.Label)
	assert.True(t, g.HasEdge("k1"))
	assert.False(t, g.HasEdge("k3"))
	require.Len(t, rb.pending, 1)

	assert.True(t, b.revealRoot(rb))
	assert.True(t, g.HasEdge("k3"))
	assert.Empty(t, rb.pending)
}

func TestRevealArticle_TracksExactlyWhatItAdds(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "article_9", Kind: KindArticle})
	// One candidate is already on screen, joined to the article.
	g.AddNode(Node{ID: "author_a2", Kind: KindAuthor})
	require.NoError(t, g.AddEdge(Edge{ID: "srv", From: "article_9", To: "author_a2"}))

	var candidates []Node
	for i := 1; i <= 3; i++ {
		candidates = append(candidates, Node{ID: fmt.Sprintf("author_a%d", i), Kind: KindAuthor})
	}
	x := &expansion{article: "article_9", suffix: "9", candidates: candidates}
	b := batchLoader{graph: g, size: 2}

	b.revealArticle(x)
	assert.Equal(t, []string{"author_a1", "more_9"}, x.nodes)
	assert.Equal(t, []string{"e_a_9_0", "edge_more_article_9"}, x.edges)
	sentinel, ok := g.Node("more_9")
	require.True(t, ok)
	assert.Equal(t, "+1 more", sentinel.Label)
	assert.Equal(t, 1, sentinel.Remaining)
	edge, _ := g.Edge("edge_more_article_9")
	assert.Equal(t, "more_9", edge.From)
	assert.Equal(t, "article_9", edge.To)
	assert.Equal(t, labelMoreAuthors, edge.Label)

	b.revealArticle(x)
	assert.Equal(t, []string{"author_a1", "author_a3"}, x.nodes)
	assert.Equal(t, []string{"e_a_9_0", "e_a_9_2"}, x.edges)
	assert.False(t, g.HasNode("more_9"))
	assert.False(t, g.HasEdge("edge_more_article_9"))

	written, _ := g.Edge("e_a_9_2")
	assert.Equal(t, "author_a3", written.From)
	assert.Equal(t, "article_9", written.To)
	assert.Equal(t, labelWrittenBy, written.Label)
}
