package explorer

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func TestCollapse_ExactRollback(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("collapse removes exactly what the expansion added", prop.ForAll(
		func(candidates, overlap, linked, size, reveals int) bool {
			e, err := New(Options{Fetcher: newFakeFetcher(), Renderer: &recorder{}, BatchSize: size})
			if err != nil {
				return false
			}
			g := e.graph
			g.AddNode(Node{ID: "article_1", Kind: KindArticle})
			g.AddNode(Node{ID: "keyword_k", Kind: KindKeyword})
			_ = g.AddEdge(Edge{ID: "kw", From: "keyword_k", To: "article_1"})

			cands := make([]Node, candidates)
			for i := range cands {
				cands[i] = Node{ID: fmt.Sprintf("author_%d", i), Kind: KindAuthor}
			}
			// Some candidates are already on screen, some of those already
			// joined to the article.
			for i := 0; i < overlap && i < candidates; i++ {
				g.AddNode(cands[i])
				if i < linked {
					_ = g.AddEdge(Edge{ID: fmt.Sprintf("pre_%d", i), From: "article_1", To: cands[i].ID})
				}
			}
			nodesBefore, edgesBefore := g.Nodes(), g.Edges()

			x := e.newExpansion(Node{ID: "article_1"}, cands, nil)
			e.loader.revealArticle(x)
			e.expansions["article_1"] = x
			e.focus = "article_1"
			for i := 1; i < reveals; i++ {
				e.RevealArticle(articleSentinelID("1"))
			}

			if e.Collapse("article_1", false) != OutcomeCollapsed {
				return false
			}
			return reflect.DeepEqual(nodesBefore, g.Nodes()) &&
				reflect.DeepEqual(edgesBefore, g.Edges()) &&
				e.Focus() == ""
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 10),
		gen.IntRange(0, 10),
		gen.IntRange(1, 12),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}

// clickWorld is an author graph of 14 articles where article i has i%5+1
// co-authors, two of them shared across articles.
func clickWorld() *fakeFetcher {
	f := newFakeFetcher()
	f.set(model.GraphQuery{Author: "Jane Doe"}, authorGraph("Jane Doe", 14))
	for i := 1; i <= 14; i++ {
		authors := []string{"Jane Doe", "Shared Sue"}
		authors = append(authors, names(fmt.Sprintf("Writer %d", i), i%5+1)...)
		f.set(model.ArticleQuery(i), articleGraph(i, authors...))
	}
	return f
}

func TestClickSequences_KeepInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("clicks keep one focus and no dangling edges", prop.ForAll(
		func(picks []int) bool {
			e, err := New(Options{Fetcher: clickWorld(), Renderer: &recorder{}, BatchSize: 3})
			if err != nil {
				return false
			}
			ctx := context.Background()
			if _, err := e.LoadAuthor(ctx, "Jane Doe"); err != nil {
				return false
			}
			for _, pick := range picks {
				snap := e.Snapshot()
				if len(snap.Nodes) == 0 {
					return false
				}
				if _, err := e.Click(ctx, snap.Nodes[pick%len(snap.Nodes)].ID); err != nil {
					return false
				}

				e.mu.Lock()
				ok := len(e.expansions) <= 1
				for id := range e.expansions {
					ok = ok && e.focus == id
				}
				for _, edge := range e.graph.Edges() {
					ok = ok && e.graph.HasNode(edge.From) && e.graph.HasNode(edge.To)
				}
				e.mu.Unlock()
				if !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
	))

	properties.TestingRun(t)
}

func TestSummary_FallbackOrderAndCache(t *testing.T) {
	f := newFakeFetcher()
	f.set(model.ArticleQuery(5), articleGraph(5, "Al One"))
	sum := &fakeSummarizer{byID: map[int]string{5: "From the server."}}
	e, _ := newTestEngine(t, f, func(o *Options) { o.Summarizer = sum })
	_, err := e.LoadArticle(context.Background(), 5)
	require.NoError(t, err)

	got, err := e.Summary(context.Background(), "article_5")
	require.NoError(t, err)
	require.Equal(t, "From the server.", got)
	require.Equal(t, []string{"title:Article 5", "id:5"}, sum.calls)

	got, err = e.Summary(context.Background(), "article_5")
	require.NoError(t, err)
	require.Equal(t, "From the server.", got)
	require.Len(t, sum.calls, 2, "second call should hit the cache")

	n, _ := e.Node("article_5")
	require.Equal(t, "From the server.", n.Payload[SummaryKey])
}

func TestSummary_LocalFallback(t *testing.T) {
	f := newFakeFetcher()
	f.set(model.ArticleQuery(5), articleGraph(5, "Al One"))
	e, _ := newTestEngine(t, f)
	_, err := e.LoadArticle(context.Background(), 5)
	require.NoError(t, err)

	got, err := e.Summary(context.Background(), "article_5")
	require.NoError(t, err)
	require.Equal(t, "Mice lost bone in orbit. Rats did too. Nobody else was tested.", got)

	_, err = e.Summary(context.Background(), "article_404")
	require.ErrorIs(t, err, ErrUnknownNode)
}

type fakeSummarizer struct {
	byTitle map[string]string
	byID    map[int]string
	calls   []string
}

func (s *fakeSummarizer) Summarize(_ context.Context, req model.SummaryRequest) (string, error) {
	if req.Title != "" {
		s.calls = append(s.calls, "title:"+req.Title)
		if v, ok := s.byTitle[req.Title]; ok {
			return v, nil
		}
		return "", errors.New("404 Publication not found.")
	}
	s.calls = append(s.calls, fmt.Sprintf("id:%d", *req.PubID))
	if v, ok := s.byID[*req.PubID]; ok {
		return v, nil
	}
	return "", errors.New("404 Publication not found.")
}
