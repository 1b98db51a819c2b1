package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Server-side node groups and edge labels.
const (
	GroupArticle = "article"
	GroupAuthor  = "author"
	GroupKeyword = "keyword"

	LabelWrittenBy = "WRITTEN_BY"
	LabelWrote     = "WROTE"
	LabelHas       = "HAS"
)

var nonWordRE = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// AuthorSlug lower-cases name, collapses runs of non-word characters to "_"
// and trims leading and trailing underscores.
func AuthorSlug(name string) string {
	return strings.Trim(nonWordRE.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// AuthorNodeID returns the graph node ID for an author name.
func AuthorNodeID(name string) string { return "author_" + AuthorSlug(name) }

// KeywordNodeID returns the graph node ID for a keyword.
func KeywordNodeID(kw string) string { return "keyword_" + normalize(kw) }

// ArticleNodeID returns the graph node ID for an article.
func ArticleNodeID(id int) string { return "article_" + strconv.Itoa(id) }

// graphBuilder accumulates nodes and edges without duplicates.
type graphBuilder struct {
	nodes []model.GraphNode
	edges []model.GraphEdge
	seen  map[string]bool
	links map[model.GraphEdge]bool
}

func newGraphBuilder() *graphBuilder {
	return &graphBuilder{
		nodes: []model.GraphNode{},
		edges: []model.GraphEdge{},
		seen:  make(map[string]bool),
		links: make(map[model.GraphEdge]bool),
	}
}

func (b *graphBuilder) node(n model.GraphNode) string {
	if !b.seen[n.ID] {
		b.seen[n.ID] = true
		b.nodes = append(b.nodes, n)
	}
	return n.ID
}

func (b *graphBuilder) edge(from, to, label string) {
	e := model.GraphEdge{From: from, To: to, Label: label}
	if b.links[e] {
		return
	}
	b.links[e] = true
	b.edges = append(b.edges, e)
}

func (b *graphBuilder) article(a *model.Article) string {
	return b.node(model.GraphNode{
		ID:    ArticleNodeID(a.ID),
		Label: a.Title,
		Group: GroupArticle,
		Payload: model.Payload{
			"title_full": a.Title,
			"pmcid":      a.Pmcid,
			"link":       a.Link,
			"PubDate":    a.PublicationDate,
		},
	})
}

func (b *graphBuilder) author(name string) string {
	return b.node(model.GraphNode{ID: AuthorNodeID(name), Label: name, Group: GroupAuthor})
}

func (b *graphBuilder) keyword(kw string) string {
	return b.node(model.GraphNode{ID: KeywordNodeID(kw), Label: kw, Group: GroupKeyword})
}

func (b *graphBuilder) response(article *model.Article) *model.GraphResponse {
	resp := &model.GraphResponse{Nodes: b.nodes, Edges: b.edges}
	if article != nil {
		resp.Article = article.Payload()
	}
	return resp
}

// Graph answers a knowledge-graph query. Modes are honoured in the order
// article_id, author, keywords, title; a query selecting none, or naming an
// article that does not exist, yields an empty graph.
func (c *Catalog) Graph(q model.GraphQuery) *model.GraphResponse {
	switch q.Mode() {
	case model.ModeArticle:
		return c.articleGraph(*q.ArticleID)
	case model.ModeAuthor:
		return c.authorGraph(q.Author)
	case model.ModeKeyword:
		return c.keywordGraph(q.Keywords)
	case model.ModeTitle:
		return c.titleGraph(q.Title)
	}
	return newGraphBuilder().response(nil)
}

// articleGraph is the article plus its authors.
func (c *Catalog) articleGraph(id int) *model.GraphResponse {
	b := newGraphBuilder()
	a, ok := c.Get(id)
	if !ok {
		return b.response(nil)
	}
	art := b.article(a)
	for _, name := range a.Authors {
		b.edge(b.author(name), art, LabelWrittenBy)
	}
	return b.response(a)
}

// authorGraph is one author and every article they wrote.
func (c *Catalog) authorGraph(name string) *model.GraphResponse {
	b := newGraphBuilder()
	name = strings.TrimSpace(name)
	want := normalize(name)
	au := b.author(name)

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.articles {
		for _, other := range a.Authors {
			if normalize(other) == want {
				b.edge(au, b.article(a), LabelWrote)
				break
			}
		}
	}
	return b.response(nil)
}

// keywordGraph is one node per keyword and the articles tagged with it.
func (c *Catalog) keywordGraph(keywords []string) *model.GraphResponse {
	b := newGraphBuilder()

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		want := normalize(kw)
		node := b.keyword(kw)
		for _, a := range c.articles {
			for _, k := range a.Keywords {
				if normalize(k) == want {
					b.edge(node, b.article(a), LabelHas)
					break
				}
			}
		}
	}
	return b.response(nil)
}

// titleGraph is the article with the given title plus its authors and keywords.
func (c *Catalog) titleGraph(title string) *model.GraphResponse {
	b := newGraphBuilder()
	a, ok := c.ByTitle(title)
	if !ok {
		return b.response(nil)
	}
	art := b.article(a)
	for _, name := range a.Authors {
		b.edge(b.author(name), art, LabelWrittenBy)
	}
	for _, kw := range a.Keywords {
		b.edge(b.keyword(kw), art, LabelHas)
	}
	return b.response(a)
}
