package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

func nodeIDs(r *model.GraphResponse) []string {
	out := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		out[i] = n.ID
	}
	return out
}

func TestAuthorSlug(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"Ann Lee", "ann_lee"},
		{"  O'Brien, J.-P. ", "o_brien_j_p"},
		{"José Núñez", "josé_núñez"},
		{"snake_case", "snake_case"},
	} {
		assert.Equal(t, tc.want, AuthorSlug(tc.in), tc.in)
	}
	assert.Equal(t, "keyword_bone loss", KeywordNodeID(" Bone Loss "))
	assert.Equal(t, "article_7", ArticleNodeID(7))
}

func TestGraphArticleMode(t *testing.T) {
	c := newFixture(t)
	r := c.Graph(model.ArticleQuery(1))

	assert.Equal(t, []string{"article_1", "author_ann_lee", "author_bo_chan"}, nodeIDs(r))
	require.Len(t, r.Edges, 2)
	assert.Equal(t, model.GraphEdge{From: "author_ann_lee", To: "article_1", Label: LabelWrittenBy}, r.Edges[0])

	art := r.Nodes[0]
	assert.Equal(t, GroupArticle, art.Group)
	assert.Equal(t, "Bone Loss in Microgravity", art.Payload["title_full"])
	assert.Equal(t, "PMC1", art.Payload["pmcid"])
	assert.Equal(t, "2019-03-01", art.Payload["PubDate"])

	require.NotNil(t, r.Article)
	assert.Equal(t, 1, r.Article["id"])
	assert.Equal(t, "Bone Loss in Microgravity", r.Article["Title"])
}

func TestGraphArticleModeMissing(t *testing.T) {
	r := newFixture(t).Graph(model.ArticleQuery(42))
	assert.Empty(t, r.Nodes)
	assert.Empty(t, r.Edges)
	assert.Nil(t, r.Article)
}

func TestGraphAuthorMode(t *testing.T) {
	r := newFixture(t).Graph(model.GraphQuery{Author: " ann lee "})

	assert.Equal(t, []string{"author_ann_lee", "article_1", "article_2", "article_4"}, nodeIDs(r))
	assert.Len(t, r.Edges, 3)
	for _, e := range r.Edges {
		assert.Equal(t, "author_ann_lee", e.From)
		assert.Equal(t, LabelWrote, e.Label)
	}
	assert.Nil(t, r.Article)
}

func TestGraphKeywordMode(t *testing.T) {
	r := newFixture(t).Graph(model.GraphQuery{Keywords: []string{"Spaceflight", "plants", " "}})

	assert.Equal(t, []string{"keyword_spaceflight", "article_1", "article_4", "keyword_plants", "article_2"}, nodeIDs(r))
	assert.Len(t, r.Edges, 3)
	assert.Equal(t, "Spaceflight", r.Nodes[0].Label)
}

func TestGraphTitleMode(t *testing.T) {
	r := newFixture(t).Graph(model.GraphQuery{Title: "radiation AND mice"})

	assert.Equal(t, []string{"article_4", "author_cy_diaz", "author_ann_lee", "keyword_spaceflight"}, nodeIDs(r))
	assert.Len(t, r.Edges, 3)
	require.NotNil(t, r.Article)
	assert.Equal(t, 4, r.Article["id"])

	miss := newFixture(t).Graph(model.GraphQuery{Title: "radiation"})
	assert.Empty(t, miss.Nodes)
}

func TestGraphModePrecedence(t *testing.T) {
	id := 2
	r := newFixture(t).Graph(model.GraphQuery{ArticleID: &id, Author: "Bo Chan"})
	assert.Equal(t, "article_2", r.Nodes[0].ID)
}

func TestGraphNoMode(t *testing.T) {
	r := newFixture(t).Graph(model.GraphQuery{})
	assert.NotNil(t, r.Nodes)
	assert.Empty(t, r.Nodes)
	assert.Empty(t, r.Edges)
}

func TestGraphDedupesRepeatedAuthor(t *testing.T) {
	c := New(10)
	c.Replace([]*model.Article{{ID: 1, Title: "t", Authors: []string{"Ann Lee", "ann lee"}}})
	r := c.Graph(model.ArticleQuery(1))
	assert.Len(t, r.Nodes, 2)
	assert.Len(t, r.Edges, 1)
}
