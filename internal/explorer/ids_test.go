package explorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	for _, tc := range []struct {
		id, group string
		want      Kind
	}{
		{"more_root_3", "", KindMoreRoot},
		{"more_root_3", "article", KindMoreRoot},
		{"more_42", "", KindMoreArticle},
		{"author_jane_doe", "", KindAuthor},
		{"author_jane_doe", "keyword", KindKeyword},
		{"keyword_bone", "", KindKeyword},
		{"article_7", "", KindArticle},
		{"x_1", "Author", KindAuthor},
		{"something", "", KindArticle},
		{"42", "", KindArticle},
	} {
		assert.Equal(t, tc.want, Classify(tc.id, tc.group), "Classify(%q, %q)", tc.id, tc.group)
	}
}

func TestKindGroup(t *testing.T) {
	assert.Equal(t, GroupMore, KindMoreRoot.Group())
	assert.Equal(t, GroupMore, KindMoreArticle.Group())
	assert.Equal(t, GroupAuthor, KindAuthor.Group())
	assert.Equal(t, GroupArticle, KindArticle.Group())
	assert.True(t, KindMoreArticle.IsSentinel())
	assert.False(t, KindKeyword.IsSentinel())
}

func TestIdentifiers(t *testing.T) {
	assert.Equal(t, "article_42", ArticleID(42))
	assert.Equal(t, "42", ArticleSuffix("article_42"))
	assert.Equal(t, "more_root_2", rootSentinelID(2))
	assert.Equal(t, "edge_more_root_2", rootSentinelEdgeID(2))
	assert.Equal(t, "more_42", articleSentinelID("42"))
	assert.Equal(t, "edge_more_article_42", articleSentinelEdgeID("42"))
	assert.Equal(t, "article_42", articleForSentinel("more_42"))
	assert.Equal(t, "e_a_42_11", authorEdgeID("42", 11))
	assert.Equal(t, "srv_e_0", serverEdgeID(0))

	id, ok := ServerArticleID("article_42")
	assert.True(t, ok)
	assert.Equal(t, 42, id)
	_, ok = ServerArticleID("author_42")
	assert.False(t, ok)
	_, ok = ServerArticleID("article_x")
	assert.False(t, ok)
}
