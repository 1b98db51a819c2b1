package explorer

import (
	"strconv"
	"strings"
)

const (
	articlePrefix  = "article_"
	authorPrefix   = "author_"
	keywordPrefix  = "keyword_"
	moreRootPrefix = "more_root_"
	morePrefix     = "more_"
)

// ArticleID returns the node ID for a catalogue article.
func ArticleID(serverID int) string {
	return articlePrefix + strconv.Itoa(serverID)
}

// ArticleSuffix strips the article namespace from a node ID.
func ArticleSuffix(nodeID string) string {
	return strings.TrimPrefix(nodeID, articlePrefix)
}

// ServerArticleID parses the catalogue ID out of an article node ID.
func ServerArticleID(nodeID string) (int, bool) {
	if !strings.HasPrefix(nodeID, articlePrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(ArticleSuffix(nodeID))
	if err != nil {
		return 0, false
	}
	return n, true
}

func rootSentinelID(counter int) string {
	return moreRootPrefix + strconv.Itoa(counter)
}

func rootSentinelEdgeID(counter int) string {
	return "edge_" + moreRootPrefix + strconv.Itoa(counter)
}

func articleSentinelID(suffix string) string {
	return morePrefix + suffix
}

func articleSentinelEdgeID(suffix string) string {
	return "edge_more_article_" + suffix
}

// articleForSentinel maps more_<suffix> back to article_<suffix>.
func articleForSentinel(sentinelID string) string {
	return articlePrefix + strings.TrimPrefix(sentinelID, morePrefix)
}

func authorEdgeID(suffix string, index int) string {
	return "e_a_" + suffix + "_" + strconv.Itoa(index)
}

func serverEdgeID(index int) string {
	return "srv_e_" + strconv.Itoa(index)
}

// Classify decides the kind of a node. Sentinel namespaces win, then an
// explicit server group, then the ID prefix. Anything else is an article.
func Classify(id, group string) Kind {
	switch {
	case strings.HasPrefix(id, moreRootPrefix):
		return KindMoreRoot
	case strings.HasPrefix(id, morePrefix):
		return KindMoreArticle
	}
	switch strings.ToLower(strings.TrimSpace(group)) {
	case GroupArticle:
		return KindArticle
	case GroupAuthor:
		return KindAuthor
	case GroupKeyword:
		return KindKeyword
	}
	switch {
	case strings.HasPrefix(id, authorPrefix):
		return KindAuthor
	case strings.HasPrefix(id, keywordPrefix):
		return KindKeyword
	}
	return KindArticle
}
