package model

import (
	"encoding/json"
	"strings"
)

// GraphQuery selects a subgraph. Exactly one mode should be set; the server
// honours them in the order article_id, author, keywords, title.
type GraphQuery struct {
	ArticleID *int     `json:"article_id,omitempty"`
	Author    string   `json:"author,omitempty"`
	Keywords  []string `json:"keywords,omitempty"`
	Title     string   `json:"title,omitempty"`
}

// Query modes.
const (
	ModeArticle = "article"
	ModeAuthor  = "author"
	ModeKeyword = "keyword"
	ModeTitle   = "title"
)

// ArticleQuery returns a query for the article with the given catalogue ID.
func ArticleQuery(id int) GraphQuery { return GraphQuery{ArticleID: &id} }

// Mode reports which mode the query selects, or "" when none is set.
func (q GraphQuery) Mode() string {
	switch {
	case q.ArticleID != nil:
		return ModeArticle
	case strings.TrimSpace(q.Author) != "":
		return ModeAuthor
	case len(q.Keywords) > 0:
		return ModeKeyword
	case strings.TrimSpace(q.Title) != "":
		return ModeTitle
	}
	return ""
}

// modeCount is the number of modes set.
func (q GraphQuery) modeCount() int {
	n := 0
	if q.ArticleID != nil {
		n++
	}
	if strings.TrimSpace(q.Author) != "" {
		n++
	}
	if len(q.Keywords) > 0 {
		n++
	}
	if strings.TrimSpace(q.Title) != "" {
		n++
	}
	return n
}

// GraphNode is a node as sent by the server: id, label and group plus any
// number of extra metadata fields, which are collected into Payload.
type GraphNode struct {
	ID      string
	Label   string
	Group   string
	Payload Payload
}

// MarshalJSON flattens Payload next to id, label and group.
func (n GraphNode) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(n.Payload)+3)
	for k, v := range n.Payload {
		m[k] = v
	}
	m["id"] = n.ID
	m["label"] = n.Label
	if n.Group != "" {
		m["group"] = n.Group
	}
	return json.Marshal(m)
}

// UnmarshalJSON accepts numeric or string ids and tolerates a missing or null
// label and group.
func (n *GraphNode) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	n.ID = asString(m["id"])
	n.Label = asString(m["label"])
	n.Group = asString(m["group"])
	delete(m, "id")
	delete(m, "label")
	delete(m, "group")
	n.Payload = Payload(m)
	return nil
}

// GraphEdge is a directed relation between two node IDs.
type GraphEdge struct {
	ID    string `json:"id,omitempty"`
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label,omitempty"`
}

// GraphResponse is the body returned by the graph query endpoint.
type GraphResponse struct {
	Nodes   []GraphNode `json:"nodes"`
	Edges   []GraphEdge `json:"edges"`
	Article Payload     `json:"article,omitempty"`
}
