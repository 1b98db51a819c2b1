package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Article is a single catalogue entry. JSON keys follow the casing the web
// front end and the graph payloads have always used.
type Article struct {
	ID              int               `json:"id"`
	Title           string            `json:"Title" validate:"required,max=1000"`
	Authors         []string          `json:"Authors"`
	Keywords        []string          `json:"Keywords"`
	Publisher       []string          `json:"Publisher"`
	Pmcid           string            `json:"Pmcid" validate:"omitempty,startswith=PMC"`
	Link            string            `json:"Link,omitempty" validate:"omitempty,url"`
	Abstract        string            `json:"Abstract,omitempty"`
	Sections        map[string]string `json:"Sections,omitempty"`
	PublicationDate string            `json:"PublicationDate,omitempty"`
	Images          []string          `json:"Images,omitempty" validate:"omitempty,dive,url"`
	Image           string            `json:"Image,omitempty"`
	Pdf             string            `json:"Pdf,omitempty"`
	Restricted      bool              `json:"Restricted,omitempty"`
}

// Year returns the publication year, or 0 when the date does not start with
// four digits.
func (a *Article) Year() int {
	if len(a.PublicationDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(a.PublicationDate[:4])
	if err != nil {
		return 0
	}
	return y
}

// SummarySource returns the text a summary should be built from: the
// abstract, else the shortest non-empty section.
func (a *Article) SummarySource() string {
	if s := strings.TrimSpace(a.Abstract); s != "" {
		return s
	}
	var best string
	for _, text := range a.Sections {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if best == "" || len(text) < len(best) {
			best = text
		}
	}
	return best
}

// SplitList turns a comma or semicolon separated string into trimmed,
// non-empty parts.
func SplitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Normalize trims list entries and drops empty ones. A single entry holding a
// comma separated list is split.
func (a *Article) Normalize() {
	a.Title = strings.TrimSpace(a.Title)
	a.Authors = normalizeList(a.Authors)
	a.Keywords = normalizeList(a.Keywords)
	a.Publisher = normalizeList(a.Publisher)
}

func normalizeList(in []string) []string {
	var out []string
	for _, v := range in {
		out = append(out, SplitList(v)...)
	}
	return out
}

// Payload renders the article as the opaque metadata object carried in graph
// responses.
func (a *Article) Payload() Payload {
	return Payload{
		"id":        a.ID,
		"Title":     a.Title,
		"Authors":   a.Authors,
		"Keywords":  a.Keywords,
		"Pmcid":     a.Pmcid,
		"Link":      a.Link,
		"Publisher": a.Publisher,
		"Abstract":  a.Abstract,
		"Sections":  a.Sections,
		"Pdf":       a.Pdf,
		"Images":    a.Images,
		"Image":     a.Image,
		"PubDate":   a.PublicationDate,
	}
}

// DecodeArticles parses either one JSON article object or an array of them.
func DecodeArticles(data []byte) ([]*Article, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var articles []*Article
		if err := json.Unmarshal(data, &articles); err != nil {
			return nil, err
		}
		return articles, nil
	}
	var a Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, err
	}
	return []*Article{&a}, nil
}
