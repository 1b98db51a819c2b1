package catalog

import (
	"slices"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Chart bucket limits.
const (
	TopKeywords   = 20
	TopAuthors    = 15
	TopPublishers = 15
)

// counter tallies values, remembering first-seen order for stable ties.
type counter struct {
	order []string
	n     map[string]int
}

func newCounter() *counter { return &counter{n: make(map[string]int)} }

func (c *counter) add(v string) {
	if _, ok := c.n[v]; !ok {
		c.order = append(c.order, v)
	}
	c.n[v]++
}

// top returns up to k values by descending count.
func (c *counter) top(k int) []string {
	out := slices.Clone(c.order)
	slices.SortStableFunc(out, func(a, b string) int { return c.n[b] - c.n[a] })
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Charts aggregates the catalogue for the charts page.
func (c *Catalog) Charts() model.Charts {
	c.mu.RLock()
	defer c.mu.RUnlock()

	yearCounts := make(map[int]int)
	keywords, authors, publishers := newCounter(), newCounter(), newCounter()
	articles := make([]model.ChartArticle, 0, len(c.articles))

	for _, a := range c.articles {
		if y := a.Year(); y != 0 {
			yearCounts[y]++
		}
		for _, k := range a.Keywords {
			keywords.add(strings.ToLower(k))
		}
		for _, au := range a.Authors {
			authors.add(au)
		}
		for _, p := range a.Publisher {
			publishers.add(p)
		}
		articles = append(articles, model.ChartArticle{
			ID:              a.ID,
			Title:           a.Title,
			Authors:         orEmpty(a.Authors),
			Publisher:       orEmpty(a.Publisher),
			Pmcid:           a.Pmcid,
			PublicationDate: a.PublicationDate,
			Keywords:        orEmpty(a.Keywords),
			Image:           a.Image,
		})
	}

	ch := model.Charts{
		Years:      make([]model.YearCount, 0, len(yearCounts)),
		Categories: []model.CategoryCount{},
		Authors:    []model.AuthorCount{},
		Publishers: []model.PublisherCount{},
		Articles:   articles,
	}
	for _, y := range sortedYears(yearCounts) {
		ch.Years = append(ch.Years, model.YearCount{Year: y, Count: yearCounts[y]})
	}
	for _, k := range keywords.top(TopKeywords) {
		ch.Categories = append(ch.Categories, model.CategoryCount{Category: k, Count: keywords.n[k]})
	}
	for _, au := range authors.top(TopAuthors) {
		ch.Authors = append(ch.Authors, model.AuthorCount{Author: au, Count: authors.n[au]})
	}
	for _, p := range publishers.top(TopPublishers) {
		ch.Publishers = append(ch.Publishers, model.PublisherCount{Publisher: p, Count: publishers.n[p]})
	}
	return ch
}

func sortedYears(m map[int]int) []int {
	out := make([]int, 0, len(m))
	for y := range m {
		out = append(out, y)
	}
	slices.Sort(out)
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
