package catalog

import (
	"slices"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Special facet values selecting articles that lack the field.
const (
	NoKeyword   = "no keyword"
	NoAuthor    = "no author"
	NoYear      = "no year"
	NoPublisher = "no publisher"
)

// Search runs a case-insensitive title substring search. Filters are ignored.
func (c *Catalog) Search(req model.SearchRequest) model.ArticlePage {
	return c.page(c.match(req.Query, nil), req)
}

// Advanced runs a title search narrowed by facet filters. Within a facet any
// selected value matches; facets are combined with AND.
func (c *Catalog) Advanced(req model.SearchRequest) model.ArticlePage {
	return c.page(c.match(req.Query, req.Filters), req)
}

func (c *Catalog) match(q string, filters map[string][]string) []*model.Article {
	q = normalize(q)
	preds := make([]func(*model.Article) bool, 0, len(filters))
	for facet, selected := range filters {
		if p := facetPredicate(facet, selected); p != nil {
			preds = append(preds, p)
		}
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*model.Article
next:
	for _, a := range c.articles {
		if q != "" && !strings.Contains(strings.ToLower(a.Title), q) {
			continue
		}
		for _, p := range preds {
			if !p(a) {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

func facetPredicate(facet string, selected []string) func(*model.Article) bool {
	if len(selected) == 0 {
		return nil
	}
	want := make(map[string]bool, len(selected))
	for _, s := range selected {
		want[normalize(s)] = true
	}

	switch facet {
	case model.FacetKeywords:
		return listPredicate(want, NoKeyword, func(a *model.Article) []string { return a.Keywords })
	case model.FacetAuthors:
		return listPredicate(want, NoAuthor, func(a *model.Article) []string { return a.Authors })
	case model.FacetYear:
		years := make(map[int]bool)
		for _, s := range selected {
			if y, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
				years[y] = true
			}
		}
		return func(a *model.Article) bool {
			if a.PublicationDate == "" {
				return want[NoYear]
			}
			y := a.Year()
			return y != 0 && years[y]
		}
	case model.FacetPublisher:
		return func(a *model.Article) bool {
			if len(a.Publisher) == 0 {
				return want[NoPublisher]
			}
			for _, p := range a.Publisher {
				p = normalize(p)
				for s := range want {
					if s != NoPublisher && strings.Contains(p, s) {
						return true
					}
				}
			}
			return false
		}
	}
	return nil
}

func listPredicate(want map[string]bool, none string, field func(*model.Article) []string) func(*model.Article) bool {
	return func(a *model.Article) bool {
		values := field(a)
		if len(values) == 0 {
			return want[none]
		}
		for _, v := range values {
			if want[normalize(v)] {
				return true
			}
		}
		return false
	}
}

func (c *Catalog) page(results []*model.Article, req model.SearchRequest) model.ArticlePage {
	switch req.Sort {
	case model.SortNewest:
		slices.SortStableFunc(results, func(x, y *model.Article) int {
			return strings.Compare(sortDate(y), sortDate(x))
		})
	case model.SortOldest:
		slices.SortStableFunc(results, func(x, y *model.Article) int {
			return strings.Compare(sortDate(x), sortDate(y))
		})
	}

	page := max(req.Page, 1)
	start := min((page-1)*c.perPage, len(results))
	end := min(start+c.perPage, len(results))
	items := results[start:end]
	if items == nil {
		items = []*model.Article{}
	}
	return model.ArticlePage{
		Articles: items,
		Page:     page,
		Total:    len(results),
		PerPage:  c.perPage,
	}
}

func sortDate(a *model.Article) string {
	if a.PublicationDate == "" {
		return "0000-00-00"
	}
	return a.PublicationDate
}

// Facets lists every distinct keyword, author, year and publisher, sorted.
func (c *Catalog) Facets() model.Facets {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keywords := make(map[string]bool)
	authors := make(map[string]bool)
	publishers := make(map[string]bool)
	years := make(map[int]bool)
	for _, a := range c.articles {
		for _, k := range a.Keywords {
			keywords[k] = true
		}
		for _, au := range a.Authors {
			authors[au] = true
		}
		for _, p := range a.Publisher {
			publishers[p] = true
		}
		if y := a.Year(); y != 0 {
			years[y] = true
		}
	}
	return model.Facets{
		Keywords:   sortedKeys(keywords),
		Authors:    sortedKeys(authors),
		Years:      sortedKeys(years),
		Publishers: sortedKeys(publishers),
	}
}

func sortedKeys[K int | string](m map[K]bool) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
