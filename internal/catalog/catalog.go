// Package catalog keeps the in-memory article index that search, charts,
// summaries and graph queries are answered from.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// DefaultPerPage is the search page size when none is configured.
const DefaultPerPage = 20

// Quality tiers.
const (
	TierHigh   = "high"
	TierMedium = "medium"
	TierLow    = "low"
)

// Catalog is a read-mostly article index ordered by completeness. Articles
// handed out by a Catalog are shared and must not be modified.
type Catalog struct {
	mu       sync.RWMutex
	articles []*model.Article
	byID     map[int]*model.Article
	perPage  int
}

// New returns an empty catalogue with the given search page size.
func New(perPage int) *Catalog {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Catalog{byID: make(map[int]*model.Article), perPage: perPage}
}

// PerPage returns the search page size.
func (c *Catalog) PerPage() int { return c.perPage }

// Load replaces the index with every article in s.
func (c *Catalog) Load(ctx context.Context, s store.Store) error {
	articles, err := s.ListArticles(ctx)
	if err != nil {
		return fmt.Errorf("list articles: %w", err)
	}
	c.Replace(articles)
	return nil
}

// Replace normalizes articles and swaps them in as the new index. The
// catalogue takes ownership of the articles.
func (c *Catalog) Replace(articles []*model.Article) {
	ordered := make([]*model.Article, 0, len(articles))
	byID := make(map[int]*model.Article, len(articles))
	for _, a := range articles {
		if a == nil {
			continue
		}
		a.Normalize()
		if a.Title == "" {
			a.Title = "Untitled"
		}
		ordered = append(ordered, a)
		byID[a.ID] = a
	}
	slices.SortStableFunc(ordered, func(x, y *model.Article) int {
		if d := Score(y) - Score(x); d != 0 {
			return d
		}
		return x.ID - y.ID
	})

	c.mu.Lock()
	c.articles = ordered
	c.byID = byID
	c.mu.Unlock()
}

// Len returns the number of indexed articles.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}

// All returns the articles in catalogue order.
func (c *Catalog) All() []*model.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.articles)
}

// Get returns the article with the given ID.
func (c *Catalog) Get(id int) (*model.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byID[id]
	return a, ok
}

// ByTitle returns the first article, in catalogue order, whose title equals
// title after trimming and case folding.
func (c *Catalog) ByTitle(title string) (*model.Article, bool) {
	want := normalize(title)
	if want == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.articles {
		if normalize(a.Title) == want {
			return a, true
		}
	}
	return nil, false
}

// Score is the weighted completeness of a: images 5, abstract 4, sections 3,
// pdf 2, and 1 each for title, pmcid, authors, keywords and date.
func Score(a *model.Article) int {
	score := 0
	if len(a.Images) > 0 {
		score += 5
	}
	if a.Abstract != "" {
		score += 4
	}
	if len(a.Sections) > 0 {
		score += 3
	}
	if a.Pdf != "" {
		score += 2
	}
	for _, present := range []bool{
		a.Title != "",
		a.Pmcid != "",
		len(a.Authors) > 0,
		len(a.Keywords) > 0,
		a.PublicationDate != "",
	} {
		if present {
			score++
		}
	}
	return score
}

// Tier buckets a completeness score.
func Tier(score int) string {
	switch {
	case score >= 10:
		return TierHigh
	case score >= 7:
		return TierMedium
	default:
		return TierLow
	}
}

// Stats counts content availability and quality tiers.
func (c *Catalog) Stats() model.CatalogStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := model.CatalogStats{TotalArticles: len(c.articles)}
	for _, a := range c.articles {
		switch {
		case a.Abstract != "":
			st.AbstractCount++
		case len(a.Sections) > 0:
			st.SectionsOnlyCount++
		default:
			st.NoContentCount++
		}
		if a.SummarySource() != "" {
			st.SummarizableCount++
		}
		switch Tier(Score(a)) {
		case TierHigh:
			st.HighQualityCount++
		case TierMedium:
			st.MediumQualityCount++
		default:
			st.LowQualityCount++
		}
	}
	return st
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
