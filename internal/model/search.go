package model

// Sort orders accepted by the search endpoints.
const (
	SortBest   = "best"
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Facet group names used by the advanced search filters.
const (
	FacetKeywords  = "Keywords"
	FacetAuthors   = "Authors"
	FacetYear      = "Publication Year"
	FacetPublisher = "Publisher"
)

// SearchRequest is a paged title search with optional facet filters.
type SearchRequest struct {
	Query   string              `json:"q,omitempty"`
	Page    int                 `json:"page,omitempty" validate:"gte=0"`
	Sort    string              `json:"sort,omitempty" validate:"omitempty,oneof=best newest oldest"`
	Filters map[string][]string `json:"filters,omitempty"`
}

// ArticlePage is one page of search results.
type ArticlePage struct {
	Articles []*Article `json:"articles"`
	Page     int        `json:"page"`
	Total    int        `json:"total"`
	PerPage  int        `json:"per_page"`
}

// Facets lists every distinct filter value in the catalogue.
type Facets struct {
	Keywords   []string `json:"keywords"`
	Authors    []string `json:"authors"`
	Years      []int    `json:"years"`
	Publishers []string `json:"publishers"`
}

// YearCount is one bar of the publications-per-year chart.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// CategoryCount is one keyword bucket.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// AuthorCount is one author bucket.
type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

// PublisherCount is one publisher bucket.
type PublisherCount struct {
	Publisher string `json:"publisher"`
	Count     int    `json:"count"`
}

// ChartArticle is the trimmed article record shipped with chart data.
type ChartArticle struct {
	ID              int      `json:"id"`
	Title           string   `json:"Title"`
	Authors         []string `json:"Authors"`
	Publisher       []string `json:"Publisher"`
	Pmcid           string   `json:"Pmcid"`
	PublicationDate string   `json:"PublicationDate"`
	Keywords        []string `json:"Keywords"`
	Image           string   `json:"Image"`
}

// Charts is the response of the chart data endpoint.
type Charts struct {
	Years      []YearCount      `json:"years"`
	Categories []CategoryCount  `json:"categories"`
	Authors    []AuthorCount    `json:"authors"`
	Publishers []PublisherCount `json:"publishers"`
	Articles   []ChartArticle   `json:"articles"`
}

// CatalogStats summarizes catalogue completeness.
type CatalogStats struct {
	TotalArticles      int `json:"total_articles"`
	AbstractCount      int `json:"abstract_count"`
	SectionsOnlyCount  int `json:"sections_only_count"`
	NoContentCount     int `json:"no_content_count"`
	SummarizableCount  int `json:"summarizable_count"`
	HighQualityCount   int `json:"high_quality_count"`
	MediumQualityCount int `json:"medium_quality_count"`
	LowQualityCount    int `json:"low_quality_count"`
}
