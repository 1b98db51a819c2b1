package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// fixture returns a small catalogue:
//
//	1: complete, 2019, two authors
//	2: abstract only, 2021
//	3: bare title, no date
//	4: sections only, 2021, comma-joined authors
func fixture() []*model.Article {
	return []*model.Article{
		{
			ID: 1, Title: "Bone Loss in Microgravity",
			Authors: []string{"Ann Lee", "Bo Chan"}, Keywords: []string{"Bone", "Spaceflight"},
			Publisher: []string{"NASA Ames"}, Pmcid: "PMC1", Abstract: "Bones thin in orbit.",
			Sections: map[string]string{"Intro": "Intro text."}, PublicationDate: "2019-03-01",
			Images: []string{"https://example.org/1.png"}, Pdf: "1.pdf",
		},
		{
			ID: 2, Title: "Plant growth on the ISS",
			Authors: []string{"Ann Lee"}, Keywords: []string{"plants"},
			Publisher: []string{"Springer"}, Pmcid: "PMC2", Abstract: "Plants grow.",
			PublicationDate: "2021-07-15",
		},
		{ID: 3, Title: "Untagged note"},
		{
			ID: 4, Title: "Radiation and mice",
			Authors: []string{"Cy Diaz, Ann Lee"}, Keywords: []string{"spaceflight"},
			Sections: map[string]string{"Results": "Mice were fine."}, PublicationDate: "2021-01-02",
		},
	}
}

func newFixture(t *testing.T) *Catalog {
	t.Helper()
	c := New(2)
	c.Replace(fixture())
	return c
}

func ids(articles []*model.Article) []int {
	out := make([]int, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestScoreAndTier(t *testing.T) {
	arts := fixture()
	assert.Equal(t, 19, Score(arts[0]))
	assert.Equal(t, TierHigh, Tier(Score(arts[0])))
	assert.Equal(t, 9, Score(arts[1]))
	assert.Equal(t, TierMedium, Tier(Score(arts[1])))
	assert.Equal(t, 1, Score(arts[2]))
	assert.Equal(t, TierLow, Tier(Score(arts[2])))
	assert.Equal(t, TierMedium, Tier(7))
	assert.Equal(t, TierHigh, Tier(10))
}

func TestReplaceOrdersByCompleteness(t *testing.T) {
	c := newFixture(t)
	assert.Equal(t, []int{1, 2, 4, 3}, ids(c.All()))
	assert.Equal(t, 4, c.Len())

	a, ok := c.Get(4)
	require.True(t, ok)
	assert.Equal(t, []string{"Cy Diaz", "Ann Lee"}, a.Authors, "comma-joined authors are split")

	_, ok = c.Get(99)
	assert.False(t, ok)
}

func TestReplaceDefaultsTitle(t *testing.T) {
	c := New(0)
	c.Replace([]*model.Article{{ID: 1, Title: "  "}, nil})
	a, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Untitled", a.Title)
	assert.Equal(t, DefaultPerPage, c.PerPage())
}

func TestByTitle(t *testing.T) {
	c := newFixture(t)
	a, ok := c.ByTitle("  bone loss in MICROGRAVITY ")
	require.True(t, ok)
	assert.Equal(t, 1, a.ID)

	_, ok = c.ByTitle("bone loss")
	assert.False(t, ok, "title lookup is exact, not substring")
	_, ok = c.ByTitle("")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	st := newFixture(t).Stats()
	assert.Equal(t, model.CatalogStats{
		TotalArticles:      4,
		AbstractCount:      2,
		SectionsOnlyCount:  1,
		NoContentCount:     1,
		SummarizableCount:  3,
		HighQualityCount:   1,
		MediumQualityCount: 2,
		LowQualityCount:    1,
	}, st)
}

type listStore struct {
	store.Store
	articles []*model.Article
	err      error
}

func (s listStore) ListArticles(context.Context) ([]*model.Article, error) {
	return s.articles, s.err
}

func TestLoad(t *testing.T) {
	c := New(10)
	require.NoError(t, c.Load(context.Background(), listStore{articles: fixture()}))
	assert.Equal(t, 4, c.Len())

	err := c.Load(context.Background(), listStore{err: errors.New("db down")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list articles")
	assert.Equal(t, 4, c.Len(), "failed load keeps the old index")
}
