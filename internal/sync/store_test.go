package sync

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// memStore is a minimal in-memory store for sync tests.
type memStore struct {
	articles map[int]*model.Article
	listErr  error
}

func newMemStore(articles ...*model.Article) *memStore {
	m := &memStore{articles: make(map[int]*model.Article)}
	for _, a := range articles {
		m.articles[a.ID] = a
	}
	return m
}

func (m *memStore) ListArticles(context.Context) ([]*model.Article, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Article, 0, len(m.articles))
	for _, a := range m.articles {
		out = append(out, a)
	}
	// Reverse order so the export has to sort.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) GetArticle(_ context.Context, id int) (*model.Article, error) {
	a, ok := m.articles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return a, nil
}

func (m *memStore) GetArticleByPMCID(_ context.Context, pmcid string) (*model.Article, error) {
	for _, a := range m.articles {
		if a.Pmcid == pmcid {
			return a, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memStore) UpsertArticle(_ context.Context, a *model.Article) (bool, error) {
	_, exists := m.articles[a.ID]
	m.articles[a.ID] = a
	return !exists, nil
}

func (m *memStore) DeleteArticle(_ context.Context, id int) error {
	if _, ok := m.articles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.articles, id)
	return nil
}

func (m *memStore) CountArticles(context.Context) (int, error) {
	return len(m.articles), nil
}

func (m *memStore) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *memStore) Close() error { return nil }

var errBoom = errors.New("boom")
