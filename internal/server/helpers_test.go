package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"github.com/alfredjeanlab/litgraph/internal/catalog"
	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/alfredjeanlab/litgraph/internal/store"
)

// mockStore is an in-memory store.Store.
type mockStore struct {
	mu        sync.Mutex
	articles  map[int]*model.Article
	nextID    int
	upsertErr error
	listErr   error
}

var _ store.Store = (*mockStore)(nil)

func newMockStore(articles ...*model.Article) *mockStore {
	m := &mockStore{articles: make(map[int]*model.Article), nextID: 1}
	for _, a := range articles {
		cp := *a
		m.articles[a.ID] = &cp
		if a.ID >= m.nextID {
			m.nextID = a.ID + 1
		}
	}
	return m
}

func (m *mockStore) ListArticles(_ context.Context) ([]*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Article, 0, len(m.articles))
	for _, a := range m.articles {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockStore) GetArticle(_ context.Context, id int) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.articles[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (m *mockStore) GetArticleByPMCID(_ context.Context, pmcid string) (*model.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.Pmcid == pmcid {
			cp := *a
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStore) UpsertArticle(_ context.Context, a *model.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	if a.Pmcid != "" {
		for id, existing := range m.articles {
			if existing.Pmcid == a.Pmcid {
				a.ID = id
				cp := *a
				m.articles[id] = &cp
				return false, nil
			}
		}
	}
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.articles[a.ID] = &cp
	return true, nil
}

func (m *mockStore) DeleteArticle(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.articles[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.articles, id)
	return nil
}

func (m *mockStore) CountArticles(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.articles), nil
}

func (m *mockStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	return fn(m)
}

func (m *mockStore) Close() error { return nil }

// seedArticles is the catalogue most server tests start from.
func seedArticles() []*model.Article {
	return []*model.Article{
		{
			ID: 1, Title: "Bone Loss in Microgravity",
			Authors: []string{"Ann Lee", "Bo Chan"}, Keywords: []string{"Bone", "Spaceflight"},
			Publisher: []string{"NASA Ames"}, Pmcid: "PMC1",
			Abstract:        "Bones thin in orbit. Astronauts lose mass quickly. Exercise helps.",
			PublicationDate: "2019-03-01",
		},
		{
			ID: 2, Title: "Plant growth on the ISS",
			Authors: []string{"Ann Lee"}, Keywords: []string{"plants"},
			Publisher: []string{"Springer"}, Pmcid: "PMC2", Abstract: "Plants grow.",
			PublicationDate: "2021-07-15",
		},
		{ID: 3, Title: "Untagged note", Pmcid: "PMC3"},
	}
}

// newTestServer returns a server whose catalogue is loaded from a mock
// store holding seedArticles.
func newTestServer(t *testing.T) (*LitServer, *mockStore, http.Handler) {
	t.Helper()
	ms := newMockStore(seedArticles()...)
	srv := NewLitServer(ms, catalog.New(10), nil)
	if err := srv.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return srv, ms, srv.NewHTTPHandler("")
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected status %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func intPtr(v int) *int { return &v }

func doJSONWithAuth(t *testing.T, handler http.Handler, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}
