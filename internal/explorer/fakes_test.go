package explorer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/litgraph/internal/model"
	"github.com/stretchr/testify/require"
)

// queryKey identifies a graph query in the fake fetcher.
func queryKey(q model.GraphQuery) string {
	return q.Mode() + ":" + describeQuery(q)
}

// fakeFetcher answers graph queries from canned responses. A query with a
// gate blocks until the gate is closed; every call is announced on calls.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]*model.GraphResponse
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     chan string
	count     map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]*model.GraphResponse),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		calls:     make(chan string, 64),
		count:     make(map[string]int),
	}
}

func (f *fakeFetcher) set(q model.GraphQuery, resp *model.GraphResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[queryKey(q)] = resp
}

func (f *fakeFetcher) fail(q model.GraphQuery, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[queryKey(q)] = err
}

// gate makes q block until the returned function is called.
func (f *fakeFetcher) gate(q model.GraphQuery) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[queryKey(q)] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (f *fakeFetcher) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count[key]
}

func (f *fakeFetcher) Graph(ctx context.Context, q model.GraphQuery) (*model.GraphResponse, error) {
	key := queryKey(q)
	f.mu.Lock()
	f.count[key]++
	gate := f.gates[key]
	resp, err := f.responses[key], f.errs[key]
	f.mu.Unlock()

	select {
	case f.calls <- key:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return &model.GraphResponse{}, nil
	}
	return resp, nil
}

// recorder collects everything the engine pushes to its collaborators.
type recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	fits      []string
	binds     []*Router
	shown     []model.Payload
	hides     int
	notes     []string
	opened    []string
	inspected []string
	log       []string
}

func (r *recorder) Bind(router *Router, _ Layout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.binds = append(r.binds, router)
	r.log = append(r.log, "bind")
}

func (r *recorder) Render(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
	r.log = append(r.log, "render")
}

func (r *recorder) Fit(focus string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits = append(r.fits, focus)
}

func (r *recorder) Show(meta model.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, meta)
	r.log = append(r.log, "show")
}

func (r *recorder) Hide() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hides++
	r.log = append(r.log, "hide")
}

func (r *recorder) Notify(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, level.String()+": "+msg)
}

func (r *recorder) Open(url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opened = append(r.opened, url)
	return nil
}

func (r *recorder) lastSnapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return Snapshot{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *recorder) allSnapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snapshots...)
}

func (r *recorder) notifications() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.notes...)
}

func newTestEngine(t *testing.T, f *fakeFetcher, opts ...func(*Options)) (*Engine, *recorder) {
	t.Helper()
	rec := &recorder{}
	o := Options{
		Fetcher:  f,
		Renderer: rec,
		Detail:   rec,
		Notifier: rec,
		Links:    rec,
		Inspect: func(n Node) {
			rec.mu.Lock()
			defer rec.mu.Unlock()
			rec.inspected = append(rec.inspected, n.ID)
		},
	}
	for _, fn := range opts {
		fn(&o)
	}
	e, err := New(o)
	require.NoError(t, err)
	return e, rec
}

// awaitCall waits until the fetcher has received the query with key.
func awaitCall(t *testing.T, f *fakeFetcher, key string) {
	t.Helper()
	for {
		select {
		case got := <-f.calls:
			if got == key {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("fetch %s never issued", key)
		}
	}
}

func slug(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

// authorGraph is the response for an author with n articles, one WROTE edge
// per article.
func authorGraph(name string, n int) *model.GraphResponse {
	authorID := "author_" + slug(name)
	resp := &model.GraphResponse{
		Nodes: []model.GraphNode{{ID: authorID, Label: name, Group: "author"}},
	}
	for i := 1; i <= n; i++ {
		id := ArticleID(i)
		resp.Nodes = append(resp.Nodes, model.GraphNode{
			ID:      id,
			Label:   fmt.Sprintf("Article %d", i),
			Group:   "article",
			Payload: model.Payload{"pmcid": fmt.Sprintf("PMC%d", 1000+i)},
		})
		resp.Edges = append(resp.Edges, model.GraphEdge{From: authorID, To: id, Label: "WROTE"})
	}
	return resp
}

// keywordGraph is the response for one keyword matching n articles.
func keywordGraph(keyword string, n int) *model.GraphResponse {
	kwID := "keyword_" + keyword
	resp := &model.GraphResponse{
		Nodes: []model.GraphNode{{ID: kwID, Label: keyword, Group: "keyword"}},
	}
	for i := 1; i <= n; i++ {
		id := ArticleID(i)
		resp.Nodes = append(resp.Nodes, model.GraphNode{ID: id, Label: fmt.Sprintf("Article %d", i), Group: "article"})
		resp.Edges = append(resp.Edges, model.GraphEdge{From: kwID, To: id, Label: "HAS"})
	}
	return resp
}

// articleGraph is the response for one article with the given author names.
func articleGraph(id int, authors ...string) *model.GraphResponse {
	aid := ArticleID(id)
	resp := &model.GraphResponse{
		Nodes: []model.GraphNode{{ID: aid, Label: fmt.Sprintf("Article %d", id), Group: "article"}},
		Article: model.Payload{
			"id":       id,
			"Title":    fmt.Sprintf("Article %d", id),
			"Abstract": "Mice lost bone in orbit. Rats did too. Nobody else was tested. This is filler.",
		},
	}
	for _, name := range authors {
		resp.Nodes = append(resp.Nodes, model.GraphNode{ID: "author_" + slug(name), Label: name, Group: "author"})
		resp.Edges = append(resp.Edges, model.GraphEdge{From: "author_" + slug(name), To: aid, Label: "WRITTEN_BY"})
	}
	return resp
}

func names(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}

// countKinds tallies a snapshot's nodes by kind.
func countKinds(s Snapshot) map[Kind]int {
	out := make(map[Kind]int)
	for _, n := range s.Nodes {
		out[n.Kind]++
	}
	return out
}

func nodeIDs(s Snapshot) map[string]bool {
	out := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		out[n.ID] = true
	}
	return out
}

func findNode(s Snapshot, id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}
