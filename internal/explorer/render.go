package explorer

import (
	"context"
	"maps"
	"net/url"
	"strings"
	"unicode"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

// Snapshot is the full graph state pushed to a Renderer. Revision grows with
// every push so a renderer can drop out-of-order snapshots.
type Snapshot struct {
	Revision uint64 `json:"revision"`
	Nodes    []Node `json:"nodes"`
	Edges    []Edge `json:"edges"`
	Focus    string `json:"focus,omitempty"`
}

// Renderer draws snapshots. The engine computes no layout; it hands the
// renderer a Layout once per root load.
type Renderer interface {
	Bind(r *Router, layout Layout)
	Render(s Snapshot)
	Fit(focus string)
}

// DetailView shows the metadata of the focused article.
type DetailView interface {
	Show(meta model.Payload)
	Hide()
}

// Level is the severity of a user notification.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notifier shows short, non-blocking messages to the user.
type Notifier interface {
	Notify(level Level, msg string)
}

// LinkOpener opens an external URL.
type LinkOpener interface {
	Open(url string) error
}

// Colors is the palette entry for one group.
type Colors struct {
	Background string `json:"background"`
	Border     string `json:"border"`
	Font       string `json:"font"`
}

// Physics configures the renderer's force simulation.
type Physics struct {
	StabilizationIterations int     `json:"stabilization_iterations"`
	GravitationalConstant   float64 `json:"gravitational_constant"`
	SpringLength            float64 `json:"spring_length"`
	Damping                 float64 `json:"damping"`
}

// EdgeLengths are preferred spring lengths per edge role.
type EdgeLengths struct {
	Default        int `json:"default"`
	KeywordArticle int `json:"keyword_article"`
	WrittenBy      int `json:"written_by"`
	MoreArticles   int `json:"more_articles"`
	MoreAuthors    int `json:"more_authors"`
}

// Layout is the rendering configuration. It is constant for a session.
type Layout struct {
	Physics    Physics            `json:"physics"`
	Palette    map[string]Colors  `json:"palette"`
	Mass       map[string]float64 `json:"mass"`
	EdgeColor  string             `json:"edge_color"`
	EdgeLength EdgeLengths        `json:"edge_length"`
}

// DefaultLayout returns the stock physics, palette and masses.
func DefaultLayout() Layout {
	return Layout{
		Physics: Physics{
			StabilizationIterations: 160,
			GravitationalConstant:   -2000,
			SpringLength:            600,
			Damping:                 0.12,
		},
		Palette: map[string]Colors{
			GroupKeyword: {Background: "#3b82f6", Border: "#1e40af", Font: "#ffffff"},
			GroupArticle: {Background: "#eaf4ff", Border: "#3b82f6", Font: "#ffffff"},
			GroupAuthor:  {Background: "#064e2b", Border: "#15803d", Font: "#ffffff"},
			GroupMore:    {Background: "#facc15", Border: "#ca8a04", Font: "#000000"},
		},
		Mass: map[string]float64{
			GroupArticle: 2.5,
			GroupKeyword: 3.0,
			GroupAuthor:  1.0,
			GroupMore:    1.0,
		},
		EdgeColor: "#8892a0",
		EdgeLength: EdgeLengths{
			Default:        100,
			KeywordArticle: 250,
			WrittenBy:      110,
			MoreArticles:   120,
			MoreAuthors:    100,
		},
	}
}

// ColorsFor returns the palette entry for a group, with a neutral fallback.
func (l Layout) ColorsFor(group string) Colors {
	if c, ok := l.Palette[group]; ok {
		return c
	}
	return Colors{Background: "#f3f4f6", Border: "#cccccc", Font: "#111111"}
}

// LengthFor returns the spring length for an edge between nodes of the
// given kinds.
func (l Layout) LengthFor(e Edge, from, to Kind) int {
	switch {
	case from == KindMoreRoot:
		return l.EdgeLength.MoreArticles
	case from == KindMoreArticle:
		return l.EdgeLength.MoreAuthors
	case e.Label == labelWrittenBy:
		return l.EdgeLength.WrittenBy
	case from == KindKeyword && to == KindArticle:
		return l.EdgeLength.KeywordArticle
	}
	return l.EdgeLength.Default
}

// LinkFor derives the external link of a node payload: the PMC article page
// when a PMCID is known, else the payload link. It returns "" when neither
// is present.
func LinkFor(p model.Payload) string {
	if pmc := p.String("Pmcid", "pmcid", "PMCID"); pmc != "" {
		return "https://pmc.ncbi.nlm.nih.gov/articles/" + pmc + "/"
	}
	return p.String("link", "Link")
}

// PubMedAuthor formats a full name the way PubMed author search expects:
// last name followed by initials.
func PubMedAuthor(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) <= 1 {
		return strings.Join(parts, "")
	}
	last := parts[len(parts)-1]
	var initials strings.Builder
	for _, p := range parts[:len(parts)-1] {
		initials.WriteRune(unicode.ToUpper([]rune(p)[0]))
	}
	return last + " " + initials.String()
}

// AuthorSearchLinks returns PubMed and Google Scholar search URLs for an
// author name.
func AuthorSearchLinks(name string) (pubmed, scholar string) {
	pubmed = "https://pubmed.ncbi.nlm.nih.gov/?term=" + url.QueryEscape(`"`+name+`"[Author]`)
	scholar = "https://scholar.google.com/scholar?hl=en&q=" + url.QueryEscape(`author:"`+name+`"`)
	return pubmed, scholar
}

// Router dispatches clicks on a rendered graph. A router is bound per root
// successful root load; once a newer one binds or the graph is cleared,
// its clicks are ignored.
type Router struct {
	engine *Engine
	gen    uint64
}

// Click handles a single click on a node.
func (r *Router) Click(ctx context.Context, nodeID string) (Outcome, error) {
	if !r.current() {
		return OutcomeIgnored, nil
	}
	return r.engine.Click(ctx, nodeID)
}

// DoubleClick opens the node's external link, if it has one.
func (r *Router) DoubleClick(nodeID string) error {
	if !r.current() {
		return nil
	}
	return r.engine.OpenLink(nodeID)
}

func (r *Router) current() bool {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	return r.gen == r.engine.bindGen
}

func (e *Engine) snapshotLocked() Snapshot {
	e.revision++
	nodes := e.graph.Nodes()
	for i := range nodes {
		if nodes[i].Payload != nil {
			nodes[i].Payload = maps.Clone(nodes[i].Payload)
		}
	}
	return Snapshot{
		Revision: e.revision,
		Nodes:    nodes,
		Edges:    e.graph.Edges(),
		Focus:    e.focus,
	}
}

// renderLocked queues a full snapshot push followed by a fit on focus.
func (e *Engine) renderLocked(fx *effects, focus string) {
	snap := e.snapshotLocked()
	fx.add(func() {
		e.renderer.Render(snap)
		e.renderer.Fit(focus)
	})
}

// bindLocked queues a fresh router and retires the previous one. A root load
// that fails or goes stale never reaches here, so the router of the graph
// on screen keeps working.
func (e *Engine) bindLocked(fx *effects) {
	e.bindGen++
	r := &Router{engine: e, gen: e.bindGen}
	layout := e.layout
	fx.add(func() { e.renderer.Bind(r, layout) })
}
