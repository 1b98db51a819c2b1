package explorer

import (
	"errors"
	"fmt"
	"maps"
	"sort"

	"github.com/alfredjeanlab/litgraph/internal/model"
)

var (
	// ErrDanglingEdge is returned when an edge references a node that is not
	// in the graph.
	ErrDanglingEdge = errors.New("edge endpoint not in graph")
	// ErrDuplicateEdge is returned by AddEdge when the edge ID is taken.
	ErrDuplicateEdge = errors.New("edge already exists")
	// ErrUnknownNode is returned for operations on a node ID the graph does
	// not hold.
	ErrUnknownNode = errors.New("unknown node")
)

// Node is a rendered graph vertex.
type Node struct {
	ID        string        `json:"id"`
	Label     string        `json:"label"`
	Kind      Kind          `json:"-"`
	Payload   model.Payload `json:"payload,omitempty"`
	Remaining int           `json:"remaining,omitempty"` // sentinels only
	Primary   bool          `json:"primary,omitempty"`   // author of the current root query
}

// Group returns the renderer group of the node.
func (n Node) Group() string { return n.Kind.Group() }

// Edge is a directed relation between two nodes in the graph.
type Edge struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label,omitempty"`
	Dashed bool   `json:"dashed,omitempty"`
}

type nodeEntry struct {
	node Node
	seq  uint64
}

type edgeEntry struct {
	edge Edge
	seq  uint64
}

// Graph is the store of rendered nodes and edges, keyed by ID. Listings come
// back in insertion order; an upsert keeps the original position.
//
// Graph is not safe for concurrent use. The Engine guards it.
type Graph struct {
	nodes map[string]*nodeEntry
	edges map[string]*edgeEntry
	seq   uint64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*nodeEntry),
		edges: make(map[string]*edgeEntry),
	}
}

func (g *Graph) next() uint64 {
	g.seq++
	return g.seq
}

// AddNode inserts n unless a node with the same ID exists. It reports
// whether the node was added.
func (g *Graph) AddNode(n Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = &nodeEntry{node: n, seq: g.next()}
	return true
}

// UpsertNode inserts n or replaces the node with the same ID in place.
func (g *Graph) UpsertNode(n Node) {
	if e, ok := g.nodes[n.ID]; ok {
		e.node = n
		return
	}
	g.nodes[n.ID] = &nodeEntry{node: n, seq: g.next()}
}

// RemoveNode deletes the node and every edge touching it. It reports whether
// the node existed.
func (g *Graph) RemoveNode(id string) bool {
	if _, ok := g.nodes[id]; !ok {
		return false
	}
	for eid, e := range g.edges {
		if e.edge.From == id || e.edge.To == id {
			delete(g.edges, eid)
		}
	}
	delete(g.nodes, id)
	return true
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	e, ok := g.nodes[id]
	if !ok {
		return Node{}, false
	}
	return e.node, true
}

// HasNode reports whether a node with the given ID exists.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// SetPayload stores value under key in the node's payload. The payload map
// is replaced, never written in place, so maps handed out earlier stay
// unchanged.
func (g *Graph) SetPayload(id, key string, value any) error {
	e, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("set payload on %s: %w", id, ErrUnknownNode)
	}
	p := make(model.Payload, len(e.node.Payload)+1)
	maps.Copy(p, e.node.Payload)
	p[key] = value
	e.node.Payload = p
	return nil
}

// AddEdge inserts e. Both endpoints must already be in the graph.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.edges[e.ID]; ok {
		return fmt.Errorf("add edge %s: %w", e.ID, ErrDuplicateEdge)
	}
	if err := g.checkEndpoints(e); err != nil {
		return err
	}
	g.edges[e.ID] = &edgeEntry{edge: e, seq: g.next()}
	return nil
}

// UpsertEdge inserts e or replaces the edge with the same ID in place.
func (g *Graph) UpsertEdge(e Edge) error {
	if err := g.checkEndpoints(e); err != nil {
		return err
	}
	if cur, ok := g.edges[e.ID]; ok {
		cur.edge = e
		return nil
	}
	g.edges[e.ID] = &edgeEntry{edge: e, seq: g.next()}
	return nil
}

func (g *Graph) checkEndpoints(e Edge) error {
	if !g.HasNode(e.From) {
		return fmt.Errorf("edge %s from %s: %w", e.ID, e.From, ErrDanglingEdge)
	}
	if !g.HasNode(e.To) {
		return fmt.Errorf("edge %s to %s: %w", e.ID, e.To, ErrDanglingEdge)
	}
	return nil
}

// RemoveEdge deletes the edge. It reports whether the edge existed.
func (g *Graph) RemoveEdge(id string) bool {
	if _, ok := g.edges[id]; !ok {
		return false
	}
	delete(g.edges, id)
	return true
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, bool) {
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, false
	}
	return e.edge, true
}

// HasEdge reports whether an edge with the given ID exists.
func (g *Graph) HasEdge(id string) bool {
	_, ok := g.edges[id]
	return ok
}

// Connected reports whether any edge joins a and b, in either direction.
func (g *Graph) Connected(a, b string) bool {
	for _, e := range g.edges {
		if (e.edge.From == a && e.edge.To == b) || (e.edge.From == b && e.edge.To == a) {
			return true
		}
	}
	return false
}

// Replace swaps the whole graph for the given nodes and edges. Edges whose
// endpoints are missing are returned rather than added.
func (g *Graph) Replace(nodes []Node, edges []Edge) (rejected []Edge) {
	g.Clear()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			rejected = append(rejected, e)
		}
	}
	return rejected
}

// Clear removes every node and edge.
func (g *Graph) Clear() {
	g.nodes = make(map[string]*nodeEntry)
	g.edges = make(map[string]*edgeEntry)
}

// Len returns the number of nodes and edges.
func (g *Graph) Len() (nodes, edges int) {
	return len(g.nodes), len(g.edges)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	entries := make([]*nodeEntry, 0, len(g.nodes))
	for _, e := range g.nodes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Node, len(entries))
	for i, e := range entries {
		out[i] = e.node
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	entries := make([]*edgeEntry, 0, len(g.edges))
	for _, e := range g.edges {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	out := make([]Edge, len(entries))
	for i, e := range entries {
		out[i] = e.edge
	}
	return out
}
