package explorer

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddNodeSkipsExisting(t *testing.T) {
	g := NewGraph()
	assert.True(t, g.AddNode(Node{ID: "article_1", Label: "first"}))
	assert.False(t, g.AddNode(Node{ID: "article_1", Label: "second"}))

	n, ok := g.Node("article_1")
	require.True(t, ok)
	assert.Equal(t, "first", n.Label)
}

func TestGraph_EdgeEndpointsMustExist(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "a"})

	err := g.AddEdge(Edge{ID: "e1", From: "a", To: "b"})
	assert.ErrorIs(t, err, ErrDanglingEdge)
	err = g.UpsertEdge(Edge{ID: "e1", From: "b", To: "a"})
	assert.ErrorIs(t, err, ErrDanglingEdge)

	g.AddNode(Node{ID: "b"})
	require.NoError(t, g.AddEdge(Edge{ID: "e1", From: "a", To: "b"}))
	assert.ErrorIs(t, g.AddEdge(Edge{ID: "e1", From: "b", To: "a"}), ErrDuplicateEdge)
}

func TestGraph_RemoveNodeCascades(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		g.AddNode(Node{ID: id})
	}
	require.NoError(t, g.AddEdge(Edge{ID: "ab", From: "a", To: "b"}))
	require.NoError(t, g.AddEdge(Edge{ID: "cb", From: "c", To: "b"}))
	require.NoError(t, g.AddEdge(Edge{ID: "ac", From: "a", To: "c"}))

	assert.True(t, g.RemoveNode("b"))
	assert.False(t, g.RemoveNode("b"))

	assert.False(t, g.HasEdge("ab"))
	assert.False(t, g.HasEdge("cb"))
	assert.True(t, g.HasEdge("ac"))
	nodes, edges := g.Len()
	assert.Equal(t, 2, nodes)
	assert.Equal(t, 1, edges)
}

func TestGraph_UpsertKeepsPosition(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	g.UpsertNode(Node{ID: "a", Label: "+3 more"})
	g.UpsertNode(Node{ID: "c"})

	var ids []string
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
	n, _ := g.Node("a")
	assert.Equal(t, "+3 more", n.Label)
}

func TestGraph_ConnectedEitherDirection(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "a"})
	g.AddNode(Node{ID: "b"})
	require.NoError(t, g.AddEdge(Edge{ID: "ab", From: "a", To: "b"}))
	assert.True(t, g.Connected("a", "b"))
	assert.True(t, g.Connected("b", "a"))
	assert.False(t, g.Connected("a", "a"))
}

func TestGraph_ReplaceReturnsRejected(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "old"})

	rejected := g.Replace(
		[]Node{{ID: "a"}, {ID: "b"}},
		[]Edge{{ID: "ab", From: "a", To: "b"}, {ID: "ax", From: "a", To: "x"}},
	)
	require.Len(t, rejected, 1)
	assert.Equal(t, "ax", rejected[0].ID)
	assert.False(t, g.HasNode("old"))
	assert.True(t, g.HasEdge("ab"))
}

func TestGraph_SetPayload(t *testing.T) {
	g := NewGraph()
	g.AddNode(Node{ID: "a"})
	require.NoError(t, g.SetPayload("a", "k", "v"))
	n, _ := g.Node("a")
	assert.Equal(t, "v", n.Payload["k"])
	assert.ErrorIs(t, g.SetPayload("missing", "k", "v"), ErrUnknownNode)

	require.NoError(t, g.SetPayload("a", "k2", "w"))
	assert.NotContains(t, n.Payload, "k2", "earlier payload maps are left as they were")
	n, _ = g.Node("a")
	assert.Equal(t, "v", n.Payload["k"])
	assert.Equal(t, "w", n.Payload["k2"])
}

// graphOp is one random mutation applied by the property test.
type graphOp struct {
	Kind int
	A, B int
}

func genGraphOps() gopter.Gen {
	op := gopter.CombineGens(gen.IntRange(0, 4), gen.IntRange(0, 7), gen.IntRange(0, 7)).
		Map(func(v []any) graphOp {
			return graphOp{Kind: v[0].(int), A: v[1].(int), B: v[2].(int)}
		})
	return gen.SliceOf(op)
}

func TestGraph_NoDanglingEdges(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("every edge endpoint is a node", prop.ForAll(
		func(ops []graphOp) bool {
			g := NewGraph()
			for i, op := range ops {
				a, b := fmt.Sprintf("n%d", op.A), fmt.Sprintf("n%d", op.B)
				switch op.Kind {
				case 0:
					g.AddNode(Node{ID: a})
				case 1:
					g.UpsertNode(Node{ID: a, Label: b})
				case 2:
					_ = g.AddEdge(Edge{ID: fmt.Sprintf("e%d", i), From: a, To: b})
				case 3:
					g.RemoveNode(a)
				case 4:
					_ = g.UpsertEdge(Edge{ID: fmt.Sprintf("e%d", op.B), From: a, To: b})
				}
			}
			for _, e := range g.Edges() {
				if !g.HasNode(e.From) || !g.HasNode(e.To) {
					return false
				}
			}
			nodes, edges := g.Len()
			return nodes == len(g.Nodes()) && edges == len(g.Edges())
		},
		genGraphOps(),
	))

	properties.TestingRun(t)
}
