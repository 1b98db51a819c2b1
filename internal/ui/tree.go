package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/alfredjeanlab/litgraph/internal/explorer"
)

// TreeRow is one line of a snapshot outline.
type TreeRow struct {
	Prefix string // indentation and connector
	Node   explorer.Node
}

// TreeRows lays a snapshot out as an outline. Each walk starts at the first
// unvisited node and follows edges in either direction, in edge order; every
// node appears once.
func TreeRows(snap explorer.Snapshot) []TreeRow {
	byID := make(map[string]explorer.Node, len(snap.Nodes))
	for _, n := range snap.Nodes {
		byID[n.ID] = n
	}
	adj := make(map[string][]string, len(snap.Nodes))
	for _, e := range snap.Edges {
		adj[e.From] = append(adj[e.From], e.To)
		adj[e.To] = append(adj[e.To], e.From)
	}

	rows := make([]TreeRow, 0, len(snap.Nodes))
	seen := make(map[string]bool, len(snap.Nodes))
	var walk func(id, prefix string, root, last bool)
	walk = func(id, prefix string, root, last bool) {
		seen[id] = true
		connector, childPrefix := "", ""
		if !root {
			connector, childPrefix = "├─ ", "│  "
			if last {
				connector, childPrefix = "└─ ", "   "
			}
		}
		rows = append(rows, TreeRow{Prefix: prefix + connector, Node: byID[id]})

		var children []string
		for _, next := range adj[id] {
			if _, ok := byID[next]; ok && !seen[next] && !contains(children, next) {
				children = append(children, next)
			}
		}
		for i, c := range children {
			if seen[c] {
				continue
			}
			walk(c, prefix+childPrefix, false, !anyUnseen(children[i+1:], seen))
		}
	}

	for _, n := range snap.Nodes {
		if !seen[n.ID] {
			walk(n.ID, "", true, true)
		}
	}
	return rows
}

// WriteTree prints a snapshot as an indented outline. The focused article
// is marked with *.
func WriteTree(w io.Writer, snap explorer.Snapshot, layout explorer.Layout) error {
	var b strings.Builder
	for _, row := range TreeRows(snap) {
		b.WriteString(row.Prefix + NodeLine(row.Node, layout, snap.Focus) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// NodeLine renders a node as "label [group]", starred when focused.
func NodeLine(n explorer.Node, layout explorer.Layout, focus string) string {
	line := RenderGroup(layout, n.Group(), n.Label) + " " + RenderMuted(fmt.Sprintf("[%s]", n.Group()))
	if n.ID == focus {
		line += " " + RenderAccent("*")
	}
	return line
}

func anyUnseen(ids []string, seen map[string]bool) bool {
	for _, id := range ids {
		if !seen[id] {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
