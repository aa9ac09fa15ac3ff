// Package taxonomy holds the category hierarchy used to score predictions.
//
// A Tree is built once (usually from a persisted artifact) and never mutated
// afterwards, so a single instance can be shared by concurrent evaluations.
package taxonomy

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// Node is a category in the hierarchy
type Node struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Edge links a parent category to one of its children
type Edge struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// Ancestor is a node on the path from a category to the root
type Ancestor struct {
	Node
	Distance int `json:"distance" yaml:"distance"` // Hops from the queried category (0 = itself)
}

// Tree is an immutable rooted hierarchy with parent -> child edges
type Tree struct {
	g     *simple.DirectedGraph
	ids   map[string]int64
	names map[int64]string
	root  Node

	// ancestors holds the reverse-reachability table, keyed by node ID
	ancestors map[int64][]Ancestor
}

// NewTree builds and validates a tree from parent/child edges.
// Node IDs are assigned in name order.
func NewTree(edges []Edge) (*Tree, error) {
	if len(edges) == 0 {
		return nil, configErr("no edges")
	}

	seen := make(map[string]bool)
	for _, e := range edges {
		if e.Parent == "" || e.Child == "" {
			return nil, configErr("edge with empty category name")
		}
		if e.Parent == e.Child {
			return nil, configErr("self loop", e.Parent)
		}
		seen[e.Parent] = true
		seen[e.Child] = true
	}

	sorted := make([]string, 0, len(seen))
	for name := range seen {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(sorted))
	names := make(map[int64]string, len(sorted))
	for i, name := range sorted {
		id := int64(i)
		ids[name] = id
		names[id] = name
		g.AddNode(simple.Node(id))
	}

	for _, e := range edges {
		from, to := ids[e.Parent], ids[e.Child]
		if g.HasEdgeFromTo(from, to) {
			continue
		}
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	return build(g, ids, names)
}

// build validates the graph and precomputes the ancestor table
func build(g *simple.DirectedGraph, ids map[string]int64, names map[int64]string) (*Tree, error) {
	t := &Tree{g: g, ids: ids, names: names}

	var roots []string
	nodes := graph.NodesOf(g.Nodes())
	for _, n := range nodes {
		if len(graph.NodesOf(g.To(n.ID()))) == 0 {
			roots = append(roots, names[n.ID()])
		}
	}
	sort.Strings(roots)

	switch {
	case len(roots) == 0:
		return nil, configErr("no root (every node has a parent)")
	case len(roots) > 1:
		return nil, configErr("multiple roots", roots...)
	}
	t.root = Node{ID: ids[roots[0]], Name: roots[0]}

	if len(nodes) < 2 {
		return nil, configErr("no categories below the root")
	}

	if _, err := topo.Sort(g); err != nil {
		return nil, configErr(fmt.Sprintf("cycle detected: %v", err))
	}

	reached := make(map[int64]bool, len(nodes))
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { reached[n.ID()] = true },
	}
	bf.Walk(g, g.Node(t.root.ID), nil)
	if len(reached) != len(nodes) {
		var orphans []string
		for _, n := range nodes {
			if !reached[n.ID()] {
				orphans = append(orphans, names[n.ID()])
			}
		}
		sort.Strings(orphans)
		return nil, configErr("nodes unreachable from root", orphans...)
	}

	t.ancestors = t.ancestorTable()
	return t, nil
}

// ancestorTable walks the reversed graph breadth-first from every node,
// recording each reachable node with its distance.
func (t *Tree) ancestorTable() map[int64][]Ancestor {
	rev := t.Reverse()
	table := make(map[int64][]Ancestor, len(t.names))

	for id := range t.names {
		var found []Ancestor
		var bf traverse.BreadthFirst
		bf.Walk(rev, rev.Node(id), func(n graph.Node, depth int) bool {
			found = append(found, Ancestor{
				Node:     Node{ID: n.ID(), Name: t.names[n.ID()]},
				Distance: depth,
			})
			return false
		})
		sort.SliceStable(found, func(i, j int) bool {
			if found[i].Distance != found[j].Distance {
				return found[i].Distance < found[j].Distance
			}
			return found[i].Name < found[j].Name
		})
		table[id] = found
	}

	return table
}

// Reverse returns a new graph with every edge flipped (child -> parent).
// The tree itself is left untouched.
func (t *Tree) Reverse() *simple.DirectedGraph {
	rev := simple.NewDirectedGraph()

	nodes := t.g.Nodes()
	for nodes.Next() {
		rev.AddNode(simple.Node(nodes.Node().ID()))
	}

	edges := t.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		rev.SetEdge(rev.NewEdge(simple.Node(e.To().ID()), simple.Node(e.From().ID())))
	}

	return rev
}

// Relabel returns an isomorphic tree whose node IDs are taken from mapping.
// Every node must be mapped and IDs must be unique.
func (t *Tree) Relabel(mapping map[string]int64) (*Tree, error) {
	used := make(map[int64]string, len(mapping))
	var missing []string

	for name := range t.ids {
		id, ok := mapping[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if other, dup := used[id]; dup {
			a, b := other, name
			if b < a {
				a, b = b, a
			}
			return nil, configErr(fmt.Sprintf("relabel maps two nodes to id %d", id), a, b)
		}
		used[id] = name
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, configErr("relabel mapping misses nodes", missing...)
	}

	g := simple.NewDirectedGraph()
	ids := make(map[string]int64, len(t.ids))
	names := make(map[int64]string, len(t.ids))
	for name := range t.ids {
		id := mapping[name]
		ids[name] = id
		names[id] = name
		g.AddNode(simple.Node(id))
	}

	edges := t.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		from := mapping[t.names[e.From().ID()]]
		to := mapping[t.names[e.To().ID()]]
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	return build(g, ids, names)
}

// Root returns the unique node without a parent
func (t *Tree) Root() Node {
	return t.root
}

// Len returns the number of nodes including the root
func (t *Tree) Len() int {
	return len(t.names)
}

// Has reports whether name is a node of the tree
func (t *Tree) Has(name string) bool {
	_, ok := t.ids[name]
	return ok
}

// ID returns the node ID for a category name
func (t *Tree) ID(name string) (int64, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Name returns the category name for a node ID
func (t *Tree) Name(id int64) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Nodes returns every node sorted by name
func (t *Tree) Nodes() []Node {
	nodes := make([]Node, 0, len(t.ids))
	for name, id := range t.ids {
		nodes = append(nodes, Node{ID: id, Name: name})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Categories returns every node name except the root, sorted.
// These are the label-space columns.
func (t *Tree) Categories() []string {
	cats := make([]string, 0, len(t.ids)-1)
	for name, id := range t.ids {
		if id == t.root.ID {
			continue
		}
		cats = append(cats, name)
	}
	sort.Strings(cats)
	return cats
}

// Edges returns all parent/child pairs sorted by parent, then child
func (t *Tree) Edges() []Edge {
	var out []Edge
	edges := t.g.Edges()
	for edges.Next() {
		e := edges.Edge()
		out = append(out, Edge{Parent: t.names[e.From().ID()], Child: t.names[e.To().ID()]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Parent != out[j].Parent {
			return out[i].Parent < out[j].Parent
		}
		return out[i].Child < out[j].Child
	})
	return out
}

// Parents returns the direct parents of a category
func (t *Tree) Parents(name string) ([]string, error) {
	id, ok := t.ids[name]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return t.sortedNames(t.g.To(id)), nil
}

// Children returns the direct children of a category
func (t *Tree) Children(name string) ([]string, error) {
	id, ok := t.ids[name]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return t.sortedNames(t.g.From(id)), nil
}

func (t *Tree) sortedNames(it graph.Nodes) []string {
	var out []string
	for it.Next() {
		out = append(out, t.names[it.Node().ID()])
	}
	sort.Strings(out)
	return out
}

// Ancestors returns every node on a path from name to the root, ordered by
// increasing distance. The category itself comes first (distance 0) and the
// root is included; callers decide whether to drop it.
func (t *Tree) Ancestors(name string) ([]Ancestor, error) {
	id, ok := t.ids[name]
	if !ok {
		return nil, fmt.Errorf("unknown category %q", name)
	}
	return t.AncestorsByID(id), nil
}

// AncestorsByID is Ancestors keyed by node ID. Unknown IDs yield nil.
func (t *Tree) AncestorsByID(id int64) []Ancestor {
	anc := t.ancestors[id]
	if anc == nil {
		return nil
	}
	out := make([]Ancestor, len(anc))
	copy(out, anc)
	return out
}

// Depth returns the distance from the root to name (root = 0)
func (t *Tree) Depth(name string) (int, error) {
	anc, err := t.Ancestors(name)
	if err != nil {
		return 0, err
	}
	for _, a := range anc {
		if a.ID == t.root.ID {
			return a.Distance, nil
		}
	}
	return 0, nil
}

// MaxDepth returns the depth of the deepest category
func (t *Tree) MaxDepth() int {
	max := 0
	for _, anc := range t.ancestors {
		for _, a := range anc {
			if a.ID == t.root.ID && a.Distance > max {
				max = a.Distance
			}
		}
	}
	return max
}
