// Package graph provides the ontology hierarchy graph and its algorithms.
package graph

import (
	"errors"
	"fmt"
	"sort"
)

// NodeKind distinguishes entity-type nodes from relationship-type nodes.
type NodeKind string

const (
	KindEntity       NodeKind = "entity"
	KindRelationship NodeKind = "relationship"
)

// ErrMultipleParents is returned when a node would receive a second subclass_of parent.
var ErrMultipleParents = errors.New("type already has a parent")

// Node represents a type name in the hierarchy graph.
type Node struct {
	Name string
	Kind NodeKind
}

// Edge represents a subclass_of relationship from parent to child.
type Edge struct {
	From string // Parent type name
	To   string // Child type name
}

// Graph is a directed graph of type names. Edges run from parent entity type to child
// entity type. Relationship types are nodes without edges.
type Graph struct {
	Nodes    map[string]*Node    // type name -> node
	Children map[string][]string // type name -> child type names (outgoing edges)
	Parents  map[string][]string // type name -> parent type names (incoming edges)
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes:    make(map[string]*Node),
		Children: make(map[string][]string),
		Parents:  make(map[string][]string),
	}
}

// AddNode adds or replaces a node. Existing edges are left untouched.
func (g *Graph) AddNode(name string, kind NodeKind) {
	g.Nodes[name] = &Node{Name: name, Kind: kind}
}

// RemoveNode removes a node and every edge touching it.
func (g *Graph) RemoveNode(name string) {
	for _, parent := range append([]string(nil), g.Parents[name]...) {
		g.RemoveEdge(parent, name)
	}
	for _, child := range append([]string(nil), g.Children[name]...) {
		g.RemoveEdge(name, child)
	}
	delete(g.Nodes, name)
}

// AddEdge adds a parent -> child relationship to the graph.
// It also maintains the reverse mapping for efficient parent lookups.
// AddEdge performs no checks; use SetParent to keep the forest invariant.
func (g *Graph) AddEdge(parent, child string) {
	g.Children[parent] = append(g.Children[parent], child)
	g.Parents[child] = append(g.Parents[child], parent)
}

// RemoveEdge removes a parent -> child relationship if present.
func (g *Graph) RemoveEdge(parent, child string) {
	g.Children[parent] = removeString(g.Children[parent], child)
	if len(g.Children[parent]) == 0 {
		delete(g.Children, parent)
	}
	g.Parents[child] = removeString(g.Parents[child], parent)
	if len(g.Parents[child]) == 0 {
		delete(g.Parents, child)
	}
}

// SetParent makes parent the single subclass_of parent of child, replacing any previous
// parent. An empty parent detaches child and makes it a root. Both nodes must exist.
// The edge is rejected with a CycleError if child is parent or one of its ancestors.
func (g *Graph) SetParent(child, parent string) error {
	if !g.HasNode(child) {
		return fmt.Errorf("unknown type %q", child)
	}
	if parent != "" && !g.HasNode(parent) {
		return fmt.Errorf("unknown parent type %q", parent)
	}

	if current := g.Parents[child]; len(current) == 1 && current[0] == parent {
		return nil
	}

	if parent != "" && (parent == child || g.IsAncestor(child, parent)) {
		loop := append([]string{child}, g.pathDown(child, parent)...)
		members := append([]string(nil), loop...)
		sort.Strings(members)
		return &CycleError{Info: &CycleInfo{
			Total:     len(g.Nodes),
			Ordered:   len(g.Nodes) - len(members),
			Unordered: members,
			Members:   members,
			Loop:      append(loop, child),
		}}
	}

	for _, old := range append([]string(nil), g.Parents[child]...) {
		g.RemoveEdge(old, child)
	}
	if parent != "" {
		g.AddEdge(parent, child)
	}
	return nil
}

// Parent returns the single parent of name, or "" for roots and unknown names.
func (g *Graph) Parent(name string) string {
	if parents := g.Parents[name]; len(parents) > 0 {
		return parents[0]
	}
	return ""
}

// GetChildren returns all direct children of a type.
func (g *Graph) GetChildren(parent string) []string {
	return g.Children[parent]
}

// GetNode returns the node for a given type name, or nil if not found.
func (g *Graph) GetNode(name string) *Node {
	return g.Nodes[name]
}

// HasNode returns true if the graph contains a node with the given name.
func (g *Graph) HasNode(name string) bool {
	_, exists := g.Nodes[name]
	return exists
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Nodes)
}

// AllEdges returns all edges sorted by parent then child.
func (g *Graph) AllEdges() []Edge {
	var edges []Edge
	for parent, children := range g.Children {
		for _, child := range children {
			edges = append(edges, Edge{From: parent, To: child})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}
