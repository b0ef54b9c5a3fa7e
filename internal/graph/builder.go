package graph

import (
	"fmt"
)

// Definition describes one type for the builder: its name, its kind and, for entity
// types, its optional parent.
type Definition struct {
	Name   string
	Kind   NodeKind
	Parent string
}

// Builder constructs a hierarchy graph from a flat list of type definitions.
type Builder struct {
	defs []Definition
}

// NewBuilder creates a new graph builder for the given definitions.
func NewBuilder(defs []Definition) *Builder {
	return &Builder{defs: defs}
}

// Build constructs the hierarchy graph. Every parent must name an entity type present in
// the definitions. The result is validated, so a cyclic hierarchy fails fast.
func (b *Builder) Build() (*Graph, error) {
	g := NewGraph()

	for _, def := range b.defs {
		if def.Name == "" {
			return nil, fmt.Errorf("type name is empty")
		}
		if g.HasNode(def.Name) {
			return nil, fmt.Errorf("duplicate type: %q appears multiple times", def.Name)
		}

		kind := def.Kind
		if kind == "" {
			kind = KindEntity
		}
		if kind != KindEntity && kind != KindRelationship {
			return nil, fmt.Errorf("invalid kind %q for type %q (must be 'entity' or 'relationship')", kind, def.Name)
		}
		if kind == KindRelationship && def.Parent != "" {
			return nil, fmt.Errorf("relationship type %q cannot have a parent", def.Name)
		}
		g.AddNode(def.Name, kind)
	}

	// Edges are added after all nodes exist so definitions may appear in any order.
	for _, def := range b.defs {
		if def.Parent == "" {
			continue
		}
		parent := g.GetNode(def.Parent)
		if parent == nil {
			return nil, fmt.Errorf("type %q references unknown parent %q", def.Name, def.Parent)
		}
		if parent.Kind != KindEntity {
			return nil, fmt.Errorf("type %q has non-entity parent %q", def.Name, def.Parent)
		}
		g.AddEdge(def.Parent, def.Name)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("hierarchy validation failed: %w", err)
	}

	return g, nil
}

// BuildFromDefinitions is a convenience function that builds a graph directly.
func BuildFromDefinitions(defs []Definition) (*Graph, error) {
	return NewBuilder(defs).Build()
}
