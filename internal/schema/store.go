package schema

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/ontoforge/internal/graph"
)

// Store holds entity and relationship type definitions and the type hierarchy graph.
// Listings follow insertion order. All methods are safe for concurrent use; mutations
// are serialized by a single lock so a promotion always sees a consistent hierarchy.
// Lookups return copies; changes go through AddEntityType and AddRelationshipType.
type Store struct {
	mu            sync.RWMutex
	entities      *orderedmap.OrderedMap[string, *EntityType]
	relationships *orderedmap.OrderedMap[string, *RelationshipType]
	hierarchy     *graph.Graph
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		entities:      orderedmap.NewOrderedMap[string, *EntityType](),
		relationships: orderedmap.NewOrderedMap[string, *RelationshipType](),
		hierarchy:     graph.NewGraph(),
	}
}

// AddEntityType adds or replaces an entity type. Re-adding an existing name overwrites
// the previous definition (last write wins) and may move the type to a new parent.
// The parent must already be an entity type and must not be the type itself or one of
// its descendants.
func (s *Store) AddEntityType(et *EntityType) error {
	if et == nil || strings.TrimSpace(et.Name) == "" {
		return fmt.Errorf("%w: entity type name is empty", ErrInvalidName)
	}
	for attr, pattern := range et.Constraints {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("entity type %q: invalid constraint for %q: %w", et.Name, attr, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.relationships.Get(et.Name); ok {
		return fmt.Errorf("%w: %q is already a relationship type", ErrInvalidName, et.Name)
	}
	if et.Parent != "" {
		if _, ok := s.entities.Get(et.Parent); !ok {
			return fmt.Errorf("%w: %q (for %q)", ErrUnknownParent, et.Parent, et.Name)
		}
	}

	_, existed := s.entities.Get(et.Name)
	if !existed {
		s.hierarchy.AddNode(et.Name, graph.KindEntity)
	}
	if err := s.hierarchy.SetParent(et.Name, et.Parent); err != nil {
		if !existed {
			s.hierarchy.RemoveNode(et.Name)
		}
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}

	s.entities.Set(et.Name, et.Clone())
	return nil
}

// AddRelationshipType adds or replaces a relationship type. Every valid source and target
// must already be an entity type.
func (s *Store) AddRelationshipType(rt *RelationshipType) error {
	if rt == nil || strings.TrimSpace(rt.Name) == "" {
		return fmt.Errorf("%w: relationship type name is empty", ErrInvalidName)
	}
	cardinality, err := ParseCardinality(string(rt.Cardinality))
	if err != nil {
		return fmt.Errorf("relationship type %q: %w", rt.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities.Get(rt.Name); ok {
		return fmt.Errorf("%w: %q is already an entity type", ErrInvalidName, rt.Name)
	}
	for _, name := range append(append([]string{}, rt.ValidSources...), rt.ValidTargets...) {
		if _, ok := s.entities.Get(name); !ok {
			return fmt.Errorf("%w: %q (endpoint of %q)", ErrUnknownEntityType, name, rt.Name)
		}
	}

	stored := rt.Clone()
	stored.Cardinality = cardinality
	s.relationships.Set(rt.Name, stored)
	s.hierarchy.AddNode(rt.Name, graph.KindRelationship)
	return nil
}

// LookupEntity returns a copy of the named entity type.
func (s *Store) LookupEntity(name string) (*EntityType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	et, ok := s.entities.Get(name)
	if !ok {
		return nil, false
	}
	return et.Clone(), true
}

// LookupRelationship returns a copy of the named relationship type.
func (s *Store) LookupRelationship(name string) (*RelationshipType, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rt, ok := s.relationships.Get(name)
	if !ok {
		return nil, false
	}
	return rt.Clone(), true
}

// ResolveEntityName returns the canonical name of the entity type matching name
// case-insensitively.
func (s *Store) ResolveEntityName(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.entities.Get(name); ok {
		return name, true
	}
	for el := s.entities.Front(); el != nil; el = el.Next() {
		if strings.EqualFold(el.Key, name) {
			return el.Key, true
		}
	}
	return "", false
}

// ResolveRelationshipName returns the canonical name of the relationship type matching
// name case-insensitively.
func (s *Store) ResolveRelationshipName(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.relationships.Get(name); ok {
		return name, true
	}
	for el := s.relationships.Front(); el != nil; el = el.Next() {
		if strings.EqualFold(el.Key, name) {
			return el.Key, true
		}
	}
	return "", false
}

// EntityTypes returns copies of all entity types in insertion order.
func (s *Store) EntityTypes() []*EntityType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*EntityType, 0, s.entities.Len())
	for el := s.entities.Front(); el != nil; el = el.Next() {
		result = append(result, el.Value.Clone())
	}
	return result
}

// RelationshipTypes returns copies of all relationship types in insertion order.
func (s *Store) RelationshipTypes() []*RelationshipType {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*RelationshipType, 0, s.relationships.Len())
	for el := s.relationships.Front(); el != nil; el = el.Next() {
		result = append(result, el.Value.Clone())
	}
	return result
}

// Counts summarizes the store contents.
type Counts struct {
	Entities                int `json:"total_entities"`
	DiscoveredEntities      int `json:"discovered_entities"`
	Relationships           int `json:"total_relationships"`
	DiscoveredRelationships int `json:"discovered_relationships"`
}

// Counts returns totals and discovered counts for entities and relationships.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := Counts{Entities: s.entities.Len(), Relationships: s.relationships.Len()}
	for el := s.entities.Front(); el != nil; el = el.Next() {
		if el.Value.Discovered {
			c.DiscoveredEntities++
		}
	}
	for el := s.relationships.Front(); el != nil; el = el.Next() {
		if el.Value.Discovered {
			c.DiscoveredRelationships++
		}
	}
	return c
}

// Ancestors returns the parent chain of an entity type, nearest first.
func (s *Store) Ancestors(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.Ancestors(name)
}

// Descendants returns every entity type below name.
func (s *Store) Descendants(name string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.Descendants(name)
}

// Roots returns the entity types without a parent.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.Roots()
}

// IsSubtypeOf reports whether name equals typ or descends from it.
func (s *Store) IsSubtypeOf(name, typ string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.IsSubtypeOf(name, typ)
}

// Hierarchy returns the subclass_of tree built by recursive descent from every root.
func (s *Store) Hierarchy() []*graph.TreeNode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.Tree()
}

// SubclassEdges returns every parent to child edge, sorted by parent then child.
func (s *Store) SubclassEdges() []graph.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.AllEdges()
}

// Validate checks the hierarchy invariants.
func (s *Store) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hierarchy.Validate()
}
