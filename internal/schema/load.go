package schema

import (
	"fmt"
	"regexp"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/ontoforge/internal/graph"
)

// Load rebuilds a store from previously exported definitions. Entity types may appear
// in any order; the hierarchy is validated as a whole before anything is stored.
func Load(entities []*EntityType, relationships []*RelationshipType) (*Store, error) {
	defs := make([]graph.Definition, 0, len(entities)+len(relationships))
	for _, et := range entities {
		if et == nil {
			return nil, fmt.Errorf("%w: nil entity type", ErrInvalidName)
		}
		for attr, pattern := range et.Constraints {
			if _, err := regexp.Compile(pattern); err != nil {
				return nil, fmt.Errorf("entity type %q: invalid constraint for %q: %w", et.Name, attr, err)
			}
		}
		defs = append(defs, graph.Definition{Name: et.Name, Kind: graph.KindEntity, Parent: et.Parent})
	}

	hierarchy, err := graph.BuildFromDefinitions(defs)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild hierarchy: %w", err)
	}

	s := &Store{
		entities:      orderedmap.NewOrderedMap[string, *EntityType](),
		relationships: orderedmap.NewOrderedMap[string, *RelationshipType](),
		hierarchy:     hierarchy,
	}
	for _, et := range entities {
		s.entities.Set(et.Name, et.Clone())
	}

	for _, rt := range relationships {
		if err := s.AddRelationshipType(rt); err != nil {
			return nil, err
		}
	}

	return s, nil
}
