package schema

import "fmt"

// CoreEntityTypes returns the fixed core entity types, parents before children.
func CoreEntityTypes() []*EntityType {
	return []*EntityType{
		{Name: RootType, Confidence: 1.0},
		{
			Name:               "Person",
			Parent:             RootType,
			RequiredAttributes: []string{"name"},
			OptionalAttributes: []string{"email", "role", "phone"},
			Constraints:        map[string]string{"email": `^[^@\s]+@[^@\s]+\.[A-Za-z]+$`},
			Confidence:         1.0,
		},
		{
			Name:               "Organization",
			Parent:             RootType,
			RequiredAttributes: []string{"name"},
			Confidence:         1.0,
		},
		{
			Name:               "Location",
			Parent:             RootType,
			RequiredAttributes: []string{"name"},
			OptionalAttributes: []string{"address", "region"},
			Confidence:         1.0,
		},
		{
			Name:               "Store",
			Parent:             "Location",
			RequiredAttributes: []string{"id"},
			OptionalAttributes: []string{"region", "manager", "address", "type"},
			Constraints:        map[string]string{"id": `^ST\d{4}$`},
			Confidence:         1.0,
		},
		{
			Name:               "Employee",
			Parent:             "Person",
			RequiredAttributes: []string{"id", "name"},
			OptionalAttributes: []string{"store_id", "role", "email", "training_status"},
			Constraints: map[string]string{
				"id":       `^EMP\d+$`,
				"store_id": `^ST\d{4}$`,
				"email":    `^[^@\s]+@[^@\s]+\.[A-Za-z]+$`,
			},
			Confidence: 1.0,
		},
		{
			Name:               "Document",
			Parent:             RootType,
			RequiredAttributes: []string{"id"},
			OptionalAttributes: []string{"title", "author", "date", "category"},
			Confidence:         1.0,
		},
		{
			Name:               "System",
			Parent:             RootType,
			RequiredAttributes: []string{"name"},
			OptionalAttributes: []string{"vendor", "version"},
			Confidence:         1.0,
		},
		{
			Name:               "Event",
			Parent:             RootType,
			RequiredAttributes: []string{"date"},
			OptionalAttributes: []string{"description", "impact"},
			Confidence:         1.0,
		},
		{
			Name:               "Incident",
			Parent:             "Event",
			RequiredAttributes: []string{"id", "date"},
			OptionalAttributes: []string{"type", "impact", "affected_stores"},
			Constraints:        map[string]string{"id": `^INC-\d{4}-\d{3}$`},
			Confidence:         1.0,
		},
	}
}

// CoreRelationshipTypes returns the fixed core relationship types.
func CoreRelationshipTypes() []*RelationshipType {
	return []*RelationshipType{
		{Name: "WORKS_AT", ValidSources: []string{"Employee"}, ValidTargets: []string{"Store"}, Cardinality: ManyToOne, Confidence: 1.0},
		{Name: "MANAGES", ValidSources: []string{"Person"}, ValidTargets: []string{"Store", "Organization"}, Cardinality: OneToMany, Confidence: 1.0},
		{Name: "AFFECTS", ValidSources: []string{"Incident"}, ValidTargets: []string{"Store", "System"}, Cardinality: ManyToMany, Confidence: 1.0},
		{Name: "REFERENCES", ValidSources: []string{"Document"}, ValidTargets: []string{"Document", "Incident", "Event"}, Cardinality: ManyToMany, Confidence: 1.0},
		{Name: "AUTHORED_BY", ValidSources: []string{"Document"}, ValidTargets: []string{"Person"}, Cardinality: ManyToOne, Confidence: 1.0},
	}
}

// NewSeededStore creates a store holding either the full core schema or, when core is
// false, only the universal root type.
func NewSeededStore(core bool) (*Store, error) {
	s := NewStore()

	entities := CoreEntityTypes()
	if !core {
		entities = entities[:1]
	}
	for _, et := range entities {
		if err := s.AddEntityType(et); err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", et.Name, err)
		}
	}
	if !core {
		return s, nil
	}

	for _, rt := range CoreRelationshipTypes() {
		if err := s.AddRelationshipType(rt); err != nil {
			return nil, fmt.Errorf("failed to seed %q: %w", rt.Name, err)
		}
	}
	return s, nil
}
