package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ontoforge/internal/graph"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s, err := NewSeededStore(true)
	require.NoError(t, err)
	return s
}

func TestNewSeededStore(t *testing.T) {
	t.Run("core", func(t *testing.T) {
		s := seeded(t)
		counts := s.Counts()
		assert.Equal(t, 10, counts.Entities)
		assert.Equal(t, 5, counts.Relationships)
		assert.Zero(t, counts.DiscoveredEntities)

		emp, ok := s.LookupEntity("Employee")
		require.True(t, ok)
		assert.Equal(t, "Person", emp.Parent)
		assert.Equal(t, []string{"Person", RootType}, s.Ancestors("Employee"))
	})

	t.Run("root only", func(t *testing.T) {
		s, err := NewSeededStore(false)
		require.NoError(t, err)
		assert.Equal(t, Counts{Entities: 1}, s.Counts())
		assert.Equal(t, []string{RootType}, s.Roots())
	})
}

func TestAddEntityType_OverwriteIsIdempotent(t *testing.T) {
	s := seeded(t)

	et := &EntityType{Name: "Vendor Portal", Parent: RootType, Discovered: true, Confidence: 0.3}
	require.NoError(t, s.AddEntityType(et))
	et.Confidence = 0.4
	require.NoError(t, s.AddEntityType(et))

	count := 0
	for _, e := range s.EntityTypes() {
		if e.Name == "Vendor Portal" {
			count++
			assert.Equal(t, 0.4, e.Confidence, "last write wins")
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, []string{RootType}, s.hierarchy.Parents["Vendor Portal"])
}

func TestAddEntityType_Errors(t *testing.T) {
	s := seeded(t)

	tests := []struct {
		name    string
		et      *EntityType
		wantErr error
	}{
		{name: "nil", et: nil, wantErr: ErrInvalidName},
		{name: "empty name", et: &EntityType{Name: "  "}, wantErr: ErrInvalidName},
		{name: "unknown parent", et: &EntityType{Name: "Kiosk", Parent: "Booth"}, wantErr: ErrUnknownParent},
		{name: "relationship parent", et: &EntityType{Name: "Kiosk", Parent: "WORKS_AT"}, wantErr: ErrUnknownParent},
		{name: "name clash", et: &EntityType{Name: "WORKS_AT"}, wantErr: ErrInvalidName},
		{name: "self parent", et: &EntityType{Name: "Person", Parent: "Person"}, wantErr: ErrCycle},
		{name: "descendant parent", et: &EntityType{Name: "Person", Parent: "Employee"}, wantErr: ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddEntityType(tt.et)
			assert.True(t, errors.Is(err, tt.wantErr), "expected %v, got %v", tt.wantErr, err)
		})
	}

	// Failed writes leave the store untouched.
	_, ok := s.LookupEntity("Kiosk")
	assert.False(t, ok)
	person, _ := s.LookupEntity("Person")
	assert.Equal(t, RootType, person.Parent)
	require.NoError(t, s.Validate())
}

func TestAddEntityType_InvalidConstraint(t *testing.T) {
	s := seeded(t)
	err := s.AddEntityType(&EntityType{Name: "Kiosk", Constraints: map[string]string{"id": "("}})
	assert.Error(t, err)
}

func TestAddEntityType_Reparent(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&EntityType{Name: "Warehouse", Parent: RootType}))
	require.NoError(t, s.AddEntityType(&EntityType{Name: "Warehouse", Parent: "Location"}))

	assert.Equal(t, []string{"Location", RootType}, s.Ancestors("Warehouse"))
	assert.Contains(t, s.Descendants("Location"), "Warehouse")
	require.NoError(t, s.Validate())
}

func TestAddRelationshipType(t *testing.T) {
	s := seeded(t)

	require.NoError(t, s.AddRelationshipType(&RelationshipType{
		Name:         "LEADS_TO",
		ValidSources: []string{"Incident"},
		ValidTargets: []string{"Event"},
	}))
	rt, ok := s.LookupRelationship("LEADS_TO")
	require.True(t, ok)
	assert.Equal(t, ManyToMany, rt.Cardinality, "empty cardinality defaults to many-to-many")

	err := s.AddRelationshipType(&RelationshipType{Name: "OWNS", ValidSources: []string{"manager"}})
	assert.ErrorIs(t, err, ErrUnknownEntityType)
	_, ok = s.LookupRelationship("OWNS")
	assert.False(t, ok, "relationship with unresolved endpoints must not be committed")

	err = s.AddRelationshipType(&RelationshipType{Name: "Person"})
	assert.ErrorIs(t, err, ErrInvalidName)

	err = s.AddRelationshipType(&RelationshipType{Name: "X", Cardinality: "lots"})
	assert.Error(t, err)
}

func TestLookupReturnsCopies(t *testing.T) {
	s := seeded(t)

	person, _ := s.LookupEntity("Person")
	person.OptionalAttributes = append(person.OptionalAttributes, "nickname")
	person.Constraints["name"] = ".*"

	again, _ := s.LookupEntity("Person")
	assert.NotContains(t, again.OptionalAttributes, "nickname")
	assert.NotContains(t, again.Constraints, "name")
}

func TestResolveNames(t *testing.T) {
	s := seeded(t)

	name, ok := s.ResolveEntityName("employee")
	assert.True(t, ok)
	assert.Equal(t, "Employee", name)

	name, ok = s.ResolveRelationshipName("works_at")
	assert.True(t, ok)
	assert.Equal(t, "WORKS_AT", name)

	_, ok = s.ResolveEntityName("vendor")
	assert.False(t, ok)
}

func TestEntityTypesInsertionOrder(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&EntityType{Name: "Aardvark", Parent: RootType}))

	types := s.EntityTypes()
	assert.Equal(t, RootType, types[0].Name)
	assert.Equal(t, "Aardvark", types[len(types)-1].Name)
}

func TestHierarchyIsAcyclic(t *testing.T) {
	s := seeded(t)
	limit := len(s.EntityTypes())

	for _, et := range s.EntityTypes() {
		steps := 0
		current := et.Name
		for current != "" {
			e, ok := s.LookupEntity(current)
			require.True(t, ok)
			current = e.Parent
			steps++
			require.LessOrEqual(t, steps, limit, "parent walk from %s did not terminate", et.Name)
			assert.NotEqual(t, et.Name, current, "%s is its own ancestor", et.Name)
		}
	}
}

func TestHierarchyTree(t *testing.T) {
	s := seeded(t)
	tree := s.Hierarchy()

	require.Len(t, tree, 1)
	assert.Equal(t, RootType, tree[0].Name)

	var names []string
	for _, c := range tree[0].Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Document", "Event", "Location", "Organization", "Person", "System"}, names)
	assert.True(t, s.IsSubtypeOf("Store", "Location"))
}

func TestLoad(t *testing.T) {
	src := seeded(t)

	// Reverse the entity order so children precede parents.
	entities := src.EntityTypes()
	for i, j := 0, len(entities)-1; i < j; i, j = i+1, j-1 {
		entities[i], entities[j] = entities[j], entities[i]
	}

	s, err := Load(entities, src.RelationshipTypes())
	require.NoError(t, err)
	assert.Equal(t, src.Counts(), s.Counts())
	assert.Equal(t, src.Ancestors("Employee"), s.Ancestors("Employee"))
	assert.Equal(t, "Incident", s.EntityTypes()[0].Name, "load keeps the supplied order")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]*EntityType{{Name: "A", Parent: "B"}, {Name: "B", Parent: "A"}}, nil)
	assert.ErrorIs(t, err, graph.ErrCycleDetected)

	_, err = Load([]*EntityType{{Name: "A", Parent: "Missing"}}, nil)
	assert.Error(t, err)

	_, err = Load([]*EntityType{{Name: "A"}}, []*RelationshipType{{Name: "R", ValidSources: []string{"B"}}})
	assert.ErrorIs(t, err, ErrUnknownEntityType)
}

func TestParseCardinality(t *testing.T) {
	c, err := ParseCardinality(" Many-To-One ")
	require.NoError(t, err)
	assert.Equal(t, ManyToOne, c)

	c, err = ParseCardinality("")
	require.NoError(t, err)
	assert.Equal(t, ManyToMany, c)

	_, err = ParseCardinality("some")
	assert.Error(t, err)
}

func TestHasAttribute(t *testing.T) {
	et := &EntityType{RequiredAttributes: []string{"name"}, OptionalAttributes: []string{"Email"}}
	assert.True(t, et.HasAttribute("NAME"))
	assert.True(t, et.HasAttribute("email"))
	assert.False(t, et.HasAttribute("phone"))
}
