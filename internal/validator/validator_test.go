package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/types"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	s, err := schema.NewSeededStore(true)
	require.NoError(t, err)
	return New(s)
}

func TestUnknownEntityTypeIsInvalid(t *testing.T) {
	report := newValidator(t).Validate([]types.Record{{"id": "e1", "type": "UnknownType"}}, nil)

	require.Len(t, report.InvalidEntities, 1)
	assert.Equal(t, "e1", report.InvalidEntities[0].ID)
	assert.Contains(t, report.InvalidEntities[0].Reason, "unknown entity type")
	assert.Empty(t, report.ValidEntities)
}

func TestMissingRequiredAttributeIsWarning(t *testing.T) {
	report := newValidator(t).Validate([]types.Record{{"id": "EMP100001", "type": "Employee"}}, nil)

	assert.Empty(t, report.InvalidEntities)
	assert.Empty(t, report.ValidEntities)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, KindEntity, report.Warnings[0].Kind)
	assert.Contains(t, report.Warnings[0].Reason, "missing required attributes: name")
}

func TestEntityValidation(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name     string
		record   types.Record
		category string
		reason   string
	}{
		{
			name:     "valid employee",
			record:   types.Record{"id": "EMP100001", "type": "Employee", "name": "Dana", "email": "emp100001@quickstop.com"},
			category: "valid",
		},
		{
			name:     "constraint mismatch",
			record:   types.Record{"id": "X-1", "type": "Store"},
			category: "warning",
			reason:   `attribute "id" value "X-1" does not match`,
		},
		{
			name:     "case-insensitive attribute keys",
			record:   types.Record{"id": "ST1000", "type": "Store", "Region": "North"},
			category: "valid",
		},
		{
			name:     "empty required value",
			record:   types.Record{"type": "Person", "name": ""},
			category: "warning",
			reason:   "missing required attributes: name",
		},
		{
			name:     "missing type",
			record:   types.Record{"id": "x"},
			category: "invalid",
			reason:   "unknown entity type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.Validate([]types.Record{tt.record}, nil)
			switch tt.category {
			case "valid":
				assert.Len(t, report.ValidEntities, 1)
				assert.Empty(t, report.Warnings)
			case "warning":
				require.Len(t, report.Warnings, 1)
				assert.Contains(t, report.Warnings[0].Reason, tt.reason)
				assert.Empty(t, report.ValidEntities)
			case "invalid":
				require.Len(t, report.InvalidEntities, 1)
				assert.Contains(t, report.InvalidEntities[0].Reason, tt.reason)
			}
		})
	}
}

func TestRelationshipValidation(t *testing.T) {
	v := newValidator(t)
	entities := []types.Record{
		{"id": "EMP100001", "type": "Employee", "name": "Dana"},
		{"id": "ST1000", "type": "Store"},
		{"id": "SYS-1", "type": "System", "name": "POS"},
		{"id": "DOC-1", "type": "Document"},
	}

	tests := []struct {
		name     string
		rel      types.Record
		category string
		reason   string
	}{
		{
			name:     "valid works_at",
			rel:      types.Record{"type": "WORKS_AT", "source": "EMP100001", "target": "ST1000"},
			category: "valid",
		},
		{
			name:     "subtype satisfies parent in valid set",
			rel:      types.Record{"type": "MANAGES", "source": "EMP100001", "target": "ST1000"},
			category: "valid",
		},
		{
			name:     "target type mismatch",
			rel:      types.Record{"type": "WORKS_AT", "source": "EMP100001", "target": "SYS-1"},
			category: "warning",
			reason:   `target type "System" not in [Store]`,
		},
		{
			name:     "missing endpoint",
			rel:      types.Record{"type": "AUTHORED_BY", "source": "DOC-1", "target": "EMP-404"},
			category: "warning",
			reason:   `target entity "EMP-404" not found`,
		},
		{
			name:     "unknown relationship type",
			rel:      types.Record{"type": "LIKES", "source": "EMP100001", "target": "ST1000"},
			category: "invalid",
			reason:   "unknown relationship type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.Validate(entities, []types.Record{tt.rel})
			switch tt.category {
			case "valid":
				assert.Len(t, report.ValidRelationships, 1)
			case "warning":
				var relWarnings []Issue
				for _, w := range report.Warnings {
					if w.Kind == KindRelationship {
						relWarnings = append(relWarnings, w)
					}
				}
				require.Len(t, relWarnings, 1)
				assert.Contains(t, relWarnings[0].Reason, tt.reason)
				assert.Empty(t, report.ValidRelationships)
			case "invalid":
				require.Len(t, report.InvalidRelationships, 1)
				assert.Contains(t, report.InvalidRelationships[0].Reason, tt.reason)
			}
		})
	}
}

func TestUnknownRelationshipAlwaysInvalid(t *testing.T) {
	v := newValidator(t)
	inputs := []types.Record{
		{"type": "NOPE"},
		{"type": "NOPE", "source": "a", "target": "b"},
		{"type": ""},
	}
	for _, rel := range inputs {
		report := v.Validate(nil, []types.Record{rel})
		assert.Len(t, report.InvalidRelationships, 1)
		assert.Empty(t, report.ValidRelationships)
		assert.Empty(t, report.Warnings)
	}
}

func TestEmptyValidSetAcceptsAnyType(t *testing.T) {
	s, err := schema.NewSeededStore(true)
	require.NoError(t, err)
	require.NoError(t, s.AddRelationshipType(&schema.RelationshipType{Name: "MENTIONS"}))

	report := New(s).Validate(
		[]types.Record{{"id": "a", "type": "Document"}, {"id": "b", "type": "Store"}},
		[]types.Record{{"type": "MENTIONS", "source": "a", "target": "b"}},
	)
	assert.Len(t, report.ValidRelationships, 1)
}

func TestEmptyReportEncodesLists(t *testing.T) {
	report := newValidator(t).Validate(nil, nil)
	assert.NotNil(t, report.ValidEntities)
	assert.NotNil(t, report.Warnings)
}
