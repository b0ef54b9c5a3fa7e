package graph

import (
	"errors"
	"strings"
	"testing"
)

func TestBuild_Hierarchy(t *testing.T) {
	defs := []Definition{
		{Name: "Employee", Parent: "Person"}, // out of order on purpose
		{Name: "Entity"},
		{Name: "Person", Parent: "Entity"},
		{Name: "WORKS_AT", Kind: KindRelationship},
	}

	g, err := NewBuilder(defs).Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	if g.NodeCount() != 4 {
		t.Errorf("Expected 4 nodes, got %d", g.NodeCount())
	}
	if g.Parent("Employee") != "Person" {
		t.Errorf("Expected Employee parent Person, got %q", g.Parent("Employee"))
	}
	if node := g.GetNode("Person"); node.Kind != KindEntity {
		t.Errorf("Expected default kind entity, got %q", node.Kind)
	}
	if node := g.GetNode("WORKS_AT"); node.Kind != KindRelationship {
		t.Errorf("Expected relationship kind, got %q", node.Kind)
	}
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		defs    []Definition
		wantErr string
	}{
		{
			name:    "empty name",
			defs:    []Definition{{Name: ""}},
			wantErr: "type name is empty",
		},
		{
			name:    "duplicate",
			defs:    []Definition{{Name: "Person"}, {Name: "Person"}},
			wantErr: "duplicate type",
		},
		{
			name:    "unknown parent",
			defs:    []Definition{{Name: "Employee", Parent: "Person"}},
			wantErr: "unknown parent",
		},
		{
			name:    "invalid kind",
			defs:    []Definition{{Name: "Person", Kind: "attribute"}},
			wantErr: "invalid kind",
		},
		{
			name:    "relationship with parent",
			defs:    []Definition{{Name: "Entity"}, {Name: "WORKS_AT", Kind: KindRelationship, Parent: "Entity"}},
			wantErr: "cannot have a parent",
		},
		{
			name: "relationship as parent",
			defs: []Definition{
				{Name: "WORKS_AT", Kind: KindRelationship},
				{Name: "Person", Parent: "WORKS_AT"},
			},
			wantErr: "non-entity parent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFromDefinitions(tt.defs)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestBuild_Cycle(t *testing.T) {
	defs := []Definition{
		{Name: "A", Parent: "C"},
		{Name: "B", Parent: "A"},
		{Name: "C", Parent: "B"},
	}

	_, err := BuildFromDefinitions(defs)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("Expected ErrCycleDetected, got %v", err)
	}
	if !strings.Contains(err.Error(), "hierarchy validation failed") {
		t.Errorf("Expected wrapped validation error, got %v", err)
	}
}
