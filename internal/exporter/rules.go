package exporter

import (
	"sort"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

// EntityRule tells a downstream extractor how to recognize one entity type.
type EntityRule struct {
	Patterns     []string          `json:"patterns" yaml:"patterns"`
	RequiredKeys []string          `json:"required_context_keys" yaml:"required_context_keys"`
	OptionalKeys []string          `json:"optional_context_keys" yaml:"optional_context_keys"`
	Constraints  map[string]string `json:"constraints" yaml:"constraints"`
	Parent       string            `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// RelationshipRule tells a downstream extractor how to recognize one relationship type.
type RelationshipRule struct {
	ValidSources []string `json:"valid_sources" yaml:"valid_sources"`
	ValidTargets []string `json:"valid_targets" yaml:"valid_targets"`
	Cardinality  string   `json:"cardinality" yaml:"cardinality"`
	Attributes   []string `json:"attributes" yaml:"attributes"`
}

// ExtractionRules is the flattened schema consumed by a separate extraction step.
type ExtractionRules struct {
	EntityRules       map[string]EntityRule       `json:"entity_rules" yaml:"entity_rules"`
	RelationshipRules map[string]RelationshipRule `json:"relationship_rules" yaml:"relationship_rules"`
}

// GenerateExtractionRules flattens the store into an ExtractionRules set.
// All slices and maps in the result are non-nil.
func GenerateExtractionRules(s *schema.Store) ExtractionRules {
	rules := ExtractionRules{
		EntityRules:       make(map[string]EntityRule),
		RelationshipRules: make(map[string]RelationshipRule),
	}

	for _, et := range s.EntityTypes() {
		constraints := make(map[string]string, len(et.Constraints))
		for k, v := range et.Constraints {
			constraints[k] = v
		}
		patterns := nonNil(et.DiscoveryPatterns)
		sort.Strings(patterns)
		rules.EntityRules[et.Name] = EntityRule{
			Patterns:     patterns,
			RequiredKeys: nonNil(et.RequiredAttributes),
			OptionalKeys: nonNil(et.OptionalAttributes),
			Constraints:  constraints,
			Parent:       et.Parent,
		}
	}

	for _, rt := range s.RelationshipTypes() {
		rules.RelationshipRules[rt.Name] = RelationshipRule{
			ValidSources: nonNil(rt.ValidSources),
			ValidTargets: nonNil(rt.ValidTargets),
			Cardinality:  string(rt.Cardinality),
			Attributes:   nonNil(rt.Attributes),
		}
	}
	return rules
}

func nonNil(s []string) []string {
	return append([]string{}, s...)
}
