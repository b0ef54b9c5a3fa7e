// Package schema holds the live ontology: entity types, relationship types and the
// subclass_of hierarchy that links entity types.
package schema

import (
	"fmt"
	"strings"
)

// RootType is the universal root entity type.
const RootType = "Entity"

// Cardinality describes how many instances may sit on either end of a relationship.
type Cardinality string

const (
	OneToOne   Cardinality = "one-to-one"
	OneToMany  Cardinality = "one-to-many"
	ManyToOne  Cardinality = "many-to-one"
	ManyToMany Cardinality = "many-to-many"
)

// ParseCardinality converts a cardinality string into a Cardinality.
// An empty string yields ManyToMany.
func ParseCardinality(s string) (Cardinality, error) {
	switch c := Cardinality(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return ManyToMany, nil
	case OneToOne, OneToMany, ManyToOne, ManyToMany:
		return c, nil
	default:
		return "", fmt.Errorf("invalid cardinality %q", s)
	}
}

// EntityType is a named class of thing with attributes and an optional parent.
type EntityType struct {
	Name               string            `json:"name"`
	Parent             string            `json:"parent,omitempty"`
	RequiredAttributes []string          `json:"required_attributes"`
	OptionalAttributes []string          `json:"optional_attributes"`
	Constraints        map[string]string `json:"constraints"` // attribute -> regular expression
	Discovered         bool              `json:"discovered"`
	Confidence         float64           `json:"confidence"`
	Examples           []string          `json:"examples"`
	DiscoveryPatterns  []string          `json:"discovery_patterns"`
}

// HasAttribute reports whether attr (case-insensitive) is declared required or optional.
func (e *EntityType) HasAttribute(attr string) bool {
	for _, a := range e.RequiredAttributes {
		if strings.EqualFold(a, attr) {
			return true
		}
	}
	for _, a := range e.OptionalAttributes {
		if strings.EqualFold(a, attr) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (e *EntityType) Clone() *EntityType {
	c := *e
	c.RequiredAttributes = cloneStrings(e.RequiredAttributes)
	c.OptionalAttributes = cloneStrings(e.OptionalAttributes)
	c.Examples = cloneStrings(e.Examples)
	c.DiscoveryPatterns = cloneStrings(e.DiscoveryPatterns)
	c.Constraints = make(map[string]string, len(e.Constraints))
	for k, v := range e.Constraints {
		c.Constraints[k] = v
	}
	return &c
}

// EntityPair is an example (source, target) instance pair of a relationship.
type EntityPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RelationshipType is a named, typed edge kind between entity types.
type RelationshipType struct {
	Name         string       `json:"name"`
	ValidSources []string     `json:"valid_sources"`
	ValidTargets []string     `json:"valid_targets"`
	Cardinality  Cardinality  `json:"cardinality"`
	Attributes   []string     `json:"attributes"`
	Discovered   bool         `json:"discovered"`
	Confidence   float64      `json:"confidence"`
	Examples     []EntityPair `json:"examples"`
}

// Clone returns a deep copy.
func (r *RelationshipType) Clone() *RelationshipType {
	c := *r
	c.ValidSources = cloneStrings(r.ValidSources)
	c.ValidTargets = cloneStrings(r.ValidTargets)
	c.Attributes = cloneStrings(r.Attributes)
	c.Examples = append([]EntityPair{}, r.Examples...)
	return &c
}

func cloneStrings(s []string) []string {
	return append([]string{}, s...)
}
