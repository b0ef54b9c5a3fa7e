// Package tracker accumulates frequency evidence for entity, relationship and attribute
// candidates across discovery calls.
package tracker

import (
	"sort"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

// EntityCandidate is the accumulated evidence for an unpromoted entity term.
type EntityCandidate struct {
	Name       string
	Count      int
	Contexts   []string       // rolling, newest last
	Attributes map[string]int // attribute -> occurrences
	Patterns   []string       // sorted pattern-family tags
	Documents  []string       // first documents the term appeared in
	LastSeen   int            // document sequence number of the latest match
}

// RelationshipCandidate is the accumulated evidence for an unpromoted relationship name.
type RelationshipCandidate struct {
	Name     string
	Count    int
	Sources  map[string]int // subject token -> occurrences
	Targets  map[string]int // object token -> occurrences
	Contexts []string
	Patterns []string
	Pairs    []schema.EntityPair
	LastSeen int
}

// AttributeKey identifies an attribute candidate on an existing entity type.
type AttributeKey struct {
	EntityType string
	Attribute  string
}

// AttributeCandidate is the accumulated evidence for an undeclared attribute.
type AttributeCandidate struct {
	AttributeKey
	Count    int
	Contexts []string
	Patterns []string
	LastSeen int
}

// TopTokens returns up to n keys with the highest counts, ties broken by name.
func TopTokens(freq map[string]int, n int) []string {
	keys := make([]string, 0, len(freq))
	for k := range freq {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if freq[keys[i]] != freq[keys[j]] {
			return freq[keys[i]] > freq[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

type entityState struct {
	count      int
	contexts   []string
	attributes map[string]int
	patterns   map[string]bool
	documents  []string
	lastSeen   int
}

type relationshipState struct {
	count    int
	sources  map[string]int
	targets  map[string]int
	contexts []string
	patterns map[string]bool
	pairs    []schema.EntityPair
	lastSeen int
}

type attributeState struct {
	count    int
	contexts []string
	patterns map[string]bool
	lastSeen int
}

func (s *entityState) snapshot(name string) EntityCandidate {
	return EntityCandidate{
		Name:       name,
		Count:      s.count,
		Contexts:   append([]string{}, s.contexts...),
		Attributes: copyCounts(s.attributes),
		Patterns:   sortedSet(s.patterns),
		Documents:  append([]string{}, s.documents...),
		LastSeen:   s.lastSeen,
	}
}

func (s *relationshipState) snapshot(name string) RelationshipCandidate {
	return RelationshipCandidate{
		Name:     name,
		Count:    s.count,
		Sources:  copyCounts(s.sources),
		Targets:  copyCounts(s.targets),
		Contexts: append([]string{}, s.contexts...),
		Patterns: sortedSet(s.patterns),
		Pairs:    append([]schema.EntityPair{}, s.pairs...),
		LastSeen: s.lastSeen,
	}
}

func (s *attributeState) snapshot(key AttributeKey) AttributeCandidate {
	return AttributeCandidate{
		AttributeKey: key,
		Count:        s.count,
		Contexts:     append([]string{}, s.contexts...),
		Patterns:     sortedSet(s.patterns),
		LastSeen:     s.lastSeen,
	}
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
