package extractor

import (
	"strings"

	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/types"
)

// StructuredConfidence is the fixed confidence of a draft built from a typed record.
const StructuredConfidence = 0.8

// draftsFromRecords synthesizes one entity-type draft per record type that the schema
// does not know yet. Records of the same type are merged.
func draftsFromRecords(records []types.Record, docID string, s Schema) []*schema.EntityType {
	var drafts []*schema.EntityType
	byType := make(map[string]*schema.EntityType)

	for _, rec := range records {
		typeName := strings.TrimSpace(rec.Type())
		if typeName == "" {
			continue
		}
		if _, exists := s.ResolveEntityName(typeName); exists {
			continue
		}

		draft, ok := byType[typeName]
		if !ok {
			draft = &schema.EntityType{
				Name:              typeName,
				Parent:            inferParent(typeName, rec, s),
				Constraints:       map[string]string{},
				Discovered:        true,
				Confidence:        StructuredConfidence,
				DiscoveryPatterns: []string{FamilyStructured},
			}
			byType[typeName] = draft
			drafts = append(drafts, draft)
		}

		for _, attr := range rec.Attributes() {
			if !containsFold(draft.OptionalAttributes, attr) {
				draft.OptionalAttributes = append(draft.OptionalAttributes, attr)
			}
		}
		if id := rec.ID(); id != "" && !containsFold(draft.Examples, id) {
			draft.Examples = append(draft.Examples, id)
		}
	}

	return drafts
}

// inferParent guesses a parent type from the record shape and type name. A guess that
// is not in the schema falls back to the universal root.
func inferParent(typeName string, rec types.Record, s Schema) string {
	lowerName := strings.ToLower(typeName)

	var parent string
	switch {
	case hasTemporalKey(rec):
		parent = "Event"
	case rec.Has("name") && rec.Has("email"):
		parent = "Person"
	case strings.Contains(lowerName, "document") || strings.Contains(lowerName, "report"):
		parent = "Document"
	case strings.Contains(lowerName, "system") || strings.Contains(lowerName, "application"):
		parent = "System"
	default:
		parent = schema.RootType
	}

	if name, ok := s.ResolveEntityName(parent); ok {
		return name
	}
	if name, ok := s.ResolveEntityName(schema.RootType); ok {
		return name
	}
	return ""
}

func hasTemporalKey(rec types.Record) bool {
	for key := range rec {
		k := strings.ToLower(key)
		if k == types.KeyType || k == types.KeyID {
			continue
		}
		if strings.Contains(k, "date") || strings.Contains(k, "time") || strings.HasSuffix(k, "_at") {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
