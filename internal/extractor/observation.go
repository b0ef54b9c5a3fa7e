// Package extractor scans document text and structured generation context for entity,
// relationship and attribute candidates.
package extractor

import (
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/types"
)

// Entity pattern families.
const (
	FamilyCapitalized  = "capitalized_phrase"
	FamilyIdentifier   = "identifier"
	FamilyTypeOf       = "type_of"
	FamilyDocumentKind = "document_kind"
	FamilyStructured   = "structured_context"
)

// Relationship verb families.
const (
	FamilyControl     = "control"
	FamilyCausal      = "causal"
	FamilyComposition = "composition"
	FamilyDependency  = "dependency"
	FamilyViolation   = "violation"
	FamilyApproval    = "approval"
)

// Attribute phrasings.
const (
	PhrasingPossessive = "possessive"
	PhrasingOf         = "of"
	PhrasingHas        = "has"
)

// EntityObservation is one match of an entity pattern family.
type EntityObservation struct {
	Term       string
	Family     string
	Context    string
	DocumentID string
}

// RelationshipObservation is one (subject, verb, object) triple.
type RelationshipObservation struct {
	Name       string // verb upper-cased, separators replaced by underscores
	Family     string
	Subject    string
	Object     string
	Context    string
	DocumentID string
}

// AttributeObservation is one attribute phrasing. SubjectType is set when the subject
// resolved to an existing entity type; otherwise Subject carries the normalized term so a
// tracked candidate can pick it up.
type AttributeObservation struct {
	SubjectType string
	Subject     string
	Attribute   string
	Phrasing    string
	Context     string
	DocumentID  string
}

// Observations is the unscored output of a single scan.
type Observations struct {
	DocumentID    string
	Entities      []EntityObservation
	Relationships []RelationshipObservation
	Attributes    []AttributeObservation
	Drafts        []*schema.EntityType // entity types synthesized from structured records
}

// Empty reports whether the scan produced nothing.
func (o Observations) Empty() bool {
	return len(o.Entities) == 0 && len(o.Relationships) == 0 && len(o.Attributes) == 0 && len(o.Drafts) == 0
}

// Schema is the read-only view of the schema an extractor needs.
type Schema interface {
	ResolveEntityName(name string) (string, bool)
	ResolveRelationshipName(name string) (string, bool)
	LookupEntity(name string) (*schema.EntityType, bool)
}

// Extractor turns a document and its generation context into observations.
// Implementations must not mutate the schema and must not fail on unmatched input.
type Extractor interface {
	Extract(doc types.Document, ctx types.Context, s Schema) Observations
}
