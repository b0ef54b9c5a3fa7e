// Package validator checks externally extracted entity and relationship instances
// against the live schema. Problems are reported as data, never as errors.
package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/types"
)

// Issue kinds.
const (
	KindEntity       = "entity"
	KindRelationship = "relationship"
)

// Issue describes why an instance was rejected or flagged.
type Issue struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// Report categorizes every instance into exactly one of valid, invalid or warnings.
type Report struct {
	ValidEntities        []types.Record `json:"valid_entities"`
	InvalidEntities      []Issue        `json:"invalid_entities"`
	ValidRelationships   []types.Record `json:"valid_relationships"`
	InvalidRelationships []Issue        `json:"invalid_relationships"`
	Warnings             []Issue        `json:"warnings"`
}

func newReport() Report {
	return Report{
		ValidEntities:        []types.Record{},
		InvalidEntities:      []Issue{},
		ValidRelationships:   []types.Record{},
		InvalidRelationships: []Issue{},
		Warnings:             []Issue{},
	}
}

// Schema is the read-only view of the schema the validator needs.
type Schema interface {
	LookupEntity(name string) (*schema.EntityType, bool)
	LookupRelationship(name string) (*schema.RelationshipType, bool)
	IsSubtypeOf(name, typ string) bool
}

// Validator validates instances against a schema.
type Validator struct {
	schema Schema
}

// New creates a Validator.
func New(s Schema) *Validator {
	return &Validator{schema: s}
}

// Validate checks entities first, then relationships. Relationship endpoints are
// resolved against the supplied entity list.
func (v *Validator) Validate(entities, relationships []types.Record) Report {
	report := newReport()
	patterns := make(map[string]*regexp.Regexp)

	for _, rec := range entities {
		v.validateEntity(rec, patterns, &report)
	}
	for _, rec := range relationships {
		v.validateRelationship(rec, entities, &report)
	}
	return report
}

func (v *Validator) validateEntity(rec types.Record, patterns map[string]*regexp.Regexp, report *Report) {
	issue := Issue{Kind: KindEntity, ID: rec.ID(), Type: rec.Type()}

	et, ok := v.schema.LookupEntity(issue.Type)
	if !ok {
		issue.Reason = fmt.Sprintf("unknown entity type %q", issue.Type)
		report.InvalidEntities = append(report.InvalidEntities, issue)
		return
	}

	var problems []string
	var missing []string
	for _, attr := range et.RequiredAttributes {
		if !rec.Has(attr) {
			missing = append(missing, attr)
		}
	}
	if len(missing) > 0 {
		problems = append(problems, "missing required attributes: "+strings.Join(missing, ", "))
	}

	attrs := make([]string, 0, len(et.Constraints))
	for attr := range et.Constraints {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)
	for _, attr := range attrs {
		value, present := rec.Get(attr)
		if !present || value == "" {
			continue
		}
		re := compiled(patterns, et.Constraints[attr])
		if re != nil && !re.MatchString(value) {
			problems = append(problems, fmt.Sprintf("attribute %q value %q does not match %s", attr, value, re))
		}
	}

	if len(problems) > 0 {
		issue.Reason = strings.Join(problems, "; ")
		report.Warnings = append(report.Warnings, issue)
		return
	}
	report.ValidEntities = append(report.ValidEntities, rec)
}

func (v *Validator) validateRelationship(rec types.Record, entities []types.Record, report *Report) {
	issue := Issue{Kind: KindRelationship, ID: rec.ID(), Type: rec.Type()}
	if issue.ID == "" {
		issue.ID = rec.Source() + "->" + rec.Target()
	}

	rt, ok := v.schema.LookupRelationship(issue.Type)
	if !ok {
		issue.Reason = fmt.Sprintf("unknown relationship type %q", issue.Type)
		report.InvalidRelationships = append(report.InvalidRelationships, issue)
		return
	}

	var problems []string
	if p := v.checkEndpoint("source", rec.Source(), rt.ValidSources, entities); p != "" {
		problems = append(problems, p)
	}
	if p := v.checkEndpoint("target", rec.Target(), rt.ValidTargets, entities); p != "" {
		problems = append(problems, p)
	}

	if len(problems) > 0 {
		issue.Reason = strings.Join(problems, "; ")
		report.Warnings = append(report.Warnings, issue)
		return
	}
	report.ValidRelationships = append(report.ValidRelationships, rec)
}

// checkEndpoint returns a problem description, or "" when the endpoint is acceptable.
// An empty valid set accepts any type.
func (v *Validator) checkEndpoint(role, id string, valid []string, entities []types.Record) string {
	endpointType, found := lookupType(id, entities)
	if !found {
		return fmt.Sprintf("%s entity %q not found", role, id)
	}
	if len(valid) == 0 {
		return ""
	}
	for _, allowed := range valid {
		if v.schema.IsSubtypeOf(endpointType, allowed) {
			return ""
		}
	}
	return fmt.Sprintf("%s type %q not in [%s]", role, endpointType, strings.Join(valid, ", "))
}

func lookupType(id string, entities []types.Record) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, e := range entities {
		if e.ID() == id {
			return e.Type(), true
		}
	}
	return "", false
}

func compiled(cache map[string]*regexp.Regexp, pattern string) *regexp.Regexp {
	if re, ok := cache[pattern]; ok {
		return re
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	cache[pattern] = re
	return re
}
