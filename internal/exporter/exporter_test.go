package exporter

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func seeded(t *testing.T) *schema.Store {
	t.Helper()
	s, err := schema.NewSeededStore(true)
	require.NoError(t, err)
	return s
}

func TestExportUnsupportedFormat(t *testing.T) {
	r := NewRegistry()

	for _, format := range []string{"xml-unsupported", "turtle", ""} {
		out, err := r.Export(format, seeded(t), Options{})
		require.Error(t, err, format)
		assert.Nil(t, out)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))

		var ufe *UnsupportedFormatError
		require.True(t, errors.As(err, &ufe))
		assert.Equal(t, format, ufe.Format)
		assert.Equal(t, []string{"json", "owl"}, ufe.Supported)
	}
}

func TestRegistryInfo(t *testing.T) {
	r := NewRegistry()

	info, ok := r.Info("OWL")
	require.True(t, ok)
	assert.Equal(t, FormatOWL, info.Name)
	assert.Equal(t, ".owl", info.Extension)

	_, ok = r.Info(string(FormatTurtle))
	assert.False(t, ok)
}

func TestExportJSON(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&schema.EntityType{
		Name:              "Vendor Contract",
		Parent:            schema.RootType,
		Discovered:        true,
		Confidence:        0.4,
		DiscoveryPatterns: []string{"capitalized_phrase"},
	}))

	out, err := NewRegistry().Export("json", s, Options{Mode: config.ModeHybrid, Now: fixedNow})
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "hybrid", doc.Metadata.Mode)
	assert.True(t, doc.Metadata.ExportedAt.Equal(fixedNow()))
	assert.Equal(t, 11, doc.Metadata.Entities)
	assert.Equal(t, 1, doc.Metadata.DiscoveredEntities)
	assert.Equal(t, 5, doc.Metadata.Relationships)
	assert.Equal(t, 0, doc.Metadata.DiscoveredRelationships)

	vc := doc.EntityTypes["Vendor Contract"]
	require.NotNil(t, vc)
	assert.True(t, vc.Discovered)
	assert.InDelta(t, 0.4, vc.Confidence, 1e-9)

	require.Len(t, doc.Hierarchy, 1)
	assert.Equal(t, schema.RootType, doc.Hierarchy[0].Name)
}

func TestExportJSONKeys(t *testing.T) {
	out, err := NewRegistry().Export("json", seeded(t), Options{Mode: config.ModeStrict, Now: fixedNow})
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &raw))
	for _, key := range []string{"metadata", "entity_types", "relationship_types", "hierarchy"} {
		assert.Contains(t, raw, key)
	}

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["metadata"], &meta))
	assert.Equal(t, "strict", meta["mode"])
	assert.Contains(t, meta, "export_timestamp")
	assert.Contains(t, meta, "total_entities")
}

func TestImportJSONRoundTrip(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&schema.EntityType{Name: "Vendor", Parent: "Organization", Discovered: true}))
	require.NoError(t, s.AddRelationshipType(&schema.RelationshipType{
		Name:         "SUPPLIES",
		ValidSources: []string{"Vendor"},
		ValidTargets: []string{"Store"},
		Cardinality:  schema.ManyToMany,
		Discovered:   true,
	}))

	out, err := NewRegistry().Export("json", s, Options{Mode: config.ModeHybrid, Pretty: true})
	require.NoError(t, err)

	restored, meta, err := ImportJSON(out)
	require.NoError(t, err)
	assert.Equal(t, "hybrid", meta.Mode)
	assert.Equal(t, s.Counts(), restored.Counts())
	assert.True(t, restored.IsSubtypeOf("Vendor", schema.RootType))

	rt, ok := restored.LookupRelationship("SUPPLIES")
	require.True(t, ok)
	assert.Equal(t, []string{"Vendor"}, rt.ValidSources)

	et, ok := restored.LookupEntity("Employee")
	require.True(t, ok)
	assert.Equal(t, "Person", et.Parent)
	assert.Equal(t, `^EMP\d+$`, et.Constraints["id"])
}

func TestImportJSONErrors(t *testing.T) {
	_, _, err := ImportJSON([]byte("{not json"))
	assert.Error(t, err)

	orphan := `{"entity_types": {"Vendor": {"name": "Vendor", "parent": "Missing"}}}`
	_, _, err = ImportJSON([]byte(orphan))
	assert.Error(t, err)

	cyclic := `{"entity_types": {
		"A": {"name": "A", "parent": "B"},
		"B": {"name": "B", "parent": "A"}}}`
	_, _, err = ImportJSON([]byte(cyclic))
	assert.Error(t, err)
}

func TestExportOWL(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&schema.EntityType{Name: "Safety Audit", Parent: "Document", Discovered: true, Confidence: 0.3}))
	require.NoError(t, s.AddRelationshipType(&schema.RelationshipType{
		Name:         "R&D_OWNS",
		ValidSources: []string{"Organization"},
		ValidTargets: []string{"Safety Audit"},
	}))

	out, err := NewRegistry().Export("owl", s, Options{BaseIRI: "http://example.org/onto#"})
	require.NoError(t, err)
	owl := string(out)

	assert.True(t, strings.HasPrefix(owl, `<?xml version="1.0"`))
	assert.Contains(t, owl, `<owl:Ontology rdf:about="http://example.org/onto"/>`)
	assert.Contains(t, owl, `<owl:Class rdf:about="http://example.org/onto#Safety_Audit">`)
	assert.Contains(t, owl, `<rdfs:subClassOf rdf:resource="http://example.org/onto#Document"/>`)
	assert.Contains(t, owl, `<rdfs:label>Safety Audit</rdfs:label>`)
	assert.Contains(t, owl, `<owl:ObjectProperty rdf:about="http://example.org/onto#R&amp;D_OWNS">`)
	assert.Contains(t, owl, `<rdfs:domain rdf:resource="http://example.org/onto#Organization"/>`)
	assert.Contains(t, owl, `<rdfs:range rdf:resource="http://example.org/onto#Safety_Audit"/>`)
	assert.Equal(t, 1, strings.Count(owl, "rdf:about=\"http://example.org/onto#Entity\""))
}

func TestExportOWLDefaultBase(t *testing.T) {
	out, err := NewRegistry().Export("owl", seeded(t), Options{})
	require.NoError(t, err)
	assert.Contains(t, string(out), DefaultBaseIRI+"Person")
}

func TestIRIName(t *testing.T) {
	assert.Equal(t, "Safety_Audit", IRIName("Safety Audit"))
	assert.Equal(t, "A_B", IRIName("  A   B "))
	assert.Equal(t, "WORKS_AT", IRIName("WORKS_AT"))
}

func TestGenerateExtractionRules(t *testing.T) {
	s := seeded(t)
	require.NoError(t, s.AddEntityType(&schema.EntityType{
		Name:               "Vendor",
		Parent:             schema.RootType,
		OptionalAttributes: []string{"region"},
		Discovered:         true,
		DiscoveryPatterns:  []string{"type_of", "capitalized_phrase"},
	}))

	rules := GenerateExtractionRules(s)

	emp := rules.EntityRules["Employee"]
	assert.Equal(t, "Person", emp.Parent)
	assert.Equal(t, []string{"id", "name"}, emp.RequiredKeys)
	assert.Contains(t, emp.OptionalKeys, "store_id")
	assert.Equal(t, `^EMP\d+$`, emp.Constraints["id"])
	assert.NotNil(t, emp.Patterns)

	vendor := rules.EntityRules["Vendor"]
	assert.Equal(t, []string{"capitalized_phrase", "type_of"}, vendor.Patterns)
	assert.Empty(t, vendor.RequiredKeys)
	assert.NotNil(t, vendor.RequiredKeys)

	works := rules.RelationshipRules["WORKS_AT"]
	assert.Equal(t, []string{"Employee"}, works.ValidSources)
	assert.Equal(t, []string{"Store"}, works.ValidTargets)
	assert.Equal(t, "many-to-one", works.Cardinality)
	assert.NotNil(t, works.Attributes)

	assert.Len(t, rules.EntityRules, 11)
	assert.Len(t, rules.RelationshipRules, 5)
}
