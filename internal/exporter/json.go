package exporter

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dbsmedya/ontoforge/internal/graph"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

// Metadata is the header of a JSON export.
type Metadata struct {
	Mode       string    `json:"mode"`
	ExportedAt time.Time `json:"export_timestamp"`
	schema.Counts
}

// Document is the JSON form of the schema.
type Document struct {
	Metadata          Metadata                            `json:"metadata"`
	EntityTypes       map[string]*schema.EntityType       `json:"entity_types"`
	RelationshipTypes map[string]*schema.RelationshipType `json:"relationship_types"`
	Hierarchy         []*graph.TreeNode                   `json:"hierarchy"`
}

// BuildDocument assembles the JSON form of the store.
func BuildDocument(s *schema.Store, opts Options) Document {
	doc := Document{
		Metadata: Metadata{
			Mode:       string(opts.Mode),
			ExportedAt: opts.now(),
			Counts:     s.Counts(),
		},
		EntityTypes:       make(map[string]*schema.EntityType),
		RelationshipTypes: make(map[string]*schema.RelationshipType),
		Hierarchy:         s.Hierarchy(),
	}
	for _, et := range s.EntityTypes() {
		doc.EntityTypes[et.Name] = et
	}
	for _, rt := range s.RelationshipTypes() {
		doc.RelationshipTypes[rt.Name] = rt
	}
	return doc
}

type jsonSerializer struct{}

func (jsonSerializer) Info() FormatInfo {
	return FormatInfo{
		Name:        FormatJSON,
		MIMEType:    "application/json",
		Extension:   ".json",
		Description: "JSON schema dump with metadata and hierarchy tree",
	}
}

func (jsonSerializer) Serialize(s *schema.Store, opts Options) ([]byte, error) {
	doc := BuildDocument(s, opts)
	if opts.Pretty {
		return json.MarshalIndent(doc, "", "  ")
	}
	return json.Marshal(doc)
}

// ImportJSON rebuilds a store from the JSON form. Types are loaded parents first with
// names sorted, so repeated imports of the same document produce the same store.
func ImportJSON(data []byte) (*schema.Store, Metadata, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to parse schema document: %w", err)
	}

	entities := make([]*schema.EntityType, 0, len(doc.EntityTypes))
	for name, et := range doc.EntityTypes {
		if et == nil {
			return nil, Metadata{}, fmt.Errorf("entity type %q has no definition", name)
		}
		if et.Name == "" {
			et.Name = name
		}
		entities = append(entities, et)
	}
	entities = orderParentsFirst(entities)

	relNames := make([]string, 0, len(doc.RelationshipTypes))
	for name := range doc.RelationshipTypes {
		relNames = append(relNames, name)
	}
	sort.Strings(relNames)
	relationships := make([]*schema.RelationshipType, 0, len(relNames))
	for _, name := range relNames {
		rt := doc.RelationshipTypes[name]
		if rt == nil {
			return nil, Metadata{}, fmt.Errorf("relationship type %q has no definition", name)
		}
		if rt.Name == "" {
			rt.Name = name
		}
		relationships = append(relationships, rt)
	}

	s, err := schema.Load(entities, relationships)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("failed to load schema document: %w", err)
	}
	return s, doc.Metadata, nil
}

// orderParentsFirst sorts by name, then moves every type after its parent. Types whose
// parent is missing or cyclic keep their sorted position; Load reports them.
func orderParentsFirst(entities []*schema.EntityType) []*schema.EntityType {
	sort.Slice(entities, func(i, j int) bool { return entities[i].Name < entities[j].Name })

	defs := make([]graph.Definition, 0, len(entities))
	byName := make(map[string]*schema.EntityType, len(entities))
	for _, et := range entities {
		byName[et.Name] = et
		defs = append(defs, graph.Definition{Name: et.Name, Parent: et.Parent})
	}
	g, err := graph.BuildFromDefinitions(defs)
	if err != nil {
		return entities
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return entities
	}

	out := make([]*schema.EntityType, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out
}
