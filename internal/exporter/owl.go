package exporter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"text/template"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

// DefaultBaseIRI is used when Options.BaseIRI is empty.
const DefaultBaseIRI = "http://ontoforge.local/ontology#"

type owlClass struct {
	ID      string
	Label   string
	Parent  string
	Comment string
}

type owlProperty struct {
	ID      string
	Label   string
	Domains []string
	Ranges  []string
}

type owlModel struct {
	BaseIRI    string
	Ontology   string
	Classes    []owlClass
	Properties []owlProperty
}

var owlTemplate = template.Must(template.New("owl").Funcs(template.FuncMap{
	"xml": xmlEscape,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns:rdfs="http://www.w3.org/2000/01/rdf-schema#"
         xmlns:owl="http://www.w3.org/2002/07/owl#"
         xml:base="{{xml .BaseIRI}}">
  <owl:Ontology rdf:about="{{xml .Ontology}}"/>
{{range .Classes}}
  <owl:Class rdf:about="{{xml $.BaseIRI}}{{xml .ID}}">
    <rdfs:label>{{xml .Label}}</rdfs:label>
{{- if .Parent}}
    <rdfs:subClassOf rdf:resource="{{xml $.BaseIRI}}{{xml .Parent}}"/>
{{- end}}
{{- if .Comment}}
    <rdfs:comment>{{xml .Comment}}</rdfs:comment>
{{- end}}
  </owl:Class>
{{end}}
{{- range .Properties}}
  <owl:ObjectProperty rdf:about="{{xml $.BaseIRI}}{{xml .ID}}">
    <rdfs:label>{{xml .Label}}</rdfs:label>
{{- range .Domains}}
    <rdfs:domain rdf:resource="{{xml $.BaseIRI}}{{xml .}}"/>
{{- end}}
{{- range .Ranges}}
    <rdfs:range rdf:resource="{{xml $.BaseIRI}}{{xml .}}"/>
{{- end}}
  </owl:ObjectProperty>
{{end}}
</rdf:RDF>
`))

type owlSerializer struct{}

func (owlSerializer) Info() FormatInfo {
	return FormatInfo{
		Name:        FormatOWL,
		MIMEType:    "application/rdf+xml",
		Extension:   ".owl",
		Description: "OWL classes and object properties in RDF/XML",
	}
}

func (owlSerializer) Serialize(s *schema.Store, opts Options) ([]byte, error) {
	base := opts.BaseIRI
	if base == "" {
		base = DefaultBaseIRI
	}

	model := owlModel{
		BaseIRI:  base,
		Ontology: strings.TrimRight(base, "#/"),
	}
	for _, et := range s.EntityTypes() {
		c := owlClass{ID: IRIName(et.Name), Label: et.Name}
		if et.Parent != "" {
			c.Parent = IRIName(et.Parent)
		}
		if et.Discovered {
			c.Comment = fmt.Sprintf("discovered (confidence %.2f)", et.Confidence)
		}
		model.Classes = append(model.Classes, c)
	}
	for _, rt := range s.RelationshipTypes() {
		p := owlProperty{ID: IRIName(rt.Name), Label: rt.Name}
		for _, src := range rt.ValidSources {
			p.Domains = append(p.Domains, IRIName(src))
		}
		for _, dst := range rt.ValidTargets {
			p.Ranges = append(p.Ranges, IRIName(dst))
		}
		model.Properties = append(model.Properties, p)
	}

	var buf bytes.Buffer
	if err := owlTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("failed to render owl: %w", err)
	}
	return buf.Bytes(), nil
}

// IRIName makes a type name usable as an IRI fragment.
func IRIName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

func xmlEscape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
