package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dbsmedya/ontoforge/internal/types"
)

// DefaultContextRadius is used when a negative radius is configured. A zero radius
// keeps only the matched text as context.
const DefaultContextRadius = 100

// PatternExtractor is the lexical Extractor: a fixed set of regular expression families
// over the document text plus the structured-context draft path. It is stateless and
// safe for concurrent use.
type PatternExtractor struct {
	radius int
}

// NewPatternExtractor creates a PatternExtractor with the given context radius in bytes.
func NewPatternExtractor(radius int) *PatternExtractor {
	if radius < 0 {
		radius = DefaultContextRadius
	}
	return &PatternExtractor{radius: radius}
}

var _ Extractor = (*PatternExtractor)(nil)

// Extract scans doc and ctx. Terms already present in the schema are discarded.
func (p *PatternExtractor) Extract(doc types.Document, ctx types.Context, s Schema) Observations {
	docID := ctx.DocumentID
	if docID == "" {
		docID = doc.ID
	}

	// cases.Caser is stateful, so each scan gets its own.
	caser := cases.Title(language.English, cases.NoLower)

	obs := Observations{DocumentID: docID}
	obs.Entities = p.scanEntities(doc.Content, docID, caser, s)
	obs.Relationships = p.scanRelationships(doc.Content, docID, s)
	obs.Attributes = p.scanAttributes(doc.Content, docID, caser, s)
	obs.Drafts = draftsFromRecords(ctx.EntitiesGenerated, docID, s)
	return obs
}

func (p *PatternExtractor) scanEntities(text, docID string, caser cases.Caser, s Schema) []EntityObservation {
	var result []EntityObservation
	for _, pat := range entityPatterns {
		for _, m := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[2*pat.group], m[2*pat.group+1]
			if start < 0 {
				continue
			}

			var term string
			if pat.family == FamilyIdentifier {
				term = text[start:end]
			} else {
				term = normalizeTerm(text[start:end], caser)
			}
			if term == "" {
				continue
			}
			if pat.family == FamilyDocumentKind && !strings.Contains(term, " ") {
				continue
			}
			if _, exists := s.ResolveEntityName(term); exists {
				continue
			}

			result = append(result, EntityObservation{
				Term:       term,
				Family:     pat.family,
				Context:    window(text, start, end, p.radius),
				DocumentID: docID,
			})
		}
	}
	return result
}

func (p *PatternExtractor) scanRelationships(text, docID string, s Schema) []RelationshipObservation {
	var result []RelationshipObservation
	for _, pat := range relationshipPatterns {
		for _, m := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			subject := text[m[2]:m[3]]
			verb := text[m[4]:m[5]]
			object := text[m[6]:m[7]]

			name := RelationshipName(verb)
			if _, exists := s.ResolveRelationshipName(name); exists {
				continue
			}

			result = append(result, RelationshipObservation{
				Name:       name,
				Family:     pat.family,
				Subject:    subject,
				Object:     object,
				Context:    window(text, m[0], m[1], p.radius),
				DocumentID: docID,
			})
		}
	}
	return result
}

func (p *PatternExtractor) scanAttributes(text, docID string, caser cases.Caser, s Schema) []AttributeObservation {
	var result []AttributeObservation
	for _, pat := range attributePatterns {
		for _, m := range pat.re.FindAllStringSubmatchIndex(text, -1) {
			subject := normalizeTerm(text[m[2*pat.subjectGroup]:m[2*pat.subjectGroup+1]], caser)
			attr := AttributeName(text[m[2*pat.attrGroup]:m[2*pat.attrGroup+1]])
			if subject == "" || attr == "" {
				continue
			}

			obs := AttributeObservation{
				Subject:    subject,
				Attribute:  attr,
				Phrasing:   pat.phrasing,
				Context:    window(text, m[0], m[1], p.radius),
				DocumentID: docID,
			}
			if typeName, ok := s.ResolveEntityName(subject); ok {
				et, _ := s.LookupEntity(typeName)
				if et != nil && et.HasAttribute(attr) {
					continue
				}
				obs.SubjectType = typeName
			}
			result = append(result, obs)
		}
	}
	return result
}

// RelationshipName upper-cases a verb phrase and joins its words with underscores.
func RelationshipName(verb string) string {
	fields := strings.FieldsFunc(verb, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-' || r == '_'
	})
	return strings.ToUpper(strings.Join(fields, "_"))
}

// AttributeName lower-cases an attribute phrase and joins its words with underscores.
func AttributeName(attr string) string {
	return strings.ToLower(strings.Join(strings.Fields(attr), "_"))
}

// normalizeTerm collapses whitespace, drops leading determiners from multi-word terms
// and title-cases each word.
func normalizeTerm(term string, caser cases.Caser) string {
	words := strings.Fields(term)
	for len(words) > 1 && leadingWords[strings.ToLower(words[0])] {
		words = words[1:]
	}
	if len(words) == 1 && leadingWords[strings.ToLower(words[0])] {
		return ""
	}
	return caser.String(strings.Join(words, " "))
}

// window returns the text within radius bytes of [start, end), widened to rune
// boundaries, with whitespace collapsed.
func window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}
