package extractor

import "regexp"

const (
	// subject of attribute phrasings: a word optionally followed by capitalized words
	subjectExpr = `([A-Za-z][A-Za-z0-9]*(?:[ \t]+[A-Z][A-Za-z0-9]*)*)`
	tokenExpr   = `([A-Za-z][A-Za-z0-9_-]*)`
	articleExpr = `(?:(?:the|a|an)[ \t]+)?`
	// determinerExpr keeps "the audit report" from matching as "the audit"
	determinerExpr = `(?:(?:the|a|an|this|that|these|those|our|your|their|its|each|every|any)[ \t]+)?`
)

type entityPattern struct {
	family string
	re     *regexp.Regexp
	group  int // capture group holding the term; 0 is the whole match
}

var entityPatterns = []entityPattern{
	{family: FamilyCapitalized, re: regexp.MustCompile(`\b[A-Z][a-z]+(?:[ \t]+[A-Z][a-z]+)+\b`)},
	{family: FamilyIdentifier, re: regexp.MustCompile(`\b[A-Z]{2,}[-_]?[0-9]+(?:[-_][0-9]+)*\b`)},
	{family: FamilyTypeOf, re: regexp.MustCompile(`(?i)\btype[ \t]+of[ \t]+` + articleExpr + `([a-z][a-z-]*)`), group: 1},
	{family: FamilyDocumentKind, re: regexp.MustCompile(`(?i)\b` + determinerExpr + `([a-z][a-z-]*[ \t]+(?:report|document|form|audit|assessment))s?\b`), group: 1},
}

type relationshipPattern struct {
	family string
	re     *regexp.Regexp
}

func verbPattern(verbs string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + tokenExpr + `[ \t]+(` + verbs + `)[ \t]+` + articleExpr + tokenExpr)
}

var relationshipPatterns = []relationshipPattern{
	{family: FamilyControl, re: verbPattern(`manages|managed|manage|oversees|oversaw|oversee|controls|controlled|control|owns|owned|own`)},
	{family: FamilyCausal, re: verbPattern(`triggers|triggered|trigger|causes|caused|cause|leads[ \t]+to|led[ \t]+to|lead[ \t]+to|results[ \t]+in|resulted[ \t]+in|result[ \t]+in`)},
	{family: FamilyComposition, re: verbPattern(`includes|included|include|contains|contained|contain|comprises|comprised|comprise`)},
	{family: FamilyDependency, re: verbPattern(`requires|required|require|depends[ \t]+on|depended[ \t]+on|depend[ \t]+on|needs|needed|need`)},
	{family: FamilyViolation, re: verbPattern(`violates|violated|violate|breaches|breached|breach|fails|failed|fail`)},
	{family: FamilyApproval, re: verbPattern(`approves|approved|approve|authori[sz]es|authori[sz]ed|authori[sz]e|signs[ \t-]+off|signed[ \t-]+off|sign[ \t-]+off`)},
}

type attributePattern struct {
	phrasing     string
	re           *regexp.Regexp
	subjectGroup int
	attrGroup    int
}

var attributePatterns = []attributePattern{
	{
		phrasing:     PhrasingPossessive,
		re:           regexp.MustCompile(subjectExpr + `'s[ \t]+([a-z][a-z0-9_]*)`),
		subjectGroup: 1,
		attrGroup:    2,
	},
	{
		phrasing:     PhrasingOf,
		re:           regexp.MustCompile(`\b[Tt]he[ \t]+([a-z][a-z0-9_]*)[ \t]+of[ \t]+` + `(?:(?:the|a|an|each|every)[ \t]+)?` + subjectExpr),
		subjectGroup: 2,
		attrGroup:    1,
	},
	{
		phrasing:     PhrasingHas,
		re:           regexp.MustCompile(subjectExpr + `[ \t]+has[ \t]+` + `(?:(?:a|an|the|no)[ \t]+)?` + `([a-z][a-z0-9_]*)`),
		subjectGroup: 1,
		attrGroup:    2,
	},
}

// leadingWords are dropped from the front of multi-word terms ("The Vendor Portal").
var leadingWords = map[string]bool{
	"the": true, "a": true, "an": true, "this": true, "that": true, "these": true,
	"those": true, "our": true, "your": true, "their": true, "its": true, "each": true,
	"every": true, "any": true, "all": true, "no": true, "new": true, "final": true,
}
