// Package promotion turns tracked candidates into permanent schema entries according to
// the configured discovery mode and thresholds.
package promotion

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/tracker"
)

// maxSourceTargets is how many of the most frequent subject/object tokens feed a
// relationship's valid source and target sets.
const maxSourceTargets = 3

// Thresholds are the minimum candidate counts required for promotion.
type Thresholds struct {
	Entity       int
	Relationship int
	Attribute    int
}

// Recorder receives promotion events, typically for metrics.
type Recorder interface {
	CandidatePromoted(kind string)
	ProposalRaised(kind string)
}

// Options configures an Engine.
type Options struct {
	Mode        config.Mode
	Thresholds  Thresholds
	MaxExamples int
	Recorder    Recorder
}

// Engine applies the promotion policy. It is the single writer of discovered entries in
// the schema store; calls are serialized.
type Engine struct {
	mu          sync.Mutex
	mode        config.Mode
	thresholds  Thresholds
	maxExamples int
	store       *schema.Store
	tracker     *tracker.Tracker
	recorder    Recorder
	log         *logger.Logger
	proposals   *orderedmap.OrderedMap[string, *Proposal]
}

// New creates an Engine over store and tracker. A nil log falls back to the default logger.
func New(store *schema.Store, tr *tracker.Tracker, opts Options, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewDefault()
	}
	if opts.Thresholds.Entity < 1 {
		opts.Thresholds.Entity = 1
	}
	if opts.Thresholds.Relationship < 1 {
		opts.Thresholds.Relationship = 1
	}
	if opts.Thresholds.Attribute < 1 {
		opts.Thresholds.Attribute = 1
	}
	return &Engine{
		mode:        opts.Mode,
		thresholds:  opts.Thresholds,
		maxExamples: opts.MaxExamples,
		store:       store,
		tracker:     tr,
		recorder:    opts.Recorder,
		log:         log.WithMode(opts.Mode),
		proposals:   orderedmap.NewOrderedMap[string, *Proposal](),
	}
}

// Mode returns the discovery mode the engine was built with.
func (e *Engine) Mode() config.Mode {
	return e.mode
}

// Confidence is the promotion confidence for a candidate count: min(1, count/10).
func Confidence(count int) float64 {
	c := float64(count) / 10
	if c > 1 {
		return 1
	}
	if c < 0 {
		return 0
	}
	return c
}

// Process evaluates the candidates touched by one document plus the structured drafts
// extracted from it. Strict mode always returns an empty report.
func (e *Engine) Process(upd tracker.Update, drafts []*schema.EntityType) Discoveries {
	d := NewDiscoveries()
	if e.mode == config.ModeStrict {
		return d
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, draft := range drafts {
		e.handleDraft(draft, &d)
	}
	for _, name := range upd.Entities {
		if c, ok := e.tracker.Entity(name); ok {
			e.evaluateEntity(c, &d)
		}
	}
	for _, key := range upd.Attributes {
		if c, ok := e.tracker.Attribute(key); ok {
			e.evaluateAttribute(c, &d)
		}
	}
	for _, name := range upd.Relationships {
		if c, ok := e.tracker.Relationship(name); ok {
			e.evaluateRelationship(c, &d)
		}
	}
	return d
}

// Evaluate re-runs the promotion pass over every tracked candidate.
func (e *Engine) Evaluate() Discoveries {
	d := NewDiscoveries()
	if e.mode == config.ModeStrict {
		return d
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, c := range e.tracker.Entities() {
		e.evaluateEntity(c, &d)
	}
	for _, c := range e.tracker.Attributes() {
		e.evaluateAttribute(c, &d)
	}
	for _, c := range e.tracker.Relationships() {
		e.evaluateRelationship(c, &d)
	}
	return d
}

func (e *Engine) handleDraft(draft *schema.EntityType, d *Discoveries) {
	if _, exists := e.store.ResolveEntityName(draft.Name); exists {
		return
	}
	if e.mode == config.ModeGuided {
		e.propose(&Proposal{
			Kind:     KindEntity,
			Name:     draft.Name,
			Count:    1,
			Patterns: append([]string{}, draft.DiscoveryPatterns...),
			entity:   draft,
		}, d)
		return
	}
	e.commitEntity(draft, d)
}

func (e *Engine) evaluateEntity(c tracker.EntityCandidate, d *Discoveries) {
	if c.Count < e.thresholds.Entity {
		return
	}
	if _, exists := e.store.ResolveEntityName(c.Name); exists {
		return
	}

	et := e.synthesizeEntity(c)
	if e.mode == config.ModeGuided {
		e.propose(&Proposal{
			Kind:          KindEntity,
			Name:          c.Name,
			Count:         c.Count,
			Patterns:      c.Patterns,
			SampleContext: lastContext(c.Contexts),
			entity:        et,
		}, d)
		return
	}
	e.commitEntity(et, d)
}

func (e *Engine) synthesizeEntity(c tracker.EntityCandidate) *schema.EntityType {
	attrs := make([]string, 0, len(c.Attributes))
	for attr := range c.Attributes {
		attrs = append(attrs, attr)
	}
	sort.Strings(attrs)

	parent := ""
	if root, ok := e.store.ResolveEntityName(schema.RootType); ok {
		parent = root
	}

	examples := c.Documents
	if len(examples) > e.maxExamples {
		examples = examples[:e.maxExamples]
	}

	return &schema.EntityType{
		Name:               c.Name,
		Parent:             parent,
		RequiredAttributes: []string{},
		OptionalAttributes: attrs,
		Constraints:        map[string]string{},
		Discovered:         true,
		Confidence:         Confidence(c.Count),
		Examples:           examples,
		DiscoveryPatterns:  c.Patterns,
	}
}

func (e *Engine) commitEntity(et *schema.EntityType, d *Discoveries) bool {
	if err := e.store.AddEntityType(et); err != nil {
		e.log.WithCandidate(string(KindEntity), et.Name).Warnw("entity promotion rejected", "error", err)
		return false
	}
	e.log.WithCandidate(string(KindEntity), et.Name).Infow("promoted entity type",
		"parent", et.Parent,
		"confidence", et.Confidence,
		"patterns", et.DiscoveryPatterns,
	)
	d.NewEntityTypes = appendUnique(d.NewEntityTypes, et.Name)
	d.PatternUpdates[et.Name] = append([]string{}, et.DiscoveryPatterns...)
	if e.recorder != nil {
		e.recorder.CandidatePromoted(string(KindEntity))
	}
	return true
}

func (e *Engine) evaluateAttribute(c tracker.AttributeCandidate, d *Discoveries) {
	if c.Count < e.thresholds.Attribute {
		return
	}
	et, ok := e.store.LookupEntity(c.EntityType)
	if !ok || et.HasAttribute(c.Attribute) {
		return
	}

	if e.mode == config.ModeGuided {
		e.propose(&Proposal{
			Kind:          KindAttribute,
			Name:          c.Attribute,
			TargetType:    c.EntityType,
			Count:         c.Count,
			Patterns:      c.Patterns,
			SampleContext: lastContext(c.Contexts),
		}, d)
		return
	}
	e.commitAttribute(c.EntityType, c.Attribute, d)
}

func (e *Engine) commitAttribute(typeName, attr string, d *Discoveries) bool {
	et, ok := e.store.LookupEntity(typeName)
	if !ok {
		e.log.WithCandidate(string(KindAttribute), attr).Warnw("attribute target type vanished", "type", typeName)
		return false
	}
	if et.HasAttribute(attr) {
		return false
	}
	et.OptionalAttributes = append(et.OptionalAttributes, attr)
	if err := e.store.AddEntityType(et); err != nil {
		e.log.WithCandidate(string(KindAttribute), attr).Warnw("attribute promotion rejected", "type", typeName, "error", err)
		return false
	}

	e.log.WithCandidate(string(KindAttribute), attr).Infow("promoted attribute", "type", typeName)
	d.NewAttributes[typeName] = appendUnique(d.NewAttributes[typeName], attr)
	if e.recorder != nil {
		e.recorder.CandidatePromoted(string(KindAttribute))
	}
	return true
}

func (e *Engine) evaluateRelationship(c tracker.RelationshipCandidate, d *Discoveries) {
	if c.Count < e.thresholds.Relationship {
		return
	}
	if _, exists := e.store.ResolveRelationshipName(c.Name); exists {
		return
	}

	rt := e.synthesizeRelationship(c)
	if e.mode == config.ModeGuided {
		e.propose(&Proposal{
			Kind:          KindRelationship,
			Name:          c.Name,
			Count:         c.Count,
			Patterns:      c.Patterns,
			SampleContext: lastContext(c.Contexts),
			relationship:  rt,
		}, d)
		return
	}
	e.commitRelationship(rt, d)
}

func (e *Engine) synthesizeRelationship(c tracker.RelationshipCandidate) *schema.RelationshipType {
	pairs := c.Pairs
	if len(pairs) > e.maxExamples {
		pairs = pairs[:e.maxExamples]
	}
	return &schema.RelationshipType{
		Name:         c.Name,
		ValidSources: e.resolveTokens(tracker.TopTokens(c.Sources, maxSourceTargets)),
		ValidTargets: e.resolveTokens(tracker.TopTokens(c.Targets, maxSourceTargets)),
		Cardinality:  schema.ManyToMany,
		Attributes:   []string{},
		Discovered:   true,
		Confidence:   Confidence(c.Count),
		Examples:     pairs,
	}
}

// resolveTokens maps raw lexical tokens onto entity type names. Unresolvable tokens are
// dropped; an empty result becomes the universal root when it exists.
func (e *Engine) resolveTokens(tokens []string) []string {
	resolved := []string{}
	for _, tok := range tokens {
		name, ok := e.store.ResolveEntityName(tok)
		if !ok {
			name, ok = e.store.ResolveEntityName(strings.TrimSuffix(tok, "s"))
		}
		if ok {
			resolved = appendUnique(resolved, name)
		}
	}
	if len(resolved) == 0 {
		if root, ok := e.store.ResolveEntityName(schema.RootType); ok {
			resolved = append(resolved, root)
		}
	}
	return resolved
}

func (e *Engine) commitRelationship(rt *schema.RelationshipType, d *Discoveries) bool {
	if err := e.store.AddRelationshipType(rt); err != nil {
		e.log.WithCandidate(string(KindRelationship), rt.Name).Warnw("relationship promotion rejected", "error", err)
		return false
	}
	e.log.WithCandidate(string(KindRelationship), rt.Name).Infow("promoted relationship type",
		"sources", rt.ValidSources,
		"targets", rt.ValidTargets,
		"confidence", rt.Confidence,
	)
	d.NewRelationshipTypes = appendUnique(d.NewRelationshipTypes, rt.Name)
	if e.recorder != nil {
		e.recorder.CandidatePromoted(string(KindRelationship))
	}
	return true
}

// propose records or refreshes a pending proposal. Rejected and approved proposals are
// left alone.
func (e *Engine) propose(p *Proposal, d *Discoveries) {
	id := p.ID()
	if existing, ok := e.proposals.Get(id); ok {
		if existing.Status != StatusPending {
			return
		}
		p.Status = StatusPending
		e.proposals.Set(id, p)
		d.Proposals = append(d.Proposals, p.public())
		return
	}

	p.Status = StatusPending
	e.proposals.Set(id, p)
	d.Proposals = append(d.Proposals, p.public())
	e.log.WithCandidate(string(p.Kind), p.Key()).Infow("proposal raised", "count", p.Count)
	if e.recorder != nil {
		e.recorder.ProposalRaised(string(p.Kind))
	}
}

// public returns a copy safe to hand out.
func (p *Proposal) public() Proposal {
	c := *p
	c.Patterns = append([]string{}, p.Patterns...)
	c.entity = nil
	c.relationship = nil
	return c
}

// Proposals returns every proposal in the order it was first raised.
func (e *Engine) Proposals() []Proposal {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Proposal, 0, e.proposals.Len())
	for el := e.proposals.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.public())
	}
	return out
}

// ApproveProposal commits a pending proposal through the regular promotion path. For
// attribute proposals name is "<type>.<attribute>".
func (e *Engine) ApproveProposal(kind Kind, name string) (Discoveries, error) {
	d := NewDiscoveries()
	if e.mode == config.ModeStrict {
		return d, ErrDiscoveryDisabled
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals.Get(proposalID(kind, name))
	if !ok || p.Status != StatusPending {
		return d, fmt.Errorf("%w: %s %q", ErrProposalNotFound, kind, name)
	}

	var committed bool
	switch p.Kind {
	case KindEntity:
		if c, tracked := e.tracker.Entity(p.Name); tracked {
			p.entity = e.synthesizeEntity(c)
		}
		committed = e.commitEntity(p.entity, &d)
	case KindRelationship:
		if c, tracked := e.tracker.Relationship(p.Name); tracked {
			p.relationship = e.synthesizeRelationship(c)
		}
		committed = e.commitRelationship(p.relationship, &d)
	case KindAttribute:
		committed = e.commitAttribute(p.TargetType, p.Name, &d)
	}
	if !committed {
		return d, fmt.Errorf("failed to commit %s %q", kind, name)
	}

	p.Status = StatusApproved
	return d, nil
}

// RejectProposal marks a pending proposal rejected; it will not be raised again.
func (e *Engine) RejectProposal(kind Kind, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.proposals.Get(proposalID(kind, name))
	if !ok || p.Status != StatusPending {
		return fmt.Errorf("%w: %s %q", ErrProposalNotFound, kind, name)
	}
	p.Status = StatusRejected
	e.log.WithCandidate(string(kind), name).Infow("proposal rejected")
	return nil
}

// Pending is a tracked candidate that has not been promoted yet.
type Pending struct {
	Kind       Kind   `json:"kind"`
	Name       string `json:"name"`
	TargetType string `json:"target_type,omitempty"`
	Count      int    `json:"count"`
	Threshold  int    `json:"threshold"`
}

// Ready reports whether the candidate has reached its threshold.
func (p Pending) Ready() bool {
	return p.Count >= p.Threshold
}

// PendingPromotions lists tracked candidates that are not in the schema yet, entities
// first, then relationships, then attributes.
func (e *Engine) PendingPromotions() []Pending {
	var out []Pending
	for _, c := range e.tracker.Entities() {
		if _, exists := e.store.ResolveEntityName(c.Name); !exists {
			out = append(out, Pending{Kind: KindEntity, Name: c.Name, Count: c.Count, Threshold: e.thresholds.Entity})
		}
	}
	for _, c := range e.tracker.Relationships() {
		if _, exists := e.store.ResolveRelationshipName(c.Name); !exists {
			out = append(out, Pending{Kind: KindRelationship, Name: c.Name, Count: c.Count, Threshold: e.thresholds.Relationship})
		}
	}
	for _, c := range e.tracker.Attributes() {
		et, ok := e.store.LookupEntity(c.EntityType)
		if ok && !et.HasAttribute(c.Attribute) {
			out = append(out, Pending{
				Kind:       KindAttribute,
				Name:       c.Attribute,
				TargetType: c.EntityType,
				Count:      c.Count,
				Threshold:  e.thresholds.Attribute,
			})
		}
	}
	return out
}

// Reset drops all proposals.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.proposals = orderedmap.NewOrderedMap[string, *Proposal]()
}

func lastContext(contexts []string) string {
	if len(contexts) == 0 {
		return ""
	}
	return contexts[len(contexts)-1]
}
