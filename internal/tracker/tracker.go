package tracker

import (
	"sort"
	"sync"

	"github.com/dbsmedya/ontoforge/internal/extractor"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

// Options bounds the memory held per candidate and controls stale eviction.
type Options struct {
	MaxContexts         int // rolling context snippets kept per candidate
	MaxExamples         int // documents / instance pairs kept per candidate
	EvictBelowCount     int // candidates below this count are eviction-eligible
	StaleAfterDocuments int // documents without a match before eviction; 0 disables
}

// Update lists the candidates touched by one Record call.
type Update struct {
	Entities      []string
	Relationships []string
	Attributes    []AttributeKey
}

// Tracker accumulates candidate statistics. Counts only ever grow; evaluating them
// against thresholds is left to the caller. Safe for concurrent use.
type Tracker struct {
	mu            sync.Mutex
	opts          Options
	seq           int
	entities      map[string]*entityState
	relationships map[string]*relationshipState
	attributes    map[AttributeKey]*attributeState
}

// New creates an empty tracker.
func New(opts Options) *Tracker {
	if opts.MaxContexts < 1 {
		opts.MaxContexts = 1
	}
	t := &Tracker{opts: opts}
	t.reset()
	return t
}

func (t *Tracker) reset() {
	t.seq = 0
	t.entities = make(map[string]*entityState)
	t.relationships = make(map[string]*relationshipState)
	t.attributes = make(map[AttributeKey]*attributeState)
}

// Reset drops every candidate.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reset()
}

// DocumentsSeen returns the number of Record calls since construction or Reset.
func (t *Tracker) DocumentsSeen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}

// Record merges the observations of one document. Structured drafts are not tracked;
// they bypass frequency accounting.
func (t *Tracker) Record(obs extractor.Observations) Update {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	var upd Update
	touchedEntities := make(map[string]bool)
	touchedRels := make(map[string]bool)
	touchedAttrs := make(map[AttributeKey]bool)

	for _, o := range obs.Entities {
		st, ok := t.entities[o.Term]
		if !ok {
			st = &entityState{attributes: make(map[string]int), patterns: make(map[string]bool)}
			t.entities[o.Term] = st
		}
		st.count++
		st.contexts = appendRolling(st.contexts, o.Context, t.opts.MaxContexts)
		st.patterns[o.Family] = true
		if o.DocumentID != "" && len(st.documents) < t.opts.MaxExamples && !contains(st.documents, o.DocumentID) {
			st.documents = append(st.documents, o.DocumentID)
		}
		st.lastSeen = t.seq
		if !touchedEntities[o.Term] {
			touchedEntities[o.Term] = true
			upd.Entities = append(upd.Entities, o.Term)
		}
	}

	for _, o := range obs.Relationships {
		st, ok := t.relationships[o.Name]
		if !ok {
			st = &relationshipState{
				sources:  make(map[string]int),
				targets:  make(map[string]int),
				patterns: make(map[string]bool),
			}
			t.relationships[o.Name] = st
		}
		st.count++
		st.sources[o.Subject]++
		st.targets[o.Object]++
		st.contexts = appendRolling(st.contexts, o.Context, t.opts.MaxContexts)
		st.patterns[o.Family] = true
		pair := schema.EntityPair{Source: o.Subject, Target: o.Object}
		if len(st.pairs) < t.opts.MaxExamples && !containsPair(st.pairs, pair) {
			st.pairs = append(st.pairs, pair)
		}
		st.lastSeen = t.seq
		if !touchedRels[o.Name] {
			touchedRels[o.Name] = true
			upd.Relationships = append(upd.Relationships, o.Name)
		}
	}

	for _, o := range obs.Attributes {
		if o.SubjectType == "" {
			// Attribute of a term that is still a candidate itself.
			if st, ok := t.entities[o.Subject]; ok {
				st.attributes[o.Attribute]++
			}
			continue
		}

		key := AttributeKey{EntityType: o.SubjectType, Attribute: o.Attribute}
		st, ok := t.attributes[key]
		if !ok {
			st = &attributeState{patterns: make(map[string]bool)}
			t.attributes[key] = st
		}
		st.count++
		st.contexts = appendRolling(st.contexts, o.Context, t.opts.MaxContexts)
		st.patterns[o.Phrasing] = true
		st.lastSeen = t.seq
		if !touchedAttrs[key] {
			touchedAttrs[key] = true
			upd.Attributes = append(upd.Attributes, key)
		}
	}

	return upd
}

// Entity returns a snapshot of the named entity candidate.
func (t *Tracker) Entity(name string) (EntityCandidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.entities[name]
	if !ok {
		return EntityCandidate{}, false
	}
	return st.snapshot(name), true
}

// Relationship returns a snapshot of the named relationship candidate.
func (t *Tracker) Relationship(name string) (RelationshipCandidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.relationships[name]
	if !ok {
		return RelationshipCandidate{}, false
	}
	return st.snapshot(name), true
}

// Attribute returns a snapshot of the keyed attribute candidate.
func (t *Tracker) Attribute(key AttributeKey) (AttributeCandidate, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.attributes[key]
	if !ok {
		return AttributeCandidate{}, false
	}
	return st.snapshot(key), true
}

// Entities returns snapshots of all entity candidates sorted by name.
func (t *Tracker) Entities() []EntityCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EntityCandidate, 0, len(t.entities))
	for name, st := range t.entities {
		out = append(out, st.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Relationships returns snapshots of all relationship candidates sorted by name.
func (t *Tracker) Relationships() []RelationshipCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]RelationshipCandidate, 0, len(t.relationships))
	for name, st := range t.relationships {
		out = append(out, st.snapshot(name))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Attributes returns snapshots of all attribute candidates sorted by type and attribute.
func (t *Tracker) Attributes() []AttributeCandidate {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]AttributeCandidate, 0, len(t.attributes))
	for key, st := range t.attributes {
		out = append(out, st.snapshot(key))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityType != out[j].EntityType {
			return out[i].EntityType < out[j].EntityType
		}
		return out[i].Attribute < out[j].Attribute
	})
	return out
}

// Evict removes candidates whose count is below EvictBelowCount and that have not been
// matched for StaleAfterDocuments documents. Returns the number of candidates removed.
func (t *Tracker) Evict() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.opts.StaleAfterDocuments <= 0 {
		return 0
	}
	stale := func(count, lastSeen int) bool {
		return count < t.opts.EvictBelowCount && t.seq-lastSeen >= t.opts.StaleAfterDocuments
	}

	removed := 0
	for name, st := range t.entities {
		if stale(st.count, st.lastSeen) {
			delete(t.entities, name)
			removed++
		}
	}
	for name, st := range t.relationships {
		if stale(st.count, st.lastSeen) {
			delete(t.relationships, name)
			removed++
		}
	}
	for key, st := range t.attributes {
		if stale(st.count, st.lastSeen) {
			delete(t.attributes, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked candidates of every kind.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entities) + len(t.relationships) + len(t.attributes)
}

func appendRolling(list []string, item string, max int) []string {
	if item == "" {
		return list
	}
	list = append(list, item)
	if len(list) > max {
		list = append(list[:0:0], list[len(list)-max:]...)
	}
	return list
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPair(list []schema.EntityPair, p schema.EntityPair) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
