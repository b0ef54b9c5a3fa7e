package promotion

import "sort"

// Discoveries reports what a discovery call changed or proposed.
type Discoveries struct {
	NewEntityTypes       []string            `json:"new_entity_types"`
	NewRelationshipTypes []string            `json:"new_relationship_types"`
	NewAttributes        map[string][]string `json:"new_attributes"`  // type -> attributes
	PatternUpdates       map[string][]string `json:"pattern_updates"` // type -> discovery patterns
	Proposals            []Proposal          `json:"proposals,omitempty"`
}

// NewDiscoveries returns an empty report whose lists and maps encode as [] and {}.
func NewDiscoveries() Discoveries {
	return Discoveries{
		NewEntityTypes:       []string{},
		NewRelationshipTypes: []string{},
		NewAttributes:        map[string][]string{},
		PatternUpdates:       map[string][]string{},
	}
}

// Empty reports whether nothing was discovered or proposed.
func (d Discoveries) Empty() bool {
	return len(d.NewEntityTypes) == 0 && len(d.NewRelationshipTypes) == 0 &&
		len(d.NewAttributes) == 0 && len(d.PatternUpdates) == 0 && len(d.Proposals) == 0
}

// Merge folds other into d. Names already reported are not repeated.
func (d *Discoveries) Merge(other Discoveries) {
	d.NewEntityTypes = appendUnique(d.NewEntityTypes, other.NewEntityTypes...)
	d.NewRelationshipTypes = appendUnique(d.NewRelationshipTypes, other.NewRelationshipTypes...)
	for typ, attrs := range other.NewAttributes {
		d.NewAttributes[typ] = appendUnique(d.NewAttributes[typ], attrs...)
	}
	for typ, patterns := range other.PatternUpdates {
		d.PatternUpdates[typ] = appendUnique(d.PatternUpdates[typ], patterns...)
		sort.Strings(d.PatternUpdates[typ])
	}
	for _, p := range other.Proposals {
		replaced := false
		for i := range d.Proposals {
			if d.Proposals[i].ID() == p.ID() {
				d.Proposals[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			d.Proposals = append(d.Proposals, p)
		}
	}
}

func appendUnique(list []string, items ...string) []string {
	if list == nil {
		list = []string{}
	}
	for _, item := range items {
		found := false
		for _, v := range list {
			if v == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
