// Package types contains shared types used across multiple packages to avoid import cycles.
package types

import (
	"sort"
	"strings"
)

// Reserved record keys.
const (
	KeyType   = "type"
	KeyID     = "id"
	KeySource = "source"
	KeyTarget = "target"
)

// Record is a flat structured record such as an entry of entities_generated or an
// externally extracted entity/relationship instance. Values are loosely typed because
// records usually arrive as decoded JSON or YAML.
type Record map[string]interface{}

// Type returns the declared type of the record.
func (r Record) Type() string {
	return ToString(r[KeyType])
}

// ID returns the record identifier.
func (r Record) ID() string {
	return ToString(r[KeyID])
}

// Source returns the source entity id of a relationship instance.
func (r Record) Source() string {
	return ToString(r[KeySource])
}

// Target returns the target entity id of a relationship instance.
func (r Record) Target() string {
	return ToString(r[KeyTarget])
}

// Get returns the string value of key, matching the key case-insensitively when no
// exact match exists.
func (r Record) Get(key string) (string, bool) {
	if v, ok := r[key]; ok {
		return ToString(v), true
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return ToString(v), true
		}
	}
	return "", false
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	v, ok := r.Get(key)
	return ok && v != ""
}

// Attributes returns the sorted record keys excluding type and id.
func (r Record) Attributes() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		if k == KeyType || k == KeyID {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Document is a unit of generated text handed to discovery.
type Document struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content" yaml:"content"`
}

// Context is the structured generation context that accompanies a document.
type Context struct {
	DocumentID        string   `json:"document_id" yaml:"document_id"`
	EntitiesGenerated []Record `json:"entities_generated,omitempty" yaml:"entities_generated,omitempty"`
}
