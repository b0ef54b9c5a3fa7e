package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Accessors(t *testing.T) {
	r := Record{
		"type":     "Employee",
		"id":       float64(17),
		"Name":     "Dana Ortiz",
		"store_id": "STORE-003",
	}

	assert.Equal(t, "Employee", r.Type())
	assert.Equal(t, "17", r.ID())
	assert.Equal(t, []string{"Name", "store_id"}, r.Attributes())

	v, ok := r.Get("name")
	assert.True(t, ok, "Get should fall back to case-insensitive match")
	assert.Equal(t, "Dana Ortiz", v)

	_, ok = r.Get("email")
	assert.False(t, ok)
	assert.True(t, r.Has("store_id"))
	assert.False(t, r.Has("email"))
}

func TestRecord_RelationshipEndpoints(t *testing.T) {
	r := Record{"type": "WORKS_AT", "source": "EMP-1", "target": "STORE-1"}
	assert.Equal(t, "EMP-1", r.Source())
	assert.Equal(t, "STORE-1", r.Target())
	assert.Equal(t, "", r.ID())
}

func TestRecord_EmptyValueIsNotPresent(t *testing.T) {
	r := Record{"email": ""}
	assert.False(t, r.Has("email"))
}
