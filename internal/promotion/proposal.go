package promotion

import (
	"errors"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

var (
	// ErrProposalNotFound is returned when approving or rejecting an unknown proposal.
	ErrProposalNotFound = errors.New("proposal not found")
	// ErrDiscoveryDisabled is returned for promotion requests in strict mode.
	ErrDiscoveryDisabled = errors.New("discovery is disabled in strict mode")
)

// Kind is the kind of schema entry a candidate would become.
type Kind string

const (
	KindEntity       Kind = "entity"
	KindRelationship Kind = "relationship"
	KindAttribute    Kind = "attribute"
)

// Status is the review state of a proposal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Proposal is a threshold-crossing candidate surfaced for review in guided mode.
type Proposal struct {
	Kind          Kind     `json:"kind"`
	Name          string   `json:"name"`
	TargetType    string   `json:"target_type,omitempty"` // attribute proposals only
	Count         int      `json:"count"`
	Patterns      []string `json:"patterns"`
	SampleContext string   `json:"sample_context,omitempty"`
	Status        Status   `json:"status"`

	entity       *schema.EntityType
	relationship *schema.RelationshipType
}

// ID identifies a proposal: "<kind>:<name>", with attributes named "<type>.<attribute>".
func (p Proposal) ID() string {
	return proposalID(p.Kind, p.Key())
}

// Key is the name accepted by ApproveProposal and RejectProposal.
func (p Proposal) Key() string {
	if p.Kind == KindAttribute {
		return p.TargetType + "." + p.Name
	}
	return p.Name
}

func proposalID(kind Kind, key string) string {
	return string(kind) + ":" + key
}
