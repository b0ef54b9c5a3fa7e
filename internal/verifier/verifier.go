// Package verifier checks a live schema against a stored snapshot.
package verifier

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/snapshot"
	"github.com/dbsmedya/ontoforge/internal/types"
)

// VerificationMethod represents the type of verification to perform.
type VerificationMethod string

const (
	// MethodCount compares type counts.
	MethodCount VerificationMethod = "count"
	// MethodSHA256 compares hashes of the canonical type definitions.
	MethodSHA256 VerificationMethod = "sha256"
	// MethodSkip skips verification.
	MethodSkip VerificationMethod = "skip"
)

// ParseMethod converts a method name into a VerificationMethod.
func ParseMethod(s string) (VerificationMethod, error) {
	switch m := VerificationMethod(s); m {
	case MethodCount, MethodSHA256, MethodSkip:
		return m, nil
	default:
		return "", fmt.Errorf("invalid verification method: %s (must be count, sha256, or skip)", s)
	}
}

// Components compared by Verify, in order.
const (
	ComponentEntityTypes       = "entity_types"
	ComponentRelationshipTypes = "relationship_types"
)

// VerifyResult contains the outcome of verifying one component.
type VerifyResult struct {
	Component    string
	Method       VerificationMethod
	LiveCount    int64
	StoredCount  int64
	LiveHash     string
	StoredHash   string
	Match        bool
	ErrorMessage string
}

// VerifyStats contains aggregate statistics for a verification run.
type VerifyStats struct {
	SnapshotID         string
	SnapshotVersion    string
	ComponentsVerified int
	ComponentsPassed   int
	ComponentsFailed   int
	Results            []*VerifyResult
}

// Verifier compares a live schema store with a snapshot.
type Verifier struct {
	method VerificationMethod
	logger *logger.Logger
}

// NewVerifier creates a verifier using method.
func NewVerifier(method VerificationMethod, log *logger.Logger) (*Verifier, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Verifier{method: method, logger: log}, nil
}

// Method returns the configured verification method.
func (v *Verifier) Method() VerificationMethod {
	return v.method
}

// storedDocument is the part of a snapshot document the verifier reads. Numbers are
// kept as json.Number so counts survive any encoder.
type storedDocument struct {
	Metadata          map[string]interface{}     `json:"metadata"`
	EntityTypes       map[string]json.RawMessage `json:"entity_types"`
	RelationshipTypes map[string]json.RawMessage `json:"relationship_types"`
}

func decodeDocument(data []byte) (*storedDocument, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc storedDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot document: %w", err)
	}
	return &doc, nil
}

// Verify compares live with snap. A mismatch returns the stats collected so far and
// an error naming the first differing component.
func (v *Verifier) Verify(ctx context.Context, live *schema.Store, snap *snapshot.Snapshot) (*VerifyStats, error) {
	if live == nil || snap == nil {
		return nil, fmt.Errorf("verify requires a live schema and a snapshot")
	}
	stats := &VerifyStats{SnapshotID: snap.ID}
	if snap.Version != nil {
		stats.SnapshotVersion = snap.Version.String()
	}

	if v.method == MethodSkip {
		v.logger.Infow("verification skipped", "snapshot", snap.ID)
		return stats, nil
	}

	stored, err := decodeDocument(snap.Document)
	if err != nil {
		return stats, err
	}
	liveData, err := json.Marshal(exporter.BuildDocument(live, exporter.Options{}))
	if err != nil {
		return stats, fmt.Errorf("failed to encode live schema: %w", err)
	}
	current, err := decodeDocument(liveData)
	if err != nil {
		return stats, err
	}

	for _, component := range []string{ComponentEntityTypes, ComponentRelationshipTypes} {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("verification interrupted: %w", err)
		}

		var result *VerifyResult
		switch v.method {
		case MethodCount:
			result = verifyByCount(component, current, stored)
		case MethodSHA256:
			result, err = verifyBySHA256(component, current, stored)
		default:
			return stats, fmt.Errorf("unsupported verification method: %s", v.method)
		}
		if err != nil {
			return stats, fmt.Errorf("verification failed for %s: %w", component, err)
		}

		stats.ComponentsVerified++
		stats.Results = append(stats.Results, result)

		if !result.Match {
			stats.ComponentsFailed++
			v.logger.Errorw("verification failed", "component", component, "error", result.ErrorMessage)
			return stats, fmt.Errorf("verification mismatch in %s: %s", component, result.ErrorMessage)
		}
		stats.ComponentsPassed++
		v.logger.Debugw("verification passed", "component", component, "count", result.LiveCount)
	}

	v.logger.Infow("verification complete",
		"snapshot", snap.ID,
		"version", stats.SnapshotVersion,
		"method", string(v.method),
		"components", stats.ComponentsVerified,
	)
	return stats, nil
}

// verifyByCount compares the live type count with the count recorded in the stored
// document's metadata.
func verifyByCount(component string, live, stored *storedDocument) *VerifyResult {
	key := "total_entities"
	liveCount := int64(len(live.EntityTypes))
	if component == ComponentRelationshipTypes {
		key = "total_relationships"
		liveCount = int64(len(live.RelationshipTypes))
	}
	storedCount := types.ToInt64(stored.Metadata[key])

	result := &VerifyResult{
		Component:   component,
		Method:      MethodCount,
		LiveCount:   liveCount,
		StoredCount: storedCount,
		Match:       liveCount == storedCount,
	}
	if !result.Match {
		result.ErrorMessage = fmt.Sprintf("count mismatch: live=%d, stored=%d", liveCount, storedCount)
	}
	return result
}

// verifyBySHA256 compares hashes of the canonical definitions of every type.
func verifyBySHA256(component string, live, stored *storedDocument) (*VerifyResult, error) {
	liveTypes, storedTypes := live.EntityTypes, stored.EntityTypes
	if component == ComponentRelationshipTypes {
		liveTypes, storedTypes = live.RelationshipTypes, stored.RelationshipTypes
	}

	liveHash, err := hashTypes(liveTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to hash live types: %w", err)
	}
	storedHash, err := hashTypes(storedTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to hash stored types: %w", err)
	}

	result := &VerifyResult{
		Component:   component,
		Method:      MethodSHA256,
		LiveCount:   int64(len(liveTypes)),
		StoredCount: int64(len(storedTypes)),
		LiveHash:    liveHash,
		StoredHash:  storedHash,
		Match:       liveHash == storedHash && len(liveTypes) == len(storedTypes),
	}
	if !result.Match {
		if result.LiveCount != result.StoredCount {
			result.ErrorMessage = fmt.Sprintf("count mismatch: live=%d, stored=%d", result.LiveCount, result.StoredCount)
		} else {
			result.ErrorMessage = fmt.Sprintf("hash mismatch: live=%s, stored=%s", liveHash[:16], storedHash[:16])
		}
	}
	return result, nil
}

// hashTypes re-encodes each definition through a generic value so whitespace and field
// order in the stored text do not affect the hash. Map keys encode sorted.
func hashTypes(defs map[string]json.RawMessage) (string, error) {
	canonical := make(map[string]interface{}, len(defs))
	for name, raw := range defs {
		var v interface{}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return "", fmt.Errorf("type %q: %w", name, err)
		}
		canonical[name] = v
	}
	data, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
