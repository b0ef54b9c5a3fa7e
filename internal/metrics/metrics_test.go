package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ontoforge/internal/schema"
)

func TestRecorderCounters(t *testing.T) {
	m := New()

	m.CandidatePromoted("entity")
	m.CandidatePromoted("entity")
	m.CandidatePromoted("relationship")
	m.ProposalRaised("attribute")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.promotions.WithLabelValues("entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.promotions.WithLabelValues("relationship")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.proposals.WithLabelValues("attribute")))
}

func TestDocumentAndObservations(t *testing.T) {
	m := New()

	m.DocumentScanned(3 * time.Millisecond)
	m.DocumentScanned(time.Millisecond)
	m.ObservationsRecorded(4, 1, 0)
	m.ObservationsRecorded(2, 0, 3)
	m.CandidatesEvicted(5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.documents))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.observations.WithLabelValues("entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.observations.WithLabelValues("relationship")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.observations.WithLabelValues("attribute")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.evictions))
	assert.Equal(t, 1, testutil.CollectAndCount(m.scanSeconds))
}

func TestSchemaGauges(t *testing.T) {
	m := New()

	m.SetSchema(schema.Counts{Entities: 12, DiscoveredEntities: 2, Relationships: 6, DiscoveredRelationships: 1})
	m.SetCandidates(40)

	assert.Equal(t, 12.0, testutil.ToFloat64(m.schemaTypes.WithLabelValues("entity")))
	assert.Equal(t, 6.0, testutil.ToFloat64(m.schemaTypes.WithLabelValues("relationship")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.discovered.WithLabelValues("entity")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.discovered.WithLabelValues("relationship")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.candidates))

	m.SetSchema(schema.Counts{Entities: 13})
	assert.Equal(t, 13.0, testutil.ToFloat64(m.schemaTypes.WithLabelValues("entity")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.discovered.WithLabelValues("entity")))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.CandidatePromoted("entity")
	m.DocumentScanned(time.Millisecond)

	path := filepath.Join(t.TempDir(), "ontoforge.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `ontoforge_promotions_total{kind="entity"} 1`)
	assert.Contains(t, text, "ontoforge_documents_scanned_total 1")
	assert.True(t, strings.Contains(text, "# TYPE ontoforge_document_scan_seconds histogram"))
}

func TestWriteTextfileBadPath(t *testing.T) {
	m := New()
	err := m.WriteTextfile(filepath.Join(t.TempDir(), "missing", "dir", "x.prom"))
	assert.Error(t, err)
}
