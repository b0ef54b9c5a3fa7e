package ontology

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/metrics"
	"github.com/dbsmedya/ontoforge/internal/promotion"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/types"
)

func newSession(t *testing.T, mode config.Mode, opts Options) *Session {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Discovery.Mode = mode
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	s, err := New(cfg, opts)
	require.NoError(t, err)
	return s
}

func portalDoc(i int) (types.Document, types.Context) {
	id := fmt.Sprintf("doc-%d", i)
	return types.Document{ID: id, Type: "memo", Content: "Staff reported that Vendor Portal was slow again."},
		types.Context{DocumentID: id}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestDiscoverFromDocumentPromotesAtThreshold(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})

	for i := 1; i <= 2; i++ {
		d := s.DiscoverFromDocument(portalDoc(i))
		assert.NotContains(t, d.NewEntityTypes, "Vendor Portal")
	}

	d := s.DiscoverFromDocument(portalDoc(3))
	assert.Contains(t, d.NewEntityTypes, "Vendor Portal")

	et, ok := s.Store().LookupEntity("Vendor Portal")
	require.True(t, ok)
	assert.True(t, et.Discovered)
	assert.InDelta(t, 0.3, et.Confidence, 1e-9)

	d = s.DiscoverFromDocument(portalDoc(4))
	assert.NotContains(t, d.NewEntityTypes, "Vendor Portal")
}

func TestStrictModeDiscoversNothing(t *testing.T) {
	s := newSession(t, config.ModeStrict, Options{})
	before := s.Store().Counts()

	for i := 1; i <= 5; i++ {
		d := s.DiscoverFromDocument(portalDoc(i))
		assert.True(t, d.Empty())
	}
	d, err := s.DiscoverBatch(context.Background(), []Input{{Document: types.Document{Content: "Vendor Portal"}}})
	require.NoError(t, err)
	assert.True(t, d.Empty())

	assert.Equal(t, before, s.Store().Counts())
	assert.Empty(t, s.PendingPromotions())
}

func TestDiscoveryModeStartsFromRoot(t *testing.T) {
	s := newSession(t, config.ModeDiscovery, Options{})
	counts := s.Store().Counts()
	assert.Equal(t, 1, counts.Entities)
	assert.Equal(t, 0, counts.Relationships)
}

func TestStructuredContextDraft(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})

	ctx := types.Context{
		DocumentID: "doc-1",
		EntitiesGenerated: []types.Record{
			{"type": "Supplier Contact", "id": "sc-1", "name": "Ada", "email": "ada@example.com"},
		},
	}
	d := s.DiscoverFromDocument(types.Document{ID: "doc-1"}, ctx)
	assert.Contains(t, d.NewEntityTypes, "Supplier Contact")

	et, ok := s.Store().LookupEntity("Supplier Contact")
	require.True(t, ok)
	assert.Equal(t, "Person", et.Parent)
	assert.InDelta(t, 0.8, et.Confidence, 1e-9)
}

func batchInputs() []Input {
	var inputs []Input
	texts := []string{
		"The Vendor Portal outage was logged as INC-2024-001.",
		"Warehouse Team manages Vendor Portal access.",
		"Every Vendor Portal login requires the Access Token.",
		"Warehouse Team reviewed the safety audit for Vendor Portal.",
		"Payroll Service triggers Vendor Portal sync and the safety audit.",
		"A new type of kiosk was added; Vendor Portal approved it.",
	}
	for i, text := range texts {
		id := fmt.Sprintf("doc-%d", i)
		inputs = append(inputs, Input{
			Document: types.Document{ID: id, Content: text},
			Context:  types.Context{DocumentID: id},
		})
	}
	return inputs
}

func TestDiscoverBatchMatchesSequential(t *testing.T) {
	inputs := batchInputs()

	seq := newSession(t, config.ModeHybrid, Options{})
	want := promotion.NewDiscoveries()
	for _, in := range inputs {
		want.Merge(seq.DiscoverFromDocument(in.Document, in.Context))
	}

	par := newSession(t, config.ModeHybrid, Options{})
	got, err := par.DiscoverBatch(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, want.NewEntityTypes, got.NewEntityTypes)
	assert.Equal(t, want.NewRelationshipTypes, got.NewRelationshipTypes)
	assert.Equal(t, seq.Store().Counts(), par.Store().Counts())
	assert.Equal(t, seq.PendingPromotions(), par.PendingPromotions())
	assert.Contains(t, got.NewEntityTypes, "Vendor Portal")
}

func TestDiscoverBatchCancelled(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.DiscoverBatch(ctx, batchInputs())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExportOntology(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})

	out, err := s.ExportOntology("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(string(out)), "{"))

	out, err = s.ExportOntology("owl")
	require.NoError(t, err)
	assert.Contains(t, string(out), "http://ontoforge.local/ontology#Employee")

	_, err = s.ExportOntology("xml-unsupported")
	require.Error(t, err)
	assert.True(t, errors.Is(err, exporter.ErrUnsupportedFormat))
}

func TestValidateExtraction(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})

	report := s.ValidateExtraction([]types.Record{{"id": "e1", "type": "UnknownType"}}, nil)
	require.Len(t, report.InvalidEntities, 1)
	assert.Equal(t, "e1", report.InvalidEntities[0].ID)
	assert.Contains(t, report.InvalidEntities[0].Reason, "unknown")
	assert.Empty(t, report.ValidEntities)
}

func TestGenerateExtractionRules(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})
	rules := s.GenerateExtractionRules()
	assert.Contains(t, rules.EntityRules, "Incident")
	assert.Contains(t, rules.RelationshipRules, "AFFECTS")
}

func TestResetDropsDiscoveredState(t *testing.T) {
	s := newSession(t, config.ModeHybrid, Options{})
	for i := 1; i <= 3; i++ {
		s.DiscoverFromDocument(portalDoc(i))
	}
	_, ok := s.Store().LookupEntity("Vendor Portal")
	require.True(t, ok)
	runID := s.RunID()

	require.NoError(t, s.Reset())

	_, ok = s.Store().LookupEntity("Vendor Portal")
	assert.False(t, ok)
	assert.Empty(t, s.PendingPromotions())
	assert.NotEqual(t, runID, s.RunID())
}

func TestSeedStoreSurvivesReset(t *testing.T) {
	seed, err := schema.NewSeededStore(true)
	require.NoError(t, err)
	require.NoError(t, seed.AddEntityType(&schema.EntityType{Name: "Kiosk", Parent: "System"}))

	s := newSession(t, config.ModeHybrid, Options{Store: seed})
	require.NoError(t, seed.AddEntityType(&schema.EntityType{Name: "Later", Parent: schema.RootType}))

	_, ok := s.Store().LookupEntity("Kiosk")
	assert.True(t, ok)
	_, ok = s.Store().LookupEntity("Later")
	assert.False(t, ok, "session must not share the seed store")

	for i := 1; i <= 3; i++ {
		s.DiscoverFromDocument(portalDoc(i))
	}
	require.NoError(t, s.Reset())

	_, ok = s.Store().LookupEntity("Kiosk")
	assert.True(t, ok)
	_, ok = s.Store().LookupEntity("Vendor Portal")
	assert.False(t, ok)
}

func TestGuidedApproval(t *testing.T) {
	s := newSession(t, config.ModeGuided, Options{})
	for i := 1; i <= 3; i++ {
		d := s.DiscoverFromDocument(portalDoc(i))
		assert.Empty(t, d.NewEntityTypes)
	}

	var found bool
	for _, p := range s.Proposals() {
		if p.Kind == promotion.KindEntity && p.Name == "Vendor Portal" {
			found = true
			assert.Equal(t, promotion.StatusPending, p.Status)
		}
	}
	require.True(t, found)

	d, err := s.ApproveProposal(promotion.KindEntity, "Vendor Portal")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vendor Portal"}, d.NewEntityTypes)

	err = s.RejectProposal(promotion.KindEntity, "Vendor Portal")
	assert.True(t, errors.Is(err, promotion.ErrProposalNotFound))
}

func TestMetricsWired(t *testing.T) {
	m := metrics.New()
	s := newSession(t, config.ModeHybrid, Options{Metrics: m})
	for i := 1; i <= 3; i++ {
		s.DiscoverFromDocument(portalDoc(i))
	}

	expected := `
# HELP ontoforge_promotions_total Candidates committed to the schema, by kind.
# TYPE ontoforge_promotions_total counter
ontoforge_promotions_total{kind="entity"} 1
# HELP ontoforge_documents_scanned_total Documents passed through discovery.
# TYPE ontoforge_documents_scanned_total counter
ontoforge_documents_scanned_total 3
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"ontoforge_promotions_total", "ontoforge_documents_scanned_total"))
}
