// Package ontology ties the schema store, extractor, candidate tracker and promotion
// engine into one process-scoped discovery session.
package ontology

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/extractor"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/metrics"
	"github.com/dbsmedya/ontoforge/internal/promotion"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/tracker"
	"github.com/dbsmedya/ontoforge/internal/types"
	"github.com/dbsmedya/ontoforge/internal/validator"
)

// Options supplies optional collaborators. Zero values select the defaults.
type Options struct {
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Extractor extractor.Extractor
	// Store seeds the session instead of the mode's built-in types. It is copied, so
	// later changes to it do not reach the session.
	Store *schema.Store
}

// Input is one document and its generation context.
type Input struct {
	Document types.Document `json:"document" yaml:"document"`
	Context  types.Context  `json:"context" yaml:"context"`
}

// Session is the discovery state for one run. All schema and tracker mutation goes
// through it under a single lock; extraction runs outside the lock.
type Session struct {
	mu        sync.Mutex
	cfg       *config.Config
	runID     string
	log       *logger.Logger
	metrics   *metrics.Metrics
	extractor extractor.Extractor
	exporters *exporter.Registry
	seed      []byte
	store     *schema.Store
	tracker   *tracker.Tracker
	engine    *promotion.Engine
}

// New creates a session for cfg.
func New(cfg *config.Config, opts Options) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewDefault()
	}
	ext := opts.Extractor
	if ext == nil {
		ext = extractor.NewPatternExtractor(cfg.Discovery.ContextRadius)
	}

	s := &Session{
		cfg:       cfg,
		log:       log,
		metrics:   opts.Metrics,
		extractor: ext,
		exporters: exporter.NewRegistry(),
	}

	if opts.Store != nil {
		seed, err := s.exporters.Export(string(exporter.FormatJSON), opts.Store, exporter.Options{Mode: cfg.Discovery.Mode})
		if err != nil {
			return nil, fmt.Errorf("failed to capture seed schema: %w", err)
		}
		s.seed = seed
	}

	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

// init builds fresh store, tracker and engine state. Callers hold mu or own s exclusively.
func (s *Session) init() error {
	var (
		store *schema.Store
		err   error
	)
	if s.seed != nil {
		store, _, err = exporter.ImportJSON(s.seed)
	} else {
		store, err = schema.NewSeededStore(s.cfg.Discovery.Mode.SeedsCoreTypes())
	}
	if err != nil {
		return fmt.Errorf("failed to seed schema: %w", err)
	}

	tr := tracker.New(tracker.Options{
		MaxContexts:         s.cfg.Discovery.MaxContexts,
		MaxExamples:         s.cfg.Discovery.MaxExamples,
		EvictBelowCount:     s.cfg.Tracker.EvictBelowCount,
		StaleAfterDocuments: s.cfg.Tracker.StaleAfterDocuments,
	})

	engineOpts := promotion.Options{
		Mode: s.cfg.Discovery.Mode,
		Thresholds: promotion.Thresholds{
			Entity:       s.cfg.Discovery.EntityThreshold,
			Relationship: s.cfg.Discovery.RelationshipThreshold,
			Attribute:    s.cfg.Discovery.AttributeThreshold,
		},
		MaxExamples: s.cfg.Discovery.MaxExamples,
	}
	if s.metrics != nil {
		engineOpts.Recorder = s.metrics
	}

	s.runID = uuid.NewString()
	s.store = store
	s.tracker = tr
	s.engine = promotion.New(store, tr, engineOpts, s.log)
	s.observeSchema()

	s.log.Infow("ontology session ready",
		"run_id", s.runID,
		"mode", s.cfg.Discovery.Mode,
		"entity_types", store.Counts().Entities,
	)
	return nil
}

// Reset discards all discovered state and candidates and starts a new run id.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.init()
}

// RunID identifies the current run; it changes on Reset.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Mode returns the configured discovery mode.
func (s *Session) Mode() config.Mode {
	return s.cfg.Discovery.Mode
}

// Store returns the live schema store.
func (s *Session) Store() *schema.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// DiscoverFromDocument scans one document, records its candidates and applies the
// promotion policy. Strict mode returns an empty report without scanning.
func (s *Session) DiscoverFromDocument(doc types.Document, ctx types.Context) promotion.Discoveries {
	if s.cfg.Discovery.Mode == config.ModeStrict {
		return promotion.NewDiscoveries()
	}

	obs := s.extract(doc, ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apply(obs)
}

// DiscoverBatch scans inputs in parallel with at most discovery.scan_workers scans in
// flight, then applies the observations one document at a time in input order. Terms
// promoted by an earlier document of the batch are discarded from later ones, as they
// would be when scanning sequentially.
func (s *Session) DiscoverBatch(ctx context.Context, inputs []Input) (promotion.Discoveries, error) {
	total := promotion.NewDiscoveries()
	if s.cfg.Discovery.Mode == config.ModeStrict || len(inputs) == 0 {
		return total, nil
	}

	results := make([]extractor.Observations, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	workers := s.cfg.Discovery.ScanWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.extract(inputs[i].Document, inputs[i].Context)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return total, fmt.Errorf("document scan aborted: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range results {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("discovery aborted after %d of %d documents: %w", i, len(results), err)
		}
		total.Merge(s.apply(results[i]))
	}

	s.log.Infow("batch discovery complete",
		"run_id", s.runID,
		"documents", len(inputs),
		"new_entity_types", len(total.NewEntityTypes),
		"new_relationship_types", len(total.NewRelationshipTypes),
	)
	return total, nil
}

func (s *Session) extract(doc types.Document, ctx types.Context) extractor.Observations {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()

	start := time.Now()
	obs := s.extractor.Extract(doc, ctx, store)
	if s.metrics != nil {
		s.metrics.DocumentScanned(time.Since(start))
		s.metrics.ObservationsRecorded(len(obs.Entities), len(obs.Relationships), len(obs.Attributes))
	}
	return obs
}

// apply records obs and runs promotion. Callers hold mu.
func (s *Session) apply(obs extractor.Observations) promotion.Discoveries {
	obs = s.discardKnown(obs)
	upd := s.tracker.Record(obs)
	d := s.engine.Process(upd, obs.Drafts)

	if evicted := s.tracker.Evict(); evicted > 0 {
		s.log.WithDocument(obs.DocumentID).Debugw("evicted stale candidates", "count", evicted)
		if s.metrics != nil {
			s.metrics.CandidatesEvicted(evicted)
		}
	}
	s.observeSchema()

	s.log.WithDocument(obs.DocumentID).Debugw("document processed",
		"entities", len(obs.Entities),
		"relationships", len(obs.Relationships),
		"attributes", len(obs.Attributes),
		"drafts", len(obs.Drafts),
		"promoted", len(d.NewEntityTypes)+len(d.NewRelationshipTypes),
	)
	return d
}

// discardKnown drops observations of terms that reached the schema after obs was extracted.
func (s *Session) discardKnown(obs extractor.Observations) extractor.Observations {
	entities := obs.Entities[:0:0]
	for _, o := range obs.Entities {
		if _, exists := s.store.ResolveEntityName(o.Term); !exists {
			entities = append(entities, o)
		}
	}
	relationships := obs.Relationships[:0:0]
	for _, o := range obs.Relationships {
		if _, exists := s.store.ResolveRelationshipName(o.Name); !exists {
			relationships = append(relationships, o)
		}
	}
	obs.Entities = entities
	obs.Relationships = relationships
	return obs
}

func (s *Session) observeSchema() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetSchema(s.store.Counts())
	s.metrics.SetCandidates(s.tracker.Len())
}

// ValidateExtraction checks extracted instances against the live schema.
func (s *Session) ValidateExtraction(entities, relationships []types.Record) validator.Report {
	return validator.New(s.Store()).Validate(entities, relationships)
}

// ExportOntology serializes the live schema. Unknown formats yield an error matching
// exporter.ErrUnsupportedFormat.
func (s *Session) ExportOntology(format string) ([]byte, error) {
	if format == "" {
		format = s.cfg.Export.DefaultFormat
	}
	return s.exporters.Export(format, s.Store(), exporter.Options{
		Mode:    s.cfg.Discovery.Mode,
		BaseIRI: s.cfg.Export.BaseIRI,
		Pretty:  s.cfg.Export.Pretty,
	})
}

// GenerateExtractionRules flattens the live schema into extraction rules.
func (s *Session) GenerateExtractionRules() exporter.ExtractionRules {
	return exporter.GenerateExtractionRules(s.Store())
}

// PendingPromotions lists tracked candidates that are not in the schema yet.
func (s *Session) PendingPromotions() []promotion.Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PendingPromotions()
}

// Proposals lists guided-mode proposals.
func (s *Session) Proposals() []promotion.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Proposals()
}

// ApproveProposal commits a pending proposal.
func (s *Session) ApproveProposal(kind promotion.Kind, name string) (promotion.Discoveries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.engine.ApproveProposal(kind, name)
	s.observeSchema()
	return d, err
}

// RejectProposal marks a pending proposal rejected.
func (s *Session) RejectProposal(kind promotion.Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.RejectProposal(kind, name)
}
