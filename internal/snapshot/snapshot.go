// Package snapshot stores versioned JSON exports of the schema in MySQL.
package snapshot

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/lock"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/sqlutil"
)

// ErrNotFound is returned when an ontology has no stored snapshot.
var ErrNotFound = errors.New("snapshot not found")

// InitialVersion is the version of an ontology's first snapshot.
const InitialVersion = "1.0.0"

// Snapshot is one stored export of an ontology.
type Snapshot struct {
	ID                string
	Ontology          string
	Version           *semver.Version
	Mode              string
	Fingerprint       string
	EntityCount       int
	RelationshipCount int
	Document          []byte
	CreatedAt         time.Time
}

// Fingerprint hashes the schema content of a JSON export. Metadata such as the export
// timestamp is excluded, so identical schemas always share a fingerprint.
func Fingerprint(doc exporter.Document) string {
	content := struct {
		EntityTypes       interface{} `json:"entity_types"`
		RelationshipTypes interface{} `json:"relationship_types"`
		Hierarchy         interface{} `json:"hierarchy"`
	}{doc.EntityTypes, doc.RelationshipTypes, doc.Hierarchy}

	data, _ := json.Marshal(content)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// NextVersion returns the version for a new snapshot following prev: a minor bump when
// types were added, a patch bump otherwise.
func NextVersion(prev *Snapshot, counts schema.Counts) *semver.Version {
	if prev == nil || prev.Version == nil {
		return semver.MustParse(InitialVersion)
	}
	if counts.Entities > prev.EntityCount || counts.Relationships > prev.RelationshipCount {
		v := prev.Version.IncMinor()
		return &v
	}
	v := prev.Version.IncPatch()
	return &v
}

// Repository reads and writes snapshots in one table.
type Repository struct {
	db          *sql.DB
	table       string
	lockTimeout int
	log         *logger.Logger
	now         func() time.Time
	newID       func() string
}

// NewRepository creates a repository over table. The name must be a plain identifier.
// A negative lock timeout waits for the snapshot lock indefinitely.
func NewRepository(db *sql.DB, table string, lockTimeoutSeconds int, log *logger.Logger) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	quoted, err := sqlutil.QuoteIdentifierSafe(table)
	if err != nil {
		return nil, fmt.Errorf("snapshot table: %w", err)
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Repository{
		db:          db,
		table:       quoted,
		lockTimeout: lock.NormalizeTimeout(lockTimeoutSeconds),
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}, nil
}

// EnsureTable creates the snapshot table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id CHAR(36) NOT NULL PRIMARY KEY,
  ontology VARCHAR(128) NOT NULL,
  version VARCHAR(32) NOT NULL,
  mode VARCHAR(16) NOT NULL,
  fingerprint CHAR(64) NOT NULL,
  entity_count INT NOT NULL,
  relationship_count INT NOT NULL,
  document LONGTEXT NOT NULL,
  created_at DATETIME(6) NOT NULL,
  KEY idx_ontology_created (ontology, created_at)
)`, r.table)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create snapshot table: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot of ontology, or ErrNotFound.
func (r *Repository) Latest(ctx context.Context, ontology string) (*Snapshot, error) {
	query := fmt.Sprintf(`SELECT id, ontology, version, mode, fingerprint, entity_count, relationship_count, document, created_at
FROM %s WHERE ontology = ? ORDER BY created_at DESC LIMIT 1`, r.table)

	var (
		s       Snapshot
		version string
		doc     string
	)
	err := r.db.QueryRowContext(ctx, query, ontology).Scan(
		&s.ID, &s.Ontology, &version, &s.Mode, &s.Fingerprint,
		&s.EntityCount, &s.RelationshipCount, &doc, &s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: ontology %q", ErrNotFound, ontology)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s has invalid version %q: %w", s.ID, version, err)
	}
	s.Version = v
	s.Document = []byte(doc)
	return &s, nil
}

// Save stores doc as the next snapshot of ontology under the ontology's advisory lock.
// If the latest snapshot has the same fingerprint, it is returned and nothing is
// written; created reports which happened.
func (r *Repository) Save(ctx context.Context, ontology string, doc exporter.Document) (snap *Snapshot, created bool, err error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	fingerprint := Fingerprint(doc)

	l := lock.NewOntologyLock(r.db, ontology)
	err = l.WithLock(ctx, r.lockTimeout, func() error {
		prev, err := r.Latest(ctx, ontology)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		if prev != nil && prev.Fingerprint == fingerprint {
			snap = prev
			return nil
		}

		snap = &Snapshot{
			ID:                r.newID(),
			Ontology:          ontology,
			Version:           NextVersion(prev, doc.Metadata.Counts),
			Mode:              doc.Metadata.Mode,
			Fingerprint:       fingerprint,
			EntityCount:       doc.Metadata.Entities,
			RelationshipCount: doc.Metadata.Relationships,
			Document:          data,
			CreatedAt:         r.now(),
		}
		query := fmt.Sprintf(`INSERT INTO %s (id, ontology, version, mode, fingerprint, entity_count, relationship_count, document, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, r.table)
		if _, err := r.db.ExecContext(ctx, query,
			snap.ID, snap.Ontology, snap.Version.String(), snap.Mode, snap.Fingerprint,
			snap.EntityCount, snap.RelationshipCount, string(snap.Document), snap.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert snapshot: %w", err)
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		r.log.Infow("snapshot saved",
			"ontology", ontology,
			"id", snap.ID,
			"version", snap.Version.String(),
			"entity_types", snap.EntityCount,
			"relationship_types", snap.RelationshipCount,
		)
	} else {
		r.log.Infow("snapshot unchanged", "ontology", ontology, "version", snap.Version.String())
	}
	return snap, created, nil
}

// Load rebuilds a schema store from a snapshot.
func Load(s *Snapshot) (*schema.Store, error) {
	store, _, err := exporter.ImportJSON(s.Document)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", s.ID, err)
	}
	return store, nil
}
