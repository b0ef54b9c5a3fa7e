// Package config provides configuration structures and loading for OntoForge.
package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/ontoforge/internal/lock"
)

// Mode is the discovery policy that gates whether and how candidates are promoted.
type Mode string

const (
	// ModeStrict disables discovery; only predefined schema entries are valid.
	ModeStrict Mode = "strict"
	// ModeGuided tracks candidates but only surfaces proposals.
	ModeGuided Mode = "guided"
	// ModeDiscovery promotes automatically into an otherwise empty schema.
	ModeDiscovery Mode = "discovery"
	// ModeHybrid promotes automatically on top of the core schema.
	ModeHybrid Mode = "hybrid"
)

// ParseMode converts a mode name (case-insensitive) into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeStrict, ModeGuided, ModeDiscovery, ModeHybrid:
		return m, nil
	default:
		return "", fmt.Errorf("unknown discovery mode %q (must be strict, guided, discovery or hybrid)", s)
	}
}

// SeedsCoreTypes reports whether a schema in this mode starts with the core types.
func (m Mode) SeedsCoreTypes() bool {
	return m != ModeDiscovery
}

// Promotes reports whether threshold-crossing candidates are written automatically.
func (m Mode) Promotes() bool {
	return m == ModeDiscovery || m == ModeHybrid
}

// Config represents the complete application configuration.
type Config struct {
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Tracker   TrackerConfig   `yaml:"tracker" mapstructure:"tracker"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Snapshot  SnapshotConfig  `yaml:"snapshot" mapstructure:"snapshot"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// DiscoveryConfig controls candidate detection and promotion thresholds.
type DiscoveryConfig struct {
	Mode                  Mode `yaml:"mode" mapstructure:"mode"`
	EntityThreshold       int  `yaml:"entity_threshold" mapstructure:"entity_threshold"`
	RelationshipThreshold int  `yaml:"relationship_threshold" mapstructure:"relationship_threshold"`
	AttributeThreshold    int  `yaml:"attribute_threshold" mapstructure:"attribute_threshold"`
	ContextRadius         int  `yaml:"context_radius" mapstructure:"context_radius"` // characters either side of a match
	MaxContexts           int  `yaml:"max_contexts" mapstructure:"max_contexts"`     // rolling context snippets per candidate
	MaxExamples           int  `yaml:"max_examples" mapstructure:"max_examples"`
	ScanWorkers           int  `yaml:"scan_workers" mapstructure:"scan_workers"`
}

// TrackerConfig controls eviction of stale low-frequency candidates.
type TrackerConfig struct {
	EvictBelowCount     int `yaml:"evict_below_count" mapstructure:"evict_below_count"`
	StaleAfterDocuments int `yaml:"stale_after_documents" mapstructure:"stale_after_documents"` // 0 disables eviction
}

// ExportConfig represents schema export settings.
type ExportConfig struct {
	BaseIRI       string `yaml:"base_iri" mapstructure:"base_iri"`
	DefaultFormat string `yaml:"default_format" mapstructure:"default_format"`
	Pretty        bool   `yaml:"pretty" mapstructure:"pretty"`
}

// CorpusConfig represents document discovery settings for the CLI.
type CorpusConfig struct {
	Include    []string `yaml:"include" mapstructure:"include"`
	Exclude    []string `yaml:"exclude" mapstructure:"exclude"`
	DebounceMS int      `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// DatabaseConfig represents a MySQL database connection configuration.
type DatabaseConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// SnapshotConfig represents persistence of exported schemas.
type SnapshotConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Table              string `yaml:"table" mapstructure:"table"`
	Ontology           string `yaml:"ontology" mapstructure:"ontology"`
	LockTimeoutSeconds int    `yaml:"lock_timeout_seconds" mapstructure:"lock_timeout_seconds"`
}

// MetricsConfig represents metrics output settings.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format     string `yaml:"format" mapstructure:"format"` // json or text
	Output     string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Mode:                  ModeHybrid,
			EntityThreshold:       3,
			RelationshipThreshold: 5,
			AttributeThreshold:    2,
			ContextRadius:         100,
			MaxContexts:           10,
			MaxExamples:           5,
			ScanWorkers:           4,
		},
		Tracker: TrackerConfig{
			EvictBelowCount:     2,
			StaleAfterDocuments: 0,
		},
		Export: ExportConfig{
			BaseIRI:       "http://ontoforge.local/ontology#",
			DefaultFormat: "json",
			Pretty:        true,
		},
		Corpus: CorpusConfig{
			Include:    []string{"**/*.txt", "**/*.md", "**/*.html", "**/*.json"},
			Exclude:    []string{"**/*.context.json", "**/*.context.yaml"},
			DebounceMS: 250,
		},
		Database: DatabaseConfig{
			Port:               3306,
			TLS:                "preferred",
			MaxConnections:     5,
			MaxIdleConnections: 2,
		},
		Snapshot: SnapshotConfig{
			Enabled:            false,
			Table:              "ontology_snapshots",
			Ontology:           "default",
			LockTimeoutSeconds: lock.DefaultTimeout,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
