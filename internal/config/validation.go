package config

import (
	"fmt"
	"strings"

	"github.com/dbsmedya/ontoforge/internal/lock"
	"github.com/dbsmedya/ontoforge/internal/sqlutil"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "validation failed:\n  - " + strings.Join(msgs, "\n  - ")
}

// check records a ValidationError for field unless ok holds.
func (e *ValidationErrors) check(ok bool, field, message string) {
	if !ok {
		*e = append(*e, ValidationError{Field: field, Message: message})
	}
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks the configuration for required fields and valid values.
// Database settings are only checked when snapshots are enabled.
func (c *Config) Validate() error {
	var errs ValidationErrors

	c.validateDiscovery(&errs)
	c.validateTracker(&errs)
	c.validateExport(&errs)
	if c.Snapshot.Enabled {
		c.validateSnapshot(&errs)
		c.Database.validate("database", &errs)
	}
	c.validateLogging(&errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (c *Config) validateDiscovery(errs *ValidationErrors) {
	d := c.Discovery
	_, err := ParseMode(string(d.Mode))
	errs.check(err == nil, "discovery.mode", "mode must be 'strict', 'guided', 'discovery', or 'hybrid'")

	for _, floor := range []struct {
		field string
		value int
	}{
		{"entity_threshold", d.EntityThreshold},
		{"relationship_threshold", d.RelationshipThreshold},
		{"attribute_threshold", d.AttributeThreshold},
		{"max_contexts", d.MaxContexts},
		{"scan_workers", d.ScanWorkers},
	} {
		errs.check(floor.value >= 1, "discovery."+floor.field, floor.field+" must be at least 1")
	}
	errs.check(d.ContextRadius >= 0, "discovery.context_radius", "context_radius cannot be negative")
	errs.check(d.MaxExamples >= 0, "discovery.max_examples", "max_examples cannot be negative")
}

func (c *Config) validateTracker(errs *ValidationErrors) {
	errs.check(c.Tracker.EvictBelowCount >= 0, "tracker.evict_below_count", "evict_below_count cannot be negative")
	errs.check(c.Tracker.StaleAfterDocuments >= 0, "tracker.stale_after_documents", "stale_after_documents cannot be negative")
}

func (c *Config) validateExport(errs *ValidationErrors) {
	errs.check(c.Export.BaseIRI != "", "export.base_iri", "base_iri is required")
	errs.check(oneOf(c.Export.DefaultFormat, "", "json", "owl"), "export.default_format", "default_format must be 'json' or 'owl'")
}

func (c *Config) validateSnapshot(errs *ValidationErrors) {
	s := c.Snapshot
	errs.check(sqlutil.IsValidIdentifier(s.Table), "snapshot.table", "table must contain only alphanumeric characters and underscores")
	errs.check(s.Ontology != "", "snapshot.ontology", "ontology name is required when snapshots are enabled")
	errs.check(s.LockTimeoutSeconds >= lock.TimeoutInfinite, "snapshot.lock_timeout_seconds",
		"lock_timeout_seconds must be -1 (wait forever) or at least 0")
}

func (db *DatabaseConfig) validate(prefix string, errs *ValidationErrors) {
	errs.check(db.Host != "", prefix+".host", "host is required")
	errs.check(db.Port > 0 && db.Port <= 65535, prefix+".port", "port must be between 1 and 65535")
	errs.check(db.User != "", prefix+".user", "user is required")
	errs.check(db.Database != "", prefix+".database", "database name is required")
	errs.check(oneOf(db.TLS, "", "disable", "preferred", "required"), prefix+".tls", "tls must be 'disable', 'preferred', or 'required'")
	errs.check(db.MaxConnections >= 0, prefix+".max_connections", "max_connections cannot be negative")
	errs.check(db.MaxIdleConnections >= 0, prefix+".max_idle_connections", "max_idle_connections cannot be negative")
}

func (c *Config) validateLogging(errs *ValidationErrors) {
	l := c.Logging
	errs.check(oneOf(l.Level, "", "debug", "info", "warn", "error"), "logging.level", "level must be 'debug', 'info', 'warn', or 'error'")
	errs.check(oneOf(l.Format, "", "json", "text"), "logging.format", "format must be 'json' or 'text'")
	errs.check(l.MaxSizeMB >= 0 && l.MaxBackups >= 0 && l.MaxAgeDays >= 0,
		"logging.rotation", "max_size_mb, max_backups and max_age_days cannot be negative")
}
