// Package exporter serializes the schema to interchange formats and derives extraction
// rules for downstream extractors.
package exporter

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

// Format is an export format identifier.
type Format string

const (
	FormatJSON Format = "json"
	FormatOWL  Format = "owl"
	// FormatTurtle is a known name without a serializer; requesting it fails.
	FormatTurtle Format = "turtle"
)

// ErrUnsupportedFormat is matched by every UnsupportedFormatError.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// UnsupportedFormatError is returned when no serializer is registered for a format.
type UnsupportedFormatError struct {
	Format    string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format %q (supported: %s)", e.Format, strings.Join(e.Supported, ", "))
}

// Unwrap allows errors.Is(err, ErrUnsupportedFormat).
func (e *UnsupportedFormatError) Unwrap() error {
	return ErrUnsupportedFormat
}

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// Options controls serialization.
type Options struct {
	Mode    config.Mode
	BaseIRI string
	Pretty  bool
	Now     func() time.Time // defaults to time.Now
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// Serializer renders a schema in one format.
type Serializer interface {
	Info() FormatInfo
	Serialize(s *schema.Store, opts Options) ([]byte, error)
}

// Registry maps format identifiers to serializers.
type Registry struct {
	serializers map[Format]Serializer
}

// NewRegistry returns a registry holding the json and owl serializers.
func NewRegistry() *Registry {
	r := &Registry{serializers: make(map[Format]Serializer)}
	r.Register(jsonSerializer{})
	r.Register(owlSerializer{})
	return r
}

// Register adds or replaces a serializer under its own format name.
func (r *Registry) Register(s Serializer) {
	r.serializers[s.Info().Name] = s
}

// Formats returns the registered format names, sorted.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.serializers))
	for f := range r.serializers {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Info returns metadata for a registered format.
func (r *Registry) Info(format string) (FormatInfo, bool) {
	s, ok := r.serializers[Format(strings.ToLower(strings.TrimSpace(format)))]
	if !ok {
		return FormatInfo{}, false
	}
	return s.Info(), true
}

// Export serializes the store. Unregistered formats yield *UnsupportedFormatError.
func (r *Registry) Export(format string, s *schema.Store, opts Options) ([]byte, error) {
	serializer, ok := r.serializers[Format(strings.ToLower(strings.TrimSpace(format)))]
	if !ok {
		return nil, &UnsupportedFormatError{Format: format, Supported: r.Formats()}
	}
	out, err := serializer.Serialize(s, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", format, err)
	}
	return out, nil
}
