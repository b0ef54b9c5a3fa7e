// Package corpus loads generated documents and their structured context from disk and
// watches a generator output directory for new ones.
package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/ontoforge/internal/config"
	"github.com/dbsmedya/ontoforge/internal/logger"
	"github.com/dbsmedya/ontoforge/internal/types"
)

// sidecarSuffixes name the context files that accompany a document, in lookup order.
var sidecarSuffixes = []string{".context.json", ".context.yaml", ".context.yml"}

var excessiveLinesRe = regexp.MustCompile(`\n{3,}`)

// Item is one loaded document with its generation context.
type Item struct {
	Path     string // slash-separated, relative to the corpus root
	Document types.Document
	Context  types.Context
}

// Loader finds and reads documents under a root directory.
type Loader struct {
	root      string
	fsys      fs.FS
	include   []string
	exclude   []string
	converter *md.Converter
	log       *logger.Logger
}

// NewLoader creates a Loader for root. Patterns are doublestar globs relative to root.
func NewLoader(root string, cfg config.CorpusConfig, log *logger.Logger) (*Loader, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	for _, p := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid corpus pattern %q", p)
		}
	}

	include := cfg.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Loader{
		root:      root,
		fsys:      os.DirFS(root),
		include:   include,
		exclude:   cfg.Exclude,
		converter: converter,
		log:       log,
	}, nil
}

// Root returns the corpus root directory.
func (l *Loader) Root() string {
	return l.root
}

// Match reports whether rel (slash-separated, relative to root) is a corpus document.
// Sidecar context files never match.
func (l *Loader) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if isSidecar(rel) {
		return false
	}
	for _, p := range l.exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	for _, p := range l.include {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// Discover returns every matching document path, sorted.
func (l *Loader) Discover() ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	for _, p := range l.include {
		matches, err := doublestar.Glob(l.fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("failed to glob %q under %s: %w", p, l.root, err)
		}
		for _, m := range matches {
			if !seen[m] && l.Match(m) {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadAll discovers and loads every document.
func (l *Loader) LoadAll() ([]Item, error) {
	paths, err := l.Discover()
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(paths))
	for _, rel := range paths {
		item, err := l.Load(rel)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	l.log.Infow("corpus loaded", "root", l.root, "documents", len(items))
	return items, nil
}

// jsonDocument is the generator's JSON output: a document with optional inline context.
type jsonDocument struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Content string         `json:"content"`
	Context *types.Context `json:"context,omitempty"`
}

// Load reads one document and its sidecar context. The document id defaults to the
// path without extension and the type to the extension.
func (l *Loader) Load(rel string) (Item, error) {
	rel = filepath.ToSlash(rel)
	raw, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		return Item{}, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	ext := strings.ToLower(path.Ext(rel))
	item := Item{
		Path: rel,
		Document: types.Document{
			ID:   strings.TrimSuffix(rel, path.Ext(rel)),
			Type: strings.TrimPrefix(ext, "."),
		},
	}

	switch ext {
	case ".html", ".htm":
		content, err := l.convertHTML(string(raw))
		if err != nil {
			return Item{}, fmt.Errorf("failed to convert %s: %w", rel, err)
		}
		item.Document.Content = content
	case ".json":
		var jd jsonDocument
		if err := json.Unmarshal(raw, &jd); err != nil {
			return Item{}, fmt.Errorf("failed to parse %s: %w", rel, err)
		}
		item.Document.Content = jd.Content
		if jd.ID != "" {
			item.Document.ID = jd.ID
		}
		if jd.Type != "" {
			item.Document.Type = jd.Type
		}
		if jd.Context != nil {
			item.Context = *jd.Context
		}
	default:
		item.Document.Content = string(raw)
	}

	sidecar, found, err := l.loadSidecar(rel)
	if err != nil {
		return Item{}, err
	}
	if found {
		if sidecar.DocumentID != "" {
			item.Context.DocumentID = sidecar.DocumentID
		}
		item.Context.EntitiesGenerated = append(item.Context.EntitiesGenerated, sidecar.EntitiesGenerated...)
	}
	if item.Context.DocumentID == "" {
		item.Context.DocumentID = item.Document.ID
	}

	l.log.WithDocument(item.Context.DocumentID).Debugw("document loaded",
		"path", rel,
		"type", item.Document.Type,
		"records", len(item.Context.EntitiesGenerated),
	)
	return item, nil
}

func (l *Loader) convertHTML(html string) (string, error) {
	markdown, err := l.converter.ConvertString(html)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(excessiveLinesRe.ReplaceAllString(markdown, "\n\n")), nil
}

// loadSidecar reads <doc-without-ext>.context.{json,yaml,yml} if one exists.
func (l *Loader) loadSidecar(rel string) (types.Context, bool, error) {
	base := strings.TrimSuffix(rel, path.Ext(rel))
	for _, suffix := range sidecarSuffixes {
		name := base + suffix
		raw, err := fs.ReadFile(l.fsys, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return types.Context{}, false, fmt.Errorf("failed to read context %s: %w", name, err)
		}

		var ctx types.Context
		if suffix == ".context.json" {
			err = json.Unmarshal(raw, &ctx)
		} else {
			err = yaml.Unmarshal(raw, &ctx)
		}
		if err != nil {
			return types.Context{}, false, fmt.Errorf("failed to parse context %s: %w", name, err)
		}
		return ctx, true, nil
	}
	return types.Context{}, false, nil
}

func isSidecar(rel string) bool {
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(rel, suffix) {
			return true
		}
	}
	return false
}

// sidecarBase strips the sidecar suffix, leaving the document path without extension.
func sidecarBase(rel string) (string, bool) {
	for _, suffix := range sidecarSuffixes {
		if strings.HasSuffix(rel, suffix) {
			return strings.TrimSuffix(rel, suffix), true
		}
	}
	return "", false
}
