package corpus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dbsmedya/ontoforge/internal/logger"
)

const (
	// itemChannelBuffer is the size of the loaded item channel.
	itemChannelBuffer = 256

	defaultDebounce = 250 * time.Millisecond
)

// Watcher emits documents created or changed under the loader's root. Changes are
// collected for one debounce interval, and a document is emitted again only when its
// content or context changed. Removals are ignored.
type Watcher struct {
	loader   *Loader
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *logger.Logger

	pendingMu sync.Mutex
	pending   map[string]struct{}

	hashMu sync.Mutex
	hashes map[string]string

	items    chan Item
	deferred atomic.Int64
}

// NewWatcher creates a watcher over loader's root. A non-positive debounce uses 250ms.
func NewWatcher(loader *Loader, debounce time.Duration, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		loader:   loader,
		watcher:  fsw,
		debounce: debounce,
		log:      log,
		pending:  make(map[string]struct{}),
		hashes:   make(map[string]string),
		items:    make(chan Item, itemChannelBuffer),
	}, nil
}

// Items returns the channel of loaded documents. It is closed when the watcher stops.
func (w *Watcher) Items() <-chan Item {
	return w.items
}

// MarkSeen records item as already processed so an unchanged copy is not emitted.
func (w *Watcher) MarkSeen(item Item) {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()
	w.hashes[item.Path] = itemHash(item)
}

// Start adds watches on the root and its subdirectories and begins processing events
// until ctx is done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.loader.Root()); err != nil {
		return err
	}
	go w.run(ctx)

	w.log.Infow("corpus watcher started", "root", w.loader.Root(), "debounce", w.debounce)
	return nil
}

// Stop closes the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// Deferred returns how many times a document was held back for the next flush
// because the item channel was full.
func (w *Watcher) Deferred() int64 {
	return w.deferred.Load()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(p)
		if p != root && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			w.log.Warnw("failed to watch directory", "path", p, "error", err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.items)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Errorw("watcher error", "error", err)
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.log.Warnw("failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	rel, err := filepath.Rel(w.loader.Root(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	var docs []string
	if base, ok := sidecarBase(rel); ok {
		docs = w.documentsFor(base)
	} else if w.loader.Match(rel) {
		docs = []string{rel}
	}
	if len(docs) == 0 {
		return
	}

	w.pendingMu.Lock()
	for _, d := range docs {
		w.pending[d] = struct{}{}
	}
	w.pendingMu.Unlock()
}

// documentsFor lists corpus documents whose path without extension is base.
func (w *Watcher) documentsFor(base string) []string {
	dir, name := path.Split(base)
	entries, err := os.ReadDir(filepath.Join(w.loader.Root(), filepath.FromSlash(dir)))
	if err != nil {
		return nil
	}
	var docs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), name+".") {
			continue
		}
		rel := dir + e.Name()
		if strings.TrimSuffix(rel, path.Ext(rel)) == base && w.loader.Match(rel) {
			docs = append(docs, rel)
		}
	}
	return docs
}

func (w *Watcher) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()
	sort.Strings(paths)

	for _, rel := range paths {
		if ctx.Err() != nil {
			return
		}
		item, err := w.loader.Load(rel)
		if err != nil {
			w.log.Warnw("failed to load changed document", "path", rel, "error", err)
			continue
		}

		hash := itemHash(item)
		w.hashMu.Lock()
		unchanged := w.hashes[rel] == hash
		w.hashMu.Unlock()
		if unchanged {
			continue
		}

		select {
		case w.items <- item:
			w.hashMu.Lock()
			w.hashes[rel] = hash
			w.hashMu.Unlock()
		default:
			w.pendingMu.Lock()
			w.pending[rel] = struct{}{}
			w.pendingMu.Unlock()
			deferred := w.deferred.Add(1)
			w.log.Warnw("item channel full, deferring document", "path", rel, "total_deferred", deferred)
		}
	}
}

func itemHash(item Item) string {
	data, _ := json.Marshal(struct {
		Document interface{}
		Context  interface{}
	}{item.Document, item.Context})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
