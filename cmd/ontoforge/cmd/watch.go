package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/corpus"
	"github.com/dbsmedya/ontoforge/internal/database"
	"github.com/dbsmedya/ontoforge/internal/metrics"
	"github.com/dbsmedya/ontoforge/internal/ontology"
)

var (
	watchOut          string
	watchFormat       string
	watchSchema       string
	watchSkipExisting bool
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Run discovery on documents as a generator writes them",
	Long: `Watch processes the documents already in a directory, then keeps
running discovery on every new or changed document (and on documents
whose sidecar context changes) until interrupted.

On SIGINT or SIGTERM the watcher stops, the metrics textfile is written
and the schema is exported to --out.

Example:
  ontoforge watch ./generated --out schema.json
  ontoforge watch ./generated --skip-existing --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "",
		"Write the exported schema to this file on exit")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "",
		"Export format (json, owl); defaults to export.default_format")
	watchCmd.Flags().StringVarP(&watchSchema, "schema", "s", "",
		"Start from a JSON schema export instead of the built-in types")
	watchCmd.Flags().BoolVar(&watchSkipExisting, "skip-existing", false,
		"Ignore documents present before the watcher started")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0,
		"Stop after this long (0 runs until interrupted)")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, cancel := database.SetupSignalHandler(commandContext(cmd), func(sig os.Signal) {
		log.Infow("received signal, stopping watcher", "signal", sig.String())
	})
	defer cancel()
	if watchTimeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, watchTimeout)
		defer stop()
	}

	seed, err := loadSchemaFile(watchSchema)
	if err != nil {
		return err
	}
	loader, err := corpus.NewLoader(args[0], cfg.Corpus, log)
	if err != nil {
		return err
	}
	watcher, err := corpus.NewWatcher(loader, time.Duration(cfg.Corpus.DebounceMS)*time.Millisecond, log)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	m := metrics.New()
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Metrics: m, Store: seed})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	processed := 0
	process := func(item corpus.Item) {
		d := sess.DiscoverFromDocument(item.Document, item.Context)
		processed++
		if !d.Empty() {
			fmt.Fprintf(out, "%s\n", item.Path)
			printDiscoveries(out, d)
		}
	}

	existing, err := loader.LoadAll()
	if err != nil {
		return err
	}
	for _, item := range existing {
		watcher.MarkSeen(item)
		if !watchSkipExisting {
			process(item)
		}
	}

	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	fmt.Fprintf(out, "Watching %s (mode %s). Press Ctrl+C to stop.\n", loader.Root(), sess.Mode())

	for item := range watcher.Items() {
		process(item)
		if cfg.Metrics.Textfile != "" {
			if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				log.Warnw("failed to write metrics textfile", "error", err)
			}
		}
	}

	counts := sess.Store().Counts()
	fmt.Fprintf(out, "\nStopped after %d document(s): %d entity types (%d discovered), %d relationship types (%d discovered)\n",
		processed, counts.Entities, counts.DiscoveredEntities, counts.Relationships, counts.DiscoveredRelationships)
	if deferred := watcher.Deferred(); deferred > 0 {
		log.Warnw("documents deferred while discovery was busy", "count", deferred)
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}
	if watchOut != "" {
		data, err := sess.ExportOntology(watchFormat)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, watchOut, data); err != nil {
			return err
		}
	}
	return nil
}
