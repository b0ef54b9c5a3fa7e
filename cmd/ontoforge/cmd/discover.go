package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/metrics"
	"github.com/dbsmedya/ontoforge/internal/ontology"
	"github.com/dbsmedya/ontoforge/internal/promotion"
	"github.com/dbsmedya/ontoforge/internal/schema"
	"github.com/dbsmedya/ontoforge/internal/snapshot"
)

var (
	discoverOut          string
	discoverFormat       string
	discoverSchema       string
	discoverParallel     bool
	discoverFromSnapshot bool
	discoverSaveSnapshot bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover [paths...]",
	Short: "Discover entity, relationship and attribute types in documents",
	Long: `Discover loads documents from the given files and directories, scans
them for candidate types, and promotes candidates according to the mode.

Directories are searched with the corpus include/exclude globs. Each
document may carry a sidecar context file (<doc>.context.json or
<doc>.context.yaml) with the records it was generated from.

The run prints what was promoted or proposed and the candidates still
below threshold, then optionally writes the schema (--out), a metrics
textfile and a snapshot.

Example:
  ontoforge discover ./generated --out schema.json
  ontoforge discover ./generated --mode guided --parallel
  ontoforge discover ./generated --from-snapshot --snapshot`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverOut, "out", "o", "",
		"Write the exported schema to this file (- for stdout)")
	discoverCmd.Flags().StringVarP(&discoverFormat, "format", "f", "",
		"Export format (json, owl); defaults to export.default_format")
	discoverCmd.Flags().StringVarP(&discoverSchema, "schema", "s", "",
		"Start from a JSON schema export instead of the built-in types")
	discoverCmd.Flags().BoolVar(&discoverParallel, "parallel", false,
		"Scan documents concurrently (discovery.scan_workers) and merge in order")
	discoverCmd.Flags().BoolVar(&discoverFromSnapshot, "from-snapshot", false,
		"Start from the latest stored snapshot")
	discoverCmd.Flags().BoolVar(&discoverSaveSnapshot, "snapshot", false,
		"Store the resulting schema as a new snapshot")
	discoverCmd.MarkFlagsMutuallyExclusive("schema", "from-snapshot")

	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := commandContext(cmd)

	seed, err := loadSchemaFile(discoverSchema)
	if err != nil {
		return err
	}
	if discoverFromSnapshot {
		snap, err := latestSnapshot(ctx, cfg, log)
		if err != nil {
			return err
		}
		if seed, err = snapshot.Load(snap); err != nil {
			return err
		}
		log.Infow("starting from snapshot", "id", snap.ID, "version", snap.Version.String())
	}

	inputs, err := loadInputs(args, cfg.Corpus, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Metrics: m, Store: seed})
	if err != nil {
		return err
	}

	var discoveries promotion.Discoveries
	if discoverParallel {
		discoveries, err = sess.DiscoverBatch(ctx, inputs)
		if err != nil {
			return err
		}
	} else {
		discoveries = promotion.NewDiscoveries()
		for _, in := range inputs {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("discovery interrupted: %w", err)
			}
			discoveries.Merge(sess.DiscoverFromDocument(in.Document, in.Context))
		}
	}

	out := cmd.OutOrStdout()
	if discoverOut != "-" {
		printReport(cmd, sess, discoveries, len(inputs))
	}

	if discoverOut != "" {
		data, err := sess.ExportOntology(discoverFormat)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, discoverOut, data); err != nil {
			return err
		}
		if discoverOut != "-" {
			fmt.Fprintf(out, "\nSchema written to %s\n", discoverOut)
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return err
		}
	}

	if discoverSaveSnapshot {
		snap, created, err := saveSnapshot(ctx, cfg, log, sess.Store())
		if err != nil {
			return err
		}
		if discoverOut != "-" {
			printSnapshotSaved(cmd, snap, created)
		}
	}
	return nil
}

func printReport(cmd *cobra.Command, sess *ontology.Session, d promotion.Discoveries, documents int) {
	out := cmd.OutOrStdout()
	counts := sess.Store().Counts()

	printHeader(out, "Discovery Run %s", sess.RunID())
	fmt.Fprintf(out, "  Mode:               %s\n", sess.Mode())
	fmt.Fprintf(out, "  Documents:          %d\n", documents)
	fmt.Fprintf(out, "  Entity types:       %d (%d discovered)\n", counts.Entities, counts.DiscoveredEntities)
	fmt.Fprintf(out, "  Relationship types: %d (%d discovered)\n", counts.Relationships, counts.DiscoveredRelationships)

	fmt.Fprintln(out)
	printSection(out, "Discoveries")
	printDiscoveries(out, d)

	fmt.Fprintln(out)
	printSection(out, "Pending Candidates")
	printPending(out, sess.PendingPromotions())
}

func printSnapshotSaved(cmd *cobra.Command, snap *snapshot.Snapshot, created bool) {
	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintf(out, "Snapshot %s saved as version %s\n", snap.ID, snap.Version)
	} else {
		fmt.Fprintf(out, "Schema unchanged since snapshot %s (version %s)\n", snap.ID, snap.Version)
	}
}

// discoveredNames returns the names of discovered entity types.
func discoveredNames(store *schema.Store) map[string]bool {
	names := make(map[string]bool)
	for _, et := range store.EntityTypes() {
		if et.Discovered {
			names[et.Name] = true
		}
	}
	return names
}
