package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/ontology"
	"github.com/dbsmedya/ontoforge/internal/snapshot"
	"github.com/dbsmedya/ontoforge/internal/verifier"
)

var (
	snapshotSchema string
	snapshotOut    string
	snapshotMethod string
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Store, load and verify schema snapshots in MySQL",
	Long: `Snapshot manages versioned copies of a schema in the database configured
under "database". Writes for one ontology are serialized with a MySQL
advisory lock, so concurrent runs never interleave versions.

A new snapshot gets a minor version bump when types were added and a patch
bump otherwise. Saving a schema identical to the latest snapshot writes
nothing.

Example:
  ontoforge snapshot save --schema schema.json
  ontoforge snapshot latest --out schema.json
  ontoforge snapshot verify --schema schema.json --method sha256`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Store a schema as the next snapshot",
	RunE:  runSnapshotSave,
}

var snapshotLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show or write the latest snapshot",
	RunE:  runSnapshotLatest,
}

var snapshotVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Compare a schema with the latest snapshot",
	RunE:  runSnapshotVerify,
}

func init() {
	snapshotSaveCmd.Flags().StringVarP(&snapshotSchema, "schema", "s", "",
		"JSON schema export to store (defaults to the built-in types)")

	snapshotLatestCmd.Flags().StringVarP(&snapshotOut, "out", "o", "",
		"Write the snapshot's JSON schema to this file (- for stdout)")

	snapshotVerifyCmd.Flags().StringVarP(&snapshotSchema, "schema", "s", "",
		"JSON schema export to compare (defaults to the built-in types)")
	snapshotVerifyCmd.Flags().StringVar(&snapshotMethod, "method", string(verifier.MethodSHA256),
		"Verification method (count, sha256, skip)")

	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotLatestCmd, snapshotVerifyCmd)
	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshotSave(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(snapshotSchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}

	snap, created, err := saveSnapshot(commandContext(cmd), cfg, log, sess.Store())
	if err != nil {
		return err
	}
	printSnapshotSaved(cmd, snap, created)
	return nil
}

func runSnapshotLatest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	snap, err := latestSnapshot(commandContext(cmd), cfg, log)
	if err != nil {
		return err
	}

	if snapshotOut == "-" {
		return writeOutput(cmd, "", snap.Document)
	}
	printSnapshot(cmd, snap)
	if snapshotOut != "" {
		return writeOutput(cmd, snapshotOut, snap.Document)
	}
	return nil
}

func runSnapshotVerify(cmd *cobra.Command, args []string) error {
	method, err := verifier.ParseMethod(snapshotMethod)
	if err != nil {
		return err
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(snapshotSchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	snap, err := latestSnapshot(ctx, cfg, log)
	if err != nil {
		return err
	}

	v, err := verifier.NewVerifier(method, log)
	if err != nil {
		return err
	}
	stats, verr := v.Verify(ctx, sess.Store(), snap)

	out := cmd.OutOrStdout()
	if stats != nil {
		printHeader(out, "Snapshot %s (version %s)", snap.ID, stats.SnapshotVersion)
		t := newTable("COMPONENT", "METHOD", "LIVE", "STORED", "RESULT")
		for _, r := range stats.Results {
			result := "match"
			if !r.Match {
				result = r.ErrorMessage
			}
			t.addRow(r.Component, string(r.Method), fmt.Sprint(r.LiveCount), fmt.Sprint(r.StoredCount), result)
		}
		t.render(out)
	}
	if verr != nil {
		return verr
	}
	if method == verifier.MethodSkip {
		fmt.Fprintln(out, "Verification skipped")
	} else {
		fmt.Fprintln(out, "Schema matches the latest snapshot")
	}
	return nil
}

func printSnapshot(cmd *cobra.Command, snap *snapshot.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Snapshot:      %s\n", snap.ID)
	fmt.Fprintf(out, "Ontology:      %s\n", snap.Ontology)
	fmt.Fprintf(out, "Version:       %s\n", snap.Version)
	fmt.Fprintf(out, "Mode:          %s\n", snap.Mode)
	fmt.Fprintf(out, "Entity types:  %d\n", snap.EntityCount)
	fmt.Fprintf(out, "Relationships: %d\n", snap.RelationshipCount)
	fmt.Fprintf(out, "Fingerprint:   %s\n", snap.Fingerprint)
	fmt.Fprintf(out, "Created:       %s\n", snap.CreatedAt.Format("2006-01-02 15:04:05 MST"))
}
