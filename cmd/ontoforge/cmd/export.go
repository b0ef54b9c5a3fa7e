package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/exporter"
	"github.com/dbsmedya/ontoforge/internal/ontology"
)

var (
	exportSchema string
	exportFormat string
	exportOut    string
	exportList   bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serialize a schema as JSON or OWL",
	Long: `Export re-serializes a stored JSON schema (or the built-in types of the
configured mode) in another format.

Formats:
  json  native schema document, readable by --schema
  owl   OWL/RDF-XML using export.base_iri

Example:
  ontoforge export --schema schema.json --format owl --out schema.owl
  ontoforge export --list`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportSchema, "schema", "s", "",
		"JSON schema export to read (defaults to the built-in types)")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "",
		"Export format (json, owl); defaults to export.default_format")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "",
		"Output file (defaults to stdout)")
	exportCmd.Flags().BoolVar(&exportList, "list", false,
		"List the supported formats and exit")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportList {
		reg := exporter.NewRegistry()
		t := newTable("FORMAT", "MIME TYPE", "EXTENSION", "DESCRIPTION")
		for _, name := range reg.Formats() {
			info, _ := reg.Info(name)
			t.addRow(string(info.Name), info.MIMEType, info.Extension, info.Description)
		}
		t.render(cmd.OutOrStdout())
		return nil
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(exportSchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}

	data, err := sess.ExportOntology(exportFormat)
	if err != nil {
		return err
	}
	return writeOutput(cmd, exportOut, data)
}
