package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/ontoforge/internal/ontology"
	"github.com/dbsmedya/ontoforge/internal/types"
	"github.com/dbsmedya/ontoforge/internal/validator"
)

var (
	validateSchema string
	validateInput  string
	validateJSON   bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate extracted entities and relationships against a schema",
	Long: `Validate checks externally extracted instances against a schema and
sorts each one into valid, invalid or warning.

Checks performed:
  - Entity type is known (or reachable through the hierarchy)
  - Required attributes are present
  - Attribute values match type constraints (warning)
  - Relationship type is known
  - Source and target types are allowed for the relationship
  - Relationship endpoints exist in the entity list (warning)

The input is a JSON or YAML file with "entities" and "relationships" lists.
The command fails when any instance is invalid.

Example:
  ontoforge validate --schema schema.json --input extraction.json`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateSchema, "schema", "s", "",
		"JSON schema export to validate against (defaults to the built-in types)")
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "",
		"Extraction file with entities and relationships (required)")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false,
		"Print the full report as JSON")
	validateCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(validateCmd)
}

// extraction is the validate input file.
type extraction struct {
	Entities      []types.Record `json:"entities" yaml:"entities"`
	Relationships []types.Record `json:"relationships" yaml:"relationships"`
}

func loadExtraction(path string) (*extraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var ext extraction
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &ext)
	default:
		err = json.Unmarshal(data, &ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}
	return &ext, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(validateSchema)
	if err != nil {
		return err
	}
	ext, err := loadExtraction(validateInput)
	if err != nil {
		return err
	}

	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}
	report := sess.ValidateExtraction(ext.Entities, ext.Relationships)

	out := cmd.OutOrStdout()
	if validateJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, "", data); err != nil {
			return err
		}
	} else {
		printValidationReport(cmd, report)
	}

	invalid := len(report.InvalidEntities) + len(report.InvalidRelationships)
	if invalid > 0 {
		return fmt.Errorf("validation failed: %d invalid instance(s)", invalid)
	}
	if !validateJSON {
		fmt.Fprintln(out, "\nAll instances valid")
	}
	return nil
}

func printValidationReport(cmd *cobra.Command, r validator.Report) {
	out := cmd.OutOrStdout()

	printHeader(out, "Validation Report")
	fmt.Fprintf(out, "  Entities:      %d valid, %d invalid\n", len(r.ValidEntities), len(r.InvalidEntities))
	fmt.Fprintf(out, "  Relationships: %d valid, %d invalid\n", len(r.ValidRelationships), len(r.InvalidRelationships))
	fmt.Fprintf(out, "  Warnings:      %d\n", len(r.Warnings))

	issues := func(title string, list []validator.Issue) {
		if len(list) == 0 {
			return
		}
		fmt.Fprintln(out)
		printSection(out, title)
		t := newTable("KIND", "ID", "TYPE", "REASON")
		for _, is := range list {
			t.addRow(is.Kind, orDash(is.ID), orDash(is.Type), is.Reason)
		}
		t.render(out)
	}
	issues("Invalid Entities", r.InvalidEntities)
	issues("Invalid Relationships", r.InvalidRelationships)
	issues("Warnings", r.Warnings)
}
