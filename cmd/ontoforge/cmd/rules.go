package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dbsmedya/ontoforge/internal/ontology"
)

var (
	rulesSchema string
	rulesOut    string
	rulesYAML   bool
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Generate extraction rules from a schema",
	Long: `Rules flattens a schema into per-type extraction rules: discovery
patterns, required and optional context keys and constraints for entity
types, and valid endpoints and cardinality for relationship types.

Example:
  ontoforge rules --schema schema.json
  ontoforge rules --schema schema.json --yaml --out rules.yaml`,
	RunE: runRules,
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesSchema, "schema", "s", "",
		"JSON schema export to read (defaults to the built-in types)")
	rulesCmd.Flags().StringVarP(&rulesOut, "out", "o", "",
		"Output file (defaults to stdout)")
	rulesCmd.Flags().BoolVar(&rulesYAML, "yaml", false,
		"Write YAML instead of JSON")

	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(rulesSchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}
	rules := sess.GenerateExtractionRules()

	var data []byte
	if rulesYAML {
		data, err = yaml.Marshal(rules)
	} else {
		data, err = json.MarshalIndent(rules, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode rules: %w", err)
	}
	return writeOutput(cmd, rulesOut, data)
}
