package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/ontology"
)

var (
	typesSchema         string
	typesDiscoveredOnly bool
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List entity and relationship types",
	Long: `Types prints the entity and relationship types of a schema in
insertion order. Discovered types are highlighted.

Example:
  ontoforge types --schema schema.json
  ontoforge types --mode discovery`,
	RunE: runTypes,
}

func init() {
	typesCmd.Flags().StringVarP(&typesSchema, "schema", "s", "",
		"JSON schema export to read (defaults to the built-in types)")
	typesCmd.Flags().BoolVar(&typesDiscoveredOnly, "discovered", false,
		"Only list discovered types")

	rootCmd.AddCommand(typesCmd)
}

func runTypes(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(typesSchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}
	store := sess.Store()

	entities := store.EntityTypes()
	relationships := store.RelationshipTypes()
	if typesDiscoveredOnly {
		entities = entities[:0]
		for _, et := range store.EntityTypes() {
			if et.Discovered {
				entities = append(entities, et)
			}
		}
		relationships = relationships[:0]
		for _, rt := range store.RelationshipTypes() {
			if rt.Discovered {
				relationships = append(relationships, rt)
			}
		}
	}

	out := cmd.OutOrStdout()
	printSection(out, fmt.Sprintf("Entity Types (%d)", len(entities)))
	printEntityTypes(out, entities)
	fmt.Fprintln(out)
	printSection(out, fmt.Sprintf("Relationship Types (%d)", len(relationships)))
	printRelationshipTypes(out, relationships)
	return nil
}
