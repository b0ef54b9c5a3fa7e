package cmd

import (
	"fmt"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/ontoforge/internal/ontology"
)

var (
	hierarchySchema string
	hierarchyEdges  bool
)

var hierarchyCmd = &cobra.Command{
	Use:   "hierarchy",
	Short: "Print the entity type hierarchy",
	Long: `Hierarchy prints the subclass tree of a schema, one tree per root type.
Children are sorted by name and discovered types are highlighted.
With --edges the subclass_of edges are listed as a parent/child table instead.

Example:
  ontoforge hierarchy --schema schema.json
  ontoforge hierarchy --edges`,
	RunE: runHierarchy,
}

func init() {
	hierarchyCmd.Flags().StringVarP(&hierarchySchema, "schema", "s", "",
		"JSON schema export to read (defaults to the built-in types)")
	hierarchyCmd.Flags().BoolVar(&hierarchyEdges, "edges", false,
		"List subclass_of edges instead of the tree")

	rootCmd.AddCommand(hierarchyCmd)
}

func runHierarchy(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	seed, err := loadSchemaFile(hierarchySchema)
	if err != nil {
		return err
	}
	sess, err := ontology.New(cfg, ontology.Options{Logger: log, Store: seed})
	if err != nil {
		return err
	}

	store := sess.Store()
	discovered := discoveredNames(store)
	if !hierarchyEdges {
		printTree(cmd.OutOrStdout(), store.Hierarchy(), discovered)
		return nil
	}

	edges := store.SubclassEdges()
	t := newTable("PARENT", "CHILD")
	for _, e := range edges {
		t.addRow(e.From, e.To)
	}
	t.highlight(func(row []string, col int) color.Color {
		if discovered[row[col]] {
			return color.Green
		}
		return 0
	})
	t.render(cmd.OutOrStdout())
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d subclass_of edge(s)\n", len(edges))
	return nil
}
