package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/ontoforge/internal/graph"
	"github.com/dbsmedya/ontoforge/internal/promotion"
	"github.com/dbsmedya/ontoforge/internal/schema"
)

// printHeader prints a formatted header
func printHeader(w io.Writer, format string, args ...interface{}) {
	title := fmt.Sprintf(format, args...)
	width := visualWidth(title) + 4
	fmt.Fprintln(w, strings.Repeat("=", width))
	fmt.Fprintf(w, "  %s\n", color.Bold.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("=", width))
}

// printSection prints a section header
func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "[%s]\n", color.Cyan.Sprint(title))
	fmt.Fprintln(w, strings.Repeat("-", visualWidth(title)+2))
}

// visualWidth returns the terminal width of s, counting wide runes as two cells.
func visualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// table renders rows in aligned columns. Cell widths are measured before colouring so
// escape codes never affect the alignment.
type table struct {
	headers []string
	rows    [][]string
	styles  []func(row []string, col int) color.Color
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) addRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// highlight colours cells for which fn returns a non-zero colour.
func (t *table) highlight(fn func(row []string, col int) color.Color) {
	t.styles = append(t.styles, fn)
}

func (t *table) render(w io.Writer) {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visualWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && visualWidth(cell) > widths[i] {
				widths[i] = visualWidth(cell)
			}
		}
	}

	line := func(cells []string, style func(col int, s string) string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			padded := cell
			if i < len(cells)-1 {
				padded = runewidth.FillRight(cell, widths[i])
			}
			parts[i] = style(i, padded)
		}
		fmt.Fprintln(w, "  "+strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(t.headers, func(_ int, s string) string { return color.Bold.Sprint(s) })
	for _, row := range t.rows {
		row := row
		line(row, func(col int, s string) string {
			for _, fn := range t.styles {
				if c := fn(row, col); c != 0 {
					return c.Sprint(s)
				}
			}
			return s
		})
	}
}

// printDiscoveries prints what a discovery run changed or proposed.
func printDiscoveries(w io.Writer, d promotion.Discoveries) {
	if d.Empty() {
		fmt.Fprintln(w, "  No new types, attributes or proposals.")
		return
	}

	for _, name := range d.NewEntityTypes {
		fmt.Fprintf(w, "  %s entity type %s\n", color.Green.Sprint("+"), name)
	}
	for _, name := range d.NewRelationshipTypes {
		fmt.Fprintf(w, "  %s relationship type %s\n", color.Green.Sprint("+"), name)
	}
	for _, typ := range sortedKeys(d.NewAttributes) {
		for _, attr := range d.NewAttributes[typ] {
			fmt.Fprintf(w, "  %s attribute %s.%s\n", color.Green.Sprint("+"), typ, attr)
		}
	}
	for _, typ := range sortedKeys(d.PatternUpdates) {
		fmt.Fprintf(w, "  %s patterns for %s: %s\n", color.Yellow.Sprint("~"), typ,
			strings.Join(d.PatternUpdates[typ], ", "))
	}
	for _, p := range d.Proposals {
		fmt.Fprintf(w, "  %s proposal %s (seen %d times)\n", color.Magenta.Sprint("?"), p.ID(), p.Count)
	}
}

// printPending prints candidates still below their thresholds.
func printPending(w io.Writer, pending []promotion.Pending) {
	if len(pending) == 0 {
		fmt.Fprintln(w, "  No pending candidates.")
		return
	}
	t := newTable("KIND", "NAME", "COUNT", "THRESHOLD")
	for _, p := range pending {
		name := p.Name
		if p.TargetType != "" {
			name = p.TargetType + "." + p.Name
		}
		t.addRow(string(p.Kind), name, fmt.Sprint(p.Count), fmt.Sprint(p.Threshold))
	}
	t.render(w)
}

// printEntityTypes prints entity types in insertion order. Discovered types are green.
func printEntityTypes(w io.Writer, types []*schema.EntityType) {
	t := newTable("NAME", "PARENT", "REQUIRED", "OPTIONAL", "DISCOVERED", "CONFIDENCE")
	for _, et := range types {
		t.addRow(
			et.Name,
			orDash(et.Parent),
			orDash(strings.Join(et.RequiredAttributes, ",")),
			orDash(strings.Join(et.OptionalAttributes, ",")),
			yesNo(et.Discovered),
			fmt.Sprintf("%.2f", et.Confidence),
		)
	}
	t.highlight(discoveredColumn(4))
	t.render(w)
}

// printRelationshipTypes prints relationship types in insertion order.
func printRelationshipTypes(w io.Writer, types []*schema.RelationshipType) {
	t := newTable("NAME", "SOURCES", "TARGETS", "CARDINALITY", "DISCOVERED", "CONFIDENCE")
	for _, rt := range types {
		t.addRow(
			rt.Name,
			orDash(strings.Join(rt.ValidSources, ",")),
			orDash(strings.Join(rt.ValidTargets, ",")),
			string(rt.Cardinality),
			yesNo(rt.Discovered),
			fmt.Sprintf("%.2f", rt.Confidence),
		)
	}
	t.highlight(discoveredColumn(4))
	t.render(w)
}

func discoveredColumn(col int) func(row []string, _ int) color.Color {
	return func(row []string, _ int) color.Color {
		if row[col] == "yes" {
			return color.Green
		}
		return 0
	}
}

// printTree prints the hierarchy with box-drawing connectors. Names in discovered are
// coloured.
func printTree(w io.Writer, roots []*graph.TreeNode, discovered map[string]bool) {
	label := func(name string) string {
		if discovered[name] {
			return color.Green.Sprint(name) + " (discovered)"
		}
		return name
	}

	var walk func(n *graph.TreeNode, prefix string, last bool)
	walk = func(n *graph.TreeNode, prefix string, last bool) {
		connector, next := "├── ", "│   "
		if last {
			connector, next = "└── ", "    "
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, connector, label(n.Name))
		for i, child := range n.Children {
			walk(child, prefix+next, i == len(n.Children)-1)
		}
	}

	for _, root := range roots {
		fmt.Fprintln(w, label(root.Name))
		for i, child := range root.Children {
			walk(child, "", i == len(root.Children)-1)
		}
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
