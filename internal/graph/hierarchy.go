package graph

import "sort"

// Ancestors returns the parent chain of name, nearest first. The walk is bounded by the
// node count so a corrupted graph cannot loop forever.
func (g *Graph) Ancestors(name string) []string {
	var chain []string
	seen := map[string]bool{name: true}
	current := name
	for i := 0; i < len(g.Nodes); i++ {
		parent := g.Parent(current)
		if parent == "" || seen[parent] {
			break
		}
		seen[parent] = true
		chain = append(chain, parent)
		current = parent
	}
	return chain
}

// IsAncestor reports whether ancestor appears in the parent chain of name.
func (g *Graph) IsAncestor(ancestor, name string) bool {
	for _, a := range g.Ancestors(name) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// IsSubtypeOf reports whether name equals typ or descends from it.
func (g *Graph) IsSubtypeOf(name, typ string) bool {
	return name == typ || g.IsAncestor(typ, name)
}

// Descendants returns every type below name in breadth-first order, siblings sorted.
func (g *Graph) Descendants(name string) []string {
	var result []string
	seen := map[string]bool{name: true}
	queue := []string{name}

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		children := append([]string(nil), g.GetChildren(node)...)
		sort.Strings(children)
		for _, child := range children {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}
	return result
}

// Roots returns the sorted entity-type nodes that have no parent.
func (g *Graph) Roots() []string {
	var roots []string
	for name, node := range g.Nodes {
		if node.Kind == KindEntity && len(g.Parents[name]) == 0 {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// pathDown returns the child chain leading from 'from' to 'to', excluding 'from'.
// Returns nil if 'to' is not below 'from'.
func (g *Graph) pathDown(from, to string) []string {
	ancestors := g.Ancestors(to)
	for i, a := range ancestors {
		if a == from {
			path := make([]string, 0, i+1)
			for j := i - 1; j >= 0; j-- {
				path = append(path, ancestors[j])
			}
			return append(path, to)
		}
	}
	return nil
}

// TreeNode is one entry of the exported hierarchy tree.
type TreeNode struct {
	Name     string      `json:"name"`
	Children []*TreeNode `json:"children"`
}

// Tree builds the hierarchy by recursive descent from every root. Children are sorted by
// name. Nodes unreachable from a root (only possible in a cyclic graph) are omitted.
func (g *Graph) Tree() []*TreeNode {
	roots := g.Roots()
	trees := make([]*TreeNode, 0, len(roots))
	visited := make(map[string]bool)
	for _, root := range roots {
		trees = append(trees, g.subtree(root, visited))
	}
	return trees
}

func (g *Graph) subtree(name string, visited map[string]bool) *TreeNode {
	visited[name] = true
	node := &TreeNode{Name: name, Children: []*TreeNode{}}

	children := append([]string(nil), g.GetChildren(name)...)
	sort.Strings(children)
	for _, child := range children {
		if visited[child] {
			continue
		}
		node.Children = append(node.Children, g.subtree(child, visited))
	}
	return node
}
