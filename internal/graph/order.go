package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycleDetected is returned when the subclass_of edges contain a cycle.
var ErrCycleDetected = errors.New("cycle detected in type hierarchy")

// CycleInfo describes the part of a hierarchy that could not be ordered.
type CycleInfo struct {
	Total     int
	Ordered   int
	Unordered []string // sorted; cycle members and every type below them
	Members   []string // sorted; types that lie on a cycle
	Loop      []string // one cycle with its first type repeated at the end
}

// Blocked returns the unordered types that are not themselves on a cycle.
func (c *CycleInfo) Blocked() []string {
	onCycle := make(map[string]bool, len(c.Members))
	for _, m := range c.Members {
		onCycle[m] = true
	}
	var blocked []string
	for _, name := range c.Unordered {
		if !onCycle[name] {
			blocked = append(blocked, name)
		}
	}
	return blocked
}

// CycleError wraps ErrCycleDetected with the types involved.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

func (e *CycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d of %d types could not be ordered",
		ErrCycleDetected, len(e.Info.Unordered), e.Info.Total)
	if len(e.Info.Loop) > 0 {
		b.WriteString("\nCycle path: " + strings.Join(e.Info.Loop, " -> "))
	}
	if len(e.Info.Members) > 0 {
		b.WriteString("\nTypes in cycle: " + strings.Join(e.Info.Members, ", "))
	}
	if blocked := e.Info.Blocked(); len(blocked) > 0 {
		b.WriteString("\nTypes blocked by cycle: " + strings.Join(blocked, ", "))
	}
	return b.String()
}

// inDegrees counts the parents of every node.
func (g *Graph) inDegrees() map[string]int {
	degree := make(map[string]int, len(g.Nodes))
	for name := range g.Nodes {
		degree[name] = 0
	}
	for _, children := range g.Children {
		for _, child := range children {
			degree[child]++
		}
	}
	return degree
}

// readyNodes returns the sorted names whose degree is zero.
func readyNodes(degree map[string]int) []string {
	var ready []string
	for name, d := range degree {
		if d == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)
	return ready
}

// kahn orders nodes parents first. Nodes released by the same parent enter the
// ready list by name. The second result holds the nodes that were never released.
func (g *Graph) kahn() ([]string, []string) {
	degree := g.inDegrees()
	ready := readyNodes(degree)
	order := make([]string, 0, len(g.Nodes))

	for len(ready) > 0 {
		node := ready[0]
		ready = ready[1:]
		order = append(order, node)
		delete(degree, node)

		children := append([]string(nil), g.Children[node]...)
		sort.Strings(children)
		for _, child := range children {
			if degree[child]--; degree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	stuck := make([]string, 0, len(degree))
	for name := range degree {
		stuck = append(stuck, name)
	}
	sort.Strings(stuck)
	return order, stuck
}

// cycleInfo explains why stuck could not be ordered.
func (g *Graph) cycleInfo(ordered int, stuck []string) *CycleInfo {
	members := g.cycleMembers(stuck)
	return &CycleInfo{
		Total:     len(g.Nodes),
		Ordered:   ordered,
		Unordered: stuck,
		Members:   members,
		Loop:      g.loopFrom(members),
	}
}

// cycleMembers narrows stuck to the types that can reach themselves. Types
// with no child inside the set are peeled off first since they cannot be on a cycle.
func (g *Graph) cycleMembers(stuck []string) []string {
	inSet := make(map[string]bool, len(stuck))
	for _, name := range stuck {
		inSet[name] = true
	}

	for peeled := true; peeled; {
		peeled = false
		for name := range inSet {
			if !g.hasChildIn(name, inSet) {
				delete(inSet, name)
				peeled = true
			}
		}
	}

	var members []string
	for _, name := range stuck {
		if inSet[name] && g.reaches(name, name, inSet) {
			members = append(members, name)
		}
	}
	return members
}

func (g *Graph) hasChildIn(name string, set map[string]bool) bool {
	for _, child := range g.Children[name] {
		if set[child] {
			return true
		}
	}
	return false
}

// reaches reports whether to is reachable from from by at least one edge,
// travelling only through nodes in set.
func (g *Graph) reaches(from, to string, set map[string]bool) bool {
	seen := make(map[string]bool)
	stack := []string{from}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range g.Children[node] {
			if child == to {
				return true
			}
			if set[child] && !seen[child] {
				seen[child] = true
				stack = append(stack, child)
			}
		}
	}
	return false
}

// loopFrom walks member children from the first member until a type repeats.
// Every member has a child on its own cycle, so the walk always closes.
func (g *Graph) loopFrom(members []string) []string {
	if len(members) == 0 {
		return nil
	}
	isMember := make(map[string]bool, len(members))
	for _, m := range members {
		isMember[m] = true
	}

	at := make(map[string]int)
	var walk []string
	for node := members[0]; ; {
		if i, ok := at[node]; ok {
			return append(walk[i:], node)
		}
		at[node] = len(walk)
		walk = append(walk, node)

		children := append([]string(nil), g.Children[node]...)
		sort.Strings(children)
		next := ""
		for _, child := range children {
			if isMember[child] {
				next = child
				break
			}
		}
		if next == "" {
			return nil
		}
		node = next
	}
}

// TopologicalSort returns every type with parents before their children,
// breaking ties by name. It fails with a *CycleError if no such order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	order, stuck := g.kahn()
	if len(stuck) > 0 {
		return nil, &CycleError{Info: g.cycleInfo(len(order), stuck)}
	}
	return order, nil
}

// Cycles returns nil for an acyclic graph and a description of the cycle otherwise.
func (g *Graph) Cycles() *CycleInfo {
	order, stuck := g.kahn()
	if len(stuck) == 0 {
		return nil
	}
	return g.cycleInfo(len(order), stuck)
}

// HasCycle reports whether the subclass_of edges contain a cycle.
func (g *Graph) HasCycle() bool {
	_, stuck := g.kahn()
	return len(stuck) > 0
}

// Validate checks that the subclass_of edges form a forest: no cycles and at most one
// parent per node. Returns a CycleError or an error wrapping ErrMultipleParents.
func (g *Graph) Validate() error {
	if info := g.Cycles(); info != nil {
		return &CycleError{Info: info}
	}

	for _, name := range sortedNames(g.Parents) {
		if parents := g.Parents[name]; len(parents) > 1 {
			return fmt.Errorf("%w: %q has parents %s", ErrMultipleParents, name, strings.Join(parents, ", "))
		}
	}
	return nil
}

func sortedNames(m map[string][]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
